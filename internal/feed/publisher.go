package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/rickgao/betfair-logger/internal/config"
	"github.com/rickgao/betfair-logger/internal/model"
)

// messageWriter is the subset of kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes snapshots to a Kafka topic.
type Publisher struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// BookMessage is the JSON payload of one snapshot.
type BookMessage struct {
	ID        uuid.UUID        `json:"id"`
	MarketID  string           `json:"market_id"`
	EventID   int64            `json:"event_id"`
	Name      string           `json:"name"`
	StartTime time.Time        `json:"start_time"`
	Book      model.MarketBook `json:"book"`
}

// NewPublisher creates a Publisher with an async Kafka writer. Write errors
// surface through the writer's completion callback and are logged.
func NewPublisher(cfg config.FeedConfig, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "feed")

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				logger.Warn("feed write failed", "messages", len(msgs), "err", err)
			}
		},
	}

	return newPublisher(w, cfg.Topic, logger)
}

func newPublisher(w messageWriter, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{writer: w, topic: topic, logger: logger}
}

// Publish implements poller.BookSink.
func (p *Publisher) Publish(ctx context.Context, market model.Market, book model.MarketBook) error {
	value, err := json.Marshal(BookMessage{
		ID:        uuid.New(),
		MarketID:  market.ExchangeID,
		EventID:   market.EventID,
		Name:      market.Name,
		StartTime: market.StartTime,
		Book:      book,
	})
	if err != nil {
		return fmt.Errorf("marshal book: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(market.ExchangeID),
		Value: value,
		Time:  book.Timestamp,
		Headers: []kafka.Header{
			{Key: "status", Value: []byte(book.Status)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
