package feed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/betfair-logger/internal/config"
	"github.com/rickgao/betfair-logger/internal/model"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w, "market_books", nil)

	ts := time.Date(2026, 10, 16, 13, 59, 0, 0, time.UTC)
	market := model.Market{ID: 5, EventID: 2, ExchangeID: "1.234", Name: "R1", StartTime: ts.Add(time.Minute)}
	book := model.MarketBook{
		ID:           77,
		MarketID:     5,
		Timestamp:    ts,
		Status:       model.StatusOpen,
		TotalMatched: decimal.RequireFromString("1520.5"),
		Runners: []model.RunnerBook{
			{SelectionID: 10, BackPrice: decimal.NewNullDecimal(decimal.RequireFromString("3.45"))},
		},
	}

	require.NoError(t, p.Publish(context.Background(), market, book))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "1.234", string(msg.Key))
	assert.Equal(t, ts, msg.Time)
	assert.Equal(t, "OPEN", string(msg.Headers[0].Value))

	var decoded BookMessage
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "1.234", decoded.MarketID)
	assert.Equal(t, int64(77), decoded.Book.ID)
	assert.True(t, decoded.Book.TotalMatched.Equal(book.TotalMatched))
	assert.NotEqual(t, [16]byte{}, [16]byte(decoded.ID))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublish_WriteError(t *testing.T) {
	p := newPublisher(&fakeWriter{err: errors.New("broker down")}, "market_books", nil)
	err := p.Publish(context.Background(), model.Market{ExchangeID: "1.1"}, model.MarketBook{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market_books")
}

func TestNewPublisher(t *testing.T) {
	p := NewPublisher(config.FeedConfig{Enabled: true, Brokers: []string{"localhost:9092"}, Topic: "books"}, nil)
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "books", w.Topic)
	assert.True(t, w.Async)
	assert.NoError(t, p.Close())
}
