package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/rickgao/betfair-logger/internal/config"
	"github.com/rickgao/betfair-logger/internal/exchange"
	"github.com/rickgao/betfair-logger/internal/metrics"
	"github.com/rickgao/betfair-logger/internal/model"
	"github.com/rickgao/betfair-logger/internal/store"
)

// Source is the subset of the exchange gateway used for discovery.
type Source interface {
	ListEvents(ctx context.Context, filter exchange.MarketFilter) ([]exchange.EventResult, error)
	ListMarketCatalogue(ctx context.Context, filter exchange.MarketFilter, maxResults int, projections []string) ([]exchange.MarketCatalogue, error)
}

// Loader discovers one day's roster.
type Loader struct {
	cfg     config.CatalogConfig
	source  Source
	store   store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewLoader creates a Loader. metrics may be nil.
func NewLoader(cfg config.CatalogConfig, source Source, st store.Store, m *metrics.Metrics, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		cfg:     cfg,
		source:  source,
		store:   st,
		metrics: m,
		logger:  logger.With("component", "catalog"),
	}
}

// Load discovers markets starting in [day, day+24h) and returns them ordered
// by start time, each carrying its stored back-references. Any gateway or
// store error aborts the load.
func (l *Loader) Load(ctx context.Context, day time.Time) ([]model.Market, error) {
	window := &exchange.TimeRange{From: day, To: day.Add(24 * time.Hour)}
	start := time.Now()

	l.logger.Info("loading catalog", "from", window.From, "to", window.To)

	events, err := l.source.ListEvents(ctx, exchange.MarketFilter{
		EventTypeIDs:    l.cfg.EventTypeIDs,
		MarketCountries: l.cfg.Countries,
		MarketTypeCodes: l.cfg.MarketTypes,
		MarketStartTime: window,
	})
	if err != nil {
		return nil, fmt.Errorf("discover events: %w", err)
	}

	var (
		roster     []model.Market
		newEvents  int
		newMarkets int
	)

	for _, er := range events {
		event := exchange.EventToModel(er.Event)
		created, err := l.store.SaveEvent(ctx, &event)
		if err != nil {
			return nil, err
		}
		if created {
			newEvents++
		}

		markets, n, err := l.loadEvent(ctx, event, window)
		if err != nil {
			return nil, err
		}
		roster = append(roster, markets...)
		newMarkets += n
	}

	slices.SortStableFunc(roster, func(a, b model.Market) int {
		return a.StartTime.Compare(b.StartTime)
	})

	l.metrics.CatalogLoaded(len(roster))
	l.logger.Info("catalog loaded",
		"events", len(events),
		"new_events", newEvents,
		"markets", len(roster),
		"new_markets", newMarkets,
		"duration", time.Since(start),
	)

	return roster, nil
}

// loadEvent stores the event's markets and returns them with the number
// newly created.
func (l *Loader) loadEvent(ctx context.Context, event model.Event, window *exchange.TimeRange) ([]model.Market, int, error) {
	catalogue, err := l.source.ListMarketCatalogue(ctx, exchange.MarketFilter{
		EventIDs:        []string{event.ExchangeID},
		MarketTypeCodes: l.cfg.MarketTypes,
		MarketStartTime: window,
	}, l.cfg.MaxResults, l.projections())
	if err != nil {
		return nil, 0, fmt.Errorf("discover markets for event %s: %w", event.ExchangeID, err)
	}

	markets := make([]model.Market, 0, len(catalogue))
	created := 0
	for _, entry := range catalogue {
		m := exchange.MarketToModel(entry, event.ID)
		isNew, err := l.store.SaveMarket(ctx, &m)
		if err != nil {
			return nil, 0, err
		}
		if isNew {
			created++
			l.logger.Debug("new market",
				"market", m.ExchangeID,
				"event", event.Name,
				"name", m.Name,
				"start", m.StartTime,
				"runners", len(m.Runners),
			)
		}
		markets = append(markets, m)
	}
	return markets, created, nil
}

// BackfillMetadata fetches runner metadata for each event and writes jockey
// and trainer names onto the given stored markets. Markets stored before
// metadata was enabled are filled in this way. It returns the number of
// market runners changed.
func (l *Loader) BackfillMetadata(ctx context.Context, events []model.Event, markets []model.Market) (int, error) {
	byID := make(map[string]model.Market, len(markets))
	for _, m := range markets {
		byID[m.ExchangeID] = m
	}

	changed := 0
	for _, event := range events {
		catalogue, err := l.source.ListMarketCatalogue(ctx, exchange.MarketFilter{
			EventIDs: []string{event.ExchangeID},
		}, l.cfg.MaxResults, []string{
			exchange.ProjectionRunnerDescription,
			exchange.ProjectionRunnerMetadata,
		})
		if err != nil {
			return changed, fmt.Errorf("metadata for event %s: %w", event.ExchangeID, err)
		}

		for _, entry := range catalogue {
			stored, ok := byID[entry.MarketID]
			if !ok {
				continue
			}
			m := exchange.MarketToModel(entry, stored.EventID)
			n, err := l.store.UpdateRunnerMetadata(ctx, stored.ID, m.Runners)
			if err != nil {
				return changed, err
			}
			changed += n
			if n > 0 {
				l.logger.Debug("runner metadata updated",
					"market", stored.ExchangeID,
					"runners", n,
				)
			}
		}
	}
	return changed, nil
}

func (l *Loader) projections() []string {
	p := []string{
		exchange.ProjectionMarketStartTime,
		exchange.ProjectionRunnerDescription,
	}
	if l.cfg.RunnerMetadata {
		p = append(p, exchange.ProjectionRunnerMetadata)
	}
	return p
}
