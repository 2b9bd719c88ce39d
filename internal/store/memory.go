package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/betfair-logger/internal/model"
)

// Memory is an in-process Store.
type Memory struct {
	mu sync.RWMutex

	nextID int64

	events        map[int64]model.Event
	eventsByExID  map[string]int64
	markets       map[int64]*model.Market // Runners and back-references included
	marketsByExID map[string]int64
	runnersByExID map[int64]model.Runner
	books         map[int64][]model.MarketBook // By market id, in insert order
	orders        map[string]model.SettledOrder
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		events:        make(map[int64]model.Event),
		eventsByExID:  make(map[string]int64),
		markets:       make(map[int64]*model.Market),
		marketsByExID: make(map[string]int64),
		runnersByExID: make(map[int64]model.Runner),
		books:         make(map[int64][]model.MarketBook),
		orders:        make(map[string]model.SettledOrder),
	}
}

func (s *Memory) id() int64 {
	s.nextID++
	return s.nextID
}

// SaveEvent implements Store.
func (s *Memory) SaveEvent(_ context.Context, e *model.Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.eventsByExID[e.ExchangeID]; ok {
		e.ID = id
		return false, nil
	}

	e.ID = s.id()
	s.events[e.ID] = *e
	s.eventsByExID[e.ExchangeID] = e.ID
	return true, nil
}

// SaveMarket implements Store.
func (s *Memory) SaveMarket(_ context.Context, m *model.Market) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[m.EventID]; !ok {
		return false, fmt.Errorf("save market %s: event %d: %w", m.ExchangeID, m.EventID, ErrNotFound)
	}

	stored, exists := s.lookupMarketLocked(m.ExchangeID)
	if !exists {
		stored = &model.Market{
			ID:           s.id(),
			EventID:      m.EventID,
			ExchangeID:   m.ExchangeID,
			Name:         m.Name,
			StartTime:    m.StartTime,
			TotalMatched: m.TotalMatched,
			Notes:        m.Notes,
		}
		s.markets[stored.ID] = stored
		s.marketsByExID[stored.ExchangeID] = stored.ID
	}

	for _, mr := range m.Runners {
		runner, ok := s.runnersByExID[mr.SelectionID]
		if !ok {
			runner = model.Runner{ID: s.id(), ExchangeID: mr.SelectionID, Name: mr.Name}
			s.runnersByExID[mr.SelectionID] = runner
		}
		if findRunner(stored.Runners, mr.SelectionID) >= 0 {
			continue
		}
		mr.ID = s.id()
		mr.MarketID = stored.ID
		mr.RunnerID = runner.ID
		stored.Runners = append(stored.Runners, mr)
	}
	slices.SortStableFunc(stored.Runners, func(a, b model.MarketRunner) int {
		return a.SortPriority - b.SortPriority
	})

	*m = cloneMarket(stored)
	return !exists, nil
}

func (s *Memory) lookupMarketLocked(exchangeID string) (*model.Market, bool) {
	id, ok := s.marketsByExID[exchangeID]
	if !ok {
		return nil, false
	}
	return s.markets[id], true
}

// SaveMarketBook implements Store.
func (s *Memory) SaveMarketBook(_ context.Context, b *model.MarketBook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	market, ok := s.markets[b.MarketID]
	if !ok {
		return fmt.Errorf("save market book: market %d: %w", b.MarketID, ErrNotFound)
	}
	for _, rb := range b.Runners {
		if !hasRunnerID(market.Runners, rb.MarketRunnerID) {
			return fmt.Errorf("save market book: market runner %d: %w", rb.MarketRunnerID, ErrNotFound)
		}
	}

	b.ID = s.id()
	for i := range b.Runners {
		b.Runners[i].ID = s.id()
		b.Runners[i].MarketBookID = b.ID
	}

	stored := *b
	stored.Runners = slices.Clone(b.Runners)
	s.books[b.MarketID] = append(s.books[b.MarketID], stored)

	ref := b.Ref()
	market.LastBook = ref
	if IsPrerace(b) {
		market.LastPrerace = ref
	}
	if IsInplay(b) {
		market.LastInplay = ref
	}
	return nil
}

// FindMarketRunner implements Store.
func (s *Memory) FindMarketRunner(_ context.Context, marketID, selectionID int64) (*model.MarketRunner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	market, ok := s.markets[marketID]
	if !ok {
		return nil, ErrNotFound
	}
	i := findRunner(market.Runners, selectionID)
	if i < 0 {
		return nil, ErrNotFound
	}
	mr := market.Runners[i]
	return &mr, nil
}

// SaveSettledOrder implements Store.
func (s *Memory) SaveSettledOrder(_ context.Context, o *model.SettledOrder) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.orders[o.BetID]; ok {
		o.ID = existing.ID
		return false, nil
	}

	o.ID = s.id()
	s.orders[o.BetID] = *o
	return true, nil
}

// UpdateRunnerMetadata implements Store.
func (s *Memory) UpdateRunnerMetadata(_ context.Context, marketID int64, runners []model.MarketRunner) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	market, ok := s.markets[marketID]
	if !ok {
		return 0, fmt.Errorf("update runner metadata: market %d: %w", marketID, ErrNotFound)
	}

	changed := 0
	for _, in := range runners {
		i := findRunner(market.Runners, in.SelectionID)
		if i < 0 {
			continue
		}
		mr := &market.Runners[i]
		updated := false
		if in.Jockey != "" && in.Jockey != mr.Jockey {
			mr.Jockey = in.Jockey
			updated = true
		}
		if in.Trainer != "" && in.Trainer != mr.Trainer {
			mr.Trainer = in.Trainer
			updated = true
		}
		if updated {
			changed++
		}
	}
	return changed, nil
}

// SettledOrders implements Store.
func (s *Memory) SettledOrders(_ context.Context, marketID int64) ([]model.SettledOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.SettledOrder
	for _, o := range s.orders {
		if o.MarketID == marketID {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b model.SettledOrder) int { return int(a.ID - b.ID) })
	return out, nil
}

// MarketsBetween implements Store.
func (s *Memory) MarketsBetween(_ context.Context, from, to time.Time) ([]model.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Market
	for _, m := range s.markets {
		if !m.StartTime.Before(from) && m.StartTime.Before(to) {
			out = append(out, cloneMarket(m))
		}
	}
	slices.SortFunc(out, func(a, b model.Market) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})
	return out, nil
}

// EventsBetween implements Store.
func (s *Memory) EventsBetween(_ context.Context, from, to time.Time) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]bool)
	var out []model.Event
	for _, m := range s.markets {
		if m.StartTime.Before(from) || !m.StartTime.Before(to) || seen[m.EventID] {
			continue
		}
		seen[m.EventID] = true
		out = append(out, s.events[m.EventID])
	}
	slices.SortFunc(out, func(a, b model.Event) int { return int(a.ID - b.ID) })
	return out, nil
}

// StartingPrices implements Store.
func (s *Memory) StartingPrices(_ context.Context, marketID int64) (map[int64]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	market, ok := s.markets[marketID]
	if !ok {
		return nil, ErrNotFound
	}

	var prerace *model.MarketBook
	if market.LastPrerace != nil {
		for i, b := range s.books[marketID] {
			if b.ID == market.LastPrerace.ID {
				prerace = &s.books[marketID][i]
				break
			}
		}
	}

	prices := make(map[int64]decimal.Decimal, len(market.Runners))
	for _, mr := range market.Runners {
		var ltp decimal.NullDecimal
		if prerace != nil {
			for _, rb := range prerace.Runners {
				if rb.MarketRunnerID == mr.ID {
					ltp = rb.LastPriceTraded
					break
				}
			}
		}
		prices[mr.ID] = model.StartingPrice(ltp)
	}
	return prices, nil
}

// Ping implements Store.
func (s *Memory) Ping(context.Context) error { return nil }

// Close implements Store.
func (s *Memory) Close() {}

// Books returns a copy of the stored snapshots for a market, oldest first.
func (s *Memory) Books(marketID int64) []model.MarketBook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.books[marketID])
}

// Orders returns a copy of the stored settled orders.
func (s *Memory) Orders() []model.SettledOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.SettledOrder, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b model.SettledOrder) int { return int(a.ID - b.ID) })
	return out
}

// Counts returns the number of stored events, markets and runners.
func (s *Memory) Counts() (events, markets, runners int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events), len(s.markets), len(s.runnersByExID)
}

func cloneMarket(m *model.Market) model.Market {
	out := *m
	out.Runners = slices.Clone(m.Runners)
	out.LastBook = cloneRef(m.LastBook)
	out.LastPrerace = cloneRef(m.LastPrerace)
	out.LastInplay = cloneRef(m.LastInplay)
	return out
}

func cloneRef(r *model.BookRef) *model.BookRef {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func findRunner(runners []model.MarketRunner, selectionID int64) int {
	return slices.IndexFunc(runners, func(mr model.MarketRunner) bool {
		return mr.SelectionID == selectionID
	})
}

func hasRunnerID(runners []model.MarketRunner, id int64) bool {
	return slices.ContainsFunc(runners, func(mr model.MarketRunner) bool {
		return mr.ID == id
	})
}

var _ Store = (*Memory)(nil)
