package poller

import (
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rickgao/betfair-logger/internal/model"
)

// entry is the scheduler's state for one market.
type entry struct {
	market     model.Market
	phase      Phase
	lastPolled time.Time // Zero until the first successful poll
	settled    int       // Orders recorded at closure

	// Filled in at closure.
	profit         *decimal.Decimal
	startingPrices map[int64]decimal.Decimal // By selection id
}

// Session owns one day's roster. It is safe to read from other goroutines
// while a Poller runs it.
type Session struct {
	ID      uuid.UUID
	Started time.Time

	mu      sync.RWMutex
	entries []*entry
}

// NewSession builds a roster from loaded markets. Markets already closed in
// the store start out closed and are never polled.
func NewSession(markets []model.Market, now time.Time) *Session {
	s := &Session{
		ID:      uuid.New(),
		Started: now,
		entries: make([]*entry, 0, len(markets)),
	}
	for _, m := range markets {
		e := &entry{market: m, phase: PhaseOf(m.LastBook)}
		if m.LastBook != nil {
			e.lastPolled = m.LastBook.Timestamp
		}
		s.entries = append(s.entries, e)
	}
	return s
}

// due returns the open entries the cadence selects at now.
func (s *Session) due(now time.Time, cadence Cadence) []*entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entry
	for _, e := range s.entries {
		if e.phase == PhaseClosed {
			continue
		}
		polled := !e.lastPolled.IsZero()
		if cadence.IsDue(e.market.StartTime.Sub(now), now.Sub(e.lastPolled), polled) {
			out = append(out, e)
		}
	}
	return out
}

// update applies fn to an entry under the write lock.
func (s *Session) update(e *entry, fn func(e *entry)) {
	s.mu.Lock()
	fn(e)
	s.mu.Unlock()
}

// Done reports whether every market has closed.
func (s *Session) Done() bool {
	return s.Open() == 0
}

// Open returns the number of markets not yet closed.
func (s *Session) Open() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if e.phase != PhaseClosed {
			n++
		}
	}
	return n
}

// Len returns the roster size.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// PhaseCounts returns the number of markets in each phase.
func (s *Session) PhaseCounts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int, len(Phases))
	for _, p := range Phases {
		counts[string(p)] = 0
	}
	for _, e := range s.entries {
		counts[string(e.phase)]++
	}
	return counts
}

// MarketStatus is a read-only view of one roster entry.
type MarketStatus struct {
	MarketID   string     `json:"market_id"`
	Name       string     `json:"name"`
	StartTime  time.Time  `json:"start_time"`
	Phase      Phase      `json:"phase"`
	LastPolled *time.Time `json:"last_polled,omitempty"`
	LastBookID int64      `json:"last_book_id,omitempty"`
	Settled    int        `json:"settled,omitempty"`

	Profit         *decimal.Decimal          `json:"profit,omitempty"`
	StartingPrices map[int64]decimal.Decimal `json:"starting_prices,omitempty"` // By selection id
}

// Markets returns a view of the roster in start-time order.
func (s *Session) Markets() []MarketStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]MarketStatus, 0, len(s.entries))
	for _, e := range s.entries {
		ms := MarketStatus{
			MarketID:  e.market.ExchangeID,
			Name:      e.market.Name,
			StartTime: e.market.StartTime,
			Phase:     e.phase,
			Settled:   e.settled,
		}
		if !e.lastPolled.IsZero() {
			t := e.lastPolled
			ms.LastPolled = &t
		}
		if e.market.LastBook != nil {
			ms.LastBookID = e.market.LastBook.ID
		}
		if e.profit != nil {
			p := *e.profit
			ms.Profit = &p
		}
		if len(e.startingPrices) > 0 {
			ms.StartingPrices = maps.Clone(e.startingPrices)
		}
		out = append(out, ms)
	}
	return out
}

// Market returns a copy of the tracked market with the given exchange id.
func (s *Session) Market(exchangeID string) (model.Market, Phase, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.market.ExchangeID == exchangeID {
			return e.market, e.phase, true
		}
	}
	return model.Market{}, "", false
}
