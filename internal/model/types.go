package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Catalog Types
// -----------------------------------------------------------------------------

// Event is a meeting on the exchange (e.g., "Ascot 16th Oct").
type Event struct {
	ID          int64     // Store primary key (0 until persisted)
	ExchangeID  string    // Exchange event id
	Name        string    // Display name
	CountryCode string    // ISO country code
	Timezone    string    // Venue time zone
	Venue       string    // Course name
	OpenDate    time.Time // First market start
}

// Market is a single betting market within an event (e.g., a race's win market).
type Market struct {
	ID           int64           // Store primary key
	EventID      int64           // Foreign key to Event
	ExchangeID   string          // Exchange market id (e.g., "1.168310291")
	Name         string          // Display name (e.g., "2m4f Hcap Chs")
	StartTime    time.Time       // Scheduled start
	TotalMatched decimal.Decimal // Matched volume at discovery
	Notes        *string         // Free-text operator notes

	Runners []MarketRunner // Ordered by sort priority

	// Back-references to the latest snapshots, written together with each
	// snapshot insert. Nil until the first matching snapshot is stored.
	LastBook    *BookRef
	LastPrerace *BookRef
	LastInplay  *BookRef
}

// Runner is a selection known to the exchange (e.g., a horse). Runners are
// exchange-global and take part in many markets via MarketRunner.
type Runner struct {
	ID         int64  // Store primary key
	ExchangeID int64  // Exchange selection id
	Name       string // Runner name
}

// MarketRunner is a runner's participation in one market.
type MarketRunner struct {
	ID           int64  // Store primary key
	MarketID     int64  // Foreign key to Market
	RunnerID     int64  // Foreign key to Runner
	SelectionID  int64  // Exchange selection id (same as Runner.ExchangeID)
	Name         string // Runner name
	SortPriority int    // Card order, used as tie-break rank
	Jockey       string // From runner metadata, empty when unknown
	Trainer      string // From runner metadata, empty when unknown
}

// BookRef is the subset of a stored MarketBook the scheduler needs to make
// decisions without reading history.
type BookRef struct {
	ID        int64
	Timestamp time.Time
	Status    MarketStatus
	InPlay    bool
}

// -----------------------------------------------------------------------------
// Time-Series Types
// -----------------------------------------------------------------------------

// MarketBook is a point-in-time capture of a market. One row per poll.
type MarketBook struct {
	ID                    int64
	MarketID              int64
	Timestamp             time.Time // Time the snapshot was fetched
	Delayed               bool
	Status                MarketStatus
	BetDelay              int
	BSPReconciled         bool
	Complete              bool
	InPlay                bool
	NumberOfWinners       int
	NumberOfRunners       int
	NumberOfActiveRunners int
	LastMatchTime         *time.Time
	TotalMatched          decimal.Decimal
	TotalAvailable        decimal.Decimal
	CrossMatching         bool
	RunnersVoidable       bool
	Version               int64 // Exchange version counter

	Runners []RunnerBook
}

// Ref returns the back-reference form of the book.
func (b *MarketBook) Ref() *BookRef {
	return &BookRef{
		ID:        b.ID,
		Timestamp: b.Timestamp,
		Status:    b.Status,
		InPlay:    b.InPlay,
	}
}

// RunnerBook is a runner's state within a MarketBook.
type RunnerBook struct {
	ID               int64
	MarketBookID     int64
	MarketRunnerID   int64
	SelectionID      int64
	Handicap         decimal.Decimal
	Status           string // ACTIVE, WINNER, LOSER, REMOVED, ...
	AdjustmentFactor decimal.NullDecimal
	LastPriceTraded  decimal.NullDecimal
	TotalMatched     decimal.NullDecimal
	RemovalDate      *time.Time
	BackPrice        decimal.NullDecimal // Best available to back
	LayPrice         decimal.NullDecimal // Best available to lay
	WOMBack          decimal.NullDecimal // Sum of the three best lay sizes
	WOMLay           decimal.NullDecimal // Sum of the three best back sizes
}

// -----------------------------------------------------------------------------
// Orders
// -----------------------------------------------------------------------------

// SettledOrder is a bet whose outcome has been finalised by the exchange.
// BetID is globally unique and is the dedup key.
type SettledOrder struct {
	ID             int64
	MarketID       int64
	MarketRunnerID int64
	BetID          string
	PlacedDate     time.Time
	Side           Side
	Size           decimal.Decimal // Size settled
	PriceRequested decimal.Decimal
	MatchedDate    time.Time
	PriceMatched   decimal.Decimal
	Profit         decimal.Decimal
}
