package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/betfair-logger/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store persists the catalog, snapshots and settled orders.
//
// Catalog saves are insert-if-absent keyed on the exchange id: an existing
// row is never modified, and the caller's value is filled in with the stored
// ids (and, for markets, the stored back-references). Snapshots are
// append-only. Settled orders are unique on bet id.
type Store interface {
	// SaveEvent inserts the event if its exchange id is new and sets e.ID.
	SaveEvent(ctx context.Context, e *model.Event) (created bool, err error)

	// SaveMarket inserts the market, its runners and market runners if absent,
	// in one transaction. On return m carries store ids for the market and
	// every runner, plus the stored back-references.
	SaveMarket(ctx context.Context, m *model.Market) (created bool, err error)

	// SaveMarketBook inserts the snapshot and all runner books, and moves the
	// market's back-references, as one unit. It sets the book and runner
	// book ids.
	SaveMarketBook(ctx context.Context, b *model.MarketBook) error

	// FindMarketRunner returns the market runner for a selection in a market.
	FindMarketRunner(ctx context.Context, marketID, selectionID int64) (*model.MarketRunner, error)

	// SaveSettledOrder inserts the order unless its bet id is already stored.
	SaveSettledOrder(ctx context.Context, o *model.SettledOrder) (created bool, err error)

	// UpdateRunnerMetadata sets jockey and trainer on the market's stored
	// runners, matched by selection id. Empty names leave the stored value
	// alone. It returns the number of market runners changed.
	UpdateRunnerMetadata(ctx context.Context, marketID int64, runners []model.MarketRunner) (int, error)

	// SettledOrders returns the market's settled orders in insert order.
	SettledOrders(ctx context.Context, marketID int64) ([]model.SettledOrder, error)

	// MarketsBetween returns markets starting in [from, to), with runners and
	// back-references, ordered by start time.
	MarketsBetween(ctx context.Context, from, to time.Time) ([]model.Market, error)

	// EventsBetween returns events having a market starting in [from, to).
	EventsBetween(ctx context.Context, from, to time.Time) ([]model.Event, error)

	// StartingPrices returns each market runner's starting price, keyed by
	// market runner id.
	StartingPrices(ctx context.Context, marketID int64) (map[int64]decimal.Decimal, error)

	Ping(ctx context.Context) error
	Close()
}

// IsPrerace reports whether a book moves the pre-race back-reference.
func IsPrerace(b *model.MarketBook) bool {
	return b.Status == model.StatusOpen && !b.InPlay
}

// IsInplay reports whether a book moves the in-play back-reference.
func IsInplay(b *model.MarketBook) bool {
	return b.Status == model.StatusOpen && b.InPlay
}
