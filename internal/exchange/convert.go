package exchange

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/betfair-logger/internal/model"
)

// womDepth is the number of price levels summed for weight of money. Books
// with any other depth get no weight of money.
const womDepth = 3

// EventToModel converts an API event to the domain type.
func EventToModel(e APIEvent) model.Event {
	return model.Event{
		ExchangeID:  e.ID,
		Name:        e.Name,
		CountryCode: e.CountryCode,
		Timezone:    e.Timezone,
		Venue:       e.Venue,
		OpenDate:    e.OpenDate,
	}
}

// MarketToModel converts a catalogue entry to the domain type. Runners carry
// their selection id, name and sort priority; metadata is copied when present.
func MarketToModel(m MarketCatalogue, eventID int64) model.Market {
	market := model.Market{
		EventID:      eventID,
		ExchangeID:   m.MarketID,
		Name:         m.MarketName,
		StartTime:    m.MarketStartTime,
		TotalMatched: m.TotalMatched,
		Runners:      make([]model.MarketRunner, 0, len(m.Runners)),
	}

	for _, r := range m.Runners {
		market.Runners = append(market.Runners, model.MarketRunner{
			SelectionID:  r.SelectionID,
			Name:         r.RunnerName,
			SortPriority: r.SortPriority,
			Jockey:       r.Metadata[MetadataJockey],
			Trainer:      r.Metadata[MetadataTrainer],
		})
	}

	return market
}

// MarketBookToModel converts a fetched book to the domain type, stamped with
// the fetch time. Runner books are returned without market runner ids.
func MarketBookToModel(b APIMarketBook, fetchedAt time.Time) (model.MarketBook, error) {
	status, err := model.ParseMarketStatus(b.Status)
	if err != nil {
		return model.MarketBook{}, fmt.Errorf("market %s: %w", b.MarketID, err)
	}

	book := model.MarketBook{
		Timestamp:             fetchedAt,
		Delayed:               b.IsMarketDataDelayed,
		Status:                status,
		BetDelay:              b.BetDelay,
		BSPReconciled:         b.BSPReconciled,
		Complete:              b.Complete,
		InPlay:                b.Inplay,
		NumberOfWinners:       b.NumberOfWinners,
		NumberOfRunners:       b.NumberOfRunners,
		NumberOfActiveRunners: b.NumberOfActiveRunners,
		LastMatchTime:         b.LastMatchTime,
		TotalMatched:          b.TotalMatched,
		TotalAvailable:        b.TotalAvailable,
		CrossMatching:         b.CrossMatching,
		RunnersVoidable:       b.RunnersVoidable,
		Version:               b.Version,
		Runners:               make([]model.RunnerBook, 0, len(b.Runners)),
	}

	for _, r := range b.Runners {
		book.Runners = append(book.Runners, RunnerBookToModel(r))
	}

	return book, nil
}

// RunnerBookToModel converts a runner's book entry, deriving best prices and
// weight of money from the price ladder.
func RunnerBookToModel(r APIRunnerBook) model.RunnerBook {
	rb := model.RunnerBook{
		SelectionID:      r.SelectionID,
		Handicap:         r.Handicap,
		Status:           r.Status,
		AdjustmentFactor: nullable(r.AdjustmentFactor),
		LastPriceTraded:  nullable(r.LastPriceTraded),
		TotalMatched:     nullable(r.TotalMatched),
		RemovalDate:      r.RemovalDate,
	}

	if r.EX == nil {
		return rb
	}

	if len(r.EX.AvailableToBack) > 0 {
		rb.BackPrice = decimal.NewNullDecimal(r.EX.AvailableToBack[0].Price)
	}
	if len(r.EX.AvailableToLay) > 0 {
		rb.LayPrice = decimal.NewNullDecimal(r.EX.AvailableToLay[0].Price)
	}

	// Money waiting to lay is pressure behind the back price, and vice versa.
	rb.WOMBack = sumSizes(r.EX.AvailableToLay)
	rb.WOMLay = sumSizes(r.EX.AvailableToBack)

	return rb
}

// ClearedOrderToModel converts a settled bet. MarketID and MarketRunnerID are
// left for the caller to resolve.
func ClearedOrderToModel(o ClearedOrder) (model.SettledOrder, error) {
	side, err := model.ParseSide(o.Side)
	if err != nil {
		return model.SettledOrder{}, fmt.Errorf("bet %s: %w", o.BetID, err)
	}

	matched := o.PlacedDate
	if o.LastMatchedDate != nil {
		matched = *o.LastMatchedDate
	}

	return model.SettledOrder{
		BetID:          o.BetID,
		PlacedDate:     o.PlacedDate,
		Side:           side,
		Size:           o.SizeSettled,
		PriceRequested: o.PriceRequested,
		MatchedDate:    matched,
		PriceMatched:   o.PriceMatched,
		Profit:         o.Profit,
	}, nil
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func sumSizes(levels []PriceSize) decimal.NullDecimal {
	if len(levels) != womDepth {
		return decimal.NullDecimal{}
	}
	total := decimal.Zero
	for _, l := range levels {
		total = total.Add(l.Size)
	}
	return decimal.NewNullDecimal(total)
}
