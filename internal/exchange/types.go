package exchange

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeRange restricts a filter to a start-time window.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// MarketFilter selects events and markets.
type MarketFilter struct {
	EventTypeIDs    []string   `json:"eventTypeIds,omitempty"`
	EventIDs        []string   `json:"eventIds,omitempty"`
	MarketIDs       []string   `json:"marketIds,omitempty"`
	MarketCountries []string   `json:"marketCountries,omitempty"`
	MarketTypeCodes []string   `json:"marketTypeCodes,omitempty"`
	MarketStartTime *TimeRange `json:"marketStartTime,omitempty"`
}

// Market catalogue projections.
const (
	ProjectionEvent             = "EVENT"
	ProjectionMarketStartTime   = "MARKET_START_TIME"
	ProjectionMarketDescription = "MARKET_DESCRIPTION"
	ProjectionRunnerDescription = "RUNNER_DESCRIPTION"
	ProjectionRunnerMetadata    = "RUNNER_METADATA"
)

// Price data sets for PriceProjection.
const (
	PriceBestOffers = "EX_BEST_OFFERS"
	PriceTraded     = "EX_TRADED"
)

// BetStatusSettled selects settled orders in listClearedOrders.
const BetStatusSettled = "SETTLED"

// PriceProjection selects the price data returned by listMarketBook.
type PriceProjection struct {
	PriceData []string `json:"priceData"`
}

// BestOffersProjection requests the three best prices on each side.
func BestOffersProjection() PriceProjection {
	return PriceProjection{PriceData: []string{PriceBestOffers}}
}

// EventResult from listEvents.
type EventResult struct {
	Event       APIEvent `json:"event"`
	MarketCount int      `json:"marketCount"`
}

// APIEvent represents an event from the exchange API.
type APIEvent struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CountryCode string    `json:"countryCode"`
	Timezone    string    `json:"timezone"`
	Venue       string    `json:"venue"`
	OpenDate    time.Time `json:"openDate"`
}

// MarketCatalogue from listMarketCatalogue.
type MarketCatalogue struct {
	MarketID        string          `json:"marketId"`
	MarketName      string          `json:"marketName"`
	MarketStartTime time.Time       `json:"marketStartTime"`
	TotalMatched    decimal.Decimal `json:"totalMatched"`
	Runners         []RunnerCatalog `json:"runners"`
	Event           *APIEvent       `json:"event,omitempty"`
}

// RunnerCatalog describes a runner within a catalogue entry.
type RunnerCatalog struct {
	SelectionID  int64             `json:"selectionId"`
	RunnerName   string            `json:"runnerName"`
	Handicap     decimal.Decimal   `json:"handicap"`
	SortPriority int               `json:"sortPriority"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Runner metadata keys.
const (
	MetadataJockey  = "JOCKEY_NAME"
	MetadataTrainer = "TRAINER_NAME"
)

// APIMarketBook from listMarketBook.
type APIMarketBook struct {
	MarketID              string          `json:"marketId"`
	IsMarketDataDelayed   bool            `json:"isMarketDataDelayed"`
	Status                string          `json:"status"`
	BetDelay              int             `json:"betDelay"`
	BSPReconciled         bool            `json:"bspReconciled"`
	Complete              bool            `json:"complete"`
	Inplay                bool            `json:"inplay"`
	NumberOfWinners       int             `json:"numberOfWinners"`
	NumberOfRunners       int             `json:"numberOfRunners"`
	NumberOfActiveRunners int             `json:"numberOfActiveRunners"`
	LastMatchTime         *time.Time      `json:"lastMatchTime,omitempty"`
	TotalMatched          decimal.Decimal `json:"totalMatched"`
	TotalAvailable        decimal.Decimal `json:"totalAvailable"`
	CrossMatching         bool            `json:"crossMatching"`
	RunnersVoidable       bool            `json:"runnersVoidable"`
	Version               int64           `json:"version"`
	Runners               []APIRunnerBook `json:"runners"`
}

// APIRunnerBook is a runner's state within APIMarketBook.
type APIRunnerBook struct {
	SelectionID      int64            `json:"selectionId"`
	Handicap         decimal.Decimal  `json:"handicap"`
	Status           string           `json:"status"`
	AdjustmentFactor *decimal.Decimal `json:"adjustmentFactor,omitempty"`
	LastPriceTraded  *decimal.Decimal `json:"lastPriceTraded,omitempty"`
	TotalMatched     *decimal.Decimal `json:"totalMatched,omitempty"`
	RemovalDate      *time.Time       `json:"removalDate,omitempty"`
	EX               *ExchangePrices  `json:"ex,omitempty"`
}

// ExchangePrices holds the visible price ladder.
type ExchangePrices struct {
	AvailableToBack []PriceSize `json:"availableToBack"`
	AvailableToLay  []PriceSize `json:"availableToLay"`
}

// PriceSize is one price level.
type PriceSize struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// ClearedOrderReport from listClearedOrders.
type ClearedOrderReport struct {
	ClearedOrders []ClearedOrder `json:"clearedOrders"`
	MoreAvailable bool           `json:"moreAvailable"`
}

// ClearedOrder is a settled bet.
type ClearedOrder struct {
	EventTypeID     string          `json:"eventTypeId"`
	EventID         string          `json:"eventId"`
	MarketID        string          `json:"marketId"`
	SelectionID     int64           `json:"selectionId"`
	Handicap        decimal.Decimal `json:"handicap"`
	BetID           string          `json:"betId"`
	PlacedDate      time.Time       `json:"placedDate"`
	PersistenceType string          `json:"persistenceType"`
	OrderType       string          `json:"orderType"`
	Side            string          `json:"side"`
	BetOutcome      string          `json:"betOutcome"`
	PriceRequested  decimal.Decimal `json:"priceRequested"`
	SettledDate     *time.Time      `json:"settledDate,omitempty"`
	LastMatchedDate *time.Time      `json:"lastMatchedDate,omitempty"`
	BetCount        int             `json:"betCount"`
	PriceMatched    decimal.Decimal `json:"priceMatched"`
	SizeSettled     decimal.Decimal `json:"sizeSettled"`
	Profit          decimal.Decimal `json:"profit"`
}

// ClearedOrdersFilter selects settled orders by market or event.
type ClearedOrdersFilter struct {
	MarketIDs []string
	EventIDs  []string
}
