package exchange

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/betfair-logger/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func levels(pairs ...string) []PriceSize {
	var out []PriceSize
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, PriceSize{Price: d(pairs[i]), Size: d(pairs[i+1])})
	}
	return out
}

func TestRunnerBookToModel_WeightOfMoney(t *testing.T) {
	tests := []struct {
		name        string
		back, lay   []PriceSize
		wantBack    string // best back price, empty for null
		wantLay     string
		wantWOMBack string // sum of lay sizes, empty for null
		wantWOMLay  string
	}{
		{
			name:        "three levels each side",
			back:        levels("3.4", "10", "3.35", "20", "3.3", "5"),
			lay:         levels("3.5", "4", "3.55", "6", "3.6", "1.5"),
			wantBack:    "3.4",
			wantLay:     "3.5",
			wantWOMBack: "11.5",
			wantWOMLay:  "35",
		},
		{
			name:     "two levels skips weight of money",
			back:     levels("3.4", "10", "3.35", "20"),
			lay:      levels("3.5", "4", "3.55", "6"),
			wantBack: "3.4",
			wantLay:  "3.5",
		},
		{
			name:       "only back side full",
			back:       levels("2", "1", "1.99", "2", "1.98", "3"),
			wantBack:   "2",
			wantWOMLay: "6",
		},
		{
			name: "empty ladder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := RunnerBookToModel(APIRunnerBook{
				SelectionID: 11,
				Status:      "ACTIVE",
				EX:          &ExchangePrices{AvailableToBack: tt.back, AvailableToLay: tt.lay},
			})

			check := func(field string, got decimal.NullDecimal, want string) {
				t.Helper()
				if want == "" {
					if got.Valid {
						t.Errorf("%s = %s, want null", field, got.Decimal)
					}
					return
				}
				if !got.Valid || !got.Decimal.Equal(d(want)) {
					t.Errorf("%s = %v, want %s", field, got, want)
				}
			}
			check("BackPrice", rb.BackPrice, tt.wantBack)
			check("LayPrice", rb.LayPrice, tt.wantLay)
			check("WOMBack", rb.WOMBack, tt.wantWOMBack)
			check("WOMLay", rb.WOMLay, tt.wantWOMLay)
		})
	}
}

func TestRunnerBookToModel_NoLadder(t *testing.T) {
	ltp := d("4.2")
	rb := RunnerBookToModel(APIRunnerBook{SelectionID: 7, Status: "REMOVED", LastPriceTraded: &ltp})

	if rb.BackPrice.Valid || rb.LayPrice.Valid || rb.WOMBack.Valid || rb.WOMLay.Valid {
		t.Errorf("prices should be null without a ladder: %+v", rb)
	}
	if !rb.LastPriceTraded.Valid || !rb.LastPriceTraded.Decimal.Equal(ltp) {
		t.Errorf("LastPriceTraded = %v, want 4.2", rb.LastPriceTraded)
	}
	if rb.TotalMatched.Valid {
		t.Error("TotalMatched should be null")
	}
}

func TestMarketBookToModel(t *testing.T) {
	fetched := time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC)
	api := APIMarketBook{
		MarketID:     "1.234",
		Status:       "SUSPENDED",
		Inplay:       true,
		TotalMatched: d("100"),
		Version:      42,
		Runners:      []APIRunnerBook{{SelectionID: 1}, {SelectionID: 2}},
	}

	book, err := MarketBookToModel(api, fetched)
	if err != nil {
		t.Fatalf("MarketBookToModel: %v", err)
	}
	if book.Status != model.StatusSuspended || !book.InPlay || book.Version != 42 {
		t.Errorf("book = %+v", book)
	}
	if !book.Timestamp.Equal(fetched) {
		t.Errorf("Timestamp = %v, want %v", book.Timestamp, fetched)
	}
	if len(book.Runners) != 2 {
		t.Errorf("len(Runners) = %d, want 2", len(book.Runners))
	}

	api.Status = "BOGUS"
	if _, err := MarketBookToModel(api, fetched); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestMarketToModel(t *testing.T) {
	start := time.Date(2026, 10, 16, 13, 30, 0, 0, time.UTC)
	m := MarketToModel(MarketCatalogue{
		MarketID:        "1.555",
		MarketName:      "2m4f Hcap Chs",
		MarketStartTime: start,
		Runners: []RunnerCatalog{
			{SelectionID: 10, RunnerName: "Desert Crown", SortPriority: 1,
				Metadata: map[string]string{MetadataJockey: "R Moore", MetadataTrainer: "A Balding"}},
			{SelectionID: 20, RunnerName: "Tiger Roll", SortPriority: 2},
		},
	}, 9)

	if m.EventID != 9 || m.ExchangeID != "1.555" || !m.StartTime.Equal(start) {
		t.Errorf("market = %+v", m)
	}
	if len(m.Runners) != 2 {
		t.Fatalf("len(Runners) = %d, want 2", len(m.Runners))
	}
	if m.Runners[0].Jockey != "R Moore" || m.Runners[0].Trainer != "A Balding" {
		t.Errorf("runner 0 metadata = %q/%q", m.Runners[0].Jockey, m.Runners[0].Trainer)
	}
	if m.Runners[1].Jockey != "" {
		t.Errorf("runner 1 Jockey = %q, want empty", m.Runners[1].Jockey)
	}
}

func TestClearedOrderToModel(t *testing.T) {
	placed := time.Date(2026, 10, 16, 13, 0, 0, 0, time.UTC)
	matched := placed.Add(time.Minute)

	o, err := ClearedOrderToModel(ClearedOrder{
		BetID:           "310001",
		Side:            "LAY",
		PlacedDate:      placed,
		LastMatchedDate: &matched,
		SizeSettled:     d("2"),
		PriceRequested:  d("5"),
		PriceMatched:    d("4.9"),
		Profit:          d("-7.8"),
	})
	if err != nil {
		t.Fatalf("ClearedOrderToModel: %v", err)
	}
	if o.Side != model.SideLay || !o.MatchedDate.Equal(matched) || !o.Profit.Equal(d("-7.8")) {
		t.Errorf("order = %+v", o)
	}

	// Matched date falls back to placed date.
	o, _ = ClearedOrderToModel(ClearedOrder{BetID: "2", Side: "BACK", PlacedDate: placed})
	if !o.MatchedDate.Equal(placed) {
		t.Errorf("MatchedDate = %v, want %v", o.MatchedDate, placed)
	}

	if _, err := ClearedOrderToModel(ClearedOrder{BetID: "3", Side: "?"}); err == nil {
		t.Error("expected error for unknown side")
	}
}
