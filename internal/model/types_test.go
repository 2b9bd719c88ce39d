package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseMarketStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    MarketStatus
		wantErr bool
	}{
		{"OPEN", StatusOpen, false},
		{"SUSPENDED", StatusSuspended, false},
		{"CLOSED", StatusClosed, false},
		{"INACTIVE", StatusInactive, false},
		{"open", "", true}, // Case-sensitive
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMarketStatus(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMarketStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMarketStatus(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSide(t *testing.T) {
	if s, err := ParseSide("BACK"); err != nil || s != SideBack {
		t.Errorf("ParseSide(BACK) = %q, %v", s, err)
	}
	if s, err := ParseSide("LAY"); err != nil || s != SideLay {
		t.Errorf("ParseSide(LAY) = %q, %v", s, err)
	}
	if _, err := ParseSide("EACH_WAY"); err == nil {
		t.Error("ParseSide(EACH_WAY) expected error")
	}
}

func TestStartingPrice(t *testing.T) {
	tests := []struct {
		name string
		ltp  decimal.NullDecimal
		want string
	}{
		{"traded", decimal.NewNullDecimal(decimal.RequireFromString("4.5")), "4.5"},
		{"never traded", decimal.NullDecimal{}, "1000"},
		{"zero", decimal.NewNullDecimal(decimal.Zero), "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StartingPrice(tt.ltp)
			if got.String() != tt.want {
				t.Errorf("StartingPrice() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMarketProfit(t *testing.T) {
	orders := []SettledOrder{
		{BetID: "1", Profit: decimal.RequireFromString("12.50")},
		{BetID: "2", Profit: decimal.RequireFromString("-4.00")},
		{BetID: "3", Profit: decimal.RequireFromString("0.25")},
	}

	got := MarketProfit(orders)
	if !got.Equal(decimal.RequireFromString("8.75")) {
		t.Errorf("MarketProfit() = %s, want 8.75", got)
	}

	if !MarketProfit(nil).IsZero() {
		t.Error("MarketProfit(nil) should be zero")
	}
}

func TestMarketBookRef(t *testing.T) {
	ts := time.Date(2024, 3, 12, 13, 30, 0, 0, time.UTC)
	b := MarketBook{ID: 42, Timestamp: ts, Status: StatusOpen, InPlay: true}

	ref := b.Ref()
	if ref.ID != 42 || !ref.Timestamp.Equal(ts) || ref.Status != StatusOpen || !ref.InPlay {
		t.Errorf("Ref() = %+v, want {42 %v OPEN true}", ref, ts)
	}
}
