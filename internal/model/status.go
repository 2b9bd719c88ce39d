package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MarketStatus is the exchange's lifecycle status for a market.
type MarketStatus string

const (
	StatusInactive  MarketStatus = "INACTIVE"
	StatusOpen      MarketStatus = "OPEN"
	StatusSuspended MarketStatus = "SUSPENDED"
	StatusClosed    MarketStatus = "CLOSED"
)

// ParseMarketStatus validates an exchange status string.
func ParseMarketStatus(s string) (MarketStatus, error) {
	switch st := MarketStatus(s); st {
	case StatusInactive, StatusOpen, StatusSuspended, StatusClosed:
		return st, nil
	default:
		return "", fmt.Errorf("unknown market status %q", s)
	}
}

// Side is the side of a bet.
type Side string

const (
	SideBack Side = "BACK"
	SideLay  Side = "LAY"
)

// ParseSide validates an exchange side string.
func ParseSide(s string) (Side, error) {
	switch sd := Side(s); sd {
	case SideBack, SideLay:
		return sd, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

// DefaultStartingPrice is used for runners that never traded before the off.
var DefaultStartingPrice = decimal.NewFromInt(1000)

// StartingPrice returns the last pre-race traded price, or DefaultStartingPrice
// when there was none.
func StartingPrice(lastPreraceLTP decimal.NullDecimal) decimal.Decimal {
	if !lastPreraceLTP.Valid || lastPreraceLTP.Decimal.IsZero() {
		return DefaultStartingPrice
	}
	return lastPreraceLTP.Decimal
}

// MarketProfit sums the realised profit of settled orders.
func MarketProfit(orders []SettledOrder) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.Profit)
	}
	return total
}
