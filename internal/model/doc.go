// Package model defines the domain types shared across components.
//
// Catalog types (Event, Market, Runner, MarketRunner) are created once during
// discovery and never deleted. MarketBook and RunnerBook are append-only
// snapshots. SettledOrder rows are created once per exchange bet id.
//
// Prices, sizes and volumes use shopspring/decimal; nullable numeric columns
// use decimal.NullDecimal.
package model
