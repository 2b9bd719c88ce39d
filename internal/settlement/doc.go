// Package settlement records settled orders for closed markets.
//
// Reconciliation is idempotent: orders are keyed by exchange bet id and a
// bet already stored is skipped, so a market can be reconciled any number
// of times.
package settlement
