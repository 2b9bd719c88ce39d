// Package database provides the PostgreSQL connection pool and the bootstrap
// schema for the snapshot store.
//
// Tables:
//   - event, market, runner, market_runner: catalog, created once
//   - market_book, market_runner_book: append-only snapshots
//   - market_runner_order: settled orders, unique on bet_id
//   - jockey, trainer: runner metadata lookups
//
// market.last_book_id, last_prerace_book_id and last_inplay_book_id point at
// the latest matching market_book row and are updated in the same transaction
// as the snapshot insert.
package database
