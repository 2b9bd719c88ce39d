// Package store implements the snapshot store.
//
// Two implementations share the Store contract:
//   - Postgres: pgx pool, insert-if-absent with ON CONFLICT DO NOTHING,
//     runner books sent as a pgx.Batch inside the snapshot transaction
//   - Memory: mutex-guarded maps, used by tests and dry runs
package store
