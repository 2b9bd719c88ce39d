// Package recorder runs the daily wake/poll/sleep loop.
//
// Each day run opens the store, logs in to the exchange, loads the day's
// catalog and polls every market until it closes. The session is kept alive
// in the background and released with a fresh context on every exit path, so
// a cancelled day never leaves a session behind.
//
// A failed day is retried after schedule.restart_backoff. Restarting is safe
// because catalog discovery is insert-if-absent and snapshots are
// append-only.
package recorder
