// Package poller implements the adaptive poll scheduler.
//
// The scheduler:
//   - Owns one day's roster through a Session
//   - Decides each tick which markets are due using a staircase cadence
//     keyed on time to start and time since the last poll
//   - Fetches each due market individually, in sequence
//   - Persists snapshots, collapsing repeated suspended snapshots
//   - Drives each market through no-book, prerace, in-play, suspended and
//     closed, invoking settlement once on closure
//
// A failed fetch leaves the market untouched; it is retried on the next tick
// for which it is due. A rejected session aborts the run.
package poller
