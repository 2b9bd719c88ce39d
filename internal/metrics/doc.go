// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Market book fetch counts and latencies
//   - Snapshots stored and suspended snapshots collapsed
//   - Tracked markets by lifecycle phase
//   - Settled orders recorded
//   - Catalog size and day restarts
//   - Snapshot feed publish failures
//
// All methods are safe to call on a nil *Metrics.
package metrics
