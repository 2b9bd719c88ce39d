// Package catalog discovers the day's events, markets and runners and seeds
// the snapshot store with them.
//
// Discovery is idempotent: entities already stored (matched by exchange id)
// are left as they are, so a restarted day reloads the same roster.
package catalog
