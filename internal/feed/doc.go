// Package feed publishes stored market book snapshots to Kafka so live
// consumers can follow markets without polling the database.
//
// Messages are keyed by market exchange id, so each market's snapshots stay
// ordered within one partition. Values are JSON.
package feed
