// Package storage holds what the two AeroSense logs share.
//
// The logs themselves live in subpackages:
//
//   - ringlog: fixed-capacity circular log on internal storage
//   - sessionlog: per-flight CSV files and an index ledger on removable storage
//   - health: medium presence and read/write probing
//
// Both logs take a FlushPolicy. The ring log batches its metadata flush
// (payloads are written immediately); the session log syncs every record.
package storage
