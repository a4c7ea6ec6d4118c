// Package repositories implements SQLite persistence for ytsync.
//
// Key Implementations:
//   - [MatchCache] : durable (artist, track) -> catalog id cache consulted before every catalog search
//   - [RunRepository] : history of reconciliation runs with per-status counts
//
// Cache keys are folded with normalize.Fold on both read and write, so callers never
// pre-normalize casing. Writes to the cache are serialized; reads go straight to SQLite.
package repositories
