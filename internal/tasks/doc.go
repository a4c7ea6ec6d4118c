// Package tasks reconciles source titles into a destination playlist with real-time progress reporting.
//
// # Run
//
// [PlaylistEngine.Run] walks a fixed pipeline:
//
//  1. Normalize every title into an (artist, track) hypothesis. Private, deleted and empty
//     titles are classified private_or_deleted and never searched.
//  2. Read the destination playlist once into an in-memory snapshot. A failure here aborts
//     the run before any mutation.
//  3. Resolve the remaining titles through [search.Client] (cache, pacing, 429 backoff, ordered fan-out).
//  4. For misses, try a cleaned-title fallback (lenient scorer) and then a two-query
//     second pass restricted to the artist (strict scorer).
//  5. Classify in source order: ids already in the snapshot are already_in_playlist, new
//     ids are added and inserted into the snapshot immediately, so later duplicates resolve
//     to already_in_playlist. Identical (artist, track, title) additions are collapsed.
//  6. Commit added ids in batches. A batch hitting a rate limit waits and retries up to
//     MaxRetries times, then is dropped; any other error drops it at once. Every batch is
//     followed by BatchDelay.
//  7. Write the ledgers and the run log, and record the run.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
package tasks
