package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/ytsync/internal/normalize"
)

// MatchCache maps a folded (artist, track) pair to a catalog track id.
//
// Last write wins; there is no TTL. Negative results are never stored.
type MatchCache struct {
	db *sql.DB
	mu sync.Mutex
}

// CacheStats summarizes the cache contents.
type CacheStats struct {
	Entries     int
	LastUpdated time.Time
}

// CacheEntry is one stored mapping.
type CacheEntry struct {
	Artist    string
	Track     string
	TrackID   string
	UpdatedAt time.Time
}

// NewMatchCache creates a MatchCache over a migrated database.
func NewMatchCache(db *sql.DB) *MatchCache {
	return &MatchCache{db: db}
}

func cacheKey(artist, track string) (string, string) {
	return strings.TrimSpace(normalize.Fold(artist)), strings.TrimSpace(normalize.Fold(track))
}

// Get returns the cached id for (artist, track). ok is false on a miss.
func (c *MatchCache) Get(artist, track string) (string, bool, error) {
	a, t := cacheKey(artist, track)

	var id string
	err := c.db.QueryRow("SELECT track_id FROM track_cache WHERE artist = ? AND track = ?", a, t).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read track cache: %w", err)
	}
	return id, true, nil
}

// Set stores id for (artist, track), replacing any previous value.
func (c *MatchCache) Set(artist, track, trackID string) error {
	if trackID == "" {
		return fmt.Errorf("refusing to cache an empty track id")
	}
	a, t := cacheKey(artist, track)

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO track_cache (artist, track, track_id, updated_at) VALUES (?, ?, ?, ?)",
		a, t, trackID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write track cache: %w", err)
	}
	return nil
}

// Lookup returns the full entry for (artist, track).
func (c *MatchCache) Lookup(artist, track string) (*CacheEntry, error) {
	a, t := cacheKey(artist, track)

	var e CacheEntry
	err := c.db.QueryRow(
		"SELECT artist, track, track_id, updated_at FROM track_cache WHERE artist = ? AND track = ?", a, t,
	).Scan(&e.Artist, &e.Track, &e.TrackID, &e.UpdatedAt)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("%s - %s", a, t))
	}
	return &e, nil
}

// Stats counts the cached entries.
func (c *MatchCache) Stats() (CacheStats, error) {
	var stats CacheStats
	var last sql.NullString
	if err := c.db.QueryRow("SELECT COUNT(*), MAX(updated_at) FROM track_cache").Scan(&stats.Entries, &last); err != nil {
		return stats, fmt.Errorf("failed to read cache stats: %w", err)
	}
	if last.Valid {
		stats.LastUpdated = parseTimestamp(last.String)
	}
	return stats, nil
}

// Clear removes every entry and returns how many were deleted.
func (c *MatchCache) Clear() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.Exec("DELETE FROM track_cache")
	if err != nil {
		return 0, fmt.Errorf("failed to clear track cache: %w", err)
	}
	return res.RowsAffected()
}

// parseTimestamp reads the textual forms go-sqlite3 produces for aggregated timestamp columns.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
