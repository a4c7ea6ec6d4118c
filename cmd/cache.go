package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytsync/internal/repositories"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// withDB opens the configured database for the duration of fn.
func (r *Runner) withDB(fn func(db *sql.DB) error) error {
	db, err := r.openDB(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	return fn(db)
}

// CacheStats prints the number of cached matches and when the newest was written.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	return r.withDB(func(db *sql.DB) error {
		stats, err := repositories.NewMatchCache(db).Stats()
		if err != nil {
			return err
		}

		r.writePlain("Cached matches: %d\n", stats.Entries)
		if !stats.LastUpdated.IsZero() {
			r.writePlain("Last updated: %s\n", stats.LastUpdated.Local().Format(time.DateTime))
		}
		return nil
	})
}

// CacheGet prints the catalog id cached for --artist and --track.
func (r *Runner) CacheGet(ctx context.Context, cmd *cli.Command) error {
	artist := cmd.String("artist")
	track := cmd.String("track")

	return r.withDB(func(db *sql.DB) error {
		entry, err := repositories.NewMatchCache(db).Lookup(artist, track)
		if errors.Is(err, shared.ErrCacheMiss) {
			return r.writePlain("No cached match for %q - %q\n", artist, track)
		}
		if err != nil {
			return err
		}
		return r.writePlain("%s - %s => %s (updated %s)\n",
			entry.Artist, entry.Track, entry.TrackID, entry.UpdatedAt.Local().Format(time.DateTime))
	})
}

// CacheClear deletes every cached match.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	return r.withDB(func(db *sql.DB) error {
		n, err := repositories.NewMatchCache(db).Clear()
		if err != nil {
			return err
		}
		r.logger.Info("match cache cleared", "entries", n)
		return r.writePlain("✓ Removed %d cached matches\n", n)
	})
}
