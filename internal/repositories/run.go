package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/ytsync/internal/models"
)

// RunRepository implements models.Repository[*models.Run].
type RunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Run] = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `id, source, playlist_id, dry_run, total, added, already_in_playlist, not_found,
	private_or_deleted, dropped_batches, started_at, finished_at`

// Create inserts a finished run.
func (r *RunRepository) Create(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	s := run.Summary
	_, err := r.db.Exec(
		`INSERT INTO sync_runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Source, run.PlaylistID, run.DryRun,
		s.Total, s.Added, s.AlreadyInPlaylist, s.NotFound, s.PrivateOrDeleted, s.DroppedBatches,
		run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Get retrieves a run by id.
func (r *RunRepository) Get(id string) (*models.Run, error) {
	row := r.db.QueryRow(`SELECT `+runColumns+` FROM sync_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return nil, notFound(err, "run "+id)
	}
	return run, nil
}

// List returns up to limit runs, newest first. A non-positive limit returns all runs.
func (r *RunRepository) List(limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(`SELECT `+runColumns+` FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(s scanner) (*models.Run, error) {
	var run models.Run
	sum := &run.Summary
	err := s.Scan(
		&run.RunID, &run.Source, &run.PlaylistID, &run.DryRun,
		&sum.Total, &sum.Added, &sum.AlreadyInPlaylist, &sum.NotFound, &sum.PrivateOrDeleted, &sum.DroppedBatches,
		&run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
