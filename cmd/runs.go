package main

import (
	"context"
	"database/sql"

	"github.com/desertthunder/ytsync/internal/formatter"
	"github.com/desertthunder/ytsync/internal/repositories"
	"github.com/urfave/cli/v3"
)

// RunsList shows the most recent sync runs with their per-status counts.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	if limit <= 0 {
		limit = 20
	}

	return r.withDB(func(db *sql.DB) error {
		runs, err := repositories.NewRunRepository(db).List(int(limit))
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(runs, true)
		}
		return r.writePlain("%s", formatter.RunsToText(runs))
	})
}
