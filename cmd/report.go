package main

import (
	"context"
	"path/filepath"

	"github.com/desertthunder/ytsync/internal/formatter"
	"github.com/desertthunder/ytsync/internal/ledger"
	"github.com/urfave/cli/v3"
)

// Report renders all_results.json of the last (dry) run.
func (r *Runner) Report(ctx context.Context, cmd *cli.Command) error {
	outputDir := r.config.Sync.OutputDir
	if cmd.IsSet("output") {
		outputDir = cmd.String("output")
	}
	dir := outputDir
	if cmd.Bool("dry-run") {
		dir = filepath.Join(outputDir, ledger.DryRunDir)
	}

	results, err := ledger.ReadResults(filepath.Join(dir, ledger.AllResultsFile))
	if err != nil {
		return err
	}
	r.logger.Debug("rendering report", "dir", dir, "entries", len(results))

	format := cmd.String("format")
	if path := cmd.String("file"); path != "" {
		if err := formatter.WriteReport(results, format, path); err != nil {
			return err
		}
		return r.writePlain("✓ Report written to %s\n", path)
	}

	data, err := formatter.Render(format, results)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}
