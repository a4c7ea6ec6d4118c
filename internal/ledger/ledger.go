// package ledger persists sync results: JSON ledgers that accumulate across runs,
// the per-run results file, the fetched source titles and a CSV run log.
package ledger

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
)

const (
	AddedFile          = "added_songs.json"
	NotFoundFile       = "not_found_songs.json"
	PrivateDeletedFile = "private_deleted_songs.json"
	AllResultsFile     = "all_results.json"
	SourceEntriesFile  = "all_youtube_entries.json"
	DryRunDir          = "dryrun_temp"
	DryRunAddedFile    = "dryrun_added.json"
	RunLogFile         = "run_log.csv"
	CorruptSuffix      = ".corrupt"
)

var runLogHeader = []string{"timestamp", "searched_artist", "searched_title", "found_artist", "found_title", "status"}

// Writer writes ledgers under OutputDir and the run log under LogsDir.
//
// In dry-run mode every file goes to OutputDir/dryrun_temp and the cross-run ledgers are left alone.
type Writer struct {
	OutputDir string
	LogsDir   string
	DryRun    bool
	Logger    *log.Logger
	now       func() time.Time
}

func NewWriter(outputDir, logsDir string, dryRun bool) *Writer {
	return &Writer{OutputDir: outputDir, LogsDir: logsDir, DryRun: dryRun, Logger: log.New(io.Discard), now: time.Now}
}

// Dir is the directory the current mode writes ledgers into.
func (w *Writer) Dir() string {
	if w.DryRun {
		return filepath.Join(w.OutputDir, DryRunDir)
	}
	return w.OutputDir
}

// Path returns the full path of a ledger file for the current mode.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.Dir(), name)
}

// WriteResults emits every ledger for a run. all_results.json is rewritten first; the status ledgers
// are then read, extended and rewritten so they accumulate across runs.
//
// A status ledger that no longer parses is moved aside with a .corrupt suffix and started fresh.
// A failure on one status ledger does not stop the others.
func (w *Writer) WriteResults(results []models.Result) error {
	if err := os.MkdirAll(w.Dir(), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := writeJSON(w.Path(AllResultsFile), nonNil(results)); err != nil {
		return err
	}

	if w.DryRun {
		return writeJSON(w.Path(DryRunAddedFile), filter(results, models.StatusAdded))
	}

	appends := []struct {
		name     string
		statuses []models.Status
	}{
		{AddedFile, []models.Status{models.StatusAdded, models.StatusAlreadyInPlaylist}},
		{NotFoundFile, []models.Status{models.StatusNotFound}},
		{PrivateDeletedFile, []models.Status{models.StatusPrivateOrDeleted}},
	}
	var errs []error
	for _, a := range appends {
		if err := w.appendJSON(w.Path(a.name), filter(results, a.statuses...)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteSource records the entries fetched from the source for this run.
func (w *Writer) WriteSource(entries []models.SourceEntry) error {
	if err := os.MkdirAll(w.Dir(), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if entries == nil {
		entries = []models.SourceEntry{}
	}
	return writeJSON(w.Path(SourceEntriesFile), entries)
}

// AppendRunLog adds one CSV row per result to the run log, writing the header when the file is new.
func (w *Writer) AppendRunLog(results []models.Result) error {
	if len(results) == 0 {
		return nil
	}
	if err := os.MkdirAll(w.LogsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	path := filepath.Join(w.LogsDir, RunLogFile)
	info, statErr := os.Stat(path)
	newFile := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open run log: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if newFile {
		if err := writer.Write(runLogHeader); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	stamp := w.now().UTC().Format(time.RFC3339)
	for _, r := range results {
		record := []string{stamp, r.Artist, r.Track, r.FoundArtist, r.FoundTitle, string(r.Status)}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// ReadResults loads a ledger file. A missing file is an empty ledger; one that does not
// parse fails with [shared.ErrCorruptLedger].
func ReadResults(path string) ([]models.Result, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.Result{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var results []models.Result
	if len(data) == 0 {
		return []models.Result{}, nil
	}
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", shared.ErrCorruptLedger, path, err)
	}
	if results == nil {
		results = []models.Result{}
	}
	return results, nil
}

func (w *Writer) appendJSON(path string, fresh []models.Result) error {
	existing, err := ReadResults(path)
	if errors.Is(err, shared.ErrCorruptLedger) {
		backup := path + CorruptSuffix
		if rerr := os.Rename(path, backup); rerr != nil {
			return fmt.Errorf("failed to move aside %s: %w", path, rerr)
		}
		w.Logger.Warn("ledger did not parse, starting a new one", "path", path, "backup", backup, "error", err)
		existing, err = []models.Result{}, nil
	}
	if err != nil {
		return err
	}
	return writeJSON(path, append(existing, fresh...))
}

// writeJSON replaces path atomically so an interrupted run never leaves half a ledger.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func filter(results []models.Result, statuses ...models.Status) []models.Result {
	out := []models.Result{}
	for _, r := range results {
		for _, s := range statuses {
			if r.Status == s {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func nonNil(results []models.Result) []models.Result {
	if results == nil {
		return []models.Result{}
	}
	return results
}
