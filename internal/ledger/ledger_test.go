package ledger

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
	tu "github.com/desertthunder/ytsync/internal/testing"
)

func sampleResults() []models.Result {
	return []models.Result{
		{Title: "Daft Punk - One More Time", Artist: "daft punk", Track: "one more time", TrackID: "t1", Status: models.StatusAdded, FoundArtist: "Daft Punk", FoundTitle: "One More Time"},
		{Title: "A - B", Artist: "a", Track: "b", TrackID: "t2", Status: models.StatusAlreadyInPlaylist},
		{Title: "Nobody - Nothing", Artist: "nobody", Track: "nothing", Status: models.StatusNotFound},
		{Title: "[Private video]", Status: models.StatusPrivateOrDeleted},
	}
}

func newTestWriter(t *testing.T, dryRun bool) *Writer {
	t.Helper()
	dir := t.TempDir()
	w := NewWriter(filepath.Join(dir, "output"), filepath.Join(dir, "logs"), dryRun)
	w.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	return w
}

func TestWriteResults(t *testing.T) {
	t.Run("Splits By Status", func(t *testing.T) {
		w := newTestWriter(t, false)
		if err := w.WriteResults(sampleResults()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var added, notFound, private, all []models.Result
		tu.MustReadJSON(t, w.Path(AddedFile), &added)
		tu.MustReadJSON(t, w.Path(NotFoundFile), &notFound)
		tu.MustReadJSON(t, w.Path(PrivateDeletedFile), &private)
		tu.MustReadJSON(t, w.Path(AllResultsFile), &all)

		if len(added) != 2 || added[0].Status != models.StatusAdded || added[1].Status != models.StatusAlreadyInPlaylist {
			t.Errorf("expected added and already_in_playlist entries, got %+v", added)
		}
		if len(notFound) != 1 || notFound[0].Title != "Nobody - Nothing" {
			t.Errorf("unexpected not found ledger %+v", notFound)
		}
		if len(private) != 1 {
			t.Errorf("unexpected private ledger %+v", private)
		}
		if len(all) != 4 {
			t.Errorf("expected all four results, got %d", len(all))
		}
	})

	t.Run("Field Names", func(t *testing.T) {
		w := newTestWriter(t, false)
		if err := w.WriteResults(sampleResults()[:1]); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		content := tu.MustReadFile(t, w.Path(AddedFile))
		for _, key := range []string{`"title"`, `"artist"`, `"track"`, `"status"`, `"catalog_track_id": "t1"`} {
			if !strings.Contains(content, key) {
				t.Errorf("expected %s in ledger, got %s", key, content)
			}
		}
	})

	t.Run("Status Ledgers Accumulate", func(t *testing.T) {
		w := newTestWriter(t, false)
		for range 2 {
			if err := w.WriteResults(sampleResults()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}

		var added, all []models.Result
		tu.MustReadJSON(t, w.Path(AddedFile), &added)
		tu.MustReadJSON(t, w.Path(AllResultsFile), &all)
		if len(added) != 4 {
			t.Errorf("expected 4 accumulated entries, got %d", len(added))
		}
		if len(all) != 4 {
			t.Errorf("expected all_results to be rewritten each run, got %d", len(all))
		}
	})

	t.Run("Empty Run Writes Empty Arrays", func(t *testing.T) {
		w := newTestWriter(t, false)
		if err := w.WriteResults(nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := strings.TrimSpace(tu.MustReadFile(t, w.Path(AllResultsFile))); got != "[]" {
			t.Errorf("expected empty JSON array, got %s", got)
		}
		if got := strings.TrimSpace(tu.MustReadFile(t, w.Path(NotFoundFile))); got != "[]" {
			t.Errorf("expected empty JSON array, got %s", got)
		}
	})

	t.Run("Dry Run", func(t *testing.T) {
		w := newTestWriter(t, true)
		if err := w.WriteResults(sampleResults()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		dir := filepath.Join(w.OutputDir, DryRunDir)
		var added []models.Result
		tu.MustReadJSON(t, filepath.Join(dir, DryRunAddedFile), &added)
		if len(added) != 1 || added[0].TrackID != "t1" {
			t.Errorf("expected only the added entry, got %+v", added)
		}
		tu.AssertFileExists(t, filepath.Join(dir, AllResultsFile))
		tu.AssertNoFile(t, filepath.Join(w.OutputDir, AddedFile))
		tu.AssertNoFile(t, filepath.Join(dir, AddedFile))
	})

	t.Run("Corrupt Existing Ledger Is Moved Aside", func(t *testing.T) {
		w := newTestWriter(t, false)
		if err := os.MkdirAll(w.OutputDir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(w.Path(AddedFile), []byte("{broken"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := w.WriteResults(sampleResults()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := tu.MustReadFile(t, w.Path(AddedFile)+CorruptSuffix); got != "{broken" {
			t.Errorf("expected the broken ledger to be kept as a backup, got %q", got)
		}
		var added, notFound, all []models.Result
		tu.MustReadJSON(t, w.Path(AddedFile), &added)
		tu.MustReadJSON(t, w.Path(NotFoundFile), &notFound)
		tu.MustReadJSON(t, w.Path(AllResultsFile), &all)
		if len(added) != 2 {
			t.Errorf("expected a fresh ledger with this run's 2 entries, got %+v", added)
		}
		if len(notFound) != 1 || len(all) != 4 {
			t.Errorf("other ledgers must still be written, got %d not found and %d results", len(notFound), len(all))
		}
	})

	t.Run("All Results Written Before Status Ledgers", func(t *testing.T) {
		w := newTestWriter(t, false)
		if err := os.MkdirAll(w.Path(NotFoundFile), 0755); err != nil {
			t.Fatal(err)
		}
		if err := w.WriteResults(sampleResults()); err == nil {
			t.Error("expected an error when a status ledger cannot be replaced")
		}

		var added, all []models.Result
		tu.MustReadJSON(t, w.Path(AllResultsFile), &all)
		tu.MustReadJSON(t, w.Path(AddedFile), &added)
		if len(all) != 4 || len(added) != 2 {
			t.Errorf("expected all_results and the other ledgers despite the failure, got %d and %d", len(all), len(added))
		}
	})
}

func TestWriteSource(t *testing.T) {
	w := newTestWriter(t, false)
	source := []models.SourceEntry{{Index: 0, RawTitle: "A - B"}, {Index: 1, RawTitle: "[Deleted video]"}}
	if err := w.WriteSource(source); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	content := tu.MustReadFile(t, w.Path(SourceEntriesFile))
	if !strings.Contains(content, `"title": "[Deleted video]"`) || !strings.Contains(content, `"index": 1`) {
		t.Errorf("unexpected field names in %s", content)
	}
	var entries []models.SourceEntry
	tu.MustReadJSON(t, w.Path(SourceEntriesFile), &entries)
	if len(entries) != 2 || entries[1] != source[1] {
		t.Errorf("unexpected source snapshot %+v", entries)
	}
}

func TestAppendRunLog(t *testing.T) {
	w := newTestWriter(t, false)
	results := sampleResults()

	if err := w.AppendRunLog(results); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := w.AppendRunLog(results[:1]); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	f, err := os.Open(filepath.Join(w.LogsDir, RunLogFile))
	if err != nil {
		t.Fatalf("failed to open run log: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse run log: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("expected header plus 5 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "timestamp,searched_artist,searched_title,found_artist,found_title,status" {
		t.Errorf("unexpected header %v", rows[0])
	}
	want := []string{"2025-03-01T10:00:00Z", "daft punk", "one more time", "Daft Punk", "One More Time", "added"}
	if strings.Join(rows[1], "|") != strings.Join(want, "|") {
		t.Errorf("expected %v, got %v", want, rows[1])
	}
}

func TestReadResults(t *testing.T) {
	t.Run("Missing File", func(t *testing.T) {
		results, err := ReadResults(filepath.Join(t.TempDir(), "nope.json"))
		if err != nil || results == nil || len(results) != 0 {
			t.Errorf("expected empty ledger, got %v (%v)", results, err)
		}
	})

	t.Run("Corrupt File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corrupt.json")
		os.WriteFile(path, []byte("{broken"), 0644)
		if _, err := ReadResults(path); !errors.Is(err, shared.ErrCorruptLedger) {
			t.Errorf("expected ErrCorruptLedger, got %v", err)
		}
	})

	t.Run("Empty File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.json")
		os.WriteFile(path, nil, 0644)
		results, err := ReadResults(path)
		if err != nil || len(results) != 0 {
			t.Errorf("expected empty ledger, got %v (%v)", results, err)
		}
	})
}
