package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/ledger"
	"github.com/desertthunder/ytsync/internal/matching"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/normalize"
	"github.com/desertthunder/ytsync/internal/search"
	"github.com/desertthunder/ytsync/internal/shared"
	tu "github.com/desertthunder/ytsync/internal/testing"
)

const daftPunk = "Daft Punk - One More Time (Official Video)"

func primaryQuery(title string) string {
	return normalize.QueryFor(normalize.ParseHypothesis(title)).Query
}

func newTestEngine(catalog *tu.MockCatalog) (*PlaylistEngine, *tu.Sleeper) {
	logger := log.New(io.Discard)
	sleeper := &tu.Sleeper{}

	client := search.New(catalog, nil, search.Options{}, logger)
	client.SetSleep(sleeper.Sleep)

	engine := NewPlaylistEngine(EngineOpts{
		Catalog: catalog,
		Search:  client,
		Scorer:  matching.NewLibraryScorer(),
		Logger:  logger,
	})
	engine.SetSleep(sleeper.Sleep)
	return engine, sleeper
}

func testOptions() Options {
	return Options{
		PlaylistID:    "p1",
		BatchSize:     25,
		MaxRetries:    3,
		BackoffFactor: 2,
		MinRetryAfter: 10 * time.Second,
		SecondPass:    true,
	}
}

func statuses(results []models.Result) []models.Status {
	out := make([]models.Status, len(results))
	for i, r := range results {
		out[i] = r.Status
	}
	return out
}

type memoryRuns struct{ runs []*models.Run }

func (m *memoryRuns) Create(run *models.Run) error {
	m.runs = append(m.runs, run)
	return nil
}

func TestPlaylistEngineRun(t *testing.T) {
	ctx := context.Background()

	t.Run("Adds A Matched Title", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Results[primaryQuery(daftPunk)] = []models.Candidate{{ID: "t1", Artist: "Daft Punk", Title: "One More Time"}}
		engine, _ := newTestEngine(catalog)

		res, err := engine.Run(ctx, []string{daftPunk}, testOptions(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(res.Results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(res.Results))
		}
		r := res.Results[0]
		if r.Status != models.StatusAdded || r.Artist != "daft punk" || r.Track != "one more time" || r.TrackID != "t1" {
			t.Errorf("unexpected result %+v", r)
		}
		if r.FoundArtist != "Daft Punk" || r.FoundTitle != "One More Time" {
			t.Errorf("expected found artist and title, got %+v", r)
		}
		if fmt.Sprint(catalog.Added) != "[[t1]]" {
			t.Errorf("expected one commit of [t1], got %v", catalog.Added)
		}
		if res.Summary.Added != 1 || res.Summary.Total != 1 {
			t.Errorf("unexpected summary %+v", res.Summary)
		}
	})

	t.Run("Private And Deleted Are Never Searched", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.SnapshotErr = errors.New("snapshot should not be needed")
		engine, _ := newTestEngine(catalog)

		res, err := engine.Run(ctx, []string{"[Private video]", "[Deleted video]", ""}, testOptions(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for i, r := range res.Results {
			if r.Status != models.StatusPrivateOrDeleted {
				t.Errorf("result %d: expected private_or_deleted, got %s", i, r.Status)
			}
		}
		if len(catalog.Queries) != 0 {
			t.Errorf("expected zero search calls, got %v", catalog.Queries)
		}
		if catalog.AddCalls != 0 {
			t.Errorf("expected no commits, got %d", catalog.AddCalls)
		}
		if res.Summary.PrivateOrDeleted != 3 {
			t.Errorf("unexpected summary %+v", res.Summary)
		}
	})

	t.Run("Already In Playlist", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Existing = []string{"t1"}
		catalog.Results[primaryQuery(daftPunk)] = []models.Candidate{{ID: "t1", Artist: "Daft Punk", Title: "One More Time"}}
		engine, _ := newTestEngine(catalog)

		res, err := engine.Run(ctx, []string{daftPunk}, testOptions(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Results[0].Status != models.StatusAlreadyInPlaylist {
			t.Errorf("expected already_in_playlist, got %s", res.Results[0].Status)
		}
		if catalog.AddCalls != 0 {
			t.Errorf("expected commit not to be invoked, got %d calls", catalog.AddCalls)
		}
	})

	t.Run("Commit Retries After Rate Limit", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Results[primaryQuery(daftPunk)] = []models.Candidate{{ID: "t1", Artist: "Daft Punk", Title: "One More Time"}}
		catalog.AddErrs = []error{tu.RateLimited(0), tu.RateLimited(0), nil}
		engine, sleeper := newTestEngine(catalog)

		res, err := engine.Run(ctx, []string{daftPunk}, testOptions(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if catalog.AddCalls != 3 || fmt.Sprint(catalog.Added) != "[[t1]]" {
			t.Errorf("expected success on third attempt, got %d calls, added %v", catalog.AddCalls, catalog.Added)
		}
		want := []time.Duration{10 * time.Second, 10 * time.Second}
		if got := sleeper.Recorded(); fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("expected retry sleeps %v, got %v", want, got)
		}
		if res.Summary.DroppedBatches != 0 {
			t.Errorf("expected no dropped batches, got %d", res.Summary.DroppedBatches)
		}
	})

	t.Run("Search Retries After Rate Limit", func(t *testing.T) {
		q := primaryQuery(daftPunk)
		catalog := tu.NewMockCatalog()
		catalog.Results[q] = []models.Candidate{{ID: "t1", Artist: "Daft Punk", Title: "One More Time"}}
		catalog.SearchErrs[q] = []error{tu.RateLimited(2 * time.Second), tu.RateLimited(2 * time.Second)}
		engine, sleeper := newTestEngine(catalog)

		res, err := engine.Run(ctx, []string{daftPunk}, testOptions(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Results[0].Status != models.StatusAdded {
			t.Errorf("expected added, got %s", res.Results[0].Status)
		}
		if catalog.SearchCount(q) != 3 || len(sleeper.Recorded()) != 2 {
			t.Errorf("expected 3 searches and 2 sleeps, got %d and %v", catalog.SearchCount(q), sleeper.Recorded())
		}
	})

	t.Run("Retry Wait Uses Hint And Backoff", func(t *testing.T) {
		engine, _ := newTestEngine(tu.NewMockCatalog())
		opts := testOptions()
		opts.BatchDelay = 4 * time.Second
		c := newCommitter(engine, opts, log.New(io.Discard), nil)

		tests := []struct {
			hint    time.Duration
			retries int
			want    time.Duration
		}{
			{30 * time.Second, 0, 30 * time.Second},
			{3 * time.Second, 0, 10 * time.Second},
			{0, 0, 10 * time.Second},
			{0, 2, 16 * time.Second},
			{0, 100, time.Hour},
		}
		for _, tt := range tests {
			if got := c.retryWait(tt.hint, tt.retries); got != tt.want {
				t.Errorf("retryWait(%s, %d): expected %s, got %s", tt.hint, tt.retries, tt.want, got)
			}
		}
	})

	t.Run("Drops Batch When Retries Exhausted", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Results[primaryQuery(daftPunk)] = []models.Candidate{{ID: "t1", Artist: "Daft Punk", Title: "One More Time"}}
		catalog.AddErrs = []error{tu.RateLimited(0), tu.RateLimited(0), tu.RateLimited(0)}
		engine, sleeper := newTestEngine(catalog)

		opts := testOptions()
		opts.MaxRetries = 2
		res, err := engine.Run(ctx, []string{daftPunk}, opts, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if catalog.AddCalls != 3 {
			t.Errorf("expected initial attempt plus 2 retries, got %d", catalog.AddCalls)
		}
		if len(sleeper.Recorded()) != 2 {
			t.Errorf("expected 2 retry sleeps, got %v", sleeper.Recorded())
		}
		if res.Summary.DroppedBatches != 1 {
			t.Errorf("expected 1 dropped batch, got %d", res.Summary.DroppedBatches)
		}
		if res.Results[0].Status != models.StatusAdded {
			t.Errorf("dropped entries keep status added, got %s", res.Results[0].Status)
		}
	})

	t.Run("Abandons Batch On Other Errors", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Results[primaryQuery(daftPunk)] = []models.Candidate{{ID: "t1", Artist: "Daft Punk", Title: "One More Time"}}
		catalog.AddErrs = []error{fmt.Errorf("%w: 403 forbidden", shared.ErrAPIRequest)}
		engine, sleeper := newTestEngine(catalog)

		res, err := engine.Run(ctx, []string{daftPunk}, testOptions(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if catalog.AddCalls != 1 || len(sleeper.Recorded()) != 0 {
			t.Errorf("expected a single attempt without sleeping, got %d calls, sleeps %v", catalog.AddCalls, sleeper.Recorded())
		}
		if res.Summary.DroppedBatches != 1 {
			t.Errorf("expected 1 dropped batch, got %d", res.Summary.DroppedBatches)
		}
	})

	t.Run("Duplicate Hypotheses Commit Once", func(t *testing.T) {
		other := "Daft Punk - One More Time [HD]"
		catalog := tu.NewMockCatalog()
		for _, title := range []string{daftPunk, other} {
			catalog.Results[primaryQuery(title)] = []models.Candidate{{ID: "t1", Artist: "Daft Punk", Title: "One More Time"}}
		}
		engine, _ := newTestEngine(catalog)

		res, err := engine.Run(ctx, []string{daftPunk, other}, testOptions(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got := statuses(res.Results)
		if fmt.Sprint(got) != "[added already_in_playlist]" {
			t.Errorf("expected one added entry, got %v", got)
		}
		if catalog.AddCalls != 1 || fmt.Sprint(catalog.Added) != "[[t1]]" {
			t.Errorf("expected one commit with one id, got %v", catalog.Added)
		}
	})

	t.Run("Identical Titles Collapse", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Results[primaryQuery(daftPunk)] = []models.Candidate{{ID: "t1", Artist: "Daft Punk", Title: "One More Time"}}
		engine, _ := newTestEngine(catalog)

		res, err := engine.Run(ctx, []string{daftPunk, daftPunk}, testOptions(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(res.Results) != 1 || res.Summary.Total != 1 {
			t.Errorf("expected the duplicate to be dropped, got %+v", res.Results)
		}
		if fmt.Sprint(catalog.Added) != "[[t1]]" {
			t.Errorf("expected one id committed, got %v", catalog.Added)
		}
	})

	t.Run("Idempotent Rerun", func(t *testing.T) {
		titles := []string{daftPunk, "Justice - D.A.N.C.E.", "[Private video]"}
		catalog := tu.NewMockCatalog()
		catalog.Results[primaryQuery(titles[0])] = []models.Candidate{{ID: "t1", Artist: "Daft Punk", Title: "One More Time"}}
		catalog.Results[primaryQuery(titles[1])] = []models.Candidate{{ID: "t2", Artist: "Justice", Title: "D.A.N.C.E."}}
		engine, _ := newTestEngine(catalog)

		if _, err := engine.Run(ctx, titles, testOptions(), nil); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		catalog.Existing = catalog.AddedIDs()
		calls := catalog.AddCalls

		res, err := engine.Run(ctx, titles, testOptions(), nil)
		if err != nil {
			t.Fatalf("second run failed: %v", err)
		}
		got := statuses(res.Results)
		if fmt.Sprint(got) != "[already_in_playlist already_in_playlist private_or_deleted]" {
			t.Errorf("expected previously added entries to be already_in_playlist, got %v", got)
		}
		if catalog.AddCalls != calls {
			t.Error("second run must not add anything")
		}
	})

	t.Run("Batches And Paces Commits", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		var titles []string
		for i := range 5 {
			title := fmt.Sprintf("Artist%d - Song%d", i, i)
			titles = append(titles, title)
			catalog.Results[primaryQuery(title)] = []models.Candidate{{ID: fmt.Sprintf("id%d", i), Artist: fmt.Sprintf("Artist%d", i), Title: fmt.Sprintf("Song%d", i)}}
		}
		engine, sleeper := newTestEngine(catalog)

		opts := testOptions()
		opts.BatchSize = 2
		opts.BatchDelay = time.Second
		if _, err := engine.Run(ctx, titles, opts, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if fmt.Sprint(catalog.Added) != "[[id0 id1] [id2 id3] [id4]]" {
			t.Errorf("unexpected batches %v", catalog.Added)
		}
		if got := sleeper.Recorded(); len(got) != 3 {
			t.Errorf("expected a batch delay after each of 3 batches, got %v", got)
		}
	})

	t.Run("Dry Run Does Not Mutate", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Results[primaryQuery(daftPunk)] = []models.Candidate{{ID: "t1", Artist: "Daft Punk", Title: "One More Time"}}
		engine, _ := newTestEngine(catalog)

		opts := testOptions()
		opts.DryRun = true
		res, err := engine.Run(ctx, []string{daftPunk}, opts, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if catalog.AddCalls != 0 {
			t.Errorf("dry run must not add items, got %d calls", catalog.AddCalls)
		}
		if res.Results[0].Status != models.StatusAdded || !res.Run.DryRun {
			t.Errorf("expected a would-be addition in a dry run, got %+v", res.Results[0])
		}
	})

	t.Run("Snapshot Failure Aborts", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.SnapshotErr = fmt.Errorf("%w: 404", shared.ErrAPIRequest)
		engine, _ := newTestEngine(catalog)

		res, err := engine.Run(ctx, []string{daftPunk, "[Private video]"}, testOptions(), nil)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected wrapped snapshot error, got %v", err)
		}
		if len(catalog.Queries) != 0 || catalog.AddCalls != 0 {
			t.Error("nothing may be searched or added after a snapshot failure")
		}
		if res == nil {
			t.Fatal("expected a result carrying the summary")
		}
		if want := (models.Summary{Total: 2}); res.Summary != want {
			t.Errorf("expected summary %+v, got %+v", want, res.Summary)
		}
		if len(res.Results) != 0 {
			t.Errorf("expected no classified results, got %+v", res.Results)
		}
	})

	t.Run("Missing Catalog", func(t *testing.T) {
		engine := NewPlaylistEngine(EngineOpts{})
		if _, err := engine.Run(ctx, nil, testOptions(), nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Preserves Source Order", func(t *testing.T) {
		titles := []string{"[Private video]", "A - B", "Nobody - Nothing", daftPunk}
		catalog := tu.NewMockCatalog()
		catalog.Results[primaryQuery("A - B")] = []models.Candidate{{ID: "ab", Artist: "A", Title: "B"}}
		catalog.Results[primaryQuery(daftPunk)] = []models.Candidate{{ID: "t1", Artist: "Daft Punk", Title: "One More Time"}}
		engine, _ := newTestEngine(catalog)

		res, err := engine.Run(ctx, titles, testOptions(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for i, r := range res.Results {
			if r.Title != titles[i] {
				t.Errorf("result %d: expected %q, got %q", i, titles[i], r.Title)
			}
		}
		if fmt.Sprint(statuses(res.Results)) != "[private_or_deleted added not_found added]" {
			t.Errorf("unexpected statuses %v", statuses(res.Results))
		}
	})
}

func TestRetrySearch(t *testing.T) {
	ctx := context.Background()
	title := "Daft Punk - The Game of Love"

	t.Run("Fallback Accepts Reasonable Match", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Results[normalize.CleanTitle(title)] = []models.Candidate{{ID: "g1", Artist: "Daft Punk", Title: "The Game of Love"}}
		engine, _ := newTestEngine(catalog)

		res, err := engine.Run(ctx, []string{title}, testOptions(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		r := res.Results[0]
		if r.Status != models.StatusAdded || r.TrackID != "g1" || r.FoundTitle != "The Game of Love" {
			t.Errorf("expected fallback addition, got %+v", r)
		}
		if i := len(catalog.Limits) - 1; catalog.Limits[i] != 3 {
			t.Errorf("expected fallback limit 3, got %d", catalog.Limits[i])
		}
	})

	t.Run("Second Pass After Rejected Fallback", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Results[normalize.CleanTitle(title)] = []models.Candidate{{ID: "x", Artist: "Justice", Title: "The Game of Love"}}
		catalog.Results["artist:daft punk track:game love"] = []models.Candidate{
			{ID: "y", Artist: "Daft Punk", Title: "Something Else"},
			{ID: "g1", Artist: "Daft Punk", Title: "The Game of Love"},
		}
		engine, _ := newTestEngine(catalog)

		res, err := engine.Run(ctx, []string{title}, testOptions(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if r := res.Results[0]; r.Status != models.StatusAdded || r.TrackID != "g1" {
			t.Errorf("expected second-pass addition of g1, got %+v", r)
		}
	})

	t.Run("Second Pass Falls Through To Free Text", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Results["artist:daft punk the game of love"] = []models.Candidate{{ID: "g1", Artist: "Daft Punk", Title: "The Game Of Love"}}
		engine, _ := newTestEngine(catalog)

		res, err := engine.Run(ctx, []string{title}, testOptions(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if r := res.Results[0]; r.Status != models.StatusAdded || r.TrackID != "g1" {
			t.Errorf("expected addition from the second query, got %+v", r)
		}
		if catalog.SearchCount("artist:daft punk track:game love") != 1 {
			t.Error("expected the track-qualified query to be tried first")
		}
	})

	t.Run("Second Pass Is Strict", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Results["artist:daft punk track:game love"] = []models.Candidate{{ID: "g2", Artist: "Daft Punk", Title: "Game Over"}}
		engine, _ := newTestEngine(catalog)

		res, err := engine.Run(ctx, []string{title}, testOptions(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Results[0].Status != models.StatusNotFound {
			t.Errorf("expected not_found, got %+v", res.Results[0])
		}
	})

	t.Run("Second Pass Disabled", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Results["artist:daft punk track:game love"] = []models.Candidate{{ID: "g1", Artist: "Daft Punk", Title: "The Game of Love"}}
		engine, _ := newTestEngine(catalog)

		opts := testOptions()
		opts.SecondPass = false
		res, err := engine.Run(ctx, []string{title}, opts, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Results[0].Status != models.StatusNotFound {
			t.Errorf("expected not_found without second pass, got %s", res.Results[0].Status)
		}
		if catalog.SearchCount("artist:daft punk track:game love") != 0 {
			t.Error("second pass queries must not run when disabled")
		}
	})

	t.Run("No Second Pass Without Artist", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		engine, _ := newTestEngine(catalog)

		if _, err := engine.Run(ctx, []string{"Some Untitled Upload"}, testOptions(), nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(catalog.Queries) != 2 {
			t.Errorf("expected primary and fallback queries only, got %v", catalog.Queries)
		}
	})
}

func TestRunWithLedgerAndHistory(t *testing.T) {
	dir := t.TempDir()
	catalog := tu.NewMockCatalog()
	catalog.Results[primaryQuery(daftPunk)] = []models.Candidate{{ID: "t1", Artist: "Daft Punk", Title: "One More Time"}}

	logger := log.New(io.Discard)
	writer := ledger.NewWriter(filepath.Join(dir, "output"), filepath.Join(dir, "logs"), false)
	runs := &memoryRuns{}
	engine := NewPlaylistEngine(EngineOpts{Catalog: catalog, Ledger: writer, Runs: runs, Logger: logger})

	progress := make(chan ProgressUpdate, 32)
	res, err := engine.Run(context.Background(), []string{daftPunk, "[Deleted video]"}, testOptions(), progress)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	close(progress)

	var added, all []models.Result
	tu.MustReadJSON(t, writer.Path(ledger.AddedFile), &added)
	tu.MustReadJSON(t, writer.Path(ledger.AllResultsFile), &all)
	if len(added) != 1 || added[0].TrackID != "t1" {
		t.Errorf("unexpected added ledger %+v", added)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 entries in all_results, got %d", len(all))
	}
	tu.AssertFileExists(t, writer.Path(ledger.SourceEntriesFile))
	tu.AssertFileExists(t, filepath.Join(dir, "logs", ledger.RunLogFile))

	if len(runs.runs) != 1 {
		t.Fatalf("expected the run to be recorded, got %d", len(runs.runs))
	}
	if run := runs.runs[0]; run.RunID != res.Run.RunID || run.Summary.Added != 1 || run.Summary.PrivateOrDeleted != 1 {
		t.Errorf("unexpected recorded run %+v", run)
	}

	phases := map[Phase]bool{}
	for u := range progress {
		phases[u.Phase] = true
	}
	for _, p := range []Phase{FetchSource, Classify, FetchDest, SearchTracks, CommitBatch, WriteLedgers} {
		if !phases[p] {
			t.Errorf("expected a %s progress update", p)
		}
	}
}

func TestRunWithCorruptLedger(t *testing.T) {
	dir := t.TempDir()
	catalog := tu.NewMockCatalog()
	catalog.Results[primaryQuery(daftPunk)] = []models.Candidate{{ID: "t1", Artist: "Daft Punk", Title: "One More Time"}}

	writer := ledger.NewWriter(filepath.Join(dir, "output"), filepath.Join(dir, "logs"), false)
	if err := os.MkdirAll(writer.Dir(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(writer.Path(ledger.AddedFile), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	engine := NewPlaylistEngine(EngineOpts{Catalog: catalog, Ledger: writer, Logger: log.New(io.Discard)})

	res, err := engine.Run(context.Background(), []string{daftPunk}, testOptions(), nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Summary.Added != 1 || fmt.Sprint(catalog.AddedIDs()) != "[t1]" {
		t.Errorf("expected t1 to be added, got %+v and %v", res.Summary, catalog.AddedIDs())
	}

	var added []models.Result
	tu.MustReadJSON(t, writer.Path(ledger.AddedFile), &added)
	if len(added) != 1 || added[0].TrackID != "t1" {
		t.Errorf("expected a fresh added ledger, got %+v", added)
	}
	tu.AssertFileExists(t, writer.Path(ledger.AddedFile)+ledger.CorruptSuffix)
	tu.AssertFileExists(t, writer.Path(ledger.AllResultsFile))
	tu.AssertFileExists(t, filepath.Join(dir, "logs", ledger.RunLogFile))
}
