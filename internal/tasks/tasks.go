package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/matching"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/normalize"
	"github.com/desertthunder/ytsync/internal/search"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
)

const (
	fallbackLimit   = 3
	secondPassLimit = 2
)

// Options configure a single reconciliation run.
type Options struct {
	PlaylistID    string
	Source        string
	DryRun        bool
	BatchSize     int
	BatchDelay    time.Duration
	MaxRetries    int
	BackoffFactor float64
	MinRetryAfter time.Duration
	SecondPass    bool
	StopWords     normalize.StopWords
}

// OptionsFromConfig maps the [sync] config section onto run options.
func OptionsFromConfig(cfg shared.SyncConfig) Options {
	return Options{
		BatchSize:     cfg.BatchSize,
		BatchDelay:    shared.Seconds(cfg.BatchDelay),
		MaxRetries:    cfg.MaxRetries,
		BackoffFactor: cfg.BackoffFactor,
		MinRetryAfter: shared.Seconds(cfg.MinRetryAfter),
		SecondPass:    cfg.SecondPass,
		StopWords:     normalize.NewStopWords(cfg.StopWords...),
	}
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 25
	}
	if o.BackoffFactor < 1 {
		o.BackoffFactor = 2
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.StopWords == nil {
		o.StopWords = normalize.NewStopWords()
	}
	return o
}

// RunStore records finished runs.
type RunStore interface {
	Create(run *models.Run) error
}

// Ledger persists the outcome of a run.
type Ledger interface {
	WriteSource(entries []models.SourceEntry) error
	WriteResults(results []models.Result) error
	AppendRunLog(results []models.Result) error
	Dir() string
}

// RunResult is everything a run produced.
type RunResult struct {
	Run     *models.Run
	Results []models.Result
	Summary models.Summary
}

// SyncEngine reconciles source titles into a destination playlist.
type SyncEngine interface {
	// Run classifies every title, commits new tracks in batches and writes the ledgers.
	Run(ctx context.Context, titles []string, opts Options, progress chan<- ProgressUpdate) (*RunResult, error)
}

var _ SyncEngine = (*PlaylistEngine)(nil)

// PlaylistEngine implements [SyncEngine].
type PlaylistEngine struct {
	catalog services.Catalog
	search  *search.Client
	scorer  matching.Scorer
	ledger  Ledger
	runs    RunStore
	logger  *log.Logger
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
}

// EngineOpts contains the dependencies of a [PlaylistEngine]. Ledger and Runs are optional.
type EngineOpts struct {
	Catalog services.Catalog
	Search  *search.Client
	Scorer  matching.Scorer
	Ledger  Ledger
	Runs    RunStore
	Logger  *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine with the provided dependencies.
func NewPlaylistEngine(opts EngineOpts) *PlaylistEngine {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Scorer == nil {
		opts.Scorer = matching.NewLibraryScorer()
	}
	if opts.Search == nil && opts.Catalog != nil {
		opts.Search = search.New(opts.Catalog, nil, search.Options{}, opts.Logger)
	}
	return &PlaylistEngine{
		catalog: opts.Catalog,
		search:  opts.Search,
		scorer:  opts.Scorer,
		ledger:  opts.Ledger,
		runs:    opts.Runs,
		logger:  opts.Logger,
		sleep:   search.Sleep,
		now:     time.Now,
	}
}

// SetSleep replaces the function used for batch pacing and commit retries.
func (e *PlaylistEngine) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	e.sleep = fn
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run reconciles titles into opts.PlaylistID.
//
// Failure to read the destination playlist aborts the run before anything is mutated; the
// RunResult returned with that error carries a summary with only the total set.
// Remote errors after that point are logged and degrade to not_found or a dropped batch.
func (e *PlaylistEngine) Run(ctx context.Context, titles []string, opts Options, progress chan<- ProgressUpdate) (*RunResult, error) {
	if e.catalog == nil || e.search == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	opts = opts.withDefaults()

	run := &models.Run{
		RunID:      shared.GenerateID(),
		Source:     opts.Source,
		PlaylistID: opts.PlaylistID,
		DryRun:     opts.DryRun,
		StartedAt:  e.now().UTC(),
	}
	logger := shared.WithLogger(e.logger, "run", run.RunID[:8])

	entries := make([]models.SourceEntry, len(titles))
	for i, raw := range titles {
		entries[i] = models.SourceEntry{Index: i, RawTitle: raw}
	}
	e.sendProgress(progress, fetchSourceUpdate(len(entries)))
	if e.ledger != nil {
		if err := e.ledger.WriteSource(entries); err != nil {
			return nil, fmt.Errorf("failed to write source snapshot: %w", err)
		}
	}

	results := make([]models.Result, len(entries))
	hypotheses := make([]models.Hypothesis, len(entries))
	var pending []int
	var queries []models.SearchQuery

	for _, entry := range entries {
		i, raw := entry.Index, entry.RawTitle
		h := normalize.ParseHypothesis(raw)
		if normalize.IsUnavailable(raw) || h.Empty() {
			results[i] = models.Result{Title: raw, Artist: h.Artist, Track: h.Track, Status: models.StatusPrivateOrDeleted, Index: i}
			continue
		}
		hypotheses[i] = h
		pending = append(pending, i)
		queries = append(queries, normalize.QueryFor(h))
	}
	e.sendProgress(progress, classifyUpdate(len(titles)-len(pending), len(titles)))
	logger.Info("classified source titles", "total", len(titles), "searchable", len(pending))

	snapshot := map[string]struct{}{}
	if len(pending) > 0 {
		existing, err := e.catalog.PlaylistTrackIDs(ctx, opts.PlaylistID)
		if err != nil {
			run.FinishedAt = e.now().UTC()
			aborted := &RunResult{Run: run, Results: []models.Result{}, Summary: models.Summary{Total: len(entries)}}
			run.Summary = aborted.Summary
			return aborted, fmt.Errorf("failed to read destination playlist: %w", err)
		}
		snapshot = existing
		e.sendProgress(progress, fetchDestUpdate(opts.PlaylistID, len(snapshot)))
	}

	e.sendProgress(progress, searchTracksUpdate(0, len(pending), nil))
	found, err := e.search.SearchAll(ctx, queries)
	if err != nil {
		return nil, fmt.Errorf("search interrupted: %w", err)
	}

	commit := newCommitter(e, opts, logger, progress)
	seen := make(map[string]struct{})
	dropped := make(map[int]bool)

	for k, i := range pending {
		h := hypotheses[i]
		r := models.Result{Title: h.RawTitle, Artist: h.Artist, Track: h.Track, Index: i}

		sr := found[k]
		if !sr.Found() {
			if sr, err = e.retrySearch(ctx, h, opts, logger); err != nil {
				return nil, fmt.Errorf("search interrupted: %w", err)
			}
		}

		switch {
		case !sr.Found():
			r.Status = models.StatusNotFound
		default:
			r.TrackID = sr.TrackID
			if sr.Match != nil {
				r.FoundArtist, r.FoundTitle = sr.Match.Artist, sr.Match.Title
			}
			if _, dup := seen[r.DedupKey()]; dup {
				logger.Debug("dropping duplicate entry", "title", r.Title)
				dropped[i] = true
				continue
			}
			if _, ok := snapshot[r.TrackID]; ok {
				r.Status = models.StatusAlreadyInPlaylist
				break
			}
			r.Status = models.StatusAdded
			snapshot[r.TrackID] = struct{}{}
			seen[r.DedupKey()] = struct{}{}
			if err := commit.queue(ctx, r.TrackID); err != nil {
				return nil, err
			}
		}

		results[i] = r
		e.sendProgress(progress, searchTracksUpdate(k+1, len(pending), &r))
		logger.Debug("classified", "title", r.Title, "status", r.Status, "id", r.TrackID)
	}

	if err := commit.flush(ctx); err != nil {
		return nil, err
	}

	final := make([]models.Result, 0, len(results))
	for i, r := range results {
		if !dropped[i] {
			final = append(final, r)
		}
	}

	summary := models.Count(final)
	summary.DroppedBatches = commit.dropped
	run.Summary = summary
	run.FinishedAt = e.now().UTC()

	out := &RunResult{Run: run, Results: final, Summary: summary}

	if e.runs != nil {
		if err := e.runs.Create(run); err != nil {
			logger.Warn("failed to record run", "error", err)
		}
	}

	// Ledger failures never fail the run; the playlist may already have changed.
	if e.ledger != nil {
		ok := true
		if err := e.ledger.AppendRunLog(final); err != nil {
			logger.Error("failed to write run log", "error", err)
			ok = false
		}
		if err := e.ledger.WriteResults(final); err != nil {
			logger.Error("failed to write ledgers", "error", err)
			ok = false
		}
		if ok {
			e.sendProgress(progress, writeLedgersUpdate(e.ledger.Dir(), summary))
		}
	}

	logger.Info("run complete",
		"added", summary.Added,
		"already_in_playlist", summary.AlreadyInPlaylist,
		"not_found", summary.NotFound,
		"private_or_deleted", summary.PrivateOrDeleted,
		"dropped_batches", summary.DroppedBatches,
	)
	return out, nil
}

// retrySearch runs the fallback query and then, when enabled, the stricter second pass.
// Only context cancellation is returned as an error.
func (e *PlaylistEngine) retrySearch(ctx context.Context, h models.Hypothesis, opts Options, logger *log.Logger) (models.SearchResult, error) {
	res := models.SearchResult{Artist: h.Artist, Track: h.Track}

	if q := normalize.CleanTitle(h.RawTitle); q != "" {
		candidates, err := e.search.Candidates(ctx, q, fallbackLimit)
		if err != nil && ctx.Err() != nil {
			return res, ctx.Err()
		}
		if err != nil {
			logger.Warn("fallback search failed", "query", q, "error", err)
		} else if len(candidates) > 0 {
			top := candidates[0]
			if e.scorer.Match(h.Artist, h.Track, top.Artist, top.Title) {
				logger.Debug("fallback match", "query", q, "found", top.Title)
				return accept(res, top), nil
			}
		}
	}

	if !opts.SecondPass || h.Artist == "" || h.Track == "" {
		return res, nil
	}

	for _, q := range secondPassQueries(h, opts.StopWords) {
		candidates, err := e.search.Candidates(ctx, q, secondPassLimit)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			logger.Warn("second-pass search failed", "query", q, "error", err)
			continue
		}
		for _, c := range candidates {
			if e.scorer.StrictMatch(h.Artist, h.Track, c.Artist, c.Title) {
				logger.Debug("second-pass match", "query", q, "found", c.Title)
				return accept(res, c), nil
			}
		}
	}
	return res, nil
}

// secondPassQueries narrows the search to the artist: first with a stop-word scrubbed track field,
// then with the track as free text.
func secondPassQueries(h models.Hypothesis, stop normalize.StopWords) []string {
	cleaned := stop.Strip(h.Track)
	return []string{
		strings.TrimSpace("artist:" + h.Artist + " track:" + cleaned),
		strings.TrimSpace("artist:" + h.Artist + " " + h.Track),
	}
}

func accept(res models.SearchResult, c models.Candidate) models.SearchResult {
	res.TrackID = c.ID
	res.Match = &c
	return res
}
