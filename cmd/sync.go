package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/formatter"
	"github.com/desertthunder/ytsync/internal/ledger"
	"github.com/desertthunder/ytsync/internal/matching"
	"github.com/desertthunder/ytsync/internal/repositories"
	"github.com/desertthunder/ytsync/internal/search"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/desertthunder/ytsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Sync fetches the source titles, reconciles them into the destination playlist and writes the ledgers.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	config := *r.config
	if cmd.IsSet("output") {
		config.Sync.OutputDir = cmd.String("output")
	}
	if cmd.IsSet("scorer") {
		config.Sync.Scorer = cmd.String("scorer")
	}
	if cmd.Bool("no-second-pass") {
		config.Sync.SecondPass = false
	}
	if key := cmd.String("yt-api-key"); key != "" {
		config.Credentials.YouTube.APIKey = key
	}
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	dryRun := cmd.Bool("dry-run")

	source := strings.TrimSpace(cmd.String("source"))
	if source == "" {
		return fmt.Errorf("%w: --source is required", shared.ErrMissingArgument)
	}
	playlistID, err := services.ParsePlaylistID(cmd.String("playlist"))
	if err != nil {
		return err
	}
	scorer, err := matching.New(config.Sync.Scorer)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	catalog, err := r.resolveCatalog(ctx, &config)
	if err != nil {
		return err
	}

	provider := r.titleProvider(source, &config)
	r.logger.Info("fetching source titles", "source", source, "provider", provider.Name())
	titles, err := provider.FetchTitles(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to fetch source titles: %w", err)
	}

	cache, runs, closeStore := r.openStore(config.Database)
	defer closeStore()

	logger := shared.WithLogger(r.logger, "playlist", playlistID)
	client := search.New(catalog, cache, search.Options{
		Concurrency: config.Sync.SearchConcurrency,
		Rate:        config.Sync.SearchRate,
		BaseDelay:   shared.Seconds(config.Sync.SearchBaseDelay),
		MaxDelay:    shared.Seconds(config.Sync.SearchMaxDelay),
	}, logger)

	writer := ledger.NewWriter(config.Sync.OutputDir, config.Sync.LogsDir, dryRun)
	writer.Logger = shared.WithLogger(logger, "component", "ledger")
	engine := tasks.NewPlaylistEngine(tasks.EngineOpts{
		Catalog: catalog,
		Search:  client,
		Scorer:  scorer,
		Ledger:  writer,
		Runs:    runs,
		Logger:  logger,
	})

	opts := tasks.OptionsFromConfig(config.Sync)
	opts.PlaylistID = playlistID
	opts.Source = source
	opts.DryRun = dryRun

	if dryRun {
		r.writePlain("Dry run: the playlist will not be modified\n")
	}
	r.writePlain("Syncing %d titles into %s...\n", len(titles), playlistID)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.reportProgress(progressCh)
	}()

	result, err := engine.Run(ctx, titles, opts, progressCh)
	close(progressCh)
	<-done

	if result != nil {
		r.writePlainln("%s", formatter.RenderSummary(result.Summary, dryRun))
	}
	if err != nil {
		if result != nil {
			r.writePlain("⚠ Run aborted, the playlist was not modified\n")
		}
		return err
	}
	r.writePlain("Ledgers written to %s\n", writer.Dir())
	return nil
}

func (r *Runner) reportProgress(updates <-chan tasks.ProgressUpdate) {
	for update := range updates {
		switch update.Phase {
		case tasks.SearchTracks:
			if update.Step == 0 {
				r.writePlain("→ %s\n", update.Message)
			} else {
				r.logger.Debug(update.Message)
			}
		case tasks.CommitBatch:
			r.logger.Info(update.Message)
		default:
			r.writePlain("→ %s\n", update.Message)
		}
	}
}

// resolveCatalog authenticates the Spotify catalog from the configured refresh token, or through
// the browser when there is none.
func (r *Runner) resolveCatalog(ctx context.Context, config *shared.Config) (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	creds := config.Credentials.Spotify
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	spotify, err := services.NewSpotifyCatalog(creds.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify catalog: %w", err)
	}

	if creds.RefreshToken != "" {
		if err := spotify.AuthenticateRefreshToken(ctx, creds.RefreshToken); err != nil {
			return nil, err
		}
		return spotify, nil
	}

	r.logger.Warn("no Spotify refresh token configured, starting browser authorization")
	if _, err := r.authorize(ctx, config, spotify); err != nil {
		return nil, err
	}
	return spotify, nil
}

func (r *Runner) titleProvider(source string, config *shared.Config) services.TitleProvider {
	if r.source != nil {
		return r.source
	}
	return services.NewSourceProvider(source, services.SourceConfig{
		APIKey:    config.Credentials.YouTube.APIKey,
		Extractor: config.Sync.Extractor,
	}, shared.WithLogger(r.logger, "component", "source"))
}

// openStore opens the match cache and run history. A database that cannot be opened only disables
// caching and history for the run.
func (r *Runner) openStore(cfg shared.DatabaseConfig) (search.Cache, tasks.RunStore, func()) {
	db, err := r.openDB(cfg)
	if err != nil {
		r.logger.Warn("match cache unavailable, every title will be searched", "path", cfg.Path, "error", err)
		return nil, nil, func() {}
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			r.logger.Warn("failed to close database", "error", err)
		}
	}
	return repositories.NewMatchCache(db), repositories.NewRunRepository(db), closeDB
}
