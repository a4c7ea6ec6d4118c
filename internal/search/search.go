// package search implements the catalog search client: cache read-through, request pacing,
// rate limit backoff and order-preserving concurrent fan-out.
package search

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Cache is the subset of the match cache the client reads and writes.
type Cache interface {
	Get(artist, track string) (string, bool, error)
	Set(artist, track, trackID string) error
}

// Options tune pacing and backoff. Zero values fall back to the defaults below.
type Options struct {
	Concurrency int
	Rate        float64 // requests per second, <= 0 disables pacing
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

const (
	defaultConcurrency = 4
	defaultBaseDelay   = time.Second
	defaultMaxDelay    = time.Minute
)

// Client resolves search queries against a catalog.
type Client struct {
	catalog services.Catalog
	cache   Cache
	limiter *rate.Limiter
	opts    Options
	logger  *log.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// New builds a client. cache may be nil, in which case every query goes to the network.
func New(catalog services.Catalog, cache Cache, opts Options, logger *log.Logger) *Client {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = defaultMaxDelay
	}
	if opts.MaxDelay < opts.BaseDelay {
		opts.MaxDelay = opts.BaseDelay
	}

	if logger == nil {
		logger = log.New(io.Discard)
	}

	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}

	return &Client{
		catalog: catalog,
		cache:   cache,
		limiter: rate.NewLimiter(limit, 1),
		opts:    opts,
		logger:  logger,
		sleep:   Sleep,
	}
}

// SetSleep replaces the function used to wait between rate-limited retries.
func (c *Client) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	c.sleep = fn
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SearchAll resolves every query and returns one result per query at the same index.
// Queries run concurrently up to Options.Concurrency. Only context cancellation is reported as an error.
func (c *Client) SearchAll(ctx context.Context, queries []models.SearchQuery) ([]models.SearchResult, error) {
	results := make([]models.SearchResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, q := range queries {
		g.Go(func() error {
			res, err := c.SearchOne(gctx, q)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SearchOne resolves a single query: empty queries are skipped, cache hits avoid the network,
// and a network hit is written back to the cache. Misses are never cached.
//
// Remote failures other than rate limiting are logged and reported as a miss.
func (c *Client) SearchOne(ctx context.Context, q models.SearchQuery) (models.SearchResult, error) {
	res := models.SearchResult{Artist: q.Artist, Track: q.Track}
	if q.Query == "" {
		return res, nil
	}

	if c.cache != nil {
		id, ok, err := c.cache.Get(q.Artist, q.Track)
		switch {
		case err != nil:
			c.logger.Warn("cache lookup failed", "artist", q.Artist, "track", q.Track, "error", err)
		case ok:
			c.logger.Debug("cache hit", "artist", q.Artist, "track", q.Track, "id", id)
			res.TrackID = id
			return res, nil
		}
	}

	candidates, err := c.Candidates(ctx, q.Query, 1)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		c.logger.Error("search failed", "query", q.Query, "error", err)
		return res, nil
	}
	if len(candidates) == 0 {
		return res, nil
	}

	top := candidates[0]
	res.TrackID = top.ID
	res.Match = &top

	if c.cache != nil {
		if err := c.cache.Set(q.Artist, q.Track, top.ID); err != nil {
			c.logger.Warn("cache write failed", "artist", q.Artist, "track", q.Track, "error", err)
		}
	}
	return res, nil
}

// Candidates runs one catalog query, retrying the same request for as long as the catalog
// answers with a rate limit. Any other error is returned to the caller.
func (c *Client) Candidates(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		candidates, err := c.catalog.Search(ctx, query, limit)
		if err == nil {
			return candidates, nil
		}

		rl, ok := shared.AsRateLimit(err)
		if !ok {
			return nil, err
		}

		delay := c.backoff(rl.RetryAfter, attempt)
		c.logger.Warn("search rate limited, retrying", "query", query, "attempt", attempt+1, "wait", delay)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// backoff prefers the server's hint and otherwise doubles from BaseDelay, capped at MaxDelay.
func (c *Client) backoff(hint time.Duration, attempt int) time.Duration {
	if hint > 0 {
		return hint
	}
	d := float64(c.opts.BaseDelay) * math.Pow(2, float64(attempt))
	if d > float64(c.opts.MaxDelay) || math.IsInf(d, 0) {
		return c.opts.MaxDelay
	}
	return time.Duration(d)
}

