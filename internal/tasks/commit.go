package tasks

import (
	"context"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/shared"
)

const maxRetryWait = time.Hour

// committer accumulates added track ids and appends them to the playlist in batches.
//
// A rate limited batch is retried up to MaxRetries times; a batch that still fails, or fails
// for any other reason, is dropped and counted. Its entries keep status added in the ledgers.
type committer struct {
	engine   *PlaylistEngine
	opts     Options
	logger   *log.Logger
	progress chan<- ProgressUpdate

	batch   []string
	batches int
	dropped int
}

func newCommitter(e *PlaylistEngine, opts Options, logger *log.Logger, progress chan<- ProgressUpdate) *committer {
	return &committer{engine: e, opts: opts, logger: logger, progress: progress}
}

// queue adds id to the pending batch and commits it once full.
func (c *committer) queue(ctx context.Context, id string) error {
	c.batch = append(c.batch, id)
	if len(c.batch) < c.opts.BatchSize {
		return nil
	}
	return c.flush(ctx)
}

// flush commits whatever is pending. Only context cancellation is returned as an error.
func (c *committer) flush(ctx context.Context) error {
	if len(c.batch) == 0 {
		return nil
	}
	batch := c.batch
	c.batch = nil
	c.batches++

	if c.opts.DryRun {
		c.logger.Info("dry run, skipping playlist update", "batch", c.batches, "tracks", len(batch))
		return nil
	}

	ok, err := c.commit(ctx, batch)
	if err != nil {
		return err
	}
	if !ok {
		c.dropped++
	}
	c.engine.sendProgress(c.progress, commitBatchUpdate(c.batches, len(batch), ok))

	if c.opts.BatchDelay > 0 {
		return c.engine.sleep(ctx, c.opts.BatchDelay)
	}
	return nil
}

func (c *committer) commit(ctx context.Context, batch []string) (bool, error) {
	for retries := 0; ; retries++ {
		err := c.engine.catalog.AddItems(ctx, c.opts.PlaylistID, batch)
		if err == nil {
			c.logger.Info("added batch", "batch", c.batches, "tracks", len(batch))
			return true, nil
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		rl, ok := shared.AsRateLimit(err)
		if !ok {
			c.logger.Error("playlist update failed, abandoning batch", "batch", c.batches, "tracks", len(batch), "error", err)
			return false, nil
		}
		if retries >= c.opts.MaxRetries {
			c.logger.Error("max retries reached for rate limit, dropping batch", "batch", c.batches, "tracks", len(batch))
			return false, nil
		}

		wait := c.retryWait(rl.RetryAfter, retries)
		c.logger.Warn("rate limited, retrying batch", "wait", wait, "retry", retries+1, "max", c.opts.MaxRetries)
		if err := c.engine.sleep(ctx, wait); err != nil {
			return false, err
		}
	}
}

// retryWait is max(hint, MinRetryAfter) with a hint and max(BatchDelay * factor^retries, MinRetryAfter) without.
func (c *committer) retryWait(hint time.Duration, retries int) time.Duration {
	if hint > 0 {
		return max(hint, c.opts.MinRetryAfter)
	}
	backoff := float64(c.opts.BatchDelay) * math.Pow(c.opts.BackoffFactor, float64(retries))
	if math.IsInf(backoff, 0) || backoff > float64(maxRetryWait) {
		backoff = float64(maxRetryWait)
	}
	return max(time.Duration(backoff), c.opts.MinRetryAfter)
}
