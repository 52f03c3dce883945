// Package worker distributes item downloads across a bounded pool and routes
// outcomes through the severity classifier.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/ycchou/igfetch/internal/domain"
	"github.com/ycchou/igfetch/internal/ledger"
	"github.com/ycchou/igfetch/internal/retry"
	"github.com/ycchou/igfetch/internal/stats"
)

// Config wires a pool's collaborators.
type Config struct {
	Source    domain.MediaSource
	Ledger    *ledger.Ledger
	Stats     *stats.Aggregator
	Log       *slog.Logger
	Workers   int
	Resume    bool
	ConnRetry retry.Profile
}

// Pool runs items through the media source with bounded concurrency. A
// single pool serves one scheduler pass; outcomes land in the shared stats
// aggregator and ledger.
type Pool struct {
	source    domain.MediaSource
	ledger    *ledger.Ledger
	stats     *stats.Aggregator
	log       *slog.Logger
	workers   int
	resume    bool
	connRetry retry.Profile
}

// New creates a pool. Workers is assumed to be clamped to [1,8] by the
// configuration layer.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		source:    cfg.Source,
		ledger:    cfg.Ledger,
		stats:     cfg.Stats,
		log:       cfg.Log,
		workers:   workers,
		resume:    cfg.Resume,
		connRetry: cfg.ConnRetry,
	}
}

// RunAll processes every item and returns nil once all outcomes are
// recorded, or the first fatal error. With one worker items run strictly
// sequentially in input order; otherwise completions happen in completion
// order. Either way the pool drains its goroutines before returning.
func (p *Pool) RunAll(ctx context.Context, items []domain.Item, destDir string) error {
	if len(items) == 0 {
		return nil
	}
	if p.workers == 1 {
		return p.runSequential(ctx, items, destDir)
	}
	return p.runParallel(ctx, items, destDir)
}

func (p *Pool) runSequential(ctx context.Context, items []domain.Item, destDir string) error {
	p.log.Info("downloading sequentially", "items", len(items))
	for i := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		out := p.processItem(ctx, &items[i], destDir)
		p.record(out)
		if out.Kind == domain.OutcomeFailed && out.Severity == domain.SeverityFatal {
			return out.Err
		}
	}
	return nil
}

func (p *Pool) runParallel(ctx context.Context, items []domain.Item, destDir string) error {
	p.log.Info("downloading in parallel", "items", len(items), "workers", p.workers)

	// The first fatal outcome cancels the pool; WithCancelCause keeps
	// exactly one propagated error.
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	jobs := make(chan *domain.Item)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				// Drop queued items once cancellation is observed;
				// keep draining so the feeder never blocks.
				if runCtx.Err() != nil {
					continue
				}
				out := p.processItem(runCtx, item, destDir)
				p.record(out)
				if out.Kind == domain.OutcomeFailed && out.Severity == domain.SeverityFatal {
					cancel(out.Err)
				}
			}
		}()
	}

	for i := range items {
		select {
		case jobs <- &items[i]:
		case <-runCtx.Done():
		}
		if runCtx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if runCtx.Err() != nil {
		cause := context.Cause(runCtx)
		if cause != nil && !errors.Is(cause, context.Canceled) {
			return cause
		}
		return runCtx.Err()
	}
	return nil
}

// processItem attempts one item: ledger check, materialized-output check,
// then download under the intra-item connection retry profile.
func (p *Pool) processItem(ctx context.Context, item *domain.Item, destDir string) domain.Outcome {
	if p.resume && p.ledger.Contains(item.Key) {
		p.log.Info("skipping item recorded in progress ledger", "key", item.Key)
		return domain.Skipped(item.Key, 1, "recorded in progress ledger")
	}

	if existing, err := filepath.Glob(filepath.Join(destDir, "*"+item.Key+"*")); err == nil && len(existing) > 0 {
		p.log.Info("files already exist, skipping item", "key", item.Key, "files", len(existing))
		return domain.Skipped(item.Key, len(existing), "files already exist")
	}

	p.log.Info("downloading item", "key", item.Key, "video", item.IsVideo)
	err := retry.Do(ctx, p.connRetry, func() error {
		return p.source.Download(ctx, item, destDir)
	})
	if err != nil {
		return domain.Failed(item.Key, err)
	}

	if p.resume {
		p.ledger.Record(item.Key)
	}
	if item.IsVideo {
		return domain.Success(item.Key, 0, 1)
	}
	return domain.Success(item.Key, item.FileCount(), 0)
}

// record applies the outcome to the aggregator and emits the progress line
// from its authoritative counters.
func (p *Pool) record(out domain.Outcome) {
	p.stats.RecordOutcome(out)
	switch out.Kind {
	case domain.OutcomeFailed:
		switch out.Severity {
		case domain.SeverityFatal:
			p.log.Error("fatal error, aborting run", "key", out.Key, "error", out.Err)
		case domain.SeverityRetryable:
			p.log.Error("retries exhausted, skipping item", "key", out.Key, "error", out.Err)
		default:
			p.log.Warn("recoverable error, skipping item", "key", out.Key, "error", out.Err)
		}
	case domain.OutcomeSuccess:
		p.log.Info("item complete", "key", out.Key, "images", out.Images, "videos", out.Videos)
	}
	completed, errCount := p.stats.Snapshot()
	p.log.Debug("progress", "completed", completed, "errors", errCount)
}
