// Package downloader drives batch fetch runs: it sequences sub-phases for a
// target, hands item lists to the worker pool, and assembles the final
// report.
package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ycchou/igfetch/internal/domain"
	"github.com/ycchou/igfetch/internal/ledger"
	"github.com/ycchou/igfetch/internal/retry"
	"github.com/ycchou/igfetch/internal/stats"
	"github.com/ycchou/igfetch/internal/worker"
)

// Options holds the run-wide settings, already clamped and defaulted by the
// configuration layer.
type Options struct {
	OutputDir string
	Workers   int
	Resume    bool
}

// TargetOptions selects the sub-phases and bounds for one target run.
type TargetOptions struct {
	MaxPosts       int
	IncludeStories bool
	IncludeReels   bool
}

// Downloader is the top-level orchestrator over the media source port.
type Downloader struct {
	source    domain.MediaSource
	opts      Options
	log       *slog.Logger
	connRetry retry.Profile
	itemRetry retry.Profile
}

// New creates a downloader with the standard retry profiles.
func New(source domain.MediaSource, opts Options, log *slog.Logger) *Downloader {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Downloader{
		source:    source,
		opts:      opts,
		log:       log,
		connRetry: retry.Connection,
		itemRetry: retry.WholeItem,
	}
}

// DownloadUserMedia fetches a target's media: stories first if enabled, then
// reels, then the remaining posts. Sub-phase failures are recoverable; fatal
// errors from target resolution or the post pass abort the run without
// emitting stats.
func (d *Downloader) DownloadUserMedia(ctx context.Context, username string, topts TargetOptions) (*domain.RunStats, error) {
	userDir, err := d.createTargetDirs(username)
	if err != nil {
		return nil, err
	}

	agg := stats.NewRun(username)
	led := d.loadLedger(username)
	agg.SetResumed(d.opts.Resume && led.Resumed())

	target, err := d.resolveTarget(ctx, username)
	if err != nil {
		return nil, err
	}
	d.log.Info("resolved target",
		"username", target.Username,
		"full_name", target.FullName,
		"posts", target.MediaCount,
		"followers", target.Followers)

	if topts.IncludeStories {
		images, videos, err := d.downloadStories(ctx, target, userDir)
		if err != nil {
			d.log.Warn("stories phase failed, continuing", "target", username, "error", err)
			agg.AddError()
		} else {
			agg.AddStories(images, videos)
		}
	}

	if topts.IncludeReels {
		videos, err := d.downloadReels(ctx, target, userDir, led)
		if err != nil {
			d.log.Warn("reels phase failed, continuing", "target", username, "error", err)
			agg.AddError()
		} else {
			agg.AddReels(videos)
		}
	}

	items, err := d.collectPosts(ctx, target, topts)
	if err != nil {
		return nil, fmt.Errorf("enumerate posts for %s: %w", username, err)
	}
	d.log.Info("collected posts", "target", username, "count", len(items))

	pool := worker.New(worker.Config{
		Source:    d.source,
		Ledger:    led,
		Stats:     agg,
		Log:       d.log,
		Workers:   d.opts.Workers,
		Resume:    d.opts.Resume,
		ConnRetry: d.connRetry,
	})
	if err := pool.RunAll(ctx, items, filepath.Join(userDir, "posts")); err != nil {
		return nil, err
	}

	return agg.Finalize(userDir), nil
}

// resolveTarget looks up the account under the connection retry profile;
// this operation is must-succeed, so exhaustion propagates to the caller.
func (d *Downloader) resolveTarget(ctx context.Context, username string) (*domain.TargetProfile, error) {
	var target *domain.TargetProfile
	err := retry.Do(ctx, d.connRetry, func() error {
		var err error
		target, err = d.source.ResolveTarget(ctx, username)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("resolve target %s: %w", username, err)
	}
	return target, nil
}

// downloadStories fetches the ephemeral-content sub-phase into its own
// directory. Individual item failures are logged and skipped; enumeration
// failures end the phase.
func (d *Downloader) downloadStories(ctx context.Context, target *domain.TargetProfile, userDir string) (images, videos int, err error) {
	storiesDir := filepath.Join(userDir, "stories")
	if err := os.MkdirAll(storiesDir, 0755); err != nil {
		return 0, 0, err
	}

	d.log.Info("downloading stories", "target", target.Username)
	it := d.source.Stories(ctx, target)
	for it.Next(ctx) {
		item := it.Item()
		if err := d.source.Download(ctx, item, storiesDir); err != nil {
			d.log.Warn("story item failed, continuing", "key", item.Key, "error", err)
			continue
		}
		if item.IsVideo {
			videos++
		} else {
			images++
		}
	}
	if err := it.Err(); err != nil {
		return 0, 0, err
	}

	if images+videos == 0 {
		d.log.Info("no stories available", "target", target.Username)
	}
	return images, videos, nil
}

// downloadReels walks the target's posts, picks the ones classified as
// short-form and fetches them into the reels directory, recording completions
// in the ledger. Skip-tier failures continue; fatal and exhausted-retryable
// ones end the phase.
func (d *Downloader) downloadReels(ctx context.Context, target *domain.TargetProfile, userDir string, led *ledger.Ledger) (videos int, err error) {
	reelsDir := filepath.Join(userDir, "reels")
	if err := os.MkdirAll(reelsDir, 0755); err != nil {
		return 0, err
	}

	d.log.Info("downloading reels", "target", target.Username)
	it := d.source.Items(ctx, target)
	for it.Next(ctx) {
		item := it.Item()
		if !item.IsReel() {
			continue
		}
		if d.opts.Resume && led.Contains(item.Key) {
			d.log.Info("skipping reel recorded in progress ledger", "key", item.Key)
			continue
		}
		if existing, globErr := filepath.Glob(filepath.Join(reelsDir, "*"+item.Key+"*")); globErr == nil && len(existing) > 0 {
			d.log.Info("reel files already exist, skipping", "key", item.Key)
			continue
		}

		dlErr := retry.Do(ctx, d.connRetry, func() error {
			return d.source.Download(ctx, item, reelsDir)
		})
		if dlErr != nil {
			if domain.Classify(dlErr) == domain.SeveritySkip {
				d.log.Warn("reel failed, continuing", "key", item.Key, "error", dlErr)
				continue
			}
			return videos, dlErr
		}

		videos++
		if d.opts.Resume {
			led.Record(item.Key)
		}
	}
	if err := it.Err(); err != nil {
		return videos, err
	}

	if videos == 0 {
		d.log.Info("no reels available", "target", target.Username)
	}
	return videos, nil
}

// collectPosts enumerates the remaining items for the post pass, excluding
// reels when that sub-phase already claimed them and honoring the max-count
// bound.
func (d *Downloader) collectPosts(ctx context.Context, target *domain.TargetProfile, topts TargetOptions) ([]domain.Item, error) {
	var items []domain.Item
	it := d.source.Items(ctx, target)
	for it.Next(ctx) {
		if topts.MaxPosts > 0 && len(items) >= topts.MaxPosts {
			d.log.Info("reached max post count", "max", topts.MaxPosts)
			break
		}
		item := it.Item()
		if topts.IncludeReels && item.IsReel() {
			continue
		}
		items = append(items, *item)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// createTargetDirs builds <output>/<username>/posts. Filesystem errors are
// returned untouched so callers can classify disk-full and permission cases.
func (d *Downloader) createTargetDirs(username string) (string, error) {
	userDir := filepath.Join(d.opts.OutputDir, username)
	if err := os.MkdirAll(filepath.Join(userDir, "posts"), 0755); err != nil {
		return "", err
	}
	return userDir, nil
}

func (d *Downloader) loadLedger(username string) *ledger.Ledger {
	if d.opts.Resume {
		return ledger.Load(d.opts.OutputDir, username, d.log)
	}
	return ledger.New(d.opts.OutputDir, username, d.log)
}
