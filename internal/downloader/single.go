package downloader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/ycchou/igfetch/internal/domain"
	"github.com/ycchou/igfetch/internal/retry"
	"github.com/ycchou/igfetch/internal/stats"
	"github.com/ycchou/igfetch/internal/worker"
)

// ErrInvalidURL marks a malformed post URL. It is surfaced directly to the
// caller, never classified or retried.
var ErrInvalidURL = errors.New("invalid post URL")

var shortcodePattern = regexp.MustCompile(`instagram\.com/(?:p|reel)/([A-Za-z0-9_-]+)`)

// ExtractShortcode pulls the item key out of a post or reel URL.
func ExtractShortcode(url string) (string, error) {
	m := shortcodePattern.FindStringSubmatch(url)
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, url)
	}
	return m[1], nil
}

// DownloadPost fetches a single item by key and downloads it sequentially
// into its owner's directory.
func (d *Downloader) DownloadPost(ctx context.Context, shortcode string) (*domain.RunStats, error) {
	d.log.Info("fetching item", "key", shortcode)

	var item *domain.Item
	err := retry.Do(ctx, d.connRetry, func() error {
		var err error
		item, err = d.source.FetchItem(ctx, shortcode)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch item %s: %w", shortcode, err)
	}
	d.log.Info("item resolved", "key", shortcode, "owner", item.Owner, "video", item.IsVideo, "date", item.Date)

	userDir, err := d.createTargetDirs(item.Owner)
	if err != nil {
		return nil, err
	}

	agg := stats.NewRun(item.Owner)
	led := d.loadLedger(item.Owner)
	agg.SetResumed(d.opts.Resume && led.Resumed())

	pool := worker.New(worker.Config{
		Source:    d.source,
		Ledger:    led,
		Stats:     agg,
		Log:       d.log,
		Workers:   1,
		Resume:    d.opts.Resume,
		ConnRetry: d.connRetry,
	})
	if err := pool.RunAll(ctx, []domain.Item{*item}, filepath.Join(userDir, "posts")); err != nil {
		return nil, err
	}

	return agg.Finalize(userDir), nil
}

// DownloadFromURL extracts the shortcode from url and downloads that item.
func (d *Downloader) DownloadFromURL(ctx context.Context, url string) (*domain.RunStats, error) {
	shortcode, err := ExtractShortcode(url)
	if err != nil {
		return nil, err
	}
	return d.DownloadPost(ctx, shortcode)
}
