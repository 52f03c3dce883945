package downloader

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ycchou/igfetch/internal/domain"
	"github.com/ycchou/igfetch/internal/retry"
	"github.com/ycchou/igfetch/internal/stats"
)

// FailuresFileName is the per-run failure artifact written at the output
// root in batch mode.
const FailuresFileName = "failed_downloads.json"

// FailureRecord captures one URL whose retry budget was exhausted.
type FailureRecord struct {
	URL       string `json:"url"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

type failureList struct {
	mu      sync.Mutex
	records []FailureRecord
}

func (f *failureList) add(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, FailureRecord{
		URL:       url,
		Error:     err.Error(),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (f *failureList) all() []FailureRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FailureRecord(nil), f.records...)
}

// DownloadBatch runs single-item mode for every URL under the whole-item
// retry profile. At this level every failure is recoverable: an exhausted
// URL lands in the returned failure list (persisted as a single artifact if
// non-empty) and the batch moves on.
func (d *Downloader) DownloadBatch(ctx context.Context, urls []string) (*domain.RunStats, []FailureRecord, error) {
	agg := stats.NewRun("batch_download")
	agg.AddTotal(len(urls))
	failures := &failureList{}

	d.log.Info("starting batch download", "urls", len(urls), "workers", d.opts.Workers)

	if d.opts.Workers == 1 {
		for _, url := range urls {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			d.downloadOne(ctx, url, agg, failures)
		}
	} else if err := d.batchParallel(ctx, urls, agg, failures); err != nil {
		return nil, nil, err
	}

	records := failures.all()
	if len(records) > 0 {
		d.writeFailures(records)
	}

	s := agg.Finalize(d.opts.OutputDir)
	d.log.Info("batch download complete", "succeeded", s.TotalPosts-s.Errors, "failed", s.Errors)
	return s, records, nil
}

func (d *Downloader) batchParallel(ctx context.Context, urls []string, agg *stats.Aggregator, failures *failureList) error {
	jobs := make(chan string)
	var wg sync.WaitGroup
	for w := 0; w < d.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for url := range jobs {
				if ctx.Err() != nil {
					continue
				}
				d.downloadOne(ctx, url, agg, failures)
			}
		}()
	}

	for _, url := range urls {
		select {
		case jobs <- url:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()
	return ctx.Err()
}

// downloadOne attempts one URL under the whole-item retry profile and folds
// the result into the shared counters.
func (d *Downloader) downloadOne(ctx context.Context, url string, agg *stats.Aggregator, failures *failureList) {
	var s *domain.RunStats
	err := retry.Do(ctx, d.itemRetry, func() error {
		var err error
		s, err = d.DownloadFromURL(ctx, url)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		d.log.Error("download failed after retries", "url", url, "error", err)
		failures.add(url, err)
		agg.AddError()
		return
	}
	agg.Merge(s)
}

// writeFailures persists the failure artifact once, at the end of the run.
// A write failure is logged and swallowed.
func (d *Downloader) writeFailures(records []FailureRecord) {
	payload := struct {
		FailedDownloads []FailureRecord `json:"failed_downloads"`
	}{FailedDownloads: records}

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		d.log.Warn("cannot encode failure records", "error", err)
		return
	}
	path := filepath.Join(d.opts.OutputDir, FailuresFileName)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		d.log.Warn("cannot write failure records", "path", path, "error", err)
		return
	}
	d.log.Info("recorded failed downloads", "path", path, "count", len(records))
}
