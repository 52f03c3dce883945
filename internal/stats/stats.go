// Package stats accumulates per-item outcomes into a final run report.
package stats

import (
	"sync"
	"time"

	"github.com/ycchou/igfetch/internal/domain"
)

// Aggregator is the thread-safe accumulator for one run. All counter
// mutations pass through a single lock; every outcome lands in exactly one
// bucket. Recording after Finalize is a programming error.
type Aggregator struct {
	mu        sync.Mutex
	username  string
	startTime time.Time
	resumed   bool
	finalized bool

	totalPosts int
	images     int
	videos     int
	skipped    int
	errors     int
	stories    int
	reels      int
	endTime    time.Time
}

// NewRun starts an aggregator for one target, stamping the start time.
func NewRun(username string) *Aggregator {
	return &Aggregator{username: username, startTime: time.Now()}
}

// RecordOutcome applies one item outcome to the counters.
func (a *Aggregator) RecordOutcome(o domain.Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalPosts++
	switch o.Kind {
	case domain.OutcomeSuccess:
		a.images += o.Images
		a.videos += o.Videos
	case domain.OutcomeSkipped:
		a.skipped += o.Skipped
	case domain.OutcomeFailed:
		if o.Err != nil {
			a.errors++
		}
	}
}

// AddStories credits the ephemeral-content sub-phase.
func (a *Aggregator) AddStories(images, videos int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stories += images + videos
}

// AddReels credits the short-form-video sub-phase.
func (a *Aggregator) AddReels(videos int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reels += videos
}

// AddError counts a failure that did not come through an item outcome, such
// as a sub-phase that was skipped after an error.
func (a *Aggregator) AddError() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errors++
}

// SetResumed marks that the progress ledger was non-empty at load time.
func (a *Aggregator) SetResumed(resumed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resumed = resumed
}

// AddTotal sets up the considered-item count ahead of a batch pass.
func (a *Aggregator) AddTotal(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalPosts += n
}

// Merge folds a sub-run's success counters into this run (batch mode). The
// batch's own total and error counters are tracked separately.
func (a *Aggregator) Merge(s *domain.RunStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.images += s.DownloadedImages
	a.videos += s.DownloadedVideos
	a.skipped += s.SkippedFiles
}

// Snapshot returns the authoritative live counters for progress display:
// (completed successes, errors). Displays must read these rather than
// re-derive counts from completion order.
func (a *Aggregator) Snapshot() (done, errors int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalPosts - a.errors, a.errors
}

// Finalize stamps the end time and freezes the report. Idempotent once
// called.
func (a *Aggregator) Finalize(outputDir string) *domain.RunStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.finalized {
		a.finalized = true
		a.endTime = time.Now()
	}
	return &domain.RunStats{
		Username:            a.username,
		TotalPosts:          a.totalPosts,
		DownloadedImages:    a.images,
		DownloadedVideos:    a.videos,
		SkippedFiles:        a.skipped,
		Errors:              a.errors,
		StoriesDownloaded:   a.stories,
		ReelsDownloaded:     a.reels,
		OutputDir:           outputDir,
		StartTime:           a.startTime,
		EndTime:             a.endTime,
		ResumedFromPrevious: a.resumed,
	}
}
