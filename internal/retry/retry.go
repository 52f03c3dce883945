// Package retry implements the bounded backoff policy for failed operations.
package retry

import (
	"context"
	"time"

	"github.com/ycchou/igfetch/internal/domain"
)

// Profile describes one retry schedule. The wait before re-attempt number n
// (1-based) is Step * n, so backoff grows linearly.
type Profile struct {
	MaxAttempts int
	Step        time.Duration
}

// Connection is the intra-item profile for single network calls (profile
// fetch, item fetch, media download): 3 attempts, waiting 1s then 2s.
var Connection = Profile{MaxAttempts: 3, Step: time.Second}

// WholeItem is the profile for retrying an entire item-download operation in
// batch mode: 3 attempts, waiting 2s then 4s.
var WholeItem = Profile{MaxAttempts: 3, Step: 2 * time.Second}

// Do runs op under the profile. Only failures classified as retryable are
// re-attempted; fatal and skip-tier errors propagate immediately without
// consuming retry budget. On exhaustion the last error is surfaced. Backoff
// sleeps are cut short by context cancellation.
func Do(ctx context.Context, p Profile, op func() error) error {
	var last error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		last = op()
		if last == nil {
			return nil
		}
		if domain.Classify(last) != domain.SeverityRetryable {
			return last
		}
		if attempt == p.MaxAttempts {
			break
		}
		if err := sleep(ctx, time.Duration(attempt)*p.Step); err != nil {
			return err
		}
	}
	return last
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
