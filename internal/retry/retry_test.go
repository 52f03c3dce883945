package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ycchou/igfetch/internal/domain"
)

// fast returns a profile with a negligible backoff step for tests.
func fast(attempts int) Profile {
	return Profile{MaxAttempts: attempts, Step: time.Millisecond}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast(3), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_RetriesConnectionFailure(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast(3), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("fetch: %w", domain.ErrConnection)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_ExhaustionSurfacesLastError(t *testing.T) {
	calls := 0
	wrapped := fmt.Errorf("fetch: %w", domain.ErrConnection)
	err := Do(context.Background(), fast(3), func() error {
		calls++
		return wrapped
	})
	if calls != 3 {
		t.Errorf("calls = %d, want exactly 3 (no attempt beyond the limit)", calls)
	}
	if !errors.Is(err, domain.ErrConnection) {
		t.Errorf("Do() error = %v, want the original connection failure", err)
	}
}

func TestDo_FatalPropagatesImmediately(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast(3), func() error {
		calls++
		return domain.ErrTargetNotFound
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (fatal must not consume retry budget)", calls)
	}
	if !errors.Is(err, domain.ErrTargetNotFound) {
		t.Errorf("Do() error = %v, want ErrTargetNotFound", err)
	}
}

func TestDo_SkipTierPropagatesImmediately(t *testing.T) {
	calls := 0
	boom := errors.New("unexpected provider oddity")
	err := Do(context.Background(), fast(3), func() error {
		calls++
		return boom
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (skip-tier is not worth retrying)", calls)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Do() error = %v, want %v", err, boom)
	}
}

func TestDo_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := Profile{MaxAttempts: 3, Step: time.Minute}

	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, p, func() error {
			calls++
			return domain.ErrConnection
		})
	}()

	// Let the first attempt fail and the backoff start.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Do() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do() did not return after context cancellation")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
