package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ycchou/igfetch/internal/domain"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleStats(username string) *domain.RunStats {
	return &domain.RunStats{
		Username:         username,
		TotalPosts:       10,
		DownloadedImages: 7,
		DownloadedVideos: 2,
		SkippedFiles:     1,
		Errors:           1,
		OutputDir:        "/tmp/out",
		StartTime:        time.Now().Add(-time.Minute),
		EndTime:          time.Now(),
	}
}

func TestRecordRunAndHistory(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first, err := store.RecordRun(ctx, sampleStats("alice"), "target")
	if err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if first.ID == "" {
		t.Fatal("RecordRun() returned empty ID")
	}

	// Later run must come back first.
	later := sampleStats("bob")
	later.StartTime = time.Now().Add(time.Minute)
	if _, err := store.RecordRun(ctx, later, "batch"); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	records, err := store.History(ctx, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("History() returned %d records, want 2", len(records))
	}
	if records[0].Username != "bob" {
		t.Errorf("records[0].Username = %q, want bob (newest first)", records[0].Username)
	}
	if records[1].Images != 7 {
		t.Errorf("records[1].Images = %d, want 7", records[1].Images)
	}
	if records[1].Mode != "target" {
		t.Errorf("records[1].Mode = %q, want target", records[1].Mode)
	}
}

func TestHistoryLimit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := store.RecordRun(ctx, sampleStats("alice"), "target"); err != nil {
			t.Fatalf("RecordRun() error = %v", err)
		}
	}

	records, err := store.History(ctx, 3)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 3 {
		t.Errorf("History(3) returned %d records, want 3", len(records))
	}
}

func TestRecordFailures(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rec, err := store.RecordRun(ctx, sampleStats("batch_download"), "batch")
	if err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	urls := []string{"https://www.instagram.com/p/A/", "https://www.instagram.com/p/B/"}
	reasons := []string{"connection failure", "gone"}
	if err := store.RecordFailures(ctx, rec.ID, urls, reasons); err != nil {
		t.Fatalf("RecordFailures() error = %v", err)
	}

	got, err := store.Failures(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Failures() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Failures() returned %d urls, want 2", len(got))
	}
	if got[0] != urls[0] || got[1] != urls[1] {
		t.Errorf("Failures() = %v, want %v", got, urls)
	}
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	store.Close()
}
