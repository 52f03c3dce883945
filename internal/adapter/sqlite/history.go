// Package sqlite keeps a durable record of finished runs and their failed
// URLs for the history command.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ycchou/igfetch/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    username     TEXT NOT NULL,
    mode         TEXT NOT NULL,
    total_posts  INTEGER NOT NULL DEFAULT 0,
    images       INTEGER NOT NULL DEFAULT 0,
    videos       INTEGER NOT NULL DEFAULT 0,
    stories      INTEGER NOT NULL DEFAULT 0,
    reels        INTEGER NOT NULL DEFAULT 0,
    skipped      INTEGER NOT NULL DEFAULT 0,
    errors       INTEGER NOT NULL DEFAULT 0,
    resumed      INTEGER NOT NULL DEFAULT 0,
    output_dir   TEXT NOT NULL,
    started_at   DATETIME NOT NULL,
    finished_at  DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS run_failures (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id     TEXT NOT NULL REFERENCES runs(id),
    url        TEXT NOT NULL,
    error      TEXT NOT NULL,
    failed_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_failures_run ON run_failures(run_id);
`

// RunRecord is one finished run as stored in the history database.
type RunRecord struct {
	ID         string
	Username   string
	Mode       string
	TotalPosts int
	Images     int
	Videos     int
	Stories    int
	Reels      int
	Skipped    int
	Errors     int
	Resumed    bool
	OutputDir  string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store implements the run-history persistence using SQLite.
type Store struct {
	db *sql.DB
}

// Open creates the history store at dbPath, initializing the schema if
// needed.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun inserts a finished run built from stats and returns its record.
// mode is one of target, single or batch.
func (s *Store) RecordRun(ctx context.Context, stats *domain.RunStats, mode string) (*RunRecord, error) {
	rec := &RunRecord{
		ID:         uuid.NewString(),
		Username:   stats.Username,
		Mode:       mode,
		TotalPosts: stats.TotalPosts,
		Images:     stats.DownloadedImages,
		Videos:     stats.DownloadedVideos,
		Stories:    stats.StoriesDownloaded,
		Reels:      stats.ReelsDownloaded,
		Skipped:    stats.SkippedFiles,
		Errors:     stats.Errors,
		Resumed:    stats.ResumedFromPrevious,
		OutputDir:  stats.OutputDir,
		StartedAt:  stats.StartTime,
		FinishedAt: stats.EndTime,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, username, mode, total_posts, images, videos, stories, reels,
		                   skipped, errors, resumed, output_dir, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Username, rec.Mode, rec.TotalPosts, rec.Images, rec.Videos,
		rec.Stories, rec.Reels, rec.Skipped, rec.Errors, rec.Resumed,
		rec.OutputDir, rec.StartedAt, rec.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// RecordFailures stores the failed URLs of a run.
func (s *Store) RecordFailures(ctx context.Context, runID string, urls []string, reasons []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	for i, url := range urls {
		reason := ""
		if i < len(reasons) {
			reason = reasons[i]
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_failures (run_id, url, error, failed_at) VALUES (?, ?, ?, ?)`,
			runID, url, reason, now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// History returns the most recent runs, newest first, up to limit.
func (s *Store) History(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, mode, total_posts, images, videos, stories, reels,
		        skipped, errors, resumed, output_dir, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.Username, &rec.Mode, &rec.TotalPosts,
			&rec.Images, &rec.Videos, &rec.Stories, &rec.Reels, &rec.Skipped,
			&rec.Errors, &rec.Resumed, &rec.OutputDir, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Failures returns the failed URLs stored for a run.
func (s *Store) Failures(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url FROM run_failures WHERE run_id = ? ORDER BY id ASC`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}
