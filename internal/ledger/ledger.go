// Package ledger persists per-item completion state so interrupted runs can
// resume without re-fetching.
package ledger

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileName is the sidecar file kept inside each target's output directory.
const FileName = ".download_progress.json"

type fileFormat struct {
	Username        string   `json:"username"`
	LastUpdated     string   `json:"last_updated"`
	DownloadedPosts []string `json:"downloaded_posts"`
	// Reserved for a reels-specific ledger; the writer always leaves it
	// empty but readers must honor it.
	DownloadedReels []string `json:"downloaded_reels"`
}

// Ledger is the durable record of completed item keys for one target. One
// instance per target per run; safe for concurrent use by workers.
type Ledger struct {
	mu       sync.Mutex
	username string
	path     string
	keys     map[string]struct{}
	resumed  bool
	log      *slog.Logger
}

// New returns an empty ledger for username without touching durable state,
// for runs with resume disabled.
func New(outputDir, username string, log *slog.Logger) *Ledger {
	return &Ledger{
		username: username,
		path:     filepath.Join(outputDir, username, FileName),
		keys:     make(map[string]struct{}),
		log:      log,
	}
}

// Load reads the ledger for username under outputDir. A missing, corrupt or
// unreadable file yields an empty ledger and never an error; corruption is
// logged as a warning only.
func Load(outputDir, username string, log *slog.Logger) *Ledger {
	l := New(outputDir, username, log)

	raw, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info("no progress file found, starting fresh", "target", username)
		} else {
			log.Warn("cannot read progress file, starting fresh", "path", l.path, "error", err)
		}
		return l
	}

	var data fileFormat
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Warn("progress file is corrupt, starting fresh", "path", l.path, "error", err)
		return l
	}

	// The completed set is the union of both arrays.
	for _, key := range data.DownloadedPosts {
		l.keys[key] = struct{}{}
	}
	for _, key := range data.DownloadedReels {
		l.keys[key] = struct{}{}
	}
	l.resumed = len(l.keys) > 0
	log.Info("loaded progress file", "target", username, "completed", len(l.keys))
	return l
}

// Contains reports whether key has already been completed.
func (l *Ledger) Contains(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.keys[key]
	return ok
}

// Record adds key to the completed set and persists the full set
// synchronously. A persist failure is logged and swallowed: the in-memory set
// still carries the key for the rest of the run.
func (l *Ledger) Record(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys[key] = struct{}{}
	if err := l.persistLocked(); err != nil {
		l.log.Warn("cannot save progress file", "path", l.path, "error", err)
	}
}

// persistLocked writes the set to a temp file and renames it into place, so a
// failed flush never leaves readers with a truncated file.
func (l *Ledger) persistLocked() error {
	posts := make([]string, 0, len(l.keys))
	for key := range l.keys {
		posts = append(posts, key)
	}
	sort.Strings(posts)

	data := fileFormat{
		Username:        l.username,
		LastUpdated:     time.Now().Format(time.RFC3339),
		DownloadedPosts: posts,
		DownloadedReels: []string{},
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, l.path)
}

// Len returns the number of completed keys.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

// Resumed reports whether the ledger was non-empty when loaded.
func (l *Ledger) Resumed() bool {
	return l.resumed
}
