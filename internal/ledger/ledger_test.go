package ledger

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()

	l := Load(dir, "alice", discard())
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
	if l.Resumed() {
		t.Error("Resumed() = true for missing file, want false")
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"truncated JSON", `{"username": "alice", "downloaded_posts": ["A`},
		{"wrong type", `["not", "an", "object"]`},
		{"empty file", ``},
		{"plain text", `hello world`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			userDir := filepath.Join(dir, "alice")
			if err := os.MkdirAll(userDir, 0755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(userDir, FileName), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			l := Load(dir, "alice", discard())
			if l.Len() != 0 {
				t.Errorf("Len() = %d, want 0 after corrupt load", l.Len())
			}
			if l.Resumed() {
				t.Error("Resumed() = true after corrupt load, want false")
			}
		})
	}
}

func TestLoad_UnionOfPostsAndReels(t *testing.T) {
	dir := t.TempDir()
	userDir := filepath.Join(dir, "alice")
	if err := os.MkdirAll(userDir, 0755); err != nil {
		t.Fatal(err)
	}
	content := `{
		"username": "alice",
		"last_updated": "2026-01-02T03:04:05Z",
		"downloaded_posts": ["ABC123", "XYZ789"],
		"downloaded_reels": ["REEL01"]
	}`
	if err := os.WriteFile(filepath.Join(userDir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	l := Load(dir, "alice", discard())
	if l.Len() != 3 {
		t.Errorf("Len() = %d, want 3", l.Len())
	}
	for _, key := range []string{"ABC123", "XYZ789", "REEL01"} {
		if !l.Contains(key) {
			t.Errorf("Contains(%q) = false, want true", key)
		}
	}
	if !l.Resumed() {
		t.Error("Resumed() = false, want true")
	}
}

func TestRecord_PersistsImmediately(t *testing.T) {
	dir := t.TempDir()

	l := Load(dir, "alice", discard())
	l.Record("NEW001")

	// A fresh load must see the key.
	reloaded := Load(dir, "alice", discard())
	if !reloaded.Contains("NEW001") {
		t.Error("reloaded ledger does not contain NEW001")
	}
}

func TestRecord_FileFormat(t *testing.T) {
	dir := t.TempDir()

	l := Load(dir, "alice", discard())
	l.Record("ZZZ")
	l.Record("AAA")

	raw, err := os.ReadFile(filepath.Join(dir, "alice", FileName))
	if err != nil {
		t.Fatalf("read progress file: %v", err)
	}

	var data struct {
		Username        string   `json:"username"`
		LastUpdated     string   `json:"last_updated"`
		DownloadedPosts []string `json:"downloaded_posts"`
		DownloadedReels []string `json:"downloaded_reels"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("progress file is not valid JSON: %v", err)
	}

	if data.Username != "alice" {
		t.Errorf("username = %q, want %q", data.Username, "alice")
	}
	if data.LastUpdated == "" {
		t.Error("last_updated is empty")
	}
	if len(data.DownloadedPosts) != 2 || data.DownloadedPosts[0] != "AAA" || data.DownloadedPosts[1] != "ZZZ" {
		t.Errorf("downloaded_posts = %v, want sorted [AAA ZZZ]", data.DownloadedPosts)
	}
	if data.DownloadedReels == nil || len(data.DownloadedReels) != 0 {
		t.Errorf("downloaded_reels = %v, want empty array", data.DownloadedReels)
	}
}

func TestRecord_PersistFailureIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	l := Load(dir, "alice", discard())

	// Make the target directory unwritable so the flush fails.
	userDir := filepath.Join(dir, "alice")
	if err := os.MkdirAll(userDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(userDir, 0555); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(userDir, 0755)

	l.Record("NEW001")

	// The in-memory set must still carry the key.
	if !l.Contains("NEW001") {
		t.Error("Contains(NEW001) = false after failed persist, want true")
	}
}

func TestRecord_ConcurrentWorkers(t *testing.T) {
	dir := t.TempDir()
	l := Load(dir, "alice", discard())

	var wg sync.WaitGroup
	keys := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	for _, key := range keys {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			l.Record(k)
		}(key)
	}
	wg.Wait()

	if l.Len() != len(keys) {
		t.Errorf("Len() = %d, want %d", l.Len(), len(keys))
	}
	reloaded := Load(dir, "alice", discard())
	if reloaded.Len() != len(keys) {
		t.Errorf("reloaded Len() = %d, want %d", reloaded.Len(), len(keys))
	}
}
