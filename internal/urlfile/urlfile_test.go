package urlfile

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urls.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_StringEntries(t *testing.T) {
	path := writeFile(t, `urls:
  - https://www.instagram.com/p/ABC123/
  - https://www.instagram.com/reel/XYZ789/
`)

	urls, err := Load(path, testLog())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("len(urls) = %d, want 2", len(urls))
	}
	if urls[0] != "https://www.instagram.com/p/ABC123/" {
		t.Errorf("urls[0] = %q", urls[0])
	}
}

func TestLoad_MapEntries(t *testing.T) {
	path := writeFile(t, `urls:
  - url: https://www.instagram.com/p/ABC123/
    description: vacation photo
  - https://www.instagram.com/p/DEF456/
`)

	urls, err := Load(path, testLog())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("len(urls) = %d, want 2", len(urls))
	}
}

func TestLoad_SkipsForeignHosts(t *testing.T) {
	path := writeFile(t, `urls:
  - https://example.com/p/NOPE/
  - https://www.instagram.com/p/KEEP1/
  - ""
`)

	urls, err := Load(path, testLog())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(urls) != 1 {
		t.Fatalf("len(urls) = %d, want 1", len(urls))
	}
	if urls[0] != "https://www.instagram.com/p/KEEP1/" {
		t.Errorf("urls[0] = %q", urls[0])
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := writeFile(t, "urls: [unterminated\n")
	if _, err := Load(path, testLog()); err == nil {
		t.Fatal("Load() error = nil, want parse error")
	}
}

func TestLoad_MissingURLsKey(t *testing.T) {
	path := writeFile(t, "targets:\n  - alice\n")
	if _, err := Load(path, testLog()); err == nil {
		t.Fatal("Load() error = nil, want error for missing urls entry")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), testLog()); err == nil {
		t.Fatal("Load() error = nil, want read error")
	}
}
