package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
	if !cfg.Resume {
		t.Error("Resume = false, want true")
	}
	if cfg.OutputDir != "downloads" {
		t.Errorf("OutputDir = %q, want downloads", cfg.OutputDir)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "igfetch.toml")
	content := `
output_dir = "/srv/media"
workers = 6
resume = false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != "/srv/media" {
		t.Errorf("OutputDir = %q, want /srv/media", cfg.OutputDir)
	}
	if cfg.Workers != 6 {
		t.Errorf("Workers = %d, want 6", cfg.Workers)
	}
	if cfg.Resume {
		t.Error("Resume = true, want false")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Workers != Default().Workers {
		t.Errorf("Workers = %d, want default %d", cfg.Workers, Default().Workers)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "igfetch.toml")
	if err := os.WriteFile(path, []byte("workers = [not toml"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want parse error")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("IGFETCH_OUTPUT_DIR", "/env/out")
	t.Setenv("IGFETCH_WORKERS", "5")
	t.Setenv("IGFETCH_RESUME", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != "/env/out" {
		t.Errorf("OutputDir = %q, want /env/out", cfg.OutputDir)
	}
	if cfg.Workers != 5 {
		t.Errorf("Workers = %d, want 5", cfg.Workers)
	}
	if cfg.Resume {
		t.Error("Resume = true, want false")
	}
}

func TestWorkerClamp(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 1},
		{-3, 1},
		{1, 1},
		{8, 8},
		{9, 8},
		{100, 8},
		{4, 4},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.SetWorkers(tt.in)
		if cfg.Workers != tt.want {
			t.Errorf("SetWorkers(%d) = %d, want %d", tt.in, cfg.Workers, tt.want)
		}
	}
}

func TestLoad_ClampsFileValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "igfetch.toml")
	if err := os.WriteFile(path, []byte("workers = 50\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Workers != MaxWorkers {
		t.Errorf("Workers = %d, want clamped to %d", cfg.Workers, MaxWorkers)
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	log := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	log.Info("hello", "key", "value")

	if stderr.Len() == 0 {
		t.Error("stderr output empty")
	}
	var entry map[string]any
	if err := json.Unmarshal(file.Bytes(), &entry); err != nil {
		t.Fatalf("file output is not JSON: %v", err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
}
