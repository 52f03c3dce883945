// Package config assembles run settings from defaults, an optional TOML
// file and environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// MaxWorkers caps the download concurrency regardless of what the user asks
// for.
const MaxWorkers = 8

// Config holds application configuration.
type Config struct {
	OutputDir string `toml:"output_dir"`
	Workers   int    `toml:"workers"`
	Resume    bool   `toml:"resume"`
	LogFile   string `toml:"log_file"`
	HistoryDB string `toml:"history_db"`
}

// Default returns the configuration used when no file or overrides are
// present.
func Default() *Config {
	return &Config{
		OutputDir: "downloads",
		Workers:   3,
		Resume:    true,
		LogFile:   "igfetch.log",
		HistoryDB: DefaultHistoryDBPath(),
	}
}

// DefaultHistoryDBPath returns the default history database path using
// XDG_CACHE_HOME.
func DefaultHistoryDBPath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "igfetch", "history.db")
}

// Load builds the configuration: defaults, then the TOML file at path if it
// exists, then IGFETCH_* environment variables. Worker counts are clamped to
// [1, MaxWorkers] before the config is returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("load config %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)
	cfg.Workers = clampWorkers(cfg.Workers)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("IGFETCH_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("IGFETCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("IGFETCH_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("IGFETCH_HISTORY_DB"); v != "" {
		cfg.HistoryDB = v
	}
	if v := os.Getenv("IGFETCH_RESUME"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Resume = b
		}
	}
}

func clampWorkers(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}

// SetWorkers applies a user-requested worker count with clamping.
func (c *Config) SetWorkers(n int) {
	c.Workers = clampWorkers(n)
}
