// Package cli implements the familytree command-line interface.
//
// The same binary runs the HTTP API (serve), manages the database schema
// (migrate) and works with stored trees directly: listing them, computing
// layouts and diagrams, and moving trees in and out as JSON files.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// attached to the command context and shared with the storage and pipeline
// components.
//
// # Configuration
//
// Commands read the TOML file given by --config (or FAMILYTREE_CONFIG) and
// FAMILYTREE_* environment overrides; see package config.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/familytree/pkg/config"
)

// appName is used for directories and display.
const appName = "familytree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the file named by --config or FAMILYTREE_CONFIG.
func (c *CLI) loadConfig() (config.Config, error) {
	path := c.configPath
	if path == "" {
		path = os.Getenv(config.EnvPrefix + "CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	c.Logger.Debug("loaded config", "file", path, "driver", cfg.Database.Driver, "cache", cfg.Cache.Backend)
	return cfg, nil
}

// cacheDir returns the cache directory using XDG standard (~/.cache/familytree/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
