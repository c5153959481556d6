// Package store provides optional persistence for shogicore: an
// EngineConfig snapshot and a cache of parsed NNUE weight-file blobs keyed
// by file path, size and modification time, both backed by BadgerDB.
//
// Adapted from github.com/hailam/chessplay/internal/storage: the same
// platform-specific data-directory resolution and BadgerDB wrapping, but
// storing engine configuration and compressed NNUE weight blobs instead of
// user preferences and game statistics (chessplay had no equivalent to a
// multi-hundred-megabyte weight file worth caching).
package store

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "shogicore"

// DataDir returns the platform-specific data directory for the engine.
//   - macOS:   ~/Library/Application Support/shogicore/
//   - Windows: %APPDATA%/shogicore/
//   - other:   $XDG_DATA_HOME/shogicore/, or ~/.local/share/shogicore/
func DataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(home, "Library", "Application Support")
	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(home, "AppData", "Roaming")
		}
	default:
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(home, ".local", "share")
		}
	}

	dataDir := filepath.Join(baseDir, appName)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// DatabaseDir returns the directory BadgerDB should open its database in.
func DatabaseDir() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	dbDir := filepath.Join(dataDir, "db")
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return "", err
	}
	return dbDir, nil
}
