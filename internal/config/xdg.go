// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

const appName = "tokencraft"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultClaudeDir returns the assistant's data directory.
func DefaultClaudeDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".claude"
	}
	return filepath.Join(home, ".claude")
}

// HistoryPath returns the interaction log path inside a data directory.
func HistoryPath(claudeDir string) string {
	return filepath.Join(claudeDir, "history.jsonl")
}

// StatsPath returns the token usage cache path inside a data directory.
func StatsPath(claudeDir string) string {
	return filepath.Join(claudeDir, "stats-cache.json")
}

// MemoryPath returns the preference file path inside a data directory.
func MemoryPath(claudeDir string) string {
	return filepath.Join(claudeDir, "memory", "MEMORY.md")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appName, appName+".db")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// DefaultEnvPaths returns candidate .env files, most specific first.
func DefaultEnvPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	paths = append(paths, filepath.Join(XDGConfigHome(), appName, ".env"))
	return paths
}
