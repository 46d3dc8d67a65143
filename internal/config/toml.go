// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Paths   PathsConfig   `toml:"paths"`
	Scoring ScoringConfig `toml:"scoring"`
	Report  ReportConfig  `toml:"report"`
}

// PathsConfig maps input and storage locations.
type PathsConfig struct {
	ClaudeDir *string `toml:"claude-dir"`
	History   *string `toml:"history"`
	Stats     *string `toml:"stats"`
	Memory    *string `toml:"memory"`
	DB        *string `toml:"db"`
}

// ScoringConfig maps scoring settings.
type ScoringConfig struct {
	DefaultBaseline *float64 `toml:"default-baseline"`
	ProjectFile     *string  `toml:"project-file"`
	TopProjects     *int     `toml:"top-projects"`
}

// ReportConfig maps report output settings.
type ReportConfig struct {
	Mode     *string `toml:"mode"`
	BarWidth *int    `toml:"bar-width"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
