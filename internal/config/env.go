package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override config file values.
const (
	EnvClaudeDir = "TOKENCRAFT_CLAUDE_DIR"
	EnvDB        = "TOKENCRAFT_DB"
	EnvBaseline  = "TOKENCRAFT_BASELINE"
	EnvMode      = "TOKENCRAFT_MODE"
)

// LoadDotEnv loads the first existing .env file. Variables already set in the
// environment are kept. It returns the loaded path, or "" when none exists.
func LoadDotEnv(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return "", fmt.Errorf("failed to load %s: %w", path, err)
		}
		return path, nil
	}
	return "", nil
}

// ApplyEnv overlays environment variables onto the file config.
func ApplyEnv(cfg *FileConfig) error {
	if v := envString(EnvClaudeDir); v != nil {
		cfg.Paths.ClaudeDir = v
	}
	if v := envString(EnvDB); v != nil {
		cfg.Paths.DB = v
	}
	if v := envString(EnvMode); v != nil {
		cfg.Report.Mode = v
	}
	if v := envString(EnvBaseline); v != nil {
		parsed, err := strconv.ParseFloat(*v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvBaseline, *v, err)
		}
		cfg.Scoring.DefaultBaseline = &parsed
	}
	return nil
}

func envString(key string) *string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	return &v
}
