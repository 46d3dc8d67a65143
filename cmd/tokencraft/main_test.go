package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/tokencraft/internal/config"
	"github.com/verte-zerg/tokencraft/internal/report"
)

func TestApplyConfigPrecedence(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--mode", "quick", "--claude-dir", "/flag/claude"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	mode := "summary"
	dir := "/file/claude"
	baseline := 20000.0
	top := 5
	fileCfg := config.FileConfig{
		Paths:   config.PathsConfig{ClaudeDir: &dir},
		Scoring: config.ScoringConfig{DefaultBaseline: &baseline, TopProjects: &top},
		Report:  config.ReportConfig{Mode: &mode},
	}

	cfg := applyConfig(cmd, fileCfg)
	if cfg.Mode != report.ModeQuick {
		t.Fatalf("flag should win over config, got %q", cfg.Mode)
	}
	if cfg.ClaudeDir != "/flag/claude" {
		t.Fatalf("unexpected claude dir: %q", cfg.ClaudeDir)
	}
	if cfg.Baseline != 20000 || cfg.TopProjects != 5 {
		t.Fatalf("config values should apply, got %+v", cfg)
	}
	if cfg.HistoryPath != filepath.Join("/flag/claude", "history.jsonl") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath)
	}
	if cfg.BarWidth != report.DefaultBarWidth {
		t.Fatalf("unexpected bar width: %d", cfg.BarWidth)
	}
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := runConfig{
		HistoryPath: "/h",
		DBPath:      "/db",
		Mode:        report.ModeFull,
		Baseline:    30000,
		TopProjects: 3,
		BarWidth:    20,
	}
	cases := []struct {
		name   string
		mutate func(*runConfig)
		want   string
	}{
		{"mode", func(c *runConfig) { c.Mode = "loud" }, "--mode"},
		{"baseline", func(c *runConfig) { c.Baseline = 14999 }, "--baseline"},
		{"top projects", func(c *runConfig) { c.TopProjects = 0 }, "top-projects"},
		{"bar width", func(c *runConfig) { c.BarWidth = 4 }, "bar-width"},
		{"db", func(c *runConfig) { c.DBPath = "" }, "--db"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := validateConfig(cfg)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %s error, got %v", tc.want, err)
			}
		})
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("template should decode: %v", err)
	}
	if cfg.Report.Mode != nil || cfg.Paths.DB != nil {
		t.Fatalf("template values should all be commented out, got %+v", cfg)
	}
}
