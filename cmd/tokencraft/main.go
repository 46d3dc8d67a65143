// Package main provides the CLI entrypoint for tokencraft.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tokencraft/internal/analysis"
	"github.com/verte-zerg/tokencraft/internal/config"
	"github.com/verte-zerg/tokencraft/internal/logger"
	"github.com/verte-zerg/tokencraft/internal/model"
	"github.com/verte-zerg/tokencraft/internal/report"
	"github.com/verte-zerg/tokencraft/internal/scoreui"
	"github.com/verte-zerg/tokencraft/internal/scoring"
	"github.com/verte-zerg/tokencraft/internal/store"
)

const (
	defaultMode        = report.ModeFull
	defaultTopProjects = 3
	defaultHistoryLast = 20
)

// runConfig is the resolved configuration for one invocation.
type runConfig struct {
	ClaudeDir   string
	HistoryPath string
	StatsPath   string
	MemoryPath  string
	DBPath      string
	Mode        string
	Baseline    float64
	ProjectFile string
	TopProjects int
	BarWidth    int
}

var (
	flagMode      string
	flagJSON      bool
	flagDryRun    bool
	flagClaudeDir string
	flagHistory   string
	flagStats     string
	flagMemory    string
	flagDB        string
	flagBaseline  float64
	flagVerbose   bool

	historyLast int
	viewSave    bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tokencraft",
		Short:         "Score how efficiently you work with your coding assistant",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.SetVerbose(flagVerbose)
		},
		RunE: runScoreCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagClaudeDir, "claude-dir", config.DefaultClaudeDir(), "assistant data directory")
	pf.StringVar(&flagHistory, "history", "", "history.jsonl path (default: <claude-dir>/history.jsonl)")
	pf.StringVar(&flagStats, "stats", "", "stats-cache.json path (default: <claude-dir>/stats-cache.json)")
	pf.StringVar(&flagMemory, "memory", "", "preference file path (default: <claude-dir>/memory/MEMORY.md)")
	pf.StringVar(&flagDB, "db", config.DefaultDBPath(), "snapshot database path")
	pf.Float64Var(&flagBaseline, "baseline", scoring.DefaultBaseline, "fallback tokens-per-session baseline")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.Flags().StringVar(&flagMode, "mode", defaultMode, "report mode: full, summary or quick")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "print the result as JSON")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "score without saving a snapshot")

	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newRanksCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runScoreCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	res, err := analysis.Run(cmd.Context(), st, analysisOptions(cfg, flagDryRun))
	if err != nil {
		return runError(cfg, err)
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		return report.JSON(out, res)
	}
	return report.Render(out, cfg.Mode, res, report.Options{BarWidth: cfg.BarWidth})
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous scoring runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLast, "last", defaultHistoryLast, "limit to last N runs (0 for all)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	snaps, err := st.ListSnapshots(cmd.Context(), historyLast)
	if err != nil {
		return fmt.Errorf("failed to load snapshots: %w", err)
	}
	return report.History(cmd.OutOrStdout(), snaps, report.TerminalWidth())
}

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the interactive score viewer",
		Args:  cobra.NoArgs,
		RunE:  runViewCmd,
	}
	cmd.Flags().BoolVar(&viewSave, "save", false, "save the run as a snapshot")
	return cmd
}

func runViewCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	ctx := cmd.Context()
	res, err := analysis.Run(ctx, st, analysisOptions(cfg, !viewSave))
	if err != nil {
		return runError(cfg, err)
	}
	snaps, err := st.ListSnapshots(ctx, 0)
	if err != nil {
		logger.Warn("failed to load snapshot history", "err", err)
	}
	if !res.Saved {
		snaps = append(snaps, res.Snapshot)
	}

	program := tea.NewProgram(scoreui.NewModel(res, snaps), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run score TUI: %w", err)
	}
	return nil
}

func newRanksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ranks",
		Short: "List ranks and their point ranges",
		Args:  cobra.NoArgs,
		RunE:  runRanksCmd,
	}
}

func runRanksCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	var current *model.Rank
	if latest := latestSnapshot(cmd.Context(), cfg.DBPath); latest != nil {
		current = &latest.Rank
	}
	return report.Ranks(cmd.OutOrStdout(), current)
}

// latestSnapshot returns the newest stored snapshot, or nil when none can be read.
func latestSnapshot(ctx context.Context, path string) *model.Snapshot {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	st, err := store.Open(path)
	if err != nil {
		logger.Warn("failed to open db", "path", path, "err", err)
		return nil
	}
	defer closeStore(st)
	snap, err := st.LatestSnapshot(ctx)
	if err != nil {
		logger.Warn("failed to load latest snapshot", "err", err)
		return nil
	}
	return snap
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// resolveConfig merges flags, environment, and the config file, then validates the result.
func resolveConfig(cmd *cobra.Command) (runConfig, error) {
	envPath, err := config.LoadDotEnv(config.DefaultEnvPaths())
	if err != nil {
		return runConfig{}, err
	}
	if envPath != "" {
		logger.Debug("loaded env file", "path", envPath)
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return runConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.ApplyEnv(&fileCfg); err != nil {
		return runConfig{}, err
	}
	cfg := applyConfig(cmd, fileCfg)
	if err := validateConfig(cfg); err != nil {
		return runConfig{}, err
	}
	return cfg, nil
}

func applyConfig(cmd *cobra.Command, fileCfg config.FileConfig) runConfig {
	cfg := runConfig{
		ClaudeDir:   flagClaudeDir,
		HistoryPath: flagHistory,
		StatsPath:   flagStats,
		MemoryPath:  flagMemory,
		DBPath:      flagDB,
		Mode:        flagMode,
		Baseline:    flagBaseline,
		ProjectFile: scoring.DefaultProjectFile,
		TopProjects: defaultTopProjects,
		BarWidth:    report.DefaultBarWidth,
	}
	applyStringConfig(cmd, "claude-dir", &cfg.ClaudeDir, fileCfg.Paths.ClaudeDir)
	applyStringConfig(cmd, "history", &cfg.HistoryPath, fileCfg.Paths.History)
	applyStringConfig(cmd, "stats", &cfg.StatsPath, fileCfg.Paths.Stats)
	applyStringConfig(cmd, "memory", &cfg.MemoryPath, fileCfg.Paths.Memory)
	applyStringConfig(cmd, "db", &cfg.DBPath, fileCfg.Paths.DB)
	applyStringConfig(cmd, "mode", &cfg.Mode, fileCfg.Report.Mode)
	applyFloatConfig(cmd, "baseline", &cfg.Baseline, fileCfg.Scoring.DefaultBaseline)
	applyStringConfig(cmd, "", &cfg.ProjectFile, fileCfg.Scoring.ProjectFile)
	applyIntConfig(cmd, "", &cfg.TopProjects, fileCfg.Scoring.TopProjects)
	applyIntConfig(cmd, "", &cfg.BarWidth, fileCfg.Report.BarWidth)

	if cfg.HistoryPath == "" {
		cfg.HistoryPath = config.HistoryPath(cfg.ClaudeDir)
	}
	if cfg.StatsPath == "" {
		cfg.StatsPath = config.StatsPath(cfg.ClaudeDir)
	}
	if cfg.MemoryPath == "" {
		cfg.MemoryPath = config.MemoryPath(cfg.ClaudeDir)
	}
	return cfg
}

func analysisOptions(cfg runConfig, dryRun bool) analysis.Options {
	return analysis.Options{
		HistoryPath: cfg.HistoryPath,
		StatsPath:   cfg.StatsPath,
		Workspace: scoring.FSWorkspace{
			ProjectFile:    cfg.ProjectFile,
			PreferencePath: cfg.MemoryPath,
		},
		Scoring: scoring.Options{
			DefaultBaseline: cfg.Baseline,
			TopProjects:     cfg.TopProjects,
		},
		DryRun: dryRun,
	}
}

func runError(cfg runConfig, err error) error {
	if errors.Is(err, analysis.ErrNoHistory) {
		return fmt.Errorf("%w in %s; use the assistant for a while and run again", err, cfg.HistoryPath)
	}
	if errors.Is(err, os.ErrNotExist) {
		logErrf("expected history at: %s (set --claude-dir or --history)\n", cfg.HistoryPath)
	}
	return err
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

// flagChanged reports whether name was set on the command line. Settings without a flag pass "".
func flagChanged(cmd *cobra.Command, name string) bool {
	if name == "" {
		return false
	}
	flag := cmd.Flags().Lookup(name)
	return flag != nil && flag.Changed
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tokencraft configuration
# Uncomment a value to enable it. CLI flags and TOKENCRAFT_* environment variables override config values.

[paths]
# claude-dir = %q         # Assistant data directory
# history = ""            # Interaction log (default <claude-dir>/history.jsonl)
# stats = ""              # Token usage cache (default <claude-dir>/stats-cache.json)
# memory = ""             # Preference file (default <claude-dir>/memory/MEMORY.md)
# db = %q                 # Snapshot database

[scoring]
# default-baseline = %.0f  # Tokens per session used until enough history exists
# project-file = %q       # Project configuration file looked for in top projects
# top-projects = %d         # Number of most active projects checked for the project file

[report]
# mode = %q               # full, summary or quick
# bar-width = %d           # Progress bar width
`,
		config.DefaultClaudeDir(),
		config.DefaultDBPath(),
		scoring.DefaultBaseline,
		scoring.DefaultProjectFile,
		defaultTopProjects,
		defaultMode,
		report.DefaultBarWidth,
	)
}

func validateConfig(cfg runConfig) error {
	if !report.ValidMode(cfg.Mode) {
		return fmt.Errorf("--mode must be one of full, summary, quick")
	}
	if cfg.Baseline < scoring.MinBaseline {
		return fmt.Errorf("--baseline must be >= %.0f", float64(scoring.MinBaseline))
	}
	if cfg.TopProjects < 1 {
		return fmt.Errorf("top-projects must be >= 1")
	}
	if cfg.BarWidth < 5 {
		return fmt.Errorf("bar-width must be >= 5")
	}
	if cfg.HistoryPath == "" {
		return fmt.Errorf("--history must not be empty")
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("--db must not be empty")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
