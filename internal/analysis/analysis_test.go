package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tokencraft/internal/scoring"
	"github.com/verte-zerg/tokencraft/internal/store"
)

func writeHistory(t *testing.T, dir string, sessions, perSession int) string {
	t.Helper()
	var b strings.Builder
	for s := 0; s < sessions; s++ {
		for m := 0; m < perSession; m++ {
			fmt.Fprintf(&b, `{"sessionId":"s%d","display":"step %d of the task","project":%q,"timestamp":%d}`+"\n",
				s, m, filepath.Join(dir, "proj"), 1700000000000+int64(s*1000+m))
		}
	}
	b.WriteString("garbage line\n")
	path := filepath.Join(dir, "history.jsonl")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write history: %v", err)
	}
	return path
}

func writeStats(t *testing.T, dir string, tokens int) string {
	t.Helper()
	path := filepath.Join(dir, "stats-cache.json")
	data := fmt.Sprintf(`{"modelUsage":{"model-a":{"inputTokens":%d,"outputTokens":0}}}`, tokens)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write stats: %v", err)
	}
	return path
}

func testOptions(dir, historyPath, statsPath string) Options {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return Options{
		HistoryPath: historyPath,
		StatsPath:   statsPath,
		Workspace:   scoring.FSWorkspace{PreferencePath: filepath.Join(dir, "MEMORY.md")},
		Scoring: scoring.Options{
			Now: func() time.Time {
				now = now.Add(time.Hour)
				return now
			},
		},
	}
}

func TestRunPersistsAndTrends(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "tokencraft.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	ctx := context.Background()

	historyPath := writeHistory(t, dir, 12, 6)
	opts := testOptions(dir, historyPath, writeStats(t, dir, 12*20000))

	first, err := Run(ctx, st, opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !first.Saved || first.Snapshot.ID == 0 {
		t.Fatalf("expected first run to be saved, got %+v", first)
	}
	if first.Skipped != 1 {
		t.Fatalf("expected 1 skipped line, got %d", first.Skipped)
	}
	if first.Previous != nil || first.Delta != nil {
		t.Fatalf("expected no previous snapshot or delta")
	}
	if got := first.Snapshot.Scores.Breakdown.ImprovementTrend.Status; got != scoring.StatusBaseline {
		t.Fatalf("expected baseline trend on first run, got %q", got)
	}
	if first.Snapshot.Profile.AvgTokensPerSession != 20000 || first.Snapshot.Profile.RunCount != 1 {
		t.Fatalf("unexpected profile: %+v", first.Snapshot.Profile)
	}

	opts.StatsPath = writeStats(t, dir, 12*17000)
	second, err := Run(ctx, st, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Previous == nil || second.Previous.ID != first.Snapshot.ID {
		t.Fatalf("expected previous snapshot %d, got %+v", first.Snapshot.ID, second.Previous)
	}
	if second.Delta == nil {
		t.Fatalf("expected delta against the first run")
	}
	if second.Delta.AvgTokensChange != -3000 {
		t.Fatalf("unexpected avg change: %v", second.Delta.AvgTokensChange)
	}
	wantChange := second.Snapshot.Scores.TotalScore - first.Snapshot.Scores.TotalScore
	if diff := second.Delta.ScoreChange - wantChange; diff > 0.05 || diff < -0.05 {
		t.Fatalf("score change %v, want %v", second.Delta.ScoreChange, wantChange)
	}
	trend := second.Snapshot.Scores.Breakdown.ImprovementTrend
	if trend.Status != scoring.StatusExcellent || trend.Score != scoring.WeightImprovementTrend {
		t.Fatalf("expected excellent capped trend, got %+v", trend)
	}
	if second.Snapshot.Profile.RunCount != 2 {
		t.Fatalf("expected run count 2, got %d", second.Snapshot.Profile.RunCount)
	}
	if second.Snapshot.Profile.BestScore < first.Snapshot.Scores.TotalScore {
		t.Fatalf("best score regressed: %v", second.Snapshot.Profile.BestScore)
	}

	list, err := st.ListSnapshots(ctx, 0)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 stored snapshots, got %d", len(list))
	}
	if list[1].Rank.Name != second.Snapshot.Rank.Name {
		t.Fatalf("rank not persisted: %q vs %q", list[1].Rank.Name, second.Snapshot.Rank.Name)
	}
}

func TestRunDryRunDoesNotSave(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "tokencraft.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	opts := testOptions(dir, writeHistory(t, dir, 3, 2), filepath.Join(dir, "missing.json"))
	opts.DryRun = true

	res, err := Run(context.Background(), st, opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Saved {
		t.Fatalf("dry run should not save")
	}
	if res.Snapshot.Scores.Breakdown.TokenEfficiency.Status != scoring.StatusNoData {
		t.Fatalf("expected no_data efficiency without stats")
	}
	latest, err := st.LatestSnapshot(context.Background())
	if err != nil || latest != nil {
		t.Fatalf("expected empty store, got %+v, %v", latest, err)
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Run(context.Background(), nil, Options{HistoryPath: filepath.Join(dir, "missing.jsonl")})
	if err == nil {
		t.Fatalf("expected error for missing history")
	}

	empty := filepath.Join(dir, "empty.jsonl")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err = Run(context.Background(), nil, Options{HistoryPath: empty})
	if !errors.Is(err, ErrNoHistory) {
		t.Fatalf("expected ErrNoHistory, got %v", err)
	}
}
