package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tokencraft/internal/analysis"
	"github.com/verte-zerg/tokencraft/internal/model"
	"github.com/verte-zerg/tokencraft/internal/rank"
	"github.com/verte-zerg/tokencraft/internal/scoring"
)

func sampleResult() analysis.Result {
	sessions := make([]model.Session, 12)
	for i := range sessions {
		sessions[i] = model.Session{
			ID:      string(rune('a' + i)),
			Project: "/work/app",
			Messages: []model.LogEntry{
				{Display: "let's think step by step"},
				{Display: "git status"},
			},
		}
	}
	stats := model.TokenStats{"m": {InputTokens: 150000, OutputTokens: 30000}}
	now := func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	scorer := scoring.NewScorer(sessions, stats, nil, scoring.Options{Now: now})
	scores := scorer.Total(&model.Profile{AvgTokensPerSession: 16000})
	profile := scorer.Profile()
	profile.RunCount = 2
	profile.BestScore = scores.TotalScore
	return analysis.Result{
		Snapshot: model.Snapshot{
			Timestamp: now(),
			Profile:   profile,
			Scores:    scores,
			Rank:      rank.Get(scores.TotalScore),
		},
		Next:     rank.Next(scores.TotalScore),
		Baseline: scorer.Baseline(),
		Skipped:  3,
	}
}

func TestQuickLine(t *testing.T) {
	if got := QuickLine(150); got != "🌱 Cadet - 150 points (50 to Pilot)" {
		t.Fatalf("unexpected quick line: %q", got)
	}
	if got := QuickLine(1600); !strings.HasSuffix(got, "Galactic Legend - 1600 points (top rank)") {
		t.Fatalf("unexpected top-tier quick line: %q", got)
	}
}

func TestRenderModes(t *testing.T) {
	res := sampleResult()

	var full bytes.Buffer
	if err := Render(&full, ModeFull, res, Options{BarWidth: 10}); err != nil {
		t.Fatalf("render full: %v", err)
	}
	out := full.String()
	for _, want := range []string{
		"Token Craft score",
		res.Snapshot.Rank.Name,
		"Optimization checks",
		"Chain of thought",
		"Usage",
		"180,000",
		"Skipped lines",
		"vs previous 16,000",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("full report missing %q:\n%s", want, out)
		}
	}

	var summary bytes.Buffer
	if err := Render(&summary, ModeSummary, res, Options{}); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	if strings.Contains(summary.String(), "Optimization checks") {
		t.Fatalf("summary should not list checks")
	}
	if !strings.Contains(summary.String(), "Improvement trend") {
		t.Fatalf("summary missing categories:\n%s", summary.String())
	}

	var quick bytes.Buffer
	if err := Render(&quick, ModeQuick, res, Options{}); err != nil {
		t.Fatalf("render quick: %v", err)
	}
	if strings.Count(quick.String(), "\n") != 1 {
		t.Fatalf("expected one line, got %q", quick.String())
	}

	if err := Render(&quick, "loud", res, Options{}); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func withDelta(res analysis.Result) analysis.Result {
	res.Delta = &model.Delta{
		ScoreChange:     75.5,
		AvgTokensChange: -3000,
		Categories: []model.CategoryDelta{
			{Name: analysis.CategoryTokenEfficiency, Previous: 100, Current: 200, Change: 100},
			{Name: analysis.CategoryBestPractices, Previous: 20, Current: 17.5, Change: -2.5},
		},
		RankChange: &model.RankChange{From: "Pilot", To: "Navigator", Promoted: true},
		Since:      time.Date(2026, 4, 30, 9, 0, 0, 0, time.UTC),
	}
	return res
}

func TestRenderFullDelta(t *testing.T) {
	res := withDelta(sampleResult())
	var buf bytes.Buffer
	if err := Render(&buf, ModeFull, res, Options{}); err != nil {
		t.Fatalf("render full: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Since last run", "+75.5", "+100.0", "-2.5", "-3,000", "Pilot -> Navigator (promoted)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("delta section missing %q:\n%s", want, out)
		}
	}

	var plain bytes.Buffer
	if err := Render(&plain, ModeFull, sampleResult(), Options{}); err != nil {
		t.Fatalf("render full: %v", err)
	}
	if strings.Contains(plain.String(), "Since last run") {
		t.Fatalf("first run should have no delta section")
	}
}

func TestJSONDelta(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, withDelta(sampleResult())); err != nil {
		t.Fatalf("json: %v", err)
	}
	var decoded struct {
		Delta *model.Delta `json:"delta"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	d := decoded.Delta
	if d == nil || d.ScoreChange != 75.5 || len(d.Categories) != 2 || d.RankChange == nil || !d.RankChange.Promoted {
		t.Fatalf("unexpected delta: %+v", d)
	}

	buf.Reset()
	if err := JSON(&buf, sampleResult()); err != nil {
		t.Fatalf("json: %v", err)
	}
	if strings.Contains(buf.String(), `"delta"`) {
		t.Fatalf("first run should omit delta:\n%s", buf.String())
	}
}

func TestJSON(t *testing.T) {
	res := sampleResult()
	var buf bytes.Buffer
	if err := JSON(&buf, res); err != nil {
		t.Fatalf("json: %v", err)
	}
	var decoded struct {
		Scores struct {
			TotalScore  float64 `json:"total_score"`
			MaxPossible float64 `json:"max_possible"`
		} `json:"scores"`
		Rank    model.Rank `json:"rank"`
		Profile struct {
			Avg float64 `json:"avg_tokens_per_session"`
		} `json:"profile"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Scores.TotalScore != res.Snapshot.Scores.TotalScore || decoded.Scores.MaxPossible != 1000 {
		t.Fatalf("unexpected scores: %+v", decoded.Scores)
	}
	if decoded.Rank.Name != res.Snapshot.Rank.Name || decoded.Profile.Avg != 15000 {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
}

func TestHistory(t *testing.T) {
	var empty bytes.Buffer
	if err := History(&empty, nil, 80); err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(empty.String(), "No snapshots") {
		t.Fatalf("unexpected empty history: %q", empty.String())
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var snaps []model.Snapshot
	for i, score := range []float64{320, 410, 455} {
		snaps = append(snaps, model.Snapshot{
			ID:        int64(i + 1),
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Scores:    model.ScoreBreakdown{TotalScore: score},
			Rank:      rank.Get(score),
			Profile:   model.Profile{AvgTokensPerSession: 14500},
		})
	}
	if ScoreChart(snaps[:1], 80, 5) != "" {
		t.Fatalf("expected no chart for a single snapshot")
	}
	var buf bytes.Buffer
	if err := History(&buf, snaps, 80); err != nil {
		t.Fatalf("history: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Navigator", "455.0", "14,500", "total score per run"} {
		if !strings.Contains(out, want) {
			t.Fatalf("history missing %q:\n%s", want, out)
		}
	}
}

func TestRanks(t *testing.T) {
	current := rank.Get(450)
	var buf bytes.Buffer
	if err := Ranks(&buf, &current); err != nil {
		t.Fatalf("ranks: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != len(rank.Table())+1 {
		t.Fatalf("expected header plus %d ranks, got %d lines", len(rank.Table()), len(lines))
	}
	for _, line := range lines {
		marked := strings.Contains(line, "<- you")
		if marked != strings.Contains(line, "Navigator") {
			t.Fatalf("unexpected marker placement: %q", line)
		}
	}
	if !strings.Contains(buf.String(), "1500+") {
		t.Fatalf("expected open-ended top tier:\n%s", buf.String())
	}
}
