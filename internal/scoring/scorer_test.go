package scoring

import (
	"testing"
	"time"

	"github.com/verte-zerg/tokencraft/internal/model"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestTokenEfficiencyTiers(t *testing.T) {
	baseline := model.Baseline{Value: 18000, Source: model.BaselineDynamic}
	tests := []struct {
		avg    float64
		score  float64
		status string
	}{
		{12000, 300, StatusExcellent},
		{18000, 300, StatusExcellent},
		{21600, 200, StatusGood},
		{32400, 100, StatusAverage},
		{45000, 50, StatusNeedsWork},
		{72000, 0, StatusPoor},
	}
	for _, tt := range tests {
		sub := TokenEfficiency(tt.avg, baseline)
		if sub.Score != tt.score || sub.Status != tt.status {
			t.Errorf("avg %v: got %v %q, want %v %q", tt.avg, sub.Score, sub.Status, tt.score, tt.status)
		}
	}
	sub := TokenEfficiency(12000, baseline)
	if sub.Metrics["improvement_pct"] != 33.3 {
		t.Fatalf("expected improvement 33.3, got %v", sub.Metrics["improvement_pct"])
	}
}

func TestTokenEfficiencyNoData(t *testing.T) {
	for _, sub := range []model.SubScore{
		TokenEfficiency(0, model.Baseline{Value: 30000}),
		TokenEfficiency(12000, model.Baseline{}),
	} {
		if sub.Score != 150 || sub.Status != StatusNoData || sub.Labels["baseline_type"] != "none" {
			t.Fatalf("expected neutral no_data, got %+v", sub)
		}
	}
}

func TestImprovementTrend(t *testing.T) {
	prev := &model.Profile{AvgTokensPerSession: 20000}
	tests := []struct {
		name     string
		sessions int
		current  float64
		prev     *model.Profile
		score    float64
		status   string
	}{
		{"warming up ignores snapshot", 3, 1000, prev, 50, StatusWarmingUp},
		{"first run", 12, 17000, nil, 50, StatusBaseline},
		{"excellent capped", 12, 17000, prev, 125, StatusExcellent},
		{"good", 12, 18800, prev, 100, StatusGood},
		{"modest", 12, 19400, prev, 50, StatusModest},
		{"maintaining", 12, 19700, prev, 20, StatusMaintaining},
		{"slight degradation", 12, 20500, prev, 0, StatusSlightDegradation},
		{"significant degradation", 12, 30000, prev, 0, StatusSignificantDegradation},
		{"zero previous average", 12, 17000, &model.Profile{}, 20, StatusMaintaining},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := ImprovementTrend(tt.sessions, tt.current, tt.prev)
			if sub.Score != tt.score || sub.Status != tt.status {
				t.Fatalf("got %v %q, want %v %q", sub.Score, sub.Status, tt.score, tt.status)
			}
			if sub.MaxScore != WeightImprovementTrend {
				t.Fatalf("unexpected max score %v", sub.MaxScore)
			}
		})
	}

	sub := ImprovementTrend(12, 17000, prev)
	if sub.Metrics["tier_points"] != 150 || sub.Metrics["improvement_pct"] != 15 {
		t.Fatalf("unexpected trend metrics: %+v", sub.Metrics)
	}
}

func TestBestPractices(t *testing.T) {
	sessions := []model.Session{
		textSession("a", "/a", "hi"),
		textSession("b", "/b", "hi"),
	}
	ws := fakeWorkspace{files: map[string]bool{"/a": true}, preference: "Prefer token efficiency."}
	sub := BestPractices(NewDataset(sessions, ws, 3))
	if sub.Score != 35 {
		t.Fatalf("expected 15 + 10 + 10, got %v", sub.Score)
	}
	sub = BestPractices(NewDataset(nil, nil, 3))
	if sub.Score != 10 {
		t.Fatalf("expected tooling credit only, got %v", sub.Score)
	}
}

func assertBounds(t *testing.T, result model.ScoreBreakdown) {
	t.Helper()
	subs := map[string]model.SubScore{
		"token_efficiency":      result.Breakdown.TokenEfficiency,
		"optimization_adoption": result.Breakdown.OptimizationAdoption,
		"self_sufficiency":      result.Breakdown.SelfSufficiency,
		"improvement_trend":     result.Breakdown.ImprovementTrend,
		"best_practices":        result.Breakdown.BestPractices,
	}
	for name, sub := range subs {
		if sub.Score < 0 || sub.Score > sub.MaxScore {
			t.Fatalf("%s out of bounds: %v/%v", name, sub.Score, sub.MaxScore)
		}
	}
	if result.TotalScore < 0 || result.TotalScore > 1000 {
		t.Fatalf("total out of bounds: %v", result.TotalScore)
	}
}

func TestScorerNewUser(t *testing.T) {
	sessions := []model.Session{
		textSession("a", "/p", "hello", "thanks"),
		textSession("b", "/p", "fix the bug"),
		textSession("c", "/p", "git status"),
	}
	run := func() model.ScoreBreakdown {
		return NewScorer(sessions, model.TokenStats{}, fakeWorkspace{}, Options{Now: fixedNow}).Total(nil)
	}
	result := run()
	assertBounds(t, result)

	eff := result.Breakdown.TokenEfficiency
	if eff.Score != 150 || eff.Status != StatusNoData {
		t.Fatalf("expected no_data efficiency, got %+v", eff)
	}
	trend := result.Breakdown.ImprovementTrend
	if trend.Score != 50 || trend.Status != StatusWarmingUp {
		t.Fatalf("expected warming_up trend, got %+v", trend)
	}
	if again := run(); again.TotalScore != result.TotalScore || !again.CalculatedAt.Equal(result.CalculatedAt) {
		t.Fatalf("expected reproducible total, got %v and %v", result.TotalScore, again.TotalScore)
	}
	if result.MaxPossible != 1000 {
		t.Fatalf("unexpected max possible %v", result.MaxPossible)
	}
}

func TestScorerEstablishedUser(t *testing.T) {
	sessions := makeSessions(repeat(8, 20)...)
	stats := model.TokenStats{"model-a": {InputTokens: 200000, OutputTokens: 40000}}
	scorer := NewScorer(sessions, stats, fakeWorkspace{}, Options{Now: fixedNow})
	if scorer.AvgTokensPerSession() != 12000 {
		t.Fatalf("expected avg 12000, got %v", scorer.AvgTokensPerSession())
	}
	result := scorer.Total(&model.Profile{AvgTokensPerSession: 20000})
	assertBounds(t, result)

	eff := result.Breakdown.TokenEfficiency
	if eff.Score != 300 || eff.Status != StatusExcellent {
		t.Fatalf("expected excellent efficiency, got %+v", eff)
	}
	if result.Breakdown.ImprovementTrend.Status != StatusExcellent {
		t.Fatalf("expected excellent trend, got %+v", result.Breakdown.ImprovementTrend)
	}

	var direct model.CheckResult
	for _, c := range result.Breakdown.OptimizationAdoption.Checks {
		if c.Name == CheckDirectCommands {
			direct = c
		}
	}
	if want := round1(direct.Consistency * 200); result.Breakdown.SelfSufficiency.Score != want {
		t.Fatalf("expected linear self-sufficiency %v, got %v", want, result.Breakdown.SelfSufficiency.Score)
	}
	if len(result.Breakdown.OptimizationAdoption.Checks) != 8 {
		t.Fatalf("expected 8 checks, got %d", len(result.Breakdown.OptimizationAdoption.Checks))
	}

	profile := scorer.Profile()
	if profile.TotalSessions != 20 || profile.TotalMessages != 160 || profile.TotalTokens != 240000 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}
