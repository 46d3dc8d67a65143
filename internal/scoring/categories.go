package scoring

import (
	"strings"

	"github.com/verte-zerg/tokencraft/internal/model"
)

// Category weights. They sum to MaxTotal.
const (
	WeightTokenEfficiency      = 300.0
	WeightOptimizationAdoption = 325.0
	WeightSelfSufficiency      = 200.0
	WeightImprovementTrend     = 125.0
	WeightBestPractices        = 50.0

	MaxTotal = WeightTokenEfficiency + WeightOptimizationAdoption + WeightSelfSufficiency +
		WeightImprovementTrend + WeightBestPractices
)

// Category statuses.
const (
	StatusExcellent              = "excellent"
	StatusGood                   = "good"
	StatusAverage                = "average"
	StatusNeedsWork              = "needs_work"
	StatusPoor                   = "poor"
	StatusWarmingUp              = "warming_up"
	StatusBaseline               = "baseline"
	StatusModest                 = "modest"
	StatusMaintaining            = "maintaining"
	StatusSlightDegradation      = "slight_degradation"
	StatusSignificantDegradation = "significant_degradation"
)

type tier struct {
	limit  float64
	points float64
	status string
}

// Upper ratio limits for token efficiency; above the last limit scores 0.
var efficiencyTiers = []tier{
	{limit: 1.0, points: 300, status: StatusExcellent},
	{limit: 1.5, points: 200, status: StatusGood},
	{limit: 2.0, points: 100, status: StatusAverage},
	{limit: 3.0, points: 50, status: StatusNeedsWork},
}

// Lower improvement-percentage limits for the trend scale.
var trendTiers = []tier{
	{limit: 10, points: 150, status: StatusExcellent},
	{limit: 5, points: 100, status: StatusGood},
	{limit: 2, points: 50, status: StatusModest},
	{limit: 0, points: 20, status: StatusMaintaining},
	{limit: -5, points: 0, status: StatusSlightDegradation},
}

const (
	warmupPoints            = 50.0
	bestPracticesFilePoints = 30.0
	bestPracticesPrefPoints = 10.0
	bestPracticesToolPoints = 10.0
)

func subScore(score, maxScore float64, status string) model.SubScore {
	score = round1(clamp(score, 0, maxScore))
	return model.SubScore{
		Score:      score,
		MaxScore:   maxScore,
		Percentage: percentage(score, maxScore),
		Status:     status,
		Metrics:    map[string]float64{},
		Labels:     map[string]string{},
	}
}

// TokenEfficiency scores average tokens per session against the baseline in
// discrete tiers. A zero average or baseline gets half credit tagged no_data.
func TokenEfficiency(avg float64, baseline model.Baseline) model.SubScore {
	if avg <= 0 || baseline.Value <= 0 {
		sub := subScore(WeightTokenEfficiency/2, WeightTokenEfficiency, StatusNoData)
		sub.Labels["baseline_type"] = "none"
		return sub
	}
	ratio := avg / baseline.Value
	points, status := 0.0, StatusPoor
	for _, t := range efficiencyTiers {
		if ratio <= t.limit {
			points, status = t.points, t.status
			break
		}
	}
	sub := subScore(points, WeightTokenEfficiency, status)
	sub.Metrics["ratio"] = ratio
	sub.Metrics["avg_tokens_per_session"] = round1(avg)
	sub.Metrics["baseline"] = baseline.Value
	sub.Metrics["improvement_pct"] = round1((baseline.Value - avg) / baseline.Value * 100)
	sub.Labels["baseline_type"] = baseline.Source
	if baseline.Reason != "" {
		sub.Labels["baseline_reason"] = baseline.Reason
	}
	return sub
}

// OptimizationAdoption runs the checks and sums their points.
func OptimizationAdoption(d *Dataset, checks []Check) model.SubScore {
	results := make([]model.CheckResult, 0, len(checks))
	total := 0.0
	for _, c := range checks {
		res := c.Evaluate(d)
		total += res.Score
		results = append(results, res)
	}
	sub := subScore(total, WeightOptimizationAdoption, StatusScored)
	sub.Checks = results
	return sub
}

// SelfSufficiency scales the direct-commands consistency linearly to its weight.
func SelfSufficiency(direct model.CheckResult) model.SubScore {
	sub := subScore(direct.Consistency*WeightSelfSufficiency, WeightSelfSufficiency, direct.Status)
	sub.Consistency = direct.Consistency
	for _, k := range []string{"opportunities", "direct_commands", "ai_commands"} {
		sub.Metrics[k] = direct.Metrics[k]
	}
	return sub
}

// ImprovementTrend compares the current average with the previous run's profile.
// Fewer than MinSessions sessions always yields the warm-up score.
func ImprovementTrend(sessions int, currentAvg float64, prev *model.Profile) model.SubScore {
	if sessions < MinSessions {
		sub := subScore(warmupPoints, WeightImprovementTrend, StatusWarmingUp)
		sub.Metrics["sessions"] = float64(sessions)
		sub.Metrics["sessions_needed"] = float64(MinSessions)
		sub.Metrics["percentage_complete"] = round1(float64(sessions) / MinSessions * 100)
		return sub
	}
	if prev == nil {
		sub := subScore(warmupPoints, WeightImprovementTrend, StatusBaseline)
		sub.Metrics["avg_tokens_per_session"] = round1(currentAvg)
		return sub
	}

	improvement := 0.0
	if prev.AvgTokensPerSession > 0 {
		improvement = (prev.AvgTokensPerSession - currentAvg) / prev.AvgTokensPerSession * 100
	}
	points, status := 0.0, StatusSignificantDegradation
	for _, t := range trendTiers {
		if improvement >= t.limit {
			points, status = t.points, t.status
			break
		}
	}
	// The top tier exceeds the category weight; the awarded score is capped.
	sub := subScore(points, WeightImprovementTrend, status)
	sub.Metrics["tier_points"] = points
	sub.Metrics["improvement_pct"] = round1(improvement)
	sub.Metrics["previous_avg"] = round1(prev.AvgTokensPerSession)
	sub.Metrics["current_avg"] = round1(currentAvg)
	if prev.AvgTokensPerSession <= 0 {
		sub.Labels["comparison"] = "no_previous_average"
	}
	return sub
}

// BestPractices combines project file coverage, an optimization-minded
// preference file, and a flat credit for running this tool.
func BestPractices(d *Dataset) model.SubScore {
	withFile, top := d.projectFileCoverage()
	denom := top
	if denom < 1 {
		denom = 1
	}
	filePoints := float64(withFile) / float64(denom) * bestPracticesFilePoints
	prefPoints := 0.0
	if d.hasPreference && containsAny(strings.ToLower(d.preference), optimizePhrases) {
		prefPoints = bestPracticesPrefPoints
	}
	sub := subScore(filePoints+prefPoints+bestPracticesToolPoints, WeightBestPractices, StatusScored)
	sub.Metrics["project_file_points"] = round1(filePoints)
	sub.Metrics["preference_points"] = prefPoints
	sub.Metrics["tooling_points"] = bestPracticesToolPoints
	return sub
}
