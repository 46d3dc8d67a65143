package analysis

import (
	"math"

	"github.com/verte-zerg/tokencraft/internal/model"
)

// Category keys, in report order.
const (
	CategoryTokenEfficiency      = "token_efficiency"
	CategoryOptimizationAdoption = "optimization_adoption"
	CategorySelfSufficiency      = "self_sufficiency"
	CategoryImprovementTrend     = "improvement_trend"
	CategoryBestPractices        = "best_practices"
)

var categories = []struct {
	name string
	get  func(model.Breakdown) model.SubScore
}{
	{CategoryTokenEfficiency, func(b model.Breakdown) model.SubScore { return b.TokenEfficiency }},
	{CategoryOptimizationAdoption, func(b model.Breakdown) model.SubScore { return b.OptimizationAdoption }},
	{CategorySelfSufficiency, func(b model.Breakdown) model.SubScore { return b.SelfSufficiency }},
	{CategoryImprovementTrend, func(b model.Breakdown) model.SubScore { return b.ImprovementTrend }},
	{CategoryBestPractices, func(b model.Breakdown) model.SubScore { return b.BestPractices }},
}

// Compare computes the change from previous to current. RankChange is nil when
// the rank did not move.
func Compare(current, previous model.Snapshot) model.Delta {
	d := model.Delta{
		ScoreChange:     round1(current.Scores.TotalScore - previous.Scores.TotalScore),
		AvgTokensChange: round1(current.Profile.AvgTokensPerSession - previous.Profile.AvgTokensPerSession),
		Categories:      make([]model.CategoryDelta, 0, len(categories)),
		Since:           previous.Timestamp,
	}
	for _, c := range categories {
		prev := c.get(previous.Scores.Breakdown).Score
		cur := c.get(current.Scores.Breakdown).Score
		d.Categories = append(d.Categories, model.CategoryDelta{
			Name:     c.name,
			Previous: prev,
			Current:  cur,
			Change:   round1(cur - prev),
		})
	}
	if current.Rank.Name != previous.Rank.Name {
		d.RankChange = &model.RankChange{
			From:     previous.Rank.Name,
			To:       current.Rank.Name,
			Promoted: current.Rank.Min > previous.Rank.Min,
		}
	}
	return d
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
