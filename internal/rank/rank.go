// Package rank maps total scores to named ranks.
package rank

import (
	"math"
	"strings"

	"github.com/verte-zerg/tokencraft/internal/model"
)

// Unbounded marks the open-ended top tier.
const Unbounded = -1

var table = []model.Rank{
	{Name: "Cadet", Min: 0, Max: 199, Icon: "🌱"},
	{Name: "Pilot", Min: 200, Max: 399, Icon: "✈️"},
	{Name: "Navigator", Min: 400, Max: 599, Icon: "🧭"},
	{Name: "Commander", Min: 600, Max: 799, Icon: "⭐"},
	{Name: "Captain", Min: 800, Max: 999, Icon: "🚀"},
	{Name: "Admiral", Min: 1000, Max: 1499, Icon: "🎖️"},
	{Name: "Galactic Legend", Min: 1500, Max: Unbounded, Icon: "🌌"},
}

// Table returns a copy of the rank table in ascending order.
func Table() []model.Rank {
	return append([]model.Rank(nil), table...)
}

func index(score float64) int {
	for i := len(table) - 1; i > 0; i-- {
		if score >= float64(table[i].Min) {
			return i
		}
	}
	return 0
}

// Get returns the rank for a score. Scores below zero map to the first rank.
func Get(score float64) model.Rank {
	return table[index(score)]
}

// Next returns the rank above the score and the points needed to reach it,
// or nil in the top tier.
func Next(score float64) *model.NextRank {
	i := index(score)
	if i == len(table)-1 {
		return nil
	}
	next := table[i+1]
	return &model.NextRank{
		Rank:         next,
		PointsNeeded: int(math.Ceil(float64(next.Min) - score)),
	}
}

// Level returns the 1-based position of the score's rank.
func Level(score float64) int {
	return index(score) + 1
}

// Progress returns the fraction of the way from the current rank to the next.
func Progress(score float64) float64 {
	i := index(score)
	if i == len(table)-1 {
		return 1
	}
	lo := float64(table[i].Min)
	hi := float64(table[i+1].Min)
	p := (score - lo) / (hi - lo)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// ProgressBar renders progress toward the next rank as width cells.
func ProgressBar(score float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(Progress(score) * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
