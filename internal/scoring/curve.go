// Package scoring turns grouped sessions and token usage into the weighted
// efficiency score.
package scoring

import "math"

type curveSegment struct {
	from, to         float64
	fromFrac, toFrac float64
}

// Segments below 0.90, highest first. The bottom segment rises linearly from 0.
var curveSegments = []curveSegment{
	{from: 0.70, to: 0.90, fromFrac: 0.85, toFrac: 1.00},
	{from: 0.50, to: 0.70, fromFrac: 0.65, toFrac: 0.85},
	{from: 0.30, to: 0.50, fromFrac: 0.40, toFrac: 0.65},
	{from: 0.00, to: 0.30, fromFrac: 0.00, toFrac: 0.40},
}

// TierScore maps a consistency ratio to awarded points. The ratio is clamped to [0, 1].
func TierScore(ratio, maxPoints float64) float64 {
	if math.IsNaN(ratio) || ratio < 0 {
		ratio = 0
	}
	if ratio >= 0.90 {
		return maxPoints
	}
	for _, seg := range curveSegments {
		if ratio >= seg.from {
			t := (ratio - seg.from) / (seg.to - seg.from)
			return maxPoints * (seg.fromFrac + (seg.toFrac-seg.fromFrac)*t)
		}
	}
	return 0
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func percentage(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	return round1(score / maxScore * 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
