package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/verte-zerg/tokencraft/internal/model"
)

const (
	// DefaultBaseline is the fixed tokens-per-session reference.
	DefaultBaseline = 30000.0
	// MinBaseline is the lowest dynamic baseline accepted.
	MinBaseline = 15000.0
	// MinSessions is the sample size required for a dynamic baseline and a trend.
	MinSessions = 10

	stretchFactor = 0.90
	sanityRatio   = 0.5
)

type baselineState struct {
	sessions      []model.Session
	totalMessages int
	totalTokens   int64
	defaultValue  float64
	candidate     float64
}

// baselineStep either refines the candidate or returns a reason to fall back
// to the default.
type baselineStep struct {
	name  string
	apply func(st *baselineState) (ok bool, reason string)
}

var baselineSteps = []baselineStep{
	{name: "sample_size", apply: checkSampleSize},
	{name: "estimate", apply: estimateBestQuartile},
	{name: "floor", apply: applyFloor},
	{name: "sanity", apply: checkSanity},
	{name: "ceiling", apply: applyCeiling},
}

// EstimateBaseline derives a baseline from the user's best quartile of sessions,
// falling back to defaultValue when any step rejects the estimate.
func EstimateBaseline(sessions []model.Session, totalTokens int64, defaultValue float64) model.Baseline {
	st := &baselineState{
		sessions:     sessions,
		totalTokens:  totalTokens,
		defaultValue: defaultValue,
	}
	for _, s := range sessions {
		st.totalMessages += len(s.Messages)
	}
	for _, step := range baselineSteps {
		if ok, reason := step.apply(st); !ok {
			return model.Baseline{
				Value:  defaultValue,
				Source: model.BaselineFixed,
				Reason: step.name + ": " + reason,
			}
		}
	}
	return model.Baseline{
		Value:  math.Round(st.candidate),
		Source: model.BaselineDynamic,
	}
}

func checkSampleSize(st *baselineState) (bool, string) {
	if len(st.sessions) < MinSessions {
		return false, fmt.Sprintf("%d sessions, need %d", len(st.sessions), MinSessions)
	}
	return true, ""
}

// estimateBestQuartile spreads total tokens across sessions by message share.
func estimateBestQuartile(st *baselineState) (bool, string) {
	if st.totalMessages == 0 {
		return false, "no messages"
	}
	estimates := make([]float64, len(st.sessions))
	for i, s := range st.sessions {
		share := float64(len(s.Messages)) / float64(st.totalMessages)
		estimates[i] = share * float64(st.totalTokens)
	}
	sort.Float64s(estimates)
	n := len(estimates) / 4
	if n < 1 {
		n = 1
	}
	sum := 0.0
	for _, v := range estimates[:n] {
		sum += v
	}
	st.candidate = sum / float64(n) * stretchFactor
	return true, ""
}

func applyFloor(st *baselineState) (bool, string) {
	st.candidate = math.Max(MinBaseline, st.candidate)
	return true, ""
}

func checkSanity(st *baselineState) (bool, string) {
	avg := float64(st.totalTokens) / float64(len(st.sessions))
	if st.candidate < avg*sanityRatio {
		return false, fmt.Sprintf("estimate %.0f below half of average %.0f", st.candidate, avg)
	}
	return true, ""
}

func applyCeiling(st *baselineState) (bool, string) {
	st.candidate = math.Min(st.candidate, st.defaultValue)
	return true, ""
}
