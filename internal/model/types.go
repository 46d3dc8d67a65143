// Package model defines shared data structures.
package model

import "time"

// LogEntry is one record from the interaction history.
type LogEntry struct {
	SessionID string
	Display   string
	Project   string
	Timestamp time.Time
}

// Session groups the log entries sharing one session identifier.
type Session struct {
	ID        string
	Messages  []LogEntry
	Project   string
	Timestamp time.Time
}

// ModelUsage holds token counts for a single model.
type ModelUsage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
}

// TokenStats maps a model identifier to its token usage.
type TokenStats map[string]ModelUsage

// Total sums input and output tokens across every model.
func (s TokenStats) Total() int64 {
	var total int64
	for _, u := range s {
		total += u.InputTokens + u.OutputTokens
	}
	return total
}

// Baseline is the reference tokens-per-session value used for efficiency scoring.
type Baseline struct {
	Value  float64 `json:"value"`
	Source string  `json:"source"`
	Reason string  `json:"reason,omitempty"`
}

// Baseline sources.
const (
	BaselineFixed   = "fixed"
	BaselineDynamic = "dynamic"
)

// CheckResult is the outcome of one optimization-adoption heuristic.
type CheckResult struct {
	Name        string             `json:"name"`
	Title       string             `json:"title"`
	Score       float64            `json:"score"`
	MaxScore    float64            `json:"max_score"`
	Consistency float64            `json:"consistency"`
	Status      string             `json:"status,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

// SubScore is one weighted category of the total score.
type SubScore struct {
	Score       float64            `json:"score"`
	MaxScore    float64            `json:"max_score"`
	Percentage  float64            `json:"percentage"`
	Status      string             `json:"status,omitempty"`
	Consistency float64            `json:"consistency,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Labels      map[string]string  `json:"labels,omitempty"`
	Checks      []CheckResult      `json:"checks,omitempty"`
}

// Breakdown holds the five named category scores.
type Breakdown struct {
	TokenEfficiency      SubScore `json:"token_efficiency"`
	OptimizationAdoption SubScore `json:"optimization_adoption"`
	SelfSufficiency      SubScore `json:"self_sufficiency"`
	ImprovementTrend     SubScore `json:"improvement_trend"`
	BestPractices        SubScore `json:"best_practices"`
}

// ScoreBreakdown is the composite result of a scoring run.
type ScoreBreakdown struct {
	TotalScore   float64   `json:"total_score"`
	MaxPossible  float64   `json:"max_possible"`
	Percentage   float64   `json:"percentage"`
	Breakdown    Breakdown `json:"breakdown"`
	CalculatedAt time.Time `json:"calculated_at"`
}

// Profile is the per-run usage summary carried between runs.
type Profile struct {
	TotalSessions       int     `json:"total_sessions"`
	TotalMessages       int     `json:"total_messages"`
	TotalTokens         int64   `json:"total_tokens"`
	AvgTokensPerSession float64 `json:"avg_tokens_per_session"`
	Baseline            float64 `json:"baseline"`
	BaselineSource      string  `json:"baseline_source"`
	RunCount            int     `json:"run_count"`
	BestScore           float64 `json:"best_score"`
}

// Rank is an entry in the rank table. Max is -1 for the open-ended top tier.
type Rank struct {
	Name string `json:"name"`
	Min  int    `json:"min"`
	Max  int    `json:"max"`
	Icon string `json:"icon"`
}

// NextRank describes the next tier above a score.
type NextRank struct {
	Rank         Rank `json:"rank"`
	PointsNeeded int  `json:"points_needed"`
}

// Snapshot is a persisted point-in-time record of a scoring run.
type Snapshot struct {
	ID        int64          `json:"id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Profile   Profile        `json:"profile"`
	Scores    ScoreBreakdown `json:"scores"`
	Rank      Rank           `json:"rank"`
}

// CategoryDelta is the change of one sub-score between two runs.
type CategoryDelta struct {
	Name     string  `json:"name"`
	Previous float64 `json:"previous"`
	Current  float64 `json:"current"`
	Change   float64 `json:"change"`
}

// RankChange records a move between ranks.
type RankChange struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Promoted bool   `json:"promoted"`
}

// Delta compares a run with the previous snapshot.
type Delta struct {
	ScoreChange     float64         `json:"score_change"`
	AvgTokensChange float64         `json:"avg_tokens_change"`
	Categories      []CategoryDelta `json:"categories"`
	RankChange      *RankChange     `json:"rank_change,omitempty"`
	Since           time.Time       `json:"since"`
}
