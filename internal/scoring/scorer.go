package scoring

import (
	"time"

	"github.com/verte-zerg/tokencraft/internal/model"
)

// Options tunes a scoring run.
type Options struct {
	DefaultBaseline float64
	TopProjects     int
	Now             func() time.Time
}

// Scorer computes the weighted score for one set of sessions and token stats.
type Scorer struct {
	sessions []model.Session
	tokens   int64
	dataset  *Dataset
	checks   []Check
	opts     Options
	baseline model.Baseline
}

// NewScorer prepares a scoring run. The baseline is estimated once up front.
func NewScorer(sessions []model.Session, stats model.TokenStats, ws Workspace, opts Options) *Scorer {
	if opts.DefaultBaseline <= 0 {
		opts.DefaultBaseline = DefaultBaseline
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Scorer{
		sessions: sessions,
		tokens:   stats.Total(),
		dataset:  NewDataset(sessions, ws, opts.TopProjects),
		checks:   DefaultChecks(),
		opts:     opts,
	}
	s.baseline = EstimateBaseline(sessions, s.tokens, opts.DefaultBaseline)
	return s
}

// Baseline returns the baseline used for token efficiency.
func (s *Scorer) Baseline() model.Baseline {
	return s.baseline
}

// AvgTokensPerSession returns total tokens divided by sessions, 0 without sessions.
func (s *Scorer) AvgTokensPerSession() float64 {
	if len(s.sessions) == 0 {
		return 0
	}
	return float64(s.tokens) / float64(len(s.sessions))
}

// Profile summarizes the run for the next trend comparison.
func (s *Scorer) Profile() model.Profile {
	return model.Profile{
		TotalSessions:       len(s.sessions),
		TotalMessages:       s.dataset.TotalMessages,
		TotalTokens:         s.tokens,
		AvgTokensPerSession: round1(s.AvgTokensPerSession()),
		Baseline:            s.baseline.Value,
		BaselineSource:      s.baseline.Source,
	}
}

// Total computes every category. prev is the profile of the previous run, nil
// on the first run.
func (s *Scorer) Total(prev *model.Profile) model.ScoreBreakdown {
	avg := s.AvgTokensPerSession()
	adoption := OptimizationAdoption(s.dataset, s.checks)

	var direct model.CheckResult
	for _, c := range adoption.Checks {
		if c.Name == CheckDirectCommands {
			direct = c
		}
	}

	b := model.Breakdown{
		TokenEfficiency:      TokenEfficiency(avg, s.baseline),
		OptimizationAdoption: adoption,
		SelfSufficiency:      SelfSufficiency(direct),
		ImprovementTrend:     ImprovementTrend(len(s.sessions), avg, prev),
		BestPractices:        BestPractices(s.dataset),
	}
	total := round1(b.TokenEfficiency.Score + b.OptimizationAdoption.Score + b.SelfSufficiency.Score +
		b.ImprovementTrend.Score + b.BestPractices.Score)
	return model.ScoreBreakdown{
		TotalScore:   total,
		MaxPossible:  MaxTotal,
		Percentage:   percentage(total, MaxTotal),
		Breakdown:    b,
		CalculatedAt: s.opts.Now(),
	}
}
