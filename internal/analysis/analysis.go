// Package analysis runs a full scoring pass: load, score, rank, persist.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/verte-zerg/tokencraft/internal/history"
	"github.com/verte-zerg/tokencraft/internal/logger"
	"github.com/verte-zerg/tokencraft/internal/model"
	"github.com/verte-zerg/tokencraft/internal/rank"
	"github.com/verte-zerg/tokencraft/internal/scoring"
)

// ErrNoHistory is returned when the history file holds no entries.
var ErrNoHistory = errors.New("no history entries found")

// SnapshotStore persists scoring runs between invocations.
type SnapshotStore interface {
	LatestSnapshot(ctx context.Context) (*model.Snapshot, error)
	InsertSnapshot(ctx context.Context, snap model.Snapshot) (int64, error)
}

// Options configures a run.
type Options struct {
	HistoryPath string
	StatsPath   string
	Workspace   scoring.Workspace
	Scoring     scoring.Options
	DryRun      bool
}

// Result is the outcome of a run.
type Result struct {
	Snapshot model.Snapshot
	Previous *model.Snapshot
	Delta    *model.Delta
	Next     *model.NextRank
	Baseline model.Baseline
	Skipped  int
	Saved    bool
}

// Run scores the history against the previous snapshot and saves the new one
// unless DryRun is set. A nil store keeps the run in memory.
func Run(ctx context.Context, st SnapshotStore, opts Options) (Result, error) {
	entries, skipped, err := history.LoadHistory(opts.HistoryPath)
	if err != nil {
		return Result{}, err
	}
	if skipped > 0 {
		logger.Warn("skipped malformed history lines", "count", skipped, "path", opts.HistoryPath)
	}
	if len(entries) == 0 {
		return Result{}, ErrNoHistory
	}
	sessions := history.GroupSessions(entries)
	logger.Debug("loaded history", "entries", len(entries), "sessions", len(sessions))

	stats, err := history.LoadTokenStats(opts.StatsPath)
	if err != nil {
		logger.Warn("ignoring token stats", "path", opts.StatsPath, "err", err)
	}

	var prev *model.Snapshot
	if st != nil {
		prev, err = st.LatestSnapshot(ctx)
		if err != nil {
			logger.Warn("failed to load previous snapshot", "err", err)
			prev = nil
		}
	}
	var prevProfile *model.Profile
	if prev != nil {
		p := prev.Profile
		prevProfile = &p
	}

	scorer := scoring.NewScorer(sessions, stats, opts.Workspace, opts.Scoring)
	scores := scorer.Total(prevProfile)

	profile := scorer.Profile()
	profile.RunCount = 1
	profile.BestScore = scores.TotalScore
	if prev != nil {
		profile.RunCount = prev.Profile.RunCount + 1
		profile.BestScore = max(prev.Profile.BestScore, scores.TotalScore)
	}

	res := Result{
		Snapshot: model.Snapshot{
			Timestamp: scores.CalculatedAt,
			Profile:   profile,
			Scores:    scores,
			Rank:      rank.Get(scores.TotalScore),
		},
		Previous: prev,
		Next:     rank.Next(scores.TotalScore),
		Baseline: scorer.Baseline(),
		Skipped:  skipped,
	}

	if prev != nil {
		delta := Compare(res.Snapshot, *prev)
		res.Delta = &delta
	}

	if opts.DryRun || st == nil {
		return res, nil
	}
	id, err := st.InsertSnapshot(ctx, res.Snapshot)
	if err != nil {
		return res, fmt.Errorf("failed to save snapshot: %w", err)
	}
	res.Snapshot.ID = id
	res.Saved = true
	logger.Info("saved snapshot", "id", id, "score", scores.TotalScore, "rank", res.Snapshot.Rank.Name)
	return res, nil
}
