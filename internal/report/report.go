// Package report renders scoring results as plain text.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"github.com/verte-zerg/tokencraft/internal/analysis"
	"github.com/verte-zerg/tokencraft/internal/model"
	"github.com/verte-zerg/tokencraft/internal/rank"
	"github.com/verte-zerg/tokencraft/internal/scoring"
)

// Report modes.
const (
	ModeFull    = "full"
	ModeSummary = "summary"
	ModeQuick   = "quick"
)

// DefaultBarWidth is the progress bar width in cells.
const DefaultBarWidth = 20

const chartHeight = 8

// ValidMode reports whether mode names a known report layout.
func ValidMode(mode string) bool {
	switch mode {
	case ModeFull, ModeSummary, ModeQuick:
		return true
	}
	return false
}

// Options tunes text rendering.
type Options struct {
	BarWidth int
}

// Render writes res in the given mode.
func Render(w io.Writer, mode string, res analysis.Result, opts Options) error {
	var lines []string
	switch mode {
	case ModeQuick:
		lines = []string{QuickLine(res.Snapshot.Scores.TotalScore)}
	case ModeSummary:
		lines = summaryLines(res, opts)
	case ModeFull:
		lines = fullLines(res, opts)
	default:
		return fmt.Errorf("unknown report mode %q", mode)
	}
	return writeLines(w, lines)
}

// QuickLine renders the one-line rank summary.
func QuickLine(score float64) string {
	r := rank.Get(score)
	next := rank.Next(score)
	if next == nil {
		return fmt.Sprintf("%s %s - %.0f points (top rank)", r.Icon, r.Name, score)
	}
	return fmt.Sprintf("%s %s - %.0f points (%d to %s)", r.Icon, r.Name, score, next.PointsNeeded, next.Rank.Name)
}

func headerLines(res analysis.Result, opts Options) []string {
	scores := res.Snapshot.Scores
	r := res.Snapshot.Rank
	width := opts.BarWidth
	if width <= 0 {
		width = DefaultBarWidth
	}
	lines := []string{
		fmt.Sprintf("%s %s (level %d)  %.1f / %.0f (%.1f%%)",
			r.Icon, r.Name, rank.Level(scores.TotalScore), scores.TotalScore, scores.MaxPossible, scores.Percentage),
	}
	progress := "Progress " + rank.ProgressBar(scores.TotalScore, width)
	if res.Next != nil {
		progress += fmt.Sprintf("  %d points to %s %s", res.Next.PointsNeeded, res.Next.Rank.Icon, res.Next.Rank.Name)
	} else {
		progress += "  top rank reached"
	}
	return append(lines, progress)
}

func categoryRows(b model.Breakdown) [][]string {
	entries := []struct {
		name string
		sub  model.SubScore
	}{
		{"Token efficiency", b.TokenEfficiency},
		{"Optimization adoption", b.OptimizationAdoption},
		{"Self-sufficiency", b.SelfSufficiency},
		{"Improvement trend", b.ImprovementTrend},
		{"Best practices", b.BestPractices},
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.name,
			fmt.Sprintf("%.1f", e.sub.Score),
			fmt.Sprintf("%.0f", e.sub.MaxScore),
			fmt.Sprintf("%.1f%%", e.sub.Percentage),
			e.sub.Status,
		})
	}
	return rows
}

func summaryLines(res analysis.Result, opts Options) []string {
	lines := headerLines(res, opts)
	lines = append(lines, "")
	lines = append(lines, formatTable(
		[]string{"Category", "Score", "Max", "Pct", "Status"},
		categoryRows(res.Snapshot.Scores.Breakdown),
		map[int]bool{1: true, 2: true, 3: true},
	)...)
	return lines
}

func fullLines(res analysis.Result, opts Options) []string {
	lines := []string{"Token Craft score", strings.Repeat("=", 17)}
	lines = append(lines, summaryLines(res, opts)...)

	if res.Delta != nil {
		lines = append(lines, "", "Since last run ("+res.Delta.Since.Local().Format("2006-01-02 15:04")+")")
		lines = append(lines, formatTable(nil, deltaRows(*res.Delta), map[int]bool{1: true})...)
	}

	lines = append(lines, "", "Optimization checks")
	lines = append(lines, formatTable(
		[]string{"Check", "Score", "Max", "Consistency", "Status"},
		CheckRows(res.Snapshot.Scores.Breakdown.OptimizationAdoption.Checks),
		map[int]bool{1: true, 2: true, 3: true},
	)...)

	lines = append(lines, "", "Usage")
	lines = append(lines, formatTable(nil, usageRows(res), nil)...)
	return lines
}

// CheckRows formats the optimization checks as table rows.
func CheckRows(checks []model.CheckResult) [][]string {
	rows := make([][]string, 0, len(checks))
	for _, c := range checks {
		rows = append(rows, []string{
			c.Title,
			fmt.Sprintf("%.1f", c.Score),
			fmt.Sprintf("%.0f", c.MaxScore),
			fmt.Sprintf("%.1f%%", c.Consistency*100),
			c.Status,
		})
	}
	return rows
}

var categoryLabels = map[string]string{
	analysis.CategoryTokenEfficiency:      "Token efficiency",
	analysis.CategoryOptimizationAdoption: "Optimization adoption",
	analysis.CategorySelfSufficiency:      "Self-sufficiency",
	analysis.CategoryImprovementTrend:     "Improvement trend",
	analysis.CategoryBestPractices:        "Best practices",
}

func deltaRows(d model.Delta) [][]string {
	rows := [][]string{{"Total", fmt.Sprintf("%+.1f", d.ScoreChange)}}
	for _, c := range d.Categories {
		label := categoryLabels[c.Name]
		if label == "" {
			label = c.Name
		}
		rows = append(rows, []string{label, fmt.Sprintf("%+.1f", c.Change)})
	}
	rows = append(rows, []string{"Avg per session", signedComma(d.AvgTokensChange)})
	if rc := d.RankChange; rc != nil {
		verb := "demoted"
		if rc.Promoted {
			verb = "promoted"
		}
		rows = append(rows, []string{"Rank", fmt.Sprintf("%s -> %s (%s)", rc.From, rc.To, verb)})
	}
	return rows
}

func signedComma(v float64) string {
	n := int64(v)
	if n > 0 {
		return "+" + humanize.Comma(n)
	}
	return humanize.Comma(n)
}

func usageRows(res analysis.Result) [][]string {
	p := res.Snapshot.Profile
	rows := [][]string{
		{"Sessions", humanize.Comma(int64(p.TotalSessions))},
		{"Messages", humanize.Comma(int64(p.TotalMessages))},
		{"Tokens", humanize.Comma(p.TotalTokens)},
		{"Avg per session", humanize.Comma(int64(p.AvgTokensPerSession))},
		{"Baseline", baselineText(res.Baseline)},
		{"Trend", trendText(res.Snapshot.Scores.Breakdown.ImprovementTrend)},
		{"Runs", fmt.Sprintf("%d (best %.1f)", p.RunCount, p.BestScore)},
	}
	if res.Skipped > 0 {
		rows = append(rows, []string{"Skipped lines", humanize.Comma(int64(res.Skipped))})
	}
	return rows
}

func baselineText(b model.Baseline) string {
	text := fmt.Sprintf("%s (%s)", humanize.Comma(int64(b.Value)), b.Source)
	if b.Reason != "" {
		text += ": " + b.Reason
	}
	return text
}

func trendText(sub model.SubScore) string {
	switch sub.Status {
	case scoring.StatusWarmingUp:
		return fmt.Sprintf("warming up, %.0f of %.0f sessions", sub.Metrics["sessions"], sub.Metrics["sessions_needed"])
	case scoring.StatusBaseline:
		return "first run, baseline recorded"
	}
	return fmt.Sprintf("%+.1f%% vs previous %s (%s)",
		sub.Metrics["improvement_pct"], humanize.Comma(int64(sub.Metrics["previous_avg"])), sub.Status)
}

// jsonResult is the machine-readable output of a run.
type jsonResult struct {
	Scores   model.ScoreBreakdown `json:"scores"`
	Rank     model.Rank           `json:"rank"`
	Level    int                  `json:"level"`
	Next     *model.NextRank      `json:"next_rank"`
	Delta    *model.Delta         `json:"delta,omitempty"`
	Profile  model.Profile        `json:"profile"`
	Baseline model.Baseline       `json:"baseline"`
	Saved    bool                 `json:"saved"`
}

// JSON writes res as indented JSON.
func JSON(w io.Writer, res analysis.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	out := jsonResult{
		Scores:   res.Snapshot.Scores,
		Rank:     res.Snapshot.Rank,
		Level:    rank.Level(res.Snapshot.Scores.TotalScore),
		Next:     res.Next,
		Delta:    res.Delta,
		Profile:  res.Snapshot.Profile,
		Baseline: res.Baseline,
		Saved:    res.Saved,
	}
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

// History writes past snapshots as a table followed by a score chart.
func History(w io.Writer, snaps []model.Snapshot, width int) error {
	if len(snaps) == 0 {
		return writeLines(w, []string{"No snapshots recorded yet."})
	}
	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.ID),
			s.Timestamp.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%.1f", s.Scores.TotalScore),
			s.Rank.Icon + " " + s.Rank.Name,
			humanize.Comma(int64(s.Profile.AvgTokensPerSession)),
		})
	}
	lines := formatTable([]string{"ID", "Taken", "Score", "Rank", "Avg tokens"}, rows, map[int]bool{0: true, 2: true, 4: true})
	if chart := ScoreChart(snaps, width, chartHeight); chart != "" {
		lines = append(lines, "", chart)
	}
	return writeLines(w, lines)
}

// ScoreChart plots total scores over time, or returns "" with fewer than two points.
func ScoreChart(snaps []model.Snapshot, width, height int) string {
	if len(snaps) < 2 {
		return ""
	}
	data := make([]float64, len(snaps))
	for i, s := range snaps {
		data[i] = s.Scores.TotalScore
	}
	// Leave room for the axis labels.
	plotWidth := max(20, width-10)
	if height < 3 {
		height = 3
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("total score per run"),
	)
}

// Ranks writes the rank table, marking current when set.
func Ranks(w io.Writer, current *model.Rank) error {
	rows := [][]string{}
	for _, r := range rank.Table() {
		rangeText := fmt.Sprintf("%d-%d", r.Min, r.Max)
		if r.Max == rank.Unbounded {
			rangeText = fmt.Sprintf("%d+", r.Min)
		}
		marker := ""
		if current != nil && current.Name == r.Name {
			marker = "<- you"
		}
		rows = append(rows, []string{r.Icon, r.Name, rangeText, marker})
	}
	return writeLines(w, formatTable([]string{"", "Rank", "Points", ""}, rows, map[int]bool{2: true}))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
