// Package scoreui provides the Bubble Tea score viewer.
package scoreui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/tokencraft/internal/analysis"
	"github.com/verte-zerg/tokencraft/internal/model"
	"github.com/verte-zerg/tokencraft/internal/rank"
	"github.com/verte-zerg/tokencraft/internal/report"
)

const (
	tabOverview = iota
	tabChecks
	tabTrend
)

const barWidth = 30

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	rankStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

// Model implements the Bubble Tea score viewer.
type Model struct {
	res     analysis.Result
	history []model.Snapshot

	tabs       []string
	activeTab  int
	viewports  []viewport.Model
	checkTable table.Model

	width  int
	height int
}

// NewModel constructs the viewer for a run and the stored snapshot history.
func NewModel(res analysis.Result, history []model.Snapshot) *Model {
	m := &Model{
		res:     res,
		history: history,
		tabs:    []string{"Overview", "Checks", "Trend"},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.checkTable = buildCheckTable(res.Snapshot.Scores.Breakdown.OptimizationAdoption.Checks, 0, 1)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "g", "home":
			if m.activeTab == tabChecks {
				m.checkTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabChecks {
				m.checkTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabChecks {
				var cmd tea.Cmd
				m.checkTable, cmd = m.checkTable.Update(msg)
				return m, cmd
			}
			var cmd tea.Cmd
			m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Quit: q"), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.checkTable.SetWidth(m.width)
	m.checkTable.SetHeight(max(1, bodyHeight-1))
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabChecks {
		m.checkTable.Focus()
	} else {
		m.checkTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	summary := headerStyle.Render(truncateLine(report.QuickLine(m.res.Snapshot.Scores.TotalScore), m.width))
	return tabs + "\n" + padLine(summary, m.width)
}

func (m *Model) renderBody() string {
	if m.activeTab == tabChecks {
		if len(m.res.Snapshot.Scores.Breakdown.OptimizationAdoption.Checks) == 0 {
			return "No checks evaluated."
		}
		return tableMutedStyle.Render(m.checkTable.View())
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) renderTabContents() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.res, width))
	m.viewports[tabTrend].SetContent(renderTrend(m.history, width))
}

func renderOverview(res analysis.Result, width int) string {
	scores := res.Snapshot.Scores
	r := res.Snapshot.Rank
	title := rankStyle.Render(fmt.Sprintf("%s %s", r.Icon, r.Name)) +
		fmt.Sprintf("  level %d  %s", rank.Level(scores.TotalScore), rank.ProgressBar(scores.TotalScore, barWidth))

	b := scores.Breakdown
	cards := []string{
		metricCard("Total", fmt.Sprintf("%.1f / %.0f", scores.TotalScore, scores.MaxPossible)),
		metricCard("Efficiency", subText(b.TokenEfficiency)),
		metricCard("Adoption", subText(b.OptimizationAdoption)),
		metricCard("Self-sufficiency", subText(b.SelfSufficiency)),
		metricCard("Trend", subText(b.ImprovementTrend)),
		metricCard("Best practices", subText(b.BestPractices)),
	}
	var grid string
	if width < 80 {
		grid = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
		grid = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}

	p := res.Snapshot.Profile
	usage := fmt.Sprintf("Sessions %s  Messages %s  Tokens %s  Avg/session %s  Baseline %s (%s)",
		humanize.Comma(int64(p.TotalSessions)),
		humanize.Comma(int64(p.TotalMessages)),
		humanize.Comma(p.TotalTokens),
		humanize.Comma(int64(p.AvgTokensPerSession)),
		humanize.Comma(int64(res.Baseline.Value)),
		res.Baseline.Source,
	)
	parts := []string{title, "", grid, "", headerStyle.Render(usage)}
	if d := res.Delta; d != nil {
		change := fmt.Sprintf("Since last run %+.1f points", d.ScoreChange)
		if d.RankChange != nil {
			change += fmt.Sprintf("  %s -> %s", d.RankChange.From, d.RankChange.To)
		}
		parts = append(parts, headerStyle.Render(change))
	}
	return strings.Join(parts, "\n")
}

func subText(sub model.SubScore) string {
	return fmt.Sprintf("%.1f / %.0f  %s", sub.Score, sub.MaxScore, sub.Status)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderTrend(history []model.Snapshot, width int) string {
	if len(history) < 2 {
		return "Run tokencraft at least twice to see a trend."
	}
	var buf strings.Builder
	if err := report.History(&buf, history, width); err != nil {
		return fmt.Sprintf("Failed to render history: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func buildCheckTable(checks []model.CheckResult, width, height int) table.Model {
	columns := []table.Column{
		{Title: "Check", Width: 20},
		{Title: "Score", Width: 7},
		{Title: "Max", Width: 5},
		{Title: "Consistency", Width: 12},
		{Title: "Status", Width: 10},
	}
	rows := make([]table.Row, 0, len(checks))
	for _, cells := range report.CheckRows(checks) {
		rows = append(rows, table.Row(cells))
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(max(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(checkTableStyles())
	return t
}

func checkTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
