package scoring

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/verte-zerg/tokencraft/internal/model"
)

// Check statuses.
const (
	StatusScored = "scored"
	StatusNoData = "no_data"
)

const (
	defaultTopProjects      = 3
	opportunitiesPerSession = 2
	conciseMessageLength    = 200
)

var (
	docPhrases      = []string{"readme", "documentation", "comment", "docstring", "docs"}
	deferPhrases    = []string{"defer", "later", "skip", "wait", "after"}
	concisePhrases  = []string{"concise", "brief", "short"}
	directPhrases   = []string{"git log", "git status", "cat ", "ls ", "grep ", "show me"}
	xmlPhrases      = []string{"<document>", "<task>", "<context>", "<example>", "<input>", "<output>", "</"}
	thoughtPhrases  = []string{"let's think", "step by step", "reasoning:", "because", "first", "then", "therefore", "analyze"}
	examplePhrases  = []string{"for example", "e.g.", "such as", "like this:", "here's an example", "example:"}
	optimizePhrases = []string{"optimization", "defer", "efficiency", "token", "concise"}
)

// Check names.
const (
	CheckDeferDocs      = "defer_docs"
	CheckProjectFile    = "claude_md"
	CheckConciseMode    = "concise_mode"
	CheckDirectCommands = "direct_commands"
	CheckContextMgmt    = "context_mgmt"
	CheckXMLTags        = "xml_tags"
	CheckChainOfThought = "chain_of_thought"
	CheckExamples       = "examples"
)

const (
	contextMinMessages = 5.0
	contextMaxMessages = 15.0
	contextDecayRange  = 50.0
)

// Dataset is the read-only input shared by every check.
type Dataset struct {
	Sessions      []model.Session
	TotalMessages int
	TopProjects   int
	Workspace     Workspace

	preference    string
	hasPreference bool
}

// NewDataset prepares the check input. A nil workspace finds no files.
func NewDataset(sessions []model.Session, ws Workspace, topProjects int) *Dataset {
	if topProjects <= 0 {
		topProjects = defaultTopProjects
	}
	d := &Dataset{
		Sessions:    sessions,
		TopProjects: topProjects,
		Workspace:   ws,
	}
	for _, s := range sessions {
		d.TotalMessages += len(s.Messages)
	}
	if ws != nil {
		d.preference, d.hasPreference = ws.PreferenceText()
	}
	return d
}

// topProjects returns the most used projects by session count; ties keep first appearance.
func (d *Dataset) topProjects() []string {
	counts := map[string]int{}
	var order []string
	for _, s := range d.Sessions {
		if _, ok := counts[s.Project]; !ok {
			order = append(order, s.Project)
		}
		counts[s.Project]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > d.TopProjects {
		order = order[:d.TopProjects]
	}
	return order
}

// projectFileCoverage returns how many top projects carry the configuration file.
func (d *Dataset) projectFileCoverage() (withFile, top int) {
	projects := d.topProjects()
	for _, p := range projects {
		if d.Workspace != nil && d.Workspace.HasProjectFile(p) {
			withFile++
		}
	}
	return withFile, len(projects)
}

// Check is one optimization-adoption heuristic.
type Check interface {
	Name() string
	Evaluate(d *Dataset) model.CheckResult
}

// DefaultChecks returns the eight optimization-adoption checks, 325 points in total.
func DefaultChecks() []Check {
	return []Check{
		deferDocsCheck{maxPoints: 50},
		projectFileCheck{maxPoints: 50},
		conciseCheck{maxPoints: 40},
		directCommandsCheck{maxPoints: 60},
		contextCheck{maxPoints: 50},
		keywordCheck{name: CheckXMLTags, title: "XML tags", maxPoints: 20, phrases: xmlPhrases, caseSensitive: true},
		keywordCheck{name: CheckChainOfThought, title: "Chain of thought", maxPoints: 30, phrases: thoughtPhrases},
		keywordCheck{name: CheckExamples, title: "Examples", maxPoints: 25, phrases: examplePhrases},
	}
}

func newResult(name, title string, consistency, maxPoints float64) model.CheckResult {
	consistency = clamp(consistency, 0, 1)
	return model.CheckResult{
		Name:        name,
		Title:       title,
		Score:       round1(TierScore(consistency, maxPoints)),
		MaxScore:    maxPoints,
		Consistency: consistency,
		Status:      StatusScored,
		Metrics:     map[string]float64{},
	}
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func sessionMatches(s model.Session, phrases []string, caseSensitive bool) bool {
	for _, m := range s.Messages {
		text := m.Display
		if !caseSensitive {
			text = strings.ToLower(text)
		}
		if containsAny(text, phrases) {
			return true
		}
	}
	return false
}

// keywordCheck scores the share of sessions with at least one message containing a phrase.
type keywordCheck struct {
	name          string
	title         string
	maxPoints     float64
	phrases       []string
	caseSensitive bool
}

func (c keywordCheck) Name() string { return c.name }

func (c keywordCheck) Evaluate(d *Dataset) model.CheckResult {
	matched := 0
	for _, s := range d.Sessions {
		if sessionMatches(s, c.phrases, c.caseSensitive) {
			matched++
		}
	}
	consistency := 0.0
	if len(d.Sessions) > 0 {
		consistency = float64(matched) / float64(len(d.Sessions))
	}
	res := newResult(c.name, c.title, consistency, c.maxPoints)
	if len(d.Sessions) == 0 {
		res.Status = StatusNoData
	}
	res.Metrics["sessions_matched"] = float64(matched)
	res.Metrics["total_sessions"] = float64(len(d.Sessions))
	return res
}

// deferDocsCheck scores how often documentation requests are deferred.
type deferDocsCheck struct {
	maxPoints float64
}

func (c deferDocsCheck) Name() string { return CheckDeferDocs }

func (c deferDocsCheck) Evaluate(d *Dataset) model.CheckResult {
	docSessions, deferred := 0, 0
	for _, s := range d.Sessions {
		if !sessionMatches(s, docPhrases, false) {
			continue
		}
		docSessions++
		if sessionMatches(s, deferPhrases, false) {
			deferred++
		}
	}
	consistency := 0.5
	if docSessions > 0 {
		consistency = float64(deferred) / float64(docSessions)
	}
	res := newResult(CheckDeferDocs, "Defer documentation", consistency, c.maxPoints)
	if docSessions == 0 {
		res.Status = StatusNoData
	}
	res.Metrics["opportunities"] = float64(docSessions)
	res.Metrics["used"] = float64(deferred)
	return res
}

// projectFileCheck scores configuration file coverage in the top projects.
type projectFileCheck struct {
	maxPoints float64
}

func (c projectFileCheck) Name() string { return CheckProjectFile }

func (c projectFileCheck) Evaluate(d *Dataset) model.CheckResult {
	withFile, top := d.projectFileCoverage()
	consistency := 0.0
	if top > 0 {
		consistency = float64(withFile) / float64(top)
	}
	res := newResult(CheckProjectFile, "Project CLAUDE.md", consistency, c.maxPoints)
	if top == 0 {
		res.Status = StatusNoData
	}
	res.Metrics["top_projects"] = float64(top)
	res.Metrics["with_project_file"] = float64(withFile)
	return res
}

// conciseCheck is binary: a concise preference or short messages score full consistency.
type conciseCheck struct {
	maxPoints float64
}

func (c conciseCheck) Name() string { return CheckConciseMode }

func (c conciseCheck) Evaluate(d *Dataset) model.CheckResult {
	preferred := d.hasPreference && containsAny(strings.ToLower(d.preference), concisePhrases)
	avgLen := 0.0
	if d.TotalMessages > 0 {
		chars := 0
		for _, s := range d.Sessions {
			for _, m := range s.Messages {
				chars += utf8.RuneCountInString(m.Display)
			}
		}
		avgLen = float64(chars) / float64(d.TotalMessages)
		if avgLen < conciseMessageLength {
			preferred = true
		}
	}
	consistency := 0.3
	if preferred {
		consistency = 1.0
	}
	res := newResult(CheckConciseMode, "Concise mode", consistency, c.maxPoints)
	res.Metrics["avg_message_length"] = round1(avgLen)
	if preferred {
		res.Metrics["preference_set"] = 1
	} else {
		res.Metrics["preference_set"] = 0
	}
	return res
}

// directCommandsCheck estimates simple read-only operations delegated to the assistant.
type directCommandsCheck struct {
	maxPoints float64
}

func (c directCommandsCheck) Name() string { return CheckDirectCommands }

func (c directCommandsCheck) Evaluate(d *Dataset) model.CheckResult {
	delegated := 0
	for _, s := range d.Sessions {
		for _, m := range s.Messages {
			if containsAny(strings.ToLower(m.Display), directPhrases) {
				delegated++
			}
		}
	}
	opportunities := len(d.Sessions) * opportunitiesPerSession
	direct := opportunities - delegated
	if direct < 0 {
		direct = 0
	}
	consistency := 0.5
	if opportunities > 0 {
		consistency = float64(direct) / float64(opportunities)
	}
	res := newResult(CheckDirectCommands, "Direct commands", consistency, c.maxPoints)
	if opportunities == 0 {
		res.Status = StatusNoData
	}
	res.Metrics["opportunities"] = float64(opportunities)
	res.Metrics["direct_commands"] = float64(direct)
	res.Metrics["ai_commands"] = float64(delegated)
	return res
}

// contextCheck rewards focused sessions of 5 to 15 messages.
type contextCheck struct {
	maxPoints float64
}

func (c contextCheck) Name() string { return CheckContextMgmt }

func (c contextCheck) Evaluate(d *Dataset) model.CheckResult {
	title := "Context management"
	if len(d.Sessions) == 0 {
		// Half credit without going through the curve.
		return model.CheckResult{
			Name:        CheckContextMgmt,
			Title:       title,
			Score:       c.maxPoints / 2,
			MaxScore:    c.maxPoints,
			Consistency: 0.5,
			Status:      StatusNoData,
			Metrics:     map[string]float64{},
		}
	}
	avg := float64(d.TotalMessages) / float64(len(d.Sessions))
	var consistency float64
	switch {
	case avg >= contextMinMessages && avg <= contextMaxMessages:
		consistency = 1.0
	case avg < contextMinMessages:
		consistency = 0.6
	default:
		consistency = max(0.3, 1-(avg-contextMaxMessages)/contextDecayRange)
	}
	res := newResult(CheckContextMgmt, title, consistency, c.maxPoints)
	res.Metrics["avg_messages_per_session"] = round1(avg)
	return res
}
