// Package report turns a CoordinationResult into presentation data and
// renders it as JSON, markdown or console text.
package report

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

// Format is an output format.
type Format string

const (
	FormatConsole  Format = "console"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported formats.
var Formats = []Format{FormatConsole, FormatJSON, FormatMarkdown}

// ParseFormat parses a format name. "text" and "md" are accepted aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "console", "text":
		return FormatConsole, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (valid: console, json, markdown)", name)
	}
}

// SummaryItem is one labelled summary value. Order is preserved.
type SummaryItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Entry is one finding as presented in a report.
type Entry struct {
	Severity domain.Severity `json:"severity"`
	Category domain.Category `json:"category"`
	Location string          `json:"location"`
	Message  string          `json:"message"`
	RuleID   string          `json:"rule_id,omitempty"`
	Agents   []string        `json:"agents"`
}

// Section groups entries under a heading.
type Section struct {
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`
}

// AgentStatus is a per-agent line in the report.
type AgentStatus struct {
	Name          string        `json:"name"`
	Findings      int           `json:"findings"`
	ExecutionTime time.Duration `json:"-"`
	ExecutionMS   int64         `json:"execution_time_ms"`
	Failure       string        `json:"failure,omitempty"`
	TimedOut      bool          `json:"timed_out,omitempty"`
}

// ReportData is the format-independent content of a report.
type ReportData struct {
	Title    string            `json:"title"`
	Summary  []SummaryItem     `json:"summary"`
	Sections []Section         `json:"sections"`
	Agents   []AgentStatus     `json:"agents"`
	Metadata map[string]string `json:"metadata"`

	// Totals used by renderers.
	FindingCount  int           `json:"finding_count"`
	FilteredCount int           `json:"filtered_count,omitempty"`
	IgnoredCount  int           `json:"ignored_count,omitempty"`
	WallClock     time.Duration `json:"-"`
}

// HasFindings reports whether any section has entries.
func (d ReportData) HasFindings() bool {
	return d.FindingCount > 0
}

// Options controls FromResult.
type Options struct {
	Title string
	// MinSeverity hides findings below this severity. Zero shows everything.
	MinSeverity domain.Severity
	// IgnoredCount is the number of findings suppressed by the ignore file.
	IgnoredCount int
}

// DefaultTitle is used when Options.Title is empty.
const DefaultTitle = "Code analysis report"

// FromResult builds report data from a coordination result. Findings that
// several agents reported are merged; sections are ordered by severity,
// most severe first.
func FromResult(result *domain.CoordinationResult, opts Options) ReportData {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}

	data := ReportData{
		Title:        title,
		Metadata:     map[string]string{},
		IgnoredCount: opts.IgnoredCount,
	}
	if result == nil {
		return data
	}

	data.WallClock = result.Summary.TotalExecutionTime
	data.Metadata["run_id"] = result.RunID
	data.Metadata["project"] = result.Context.ProjectPath
	data.Metadata["depth"] = string(result.Context.Depth)
	data.Metadata["mode"] = "parallel"
	if !result.Parallel {
		data.Metadata["mode"] = "sequential"
	}
	if !result.StartedAt.IsZero() {
		data.Metadata["started_at"] = result.StartedAt.UTC().Format(time.RFC3339)
	}

	aggregated := domain.AggregateFindings(result.Reports)
	slices.SortStableFunc(aggregated, func(a, b domain.AggregatedFinding) int {
		return domain.CompareFindings(a.Finding, b.Finding)
	})

	bySeverity := make(map[domain.Severity][]Entry)
	for _, af := range aggregated {
		if opts.MinSeverity.Valid() && !af.Severity.AtLeast(opts.MinSeverity) {
			data.FilteredCount++
			continue
		}
		bySeverity[af.Severity] = append(bySeverity[af.Severity], Entry{
			Severity: af.Severity,
			Category: af.Category,
			Location: af.Location.String(),
			Message:  af.Message,
			RuleID:   af.RuleID,
			Agents:   slices.Clone(af.Agents),
		})
		data.FindingCount++
	}
	for _, sev := range domain.Severities {
		entries := bySeverity[sev]
		if len(entries) == 0 {
			continue
		}
		data.Sections = append(data.Sections, Section{
			Title:   sectionTitle(sev),
			Entries: entries,
		})
	}

	for _, r := range result.Reports {
		status := AgentStatus{
			Name:          r.AgentName,
			Findings:      len(r.Findings),
			ExecutionTime: r.ExecutionTime,
			ExecutionMS:   r.ExecutionTime.Milliseconds(),
			TimedOut:      r.TimedOut(),
		}
		if r.Failed() {
			status.Failure = fmt.Sprintf("%s: %s", r.Error.Kind, r.Error.Message)
		}
		data.Agents = append(data.Agents, status)
	}

	s := result.Summary
	data.Summary = []SummaryItem{
		{Label: "Total findings", Value: fmt.Sprint(s.TotalFindings)},
		{Label: "Shown", Value: fmt.Sprint(data.FindingCount)},
		{Label: "Agents run", Value: fmt.Sprint(s.AgentsRun)},
		{Label: "Agents failed", Value: fmt.Sprint(s.AgentsFailed)},
		{Label: "Wall time", Value: s.TotalExecutionTime.Round(time.Millisecond).String()},
	}
	return data
}

func sectionTitle(sev domain.Severity) string {
	name := sev.String()
	return strings.ToUpper(name[:1]) + name[1:]
}
