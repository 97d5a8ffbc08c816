package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Severity is the ordered importance of a finding. Higher values are more severe.
type Severity int

const (
	SeverityUnknown Severity = iota // Unset (zero value); never valid on a Finding
	SeverityInfo
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityInfo:     "info",
	SeverityLow:      "low",
	SeverityMedium:   "medium",
	SeverityHigh:     "high",
	SeverityCritical: "critical",
}

// Severities lists all valid severities from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid returns true if s is one of the defined severities.
func (s Severity) Valid() bool {
	_, ok := severityNames[s]
	return ok
}

// AtLeast returns true if s is as severe as or more severe than threshold.
func (s Severity) AtLeast(threshold Severity) bool {
	return s >= threshold
}

// ParseSeverity parses a severity name (case-insensitive).
func ParseSeverity(name string) (Severity, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for sev, n := range severityNames {
		if n == lower {
			return sev, nil
		}
	}
	return SeverityUnknown, fmt.Errorf("unknown severity %q (valid: critical, high, medium, low, info)", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Category classifies what kind of problem a finding describes.
type Category string

const (
	CategorySecurity    Category = "security"
	CategoryQuality     Category = "quality"
	CategoryPerformance Category = "performance"
	CategoryCorrectness Category = "correctness"
	CategoryStyle       Category = "style"
	CategoryTesting     Category = "testing"
)

// Categories lists the categories known to this deployment.
var Categories = []Category{
	CategorySecurity,
	CategoryQuality,
	CategoryPerformance,
	CategoryCorrectness,
	CategoryStyle,
	CategoryTesting,
}

// Valid returns true if c is a known category.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// Location points at the code a finding refers to.
// Line and Column are 1-based; zero means unknown (file-level finding).
type Location struct {
	Path    string `json:"path"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	EndLine int    `json:"end_line,omitempty"`
}

// String formats the location as path[:line[:column]].
func (l Location) String() string {
	switch {
	case l.Line > 0 && l.Column > 0:
		return fmt.Sprintf("%s:%d:%d", l.Path, l.Line, l.Column)
	case l.Line > 0:
		return fmt.Sprintf("%s:%d", l.Path, l.Line)
	default:
		return l.Path
	}
}

// Finding is a single issue detected by an agent.
type Finding struct {
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Location Location `json:"location"`
	Message  string   `json:"message"`
	RuleID   string   `json:"rule_id,omitempty"`
}

// Validate checks that severity is set and category is one of Categories.
func (f Finding) Validate() error {
	if !f.Severity.Valid() {
		return fmt.Errorf("finding %q: severity not set", f.Message)
	}
	if f.Category == "" {
		return fmt.Errorf("finding %q: category not set", f.Message)
	}
	if !f.Category.Valid() {
		return fmt.Errorf("finding %q: unknown category %q", f.Message, f.Category)
	}
	return nil
}

// Key returns an identity used to recognise the same finding across agents.
func (f Finding) Key() string {
	return f.Location.String() + "|" + f.RuleID + "|" + f.Message
}

// CompareFindings orders findings by path, line, severity (most severe first),
// then rule and message so the order is total.
func CompareFindings(a, b Finding) int {
	return cmp.Or(
		cmp.Compare(a.Location.Path, b.Location.Path),
		cmp.Compare(a.Location.Line, b.Location.Line),
		cmp.Compare(b.Severity, a.Severity),
		cmp.Compare(a.Location.Column, b.Location.Column),
		cmp.Compare(a.RuleID, b.RuleID),
		cmp.Compare(a.Message, b.Message),
	)
}

// SortFindings sorts findings in place using CompareFindings.
func SortFindings(findings []Finding) {
	slices.SortStableFunc(findings, CompareFindings)
}

// AggregatedFinding is a finding together with every agent that reported it.
type AggregatedFinding struct {
	Finding
	Agents []string
}

// AggregateFindings merges identical findings reported by several agents.
// The first occurrence wins; output keeps first-seen order.
func AggregateFindings(reports []AnalysisReport) []AggregatedFinding {
	index := make(map[string]int)
	var result []AggregatedFinding

	for _, r := range reports {
		if r.Failed() {
			continue
		}
		for _, f := range r.Findings {
			key := f.Key()
			if i, ok := index[key]; ok {
				if !slices.Contains(result[i].Agents, r.AgentName) {
					result[i].Agents = append(result[i].Agents, r.AgentName)
				}
				continue
			}
			index[key] = len(result)
			result = append(result, AggregatedFinding{Finding: f, Agents: []string{r.AgentName}})
		}
	}

	for i := range result {
		slices.Sort(result[i].Agents)
	}
	return result
}
