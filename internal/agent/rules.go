package agent

import (
	"regexp"
	"slices"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

// PatternRule flags every match of a regular expression.
type PatternRule struct {
	ID       string
	Category domain.Category
	Severity domain.Severity
	Pattern  *regexp.Regexp
	Message  string
	// Languages restricts the rule; empty applies to every text file.
	Languages []Language
	// SkipTests excludes test files.
	SkipTests bool
	// Skip excludes individual files; nil keeps all.
	Skip func(SourceFile) bool
}

func (r PatternRule) appliesTo(f SourceFile) bool {
	if r.SkipTests && f.IsTest() {
		return false
	}
	if r.Skip != nil && r.Skip(f) {
		return false
	}
	return len(r.Languages) == 0 || slices.Contains(r.Languages, f.Language)
}

// Apply returns one finding per match in f.
func (r PatternRule) Apply(f SourceFile) []domain.Finding {
	if !r.appliesTo(f) {
		return nil
	}

	var findings []domain.Finding
	for _, m := range r.Pattern.FindAllStringIndex(f.Content, -1) {
		findings = append(findings, domain.Finding{
			Category: r.Category,
			Severity: r.Severity,
			Location: domain.Location{
				Path:   f.Path,
				Line:   lineAt(f.Content, m[0]),
				Column: columnAt(f.Content, m[0]),
			},
			Message: r.Message,
			RuleID:  r.ID,
		})
	}
	return findings
}

// applyRules runs rules over files, skipping disabled rule ids.
func applyRules(rules []PatternRule, files []SourceFile, disabled map[string]bool) []domain.Finding {
	var findings []domain.Finding
	for _, f := range files {
		for _, r := range rules {
			if disabled[r.ID] {
				continue
			}
			findings = append(findings, r.Apply(f)...)
		}
	}
	return findings
}

var jsLike = []Language{LangJavaScript, LangTypeScript}
