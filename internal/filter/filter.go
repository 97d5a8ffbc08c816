// Package filter provides filtering capabilities for analysis findings.
package filter

import (
	"fmt"
	"regexp"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

// Filter holds compiled regex patterns for excluding findings.
type Filter struct {
	excludePatterns []*regexp.Regexp
}

// New creates a Filter from pattern strings.
// Returns an error if any pattern is an invalid regex.
func New(patterns []string) (*Filter, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &Filter{excludePatterns: compiled}, nil
}

// Apply returns a copy of result with excluded findings removed, and the
// number of findings removed. The original is not mutated.
func (f *Filter) Apply(result *domain.CoordinationResult) (*domain.CoordinationResult, int) {
	if f == nil || len(f.excludePatterns) == 0 {
		return result, 0
	}
	return Result(result, func(finding domain.Finding) bool {
		return !f.Excludes(finding)
	})
}

// Excludes returns true if any exclude pattern matches the finding's
// message, rule id or location.
func (f *Filter) Excludes(finding domain.Finding) bool {
	loc := finding.Location.String()
	for _, re := range f.excludePatterns {
		if re.MatchString(finding.Message) || re.MatchString(loc) {
			return true
		}
		if finding.RuleID != "" && re.MatchString(finding.RuleID) {
			return true
		}
	}
	return false
}

// Result returns a copy of result keeping only findings for which keep
// returns true, together with the number dropped. Failed reports pass
// through untouched and the summary is recomputed with the original wall
// clock.
func Result(result *domain.CoordinationResult, keep func(domain.Finding) bool) (*domain.CoordinationResult, int) {
	if result == nil {
		return nil, 0
	}

	out := *result
	out.Reports = make([]domain.AnalysisReport, 0, len(result.Reports))
	dropped := 0
	for _, r := range result.Reports {
		if r.Failed() {
			out.Reports = append(out.Reports, r)
			continue
		}
		kept := make([]domain.Finding, 0, len(r.Findings))
		for _, finding := range r.Findings {
			if keep(finding) {
				kept = append(kept, finding)
			} else {
				dropped++
			}
		}
		out.Reports = append(out.Reports, domain.NewAnalysisReport(r.AgentName, kept, r.ExecutionTime))
	}
	out.Summary = domain.BuildSummary(out.Reports, result.Summary.TotalExecutionTime)
	return &out, dropped
}

// MinSeverity returns a copy of result without findings below threshold.
// An invalid threshold keeps everything.
func MinSeverity(result *domain.CoordinationResult, threshold domain.Severity) (*domain.CoordinationResult, int) {
	if !threshold.Valid() {
		return result, 0
	}
	return Result(result, func(finding domain.Finding) bool {
		return finding.Severity.AtLeast(threshold)
	})
}
