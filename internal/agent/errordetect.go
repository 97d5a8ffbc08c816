package agent

import (
	"context"
	"regexp"
	"time"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

// ErrorDetectionAgentName is the registry name of the error detection agent.
const ErrorDetectionAgentName = "errors"

var goMainPackageRe = regexp.MustCompile(`(?m)^package\s+main\s*$`)

var errorRules = []PatternRule{
	{
		ID:        "err.empty-catch",
		Category:  domain.CategoryCorrectness,
		Severity:  domain.SeverityMedium,
		Pattern:   regexp.MustCompile(`\bcatch\s*(?:\([^)]*\))?\s*\{\s*\}`),
		Message:   "Empty catch block silently discards the error",
		Languages: jsLike,
		SkipTests: true,
	},
	{
		ID:        "err.bare-except",
		Category:  domain.CategoryCorrectness,
		Severity:  domain.SeverityMedium,
		Pattern:   regexp.MustCompile(`(?m)^[ \t]*except[ \t]*:`),
		Message:   "Bare except catches every exception, including KeyboardInterrupt",
		Languages: []Language{LangPython},
		SkipTests: true,
	},
	{
		ID:        "err.except-pass",
		Category:  domain.CategoryCorrectness,
		Severity:  domain.SeverityMedium,
		Pattern:   regexp.MustCompile(`(?m)^[ \t]*except\b[^:\n]*:[ \t]*(?:\n[ \t]*)?pass\b`),
		Message:   "Exception handler only contains pass",
		Languages: []Language{LangPython},
		SkipTests: true,
	},
	{
		ID:        "err.discarded-error",
		Category:  domain.CategoryCorrectness,
		Severity:  domain.SeverityLow,
		Pattern:   regexp.MustCompile(`(?m)^[ \t]*_[ \t]*(?:,[ \t]*_[ \t]*)?=[ \t]*[\w.]+\(`),
		Message:   "Returned error is discarded with the blank identifier",
		Languages: []Language{LangGo},
		SkipTests: true,
	},
	{
		ID:        "err.panic",
		Category:  domain.CategoryCorrectness,
		Severity:  domain.SeverityMedium,
		Pattern:   regexp.MustCompile(`\bpanic\(`),
		Message:   "panic in library code; return an error instead",
		Languages: []Language{LangGo},
		SkipTests: true,
		Skip: func(f SourceFile) bool {
			return goMainPackageRe.MatchString(f.Content)
		},
	},
	{
		ID:        "err.swallowed-promise",
		Category:  domain.CategoryCorrectness,
		Severity:  domain.SeverityMedium,
		Pattern:   regexp.MustCompile(`\.catch\(\s*(?:\(\s*\w*\s*\)|\w+)\s*=>\s*(?:\{\s*\}|null|undefined)\s*\)`),
		Message:   "Promise rejection is swallowed",
		Languages: jsLike,
		SkipTests: true,
	},
	{
		ID:        "err.log-and-continue",
		Category:  domain.CategoryCorrectness,
		Severity:  domain.SeverityLow,
		Pattern:   regexp.MustCompile(`\bcatch\s*\(\s*\w+\s*\)\s*\{\s*console\.(?:log|error|warn)\([^)]*\);?\s*\}`),
		Message:   "Error is logged and then ignored",
		Languages: jsLike,
		SkipTests: true,
	},
}

// ErrorDetectionAgent looks for error-handling mistakes.
type ErrorDetectionAgent struct{}

// NewErrorDetectionAgent creates the error detection agent.
func NewErrorDetectionAgent() *ErrorDetectionAgent {
	return &ErrorDetectionAgent{}
}

func (a *ErrorDetectionAgent) Name() string { return ErrorDetectionAgentName }

func (a *ErrorDetectionAgent) Capabilities() []Capability {
	return []Capability{CapabilityErrorDetection}
}

func (a *ErrorDetectionAgent) Analyze(ctx context.Context, actx domain.AnalysisContext) (domain.AnalysisReport, error) {
	start := time.Now()

	files, findings, err := LoadSources(ctx, actx)
	if err != nil {
		return domain.AnalysisReport{}, err
	}
	findings = append(findings, applyRules(errorRules, files, nil)...)

	return domain.NewAnalysisReport(a.Name(), findings, time.Since(start)), nil
}
