package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

// StaticAgentName is the registry name of the static analysis agent.
const StaticAgentName = "static"

// Defaults for StaticOptions zero values.
const (
	DefaultMaxLineLength    = 120
	DefaultMaxFileLines     = 500
	DefaultComplexityMedium = 10
	DefaultComplexityHigh   = 20
)

// StaticOptions tunes the static analysis agent. Zero values use the defaults.
type StaticOptions struct {
	DisabledRules    []string
	MaxLineLength    int
	MaxFileLines     int
	ComplexityMedium int
	ComplexityHigh   int
}

func (o StaticOptions) withDefaults() StaticOptions {
	if o.MaxLineLength <= 0 {
		o.MaxLineLength = DefaultMaxLineLength
	}
	if o.MaxFileLines <= 0 {
		o.MaxFileLines = DefaultMaxFileLines
	}
	if o.ComplexityMedium <= 0 {
		o.ComplexityMedium = DefaultComplexityMedium
	}
	if o.ComplexityHigh <= 0 {
		o.ComplexityHigh = DefaultComplexityHigh
	}
	return o
}

// Rule ids emitted by the static agent outside the pattern table.
const (
	RuleLongLine           = "style.long-line"
	RuleTrailingWhitespace = "style.trailing-whitespace"
	RuleComplexity         = "quality.complexity"
	RuleFileLength         = "quality.file-length"
)

var staticRules = []PatternRule{
	{
		ID:       "sec.hardcoded-secret",
		Category: domain.CategorySecurity,
		Severity: domain.SeverityHigh,
		Pattern:  regexp.MustCompile(`(?i)\b(?:password|passwd|secret|api[_-]?key|access[_-]?token|auth[_-]?token)\b["']?\s*(?::=|[:=])\s*["'][^"'\s]{4,}["']`),
		Message:  "Possible hard-coded credential",
	},
	{
		ID:       "sec.private-key",
		Category: domain.CategorySecurity,
		Severity: domain.SeverityCritical,
		Pattern:  regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`),
		Message:  "Private key block committed to source",
	},
	{
		ID:       "sec.google-api-key",
		Category: domain.CategorySecurity,
		Severity: domain.SeverityHigh,
		Pattern:  regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`),
		Message:  "Google API key committed to source",
	},
	{
		ID:        "sec.eval",
		Category:  domain.CategorySecurity,
		Severity:  domain.SeverityHigh,
		Pattern:   regexp.MustCompile(`\beval\s*\(`),
		Message:   "Use of eval() executes arbitrary code",
		Languages: []Language{LangJavaScript, LangTypeScript, LangPython},
	},
	{
		ID:       "sec.shell-injection",
		Category: domain.CategorySecurity,
		Severity: domain.SeverityHigh,
		Pattern: regexp.MustCompile(`\b(?:exec|execSync|spawn)\s*\([^)\n]*["'\x60]\s*\+|` +
			`\bos\.system\s*\(|` +
			`\bsubprocess\.\w+\([^)\n]*shell\s*=\s*True|` +
			`\bexec\.Command(?:Context)?\((?:ctx,\s*)?"(?:sh|bash)",\s*"-c"`),
		Message: "Shell command built from a string; risk of command injection",
	},
	{
		ID:       "sec.insecure-tls",
		Category: domain.CategorySecurity,
		Severity: domain.SeverityMedium,
		Pattern:  regexp.MustCompile(`InsecureSkipVerify:\s*true|rejectUnauthorized:\s*false|verify\s*=\s*False`),
		Message:  "TLS certificate verification disabled",
	},
	{
		ID:       "quality.todo",
		Category: domain.CategoryQuality,
		Severity: domain.SeverityInfo,
		Pattern:  regexp.MustCompile(`\b(?:TODO|FIXME|XXX|HACK)\b`),
		Message:  "Unresolved TODO/FIXME marker",
	},
	{
		ID:        "perf.sync-io",
		Category:  domain.CategoryPerformance,
		Severity:  domain.SeverityLow,
		Pattern:   regexp.MustCompile(`\b(?:readFileSync|writeFileSync|existsSync|readdirSync)\s*\(`),
		Message:   "Synchronous filesystem call blocks the event loop",
		Languages: jsLike,
		SkipTests: true,
	},
}

// StaticAnalysisAgent applies a fixed rule set of line patterns, a
// per-function complexity scorer and a file length check.
type StaticAnalysisAgent struct {
	opts     StaticOptions
	disabled map[string]bool
}

// NewStaticAnalysisAgent creates the static analysis agent.
func NewStaticAnalysisAgent(opts StaticOptions) *StaticAnalysisAgent {
	opts = opts.withDefaults()
	disabled := make(map[string]bool, len(opts.DisabledRules))
	for _, id := range opts.DisabledRules {
		disabled[strings.TrimSpace(id)] = true
	}
	return &StaticAnalysisAgent{opts: opts, disabled: disabled}
}

func (a *StaticAnalysisAgent) Name() string { return StaticAgentName }

func (a *StaticAnalysisAgent) Capabilities() []Capability {
	return []Capability{CapabilityStaticAnalysis, CapabilitySecurity, CapabilityComplexity}
}

// RuleIDs lists every rule the agent can emit.
func (a *StaticAnalysisAgent) RuleIDs() []string {
	ids := make([]string, 0, len(staticRules)+4)
	for _, r := range staticRules {
		ids = append(ids, r.ID)
	}
	return append(ids, RuleLongLine, RuleTrailingWhitespace, RuleComplexity, RuleFileLength)
}

func (a *StaticAnalysisAgent) Analyze(ctx context.Context, actx domain.AnalysisContext) (domain.AnalysisReport, error) {
	start := time.Now()

	files, findings, err := LoadSources(ctx, actx)
	if err != nil {
		return domain.AnalysisReport{}, err
	}

	findings = append(findings, applyRules(staticRules, files, a.disabled)...)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return domain.AnalysisReport{}, err
		}
		findings = append(findings, a.lineChecks(f)...)
		if actx.Depth != domain.DepthShallow && !a.disabled[RuleComplexity] {
			findings = append(findings, a.complexity(f)...)
		}
	}

	return domain.NewAnalysisReport(a.Name(), findings, time.Since(start)), nil
}

func (a *StaticAnalysisAgent) lineChecks(f SourceFile) []domain.Finding {
	var findings []domain.Finding

	lineCount := len(f.Lines)
	if lineCount > 0 && f.Lines[lineCount-1] == "" {
		lineCount--
	}
	if !a.disabled[RuleFileLength] && lineCount > a.opts.MaxFileLines {
		findings = append(findings, domain.Finding{
			Category: domain.CategoryQuality,
			Severity: domain.SeverityLow,
			Location: domain.Location{Path: f.Path},
			Message:  fmt.Sprintf("File has %d lines (limit %d); consider splitting it", lineCount, a.opts.MaxFileLines),
			RuleID:   RuleFileLength,
		})
	}

	for i, line := range f.Lines {
		line = strings.TrimSuffix(line, "\r")
		if !a.disabled[RuleLongLine] {
			if n := len([]rune(line)); n > a.opts.MaxLineLength {
				findings = append(findings, domain.Finding{
					Category: domain.CategoryStyle,
					Severity: domain.SeverityInfo,
					Location: domain.Location{Path: f.Path, Line: i + 1},
					Message:  fmt.Sprintf("Line is %d characters (limit %d)", n, a.opts.MaxLineLength),
					RuleID:   RuleLongLine,
				})
			}
		}
		if !a.disabled[RuleTrailingWhitespace] && line != strings.TrimRight(line, " \t") {
			findings = append(findings, domain.Finding{
				Category: domain.CategoryStyle,
				Severity: domain.SeverityInfo,
				Location: domain.Location{Path: f.Path, Line: i + 1},
				Message:  "Trailing whitespace",
				RuleID:   RuleTrailingWhitespace,
			})
		}
	}
	return findings
}

func (a *StaticAnalysisAgent) complexity(f SourceFile) []domain.Finding {
	var findings []domain.Finding
	for _, fn := range extractFunctions(f) {
		score := fn.complexity(f.Language)
		var sev domain.Severity
		switch {
		case score >= a.opts.ComplexityHigh:
			sev = domain.SeverityHigh
		case score >= a.opts.ComplexityMedium:
			sev = domain.SeverityMedium
		default:
			continue
		}
		findings = append(findings, domain.Finding{
			Category: domain.CategoryQuality,
			Severity: sev,
			Location: domain.Location{Path: f.Path, Line: fn.startLine, EndLine: fn.endLine},
			Message:  fmt.Sprintf("Function %s has cyclomatic complexity %d", fn.name, score),
			RuleID:   RuleComplexity,
		})
	}
	return findings
}
