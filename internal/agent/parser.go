package agent

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

// OutputParser converts an external analyzer's stdout into findings.
// parseErrors counts input it could not interpret; err is returned only
// when the output as a whole is unusable.
type OutputParser interface {
	Parse(r io.Reader, root string) (findings []domain.Finding, parseErrors int, err error)
}

var parsers = map[string]OutputParser{
	"eslint":   eslintParser{},
	"golangci": golangciParser{},
	"gnu":      gnuParser{},
}

// ParserNames lists the supported parser names, sorted.
func ParserNames() []string {
	names := make([]string, 0, len(parsers))
	for name := range parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParserFor returns the named parser.
func ParserFor(name string) (OutputParser, error) {
	p, ok := parsers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown parser %q (supported: %s)", name, strings.Join(ParserNames(), ", "))
	}
	return p, nil
}

// relPath makes tool-reported paths relative to root when possible.
func relPath(root, p string) string {
	if filepath.IsAbs(p) && root != "" {
		if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// eslintParser reads `eslint --format json` output.
type eslintParser struct{}

type eslintFile struct {
	FilePath string          `json:"filePath"`
	Messages []eslintMessage `json:"messages"`
}

type eslintMessage struct {
	RuleID    string `json:"ruleId"`
	Severity  int    `json:"severity"` // 1=warning, 2=error
	Fatal     bool   `json:"fatal"`
	Message   string `json:"message"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"endLine"`
	EndColumn int    `json:"endColumn"`
}

func (eslintParser) Parse(r io.Reader, root string) ([]domain.Finding, int, error) {
	var files []eslintFile
	if err := json.NewDecoder(r).Decode(&files); err != nil {
		if err == io.EOF {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("could not parse ESLint JSON: %w", err)
	}

	var findings []domain.Finding
	for _, f := range files {
		for _, m := range f.Messages {
			sev := domain.SeverityLow
			switch {
			case m.Fatal:
				sev = domain.SeverityHigh
			case m.Severity == 2:
				sev = domain.SeverityMedium
			}
			category := domain.CategoryQuality
			switch {
			case m.Fatal:
				category = domain.CategoryCorrectness
			case strings.HasPrefix(m.RuleID, "security/"):
				category = domain.CategorySecurity
			}
			findings = append(findings, domain.Finding{
				Category: category,
				Severity: sev,
				Location: domain.Location{
					Path:    relPath(root, f.FilePath),
					Line:    m.Line,
					Column:  m.Column,
					EndLine: m.EndLine,
				},
				Message: m.Message,
				RuleID:  m.RuleID,
			})
		}
	}
	return findings, 0, nil
}

// golangciParser reads `golangci-lint run --out-format json` output.
type golangciParser struct{}

type golangciOutput struct {
	Issues []golangciIssue `json:"Issues"`
}

type golangciIssue struct {
	FromLinter string `json:"FromLinter"`
	Text       string `json:"Text"`
	Severity   string `json:"Severity"`
	Pos        struct {
		Filename string `json:"Filename"`
		Line     int    `json:"Line"`
		Column   int    `json:"Column"`
	} `json:"Pos"`
}

var golangciCategories = map[string]domain.Category{
	"gosec":       domain.CategorySecurity,
	"errcheck":    domain.CategoryCorrectness,
	"govet":       domain.CategoryCorrectness,
	"staticcheck": domain.CategoryCorrectness,
	"ineffassign": domain.CategoryCorrectness,
	"gocyclo":     domain.CategoryQuality,
	"gocognit":    domain.CategoryQuality,
	"prealloc":    domain.CategoryPerformance,
	"gofmt":       domain.CategoryStyle,
	"goimports":   domain.CategoryStyle,
	"misspell":    domain.CategoryStyle,
}

func (golangciParser) Parse(r io.Reader, root string) ([]domain.Finding, int, error) {
	var out golangciOutput
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		if err == io.EOF {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("could not parse golangci-lint JSON: %w", err)
	}

	findings := make([]domain.Finding, 0, len(out.Issues))
	for _, issue := range out.Issues {
		category, ok := golangciCategories[issue.FromLinter]
		if !ok {
			category = domain.CategoryQuality
		}
		sev := domain.SeverityLow
		switch {
		case strings.EqualFold(issue.Severity, "error"):
			sev = domain.SeverityMedium
		case category == domain.CategorySecurity:
			sev = domain.SeverityHigh
		case category == domain.CategoryCorrectness:
			sev = domain.SeverityMedium
		case category == domain.CategoryStyle:
			sev = domain.SeverityInfo
		}
		findings = append(findings, domain.Finding{
			Category: category,
			Severity: sev,
			Location: domain.Location{
				Path:   relPath(root, issue.Pos.Filename),
				Line:   issue.Pos.Line,
				Column: issue.Pos.Column,
			},
			Message: issue.Text,
			RuleID:  "golangci." + issue.FromLinter,
		})
	}
	return findings, 0, nil
}

// gnuParser reads compiler-style "path:line[:col]: [severity:] message" lines.
type gnuParser struct{}

var gnuLineRe = regexp.MustCompile(`^(.+?):(\d+)(?::(\d+))?:\s*(?:(?i:(error|warning|note|info))\s*:\s*)?(.+)$`)

func (gnuParser) Parse(r io.Reader, root string) ([]domain.Finding, int, error) {
	var findings []domain.Finding
	parseErrors := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		m := gnuLineRe.FindStringSubmatch(line)
		if m == nil {
			parseErrors++
			continue
		}
		lineNo, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])

		sev := domain.SeverityLow
		switch strings.ToLower(m[4]) {
		case "error":
			sev = domain.SeverityMedium
		case "note", "info":
			sev = domain.SeverityInfo
		}
		findings = append(findings, domain.Finding{
			Category: domain.CategoryQuality,
			Severity: sev,
			Location: domain.Location{Path: relPath(root, m[1]), Line: lineNo, Column: col},
			Message:  strings.TrimSpace(m[5]),
		})
	}
	if err := scanner.Err(); err != nil {
		return findings, parseErrors, fmt.Errorf("reading output: %w", err)
	}
	return findings, parseErrors, nil
}
