package agent

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

// TestGenerationAgentName is the registry name of the test generation agent.
const TestGenerationAgentName = "tests"

// Rule ids emitted by the test generation agent.
const (
	RuleMissingTests    = "tests.missing"
	RuleUncoveredSymbol = "tests.uncovered-symbol"
)

var goTypeRe = regexp.MustCompile(`(?m)^type\s+([A-Za-z_]\w*)\s`)

// TestGenerationAgent suggests tests for source files. A file with no test
// file gets one finding naming the suggested test file and the symbols it
// should cover; at depth deep and above, a file whose test file exists gets
// a finding for symbols the tests never mention.
type TestGenerationAgent struct{}

// NewTestGenerationAgent creates the test generation agent.
func NewTestGenerationAgent() *TestGenerationAgent {
	return &TestGenerationAgent{}
}

func (a *TestGenerationAgent) Name() string { return TestGenerationAgentName }

func (a *TestGenerationAgent) Capabilities() []Capability {
	return []Capability{CapabilityTestGeneration}
}

func (a *TestGenerationAgent) Analyze(ctx context.Context, actx domain.AnalysisContext) (domain.AnalysisReport, error) {
	start := time.Now()

	files, findings, err := LoadSources(ctx, actx)
	if err != nil {
		return domain.AnalysisReport{}, err
	}
	root, err := filepath.Abs(actx.ProjectPath)
	if err != nil {
		return domain.AnalysisReport{}, &domain.ContextError{Path: actx.ProjectPath, Err: err}
	}

	includePrivate := actx.Depth == domain.DepthComprehensive
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return domain.AnalysisReport{}, err
		}
		if f.IsTest() || !testable(f) {
			continue
		}

		symbols := testableSymbols(f, includePrivate)
		if len(symbols) == 0 {
			continue
		}

		candidates := testFileCandidates(f)
		existing, found := firstExisting(root, candidates)
		if !found {
			findings = append(findings, domain.Finding{
				Category: domain.CategoryTesting,
				Severity: domain.SeverityInfo,
				Location: domain.Location{Path: f.Path},
				Message: fmt.Sprintf("No tests found; add %s covering %s",
					candidates[0], strings.Join(suggestedTestNames(f.Language, symbols), ", ")),
				RuleID: RuleMissingTests,
			})
			continue
		}

		if actx.Depth == domain.DepthShallow {
			continue
		}
		content, ok, err := readTextFile(filepath.Join(root, filepath.FromSlash(existing)))
		if err != nil || !ok {
			continue
		}
		var uncovered []string
		for _, s := range symbols {
			if !strings.Contains(content, s) {
				uncovered = append(uncovered, s)
			}
		}
		if len(uncovered) > 0 {
			findings = append(findings, domain.Finding{
				Category: domain.CategoryTesting,
				Severity: domain.SeverityInfo,
				Location: domain.Location{Path: f.Path},
				Message: fmt.Sprintf("%s does not exercise %s; suggested: %s",
					existing, strings.Join(uncovered, ", "), strings.Join(suggestedTestNames(f.Language, uncovered), ", ")),
				RuleID: RuleUncoveredSymbol,
			})
		}
	}

	return domain.NewAnalysisReport(a.Name(), findings, time.Since(start)), nil
}

func testable(f SourceFile) bool {
	base := path.Base(f.Path)
	switch f.Language {
	case LangGo:
		return !strings.HasSuffix(base, ".pb.go") && !strings.HasSuffix(base, "_gen.go")
	case LangJavaScript, LangTypeScript:
		return !strings.HasSuffix(base, ".d.ts") && !strings.Contains(base, ".config.")
	case LangPython:
		return base != "__init__.py" && base != "setup.py" && base != "conftest.py"
	default:
		return false
	}
}

// testableSymbols returns the function (and for Go, type) names a test
// should cover, in source order.
func testableSymbols(f SourceFile, includePrivate bool) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string, exported bool) {
		if seen[name] || (!exported && !includePrivate) {
			return
		}
		if f.Language == LangGo && (name == "main" || name == "init") {
			return
		}
		seen[name] = true
		out = append(out, name)
	}

	if f.Language == LangGo {
		for _, m := range goTypeRe.FindAllStringSubmatch(f.Content, -1) {
			add(m[1], isUpper(m[1]))
		}
	}
	for _, fn := range extractFunctions(f) {
		add(fn.name, fn.exported)
	}
	return out
}

// testFileCandidates lists conventional test file locations, most
// conventional first. Paths are slash-separated and relative to the project.
func testFileCandidates(f SourceFile) []string {
	dir := path.Dir(f.Path)
	base := path.Base(f.Path)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	join := func(elem ...string) string { return path.Clean(path.Join(elem...)) }

	switch f.Language {
	case LangGo:
		return []string{join(dir, stem+"_test.go")}
	case LangJavaScript, LangTypeScript:
		return []string{
			join(dir, stem+".test"+ext),
			join(dir, stem+".spec"+ext),
			join(dir, "__tests__", stem+".test"+ext),
		}
	case LangPython:
		return []string{
			join(dir, "test_"+stem+".py"),
			join(dir, stem+"_test.py"),
			join(dir, "tests", "test_"+stem+".py"),
			join("tests", "test_"+stem+".py"),
		}
	default:
		return nil
	}
}

func firstExisting(root string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if info, err := os.Stat(filepath.Join(root, filepath.FromSlash(c))); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}

func suggestedTestNames(lang Language, symbols []string) []string {
	names := make([]string, len(symbols))
	for i, s := range symbols {
		switch lang {
		case LangGo:
			names[i] = "Test" + strings.ToUpper(s[:1]) + s[1:]
		case LangPython:
			names[i] = "test_" + strings.TrimLeft(s, "_")
		default:
			names[i] = fmt.Sprintf("describe(%q)", s)
		}
	}
	return names
}
