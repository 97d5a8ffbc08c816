package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

// RuleParseErrors is the rule id for the summary finding emitted when an
// external analyzer printed output the parser could not interpret.
const RuleParseErrors = "tool.parse-errors"

// CommandSpec configures an external analyzer agent.
type CommandSpec struct {
	Name         string
	Command      string
	Args         []string
	Parser       string
	Capabilities []Capability
	Env          []string
}

// Validate checks that the spec can be turned into an agent.
func (s CommandSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("command agent: name is required")
	}
	if strings.TrimSpace(s.Command) == "" {
		return fmt.Errorf("command agent %q: command is required", s.Name)
	}
	if _, err := ParserFor(s.Parser); err != nil {
		return fmt.Errorf("command agent %q: %w", s.Name, err)
	}
	return nil
}

// CommandAgent runs an external analyzer CLI in the project directory and
// converts its output to findings.
//
// The literal argument "{files}" is replaced by the context's file list,
// or "." when the context asks for discovery.
type CommandAgent struct {
	spec   CommandSpec
	parser OutputParser
}

// NewCommandAgent creates a command agent from spec.
func NewCommandAgent(spec CommandSpec) (*CommandAgent, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	parser, _ := ParserFor(spec.Parser)
	return &CommandAgent{spec: spec, parser: parser}, nil
}

func (a *CommandAgent) Name() string { return a.spec.Name }

func (a *CommandAgent) Capabilities() []Capability {
	caps := []Capability{CapabilityExternalTool}
	for _, c := range a.spec.Capabilities {
		if c != CapabilityExternalTool {
			caps = append(caps, c)
		}
	}
	return caps
}

func (a *CommandAgent) Analyze(ctx context.Context, actx domain.AnalysisContext) (domain.AnalysisReport, error) {
	start := time.Now()

	root, err := projectRoot(actx.ProjectPath)
	if err != nil {
		return domain.AnalysisReport{}, err
	}

	files := actx.Files
	var problems []domain.Finding
	if len(files) > 0 {
		var outside []string
		files, outside = explicitPaths(root, files)
		for _, f := range outside {
			problems = append(problems, outsideProjectFinding(f))
		}
		if len(files) == 0 {
			return domain.NewAnalysisReport(a.Name(), problems, time.Since(start)), nil
		}
	}

	result, err := executeCommand(ctx, execSpec{
		Command: a.spec.Command,
		Args:    expandArgs(a.spec.Args, files),
		Dir:     root,
		Env:     a.spec.Env,
	})
	if err != nil {
		return domain.AnalysisReport{}, err
	}

	findings, parseErrors, parseErr := a.parser.Parse(result, root)
	closeErr := result.Close()

	if err := ctx.Err(); err != nil {
		return domain.AnalysisReport{}, err
	}
	if closeErr != nil {
		return domain.AnalysisReport{}, fmt.Errorf("%s: %w", a.spec.Command, closeErr)
	}
	// Linters exit non-zero when they find something; only treat the exit
	// code as a failure when nothing usable came back.
	if len(findings) == 0 && (parseErr != nil || result.ExitCode() != 0) {
		return domain.AnalysisReport{}, a.failure(result, parseErr)
	}

	for i := range findings {
		if findings[i].RuleID == "" {
			findings[i].RuleID = a.spec.Name
		}
	}
	if parseErrors > 0 {
		findings = append(findings, domain.Finding{
			Category: domain.CategoryQuality,
			Severity: domain.SeverityInfo,
			Location: domain.Location{Path: "."},
			Message:  fmt.Sprintf("%s: %d output line(s) could not be parsed", a.spec.Command, parseErrors),
			RuleID:   RuleParseErrors,
		})
	}

	findings = append(findings, problems...)

	return domain.NewAnalysisReport(a.Name(), findings, time.Since(start)), nil
}

func (a *CommandAgent) failure(result *ExecutionResult, parseErr error) error {
	msg := fmt.Sprintf("%s exited with code %d", a.spec.Command, result.ExitCode())
	if stderr := strings.TrimSpace(result.Stderr()); stderr != "" {
		msg += ": " + firstLine(stderr)
	}
	if parseErr != nil {
		return fmt.Errorf("%s: %w", msg, parseErr)
	}
	return errors.New(msg)
}

func expandArgs(args, files []string) []string {
	out := make([]string, 0, len(args)+len(files))
	for _, arg := range args {
		if arg != "{files}" {
			out = append(out, arg)
			continue
		}
		if len(files) == 0 {
			out = append(out, ".")
			continue
		}
		for _, f := range files {
			out = append(out, filepath.FromSlash(f))
		}
	}
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
