package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/richhaase/agentic-code-analyzer/internal/agent"
	"github.com/richhaase/agentic-code-analyzer/internal/coordinator"
	"github.com/richhaase/agentic-code-analyzer/internal/domain"
	"github.com/richhaase/agentic-code-analyzer/internal/filter"
	"github.com/richhaase/agentic-code-analyzer/internal/fpcache"
	"github.com/richhaase/agentic-code-analyzer/internal/health"
	"github.com/richhaase/agentic-code-analyzer/internal/logging"
	"github.com/richhaase/agentic-code-analyzer/internal/report"
	"github.com/richhaase/agentic-code-analyzer/internal/terminal"
)

// AnalyzeOpts holds the resolved options for one `aca` run.
type AnalyzeOpts struct {
	ProjectPath string
	Files       []string

	Agents      []string
	Sequential  bool
	Deadline    time.Duration
	Concurrency int
	Depth       domain.Depth

	Format          report.Format
	FailOn          domain.Severity
	MinSeverity     domain.Severity
	ExcludePatterns []string

	Static   agent.StaticOptions
	Commands []agent.CommandSpec

	// StateDir holds the .aca directory (ignore file, last run).
	StateDir    string
	Repeat      int
	Interactive bool
	Verbose     bool
	Logger      logging.Logger
	// Out receives the rendered report. Nil means stdout.
	Out io.Writer
}

func executeAnalysis(ctx context.Context, opts AnalyzeOpts, logger *terminal.Logger) domain.ExitCode {
	registry, err := agent.NewDefaultRegistry(agent.DefaultOptions{
		Static:   opts.Static,
		Commands: opts.Commands,
	})
	if err != nil {
		logger.Logf(terminal.StyleError, "Failed to register agents: %v", err)
		return domain.ExitError
	}

	selected := registry.List()
	if len(opts.Agents) > 0 {
		selected, err = registry.Resolve(opts.Agents)
		if err != nil {
			logger.Logf(terminal.StyleError, "Invalid agent: %v", err)
			return domain.ExitError
		}
	}

	mode := "parallel"
	if opts.Sequential {
		mode = "sequential"
	}
	logger.Logf(terminal.StyleInfo, "Starting analysis %s(%d agents, %s, depth=%s)%s",
		terminal.Color(terminal.Dim), len(selected), mode, opts.Depth, terminal.Color(terminal.Reset))
	if opts.Verbose {
		logger.Logf(terminal.StyleDim, "Agents: %s", strings.Join(agentNamesOf(selected), ", "))
		if len(opts.Files) > 0 {
			logger.Logf(terminal.StyleDim, "Analyzing %d file(s) in %s", len(opts.Files), opts.ProjectPath)
		}
	}

	exclude, err := filter.New(opts.ExcludePatterns)
	if err != nil {
		logger.Logf(terminal.StyleError, "%v", err)
		return domain.ExitError
	}

	ignorePatterns, err := fpcache.LoadIgnoreFile(fpcache.IgnorePath(opts.StateDir))
	if err != nil {
		logger.Logf(terminal.StyleWarning, "Could not read ignore file: %v", err)
	}

	req := coordinator.Request{
		Context:    domain.NewAnalysisContext(opts.ProjectPath, opts.Files, opts.Depth),
		AgentNames: opts.Agents,
		Sequential: opts.Sequential,
		Deadline:   opts.Deadline,
	}

	var monitor *health.Monitor
	if opts.Repeat > 1 {
		monitor = health.NewMonitor(opts.Repeat, health.Thresholds{})
	}

	var result *domain.CoordinationResult
	for pass := 1; pass <= opts.Repeat; pass++ {
		if opts.Repeat > 1 {
			logger.Logf(terminal.StyleInfo, "Pass %d/%d", pass, opts.Repeat)
		}
		result, err = runPass(ctx, registry, req, opts, len(selected))
		if err != nil {
			return logCoordinationError(logger, err)
		}
		if ctx.Err() != nil {
			return domain.ExitInterrupted
		}
		if monitor != nil {
			monitor.Record(result)
		}
	}

	if result.Summary.AgentsRun > 0 && result.AllFailed() {
		for _, r := range result.FailedReports() {
			logger.Logf(terminal.StyleError, "%s: %s", r.AgentName, r.Error.Message)
		}
		logger.Log("All agents failed", terminal.StyleError)
		return domain.ExitError
	}

	if opts.Verbose {
		for _, r := range result.FailedReports() {
			logger.Logf(terminal.StyleWarning, "%s failed (%s): %s", r.AgentName, r.Error.Kind, r.Error.Message)
		}
	}

	result, excluded := exclude.Apply(result)
	if excluded > 0 && opts.Verbose {
		logger.Logf(terminal.StyleDim, "Excluded %d finding(s) matching exclude patterns", excluded)
	}

	// The last run keeps ignored findings so the picker can show them as already ignored.
	if err := fpcache.SaveLastRun(fpcache.LastRunPath(opts.StateDir), result); err != nil {
		logger.Logf(terminal.StyleWarning, "Could not save last run: %v", err)
	}

	result, ignored := fpcache.ApplyIgnoreFilter(result, ignorePatterns)

	if opts.Interactive {
		result = selectFindings(result, logger)
	}

	data := report.FromResult(result, report.Options{
		MinSeverity:  opts.MinSeverity,
		IgnoredCount: ignored,
	})
	out, err := report.DefaultGenerator{}.Generate(data, opts.Format)
	if err != nil {
		logger.Logf(terminal.StyleError, "Failed to render report: %v", err)
		return domain.ExitError
	}
	w := opts.Out
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprint(w, out)

	if monitor != nil {
		logHealth(logger, monitor.Snapshot())
	}

	return findingsExitCode(result, opts.FailOn)
}

// runPass runs one coordination pass with a progress spinner.
func runPass(ctx context.Context, registry *agent.Registry, req coordinator.Request, opts AnalyzeOpts, total int) (*domain.CoordinationResult, error) {
	spinner := terminal.NewSpinner(total)
	spinnerCtx, spinnerCancel := context.WithCancel(ctx)
	spinnerDone := make(chan struct{})
	go func() {
		spinner.Run(spinnerCtx)
		close(spinnerDone)
	}()

	coord := coordinator.New(registry,
		coordinator.WithLogger(opts.Logger),
		coordinator.WithConcurrency(opts.Concurrency),
		coordinator.WithProgress(spinner.Completed()),
	)
	result, err := coord.Coordinate(ctx, req)

	spinnerCancel()
	<-spinnerDone
	return result, err
}

func logCoordinationError(logger *terminal.Logger, err error) domain.ExitCode {
	var notFound *domain.AgentNotFoundError
	switch {
	case errors.As(err, &notFound):
		logger.Logf(terminal.StyleError, "Invalid agent: %v", err)
	case errors.Is(err, domain.ErrInvalidContext):
		logger.Logf(terminal.StyleError, "Invalid analysis request: %v", err)
	default:
		logger.Logf(terminal.StyleError, "Analysis failed: %v", err)
	}
	return domain.ExitError
}

// selectFindings lets the user pick which findings to keep in the report.
// On cancel, or without a terminal, the result is returned unchanged.
func selectFindings(result *domain.CoordinationResult, logger *terminal.Logger) *domain.CoordinationResult {
	if !terminal.IsStdinTTY() {
		logger.Log("--interactive requires a terminal; reporting all findings", terminal.StyleWarning)
		return result
	}
	aggregated := domain.AggregateFindings(result.Reports)
	if len(aggregated) == 0 {
		return result
	}

	chosen, ok, err := terminal.RunSelector(aggregated)
	if err != nil {
		logger.Logf(terminal.StyleWarning, "%v; reporting all findings", err)
		return result
	}
	if !ok {
		logger.Log("Selection canceled; reporting all findings", terminal.StyleWarning)
		return result
	}

	kept, dropped := filter.Result(result, keepSelected(chosen))
	if dropped > 0 {
		logger.Logf(terminal.StyleDim, "Dropped %d unselected finding(s)", dropped)
	}
	return kept
}

func logHealth(logger *terminal.Logger, snapshot []health.AgentHealth) {
	logger.Log("Agent health:", terminal.StyleInfo)
	for _, h := range snapshot {
		style := terminal.StyleSuccess
		switch h.Status {
		case health.StatusDegraded:
			style = terminal.StyleWarning
		case health.StatusFailing:
			style = terminal.StyleError
		}
		logger.Logf(style, "  %-16s %-9s failures %d/%d, mean %s, trend %s",
			h.Name, h.Status, h.Failures, h.Samples,
			terminal.FormatDuration(h.MeanExecutionTime), h.Trend)
	}
}

func agentNamesOf(agents []agent.Agent) []string {
	names := make([]string, 0, len(agents))
	for _, a := range agents {
		names = append(names, a.Name())
	}
	return names
}
