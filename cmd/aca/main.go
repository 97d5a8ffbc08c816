// Package main provides the CLI entry point for the agentic code analyzer.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/richhaase/agentic-code-analyzer/internal/agent"
	"github.com/richhaase/agentic-code-analyzer/internal/config"
	"github.com/richhaase/agentic-code-analyzer/internal/domain"
	"github.com/richhaase/agentic-code-analyzer/internal/git"
	"github.com/richhaase/agentic-code-analyzer/internal/logging"
	"github.com/richhaase/agentic-code-analyzer/internal/report"
	"github.com/richhaase/agentic-code-analyzer/internal/terminal"
)

// staleWorktreeAge is how old an abandoned aca worktree must be before it is pruned.
const staleWorktreeAge = 24 * time.Hour

var (
	agentNames      string
	sequential      bool
	deadline        time.Duration
	concurrency     int
	depth           string
	format          string
	failOn          string
	minSeverity     string
	excludePatterns []string
	changedSince    string
	worktreeBranch  string
	noConfig        bool
	verbose         bool
	debug           bool
	repeat          int
	interactive     bool
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		// Check if this is an exit code wrapper (not a real error)
		var exitErr exitCodeError
		if errors.As(err, &exitErr) {
			return exitErr.code.Int()
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return domain.ExitError.Int()
	}

	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aca [paths...]",
		Short: "Agentic code analyzer - run analysis agents and merge their findings",
		Long: `Run a set of analysis agents over a project, in parallel or in sequence,
and merge their findings into a single report.

With no paths the current directory is analyzed. A single directory argument
becomes the project root; file arguments are analyzed relative to the
current directory.

Exit codes:
  0 - No findings at or above --fail-on
  1 - Findings at or above --fail-on
  2 - Error
  130 - Interrupted`,
		RunE:          runAnalyze,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       buildVersionString(),
	}

	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Configuration flags (defaults are resolved via config.Resolve with precedence: flag > env > config > default)
	rootCmd.Flags().StringVarP(&agentNames, "agents", "a", "",
		"Agents to run, comma-separated (default: all registered, env: ACA_AGENTS)")
	rootCmd.Flags().BoolVar(&sequential, "sequential", false,
		"Run agents one at a time in registry order (env: ACA_SEQUENTIAL)")
	rootCmd.Flags().DurationVarP(&deadline, "deadline", "t", 0,
		"Deadline for the whole run, e.g. 30s (default: none, env: ACA_DEADLINE)")
	rootCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0,
		"Max agents running at once (default: unlimited, env: ACA_CONCURRENCY)")
	rootCmd.Flags().StringVarP(&depth, "depth", "d", "",
		"Analysis depth: shallow, deep, comprehensive (default: deep, env: ACA_DEPTH)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Print per-agent progress details")

	// Output
	rootCmd.Flags().StringVarP(&format, "format", "f", "",
		"Report format: console, json, markdown (default: console, env: ACA_FORMAT)")
	rootCmd.Flags().StringVar(&failOn, "fail-on", "",
		"Exit 1 when a finding is at least this severity, or 'never' (default: low, env: ACA_FAIL_ON)")
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"Choose which findings to report in an interactive selector")

	// Filtering options
	rootCmd.Flags().StringArrayVar(&excludePatterns, "exclude-pattern", nil,
		"Exclude findings matching regex pattern (repeatable)")
	rootCmd.Flags().StringVar(&minSeverity, "min-severity", "",
		"Hide findings below this severity in the report")
	rootCmd.Flags().StringVar(&changedSince, "changed-since", "",
		"Only analyze files changed since this git ref")

	// Advanced
	rootCmd.Flags().StringVarP(&worktreeBranch, "branch", "B", "",
		"Analyze a branch in a temporary worktree")
	rootCmd.Flags().BoolVar(&noConfig, "no-config", false,
		"Skip loading .aca.yaml config file")
	rootCmd.Flags().BoolVar(&debug, "debug", false,
		"Write structured debug logs to stderr")
	rootCmd.Flags().IntVar(&repeat, "repeat", 1,
		"Run N coordination passes and print agent health")

	setGroupedUsage(rootCmd)

	rootCmd.AddCommand(newAgentsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newIgnoreCmd())

	return rootCmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	terminal.ConfigureColors()

	logger := terminal.NewLogger()

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr)
			logger.Log("Interrupted, shutting down...", terminal.StyleWarning)
			cancel()
		case <-ctx.Done():
		}
	}()

	if repeat < 1 {
		logger.Log("--repeat must be >= 1", terminal.StyleError)
		return exitCode(domain.ExitError)
	}

	cwd, err := os.Getwd()
	if err != nil {
		logger.Logf(terminal.StyleError, "%v", err)
		return exitCode(domain.ExitError)
	}
	stateDir := stateRoot(ctx, cwd)

	// Handle worktree-based analysis
	baseDir := cwd
	if worktreeBranch != "" {
		if err := git.ValidateRef(worktreeBranch); err != nil {
			logger.Logf(terminal.StyleError, "%v", err)
			return exitCode(domain.ExitError)
		}
		repoRoot, err := git.GetRoot(ctx, cwd)
		if err != nil {
			logger.Logf(terminal.StyleError, "--branch requires a git repository: %v", err)
			return exitCode(domain.ExitError)
		}
		if pruned, err := git.PruneStaleWorktrees(ctx, repoRoot, staleWorktreeAge); err != nil {
			logger.Logf(terminal.StyleWarning, "Could not prune stale worktrees: %v", err)
		} else if pruned > 0 && verbose {
			logger.Logf(terminal.StyleDim, "Pruned %d stale worktree(s)", pruned)
		}

		logger.Logf(terminal.StyleInfo, "Creating worktree for %s%s%s",
			terminal.Color(terminal.Bold), worktreeBranch, terminal.Color(terminal.Reset))
		wt, err := createWorktree(ctx, repoRoot, worktreeBranch)
		if err != nil {
			logger.Logf(terminal.StyleError, "%v", err)
			return exitCode(domain.ExitError)
		}
		defer func() {
			logger.Log("Cleaning up worktree", terminal.StyleDim)
			_ = wt.Remove()
		}()

		logger.Logf(terminal.StyleSuccess, "Worktree ready %s(%s)%s",
			terminal.Color(terminal.Dim), wt.Path, terminal.Color(terminal.Reset))
		baseDir = wt.Path
	}

	projectPath, files, err := resolveTarget(baseDir, args)
	if err != nil {
		logger.Logf(terminal.StyleError, "%v", err)
		return exitCode(domain.ExitError)
	}

	// Load config file (unless --no-config)
	// When using a worktree, load config from the worktree (branch-specific settings)
	var cfg *config.Config
	if !noConfig {
		result, err := config.LoadWithWarnings(ctx, projectPath)
		if err != nil {
			logger.Logf(terminal.StyleError, "Config error: %v", err)
			return exitCode(domain.ExitError)
		}
		cfg = result.Config
		for _, warning := range result.Warnings {
			logger.Logf(terminal.StyleWarning, "Warning: %s", warning)
		}
	}

	// Build flag state from cobra's Changed() method
	flagState := config.FlagState{
		AgentsSet:      cmd.Flags().Changed("agents"),
		SequentialSet:  cmd.Flags().Changed("sequential"),
		DeadlineSet:    cmd.Flags().Changed("deadline"),
		ConcurrencySet: cmd.Flags().Changed("concurrency"),
		DepthSet:       cmd.Flags().Changed("depth"),
		FormatSet:      cmd.Flags().Changed("format"),
		FailOnSet:      cmd.Flags().Changed("fail-on"),
		MinSeveritySet: cmd.Flags().Changed("min-severity"),
	}

	envState, envWarnings := config.LoadEnvState()
	for _, warning := range envWarnings {
		logger.Logf(terminal.StyleWarning, "Warning: %s", warning)
	}

	flagValues := config.ResolvedConfig{
		Agents:      agent.ParseAgentNames(agentNames),
		Sequential:  sequential,
		Deadline:    deadline,
		Concurrency: concurrency,
		Depth:       depth,
		Format:      format,
		FailOn:      failOn,
		MinSeverity: minSeverity,
	}

	// Resolve final configuration (precedence: flags > env vars > config file > defaults)
	resolved := config.Resolve(cfg, envState, flagState, flagValues)
	if problems := resolved.ValidateAll(); len(problems) > 0 {
		for _, p := range problems {
			logger.Log(p, terminal.StyleError)
		}
		return exitCode(domain.ExitError)
	}

	opts, err := buildAnalyzeOpts(resolved, cfg)
	if err != nil {
		logger.Logf(terminal.StyleError, "%v", err)
		return exitCode(domain.ExitError)
	}
	opts.ProjectPath = projectPath
	opts.Files = files
	opts.StateDir = stateDir
	opts.Repeat = repeat
	opts.Interactive = interactive
	opts.Verbose = verbose

	if changedSince != "" {
		if len(files) > 0 {
			logger.Log("--changed-since cannot be combined with file arguments", terminal.StyleError)
			return exitCode(domain.ExitError)
		}
		changed, err := git.ChangedFiles(ctx, changedSince, projectPath)
		if err != nil {
			logger.Logf(terminal.StyleError, "Failed to list changed files: %v", err)
			return exitCode(domain.ExitError)
		}
		if len(changed) == 0 {
			logger.Logf(terminal.StyleSuccess, "No changes since %s. Nothing to analyze.", changedSince)
			return nil
		}
		if verbose {
			logger.Logf(terminal.StyleDim, "%d file(s) changed since %s", len(changed), changedSince)
		}
		opts.Files = changed
	}

	structured := logging.Logger(logging.NoOpLogger{})
	if debug {
		zl := logging.New(os.Stderr, true)
		defer func() { _ = zl.Sync() }()
		structured = zl
	}
	opts.Logger = structured

	code := executeAnalysis(ctx, opts, logger)
	return exitCode(code)
}

// buildAnalyzeOpts converts resolved settings into analysis options.
// The resolved values are assumed to have passed ValidateAll.
func buildAnalyzeOpts(resolved config.ResolvedConfig, cfg *config.Config) (AnalyzeOpts, error) {
	d, err := domain.ParseDepth(resolved.Depth)
	if err != nil {
		return AnalyzeOpts{}, err
	}
	f, err := report.ParseFormat(resolved.Format)
	if err != nil {
		return AnalyzeOpts{}, err
	}
	threshold, err := config.ParseFailOn(resolved.FailOn)
	if err != nil {
		return AnalyzeOpts{}, fmt.Errorf("fail_on: %w", err)
	}
	var minSev domain.Severity
	if resolved.MinSeverity != "" {
		minSev, err = domain.ParseSeverity(resolved.MinSeverity)
		if err != nil {
			return AnalyzeOpts{}, fmt.Errorf("min_severity: %w", err)
		}
	}

	return AnalyzeOpts{
		Agents:          resolved.Agents,
		Sequential:      resolved.Sequential,
		Deadline:        resolved.Deadline,
		Concurrency:     resolved.Concurrency,
		Depth:           d,
		Format:          f,
		FailOn:          threshold,
		MinSeverity:     minSev,
		ExcludePatterns: config.Merge(cfg, excludePatterns),
		Static:          config.StaticOptions(cfg),
		Commands:        config.CommandSpecs(cfg),
	}, nil
}

// createWorktree creates the worktree while a phase spinner runs.
func createWorktree(ctx context.Context, repoRoot, ref string) (*git.Worktree, error) {
	spinner := terminal.NewPhaseSpinner("Checking out " + ref)
	spinnerCtx, spinnerCancel := context.WithCancel(ctx)
	spinnerDone := make(chan struct{})
	go func() {
		spinner.Run(spinnerCtx)
		close(spinnerDone)
	}()

	wt, err := git.CreateWorktree(ctx, repoRoot, ref)
	spinnerCancel()
	<-spinnerDone
	return wt, err
}
