package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
	"github.com/richhaase/agentic-code-analyzer/internal/fpcache"
	"github.com/richhaase/agentic-code-analyzer/internal/terminal"
)

func newIgnoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ignore",
		Short: "Manage ignored findings",
		Long: `Maintain .aca/ignore, the list of findings suppressed from reports.

Each line is a finding key, a rule id, or text contained in a finding message.`,
	}

	cmd.AddCommand(newIgnoreAddCmd())
	cmd.AddCommand(newIgnoreListCmd())
	cmd.AddCommand(newIgnorePickCmd())

	return cmd
}

func newIgnoreAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <rule-or-text>...",
		Short: "Add patterns to .aca/ignore",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := terminal.NewLogger()
			path, err := ignorePath(cmd)
			if err != nil {
				return err
			}

			added, err := fpcache.AddIgnorePatterns(path, args)
			if err != nil {
				return err
			}
			logAdded(logger, added)
			return nil
		},
	}
}

func newIgnoreListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List patterns in .aca/ignore",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ignorePath(cmd)
			if err != nil {
				return err
			}
			patterns, err := fpcache.LoadIgnoreFile(path)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(patterns) == 0 {
				fmt.Fprintln(w, "No ignore patterns.")
				return nil
			}
			for _, p := range patterns {
				fmt.Fprintln(w, p)
			}
			return nil
		},
	}
}

func newIgnorePickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Pick findings from the last run to ignore",
		Long: `Launch an interactive picker to choose findings to ignore.
Reads findings from .aca/last-run.json and saves selections to .aca/ignore.

Requires a previous analysis run to have generated the last-run file.`,
		Args: cobra.NoArgs,
		RunE: runIgnorePick,
	}
}

func runIgnorePick(cmd *cobra.Command, _ []string) error {
	logger := terminal.NewLogger()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	root := stateRoot(cmd.Context(), cwd)

	logger.Log("Loading findings from last analysis run", terminal.StyleInfo)
	lastRun, err := fpcache.LoadLastRun(fpcache.LastRunPath(root))
	if err != nil {
		logger.Logf(terminal.StyleError, "Error: %v", err)
		logger.Log("Hint: Run 'aca' first to generate findings", terminal.StyleDim)
		return exitCode(domain.ExitError)
	}

	if len(lastRun.Findings) == 0 {
		logger.Log("No findings from last run", terminal.StyleInfo)
		return nil
	}

	logger.Logf(terminal.StyleInfo, "Found %d findings from last run", len(lastRun.Findings))

	path := fpcache.IgnorePath(root)
	existing, err := fpcache.LoadIgnoreFile(path)
	if err != nil {
		logger.Logf(terminal.StyleError, "Failed to load ignore file: %v", err)
		return exitCode(domain.ExitError)
	}

	selected, err := fpcache.RunPicker(lastRun.Findings, existing)
	if err != nil {
		logger.Logf(terminal.StyleError, "Picker error: %v", err)
		return exitCode(domain.ExitError)
	}
	if selected == nil {
		logger.Log("Canceled", terminal.StyleWarning)
		return nil
	}

	added, err := fpcache.AddIgnorePatterns(path, selected)
	if err != nil {
		logger.Logf(terminal.StyleError, "Failed to save ignore file: %v", err)
		return exitCode(domain.ExitError)
	}
	logAdded(logger, added)
	return nil
}

func ignorePath(cmd *cobra.Command) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return fpcache.IgnorePath(stateRoot(cmd.Context(), cwd)), nil
}

func logAdded(logger *terminal.Logger, added int) {
	switch added {
	case 0:
		logger.Log("Nothing new added (all already in .aca/ignore)", terminal.StyleInfo)
	case 1:
		logger.Log("Added 1 pattern to .aca/ignore", terminal.StyleSuccess)
	default:
		logger.Logf(terminal.StyleSuccess, "Added %d patterns to .aca/ignore", added)
	}
}
