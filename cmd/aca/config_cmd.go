package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/richhaase/agentic-code-analyzer/internal/config"
	"github.com/richhaase/agentic-code-analyzer/internal/terminal"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage aca configuration",
		Long:  "View, initialize, and validate aca configuration files and environment variables.",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigValidateCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display resolved configuration",
		Long:  "Show the fully resolved configuration from defaults, config file, and environment variables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			result, err := config.LoadWithWarnings(cmd.Context(), cwd)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}

			envState, _ := config.LoadEnvState()

			resolved := config.Resolve(result.Config, envState, config.FlagState{}, config.Defaults)
			static := config.StaticOptions(result.Config)

			w := cmd.OutOrStdout()
			agents := "(all registered)"
			if len(resolved.Agents) > 0 {
				agents = strings.Join(resolved.Agents, ", ")
			}
			deadline := "(none)"
			if resolved.Deadline > 0 {
				deadline = resolved.Deadline.String()
			}
			minSeverity := "(show all)"
			if resolved.MinSeverity != "" {
				minSeverity = resolved.MinSeverity
			}

			fmt.Fprintln(w, "Resolved configuration:")
			fmt.Fprintln(w)
			fmt.Fprintf(w, "  %-24s %s\n", "agents:", agents)
			fmt.Fprintf(w, "  %-24s %t\n", "sequential:", resolved.Sequential)
			fmt.Fprintf(w, "  %-24s %s\n", "deadline:", deadline)
			fmt.Fprintf(w, "  %-24s %d\n", "concurrency:", resolved.Concurrency)
			fmt.Fprintf(w, "  %-24s %s\n", "depth:", resolved.Depth)
			fmt.Fprintf(w, "  %-24s %s\n", "format:", resolved.Format)
			fmt.Fprintf(w, "  %-24s %s\n", "fail_on:", resolved.FailOn)
			fmt.Fprintf(w, "  %-24s %s\n", "filters.min_severity:", minSeverity)
			fmt.Fprintf(w, "  %-24s %d\n", "filters.exclude_patterns:", len(config.Merge(result.Config, nil)))
			fmt.Fprintf(w, "  %-24s %s\n", "static.disabled_rules:", strings.Join(static.DisabledRules, ", "))
			fmt.Fprintf(w, "  %-24s %d\n", "command_agents:", len(result.Config.CommandAgents))

			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a starter .aca.yaml file",
		Long:  "Create a commented .aca.yaml configuration file in the git repository root, or the current directory outside a repository.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			// Write to the same location runtime loading uses
			configPath := filepath.Join(stateRoot(cmd.Context(), cwd), config.ConfigFileName)

			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists; remove it first or edit it directly", configPath)
			}

			if err := os.WriteFile(configPath, []byte(config.Starter), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", configPath, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s with default settings (commented out).\n", configPath)
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and environment variables",
		Long:  "Load and validate the config file and environment variables, reporting any warnings or errors.",
		RunE: func(cmd *cobra.Command, args []string) error {
			terminal.ConfigureColors()
			logger := terminal.NewLogger()
			var errors []string
			var warnings []string

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			// Load and validate config file (don't early-return so env var issues are also reported)
			cfg := &config.Config{}
			configFileError := false
			result, err := config.LoadWithWarnings(cmd.Context(), cwd)
			if err != nil {
				errors = append(errors, fmt.Sprintf("config file: %v", err))
				configFileError = true
			}
			if result != nil {
				cfg = result.Config
				warnings = append(warnings, result.Warnings...)
			}

			// Env var parse issues are warnings at runtime but errors here,
			// since the user should fix their environment configuration.
			envState, envWarnings := config.LoadEnvState()
			errors = append(errors, envWarnings...)

			// When the config file has errors, resolve env vars against defaults only
			// to avoid duplicating config-file errors.
			resolveConfig := cfg
			if configFileError {
				resolveConfig = &config.Config{}
			}
			resolved := config.Resolve(resolveConfig, envState, config.FlagState{}, config.Defaults)
			errors = append(errors, resolved.ValidateAll()...)

			for _, w := range warnings {
				logger.Logf(terminal.StyleWarning, "Config: %s", w)
			}
			for _, e := range errors {
				logger.Logf(terminal.StyleError, "%s", e)
			}

			if len(errors) > 0 {
				return fmt.Errorf("configuration has %d error(s)", len(errors))
			}

			if len(warnings) > 0 {
				logger.Log("Configuration is valid (with warnings).", terminal.StyleSuccess)
			} else {
				logger.Log("Configuration is valid.", terminal.StyleSuccess)
			}

			return nil
		},
	}
}
