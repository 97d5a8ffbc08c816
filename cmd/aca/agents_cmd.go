package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/richhaase/agentic-code-analyzer/internal/agent"
	"github.com/richhaase/agentic-code-analyzer/internal/config"
)

func newAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List registered agents",
		Long:  "List the built-in agents and the command agents declared in .aca.yaml, in registry order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			result, err := config.LoadWithWarnings(cmd.Context(), cwd)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}

			registry, err := agent.NewDefaultRegistry(agent.DefaultOptions{
				Static:   config.StaticOptions(result.Config),
				Commands: config.CommandSpecs(result.Config),
			})
			if err != nil {
				return err
			}

			printAgents(cmd.OutOrStdout(), registry)
			return nil
		},
	}
}

func printAgents(w io.Writer, registry *agent.Registry) {
	fmt.Fprintf(w, "Registered agents (%d):\n\n", registry.Len())
	for _, a := range registry.List() {
		caps := make([]string, 0, len(a.Capabilities()))
		for _, c := range a.Capabilities() {
			caps = append(caps, string(c))
		}
		fmt.Fprintf(w, "  %-16s %s\n", a.Name(), strings.Join(caps, ", "))
	}
}
