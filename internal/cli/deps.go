package cli

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/macroscope/internal/graph"
	"github.com/spf13/cobra"
)

// newDepsCommand creates the deps command.
func newDepsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Show the dependency graph",
		Long: `Build and display the dependency graph from statically-parsed models.

Nodes are models, sources, and macros; edges connect each model to the
refs, sources, and macro calls found in its template. Output is in
topological order.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeps(cmd)
		},
	}

	return cmd
}

func runDeps(cmd *cobra.Command) error {
	cmdCtx, err := newCommandContext(cmd)
	if err != nil {
		return err
	}

	result, err := cmdCtx.Scanner.Scan(cmd.Context(), cmdCtx.Project)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	g, err := graph.Build(result, cmdCtx.Registry)
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}

	sorted, err := g.TopologicalSort()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Dependency Graph (topological order):")
	fmt.Fprintln(out)

	for _, node := range sorted {
		fmt.Fprintf(out, "  [%s] %s\n", node.Kind, node.ID)
		if deps := g.Dependencies(node.ID); len(deps) > 0 {
			fmt.Fprintf(out, "    depends on: %s\n", strings.Join(deps, ", "))
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Total: %d nodes, %d edges\n", g.NodeCount(), g.EdgeCount())

	return nil
}
