package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newVersionCommand creates the version command.
func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "macroscope v%s\n", version)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Static macro analysis for templated SQL projects")
		},
	}
}
