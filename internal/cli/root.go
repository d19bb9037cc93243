// Package cli provides the command-line interface for macroscope.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/macroscope/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// loggerKey is used to store logger in context.
type loggerKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "macroscope",
		Short: "Macroscope - Static Macro Analysis",
		Long: `Macroscope analyzes templated SQL projects without rendering them.

It extracts macro calls, ref/source dependencies, and unrendered config
from model templates, resolves adapter dispatch against the project's
macro packages, and tracks parse state between runs.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				logger.Debug("project root", "dir", cfg.ProjectRoot)
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./macroscope.yaml)")
	rootCmd.PersistentFlags().String("project-dir", "", "Path to the project root")
	rootCmd.PersistentFlags().String("models-dir", "", "Path to models directory")
	rootCmd.PersistentFlags().String("macros-dir", "", "Path to macros directory")
	rootCmd.PersistentFlags().String("packages-dir", "", "Path to dependency packages directory")
	rootCmd.PersistentFlags().String("state", "", "Path to state database")
	rootCmd.PersistentFlags().String("adapter", "", "Adapter type used for dispatch resolution")
	rootCmd.PersistentFlags().String("vars", "", "Template variables as a YAML dictionary")
	rootCmd.PersistentFlags().Int("workers", 0, "Parse worker count (0 = number of CPUs)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(newParseCommand())
	rootCmd.AddCommand(newDepsCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newVersionCommand(Version))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func configFrom(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{}
}

func loggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
