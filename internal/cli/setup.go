package cli

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/macroscope/internal/config"
	"github.com/leapstack-labs/macroscope/internal/loader"
	"github.com/leapstack-labs/macroscope/internal/project"
	"github.com/leapstack-labs/macroscope/internal/registry"
	"github.com/leapstack-labs/macroscope/internal/resolver"
	"github.com/spf13/cobra"
)

// commandContext bundles everything a command needs after setup.
type commandContext struct {
	Config   *config.Config
	Logger   *slog.Logger
	Project  *loader.Project
	Registry *registry.MacroRegistry
	Scanner  *project.Scanner
}

// newCommandContext loads the project, builds the macro registry, and
// wires up a scanner from the loaded configuration.
func newCommandContext(cmd *cobra.Command) (*commandContext, error) {
	cfg := configFrom(cmd.Context())
	logger := loggerFrom(cmd.Context())

	varsRaw, _ := cmd.Root().PersistentFlags().GetString("vars")
	vars, err := config.ParseVars(varsRaw)
	if err != nil {
		return nil, err
	}
	for k, v := range cfg.Vars {
		if _, ok := vars[k]; !ok {
			vars[k] = v
		}
	}

	l := &loader.Loader{
		ProjectName: cfg.ProjectName,
		ModelsDir:   cfg.ModelsDir,
		MacrosDir:   cfg.MacrosDir,
		PackagesDir: cfg.PackagesDir,
	}
	proj, err := l.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	reg := registry.NewMacroRegistry(cfg.Adapter)
	for _, m := range proj.Macros {
		if err := reg.Register(m); err != nil {
			return nil, fmt.Errorf("failed to register macro %s.%s: %w", m.Package, m.Name, err)
		}
	}
	if len(cfg.SearchOrder) > 0 {
		reg.SetSearchOrder(cfg.SearchOrder)
	} else {
		order := append([]string{proj.Name}, proj.Packages...)
		reg.SetSearchOrder(order)
	}

	res := resolver.New(
		resolver.WithCache(resolver.NewParseCache()),
		resolver.WithLookup(reg),
	)

	scanner := &project.Scanner{
		Resolver: res,
		Context:  resolver.Context(vars),
		Logger:   logger,
		Workers:  cfg.Workers,
	}

	logger.Debug("project loaded",
		"models", len(proj.Models),
		"macros", len(proj.Macros),
		"packages", len(proj.Packages))

	return &commandContext{
		Config:   cfg,
		Logger:   logger,
		Project:  proj,
		Registry: reg,
		Scanner:  scanner,
	}, nil
}
