package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/macroscope/internal/project"
	"github.com/leapstack-labs/macroscope/internal/state"
	"github.com/spf13/cobra"
)

// newParseCommand creates the parse command.
func newParseCommand() *cobra.Command {
	var noState bool

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Statically parse all models",
		Long: `Parse every model template without rendering it.

For each model, extracts the macro calls it makes, the refs and sources
it depends on, and its unrendered config. Results are persisted to the
state database so subsequent parses can report config changes.`,
		Example: `  # Parse the project in the current directory
  macroscope parse

  # Parse with template variables
  macroscope parse --vars '{audit: true}'

  # Parse without touching the state database
  macroscope parse --no-state`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runParse(cmd, noState)
		},
	}

	cmd.Flags().BoolVar(&noState, "no-state", false, "Skip state persistence and change detection")

	return cmd
}

func runParse(cmd *cobra.Command, noState bool) error {
	cmdCtx, err := newCommandContext(cmd)
	if err != nil {
		return err
	}

	result, err := cmdCtx.Scanner.Scan(cmd.Context(), cmdCtx.Project)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	renderParseTable(cmd, result)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Parsed %d models (%d template parses)\n",
		len(result.Models), cmdCtx.Scanner.Resolver.ParseCount())

	if noState {
		return nil
	}

	changed, err := persistParse(cmdCtx, result)
	if err != nil {
		return err
	}
	if len(changed) > 0 {
		fmt.Fprintf(out, "Config changed since last parse: %s\n", strings.Join(changed, ", "))
	}

	return nil
}

func renderParseTable(cmd *cobra.Command, result *project.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Model", "Macro Calls", "Refs", "Sources", "Config"})

	for _, m := range result.Models {
		var calls []string
		for _, call := range m.MacroCalls {
			calls = append(calls, call.Name)
		}

		var refs []string
		for _, ref := range m.Refs {
			if ref.Package != "" {
				refs = append(refs, ref.Package+"."+ref.Name)
			} else {
				refs = append(refs, ref.Name)
			}
		}

		var sources []string
		for _, src := range m.Sources {
			sources = append(sources, src[0]+"."+src[1])
		}

		keys := make([]string, 0, len(m.Config))
		for k := range m.Config {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		t.AppendRow(table.Row{
			m.Path,
			strings.Join(calls, ", "),
			strings.Join(refs, ", "),
			strings.Join(sources, ", "),
			strings.Join(keys, ", "),
		})
	}

	t.Render()
}

// persistParse writes the scan result to the state database and returns
// the paths of models whose config changed since the previous parse.
func persistParse(cmdCtx *commandContext, result *project.Result) ([]string, error) {
	statePath := cmdCtx.Config.StatePath
	if dir := filepath.Dir(statePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.New()
	if err := store.Open(statePath); err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return nil, err
	}

	parse, err := store.BeginParse(cmdCtx.Config.ProjectName)
	if err != nil {
		return nil, err
	}

	var changed []string
	for _, m := range result.Models {
		isChanged, err := store.ConfigChanged(m.Path, m.Config)
		if err != nil {
			return nil, err
		}
		if isChanged {
			changed = append(changed, m.Path)
		}

		rec := state.ModelRecord{
			Path:   m.Path,
			Name:   m.Name,
			Config: m.Config,
		}
		for _, call := range m.MacroCalls {
			var types []string
			for _, at := range call.ArgTypes {
				types = append(types, at.String())
			}
			rec.MacroCalls = append(rec.MacroCalls, state.MacroEdge{
				MacroName: call.Name,
				ArgTypes:  types,
			})
		}
		if err := store.SaveModel(parse.ID, rec); err != nil {
			return nil, err
		}
	}

	if err := store.FinishParse(parse, len(result.Models)); err != nil {
		return nil, err
	}

	cmdCtx.Logger.Debug("parse persisted", "id", parse.ID, "models", len(result.Models))

	return changed, nil
}
