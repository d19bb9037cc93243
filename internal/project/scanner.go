// Package project runs the parse phase over a whole project: every model
// template is statically analyzed for macro calls, ref/source dependencies
// and unrendered config, with no rendering and no database connection.
package project

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/macroscope/internal/extract"
	"github.com/leapstack-labs/macroscope/internal/loader"
	"github.com/leapstack-labs/macroscope/internal/resolver"
	"github.com/leapstack-labs/macroscope/internal/template"
)

// ParsedModel is the parse-time analysis of one model.
type ParsedModel struct {
	Name     string
	Path     string
	FilePath string

	// MacroCalls are the statically-detected macro invocations.
	MacroCalls []*resolver.MacroCall
	// Refs and Sources are the model's declared upstream dependencies.
	Refs    []extract.RefArgs
	Sources [][2]string
	// Config is the unrendered config snapshot, nil when the model has
	// no config() call.
	Config map[string]string
}

// Result holds the analysis of a whole project.
type Result struct {
	Project *loader.Project
	Models  []*ParsedModel
}

// Scanner parses all models of a project concurrently. Models are
// independent: one worker handles one template, and a failure in any model
// fails the scan.
type Scanner struct {
	Resolver *resolver.Resolver
	Context  resolver.Context
	Logger   *slog.Logger
	// Workers caps parse concurrency; 0 means GOMAXPROCS.
	Workers int
}

// Scan analyzes every model in the project.
func (s *Scanner) Scan(ctx context.Context, proj *loader.Project) (*Result, error) {
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	parsed := make([]*ParsedModel, len(proj.Models))
	for i, model := range proj.Models {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pm, err := s.parseModel(model)
			if err != nil {
				return fmt.Errorf("%s: %w", model.Path, err)
			}
			parsed[i] = pm
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{Project: proj, Models: parsed}, nil
}

// parseModel runs the static analyses over one model template.
func (s *Scanner) parseModel(model *loader.ModelFile) (*ParsedModel, error) {
	pm := &ParsedModel{
		Name:     model.Name,
		Path:     model.Path,
		FilePath: model.FilePath,
	}

	calls, err := s.Resolver.ResolveCalls(model.SQL, s.Context)
	if err != nil {
		return nil, err
	}
	pm.MacroCalls = calls

	cfg, err := s.Resolver.ExtractUnrenderedConfig(model.SQL)
	if err != nil {
		return nil, err
	}
	pm.Config = cfg

	// Fast path first; templates the restricted extractor cannot handle
	// fall back to the already-parsed AST.
	extracted, err := extract.FromSource(model.SQL)
	if err == nil {
		pm.Refs = extracted.Refs
		pm.Sources = extracted.Sources
		return pm, nil
	}

	if s.Logger != nil {
		s.Logger.Debug("fast extraction failed, using full parse",
			"model", model.Path, "reason", err)
	}
	refs, sources, err := s.refsFromParse(model.SQL)
	if err != nil {
		return nil, err
	}
	pm.Refs = refs
	pm.Sources = sources
	return pm, nil
}

// refsFromParse recovers ref/source dependencies from the full template
// AST, keeping only calls whose arguments are literal strings. Non-literal
// arguments reduce precision, never fail the parse.
func (s *Scanner) refsFromParse(text string) ([]extract.RefArgs, [][2]string, error) {
	tpl, err := template.Parse(text, "")
	if err != nil {
		return nil, nil, err
	}

	var refs []extract.RefArgs
	var sources [][2]string
	for _, call := range tpl.FindCalls() {
		name, ok := call.Func.(*template.NameExpr)
		if !ok {
			continue
		}
		switch name.Name {
		case "ref":
			if ref, ok := refFromCall(call); ok {
				refs = append(refs, ref)
			}
		case "source":
			if src, ok := sourceFromCall(call); ok {
				sources = append(sources, src)
			}
		}
	}
	return refs, sources, nil
}

func refFromCall(call *template.CallExpr) (extract.RefArgs, bool) {
	var ref extract.RefArgs

	args := literalStrings(call.Args)
	if args == nil {
		return ref, false
	}
	switch len(args) {
	case 1:
		ref.Name = args[0]
	case 2:
		ref.Package = args[0]
		ref.Name = args[1]
	default:
		return ref, false
	}

	for _, kw := range call.Kwargs {
		if kw.Name != "version" && kw.Name != "v" {
			continue
		}
		if c, ok := kw.Value.(*template.ConstExpr); ok {
			switch v := c.Value.(type) {
			case string, int64:
				ref.Version = v
			}
		}
	}
	return ref, true
}

func sourceFromCall(call *template.CallExpr) ([2]string, bool) {
	var src [2]string
	args := literalStrings(call.Args)
	if len(args) != 2 {
		return src, false
	}
	src[0] = args[0]
	src[1] = args[1]
	return src, true
}

// literalStrings returns the string values of args, or nil if any argument
// is not a literal string.
func literalStrings(args []template.Expr) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		c, ok := arg.(*template.ConstExpr)
		if !ok {
			return nil
		}
		s, ok := c.Value.(string)
		if !ok {
			return nil
		}
		out = append(out, s)
	}
	return out
}
