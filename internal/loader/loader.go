package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/macroscope/internal/registry"
)

// ModelFile is one discovered model template.
type ModelFile struct {
	// Name is the model name (filename without extension).
	Name string
	// Path is the dotted model path relative to the models root
	// (e.g. "staging.stg_customers").
	Path string
	// FilePath is the absolute path to the file.
	FilePath string
	// Raw is the full template text, frontmatter included.
	Raw string
	// SQL is the template text with any frontmatter block removed.
	SQL string
	// Frontmatter holds parsed metadata, nil when the file has none.
	Frontmatter *Frontmatter
}

// Project is everything the loader discovered.
type Project struct {
	// Name is the project's own package namespace.
	Name string
	// Models in deterministic (path-sorted) order.
	Models []*ModelFile
	// Macros across the project and all dependency packages.
	Macros []*registry.Macro
	// Packages lists dependency package names found under the packages
	// directory, in directory order.
	Packages []string
}

// Loader scans a project layout: models under ModelsDir, project macros
// under MacrosDir, and vendored dependency packages under PackagesDir
// (each with its own macros/ subdirectory).
type Loader struct {
	ProjectName string
	ModelsDir   string
	MacrosDir   string
	PackagesDir string
}

// Load walks the project directories and returns the discovered project.
// A missing macros or packages directory is fine; a missing models
// directory is an error.
func (l *Loader) Load() (*Project, error) {
	proj := &Project{Name: l.ProjectName}

	models, err := l.loadModels()
	if err != nil {
		return nil, err
	}
	proj.Models = models

	if l.MacrosDir != "" {
		macros, err := loadMacroDir(l.ProjectName, l.MacrosDir)
		if err != nil {
			return nil, err
		}
		proj.Macros = append(proj.Macros, macros...)
	}

	if l.PackagesDir != "" {
		pkgs, macros, err := loadPackages(l.PackagesDir)
		if err != nil {
			return nil, err
		}
		proj.Packages = pkgs
		proj.Macros = append(proj.Macros, macros...)
	}

	return proj, nil
}

// loadModels walks the models directory for .sql files.
func (l *Loader) loadModels() ([]*ModelFile, error) {
	if _, err := os.Stat(l.ModelsDir); err != nil {
		return nil, fmt.Errorf("models directory: %w", err)
	}

	var models []*ModelFile
	err := filepath.WalkDir(l.ModelsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".sql") || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		model, err := l.loadModel(path)
		if err != nil {
			return err
		}
		models = append(models, model)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan models: %w", err)
	}
	return models, nil
}

// loadModel reads one model file and splits off its frontmatter.
func (l *Loader) loadModel(path string) (*ModelFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: err.Error()}
	}

	raw := string(content)
	fm, sql, err := ExtractFrontmatter(raw)
	if err != nil {
		return nil, &LoadError{File: path, Message: err.Error()}
	}

	return &ModelFile{
		Name:        strings.TrimSuffix(filepath.Base(path), ".sql"),
		Path:        l.modelPath(path),
		FilePath:    path,
		Raw:         raw,
		SQL:         sql,
		Frontmatter: fm,
	}, nil
}

// modelPath converts a file path to a dotted model path.
// e.g. "<models>/staging/customers.sql" -> "staging.customers".
func (l *Loader) modelPath(path string) string {
	rel, err := filepath.Rel(l.ModelsDir, path)
	if err != nil {
		return strings.TrimSuffix(filepath.Base(path), ".sql")
	}
	rel = strings.TrimSuffix(rel, ".sql")
	return strings.Join(strings.Split(rel, string(filepath.Separator)), ".")
}

// loadMacroDir parses every .sql file in dir as macro definitions owned by
// the given package. A missing directory yields no macros.
func loadMacroDir(pkg, dir string) ([]*registry.Macro, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to access macros directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("macros path is not a directory: %s", dir)
	}

	var macros []*registry.Macro
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".sql") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return &LoadError{File: path, Message: err.Error()}
		}
		parsed, err := ParseMacros(pkg, path, content)
		if err != nil {
			return err
		}
		macros = append(macros, parsed...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return macros, nil
}

// loadPackages discovers dependency packages: each direct subdirectory of
// packagesDir is a package whose macros live under <pkg>/macros.
func loadPackages(packagesDir string) ([]string, []*registry.Macro, error) {
	entries, err := os.ReadDir(packagesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to read packages directory: %w", err)
	}

	var pkgs []string
	var macros []*registry.Macro
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		pkg := entry.Name()
		parsed, err := loadMacroDir(pkg, filepath.Join(packagesDir, pkg, "macros"))
		if err != nil {
			return nil, nil, err
		}
		pkgs = append(pkgs, pkg)
		macros = append(macros, parsed...)
	}
	return pkgs, macros, nil
}

// splitWord splits a statement head into its leading word and the rest.
func splitWord(src string) (word, rest string) {
	src = strings.TrimSpace(src)
	if idx := strings.IndexAny(src, " \t\n"); idx >= 0 {
		return src[:idx], strings.TrimSpace(src[idx:])
	}
	return src, ""
}
