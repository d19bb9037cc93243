package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "macroscope.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "macroscope.yml"

// maxUpwardSearchLevels limits how far up the directory tree to search
// for config files.
const maxUpwardSearchLevels = 10

// findConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// FindProjectRoot searches upward from startDir for a macroscope config
// file. Returns empty string if not found within maxUpwardSearchLevels.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if findConfigFile(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not
// absolute. Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// Determine project root: explicit config file's directory, then
	// --project-dir, then upward search from CWD.
	projectRoot := ""
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}
	if projectRoot == "" && flags != nil && flags.Changed("project-dir") {
		if v, _ := flags.GetString("project-dir"); v != "" {
			if abs, err := filepath.Abs(v); err == nil {
				projectRoot = abs
			}
		}
	}
	if projectRoot == "" {
		if cwd, err := os.Getwd(); err == nil {
			if root := FindProjectRoot(cwd); root != "" {
				projectRoot = root
			} else {
				projectRoot = cwd
			}
		} else {
			projectRoot = "."
		}
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"models_dir":   DefaultModelsDir,
		"macros_dir":   DefaultMacrosDir,
		"packages_dir": DefaultPackagesDir,
		"adapter":      DefaultAdapter,
		"state_path":   DefaultStateFile,
		"workers":      0,
		"verbose":      false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile == "" {
		cfgFile = findConfigFile(projectRoot)
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment variables (MACROSCOPE_ prefix)
	// Transform: MACROSCOPE_MODELS_DIR -> models_dir
	if err := k.Load(env.Provider("MACROSCOPE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "MACROSCOPE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// --vars is a raw YAML string parsed by setup, not a config map.
			if f.Name == "vars" {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			// The CLI uses --state for brevity; the config key is state_path.
			if key == "state" {
				return "state_path", posflag.FlagVal(flags, f)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ApplyDefaults()
	cfg.ProjectRoot = projectRoot
	cfg.ModelsDir = resolvePathRelativeTo(cfg.ModelsDir, projectRoot)
	cfg.MacrosDir = resolvePathRelativeTo(cfg.MacrosDir, projectRoot)
	cfg.PackagesDir = resolvePathRelativeTo(cfg.PackagesDir, projectRoot)
	cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)

	if cfg.ProjectName == "" {
		cfg.ProjectName = filepath.Base(projectRoot)
	}

	return &cfg, nil
}
