// Package config provides configuration management for the macroscope CLI.
package config

// Default configuration values.
const (
	DefaultModelsDir   = "models"
	DefaultMacrosDir   = "macros"
	DefaultPackagesDir = "packages"
	DefaultAdapter     = "default"
	DefaultStateFile   = ".macroscope/state.db"
)

// Config holds all CLI configuration options.
type Config struct {
	ProjectName string         `koanf:"name"`
	ModelsDir   string         `koanf:"models_dir"`
	MacrosDir   string         `koanf:"macros_dir"`
	PackagesDir string         `koanf:"packages_dir"`
	Adapter     string         `koanf:"adapter"`
	SearchOrder []string       `koanf:"macro_search_order"`
	StatePath   string         `koanf:"state_path"`
	Workers     int            `koanf:"workers"`
	Verbose     bool           `koanf:"verbose"`
	Vars        map[string]any `koanf:"vars"`

	// ProjectRoot is derived from the config file location or flags,
	// never read from the file itself.
	ProjectRoot string `koanf:"-"`
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.ModelsDir == "" {
		c.ModelsDir = DefaultModelsDir
	}
	if c.MacrosDir == "" {
		c.MacrosDir = DefaultMacrosDir
	}
	if c.PackagesDir == "" {
		c.PackagesDir = DefaultPackagesDir
	}
	if c.Adapter == "" {
		c.Adapter = DefaultAdapter
	}
	if c.StatePath == "" {
		c.StatePath = DefaultStateFile
	}
}
