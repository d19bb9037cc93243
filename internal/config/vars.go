package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseVars parses a --vars argument. The value is a YAML mapping, so
// both `{key: value}` and multi-line YAML work. An empty string yields
// an empty map.
func ParseVars(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}

	var node any
	if err := yaml.Unmarshal([]byte(raw), &node); err != nil {
		return nil, fmt.Errorf("the --vars argument is not valid YAML: %w", err)
	}

	vars, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("the --vars argument must be a YAML dictionary, got %T", node)
	}
	return vars, nil
}
