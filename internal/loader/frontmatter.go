package loader

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Frontmatter holds model metadata parsed from a leading /*--- ... ---*/
// YAML block. The block is optional; templating in the SQL body is handled
// elsewhere and never evaluated here.
type Frontmatter struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Owner       string         `yaml:"owner"`
	Tags        []string       `yaml:"tags"`
	Meta        map[string]any `yaml:"meta"` // Extension point for custom fields
}

// frontmatterPattern matches /*--- ... ---*/ blocks at the start of a file.
var frontmatterPattern = regexp.MustCompile(`(?s)^\s*/\*---\s*\n(.*?)\s*---\*/`)

// ExtractFrontmatter splits a model file into its optional frontmatter and
// the remaining SQL. Files without a frontmatter block return (nil, content).
func ExtractFrontmatter(content string) (*Frontmatter, string, error) {
	matches := frontmatterPattern.FindStringSubmatch(content)
	if matches == nil {
		return nil, content, nil
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(matches[1]), &fm); err != nil {
		return nil, "", fmt.Errorf("invalid frontmatter: %w", err)
	}

	sql := content[len(matches[0]):]
	return &fm, sql, nil
}
