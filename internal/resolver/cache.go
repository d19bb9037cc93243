package resolver

import (
	"sync"

	"github.com/leapstack-labs/macroscope/internal/template"
)

// ParseCache memoizes parsed templates and their extracted call nodes,
// keyed by exact template text. It is an opt-in performance layer owned by
// the caller: constructed once per process or build, passed into the
// resolver, and safe for concurrent use from worker goroutines. Results
// never depend on it being enabled.
type ParseCache struct {
	mu      sync.RWMutex
	entries map[string]*parsedTemplate
}

// parsedTemplate pairs a parsed template with its call nodes.
type parsedTemplate struct {
	tpl   *template.Template
	calls []*template.CallExpr
}

// NewParseCache creates an empty parse cache.
func NewParseCache() *ParseCache {
	return &ParseCache{entries: make(map[string]*parsedTemplate)}
}

func (c *ParseCache) get(text string) (*parsedTemplate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[text]
	return entry, ok
}

func (c *ParseCache) put(text string, entry *parsedTemplate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[text] = entry
}

// Len returns the number of cached templates.
func (c *ParseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops all cached entries.
func (c *ParseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*parsedTemplate)
}
