package tool

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/leofalp/llmstream/providers/ai"
)

// Catalog is a thread-safe set of tools keyed by lowercase name.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]GenericTool
}

// NewCatalog creates a catalog holding tools. A later tool replaces an
// earlier one with the same name.
func NewCatalog(tools ...GenericTool) *Catalog {
	catalog := &Catalog{tools: make(map[string]GenericTool, len(tools))}
	catalog.Add(tools...)
	return catalog
}

// Add registers tools, replacing existing ones with the same name.
func (c *Catalog) Add(tools ...GenericTool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tools {
		c.tools[strings.ToLower(t.Definition().Name)] = t
	}
}

// Get retrieves a tool by name (case-insensitive).
func (c *Catalog) Get(name string) (GenericTool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tool, exists := c.tools[strings.ToLower(name)]
	return tool, exists
}

// Remove deletes a tool by name (case-insensitive) and reports whether it
// was present.
func (c *Catalog) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	lowerName := strings.ToLower(name)
	if _, exists := c.tools[lowerName]; !exists {
		return false
	}
	delete(c.tools, lowerName)
	return true
}

// Size returns the number of tools in the catalog.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tools)
}

// Merge adds all tools from other, replacing tools with the same name.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil || other == c {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	other.mu.RLock()
	defer other.mu.RUnlock()

	maps.Copy(c.tools, other.tools)
}

// Definitions returns the declarations of every tool, sorted by name, ready
// to be placed in an [ai.Conversation].
func (c *Catalog) Definitions() []ai.Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	definitions := make([]ai.Tool, 0, len(c.tools))
	for _, name := range slices.Sorted(maps.Keys(c.tools)) {
		definitions = append(definitions, c.tools[name].Definition())
	}
	return definitions
}
