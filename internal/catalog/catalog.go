// Package catalog lists the targets a comparison can select.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTargets is used when no catalog file is configured.
var DefaultTargets = []string{"GPT-4", "Claude 3", "Llama 3", "Gemini", "Grok"}

// Catalog is an ordered, fixed list of known targets.
type Catalog struct {
	ids   []string
	index map[string]int
}

type catalogFile struct {
	Targets []string `yaml:"targets"`
}

// New builds a catalog from ids, dropping blanks and duplicates.
func New(ids []string) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int)}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := c.index[id]; dup {
			continue
		}
		c.index[id] = len(c.ids)
		c.ids = append(c.ids, id)
	}
	if len(c.ids) == 0 {
		return nil, fmt.Errorf("catalog has no targets")
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, _ := New(DefaultTargets)
	return c
}

// Load reads a YAML file of the form "targets: [a, b]". An empty path
// returns the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return New(f.Targets)
}

// IDs returns the targets in catalog order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.ids...)
}

func (c *Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Validate returns an error naming the first unknown target.
func (c *Catalog) Validate(ids []string) error {
	for _, id := range ids {
		if !c.Contains(id) {
			return fmt.Errorf("unknown target %q", id)
		}
	}
	return nil
}

// Order returns the known members of ids in catalog order.
func (c *Catalog) Order(ids []string) []string {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []string
	for _, id := range c.ids {
		if want[id] {
			out = append(out, id)
		}
	}
	return out
}
