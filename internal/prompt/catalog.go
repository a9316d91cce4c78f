package prompt

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog holds the selectable domain templates: the built-in presets plus
// any custom entries loaded from catalog files. Lookup is by normalized ID.
type Catalog struct {
	ids       []string
	templates map[string]Template
}

// CatalogEntry is one parsed catalog item.
type CatalogEntry struct {
	ID       string
	Template Template
}

// NewCatalog returns a catalog preloaded with the built-in presets.
func NewCatalog() *Catalog {
	c := &Catalog{templates: make(map[string]Template)}
	c.Add("banking", Banking())
	c.Add("healthcare", Healthcare())
	c.Add("ecommerce", Ecommerce())
	return c
}

// Add registers a template under the normalized form of id. Re-adding an
// existing ID replaces the template but keeps its listing position.
func (c *Catalog) Add(id string, t Template) {
	id = NormalizeID(id)
	if _, ok := c.templates[id]; !ok {
		c.ids = append(c.ids, id)
	}
	c.templates[id] = t
}

// Get returns the template registered under name (case-insensitive).
func (c *Catalog) Get(name string) (Template, error) {
	id := NormalizeID(name)
	t, ok := c.templates[id]
	if !ok {
		return Template{}, fmt.Errorf("unknown template %q (have: %s)", name, strings.Join(c.ids, ", "))
	}
	return t, nil
}

// IDs returns the registered template IDs in listing order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// LoadFile merges a YAML catalog file into the catalog. Entries with IDs
// matching a preset override it.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading template catalog: %w", err)
	}
	entries, err := ParseCatalog(data)
	if err != nil {
		return err
	}
	for _, e := range entries {
		c.Add(e.ID, e.Template)
	}
	return nil
}

// catalogDoc is the file-level YAML shape. Templates stays a raw node so
// entry order can be preserved.
type catalogDoc struct {
	Templates yaml.Node `yaml:"templates"`
}

// ParseCatalog parses a YAML template catalog of the form
//
//	templates:
//	  <id>:
//	    domain: ...
//	    results: [...]
//	    process: [...]
//	    support: [...]
//	    longterm: [...]
//	    boundaries: [...]
//
// returning the entries in file order.
func ParseCatalog(data []byte) ([]CatalogEntry, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing template catalog: %w", err)
	}
	if doc.Templates.Kind == 0 {
		return nil, fmt.Errorf("template catalog has no templates section")
	}
	if doc.Templates.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("templates section must be a mapping")
	}

	var entries []CatalogEntry
	content := doc.Templates.Content
	for i := 0; i+1 < len(content); i += 2 {
		keyNode, valNode := content[i], content[i+1]
		var t Template
		if err := valNode.Decode(&t); err != nil {
			return nil, fmt.Errorf("template %q: %w", keyNode.Value, err)
		}
		if strings.TrimSpace(t.Domain) == "" {
			return nil, fmt.Errorf("template %q: domain is required", keyNode.Value)
		}
		entries = append(entries, CatalogEntry{ID: NormalizeID(keyNode.Value), Template: t})
	}
	return entries, nil
}

// NormalizeID creates a normalized slug from a template name.
func NormalizeID(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, "/", "-")

	// Remove consecutive dashes
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}
