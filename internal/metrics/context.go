package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Dimension identifies one of the four fixed metric dimensions.
type Dimension string

const (
	DimResults  Dimension = "results"
	DimProcess  Dimension = "process"
	DimSupport  Dimension = "support"
	DimLongterm Dimension = "longterm"
)

// Dimensions lists the four dimensions in canonical display order. There is
// never a fifth.
var Dimensions = []Dimension{DimResults, DimProcess, DimSupport, DimLongterm}

// Group is an ordered set of named metric values within one dimension.
// Display order is insertion order; setting an existing name overwrites the
// value in place.
type Group struct {
	names  []string
	values map[string]Value
}

// Set stores a value under the given metric name.
func (g *Group) Set(name string, v Value) {
	if g.values == nil {
		g.values = make(map[string]Value)
	}
	if _, ok := g.values[name]; !ok {
		g.names = append(g.names, name)
	}
	g.values[name] = v
}

// Get returns the value for the given metric name.
func (g *Group) Get(name string) (Value, bool) {
	v, ok := g.values[name]
	return v, ok
}

// Names returns the metric names in insertion order.
func (g *Group) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Len returns the number of metrics in the group.
func (g *Group) Len() int {
	return len(g.names)
}

// Empty reports whether the group holds no metrics.
func (g *Group) Empty() bool {
	return len(g.names) == 0
}

// MarshalJSON emits the group as a JSON object in insertion order.
func (g Group) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range g.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(g.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object preserving its key order, so contexts
// read from files display in the order they were written.
func (g *Group) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding metric group: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("metric group must be a JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding metric group: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("metric group key must be a string")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decoding metric %q: %w", name, err)
		}
		g.Set(name, valueFromRaw(raw))
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decoding metric group: %w", err)
	}
	return nil
}

// Context carries one analysis request's metrics across the four fixed
// dimensions. Any subset of the groups may be empty. A Context is built
// once per request and treated as immutable afterwards.
type Context struct {
	Results  Group `json:"results"`
	Process  Group `json:"process"`
	Support  Group `json:"support"`
	Longterm Group `json:"longterm"`
}

// Group returns the group for the given dimension.
func (c *Context) Group(d Dimension) *Group {
	switch d {
	case DimResults:
		return &c.Results
	case DimProcess:
		return &c.Process
	case DimSupport:
		return &c.Support
	case DimLongterm:
		return &c.Longterm
	}
	return nil
}

// Empty reports whether all four groups are empty.
func (c *Context) Empty() bool {
	return c.Results.Empty() && c.Process.Empty() && c.Support.Empty() && c.Longterm.Empty()
}

// FromMap builds a Context from plain nested maps, the shape a decoded JSON
// document produces. Missing dimensions default to empty groups and unknown
// top-level keys are ignored. Go map iteration order is random, so metric
// names are sorted here; use Set on the groups directly when display order
// matters.
func FromMap(data map[string]map[string]any) Context {
	var c Context
	for _, d := range Dimensions {
		m, ok := data[string(d)]
		if !ok {
			continue
		}
		names := make([]string, 0, len(m))
		for name := range m {
			names = append(names, name)
		}
		sort.Strings(names)
		g := c.Group(d)
		for _, name := range names {
			g.Set(name, FromAny(m[name]))
		}
	}
	return c
}

// ParseJSON decodes a data-context document of the form
// {"results": {...}, "process": {...}, "support": {...}, "longterm": {...}}.
// Missing dimensions default to empty groups.
func ParseJSON(data []byte) (Context, error) {
	var c Context
	if err := json.Unmarshal(data, &c); err != nil {
		return Context{}, fmt.Errorf("parsing data context: %w", err)
	}
	return c, nil
}

// ParseFile reads and decodes a data-context JSON file.
func ParseFile(path string) (Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Context{}, fmt.Errorf("reading data context: %w", err)
	}
	return ParseJSON(data)
}
