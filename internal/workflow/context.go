package workflow

import (
	"encoding/json"
	"strings"
)

// Context is the accumulating record threaded through a workflow run. Each
// step appends or overwrites keys; nothing is ever removed. A context belongs
// to exactly one execution and is never shared across runs.
type Context struct {
	root map[string]Value
}

// NewContext creates an empty execution context.
func NewContext() *Context {
	return &Context{root: map[string]Value{}}
}

// ContextFromJSON restores a context from a persisted snapshot.
func ContextFromJSON(raw json.RawMessage) (*Context, error) {
	if len(raw) == 0 {
		return NewContext(), nil
	}
	v, err := ValueFromJSON(raw)
	if err != nil {
		return nil, err
	}
	m, ok := v.AsMap()
	if !ok {
		return NewContext(), nil
	}
	return &Context{root: m}, nil
}

// Set writes a value at a dotted path, creating intermediate maps as needed.
// A non-map value already sitting on the path is overwritten.
func (c *Context) Set(path string, v Value) {
	segs := strings.Split(path, ".")
	m := c.root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := m[seg].AsMap()
		if !ok {
			child = map[string]Value{}
			m[seg] = MapValue(child)
		}
		m = child
	}
	m[segs[len(segs)-1]] = v
}

// SetJSON decodes raw JSON and writes it at the given path.
func (c *Context) SetJSON(path string, raw json.RawMessage) error {
	v, err := ValueFromJSON(raw)
	if err != nil {
		return err
	}
	c.Set(path, v)
	return nil
}

// Lookup resolves a dotted path against the context.
func (c *Context) Lookup(path string) (Value, bool) {
	return MapValue(c.root).Lookup(path)
}

// Snapshot serializes the full context for persistence.
func (c *Context) Snapshot() (json.RawMessage, error) {
	return json.Marshal(MapValue(c.root))
}
