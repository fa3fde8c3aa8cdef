package interp

import (
	"sort"
	"sync"
)

// ---------------------------------------------------------------------------
// Global environment: a flat name table external to any frame. Class
// names bind here at registration; anything else an embedder wants
// visible to language code goes here too.
// ---------------------------------------------------------------------------

// Globals is the global binding table.
type Globals struct {
	mu       sync.RWMutex
	bindings map[string]Value
}

// NewGlobals creates an empty global table.
func NewGlobals() *Globals {
	return &Globals{bindings: make(map[string]Value)}
}

// Get returns the binding for name.
func (g *Globals) Get(name string) (Value, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.bindings[name]
	return v, ok
}

// Set binds name to v, creating or rebinding.
func (g *Globals) Set(name string, v Value) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bindings[name] = v
}

// Names returns all bound names, sorted.
func (g *Globals) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.bindings))
	for name := range g.bindings {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
