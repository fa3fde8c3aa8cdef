package interp

import (
	"sort"
	"sync"
)

// ---------------------------------------------------------------------------
// Classes and the class registry. Single inheritance; each class owns
// an instance-side and a class-side method table keyed by selector.
// Slot layout puts inherited instance variables first, so a slot
// index resolved against a class stays valid in every subclass.
// ---------------------------------------------------------------------------

// Class describes a class: its name, superclass link, declared
// instance variables and method tables. Classes are ordinary values;
// globals bind each class name to its class.
type Class struct {
	Name         string
	Superclass   *Class
	InstVarNames []string // declared here, not inherited
	Variable     bool     // instances carry an indexed part

	methods      map[string]*Method
	classMethods map[string]*Method
}

func (c *Class) Inspect() string { return c.Name }
func (c *Class) value()          {}

// NewClass creates a class with no instance variables.
func NewClass(name string, superclass *Class) *Class {
	return &Class{
		Name:         name,
		Superclass:   superclass,
		methods:      make(map[string]*Method),
		classMethods: make(map[string]*Method),
	}
}

// NewClassWithInstVars creates a class declaring the given instance
// variables in addition to any inherited ones.
func NewClassWithInstVars(name string, superclass *Class, instVars []string) *Class {
	c := NewClass(name, superclass)
	c.InstVarNames = append(c.InstVarNames, instVars...)
	return c
}

// NumSlots returns the total named-slot count including inherited
// instance variables.
func (c *Class) NumSlots() int {
	n := len(c.InstVarNames)
	if c.Superclass != nil {
		n += c.Superclass.NumSlots()
	}
	return n
}

// InstVarIndex resolves an instance-variable name to its slot index
// in the full layout, or -1 if the name is not declared on this class
// or any superclass.
func (c *Class) InstVarIndex(name string) int {
	offset := 0
	if c.Superclass != nil {
		offset = c.Superclass.NumSlots()
	}
	for i, n := range c.InstVarNames {
		if n == name {
			return offset + i
		}
	}
	if c.Superclass != nil {
		return c.Superclass.InstVarIndex(name)
	}
	return -1
}

// AllInstVarNames returns the full layout order: inherited names
// first, then this class's own.
func (c *Class) AllInstVarNames() []string {
	var names []string
	if c.Superclass != nil {
		names = c.Superclass.AllInstVarNames()
	}
	return append(names, c.InstVarNames...)
}

// AddMethod installs an instance-side method, claiming it for this
// class.
func (c *Class) AddMethod(m *Method) {
	m.Class = c
	m.ClassSide = false
	c.methods[m.Selector] = m
}

// AddClassMethod installs a class-side method, claiming it for this
// class.
func (c *Class) AddClassMethod(m *Method) {
	m.Class = c
	m.ClassSide = true
	c.classMethods[m.Selector] = m
}

// MethodNamed returns this class's own instance-side method for
// selector, without consulting superclasses.
func (c *Class) MethodNamed(selector string) *Method {
	return c.methods[selector]
}

// ClassMethodNamed returns this class's own class-side method for
// selector, without consulting superclasses.
func (c *Class) ClassMethodNamed(selector string) *Method {
	return c.classMethods[selector]
}

// LookupMethod resolves selector against the instance side, walking
// the superclass chain. Returns nil when the chain is exhausted.
func (c *Class) LookupMethod(selector string) *Method {
	for cls := c; cls != nil; cls = cls.Superclass {
		if m := cls.methods[selector]; m != nil {
			return m
		}
	}
	return nil
}

// LookupClassMethod resolves selector against the class side, walking
// the superclass chain.
func (c *Class) LookupClassMethod(selector string) *Method {
	for cls := c; cls != nil; cls = cls.Superclass {
		if m := cls.classMethods[selector]; m != nil {
			return m
		}
	}
	return nil
}

// Selectors returns this class's own instance-side selectors, sorted.
func (c *Class) Selectors() []string {
	out := make([]string, 0, len(c.methods))
	for sel := range c.methods {
		out = append(out, sel)
	}
	sort.Strings(out)
	return out
}

// ClassSelectors returns this class's own class-side selectors,
// sorted.
func (c *Class) ClassSelectors() []string {
	out := make([]string, 0, len(c.classMethods))
	for sel := range c.classMethods {
		out = append(out, sel)
	}
	sort.Strings(out)
	return out
}

// InheritsFrom reports whether c is other or a subclass of other.
func (c *Class) InheritsFrom(other *Class) bool {
	for cls := c; cls != nil; cls = cls.Superclass {
		if cls == other {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Registry: the class/method registry collaborator. The evaluator
// consumes it for lookup; tooling (image writer, LSP) iterates it.
// ---------------------------------------------------------------------------

// Registry holds every registered class by name.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*Class)}
}

// Register adds or replaces a class.
func (r *Registry) Register(c *Class) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[c.Name] = c
}

// Lookup returns the class registered under name, or nil.
func (r *Registry) Lookup(name string) *Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.classes[name]
}

// Names returns all registered class names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.classes))
	for name := range r.classes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered classes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}
