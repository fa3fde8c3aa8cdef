package interp

import "strings"

// ---------------------------------------------------------------------------
// Instance: a user-level object with named slots addressed by index.
// Slot indices are resolved by the front-end against the class layout
// (inherited slots first), so runtime access never looks up by name.
// Instances of variable classes additionally carry an indexed part
// allocated by basicNew:.
// ---------------------------------------------------------------------------

// Instance is an instance of a user-defined (or kernel) class.
type Instance struct {
	class   *Class
	fields  []Value
	indexed []Value // nil unless allocated by basicNew:
}

// NewInstance allocates an instance of class with every named slot
// set to Nil and no indexed part.
func NewInstance(class *Class) *Instance {
	n := class.NumSlots()
	fields := make([]Value, n)
	for i := range fields {
		fields[i] = Nil
	}
	return &Instance{class: class, fields: fields}
}

// NewIndexedInstance allocates an instance of a variable class with
// size indexed slots, each set to Nil.
func NewIndexedInstance(class *Class, size int) *Instance {
	inst := NewInstance(class)
	inst.indexed = make([]Value, size)
	for i := range inst.indexed {
		inst.indexed[i] = Nil
	}
	return inst
}

// Class returns the instance's class.
func (o *Instance) Class() *Class { return o.class }

// GetSlot returns the named slot at index i.
func (o *Instance) GetSlot(i int) Value {
	if i < 0 || i >= len(o.fields) {
		return Nil
	}
	return o.fields[i]
}

// SetSlot stores v in the named slot at index i.
func (o *Instance) SetSlot(i int, v Value) {
	if i < 0 || i >= len(o.fields) {
		return
	}
	o.fields[i] = v
}

// NumSlots returns the number of named slots.
func (o *Instance) NumSlots() int { return len(o.fields) }

// IndexedLen returns the size of the indexed part, 0 when there is
// none.
func (o *Instance) IndexedLen() int { return len(o.indexed) }

// HasIndexed reports whether the instance carries an indexed part.
func (o *Instance) HasIndexed() bool { return o.indexed != nil }

func (o *Instance) Inspect() string {
	name := "Object"
	if o.class != nil {
		name = o.class.Name
	}
	article := "a "
	if strings.ContainsRune("AEIOU", rune(name[0])) {
		article = "an "
	}
	return article + name
}

func (o *Instance) value() {}
