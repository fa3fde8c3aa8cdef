package interp

import (
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Values: the runtime representations the evaluator manipulates.
// A closed variant set behind a sealed interface, in place of the
// NaN-boxed word a bytecode engine would use. Identity semantics live
// in Identical; printable forms in Inspect.
// ---------------------------------------------------------------------------

// Value is the interface implemented by every runtime value.
type Value interface {
	// Inspect returns the value's printable representation.
	Inspect() string
	value() // marker method
}

// Well-known singletons. Nil, True and False are shared across all
// interpreter instances; identity comparisons against them are safe.
var (
	Nil   Value = &NilObject{}
	True  Value = &Boolean{Val: true}
	False Value = &Boolean{Val: false}
)

// NilObject is the sole instance of UndefinedObject.
type NilObject struct{}

func (v *NilObject) Inspect() string { return "nil" }
func (v *NilObject) value()          {}

// Boolean backs the true and false singletons. Code should compare
// against True and False rather than allocating new Booleans.
type Boolean struct {
	Val bool
}

func (v *Boolean) Inspect() string {
	if v.Val {
		return "true"
	}
	return "false"
}
func (v *Boolean) value() {}

// Integer is a signed 64-bit integer. Arithmetic primitives fail on
// overflow rather than wrapping.
type Integer struct {
	Val int64
}

func (v *Integer) Inspect() string { return strconv.FormatInt(v.Val, 10) }
func (v *Integer) value()          {}

// Float is a 64-bit floating-point number.
type Float struct {
	Val float64
}

func (v *Float) Inspect() string {
	s := strconv.FormatFloat(v.Val, 'g', -1, 64)
	// Keep a trailing ".0" so floats stay visually distinct from integers.
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
func (v *Float) value() {}

// String is a mutable byte string. Indexed access is 1-based and
// yields Characters.
type String struct {
	Val []byte
}

func (v *String) Inspect() string {
	return "'" + strings.ReplaceAll(string(v.Val), "'", "''") + "'"
}
func (v *String) value() {}

// NewString returns a fresh String holding a copy of s.
func NewString(s string) *String {
	return &String{Val: []byte(s)}
}

// Text returns the string's contents as a Go string.
func (v *String) Text() string { return string(v.Val) }

// Symbol is an interned name. Symbols are interned per interpreter,
// so pointer identity backs the == primitive.
type Symbol struct {
	Name string
}

func (v *Symbol) Inspect() string { return "#" + v.Name }
func (v *Symbol) value()          {}

// Character is a single character value ($a).
type Character struct {
	Val rune
}

func (v *Character) Inspect() string { return "$" + string(v.Val) }
func (v *Character) value()          {}

// Array is a fixed-size indexable collection. Indexed access is
// 1-based.
type Array struct {
	Elems []Value
}

func (v *Array) Inspect() string {
	var b strings.Builder
	b.WriteString("#(")
	for i, e := range v.Elems {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.Inspect())
	}
	b.WriteByte(')')
	return b.String()
}
func (v *Array) value() {}

// NewArray returns an Array of n slots, each initialized to Nil.
func NewArray(n int) *Array {
	elems := make([]Value, n)
	for i := range elems {
		elems[i] = Nil
	}
	return &Array{Elems: elems}
}

// Closure pairs a block literal with the frame that was current when
// the literal was evaluated. The defining frame is shared, never
// copied: mutating an outer temporary through the closure is visible
// to every other holder of that frame.
type Closure struct {
	Block    *BlockLit
	Defining *Frame
}

func (v *Closure) Inspect() string { return "a BlockClosure" }
func (v *Closure) value()          {}

// NumArgs returns the number of parameters the closure's block
// declares.
func (v *Closure) NumArgs() int { return len(v.Block.Params) }

// Native wraps an opaque host object (connections, handles) so
// primitives can thread host state through language code.
type Native struct {
	TypeName string
	Obj      any
}

func (v *Native) Inspect() string { return "<native " + v.TypeName + ">" }
func (v *Native) value()          {}

// Identical reports value identity as the == primitive sees it:
// integers and characters compare by value (any 3 is the same 3),
// everything else by reference.
func Identical(a, b Value) bool {
	switch x := a.(type) {
	case *Integer:
		y, ok := b.(*Integer)
		return ok && x.Val == y.Val
	case *Character:
		y, ok := b.(*Character)
		return ok && x.Val == y.Val
	default:
		return a == b
	}
}

// IsTruthy reports whether v is neither false nor nil. The evaluator
// core only branches through the boolean primitives, but embedders
// find this convenient.
func IsTruthy(v Value) bool {
	return v != False && v != Nil
}
