package interp

// ---------------------------------------------------------------------------
// Interp: one independent interpreter instance. All state the
// evaluator consults (class registry, global table, symbol table,
// primitive table) hangs off this struct and is threaded explicitly
// through every call, so multiple instances coexist without sharing.
// Evaluation itself is strictly sequential: drive a given Interp from
// one goroutine at a time (the server package wraps one in a worker
// for exactly this reason).
// ---------------------------------------------------------------------------

// DefaultMaxDepth is the default activation depth limit.
const DefaultMaxDepth = 10000

// PrimitiveFn is a native operation registered in the primitive
// table. It receives the activation frame of the tagged method and
// reads arguments through Frame.ArgumentAt. Returning a
// *PrimitiveFailure (via Fail) makes the evaluator run the method
// body as fallback code; any other error is a fatal condition.
type PrimitiveFn func(in *Interp, receiver Value, frame *Frame, m *Method) (Value, error)

// Interp is an interpreter instance.
type Interp struct {
	Classes *Registry
	Globals *Globals
	Symbols *SymbolTable

	// Kernel classes, installed by bootstrap.
	ObjectClass     *Class
	NilClass        *Class
	BooleanClass    *Class
	TrueClass       *Class
	FalseClass      *Class
	IntegerClass    *Class
	FloatClass      *Class
	CharacterClass  *Class
	StringClass     *Class
	SymbolClass     *Class
	ArrayClass      *Class
	BlockClass      *Class
	ClassClass      *Class
	NativeClass     *Class
	RemoteHostClass *Class

	prims    map[int]PrimitiveFn
	maxDepth int
	depth    int
}

// New creates a fully bootstrapped interpreter: kernel classes
// registered, primitive table populated, globals bound.
func New() *Interp {
	in := &Interp{
		Classes:  NewRegistry(),
		Globals:  NewGlobals(),
		Symbols:  NewSymbolTable(),
		prims:    make(map[int]PrimitiveFn),
		maxDepth: DefaultMaxDepth,
	}
	in.bootstrap()
	return in
}

// DefineClass creates a class, registers it, and binds its name as a
// global. A nil superclass defaults to Object. Redefining an existing
// name replaces the registration; live instances keep their old class.
func (in *Interp) DefineClass(name string, superclass *Class, instVars []string, variable bool) *Class {
	if superclass == nil {
		superclass = in.ObjectClass
	}
	cls := NewClassWithInstVars(name, superclass, instVars)
	cls.Variable = variable
	in.Classes.Register(cls)
	in.Globals.Set(name, cls)
	return cls
}

// SetMaxDepth adjusts the activation depth limit.
func (in *Interp) SetMaxDepth(n int) {
	if n > 0 {
		in.maxDepth = n
	}
}

// RegisterPrimitive installs fn under id, replacing any previous
// registration. Generated wrappers claim ids from 1000 up; the kernel
// owns everything below.
func (in *Interp) RegisterPrimitive(id int, fn PrimitiveFn) {
	in.prims[id] = fn
}

// HasPrimitive reports whether id is registered.
func (in *Interp) HasPrimitive(id int) bool {
	_, ok := in.prims[id]
	return ok
}

// ClassFor returns the runtime class of v.
func (in *Interp) ClassFor(v Value) *Class {
	switch v := v.(type) {
	case *NilObject:
		return in.NilClass
	case *Boolean:
		if v.Val {
			return in.TrueClass
		}
		return in.FalseClass
	case *Integer:
		return in.IntegerClass
	case *Float:
		return in.FloatClass
	case *Character:
		return in.CharacterClass
	case *String:
		return in.StringClass
	case *Symbol:
		return in.SymbolClass
	case *Array:
		return in.ArrayClass
	case *Instance:
		return v.Class()
	case *Class:
		return in.ClassClass
	case *Closure:
		return in.BlockClass
	case *Native:
		return in.NativeClass
	default:
		return nil
	}
}

// IsClass reports whether v is a class value.
func (in *Interp) IsClass(v Value) bool {
	_, ok := v.(*Class)
	return ok
}

// IsIndexable reports whether v supports 1-based indexed access.
func (in *Interp) IsIndexable(v Value) bool {
	switch v := v.(type) {
	case *Array, *String, *Symbol:
		return true
	case *Instance:
		return v.HasIndexed()
	default:
		return false
	}
}

// enter charges one activation against the depth limit.
func (in *Interp) enter() error {
	if in.depth >= in.maxDepth {
		return &RecursionLimitError{Depth: in.maxDepth}
	}
	in.depth++
	return nil
}

// leave releases one activation.
func (in *Interp) leave() {
	in.depth--
}
