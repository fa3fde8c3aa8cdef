// Package wrap introspects Go packages and generates Treepie bindings:
// Go glue that registers numbered primitives, and stub classes whose
// methods carry the matching primitive tags.
package wrap

// PackageModel is the in-memory representation of a Go package's
// exported API. Generator tests build these by hand, so the model
// carries type names as plain strings rather than go/types values.
type PackageModel struct {
	ImportPath string
	Name       string // short package name (e.g., "json")
	Functions  []FunctionModel
	Types      []TypeModel
	Constants  []ConstantModel
}

// TypeModel records an exported named type. Types are introspected
// for reporting; generation covers package-level functions and
// constants, since a handle's runtime class is Native and instance
// sends cannot reach a stub class.
type TypeModel struct {
	Name     string
	IsStruct bool
	Fields   []FieldModel
	Methods  []FunctionModel // pointer-receiver methods
}

// FunctionModel represents an exported function or method.
type FunctionModel struct {
	Name       string
	IsMethod   bool
	RecvType   string // non-empty for methods (e.g., "*Server")
	Params     []ParamModel
	Results    []ParamModel
	ReturnsErr bool // true when the last result is error
}

// ValueResults returns the results that carry values, excluding a
// trailing error result.
func (fn FunctionModel) ValueResults() []ParamModel {
	if fn.ReturnsErr {
		return fn.Results[:len(fn.Results)-1]
	}
	return fn.Results
}

// ParamModel represents one function parameter or result.
type ParamModel struct {
	Name    string
	TypeStr string // rendered type (e.g., "string", "*http.Server")
}

// FieldModel represents an exported struct field.
type FieldModel struct {
	Name    string
	TypeStr string
}

// ConstantModel represents an exported constant.
type ConstantModel struct {
	Name    string
	TypeStr string
	Value   string // literal value
}

// boundaryType reports whether a Go type can cross the primitive
// boundary. The supported set mirrors the value conversions the glue
// emits: String, Integer, Boolean and Float.
func boundaryType(ts string) bool {
	switch ts {
	case "string", "int", "int64", "bool", "float64":
		return true
	}
	return false
}

// Wrappable reports whether fn can be wrapped: a package-level
// function whose parameters and results all use boundary types, with
// at most a trailing error.
func Wrappable(fn FunctionModel) bool {
	if fn.IsMethod {
		return false
	}
	for _, p := range fn.Params {
		if !boundaryType(p.TypeStr) {
			return false
		}
	}
	for _, r := range fn.ValueResults() {
		if !boundaryType(r.TypeStr) {
			return false
		}
	}
	return true
}

// WrappedFunctions returns the functions both generators emit, in
// model order. The glue and the stubs must agree on this sequence:
// the i'th function gets primitive id base+i on both sides.
func WrappedFunctions(m *PackageModel) []FunctionModel {
	var out []FunctionModel
	for _, fn := range m.Functions {
		if Wrappable(fn) {
			out = append(out, fn)
		}
	}
	return out
}
