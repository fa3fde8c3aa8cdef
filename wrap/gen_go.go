package wrap

import (
	"fmt"
	"go/format"
	"strings"
)

// MinBase is the lowest primitive id generated wrappers may claim.
// Everything below belongs to the interpreter kernel.
const MinBase = 1000

// DefaultBase is used when the caller does not pick a base.
const DefaultBase = 1000

const interpImport = "github.com/chazu/treepie/interp"

// GenerateGlue renders the Go side of a wrapped package: a wrap_<pkg>
// package whose RegisterPrimitives installs one primitive per
// wrappable function, numbered consecutively from base. Values cross
// the boundary as String, Integer, Boolean and Float; a Go error
// comes back as a primitive failure so the stub fallback runs.
func GenerateGlue(m *PackageModel, base int) (string, error) {
	if base < MinBase {
		return "", fmt.Errorf("primitive base %d is below the wrapper floor %d", base, MinBase)
	}

	fns := WrappedFunctions(m)

	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated by tp wrap from %s; DO NOT EDIT.\n\n", m.ImportPath)
	fmt.Fprintf(&b, "package %s\n\n", PkgNameFor(m.Name))

	b.WriteString("import (\n")
	if len(fns) > 0 {
		fmt.Fprintf(&b, "\tpkg %q\n\n", m.ImportPath)
	}
	fmt.Fprintf(&b, "\t%q\n", interpImport)
	b.WriteString(")\n\n")

	b.WriteString("// RegisterPrimitives installs the wrapped functions starting at\n")
	b.WriteString("// base. The stub class tags its methods with the same numbering.\n")
	b.WriteString("func RegisterPrimitives(in *interp.Interp, base int) {\n")
	for i, fn := range fns {
		fmt.Fprintf(&b, "\tin.RegisterPrimitive(base+%d, prim%s)\n", i, fn.Name)
	}
	b.WriteString("}\n\n")

	b.WriteString("// Selectors maps each primitive's offset from base to the selector\n")
	b.WriteString("// its stub method answers to.\n")
	b.WriteString("var Selectors = map[int]string{\n")
	for i, fn := range fns {
		fmt.Fprintf(&b, "\t%d: %q,\n", i, SelectorFor(fn.Name, len(fn.Params)))
	}
	b.WriteString("}\n\n")

	needBool := false
	for _, fn := range fns {
		emitPrimitive(&b, m, fn)
		for _, r := range fn.ValueResults() {
			if r.TypeStr == "bool" {
				needBool = true
			}
		}
	}

	if needBool {
		b.WriteString("func boolVal(b bool) interp.Value {\n")
		b.WriteString("\tif b {\n\t\treturn interp.True\n\t}\n")
		b.WriteString("\treturn interp.False\n}\n")
	}

	src, err := format.Source([]byte(b.String()))
	if err != nil {
		return "", fmt.Errorf("formatting glue for %s: %w", m.ImportPath, err)
	}
	return string(src), nil
}

// emitPrimitive renders one primitive function: argument count check,
// per-argument type checks and conversions, the call, and result
// conversion. Every validation failure is a primitive failure, never
// a fatal condition.
func emitPrimitive(b *strings.Builder, m *PackageModel, fn FunctionModel) {
	sel := SelectorFor(fn.Name, len(fn.Params))
	fmt.Fprintf(b, "// prim%s implements %s over %s.%s.\n", fn.Name, sel, m.Name, fn.Name)
	fmt.Fprintf(b, "func prim%s(in *interp.Interp, recv interp.Value, f *interp.Frame, m *interp.Method) (interp.Value, error) {\n", fn.Name)
	fmt.Fprintf(b, "\tif len(m.Params) != %d {\n\t\treturn nil, interp.Fail(interp.ErrBadArgumentCount)\n\t}\n", len(fn.Params))

	args := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		args[i] = emitParamCheck(b, i, p.TypeStr)
	}

	call := fmt.Sprintf("pkg.%s(%s)", fn.Name, strings.Join(args, ", "))
	rs := fn.ValueResults()

	switch {
	case len(rs) == 0 && !fn.ReturnsErr:
		fmt.Fprintf(b, "\t%s\n", call)
		b.WriteString("\treturn recv, nil\n")

	case len(rs) == 0 && fn.ReturnsErr:
		fmt.Fprintf(b, "\tif err := %s; err != nil {\n\t\treturn nil, interp.Fail(err)\n\t}\n", call)
		b.WriteString("\treturn recv, nil\n")

	default:
		names := make([]string, len(rs))
		for i := range rs {
			names[i] = fmt.Sprintf("r%d", i)
		}
		if fn.ReturnsErr {
			names = append(names, "err")
		}
		fmt.Fprintf(b, "\t%s := %s\n", strings.Join(names, ", "), call)
		if fn.ReturnsErr {
			b.WriteString("\tif err != nil {\n\t\treturn nil, interp.Fail(err)\n\t}\n")
		}
		if len(rs) == 1 {
			fmt.Fprintf(b, "\treturn %s, nil\n", resultExpr(rs[0].TypeStr, "r0"))
		} else {
			// Several results come back as an Array.
			fmt.Fprintf(b, "\tout := interp.NewArray(%d)\n", len(rs))
			for i, r := range rs {
				fmt.Fprintf(b, "\tout.Elems[%d] = %s\n", i, resultExpr(r.TypeStr, names[i]))
			}
			b.WriteString("\treturn out, nil\n")
		}
	}
	b.WriteString("}\n\n")
}

// emitParamCheck renders the check-and-unbox lines for argument i and
// returns the Go expression that passes it to the wrapped call.
func emitParamCheck(b *strings.Builder, i int, ts string) string {
	v := fmt.Sprintf("a%d", i)
	switch ts {
	case "string":
		fmt.Fprintf(b, "\t%s, ok := f.ArgumentAt(%d).(*interp.String)\n", v, i)
		b.WriteString("\tif !ok {\n\t\treturn nil, interp.Fail(interp.ErrTypeMismatch)\n\t}\n")
		return v + ".Text()"
	case "int":
		fmt.Fprintf(b, "\t%s, ok := f.ArgumentAt(%d).(*interp.Integer)\n", v, i)
		b.WriteString("\tif !ok {\n\t\treturn nil, interp.Fail(interp.ErrTypeMismatch)\n\t}\n")
		return "int(" + v + ".Val)"
	case "int64":
		fmt.Fprintf(b, "\t%s, ok := f.ArgumentAt(%d).(*interp.Integer)\n", v, i)
		b.WriteString("\tif !ok {\n\t\treturn nil, interp.Fail(interp.ErrTypeMismatch)\n\t}\n")
		return v + ".Val"
	case "float64":
		fmt.Fprintf(b, "\t%s, ok := f.ArgumentAt(%d).(*interp.Float)\n", v, i)
		b.WriteString("\tif !ok {\n\t\treturn nil, interp.Fail(interp.ErrTypeMismatch)\n\t}\n")
		return v + ".Val"
	case "bool":
		fmt.Fprintf(b, "\t%s := f.ArgumentAt(%d)\n", v, i)
		fmt.Fprintf(b, "\tif %s != interp.True && %s != interp.False {\n\t\treturn nil, interp.Fail(interp.ErrTypeMismatch)\n\t}\n", v, v)
		return v + " == interp.True"
	}
	return v
}

// resultExpr renders the boxing expression for one result value.
func resultExpr(ts, v string) string {
	switch ts {
	case "string":
		return "interp.NewString(" + v + ")"
	case "int":
		return "&interp.Integer{Val: int64(" + v + ")}"
	case "int64":
		return "&interp.Integer{Val: " + v + "}"
	case "float64":
		return "&interp.Float{Val: " + v + "}"
	case "bool":
		return "boolVal(" + v + ")"
	}
	return v
}
