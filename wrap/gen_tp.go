package wrap

import (
	"fmt"
	"strconv"
	"strings"
)

// GenerateStubs renders the language side of a wrapped package: one
// class whose class methods carry the <primitive: N> tags matching
// the glue registered at the same base, each with a primitiveFailed
// fallback. Constants become class methods answering literals.
func GenerateStubs(m *PackageModel, base int) (string, error) {
	if base < MinBase {
		return "", fmt.Errorf("primitive base %d is below the wrapper floor %d", base, MinBase)
	}

	className := ClassNameFor(m.ImportPath)
	fns := WrappedFunctions(m)

	var b strings.Builder
	fmt.Fprintf(&b, "\"Code generated by tp wrap from Go package %s. Do not edit.\"\n\n", m.ImportPath)
	fmt.Fprintf(&b, "%s subclass: Object\n", className)

	for i, fn := range fns {
		fmt.Fprintf(&b, "  classMethod: %s [\n", stubPattern(fn))
		fmt.Fprintf(&b, "    <primitive: %d>\n", base+i)
		b.WriteString("    ^self primitiveFailed\n")
		b.WriteString("  ]\n")
	}

	for _, c := range m.Constants {
		lit, ok := constantLiteral(c)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  classMethod: %s [\n", SelectorFor(c.Name, 0))
		fmt.Fprintf(&b, "    ^%s\n", lit)
		b.WriteString("  ]\n")
	}

	return b.String(), nil
}

// stubPattern renders the method pattern for fn: unary for no
// parameters, keyword parts with positional argument names otherwise
// ("contains: a0 _: a1").
func stubPattern(fn FunctionModel) string {
	sel := SelectorFor(fn.Name, len(fn.Params))
	if len(fn.Params) == 0 {
		return sel
	}
	var b strings.Builder
	n := 0
	for _, part := range strings.SplitAfter(sel, ":") {
		if part == "" {
			continue
		}
		if n > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s a%d", part, n)
		n++
	}
	return b.String()
}

// constantLiteral renders a constant as a source literal. Constants
// whose values do not fit the literal grammar (wider than int64,
// named non-basic types) are skipped.
func constantLiteral(c ConstantModel) (string, bool) {
	switch {
	case strings.Contains(c.TypeStr, "string"):
		return "'" + strings.ReplaceAll(c.Value, "'", "''") + "'", true
	case strings.Contains(c.TypeStr, "bool"):
		if c.Value == "true" || c.Value == "false" {
			return c.Value, true
		}
		return "", false
	case strings.Contains(c.TypeStr, "float"):
		f, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			return "", false
		}
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s, true
	case strings.Contains(c.TypeStr, "int"):
		if _, err := strconv.ParseInt(c.Value, 10, 64); err != nil {
			return "", false
		}
		return c.Value, true
	}
	return "", false
}
