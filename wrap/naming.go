package wrap

import (
	"strings"
	"unicode"
)

// ClassNameFor converts a Go import path to a stub class name. The Go
// prefix keeps wrapped classes in one recognizable family:
// "strings" → "GoStrings", "encoding/json" → "GoJson".
func ClassNameFor(importPath string) string {
	parts := strings.Split(importPath, "/")
	return "Go" + toPascal(parts[len(parts)-1])
}

// SelectorFor converts a Go function name to a selector. Go exports
// PascalCase; selectors are camelCase. No parameters gives a unary
// selector, one gives a single keyword, and further parameters chain
// anonymous keyword parts: "HasPrefix" with 2 params → "hasPrefix:_:".
func SelectorFor(name string, paramCount int) string {
	if name == "" {
		return name
	}
	sel := strings.ToLower(name[:1]) + name[1:]
	if paramCount == 0 {
		return sel
	}
	return sel + ":" + strings.Repeat("_:", paramCount-1)
}

// SanitizePkgName maps a Go package name onto something usable in a
// generated package name or directory.
func SanitizePkgName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// PkgNameFor names the generated glue package for a wrapped Go
// package. The output directory uses the same name so the directory
// always matches the package clause.
func PkgNameFor(name string) string {
	return "wrap_" + SanitizePkgName(name)
}

// toPascal converts hyphenated or underscore-separated names to
// PascalCase.
func toPascal(s string) string {
	var b strings.Builder
	nextUpper := true
	for _, r := range s {
		if r == '-' || r == '_' {
			nextUpper = true
			continue
		}
		if nextUpper {
			b.WriteRune(unicode.ToUpper(r))
			nextUpper = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
