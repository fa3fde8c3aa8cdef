package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/treepie/compiler"
	"github.com/chazu/treepie/manifest"
)

// handleDepsCommand processes the `tp deps` subcommand: it
// materializes the manifest's git dependencies under .treepie/deps
// and prints where each one landed.
func handleDepsCommand(args []string) {
	verbose := false
	for _, arg := range args {
		if arg == "-v" || arg == "--verbose" {
			verbose = true
		}
	}

	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	if m == nil {
		fmt.Fprintln(os.Stderr, "Error: no treepie.toml found")
		os.Exit(1)
	}

	if len(m.Dependencies) == 0 {
		fmt.Println("No dependencies declared")
		return
	}

	resolver := manifest.NewResolver(m, verbose)
	resolved, err := resolver.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving dependencies: %v\n", err)
		os.Exit(1)
	}

	for _, dep := range resolved {
		ref := dep.Dep.Ref
		if ref == "" {
			ref = "HEAD"
		}
		fmt.Printf("%-20s %-12s %s\n", dep.Name, ref, dep.LocalPath)
	}

	if err := auditDepSources(resolved); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// auditDepSources parses the .tp sources of every resolved dependency
// and rejects class definitions that would clobber the flat registry:
// kernel class names, and names two dependencies both define. Without
// the check, load order decides silently.
func auditDepSources(deps []manifest.ResolvedDep) error {
	definedBy := make(map[string]string)
	var problems []string

	for _, dep := range deps {
		classes, err := depClassNames(dep)
		if err != nil {
			return err
		}
		for _, name := range classes {
			if manifest.IsReservedClassName(name) {
				problems = append(problems, fmt.Sprintf("%s defines kernel class %s", dep.Name, name))
				continue
			}
			if prev, ok := definedBy[name]; ok && prev != dep.Name {
				problems = append(problems, fmt.Sprintf("%s and %s both define %s", prev, dep.Name, name))
				continue
			}
			definedBy[name] = dep.Name
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("dependency class conflicts:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// depClassNames collects every class a dependency's .tp sources
// define. A dependency redefining its own class is its business; a
// source dir a manifest declares but never created is skipped.
func depClassNames(dep manifest.ResolvedDep) ([]string, error) {
	var names []string
	for _, dir := range dep.SourceDirPaths() {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !strings.HasSuffix(p, ".tp") {
				return nil
			}
			content, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			parser := compiler.NewParser(string(content))
			sf := parser.ParseSourceFile()
			if errs := parser.Errors(); len(errs) > 0 {
				return fmt.Errorf("%s: parse error: %s", filepath.Base(p), strings.Join(errs, "; "))
			}
			for _, def := range sf.Classes {
				names = append(names, def.Name)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dep.Name, err)
		}
	}
	return names, nil
}
