package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chazu/treepie/manifest"
	"github.com/chazu/treepie/wrap"
)

// handleWrapCommand processes the `tp wrap` subcommand.
// Usage:
//
//	tp wrap                              # all packages from treepie.toml
//	tp wrap strings                      # single package, ad-hoc
//	tp wrap --output ./wrappers          # custom output dir
//	tp wrap --base 1200 strconv          # custom primitive numbering
//	tp wrap --include Repeat,ToUpper strings  # only the named idents
func handleWrapCommand(args []string) {
	var outputDir string
	var verbose bool
	var include []string
	base := wrap.DefaultBase
	var targets []wrapTarget

	remaining := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--output", "-o":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --output requires a directory path")
				os.Exit(1)
			}
			outputDir = args[i+1]
			i++
		case "--base":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --base requires a number")
				os.Exit(1)
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: bad --base %q\n", args[i+1])
				os.Exit(1)
			}
			base = n
			i++
		case "--include":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --include requires a comma-separated name list")
				os.Exit(1)
			}
			for _, name := range strings.Split(args[i+1], ",") {
				if name = strings.TrimSpace(name); name != "" {
					include = append(include, name)
				}
			}
			i++
		case "-v", "--verbose":
			verbose = true
		default:
			remaining = append(remaining, args[i])
		}
	}

	if len(remaining) > 0 {
		// Ad-hoc package wrapping from the command line.
		for _, pkg := range remaining {
			targets = append(targets, wrapTarget{ImportPath: pkg, Include: include, Base: base})
		}
	} else {
		// Load from treepie.toml.
		m, err := manifest.FindAndLoad(".")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
			os.Exit(1)
		}
		if m == nil {
			fmt.Fprintln(os.Stderr, "Error: no treepie.toml found and no packages specified")
			fmt.Fprintln(os.Stderr, "Usage: tp wrap [packages...] or configure [wrap] in treepie.toml")
			os.Exit(1)
		}

		if len(m.Wrap.Packages) == 0 {
			fmt.Fprintln(os.Stderr, "No [wrap.packages] configured in treepie.toml")
			os.Exit(1)
		}

		if outputDir == "" {
			outputDir = m.WrapOutputDir()
		}

		for _, pkg := range m.Wrap.Packages {
			b := pkg.Base
			if b == 0 {
				b = wrap.DefaultBase
			}
			targets = append(targets, wrapTarget{
				ImportPath: pkg.Import,
				Include:    pkg.Include,
				Base:       b,
			})
		}
	}

	if outputDir == "" {
		outputDir = filepath.Join(".treepie", "wrap")
	}

	for _, target := range targets {
		if err := wrapPackage(target, outputDir, verbose); err != nil {
			fmt.Fprintf(os.Stderr, "Error wrapping %s: %v\n", target.ImportPath, err)
			os.Exit(1)
		}
	}

	if verbose {
		fmt.Printf("Wrapped %d package(s) to %s\n", len(targets), outputDir)
	}
}

type wrapTarget struct {
	ImportPath string
	Include    []string
	Base       int
}

func wrapPackage(target wrapTarget, outputDir string, verbose bool) error {
	if verbose {
		fmt.Printf("Wrapping %s...\n", target.ImportPath)
	}

	var filter map[string]bool
	if len(target.Include) > 0 {
		filter = make(map[string]bool)
		for _, name := range target.Include {
			filter[name] = true
		}
	}

	model, err := wrap.IntrospectPackage(target.ImportPath, filter)
	if err != nil {
		return fmt.Errorf("introspecting: %w", err)
	}

	if verbose {
		fmt.Printf("  Found %d functions, %d types, %d constants\n",
			len(model.Functions), len(model.Types), len(model.Constants))
	}

	goCode, err := wrap.GenerateGlue(model, target.Base)
	if err != nil {
		return fmt.Errorf("generating glue: %w", err)
	}

	tpCode, err := wrap.GenerateStubs(model, target.Base)
	if err != nil {
		return fmt.Errorf("generating stubs: %w", err)
	}

	pkgDir := filepath.Join(outputDir, wrap.PkgNameFor(model.Name))
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	goPath := filepath.Join(pkgDir, "wrap.go")
	if err := os.WriteFile(goPath, []byte(goCode), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", goPath, err)
	}

	tpPath := filepath.Join(pkgDir, "stubs.tp")
	if err := os.WriteFile(tpPath, []byte(tpCode), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tpPath, err)
	}

	if verbose {
		fmt.Printf("  Wrote %s\n", goPath)
		fmt.Printf("  Wrote %s\n", tpPath)
	}

	return nil
}
