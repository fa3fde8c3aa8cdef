// Treepie CLI - the main entry point for running Treepie programs
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/treepie/compiler"
	"github.com/chazu/treepie/interp"
	"github.com/chazu/treepie/server"
	"github.com/chazu/treepie/store"
)

func main() {
	// Subcommands carry their own flags, so dispatch before flag.Parse.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "wrap":
			handleWrapCommand(os.Args[2:])
			return
		case "deps":
			handleDepsCommand(os.Args[2:])
			return
		}
	}

	verbose := flag.Bool("v", false, "Verbose output")
	interactive := flag.Bool("i", false, "Start interactive REPL")
	mainEntry := flag.String("m", "", "Entry point ('Class.selector', or a selector on Main)")
	noRC := flag.Bool("no-rc", false, "Skip loading ~/.treepierc")
	lspMode := flag.Bool("lsp", false, "Serve the language server on stdio")
	imagePath := flag.String("image", "", "Load an image snapshot before compiling")
	saveImage := flag.String("save-image", "", "Write an image snapshot after compiling")
	catalogPath := flag.String("catalog", "", "Record compiled methods in a catalog database")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tp [options] [paths...]\n")
		fmt.Fprintf(os.Stderr, "       tp wrap [options] [packages...]\n")
		fmt.Fprintf(os.Stderr, "       tp deps\n\n")
		fmt.Fprintf(os.Stderr, "Compiles .tp files from the given paths into a fresh interpreter.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tp -i                     # Start REPL\n")
		fmt.Fprintf(os.Stderr, "  tp ./src -m main          # Load src/, run Main.main\n")
		fmt.Fprintf(os.Stderr, "  tp ./... -m App.start     # Load recursively, run App.start\n")
		fmt.Fprintf(os.Stderr, "  tp ./src --save-image out.image\n")
		fmt.Fprintf(os.Stderr, "  tp --lsp                  # Language server on stdio\n")
		fmt.Fprintf(os.Stderr, "  tp wrap strings           # Generate Go wrappers for a package\n")
	}
	flag.Parse()

	in := interp.New()

	if *imagePath != "" {
		if err := interp.LoadImage(in, *imagePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
			os.Exit(1)
		}
		if *verbose {
			fmt.Printf("Loaded image %s\n", *imagePath)
		}
	}

	var catalog *store.Catalog
	if *catalogPath != "" {
		var err error
		catalog, err = store.Open(*catalogPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening catalog: %v\n", err)
			os.Exit(1)
		}
		defer catalog.Close()
	}

	if !*noRC {
		if err := loadRC(in, *verbose); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error loading ~/.treepierc: %v\n", err)
		}
	}

	paths := flag.Args()
	total := 0
	for _, path := range paths {
		n, err := compilePath(in, path, catalog, *verbose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		total += n
	}
	if *verbose && total > 0 {
		fmt.Printf("Compiled %d methods\n", total)
	}

	if *saveImage != "" {
		if err := interp.SaveImage(in, *saveImage); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing image: %v\n", err)
			os.Exit(1)
		}
		if *verbose {
			fmt.Printf("Wrote image %s\n", *saveImage)
		}
	}

	if *mainEntry != "" {
		result, err := runEntry(in, *mainEntry, *verbose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		// An Integer answer becomes the process exit code.
		if i, ok := result.(*interp.Integer); ok {
			os.Exit(int(i.Val))
		}
		os.Exit(0)
	}

	if *lspMode {
		if err := server.NewLSP(in).Run(); err != nil {
			fmt.Fprintf(os.Stderr, "LSP server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *interactive || len(paths) == 0 {
		runREPL(in)
	}
}

// loadRC files in ~/.treepierc if it exists.
func loadRC(in *interp.Interp, verbose bool) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	rcPath := filepath.Join(home, ".treepierc")
	if _, err := os.Stat(rcPath); os.IsNotExist(err) {
		return nil
	}

	if verbose {
		fmt.Printf("Loading %s\n", rcPath)
	}

	_, err = loadFile(in, rcPath, nil, verbose)
	return err
}

// runEntry resolves and runs the entry point. "Class.selector" sends
// selector to the class; a bare selector targets the Main class. When
// only the instance side defines the selector, it runs on a fresh
// instance.
func runEntry(in *interp.Interp, entry string, verbose bool) (interp.Value, error) {
	className := "Main"
	selector := entry
	if strings.Contains(entry, ".") {
		parts := strings.SplitN(entry, ".", 2)
		className, selector = parts[0], parts[1]
	}

	cls := in.Classes.Lookup(className)
	if cls == nil {
		return nil, fmt.Errorf("class %q not found", className)
	}

	if cls.LookupClassMethod(selector) != nil {
		if verbose {
			fmt.Printf("Running %s class>>%s\n", className, selector)
		}
		return in.Send(cls, selector, nil)
	}

	if cls.LookupMethod(selector) == nil {
		return nil, fmt.Errorf("%s does not define %q on either side", className, selector)
	}

	if verbose {
		fmt.Printf("Running %s>>%s on a new instance\n", className, selector)
	}
	recv, err := in.Send(cls, "new", nil)
	if err != nil {
		return nil, err
	}
	return in.Send(recv, selector, nil)
}

// runREPL starts an interactive read-eval-print loop.
func runREPL(in *interp.Interp) {
	fmt.Println("Treepie REPL (type 'exit' to quit, ':help' for commands)")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	var buffer strings.Builder

	flush := func() {
		input := strings.TrimSpace(buffer.String())
		buffer.Reset()
		if input != "" {
			evalInput(in, input)
		}
	}

	for {
		if buffer.Len() == 0 {
			fmt.Print(">> ")
		} else {
			fmt.Print(".. ")
		}

		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		if buffer.Len() == 0 && (line == "exit" || line == "quit") {
			break
		}

		if buffer.Len() == 0 && strings.HasPrefix(line, ":") {
			handleREPLCommand(in, line)
			continue
		}

		// A blank line executes whatever has accumulated.
		if line == "" && buffer.Len() > 0 {
			flush()
			continue
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)

		// A '.'-terminated line executes immediately. Class bodies
		// never end with one, so definitions keep accumulating until
		// a blank line.
		if strings.HasSuffix(strings.TrimSpace(line), ".") {
			flush()
		}
	}

	fmt.Println()
}

// handleREPLCommand handles ':' meta-commands.
func handleREPLCommand(in *interp.Interp, cmd string) {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Println("REPL Commands:")
		fmt.Println("  :help, :h, :?     Show this help")
		fmt.Println("  :classes          List defined classes")
		fmt.Println("  :globals          List global bindings")
		fmt.Println("  exit, quit        Exit REPL")
	case ":classes":
		for _, name := range in.Classes.Names() {
			fmt.Println(name)
		}
	case ":globals":
		for _, name := range in.Globals.Names() {
			fmt.Println(name)
		}
	default:
		fmt.Printf("Unknown command: %s (type :help for commands)\n", cmd)
	}
}

// evalInput compiles one REPL input and prints its result. Class
// definitions file in through the source loader; anything else runs
// as an expression sequence, so temporaries work.
func evalInput(in *interp.Interp, input string) {
	var result interp.Value
	var err error

	if looksLikeClassDef(input) {
		result, err = compiler.LoadSource(in, input)
	} else {
		var m *interp.Method
		m, err = compiler.Compile(input)
		if err == nil {
			result, err = in.ExecuteMethod(m, interp.Nil, nil)
		}
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println(result.Inspect())
}

// looksLikeClassDef reports whether input opens with a class
// definition header (Name subclass: Super).
func looksLikeClassDef(input string) bool {
	fields := strings.Fields(input)
	return len(fields) >= 2 && fields[1] == "subclass:"
}

// compilePath compiles .tp files from a path into the interpreter.
// A trailing /... loads directories recursively.
func compilePath(in *interp.Interp, path string, catalog *store.Catalog, verbose bool) (int, error) {
	recursive := false
	if strings.HasSuffix(path, "/...") {
		recursive = true
		path = strings.TrimSuffix(path, "/...")
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("invalid path %q: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("cannot access %q: %w", path, err)
	}

	var files []string
	switch {
	case info.IsDir() && recursive:
		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && strings.HasSuffix(p, ".tp") {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("walking %q: %w", path, err)
		}
	case info.IsDir():
		entries, err := os.ReadDir(path)
		if err != nil {
			return 0, fmt.Errorf("reading %q: %w", path, err)
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".tp") {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
	case strings.HasSuffix(path, ".tp"):
		files = append(files, path)
	default:
		return 0, fmt.Errorf("%q is not a .tp file", path)
	}

	total := 0
	for _, file := range files {
		n, err := loadFile(in, file, catalog, verbose)
		if err != nil {
			return total, fmt.Errorf("loading %q: %w", file, err)
		}
		total += n
	}
	return total, nil
}

// loadFile files one .tp source into the interpreter, counting the
// methods it defines and recording them in the catalog when one is
// open.
func loadFile(in *interp.Interp, path string, catalog *store.Catalog, verbose bool) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	source := string(content)

	p := compiler.NewParser(source)
	sf := p.ParseSourceFile()
	if errs := p.Errors(); len(errs) > 0 {
		return 0, fmt.Errorf("parse error: %s", strings.Join(errs, "; "))
	}

	if _, err := compiler.LoadSource(in, source); err != nil {
		return 0, err
	}

	compiled := 0
	for _, def := range sf.Classes {
		compiled += len(def.Methods) + len(def.ClassMethods)
		if catalog == nil {
			continue
		}
		if err := recordClass(catalog, def); err != nil {
			return compiled, err
		}
	}

	if verbose && compiled > 0 {
		fmt.Printf("  %s: %d methods\n", filepath.Base(path), compiled)
	}
	return compiled, nil
}

// recordClass writes one catalog row per method definition. The
// store's digests keep unchanged methods untouched across rebuilds.
func recordClass(catalog *store.Catalog, def *compiler.ClassDef) error {
	for _, md := range def.Methods {
		if _, err := catalog.PutMethod(store.MethodRecord{
			ClassName: def.Name,
			Selector:  md.Selector,
			Source:    md.Source,
		}); err != nil {
			return err
		}
	}
	for _, md := range def.ClassMethods {
		if _, err := catalog.PutMethod(store.MethodRecord{
			ClassName: def.Name,
			Selector:  md.Selector,
			ClassSide: true,
			Source:    md.Source,
		}); err != nil {
			return err
		}
	}
	return nil
}
