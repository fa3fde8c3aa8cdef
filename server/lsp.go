package server

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/treepie/compiler"
	"github.com/chazu/treepie/interp"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "treepie-lsp"

// cmdEvalSelection evaluates an editor selection through the worker
// and answers the printed result.
const cmdEvalSelection = "treepie.evalSelection"

// LspServer bridges editor features to the interpreter via EvalWorker.
type LspServer struct {
	worker *EvalWorker

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates an LSP server owning the given interpreter.
func NewLSP(in *interp.Interp) *LspServer {
	s := &LspServer{
		worker:  NewEvalWorker(in),
		docs:    make(map[string]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
		TextDocumentReferences: s.textDocumentReferences,

		WorkspaceExecuteCommand: s.workspaceExecuteCommand,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run serves LSP on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- Lifecycle ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	commonlog.NewInfoMessage(0, "Treepie LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{".", ":"},
	}

	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true
	capabilities.ReferencesProvider = true

	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{cmdEvalSelection},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With full sync the last change event carries the whole text.
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	s.mu.Lock()
	text, ok := s.docs[string(params.TextDocument.URI)]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(text, params.Position)
	if prefix == "" {
		return nil, nil
	}

	return s.worker.Do(func(in *interp.Interp) any {
		return s.complete(in, prefix)
	})
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	s.mu.Lock()
	text, ok := s.docs[string(params.TextDocument.URI)]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}

	result, err := s.worker.Do(func(in *interp.Interp) any {
		return s.hover(in, word)
	})
	if err != nil || result == nil {
		return nil, nil
	}
	hover, ok := result.(*protocol.Hover)
	if !ok {
		return nil, nil
	}
	return hover, nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	s.mu.Lock()
	text, ok := s.docs[string(params.TextDocument.URI)]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}

	result, err := s.worker.Do(func(in *interp.Interp) any {
		return s.definition(in, word)
	})
	if err != nil {
		return nil, nil
	}
	locations, ok := result.([]protocol.Location)
	if !ok || len(locations) == 0 {
		return nil, nil
	}
	return locations, nil
}

func (s *LspServer) textDocumentReferences(ctx *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	s.mu.Lock()
	text, ok := s.docs[string(params.TextDocument.URI)]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}

	result, err := s.worker.Do(func(in *interp.Interp) any {
		return s.references(in, word)
	})
	if err != nil {
		return nil, nil
	}
	locations, ok := result.([]protocol.Location)
	if !ok || len(locations) == 0 {
		return nil, nil
	}
	return locations, nil
}

func (s *LspServer) workspaceExecuteCommand(ctx *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	if params.Command != cmdEvalSelection {
		return nil, fmt.Errorf("unknown command %q", params.Command)
	}
	if len(params.Arguments) == 0 {
		return nil, fmt.Errorf("%s needs the selection text", cmdEvalSelection)
	}
	text, ok := params.Arguments[0].(string)
	if !ok {
		return nil, fmt.Errorf("%s: selection must be a string", cmdEvalSelection)
	}
	return s.evalSelection(text)
}

// evalSelection runs one selection through the interpreter. Evaluation
// failures come back as protocol errors so the editor surfaces them.
func (s *LspServer) evalSelection(text string) (any, error) {
	result, err := s.worker.Do(func(in *interp.Interp) any {
		v, evalErr := compiler.LoadSource(in, text)
		if evalErr != nil {
			return evalErr
		}
		return v.Inspect()
	})
	if err != nil {
		return nil, err
	}
	if evalErr, ok := result.(error); ok {
		return nil, evalErr
	}
	return result, nil
}

// --- Registry-backed logic (runs on the worker goroutine) ---

func (s *LspServer) complete(in *interp.Interp, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	lowerPrefix := strings.ToLower(prefix)

	// Class names.
	for _, name := range in.Classes.Names() {
		if !strings.HasPrefix(strings.ToLower(name), lowerPrefix) {
			continue
		}
		cls := in.Classes.Lookup(name)
		if cls == nil {
			continue
		}
		kind := protocol.CompletionItemKindClass
		detail := "class"
		if cls.Superclass != nil {
			detail = fmt.Sprintf("class (< %s)", cls.Superclass.Name)
		}
		items = append(items, protocol.CompletionItem{
			Label:      name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &cls.Name,
		})
	}

	// Globals that are not classes.
	for _, name := range in.Globals.Names() {
		if !strings.HasPrefix(strings.ToLower(name), lowerPrefix) {
			continue
		}
		if in.Classes.Lookup(name) != nil {
			continue
		}
		name := name
		kind := protocol.CompletionItemKindVariable
		detail := "global"
		items = append(items, protocol.CompletionItem{
			Label:      name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &name,
		})
	}

	// Selectors from every method table.
	for _, sel := range allSelectors(in) {
		if !strings.HasPrefix(strings.ToLower(sel), lowerPrefix) {
			continue
		}
		sel := sel
		kind := protocol.CompletionItemKindFunction
		detail := "selector"
		items = append(items, protocol.CompletionItem{
			Label:      sel,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &sel,
		})
	}

	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items
}

func (s *LspServer) hover(in *interp.Interp, word string) *protocol.Hover {
	if unicode.IsUpper(rune(word[0])) {
		cls := in.Classes.Lookup(word)
		if cls == nil {
			return nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "**%s**", cls.Name)
		if cls.Superclass != nil {
			fmt.Fprintf(&b, " < %s", cls.Superclass.Name)
		}
		b.WriteString("\n\n")

		if len(cls.InstVarNames) > 0 {
			fmt.Fprintf(&b, "Instance variables: `%s`\n\n", strings.Join(cls.InstVarNames, " "))
		}

		fmt.Fprintf(&b, "%d instance methods, %d class methods", len(cls.Selectors()), len(cls.ClassSelectors()))

		if chain := hierarchyOf(cls); len(chain) > 1 {
			fmt.Fprintf(&b, "\n\nHierarchy: %s", strings.Join(chain, " < "))
		}

		return markdownHover(b.String())
	}

	selector, implementors := implementorsOf(in, word)
	if len(implementors) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**#%s**\n\n", selector)
	fmt.Fprintf(&b, "Implemented by %d classes:\n", len(implementors))
	for _, name := range implementors {
		fmt.Fprintf(&b, "- %s\n", name)
	}

	// Show the first implementor whose source was recorded.
	for _, name := range implementors {
		if src := sourceOf(in, name, selector); src != "" {
			fmt.Fprintf(&b, "\n```\n%s\n```\n", src)
			break
		}
	}

	return markdownHover(b.String())
}

// definition resolves word to where it is defined. Classes and
// methods live in the registry rather than in files, so locations
// carry virtual treepie:// URIs with zero ranges and the client
// decides how to present them.
func (s *LspServer) definition(in *interp.Interp, word string) []protocol.Location {
	if unicode.IsUpper(rune(word[0])) {
		cls := in.Classes.Lookup(word)
		if cls == nil {
			return nil
		}
		return []protocol.Location{classLocation(cls.Name)}
	}

	selector, implementors := implementorsOf(in, word)
	if len(implementors) == 0 {
		return nil
	}

	locations := make([]protocol.Location, 0, len(implementors))
	for _, name := range implementors {
		locations = append(locations, methodLocation(name, selector))
	}
	return locations
}

// references lists every method whose body sends the selector named
// by word, nested blocks and cascades included.
func (s *LspServer) references(in *interp.Interp, word string) []protocol.Location {
	selector, implementors := implementorsOf(in, word)
	if len(implementors) == 0 {
		return nil
	}

	var locations []protocol.Location
	for _, name := range in.Classes.Names() {
		cls := in.Classes.Lookup(name)
		if cls == nil {
			continue
		}
		for _, sel := range cls.Selectors() {
			if m := cls.MethodNamed(sel); m != nil && sendsSelector(m.Body, selector) {
				locations = append(locations, methodLocation(name, sel))
			}
		}
		for _, sel := range cls.ClassSelectors() {
			if m := cls.ClassMethodNamed(sel); m != nil && sendsSelector(m.Body, selector) {
				locations = append(locations, methodLocation(name+" class", sel))
			}
		}
	}
	return locations
}

func classLocation(name string) protocol.Location {
	return protocol.Location{
		URI: protocol.DocumentUri(fmt.Sprintf("treepie://class/%s", name)),
	}
}

// methodLocation builds the virtual URI for one method; implementor
// is a class name, suffixed with " class" for the class side.
func methodLocation(implementor, selector string) protocol.Location {
	return protocol.Location{
		URI: protocol.DocumentUri(fmt.Sprintf("treepie://class/%s/%s", implementor, selector)),
	}
}

// sendsSelector reports whether a send of selector appears anywhere
// in the tree under n.
func sendsSelector(n interp.Node, selector string) bool {
	switch node := n.(type) {
	case *interp.Send:
		if node.Selector == selector {
			return true
		}
		if sendsSelector(node.Receiver, selector) {
			return true
		}
		for _, arg := range node.Args {
			if sendsSelector(arg, selector) {
				return true
			}
		}
	case *interp.Cascade:
		if sendsSelector(node.Receiver, selector) {
			return true
		}
		for _, msg := range node.Messages {
			if msg.Selector == selector {
				return true
			}
			for _, arg := range msg.Args {
				if sendsSelector(arg, selector) {
					return true
				}
			}
		}
	case *interp.Assign:
		return sendsSelector(node.Value, selector)
	case *interp.Seq:
		if node == nil {
			return false
		}
		for _, stmt := range node.Stmts {
			if sendsSelector(stmt, selector) {
				return true
			}
		}
	case *interp.Return:
		if node.Value != nil {
			return sendsSelector(node.Value, selector)
		}
	case *interp.BlockLit:
		return sendsSelector(node.Body, selector)
	case *interp.DynArray:
		for _, elem := range node.Elements {
			if sendsSelector(elem, selector) {
				return true
			}
		}
	}
	return false
}

func markdownHover(value string) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: value,
		},
	}
}

// hierarchyOf returns the class chain from cls up to the root.
func hierarchyOf(cls *interp.Class) []string {
	var names []string
	for c := cls; c != nil; c = c.Superclass {
		names = append(names, c.Name)
	}
	return names
}

// implementorsOf finds the classes defining word as a selector,
// trying the bare word first and then its keyword form. Class-side
// definitions report as "Name class".
func implementorsOf(in *interp.Interp, word string) (string, []string) {
	for _, selector := range []string{word, word + ":"} {
		var impls []string
		for _, name := range in.Classes.Names() {
			cls := in.Classes.Lookup(name)
			if cls == nil {
				continue
			}
			if cls.MethodNamed(selector) != nil {
				impls = append(impls, name)
			}
			if cls.ClassMethodNamed(selector) != nil {
				impls = append(impls, name+" class")
			}
		}
		if len(impls) > 0 {
			sort.Strings(impls)
			return selector, impls
		}
	}
	return "", nil
}

// sourceOf returns the recorded source of implementor's definition of
// selector, where implementor is a class name possibly suffixed with
// " class" for the class side.
func sourceOf(in *interp.Interp, implementor, selector string) string {
	clsName, classSide := strings.CutSuffix(implementor, " class")
	cls := in.Classes.Lookup(clsName)
	if cls == nil {
		return ""
	}
	var m *interp.Method
	if classSide {
		m = cls.ClassMethodNamed(selector)
	} else {
		m = cls.MethodNamed(selector)
	}
	if m == nil {
		return ""
	}
	return m.Source
}

// allSelectors returns every selector defined anywhere in the
// registry, both sides, deduplicated and sorted.
func allSelectors(in *interp.Interp) []string {
	seen := make(map[string]bool)
	for _, name := range in.Classes.Names() {
		cls := in.Classes.Lookup(name)
		if cls == nil {
			continue
		}
		for _, sel := range cls.Selectors() {
			seen[sel] = true
		}
		for _, sel := range cls.ClassSelectors() {
			seen[sel] = true
		}
	}
	out := make([]string, 0, len(seen))
	for sel := range seen {
		out = append(out, sel)
	}
	sort.Strings(out)
	return out
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	result, err := s.worker.Do(func(in *interp.Interp) any {
		return compiler.CheckSource(text, in.Classes.Lookup)
	})
	if err != nil {
		return
	}

	var diagnostics []protocol.Diagnostic
	if msgs, ok := result.([]string); ok {
		diagnostics = diagnosticsFromMessages(msgs)
	}
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnosticsFromMessages converts checker messages to protocol
// diagnostics, reading the "line N:" prefix the front end puts on
// every message.
func diagnosticsFromMessages(msgs []string) []protocol.Diagnostic {
	var out []protocol.Diagnostic
	severity := protocol.DiagnosticSeverityError
	source := lspName
	for _, msg := range msgs {
		line := diagnosticLine(msg)
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: 0},
				End:   protocol.Position{Line: line, Character: 0},
			},
			Severity: &severity,
			Source:   &source,
			Message:  msg,
		})
	}
	return out
}

// diagnosticLine extracts the 0-based line from a "line N:" prefix.
// Messages without one land on the first line.
func diagnosticLine(msg string) protocol.UInteger {
	rest, ok := strings.CutPrefix(msg, "line ")
	if !ok {
		return 0
	}
	end := strings.IndexByte(rest, ':')
	if end < 0 {
		return 0
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil || n < 1 {
		return 0
	}
	return protocol.UInteger(n - 1)
}

// --- Text extraction ---

// extractPrefix returns the word fragment before the cursor, colons
// included so keyword selectors complete.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	start := col
	for start > 0 {
		ch := rune(line[start-1])
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == ':' {
			start--
		} else {
			break
		}
	}

	if start == col {
		return ""
	}
	return line[start:col]
}

// extractWord returns the identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	start := col
	for start > 0 {
		ch := rune(line[start-1])
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' {
			start--
		} else {
			break
		}
	}

	end := col
	for end < len(line) {
		ch := rune(line[end])
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' {
			end++
		} else {
			break
		}
	}

	if start == end {
		return ""
	}
	return line[start:end]
}

func boolPtr(b bool) *bool {
	return &b
}
