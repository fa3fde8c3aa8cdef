package server

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/treepie/compiler"
	"github.com/chazu/treepie/interp"
)

const lspFixture = `Point subclass: Object
  instanceVars: x y
  method: x [ ^x ]
  method: y [ ^y ]
  method: setX: ax [ x := ax ]
  classMethod: origin [ ^self new ]

Shape subclass: Object
  method: area [ ^0 ]

Scale := 2.`

// newTestLSP loads the fixture classes and returns the server plus
// the interpreter it wraps. The worker is idle between Do calls, so
// tests may poke the registry-backed helpers directly.
func newTestLSP(t *testing.T) (*LspServer, *interp.Interp) {
	t.Helper()
	in := interp.New()
	if _, err := compiler.LoadSource(in, lspFixture); err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	s := NewLSP(in)
	t.Cleanup(s.worker.Stop)
	return s, in
}

func TestInitializeCapabilities(t *testing.T) {
	s, _ := newTestLSP(t)

	result, err := s.initialize(nil, &protocol.InitializeParams{})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	init, ok := result.(protocol.InitializeResult)
	if !ok {
		t.Fatalf("result = %T, want InitializeResult", result)
	}

	if init.Capabilities.TextDocumentSync == nil {
		t.Error("TextDocumentSync should be advertised")
	}
	cp := init.Capabilities.CompletionProvider
	if cp == nil || len(cp.TriggerCharacters) == 0 {
		t.Error("CompletionProvider with trigger characters should be advertised")
	}
	if init.Capabilities.DefinitionProvider != true {
		t.Error("DefinitionProvider should be advertised")
	}
	if init.Capabilities.ReferencesProvider != true {
		t.Error("ReferencesProvider should be advertised")
	}
	ec := init.Capabilities.ExecuteCommandProvider
	if ec == nil || len(ec.Commands) != 1 || ec.Commands[0] != cmdEvalSelection {
		t.Errorf("ExecuteCommandProvider = %+v, want %s", ec, cmdEvalSelection)
	}
	if init.ServerInfo == nil || init.ServerInfo.Name != lspName {
		t.Errorf("ServerInfo = %+v, want name %s", init.ServerInfo, lspName)
	}
}

// --- Completion ---

func completionLabels(items []protocol.CompletionItem) []string {
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	return labels
}

func hasLabel(items []protocol.CompletionItem, label string) bool {
	for _, item := range items {
		if item.Label == label {
			return true
		}
	}
	return false
}

func TestCompleteClasses(t *testing.T) {
	s, in := newTestLSP(t)

	items := s.complete(in, "Po")
	if !hasLabel(items, "Point") {
		t.Fatalf("completions for Po = %v, want Point", completionLabels(items))
	}
	for _, item := range items {
		if item.Label != "Point" {
			continue
		}
		if item.Kind == nil || *item.Kind != protocol.CompletionItemKindClass {
			t.Error("Point should complete as a class")
		}
		if item.Detail == nil || !strings.Contains(*item.Detail, "Object") {
			t.Errorf("Point detail should name the superclass, got %v", item.Detail)
		}
	}
}

func TestCompleteMatchesCaseInsensitively(t *testing.T) {
	s, in := newTestLSP(t)

	if !hasLabel(s.complete(in, "po"), "Point") {
		t.Error("lowercase prefix should still find Point")
	}
}

func TestCompleteGlobals(t *testing.T) {
	s, in := newTestLSP(t)

	items := s.complete(in, "Sca")
	if !hasLabel(items, "Scale") {
		t.Fatalf("completions for Sca = %v, want Scale", completionLabels(items))
	}
	// Class names must not double as globals.
	for _, item := range s.complete(in, "Point") {
		if item.Label == "Point" && item.Detail != nil && *item.Detail == "global" {
			t.Error("Point should complete as a class, not a global")
		}
	}
}

func TestCompleteSelectors(t *testing.T) {
	s, in := newTestLSP(t)

	items := s.complete(in, "set")
	if !hasLabel(items, "setX:") {
		t.Fatalf("completions for set = %v, want setX:", completionLabels(items))
	}
	if !hasLabel(s.complete(in, "orig"), "origin") {
		t.Error("class-side selectors should complete too")
	}
}

func TestCompleteCapsResults(t *testing.T) {
	s, in := newTestLSP(t)

	// An empty prefix matches the whole kernel.
	if n := len(s.complete(in, "")); n > 100 {
		t.Errorf("completion count = %d, want at most 100", n)
	}
}

// --- Hover ---

func TestHoverClass(t *testing.T) {
	s, in := newTestLSP(t)

	hover := s.hover(in, "Point")
	if hover == nil {
		t.Fatal("hover over Point should answer")
	}
	value := hover.Contents.(protocol.MarkupContent).Value
	for _, want := range []string{
		"**Point** < Object",
		"Instance variables: `x y`",
		"3 instance methods, 1 class methods",
		"Hierarchy: Point < Object",
	} {
		if !strings.Contains(value, want) {
			t.Errorf("hover missing %q in:\n%s", want, value)
		}
	}
}

func TestHoverSelector(t *testing.T) {
	s, in := newTestLSP(t)

	hover := s.hover(in, "area")
	if hover == nil {
		t.Fatal("hover over area should answer")
	}
	value := hover.Contents.(protocol.MarkupContent).Value
	if !strings.Contains(value, "#area") || !strings.Contains(value, "Shape") {
		t.Errorf("hover should name the selector and implementor:\n%s", value)
	}
}

func TestHoverKeywordFallback(t *testing.T) {
	s, in := newTestLSP(t)

	// "setX" is only defined as the keyword selector setX:.
	hover := s.hover(in, "setX")
	if hover == nil {
		t.Fatal("hover over setX should find setX:")
	}
	value := hover.Contents.(protocol.MarkupContent).Value
	if !strings.Contains(value, "#setX:") || !strings.Contains(value, "Point") {
		t.Errorf("hover should resolve the keyword form:\n%s", value)
	}
}

func TestHoverUnknown(t *testing.T) {
	s, in := newTestLSP(t)

	if s.hover(in, "Zorble") != nil {
		t.Error("hover over an unknown class should answer nothing")
	}
	if s.hover(in, "zorble") != nil {
		t.Error("hover over an unknown selector should answer nothing")
	}
}

func TestImplementorsOfClassSide(t *testing.T) {
	_, in := newTestLSP(t)

	selector, impls := implementorsOf(in, "origin")
	if selector != "origin" {
		t.Fatalf("selector = %q, want origin", selector)
	}
	found := false
	for _, name := range impls {
		if name == "Point class" {
			found = true
		}
	}
	if !found {
		t.Errorf("implementors = %v, want Point class", impls)
	}
}

// --- Definition and references ---

func locationURIs(locations []protocol.Location) []string {
	uris := make([]string, len(locations))
	for i, loc := range locations {
		uris[i] = string(loc.URI)
	}
	return uris
}

func TestDefinitionClass(t *testing.T) {
	s, in := newTestLSP(t)

	locations := s.definition(in, "Point")
	if got := locationURIs(locations); len(got) != 1 || got[0] != "treepie://class/Point" {
		t.Fatalf("definition of Point = %v, want treepie://class/Point", got)
	}
	if locations[0].Range != (protocol.Range{}) {
		t.Errorf("virtual locations should carry a zero range, got %+v", locations[0].Range)
	}
}

func TestDefinitionSelector(t *testing.T) {
	s, in := newTestLSP(t)

	locations := s.definition(in, "area")
	if got := locationURIs(locations); len(got) != 1 || got[0] != "treepie://class/Shape/area" {
		t.Fatalf("definition of area = %v, want treepie://class/Shape/area", got)
	}
}

func TestDefinitionKeywordFallback(t *testing.T) {
	s, in := newTestLSP(t)

	// "setX" is only defined as the keyword selector setX:.
	locations := s.definition(in, "setX")
	if got := locationURIs(locations); len(got) != 1 || got[0] != "treepie://class/Point/setX:" {
		t.Fatalf("definition of setX = %v, want treepie://class/Point/setX:", got)
	}
}

func TestDefinitionClassSide(t *testing.T) {
	s, in := newTestLSP(t)

	locations := s.definition(in, "origin")
	if got := locationURIs(locations); len(got) != 1 || got[0] != "treepie://class/Point class/origin" {
		t.Fatalf("definition of origin = %v, want treepie://class/Point class/origin", got)
	}
}

func TestDefinitionUnknown(t *testing.T) {
	s, in := newTestLSP(t)

	if locations := s.definition(in, "Zorble"); locations != nil {
		t.Errorf("definition of an unknown class = %v, want none", locationURIs(locations))
	}
	if locations := s.definition(in, "zorble"); locations != nil {
		t.Errorf("definition of an unknown selector = %v, want none", locationURIs(locations))
	}
}

func TestReferencesFindsSenders(t *testing.T) {
	s, in := newTestLSP(t)

	// Point class>>origin is the only method sending new.
	locations := s.references(in, "new")
	if got := locationURIs(locations); len(got) != 1 || got[0] != "treepie://class/Point class/origin" {
		t.Fatalf("references of new = %v, want treepie://class/Point class/origin", got)
	}
}

func TestReferencesKernelSenders(t *testing.T) {
	s, in := newTestLSP(t)

	// new is the lone sender of basicNew.
	locations := s.references(in, "basicNew")
	if got := locationURIs(locations); len(got) != 1 || got[0] != "treepie://class/Object class/new" {
		t.Fatalf("references of basicNew = %v, want treepie://class/Object class/new", got)
	}
}

func TestReferencesKeywordFallback(t *testing.T) {
	s, in := newTestLSP(t)

	// Bare "at" resolves to at:. Its senders sit in the collection
	// methods, two of them inside nested blocks.
	locations := s.references(in, "at")
	want := []string{
		"treepie://class/Array/collect:",
		"treepie://class/Array/do:",
		"treepie://class/Array/first",
		"treepie://class/Array/last",
	}
	if diff := cmp.Diff(want, locationURIs(locations)); diff != "" {
		t.Errorf("references of at (-want +got):\n%s", diff)
	}
}

func TestReferencesUnknownSelector(t *testing.T) {
	s, in := newTestLSP(t)

	if locations := s.references(in, "zorble"); locations != nil {
		t.Errorf("references of an unknown selector = %v, want none", locationURIs(locations))
	}
}

func TestDefinitionHandler(t *testing.T) {
	s, _ := newTestLSP(t)

	uri := "file:///scratch.tp"
	s.mu.Lock()
	s.docs[uri] = "Shape area"
	s.mu.Unlock()

	result, err := s.textDocumentDefinition(nil, &protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentUri(uri)},
			Position:     protocol.Position{Line: 0, Character: 7},
		},
	})
	if err != nil {
		t.Fatalf("definition request: %v", err)
	}
	locations, ok := result.([]protocol.Location)
	if !ok || len(locations) != 1 || string(locations[0].URI) != "treepie://class/Shape/area" {
		t.Fatalf("result = %v, want treepie://class/Shape/area", result)
	}

	// Requests against unopened documents answer nothing.
	result, err = s.textDocumentDefinition(nil, &protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///missing.tp"},
		},
	})
	if err != nil || result != nil {
		t.Errorf("unopened document: result = %v, err = %v, want neither", result, err)
	}
}

func TestReferencesHandler(t *testing.T) {
	s, _ := newTestLSP(t)

	uri := "file:///scratch.tp"
	s.mu.Lock()
	s.docs[uri] = "self new"
	s.mu.Unlock()

	locations, err := s.textDocumentReferences(nil, &protocol.ReferenceParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentUri(uri)},
			Position:     protocol.Position{Line: 0, Character: 6},
		},
	})
	if err != nil {
		t.Fatalf("references request: %v", err)
	}
	if got := locationURIs(locations); len(got) != 1 || got[0] != "treepie://class/Point class/origin" {
		t.Errorf("references = %v, want treepie://class/Point class/origin", got)
	}
}

// --- Execute command ---

func TestEvalSelection(t *testing.T) {
	s, _ := newTestLSP(t)

	result, err := s.evalSelection("3 + 4.")
	if err != nil {
		t.Fatalf("evalSelection: %v", err)
	}
	if result != "7" {
		t.Errorf("result = %v, want 7", result)
	}
}

func TestEvalSelectionUsesLoadedClasses(t *testing.T) {
	s, _ := newTestLSP(t)

	result, err := s.evalSelection("Point origin x.")
	if err != nil {
		t.Fatalf("evalSelection: %v", err)
	}
	if result != "nil" {
		t.Errorf("result = %v, want nil (uninitialized instance variable)", result)
	}
}

func TestEvalSelectionError(t *testing.T) {
	s, _ := newTestLSP(t)

	if _, err := s.evalSelection("3 +"); err == nil {
		t.Error("evaluating a broken selection should fail")
	}
}

func TestExecuteCommandValidation(t *testing.T) {
	s, _ := newTestLSP(t)

	if _, err := s.workspaceExecuteCommand(nil, &protocol.ExecuteCommandParams{
		Command: "treepie.unknown",
	}); err == nil {
		t.Error("unknown commands should be rejected")
	}

	if _, err := s.workspaceExecuteCommand(nil, &protocol.ExecuteCommandParams{
		Command: cmdEvalSelection,
	}); err == nil {
		t.Error("a missing selection argument should be rejected")
	}

	result, err := s.workspaceExecuteCommand(nil, &protocol.ExecuteCommandParams{
		Command:   cmdEvalSelection,
		Arguments: []any{"2 * 3."},
	})
	if err != nil {
		t.Fatalf("execute command: %v", err)
	}
	if result != "6" {
		t.Errorf("result = %v, want 6", result)
	}
}

// --- Diagnostics ---

func TestDiagnosticLine(t *testing.T) {
	tests := []struct {
		msg  string
		want protocol.UInteger
	}{
		{"line 1: expected expression", 0},
		{"line 12: unknown superclass Foo for class Bar", 11},
		{"no prefix at all", 0},
		{"line x: garbled", 0},
		{"line 0: impossible", 0},
	}
	for _, tt := range tests {
		if got := diagnosticLine(tt.msg); got != tt.want {
			t.Errorf("diagnosticLine(%q) = %d, want %d", tt.msg, got, tt.want)
		}
	}
}

func TestDiagnosticsFromMessages(t *testing.T) {
	diags := diagnosticsFromMessages([]string{
		"line 3: unknown superclass Foo for class Bar",
		"line 1: expected expression",
	})
	if len(diags) != 2 {
		t.Fatalf("got %d diagnostics, want 2", len(diags))
	}
	if diags[0].Range.Start.Line != 2 {
		t.Errorf("first diagnostic on line %d, want 2", diags[0].Range.Start.Line)
	}
	if diags[1].Range.Start.Line != 0 {
		t.Errorf("second diagnostic on line %d, want 0", diags[1].Range.Start.Line)
	}
	for _, d := range diags {
		if d.Severity == nil || *d.Severity != protocol.DiagnosticSeverityError {
			t.Error("diagnostics should be errors")
		}
		if d.Source == nil || *d.Source != lspName {
			t.Error("diagnostics should carry the server name")
		}
	}
}

func TestCheckSourceThroughWorker(t *testing.T) {
	s, _ := newTestLSP(t)

	result, err := s.worker.Do(func(in *interp.Interp) any {
		return compiler.CheckSource("Foo subclass: Missing", in.Classes.Lookup)
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	msgs, ok := result.([]string)
	if !ok || len(msgs) == 0 {
		t.Fatalf("check = %v, want diagnostics", result)
	}
	if !strings.Contains(msgs[0], "Missing") {
		t.Errorf("diagnostic should name the superclass: %q", msgs[0])
	}
}

// --- Cursor text helpers ---

func TestExtractPrefix(t *testing.T) {
	tests := []struct {
		name string
		text string
		line protocol.UInteger
		col  protocol.UInteger
		want string
	}{
		{"word start", "Point new", 0, 5, "Point"},
		{"mid word", "Point new", 0, 3, "Poi"},
		{"after space", "Point new", 0, 6, ""},
		{"keyword selector", "p setX: 3", 0, 7, "setX:"},
		{"second line", "Point new.\nShape area", 1, 5, "Shape"},
		{"line out of range", "Point", 4, 0, ""},
		{"column past end", "Point", 0, 99, "Point"},
		{"empty text", "", 0, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := protocol.Position{Line: tt.line, Character: tt.col}
			if got := extractPrefix(tt.text, pos); got != tt.want {
				t.Errorf("extractPrefix = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractWord(t *testing.T) {
	tests := []struct {
		name string
		text string
		line protocol.UInteger
		col  protocol.UInteger
		want string
	}{
		{"start of word", "Point new", 0, 0, "Point"},
		{"middle of word", "Point new", 0, 3, "Point"},
		{"end of word", "Point new", 0, 5, "Point"},
		{"second word", "Point new", 0, 7, "new"},
		{"between words", "a  b", 0, 2, ""},
		{"colon excluded", "p setX: 3", 0, 4, "setX"},
		{"line out of range", "Point", 2, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := protocol.Position{Line: tt.line, Character: tt.col}
			if got := extractWord(tt.text, pos); got != tt.want {
				t.Errorf("extractWord = %q, want %q", got, tt.want)
			}
		})
	}
}
