package compiler

import (
	"testing"

	"github.com/chazu/treepie/interp"
)

func parseMethodDef(t *testing.T, src string) *MethodDef {
	t.Helper()
	p := NewParser(src)
	def := p.ParseMethod()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse %q: errors: %v", src, p.Errors())
	}
	if def == nil {
		t.Fatalf("parse %q: nil method", src)
	}
	return def
}

func bindMethod(t *testing.T, src string, class *interp.Class) *interp.Method {
	t.Helper()
	m, diags := Analyze(parseMethodDef(t, src), class)
	if len(diags) > 0 {
		t.Fatalf("bind %q: diagnostics: %v", src, diags)
	}
	return m
}

func TestAnalyzeLiteralReturn(t *testing.T) {
	m := bindMethod(t, "answer ^42", nil)

	if m.Selector != "answer" {
		t.Errorf("selector = %q, want answer", m.Selector)
	}
	if len(m.Body.Stmts) != 1 {
		t.Fatalf("statements count = %d, want 1", len(m.Body.Stmts))
	}

	ret, ok := m.Body.Stmts[0].(*interp.Return)
	if !ok {
		t.Fatalf("expected Return, got %T", m.Body.Stmts[0])
	}
	lit, ok := ret.Value.(*interp.IntLit)
	if !ok || lit.Value != 42 {
		t.Errorf("return value = %v, want IntLit 42", ret.Value)
	}
}

func TestAnalyzeParamsAndTemps(t *testing.T) {
	m := bindMethod(t, "add: x | t | t := x + 1. ^t", nil)

	if len(m.Params) != 1 || m.Params[0] != "x" {
		t.Fatalf("params = %v, want [x]", m.Params)
	}
	if len(m.Body.Temps) != 1 || m.Body.Temps[0] != "t" {
		t.Fatalf("temps = %v, want [t]", m.Body.Temps)
	}

	assign, ok := m.Body.Stmts[0].(*interp.Assign)
	if !ok {
		t.Fatalf("expected Assign, got %T", m.Body.Stmts[0])
	}
	if _, ok := assign.Target.(*interp.TempRef); !ok {
		t.Errorf("target: expected TempRef, got %T", assign.Target)
	}

	send, ok := assign.Value.(*interp.Send)
	if !ok {
		t.Fatalf("value: expected Send, got %T", assign.Value)
	}
	if _, ok := send.Receiver.(*interp.ArgRef); !ok {
		t.Errorf("receiver: expected ArgRef, got %T", send.Receiver)
	}
}

func TestAnalyzeInstVarSlots(t *testing.T) {
	point := interp.NewClassWithInstVars("Point", nil, []string{"x", "y"})
	m := bindMethod(t, "setY: v y := v", point)

	assign, ok := m.Body.Stmts[0].(*interp.Assign)
	if !ok {
		t.Fatalf("expected Assign, got %T", m.Body.Stmts[0])
	}
	ivar, ok := assign.Target.(*interp.InstVarRef)
	if !ok {
		t.Fatalf("target: expected InstVarRef, got %T", assign.Target)
	}
	if ivar.Name != "y" || ivar.Slot != 1 {
		t.Errorf("instance variable = %s slot %d, want y slot 1", ivar.Name, ivar.Slot)
	}
}

func TestAnalyzeInheritedInstVarSlots(t *testing.T) {
	point := interp.NewClassWithInstVars("Point", nil, []string{"x", "y"})
	point3 := interp.NewClassWithInstVars("Point3", point, []string{"z"})

	m := bindMethod(t, "reset x := 0. z := 0", point3)

	first := m.Body.Stmts[0].(*interp.Assign).Target.(*interp.InstVarRef)
	if first.Slot != 0 {
		t.Errorf("x slot = %d, want 0", first.Slot)
	}
	second := m.Body.Stmts[1].(*interp.Assign).Target.(*interp.InstVarRef)
	if second.Slot != 2 {
		t.Errorf("z slot = %d, want 2", second.Slot)
	}
}

func TestAnalyzeUnknownNameBindsGlobal(t *testing.T) {
	m := bindMethod(t, "lookup ^Transcript", nil)

	ret := m.Body.Stmts[0].(*interp.Return)
	ref, ok := ret.Value.(*interp.GlobalRef)
	if !ok {
		t.Fatalf("expected GlobalRef, got %T", ret.Value)
	}
	if ref.Name != "Transcript" {
		t.Errorf("name = %q, want Transcript", ref.Name)
	}
}

func TestAnalyzeGlobalAssignment(t *testing.T) {
	m := bindMethod(t, "install Registry := self", nil)

	assign := m.Body.Stmts[0].(*interp.Assign)
	if _, ok := assign.Target.(*interp.GlobalRef); !ok {
		t.Errorf("target: expected GlobalRef, got %T", assign.Target)
	}
}

func TestAnalyzeBlockChainsToMethodScope(t *testing.T) {
	m := bindMethod(t, "run | t | ^[:a | a + t]", nil)

	ret := m.Body.Stmts[0].(*interp.Return)
	block, ok := ret.Value.(*interp.BlockLit)
	if !ok {
		t.Fatalf("expected BlockLit, got %T", ret.Value)
	}
	if len(block.Params) != 1 || block.Params[0] != "a" {
		t.Fatalf("block params = %v, want [a]", block.Params)
	}

	send, ok := block.Body.Stmts[0].(*interp.Send)
	if !ok {
		t.Fatalf("expected Send, got %T", block.Body.Stmts[0])
	}
	if _, ok := send.Receiver.(*interp.ArgRef); !ok {
		t.Errorf("receiver: expected ArgRef, got %T", send.Receiver)
	}
	if _, ok := send.Args[0].(*interp.TempRef); !ok {
		t.Errorf("argument: expected TempRef, got %T", send.Args[0])
	}
}

func TestAnalyzeBlockChainsToInstVars(t *testing.T) {
	cell := interp.NewClassWithInstVars("Cell", nil, []string{"contents"})
	m := bindMethod(t, "reader ^[contents]", cell)

	ret := m.Body.Stmts[0].(*interp.Return)
	block := ret.Value.(*interp.BlockLit)
	ref, ok := block.Body.Stmts[0].(*interp.InstVarRef)
	if !ok {
		t.Fatalf("expected InstVarRef, got %T", block.Body.Stmts[0])
	}
	if ref.Slot != 0 {
		t.Errorf("slot = %d, want 0", ref.Slot)
	}
}

func TestAnalyzeBlockParamShadowsTemp(t *testing.T) {
	m := bindMethod(t, "run | x | ^[:x | x]", nil)

	ret := m.Body.Stmts[0].(*interp.Return)
	block := ret.Value.(*interp.BlockLit)
	if _, ok := block.Body.Stmts[0].(*interp.ArgRef); !ok {
		t.Errorf("shadowed x: expected ArgRef, got %T", block.Body.Stmts[0])
	}
}

func TestAnalyzeBlockTemps(t *testing.T) {
	m := bindMethod(t, "run ^[:x | | t | t := x. t]", nil)

	ret := m.Body.Stmts[0].(*interp.Return)
	block := ret.Value.(*interp.BlockLit)
	if len(block.Body.Temps) != 1 || block.Body.Temps[0] != "t" {
		t.Fatalf("block temps = %v, want [t]", block.Body.Temps)
	}
	assign := block.Body.Stmts[0].(*interp.Assign)
	if _, ok := assign.Target.(*interp.TempRef); !ok {
		t.Errorf("target: expected TempRef, got %T", assign.Target)
	}
}

func TestAnalyzeRejectsParamWrite(t *testing.T) {
	_, diags := Analyze(parseMethodDef(t, "bump: x x := 1"), nil)
	if len(diags) == 0 {
		t.Fatal("expected diagnostic for assignment to parameter")
	}
}

func TestAnalyzeRejectsBlockParamWrite(t *testing.T) {
	_, diags := Analyze(parseMethodDef(t, "run ^[:a | a := 2]"), nil)
	if len(diags) == 0 {
		t.Fatal("expected diagnostic for assignment to block parameter")
	}
}

func TestAnalyzeRejectsOuterParamWriteInBlock(t *testing.T) {
	_, diags := Analyze(parseMethodDef(t, "run: x ^[x := 5]"), nil)
	if len(diags) == 0 {
		t.Fatal("expected diagnostic for assignment to enclosing parameter")
	}
}

func TestAnalyzeRejectsThisContext(t *testing.T) {
	_, diags := Analyze(parseMethodDef(t, "ctx ^thisContext"), nil)
	if len(diags) == 0 {
		t.Fatal("expected diagnostic for thisContext")
	}
}

func TestAnalyzeSuperSend(t *testing.T) {
	m := bindMethod(t, "initialize super initialize. ^self", nil)

	send, ok := m.Body.Stmts[0].(*interp.Send)
	if !ok {
		t.Fatalf("expected Send, got %T", m.Body.Stmts[0])
	}
	if !send.Super {
		t.Error("send should be marked as super")
	}
	if _, ok := send.Receiver.(*interp.SuperRef); !ok {
		t.Errorf("receiver: expected SuperRef, got %T", send.Receiver)
	}
}

func TestAnalyzeRejectsCascadeOnSuper(t *testing.T) {
	_, diags := Analyze(parseMethodDef(t, "setup super foo; bar"), nil)
	if len(diags) == 0 {
		t.Fatal("expected diagnostic for cascade on super")
	}
}

func TestAnalyzeCascade(t *testing.T) {
	m := bindMethod(t, "fill | c | c add: 1; add: 2; yourself", nil)

	cascade, ok := m.Body.Stmts[0].(*interp.Cascade)
	if !ok {
		t.Fatalf("expected Cascade, got %T", m.Body.Stmts[0])
	}
	if _, ok := cascade.Receiver.(*interp.TempRef); !ok {
		t.Errorf("receiver: expected TempRef, got %T", cascade.Receiver)
	}
	if len(cascade.Messages) != 3 {
		t.Fatalf("messages count = %d, want 3", len(cascade.Messages))
	}
	if cascade.Messages[0].Selector != "add:" || len(cascade.Messages[0].Args) != 1 {
		t.Errorf("message[0] = %q/%d args, want add:/1", cascade.Messages[0].Selector, len(cascade.Messages[0].Args))
	}
	if cascade.Messages[2].Selector != "yourself" {
		t.Errorf("message[2] = %q, want yourself", cascade.Messages[2].Selector)
	}
}

func TestAnalyzeArrayLiterals(t *testing.T) {
	m := bindMethod(t, "pair ^#(1 two)", nil)

	ret := m.Body.Stmts[0].(*interp.Return)
	arr, ok := ret.Value.(*interp.ArrayLit)
	if !ok {
		t.Fatalf("expected ArrayLit, got %T", ret.Value)
	}
	if len(arr.Elements) != 2 {
		t.Fatalf("elements count = %d, want 2", len(arr.Elements))
	}
	if _, ok := arr.Elements[0].(*interp.IntLit); !ok {
		t.Errorf("element[0]: expected IntLit, got %T", arr.Elements[0])
	}
	sym, ok := arr.Elements[1].(*interp.SymLit)
	if !ok || sym.Name != "two" {
		t.Errorf("element[1] = %v, want SymLit two", arr.Elements[1])
	}
}

func TestAnalyzeDynamicArray(t *testing.T) {
	m := bindMethod(t, "build ^{1 + 2. self}", nil)

	ret := m.Body.Stmts[0].(*interp.Return)
	arr, ok := ret.Value.(*interp.DynArray)
	if !ok {
		t.Fatalf("expected DynArray, got %T", ret.Value)
	}
	if len(arr.Elements) != 2 {
		t.Fatalf("elements count = %d, want 2", len(arr.Elements))
	}
	if _, ok := arr.Elements[0].(*interp.Send); !ok {
		t.Errorf("element[0]: expected Send, got %T", arr.Elements[0])
	}
	if _, ok := arr.Elements[1].(*interp.SelfRef); !ok {
		t.Errorf("element[1]: expected SelfRef, got %T", arr.Elements[1])
	}
}

func TestAnalyzePrimitiveAndSource(t *testing.T) {
	src := "at: index <primitive: 60> ^self primitiveFailed"
	m := bindMethod(t, src, nil)

	if m.Primitive != 60 {
		t.Errorf("primitive = %d, want 60", m.Primitive)
	}
	if m.Source != src {
		t.Errorf("source = %q, want %q", m.Source, src)
	}
	if len(m.Params) != 1 || m.Params[0] != "index" {
		t.Errorf("params = %v, want [index]", m.Params)
	}
}
