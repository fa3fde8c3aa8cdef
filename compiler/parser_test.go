package compiler

import (
	"strings"
	"testing"
)

func TestParserLiterals(t *testing.T) {
	tests := []struct {
		input string
		check func(Expr) bool
		desc  string
	}{
		{"42", func(e Expr) bool { return e.(*IntLiteral).Value == 42 }, "integer"},
		{"-5", func(e Expr) bool { return e.(*IntLiteral).Value == -5 }, "negative integer"},
		{"16rFF", func(e Expr) bool { return e.(*IntLiteral).Value == 255 }, "radix integer"},
		{"2r1010", func(e Expr) bool { return e.(*IntLiteral).Value == 10 }, "binary radix integer"},
		{"-8r17", func(e Expr) bool { return e.(*IntLiteral).Value == -15 }, "negative radix integer"},
		{"3.14", func(e Expr) bool { return e.(*FloatLiteral).Value == 3.14 }, "float"},
		{"1.5e3", func(e Expr) bool { return e.(*FloatLiteral).Value == 1500.0 }, "exponent float"},
		{"'hello'", func(e Expr) bool { return e.(*StringLiteral).Value == "hello" }, "string"},
		{"#foo", func(e Expr) bool { return e.(*SymbolLiteral).Value == "foo" }, "symbol"},
		{"#at:put:", func(e Expr) bool { return e.(*SymbolLiteral).Value == "at:put:" }, "keyword symbol"},
		{"$a", func(e Expr) bool { return e.(*CharLiteral).Value == 'a' }, "character"},
	}

	for _, tc := range tests {
		p := NewParser(tc.input)
		expr := p.ParseExpression()
		if len(p.Errors()) > 0 {
			t.Errorf("%s: parse errors: %v", tc.desc, p.Errors())
			continue
		}
		if expr == nil {
			t.Errorf("%s: nil expression", tc.desc)
			continue
		}
		if !tc.check(expr) {
			t.Errorf("%s: check failed for %q", tc.desc, tc.input)
		}
	}
}

func TestParserVariables(t *testing.T) {
	tests := []struct {
		input string
		want  interface{}
	}{
		{"foo", &Variable{}},
		{"self", &Self{}},
		{"super", &Super{}},
		{"thisContext", &ThisContext{}},
		{"nil", &NilLiteral{}},
		{"true", &TrueLiteral{}},
		{"false", &FalseLiteral{}},
	}

	for _, tc := range tests {
		p := NewParser(tc.input)
		expr := p.ParseExpression()
		if len(p.Errors()) > 0 {
			t.Errorf("parse %q: errors: %v", tc.input, p.Errors())
			continue
		}

		switch tc.want.(type) {
		case *Variable:
			v, ok := expr.(*Variable)
			if !ok {
				t.Errorf("parse %q: expected Variable, got %T", tc.input, expr)
				continue
			}
			if v.Name != tc.input {
				t.Errorf("parse %q: name = %q, want %q", tc.input, v.Name, tc.input)
			}
		case *Self:
			if _, ok := expr.(*Self); !ok {
				t.Errorf("parse %q: expected Self, got %T", tc.input, expr)
			}
		case *Super:
			if _, ok := expr.(*Super); !ok {
				t.Errorf("parse %q: expected Super, got %T", tc.input, expr)
			}
		case *ThisContext:
			if _, ok := expr.(*ThisContext); !ok {
				t.Errorf("parse %q: expected ThisContext, got %T", tc.input, expr)
			}
		case *NilLiteral:
			if _, ok := expr.(*NilLiteral); !ok {
				t.Errorf("parse %q: expected NilLiteral, got %T", tc.input, expr)
			}
		case *TrueLiteral:
			if _, ok := expr.(*TrueLiteral); !ok {
				t.Errorf("parse %q: expected TrueLiteral, got %T", tc.input, expr)
			}
		case *FalseLiteral:
			if _, ok := expr.(*FalseLiteral); !ok {
				t.Errorf("parse %q: expected FalseLiteral, got %T", tc.input, expr)
			}
		}
	}
}

func TestParserUnaryMessage(t *testing.T) {
	input := "obj foo"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	msg, ok := expr.(*UnaryMessage)
	if !ok {
		t.Fatalf("expected UnaryMessage, got %T", expr)
	}
	if msg.Selector != "foo" {
		t.Errorf("selector = %q, want %q", msg.Selector, "foo")
	}

	recv, ok := msg.Receiver.(*Variable)
	if !ok {
		t.Fatalf("receiver: expected Variable, got %T", msg.Receiver)
	}
	if recv.Name != "obj" {
		t.Errorf("receiver name = %q, want %q", recv.Name, "obj")
	}
}

func TestParserUnaryChain(t *testing.T) {
	input := "obj foo bar baz"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	// Should be ((obj foo) bar) baz
	msg, ok := expr.(*UnaryMessage)
	if !ok {
		t.Fatalf("expected UnaryMessage, got %T", expr)
	}
	if msg.Selector != "baz" {
		t.Errorf("outer selector = %q, want %q", msg.Selector, "baz")
	}

	msg2, ok := msg.Receiver.(*UnaryMessage)
	if !ok {
		t.Fatalf("expected UnaryMessage, got %T", msg.Receiver)
	}
	if msg2.Selector != "bar" {
		t.Errorf("middle selector = %q, want %q", msg2.Selector, "bar")
	}
}

func TestParserBinaryMessage(t *testing.T) {
	input := "1 + 2"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	msg, ok := expr.(*BinaryMessage)
	if !ok {
		t.Fatalf("expected BinaryMessage, got %T", expr)
	}
	if msg.Selector != "+" {
		t.Errorf("selector = %q, want %q", msg.Selector, "+")
	}

	recv, ok := msg.Receiver.(*IntLiteral)
	if !ok || recv.Value != 1 {
		t.Errorf("receiver = %v, want 1", msg.Receiver)
	}

	arg, ok := msg.Argument.(*IntLiteral)
	if !ok || arg.Value != 2 {
		t.Errorf("argument = %v, want 2", msg.Argument)
	}
}

func TestParserBinaryChain(t *testing.T) {
	input := "1 + 2 * 3"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	// Left associative: ((1 + 2) * 3)
	msg, ok := expr.(*BinaryMessage)
	if !ok {
		t.Fatalf("expected BinaryMessage, got %T", expr)
	}
	if msg.Selector != "*" {
		t.Errorf("outer selector = %q, want *", msg.Selector)
	}

	inner, ok := msg.Receiver.(*BinaryMessage)
	if !ok {
		t.Fatalf("expected BinaryMessage for inner, got %T", msg.Receiver)
	}
	if inner.Selector != "+" {
		t.Errorf("inner selector = %q, want +", inner.Selector)
	}
}

func TestParserKeywordMessage(t *testing.T) {
	input := "arr at: 1"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	msg, ok := expr.(*KeywordMessage)
	if !ok {
		t.Fatalf("expected KeywordMessage, got %T", expr)
	}
	if msg.Selector != "at:" {
		t.Errorf("selector = %q, want at:", msg.Selector)
	}
	if len(msg.Arguments) != 1 {
		t.Errorf("arguments count = %d, want 1", len(msg.Arguments))
	}
}

func TestParserMultiKeywordMessage(t *testing.T) {
	input := "arr at: 1 put: 42"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	msg, ok := expr.(*KeywordMessage)
	if !ok {
		t.Fatalf("expected KeywordMessage, got %T", expr)
	}
	if msg.Selector != "at:put:" {
		t.Errorf("selector = %q, want at:put:", msg.Selector)
	}
	if len(msg.Arguments) != 2 {
		t.Errorf("arguments count = %d, want 2", len(msg.Arguments))
	}
	if len(msg.Keywords) != 2 {
		t.Errorf("keywords count = %d, want 2", len(msg.Keywords))
	}
}

func TestParserMessagePrecedence(t *testing.T) {
	// Unary binds tighter than binary binds tighter than keyword
	input := "1 + 2 negated"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	// Should be 1 + (2 negated)
	msg, ok := expr.(*BinaryMessage)
	if !ok {
		t.Fatalf("expected BinaryMessage, got %T", expr)
	}
	if msg.Selector != "+" {
		t.Errorf("selector = %q, want +", msg.Selector)
	}

	unary, ok := msg.Argument.(*UnaryMessage)
	if !ok {
		t.Fatalf("expected UnaryMessage argument, got %T", msg.Argument)
	}
	if unary.Selector != "negated" {
		t.Errorf("unary selector = %q, want negated", unary.Selector)
	}
}

func TestParserKeywordArgumentsAtBinaryLevel(t *testing.T) {
	input := "arr at: 1 + 2 put: 3 negated"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	msg, ok := expr.(*KeywordMessage)
	if !ok {
		t.Fatalf("expected KeywordMessage, got %T", expr)
	}
	if msg.Selector != "at:put:" {
		t.Errorf("selector = %q, want at:put:", msg.Selector)
	}
	if _, ok := msg.Arguments[0].(*BinaryMessage); !ok {
		t.Errorf("argument[0]: expected BinaryMessage, got %T", msg.Arguments[0])
	}
	if _, ok := msg.Arguments[1].(*UnaryMessage); !ok {
		t.Errorf("argument[1]: expected UnaryMessage, got %T", msg.Arguments[1])
	}
}

func TestParserParenExpr(t *testing.T) {
	input := "(1 + 2) * 3"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	msg, ok := expr.(*BinaryMessage)
	if !ok {
		t.Fatalf("expected BinaryMessage, got %T", expr)
	}
	if msg.Selector != "*" {
		t.Errorf("selector = %q, want *", msg.Selector)
	}

	inner, ok := msg.Receiver.(*BinaryMessage)
	if !ok {
		t.Fatalf("receiver: expected BinaryMessage, got %T", msg.Receiver)
	}
	if inner.Selector != "+" {
		t.Errorf("inner selector = %q, want +", inner.Selector)
	}
}

func TestParserAssignment(t *testing.T) {
	input := "x := 42"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	assign, ok := expr.(*Assignment)
	if !ok {
		t.Fatalf("expected Assignment, got %T", expr)
	}
	if assign.Variable != "x" {
		t.Errorf("variable = %q, want x", assign.Variable)
	}

	val, ok := assign.Value.(*IntLiteral)
	if !ok || val.Value != 42 {
		t.Errorf("value = %v, want 42", assign.Value)
	}
}

func TestParserChainedAssignment(t *testing.T) {
	input := "x := y := 5"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	outer, ok := expr.(*Assignment)
	if !ok {
		t.Fatalf("expected Assignment, got %T", expr)
	}
	inner, ok := outer.Value.(*Assignment)
	if !ok {
		t.Fatalf("value: expected Assignment, got %T", outer.Value)
	}
	if inner.Variable != "y" {
		t.Errorf("inner variable = %q, want y", inner.Variable)
	}
}

func TestParserBlock(t *testing.T) {
	input := "[:x | x + 1]"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	block, ok := expr.(*Block)
	if !ok {
		t.Fatalf("expected Block, got %T", expr)
	}
	if len(block.Parameters) != 1 || block.Parameters[0] != "x" {
		t.Errorf("parameters = %v, want [x]", block.Parameters)
	}
	if len(block.Statements) != 1 {
		t.Errorf("statements count = %d, want 1", len(block.Statements))
	}
}

func TestParserBlockMultipleParams(t *testing.T) {
	input := "[:a :b | a + b]"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	block, ok := expr.(*Block)
	if !ok {
		t.Fatalf("expected Block, got %T", expr)
	}
	if len(block.Parameters) != 2 {
		t.Errorf("parameters count = %d, want 2", len(block.Parameters))
	}
}

func TestParserBlockNoParams(t *testing.T) {
	input := "[42]"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	block, ok := expr.(*Block)
	if !ok {
		t.Fatalf("expected Block, got %T", expr)
	}
	if len(block.Parameters) != 0 {
		t.Errorf("parameters count = %d, want 0", len(block.Parameters))
	}
}

func TestParserBlockTemps(t *testing.T) {
	input := "[:x | | t | t := x. t]"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	block, ok := expr.(*Block)
	if !ok {
		t.Fatalf("expected Block, got %T", expr)
	}
	if len(block.Temps) != 1 || block.Temps[0] != "t" {
		t.Errorf("temps = %v, want [t]", block.Temps)
	}
	if len(block.Statements) != 2 {
		t.Errorf("statements count = %d, want 2", len(block.Statements))
	}
}

func TestParserLiteralArray(t *testing.T) {
	input := "#(1 2 3)"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	arr, ok := expr.(*ArrayLiteral)
	if !ok {
		t.Fatalf("expected ArrayLiteral, got %T", expr)
	}
	if len(arr.Elements) != 3 {
		t.Errorf("elements count = %d, want 3", len(arr.Elements))
	}
}

func TestParserLiteralArraySymbols(t *testing.T) {
	input := "#(foo bar baz)"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	arr, ok := expr.(*ArrayLiteral)
	if !ok {
		t.Fatalf("expected ArrayLiteral, got %T", expr)
	}
	if len(arr.Elements) != 3 {
		t.Errorf("elements count = %d, want 3", len(arr.Elements))
	}

	// Bare identifiers are symbols inside literal arrays
	for i, elem := range arr.Elements {
		sym, ok := elem.(*SymbolLiteral)
		if !ok {
			t.Errorf("element[%d]: expected SymbolLiteral, got %T", i, elem)
		} else if sym.Value == "" {
			t.Errorf("element[%d]: empty symbol", i)
		}
	}
}

func TestParserNestedLiteralArray(t *testing.T) {
	input := "#(1 #(2 3) nil true false)"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	arr, ok := expr.(*ArrayLiteral)
	if !ok {
		t.Fatalf("expected ArrayLiteral, got %T", expr)
	}
	if len(arr.Elements) != 5 {
		t.Fatalf("elements count = %d, want 5", len(arr.Elements))
	}
	if _, ok := arr.Elements[1].(*ArrayLiteral); !ok {
		t.Errorf("element[1]: expected nested ArrayLiteral, got %T", arr.Elements[1])
	}
	if _, ok := arr.Elements[2].(*NilLiteral); !ok {
		t.Errorf("element[2]: expected NilLiteral, got %T", arr.Elements[2])
	}
	if _, ok := arr.Elements[3].(*TrueLiteral); !ok {
		t.Errorf("element[3]: expected TrueLiteral, got %T", arr.Elements[3])
	}
	if _, ok := arr.Elements[4].(*FalseLiteral); !ok {
		t.Errorf("element[4]: expected FalseLiteral, got %T", arr.Elements[4])
	}
}

func TestParserDynamicArray(t *testing.T) {
	input := "{1. 2. 3}"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	arr, ok := expr.(*DynamicArray)
	if !ok {
		t.Fatalf("expected DynamicArray, got %T", expr)
	}
	if len(arr.Elements) != 3 {
		t.Errorf("elements count = %d, want 3", len(arr.Elements))
	}
}

func TestParserDynamicArrayWithSends(t *testing.T) {
	input := "{1 + 2. obj foo}"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	arr, ok := expr.(*DynamicArray)
	if !ok {
		t.Fatalf("expected DynamicArray, got %T", expr)
	}
	if len(arr.Elements) != 2 {
		t.Fatalf("elements count = %d, want 2", len(arr.Elements))
	}
	if _, ok := arr.Elements[0].(*BinaryMessage); !ok {
		t.Errorf("element[0]: expected BinaryMessage, got %T", arr.Elements[0])
	}
	if _, ok := arr.Elements[1].(*UnaryMessage); !ok {
		t.Errorf("element[1]: expected UnaryMessage, got %T", arr.Elements[1])
	}
}

func TestParserCascade(t *testing.T) {
	input := "obj msg1; msg2; msg3"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	cascade, ok := expr.(*Cascade)
	if !ok {
		t.Fatalf("expected Cascade, got %T", expr)
	}
	if len(cascade.Messages) != 3 {
		t.Errorf("messages count = %d, want 3", len(cascade.Messages))
	}
}

func TestParserCascadeReceiver(t *testing.T) {
	// The cascade receiver is the receiver of the first message, not
	// the value of the first send
	input := "coll add: 1; add: 2; yourself"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	cascade, ok := expr.(*Cascade)
	if !ok {
		t.Fatalf("expected Cascade, got %T", expr)
	}

	recv, ok := cascade.Receiver.(*Variable)
	if !ok || recv.Name != "coll" {
		t.Fatalf("receiver = %v, want Variable coll", cascade.Receiver)
	}
	if len(cascade.Messages) != 3 {
		t.Fatalf("messages count = %d, want 3", len(cascade.Messages))
	}
	if cascade.Messages[0].Selector != "add:" || cascade.Messages[0].Type != KeywordMsg {
		t.Errorf("message[0] = %q (%v), want add: (keyword)", cascade.Messages[0].Selector, cascade.Messages[0].Type)
	}
	if cascade.Messages[2].Selector != "yourself" || cascade.Messages[2].Type != UnaryMsg {
		t.Errorf("message[2] = %q (%v), want yourself (unary)", cascade.Messages[2].Selector, cascade.Messages[2].Type)
	}
}

func TestParserCascadeRequiresMessage(t *testing.T) {
	p := NewParser("3; foo")
	p.ParseExpression()
	if len(p.Errors()) == 0 {
		t.Fatal("expected error for cascade on a literal")
	}
}

func TestParserReturn(t *testing.T) {
	input := "^42"
	p := NewParser(input)
	stmt := p.ParseStatement()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	ret, ok := stmt.(*Return)
	if !ok {
		t.Fatalf("expected Return, got %T", stmt)
	}

	val, ok := ret.Value.(*IntLiteral)
	if !ok || val.Value != 42 {
		t.Errorf("return value = %v, want 42", ret.Value)
	}
}

func TestParserMethod(t *testing.T) {
	input := "increment: amount | result | result := value + amount. ^result"
	p := NewParser(input)
	method := p.ParseMethod()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}
	if method == nil {
		t.Fatal("nil method")
	}

	if method.Selector != "increment:" {
		t.Errorf("selector = %q, want increment:", method.Selector)
	}
	if len(method.Parameters) != 1 || method.Parameters[0] != "amount" {
		t.Errorf("parameters = %v, want [amount]", method.Parameters)
	}
	if len(method.Temps) != 1 || method.Temps[0] != "result" {
		t.Errorf("temps = %v, want [result]", method.Temps)
	}
	if len(method.Statements) != 2 {
		t.Errorf("statements count = %d, want 2", len(method.Statements))
	}
}

func TestParserUnaryMethod(t *testing.T) {
	input := "negated ^0 - self"
	p := NewParser(input)
	method := p.ParseMethod()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	if method.Selector != "negated" {
		t.Errorf("selector = %q, want negated", method.Selector)
	}
	if len(method.Parameters) != 0 {
		t.Errorf("parameters count = %d, want 0", len(method.Parameters))
	}
}

func TestParserBinaryMethod(t *testing.T) {
	input := "+ other ^self add: other"
	p := NewParser(input)
	method := p.ParseMethod()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	if method.Selector != "+" {
		t.Errorf("selector = %q, want +", method.Selector)
	}
	if len(method.Parameters) != 1 || method.Parameters[0] != "other" {
		t.Errorf("parameters = %v, want [other]", method.Parameters)
	}
}

func TestParserMethodWithPragma(t *testing.T) {
	input := "at: index <primitive: 60> ^self primitiveFailed"
	p := NewParser(input)
	method := p.ParseMethod()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	if method.Primitive != 60 {
		t.Errorf("primitive = %d, want 60", method.Primitive)
	}
	if method.Selector != "at:" {
		t.Errorf("selector = %q, want at:", method.Selector)
	}
	if len(method.Statements) != 1 {
		t.Errorf("statements count = %d, want 1", len(method.Statements))
	}
}

func TestParserMethodWithoutPragma(t *testing.T) {
	// A < comparison at the start of a body is not a pragma
	input := "isSmall ^value < 10"
	p := NewParser(input)
	method := p.ParseMethod()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	if method.Primitive != 0 {
		t.Errorf("primitive = %d, want 0", method.Primitive)
	}
}

func TestParserPragmaBadNumber(t *testing.T) {
	input := "at: index <primitive: 0> ^nil"
	p := NewParser(input)
	method := p.ParseMethod()
	if len(p.Errors()) == 0 {
		t.Fatal("expected error for primitive number 0")
	}
	if method != nil && method.Primitive != 0 {
		t.Errorf("primitive = %d, want 0", method.Primitive)
	}
}

func TestParserMethodSource(t *testing.T) {
	input := "double ^value * 2"
	p := NewParser(input)
	method := p.ParseMethod()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	if method.Source != input {
		t.Errorf("source = %q, want %q", method.Source, input)
	}
}

func TestParserStatements(t *testing.T) {
	input := "x := 1. y := 2. ^x + y"
	p := NewParser(input)
	stmts := p.ParseStatements()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	if len(stmts) != 3 {
		t.Errorf("statements count = %d, want 3", len(stmts))
	}
}

func TestParserIfTrueIfFalse(t *testing.T) {
	input := "(x > 0) ifTrue: [1] ifFalse: [-1]"
	p := NewParser(input)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	msg, ok := expr.(*KeywordMessage)
	if !ok {
		t.Fatalf("expected KeywordMessage, got %T", expr)
	}
	if msg.Selector != "ifTrue:ifFalse:" {
		t.Errorf("selector = %q, want ifTrue:ifFalse:", msg.Selector)
	}
}

// ---------------------------------------------------------------------------
// Source file parsing
// ---------------------------------------------------------------------------

func TestParseSourceFileClass(t *testing.T) {
	input := `Counter subclass: Object
  instanceVars: count
  method: increment [ count := count + 1 ]
  method: count [ ^count ]
  classMethod: startingAt: n [ ^self new ]`

	p := NewParser(input)
	sf := p.ParseSourceFile()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	if len(sf.Classes) != 1 {
		t.Fatalf("classes count = %d, want 1", len(sf.Classes))
	}

	cls := sf.Classes[0]
	if cls.Name != "Counter" {
		t.Errorf("name = %q, want Counter", cls.Name)
	}
	if cls.Superclass != "Object" {
		t.Errorf("superclass = %q, want Object", cls.Superclass)
	}
	if len(cls.InstanceVariables) != 1 || cls.InstanceVariables[0] != "count" {
		t.Errorf("instance variables = %v, want [count]", cls.InstanceVariables)
	}
	if len(cls.Methods) != 2 {
		t.Errorf("methods count = %d, want 2", len(cls.Methods))
	}
	if len(cls.ClassMethods) != 1 {
		t.Errorf("class methods count = %d, want 1", len(cls.ClassMethods))
	}
	if cls.ClassMethods[0].Selector != "startingAt:" {
		t.Errorf("class method selector = %q, want startingAt:", cls.ClassMethods[0].Selector)
	}
}

func TestParseSourceFileInstanceVarsString(t *testing.T) {
	input := `Point subclass: Object
  instanceVariables: 'x y'`

	p := NewParser(input)
	sf := p.ParseSourceFile()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	if len(sf.Classes) != 1 {
		t.Fatalf("classes count = %d, want 1", len(sf.Classes))
	}
	vars := sf.Classes[0].InstanceVariables
	if len(vars) != 2 || vars[0] != "x" || vars[1] != "y" {
		t.Errorf("instance variables = %v, want [x y]", vars)
	}
}

func TestParseSourceFileNilSuperclass(t *testing.T) {
	p := NewParser("Root subclass: nil")
	sf := p.ParseSourceFile()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}
	if len(sf.Classes) != 1 || sf.Classes[0].Superclass != "nil" {
		t.Fatalf("superclass = %v, want nil", sf.Classes)
	}
}

func TestParseSourceFileTwoClasses(t *testing.T) {
	input := `Foo subclass: Object
  instanceVars: a b

Bar subclass: Foo
  instanceVars: c`

	p := NewParser(input)
	sf := p.ParseSourceFile()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	if len(sf.Classes) != 2 {
		t.Fatalf("classes count = %d, want 2", len(sf.Classes))
	}
	if got := sf.Classes[0].InstanceVariables; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Foo instance variables = %v, want [a b]", got)
	}
	if sf.Classes[1].Name != "Bar" || sf.Classes[1].Superclass != "Foo" {
		t.Errorf("second class = %s subclass: %s, want Bar subclass: Foo", sf.Classes[1].Name, sf.Classes[1].Superclass)
	}
}

func TestParseSourceFileInterleavedStatements(t *testing.T) {
	input := `Transcript show: 'start'.

Counter subclass: Object
  method: bump [ ^1 ]

Counter new bump.`

	p := NewParser(input)
	sf := p.ParseSourceFile()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	if len(sf.Classes) != 1 {
		t.Fatalf("classes count = %d, want 1", len(sf.Classes))
	}
	if len(sf.Statements) != 2 {
		t.Fatalf("statements count = %d, want 2", len(sf.Statements))
	}
}

func TestParseSourceFileMethodSource(t *testing.T) {
	input := `Counter subclass: Object
  method: double [ ^count * 2 ]`

	p := NewParser(input)
	sf := p.ParseSourceFile()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	method := sf.Classes[0].Methods[0]
	want := "double [ ^count * 2 ]"
	if method.Source != want {
		t.Errorf("source = %q, want %q", method.Source, want)
	}
}

func TestParseSourceFileMethodPragma(t *testing.T) {
	input := `Mirror subclass: Object
  method: identityHash [ <primitive: 110> ^0 ]`

	p := NewParser(input)
	sf := p.ParseSourceFile()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	method := sf.Classes[0].Methods[0]
	if method.Primitive != 110 {
		t.Errorf("primitive = %d, want 110", method.Primitive)
	}
	if !strings.Contains(method.Source, "<primitive: 110>") {
		t.Errorf("source %q should contain the pragma", method.Source)
	}
}

func TestParseSourceFileMissingSuperclass(t *testing.T) {
	p := NewParser("Foo subclass: 42")
	p.ParseSourceFile()
	if len(p.Errors()) == 0 {
		t.Fatal("expected error for numeric superclass")
	}
}

func TestParseSourceFileEmpty(t *testing.T) {
	p := NewParser("")
	sf := p.ParseSourceFile()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}
	if len(sf.Classes) != 0 || len(sf.Statements) != 0 {
		t.Errorf("empty input: classes = %d, statements = %d", len(sf.Classes), len(sf.Statements))
	}
}
