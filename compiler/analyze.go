package compiler

import (
	"fmt"

	"github.com/chazu/treepie/interp"
)

// ---------------------------------------------------------------------------
// Binder: lowers the parse tree into evaluator nodes
// ---------------------------------------------------------------------------

// Binder transforms parse AST into evaluator nodes, resolving every
// variable reference to its kind: argument, temporary, instance
// variable with slot index, or global. Block scopes chain outward to
// the method scope, then the defining class's instance variables, then
// global. Names that resolve nowhere still bind as globals; the
// evaluator reports the truly absent ones when they are read.
type Binder struct {
	class  *interp.Class // defining class, nil for doIt compilation
	scopes []bindScope
	errors []string
}

// bindScope is one method or block scope.
type bindScope struct {
	params map[string]bool
	temps  map[string]bool
}

// NewBinder creates a binder. class provides instance-variable slot
// resolution and may be nil.
func NewBinder(class *interp.Class) *Binder {
	return &Binder{class: class}
}

// Errors returns accumulated bind errors.
func (b *Binder) Errors() []string {
	return b.errors
}

// errorAt records a bind error with position information.
func (b *Binder) errorAt(node Node, format string, args ...interface{}) {
	pos := node.Span().Start
	msg := fmt.Sprintf("line %d: %s", pos.Line, fmt.Sprintf(format, args...))
	b.errors = append(b.errors, msg)
}

// push enters a method or block scope.
func (b *Binder) push(params, temps []string) {
	scope := bindScope{
		params: make(map[string]bool, len(params)),
		temps:  make(map[string]bool, len(temps)),
	}
	for _, name := range params {
		scope.params[name] = true
	}
	for _, name := range temps {
		scope.temps[name] = true
	}
	b.scopes = append(b.scopes, scope)
}

// pop leaves the innermost scope.
func (b *Binder) pop() {
	b.scopes = b.scopes[:len(b.scopes)-1]
}

// ---------------------------------------------------------------------------
// Method binding
// ---------------------------------------------------------------------------

// BindMethod lowers a method definition into an evaluator method. The
// caller installs the result on its class.
func (b *Binder) BindMethod(def *MethodDef) *interp.Method {
	b.push(def.Parameters, def.Temps)
	stmts := b.bindStatements(def.Statements)
	b.pop()

	return &interp.Method{
		Selector:  def.Selector,
		Params:    def.Parameters,
		Body:      &interp.Seq{Temps: def.Temps, Stmts: stmts},
		Primitive: def.Primitive,
		Source:    def.Source,
	}
}

// ---------------------------------------------------------------------------
// Statement binding
// ---------------------------------------------------------------------------

func (b *Binder) bindStatements(stmts []Stmt) []interp.Node {
	var bound []interp.Node
	for _, stmt := range stmts {
		if n := b.bindStmt(stmt); n != nil {
			bound = append(bound, n)
		}
	}
	return bound
}

func (b *Binder) bindStmt(stmt Stmt) interp.Node {
	switch s := stmt.(type) {
	case *ExprStmt:
		return b.bindExpr(s.Expr)
	case *Return:
		return &interp.Return{Value: b.bindExpr(s.Value)}
	default:
		b.errorAt(stmt, "unknown statement type: %T", stmt)
		return nil
	}
}

// ---------------------------------------------------------------------------
// Expression binding
// ---------------------------------------------------------------------------

func (b *Binder) bindExpr(expr Expr) interp.Node {
	switch e := expr.(type) {
	case *IntLiteral:
		return &interp.IntLit{Value: e.Value}
	case *FloatLiteral:
		return &interp.FloatLit{Value: e.Value}
	case *StringLiteral:
		return &interp.StrLit{Value: e.Value}
	case *SymbolLiteral:
		return &interp.SymLit{Name: e.Value}
	case *CharLiteral:
		return &interp.CharLit{Value: e.Value}
	case *NilLiteral:
		return &interp.NilLit{}
	case *TrueLiteral:
		return &interp.TrueLit{}
	case *FalseLiteral:
		return &interp.FalseLit{}
	case *ArrayLiteral:
		return &interp.ArrayLit{Elements: b.bindExprs(e.Elements)}
	case *DynamicArray:
		return &interp.DynArray{Elements: b.bindExprs(e.Elements)}
	case *Variable:
		return b.bindName(e.Name)
	case *Assignment:
		return b.bindAssignment(e)
	case *Self:
		return &interp.SelfRef{}
	case *Super:
		return &interp.SuperRef{}
	case *ThisContext:
		b.errorAt(e, "thisContext is not supported")
		return &interp.NilLit{}
	case *UnaryMessage:
		return b.bindSend(e.Receiver, e.Selector, nil)
	case *BinaryMessage:
		return b.bindSend(e.Receiver, e.Selector, []Expr{e.Argument})
	case *KeywordMessage:
		return b.bindSend(e.Receiver, e.Selector, e.Arguments)
	case *Cascade:
		return b.bindCascade(e)
	case *Block:
		return b.bindBlock(e)
	default:
		b.errorAt(expr, "unknown expression type: %T", expr)
		return &interp.NilLit{}
	}
}

func (b *Binder) bindExprs(exprs []Expr) []interp.Node {
	nodes := make([]interp.Node, 0, len(exprs))
	for _, e := range exprs {
		nodes = append(nodes, b.bindExpr(e))
	}
	return nodes
}

// bindName resolves a bare name by scope walk: innermost block scope
// outward to the method scope, then instance variables, then global.
func (b *Binder) bindName(name string) interp.Node {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if b.scopes[i].params[name] {
			return &interp.ArgRef{Name: name}
		}
		if b.scopes[i].temps[name] {
			return &interp.TempRef{Name: name}
		}
	}
	if b.class != nil {
		if slot := b.class.InstVarIndex(name); slot >= 0 {
			return &interp.InstVarRef{Name: name, Slot: slot}
		}
	}
	return &interp.GlobalRef{Name: name}
}

// bindAssignment resolves an assignment target the same way bindName
// does, except that parameters reject the write.
func (b *Binder) bindAssignment(a *Assignment) interp.Node {
	value := b.bindExpr(a.Value)
	name := a.Variable

	for i := len(b.scopes) - 1; i >= 0; i-- {
		if b.scopes[i].params[name] {
			b.errorAt(a, "cannot assign to parameter %q", name)
			return value
		}
		if b.scopes[i].temps[name] {
			return &interp.Assign{Target: &interp.TempRef{Name: name}, Value: value}
		}
	}
	if b.class != nil {
		if slot := b.class.InstVarIndex(name); slot >= 0 {
			return &interp.Assign{Target: &interp.InstVarRef{Name: name, Slot: slot}, Value: value}
		}
	}
	return &interp.Assign{Target: &interp.GlobalRef{Name: name}, Value: value}
}

func (b *Binder) bindSend(receiver Expr, selector string, args []Expr) interp.Node {
	_, isSuper := receiver.(*Super)
	return &interp.Send{
		Receiver: b.bindExpr(receiver),
		Selector: selector,
		Args:     b.bindExprs(args),
		Super:    isSuper,
	}
}

func (b *Binder) bindCascade(c *Cascade) interp.Node {
	if _, isSuper := c.Receiver.(*Super); isSuper {
		b.errorAt(c, "cannot cascade on a super send")
	}

	messages := make([]interp.CascadeMsg, 0, len(c.Messages))
	for _, msg := range c.Messages {
		messages = append(messages, interp.CascadeMsg{
			Selector: msg.Selector,
			Args:     b.bindExprs(msg.Arguments),
		})
	}

	return &interp.Cascade{
		Receiver: b.bindExpr(c.Receiver),
		Messages: messages,
	}
}

func (b *Binder) bindBlock(block *Block) interp.Node {
	b.push(block.Parameters, block.Temps)
	stmts := b.bindStatements(block.Statements)
	b.pop()

	return &interp.BlockLit{
		Params: block.Parameters,
		Body:   &interp.Seq{Temps: block.Temps, Stmts: stmts},
	}
}

// ---------------------------------------------------------------------------
// Entry point
// ---------------------------------------------------------------------------

// Analyze binds a parsed method definition against a class, returning
// the evaluator method and any bind diagnostics. class may be nil,
// leaving no instance variables in scope (doIt and class-side code).
func Analyze(def *MethodDef, class *interp.Class) (*interp.Method, []string) {
	b := NewBinder(class)
	m := b.BindMethod(def)
	return m, b.Errors()
}
