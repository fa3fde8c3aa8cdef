package interp

// ---------------------------------------------------------------------------
// Evaluator tree: the annotated node forms the evaluator executes.
// The front-end (compiler package) lowers its parse tree into these,
// resolving every variable reference to a kind before evaluation. The
// set of node types is closed: the evaluator dispatches by exhaustive
// type switch and treats an unknown node as a defect.
// ---------------------------------------------------------------------------

// Node is the interface implemented by all evaluator tree nodes.
type Node interface {
	node() // marker method
}

// ---------------------------------------------------------------------------
// Literal nodes
// ---------------------------------------------------------------------------

// IntLit represents an integer literal.
type IntLit struct {
	Value int64
}

func (n *IntLit) node() {}

// FloatLit represents a floating-point literal.
type FloatLit struct {
	Value float64
}

func (n *FloatLit) node() {}

// StrLit represents a string literal. Each evaluation yields a fresh
// mutable string.
type StrLit struct {
	Value string
}

func (n *StrLit) node() {}

// SymLit represents a symbol literal (#foo). Evaluation interns the
// name, so two evaluations yield the identical symbol.
type SymLit struct {
	Name string
}

func (n *SymLit) node() {}

// CharLit represents a character literal ($a).
type CharLit struct {
	Value rune
}

func (n *CharLit) node() {}

// NilLit represents the 'nil' literal.
type NilLit struct{}

func (n *NilLit) node() {}

// TrueLit represents the 'true' literal.
type TrueLit struct{}

func (n *TrueLit) node() {}

// FalseLit represents the 'false' literal.
type FalseLit struct{}

func (n *FalseLit) node() {}

// ArrayLit represents a literal array #(1 2 3). Elements are literal
// nodes (possibly nested arrays); evaluation preserves nesting and
// order.
type ArrayLit struct {
	Elements []Node
}

func (n *ArrayLit) node() {}

// DynArray represents a dynamic array {1. 2. 3}. Unlike ArrayLit the
// elements are arbitrary expressions evaluated left to right.
type DynArray struct {
	Elements []Node
}

func (n *DynArray) node() {}

// ---------------------------------------------------------------------------
// Variable reference nodes. The node type is the resolved kind; the
// evaluator never classifies a name at run time.
// ---------------------------------------------------------------------------

// SelfRef represents the 'self' pseudo-variable.
type SelfRef struct{}

func (n *SelfRef) node() {}

// SuperRef represents the 'super' pseudo-variable. It evaluates to
// the current receiver exactly as SelfRef does; only message lookup
// treats the two differently.
type SuperRef struct{}

func (n *SuperRef) node() {}

// InstVarRef represents an instance-variable reference resolved to a
// slot index in the receiver's layout.
type InstVarRef struct {
	Name string
	Slot int
}

func (n *InstVarRef) node() {}

// ArgRef represents a reference to a method or block parameter,
// resolved through the lexical frame chain.
type ArgRef struct {
	Name string
}

func (n *ArgRef) node() {}

// TempRef represents a reference to a declared temporary, resolved
// through the lexical frame chain.
type TempRef struct {
	Name string
}

func (n *TempRef) node() {}

// GlobalRef represents a reference to a global binding (class names
// and other registry-level values).
type GlobalRef struct {
	Name string
}

func (n *GlobalRef) node() {}

// ---------------------------------------------------------------------------
// Compound nodes
// ---------------------------------------------------------------------------

// Assign represents an assignment. Target is an *InstVarRef, *TempRef
// or *GlobalRef; the front-end rejects writes to parameters. The
// right-hand side evaluates before the target is resolved, and the
// assignment's value is the written value.
type Assign struct {
	Target Node
	Value  Node
}

func (n *Assign) node() {}

// Seq represents a statement sequence with its declared temporaries.
// Method and block bodies are sequences; the temporaries declare into
// the frame the sequence runs in.
type Seq struct {
	Temps []string
	Stmts []Node
}

func (n *Seq) node() {}

// Send represents a message send. Super marks sends whose lookup
// starts above the defining class of the enclosing method.
type Send struct {
	Receiver Node
	Selector string
	Args     []Node
	Super    bool
}

func (n *Send) node() {}

// CascadeMsg is one message of a cascade.
type CascadeMsg struct {
	Selector string
	Args     []Node
}

// Cascade represents a cascade (recv msg1; msg2; msg3). The receiver
// evaluates once; every message goes to that same value, and the
// cascade's value is the last send's value.
type Cascade struct {
	Receiver Node
	Messages []CascadeMsg
}

func (n *Cascade) node() {}

// Return represents a return statement (^expr). Evaluation raises an
// unwind targeting the home frame of the current lexical chain.
type Return struct {
	Value Node
}

func (n *Return) node() {}

// BlockLit represents a block literal [:a :b | stmts]. Evaluating it
// creates a closure over the current frame; it never runs the body.
type BlockLit struct {
	Params []string
	Body   *Seq
}

func (n *BlockLit) node() {}
