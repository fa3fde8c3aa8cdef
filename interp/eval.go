package interp

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// The evaluator. Evaluate dispatches on node kind against a current
// frame; message sends resolve a method and recurse through a fresh
// activation; returns travel outward as unwinds until the home
// activation consumes them. Everything here is sequential and
// re-entrant through the ordinary Go call stack.
// ---------------------------------------------------------------------------

// Evaluate evaluates a single node in the given frame.
func (in *Interp) Evaluate(n Node, f *Frame) (Value, error) {
	switch n := n.(type) {
	case *IntLit:
		return &Integer{Val: n.Value}, nil
	case *FloatLit:
		return &Float{Val: n.Value}, nil
	case *StrLit:
		return NewString(n.Value), nil
	case *SymLit:
		return in.Symbols.Intern(n.Name), nil
	case *CharLit:
		return &Character{Val: n.Value}, nil
	case *NilLit:
		return Nil, nil
	case *TrueLit:
		return True, nil
	case *FalseLit:
		return False, nil
	case *ArrayLit:
		return in.evalElements(n.Elements, f)
	case *DynArray:
		return in.evalElements(n.Elements, f)
	case *SelfRef:
		return f.Receiver(), nil
	case *SuperRef:
		// Super is the same receiver; only lookup differs, in evalSend.
		return f.Receiver(), nil
	case *InstVarRef:
		obj, ok := f.Receiver().(*Instance)
		if !ok {
			return nil, fmt.Errorf("instance variable %q read on non-instance receiver", n.Name)
		}
		return obj.GetSlot(n.Slot), nil
	case *ArgRef:
		v, ok := f.Lookup(n.Name)
		if !ok {
			return nil, &UnresolvedVariableError{Name: n.Name}
		}
		return v, nil
	case *TempRef:
		v, ok := f.Lookup(n.Name)
		if !ok {
			return nil, &UnresolvedVariableError{Name: n.Name}
		}
		return v, nil
	case *GlobalRef:
		v, ok := in.Globals.Get(n.Name)
		if !ok {
			return nil, &UnresolvedGlobalError{Name: n.Name}
		}
		return v, nil
	case *Assign:
		return in.evalAssign(n, f)
	case *Seq:
		return in.evalSeq(n, f)
	case *Send:
		return in.evalSend(n, f)
	case *Cascade:
		return in.evalCascade(n, f)
	case *Return:
		return in.evalReturn(n, f)
	case *BlockLit:
		return &Closure{Block: n, Defining: f}, nil
	case nil:
		return nil, errors.New("evaluate: nil node")
	default:
		return nil, fmt.Errorf("evaluate: unknown node type %T", n)
	}
}

func (in *Interp) evalElements(elems []Node, f *Frame) (Value, error) {
	arr := &Array{Elems: make([]Value, len(elems))}
	for i, e := range elems {
		v, err := in.Evaluate(e, f)
		if err != nil {
			return nil, err
		}
		arr.Elems[i] = v
	}
	return arr, nil
}

// evalAssign evaluates the right-hand side first, then writes it to
// the storage location the target node names. The assignment's value
// is the written value.
func (in *Interp) evalAssign(n *Assign, f *Frame) (Value, error) {
	v, err := in.Evaluate(n.Value, f)
	if err != nil {
		return nil, err
	}
	switch target := n.Target.(type) {
	case *InstVarRef:
		obj, ok := f.Receiver().(*Instance)
		if !ok {
			return nil, fmt.Errorf("instance variable %q written on non-instance receiver", target.Name)
		}
		obj.SetSlot(target.Slot, v)
	case *TempRef:
		if !f.assign(target.Name, v) {
			return nil, &UnresolvedVariableError{Name: target.Name}
		}
	case *ArgRef:
		if !f.assign(target.Name, v) {
			return nil, &UnresolvedVariableError{Name: target.Name}
		}
	case *GlobalRef:
		in.Globals.Set(target.Name, v)
	default:
		return nil, fmt.Errorf("evaluate: bad assignment target %T", n.Target)
	}
	return v, nil
}

// evalSeq declares the sequence's temporaries in the current frame,
// runs the statements left to right, and yields the last statement's
// value. An empty sequence yields nil.
func (in *Interp) evalSeq(n *Seq, f *Frame) (Value, error) {
	for _, name := range n.Temps {
		f.declare(name)
	}
	result := Nil
	for _, stmt := range n.Stmts {
		v, err := in.Evaluate(stmt, f)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

func (in *Interp) evalSend(n *Send, f *Frame) (Value, error) {
	recv, err := in.Evaluate(n.Receiver, f)
	if err != nil {
		return nil, err
	}
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := in.Evaluate(a, f)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return in.send(recv, n.Selector, args, n.Super, f)
}

// evalCascade evaluates the receiver once and sends every message to
// it, yielding the last send's value.
func (in *Interp) evalCascade(n *Cascade, f *Frame) (Value, error) {
	recv, err := in.Evaluate(n.Receiver, f)
	if err != nil {
		return nil, err
	}
	result := Nil
	for _, msg := range n.Messages {
		args := make([]Value, len(msg.Args))
		for i, a := range msg.Args {
			v, err := in.Evaluate(a, f)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		result, err = in.send(recv, msg.Selector, args, false, f)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// evalReturn evaluates the return value and raises an unwind
// targeting the home frame of this lexical chain. A home frame whose
// activation already completed is a dead target: fatal.
func (in *Interp) evalReturn(n *Return, f *Frame) (Value, error) {
	v := Nil
	if n.Value != nil {
		var err error
		v, err = in.Evaluate(n.Value, f)
		if err != nil {
			return nil, err
		}
	}
	home := f.Home()
	if home.completed {
		return nil, &DeadFrameReturnError{Selector: frameSelector(home)}
	}
	return nil, &blockReturn{value: v, home: home}
}

func frameSelector(f *Frame) string {
	if f != nil && f.method != nil {
		return f.method.Selector
	}
	return ""
}

// ---------------------------------------------------------------------------
// Message sends and method activation
// ---------------------------------------------------------------------------

// Send sends selector to receiver with args and reports the result.
// This is the embedding entry point for code that already holds
// values.
func (in *Interp) Send(receiver Value, selector string, args []Value) (Value, error) {
	return in.report(in.send(receiver, selector, args, false, nil))
}

// ExecuteMethod activates m on receiver with args and reports the
// result. Conditions reach the caller as errors instead of crashing
// the host.
func (in *Interp) ExecuteMethod(m *Method, receiver Value, args []Value) (Value, error) {
	return in.report(in.runMethod(m, receiver, args, nil))
}

// report converts an unwind that escaped every activation into the
// dead-frame condition. Nothing below the top level ever sees one.
func (in *Interp) report(v Value, err error) (Value, error) {
	if err != nil {
		if br, ok := asBlockReturn(err); ok {
			return nil, &DeadFrameReturnError{Selector: frameSelector(br.home)}
		}
		return nil, err
	}
	return v, nil
}

func (in *Interp) send(recv Value, selector string, args []Value, super bool, caller *Frame) (Value, error) {
	m, err := in.lookupFor(recv, selector, super, caller)
	if err != nil {
		return nil, err
	}
	return in.runMethod(m, recv, args, caller)
}

// lookupFor resolves the method a send activates. Ordinary sends
// start at the receiver's runtime class. Super sends start at the
// superclass of the defining class of the currently executing method
// (the home frame's method when the send sits inside a block), never
// at the receiver's class. Class receivers resolve against class-side
// tables first, then fall back to the instance protocol of Class.
func (in *Interp) lookupFor(recv Value, selector string, super bool, caller *Frame) (*Method, error) {
	if super {
		if caller == nil {
			return nil, errors.New("super send outside a method activation")
		}
		hm := caller.Home().Method()
		if hm == nil || hm.Class == nil {
			return nil, errors.New("super send outside a method activation")
		}
		start := hm.Class.Superclass
		if start != nil {
			if hm.ClassSide {
				if m := start.LookupClassMethod(selector); m != nil {
					return m, nil
				}
				if m := in.ClassClass.LookupMethod(selector); m != nil {
					return m, nil
				}
			} else if m := start.LookupMethod(selector); m != nil {
				return m, nil
			}
		}
		return nil, &DoesNotUnderstandError{ClassName: in.classNameFor(recv), Selector: selector}
	}

	if cls, ok := recv.(*Class); ok {
		if m := cls.LookupClassMethod(selector); m != nil {
			return m, nil
		}
		if m := in.ClassClass.LookupMethod(selector); m != nil {
			return m, nil
		}
		return nil, &DoesNotUnderstandError{ClassName: cls.Name + " class", Selector: selector}
	}

	start := in.ClassFor(recv)
	if start == nil {
		return nil, fmt.Errorf("no class for value %T", recv)
	}
	if m := start.LookupMethod(selector); m != nil {
		return m, nil
	}
	return nil, &DoesNotUnderstandError{ClassName: start.Name, Selector: selector}
}

func (in *Interp) classNameFor(v Value) string {
	if cls, ok := v.(*Class); ok {
		return cls.Name + " class"
	}
	if c := in.ClassFor(v); c != nil {
		return c.Name
	}
	return fmt.Sprintf("%T", v)
}

// runMethod is one method activation: arity check, fresh frame with
// no lexical parent, receiver and parameters bound, primitive
// dispatch, body evaluation, and the unwind handler. The frame is
// marked completed on every exit so later returns into it are
// detected as dead.
func (in *Interp) runMethod(m *Method, recv Value, args []Value, caller *Frame) (Value, error) {
	if len(args) != len(m.Params) {
		return nil, &ArityMismatchError{What: m.Selector, Want: len(m.Params), Got: len(args)}
	}
	if err := in.enter(); err != nil {
		return nil, err
	}
	defer in.leave()

	f := newMethodFrame(recv, m, caller)
	defer func() { f.completed = true }()
	for i, name := range m.Params {
		f.bind(name, args[i])
	}

	if m.Primitive != 0 {
		v, err := in.runPrimitive(m, recv, f)
		if err == nil {
			return v, nil
		}
		var pf *PrimitiveFailure
		if !errors.As(err, &pf) {
			return nil, err
		}
		// Primitive declined: fall through to the body as fallback code.
	}

	if m.Body == nil {
		return recv, nil
	}
	_, err := in.Evaluate(m.Body, f)
	if err != nil {
		if br, ok := asBlockReturn(err); ok && br.home == f {
			return br.value, nil
		}
		return nil, err
	}
	// No explicit return: the method answers its receiver.
	return recv, nil
}

func (in *Interp) runPrimitive(m *Method, recv Value, f *Frame) (Value, error) {
	fn, ok := in.prims[m.Primitive]
	if !ok {
		return nil, Fail(fmt.Errorf("unknown primitive %d", m.Primitive))
	}
	return fn(in, recv, f, m)
}

// callClosure is one block activation: arity check, fresh frame whose
// lexical parent is the closure's defining frame and whose receiver
// is the defining frame's receiver, parameters bound, body sequence
// evaluated. Blocks install no unwind handler; returns raised inside
// them pass through to the home method activation.
func (in *Interp) callClosure(c *Closure, args []Value, caller *Frame) (Value, error) {
	if len(args) != len(c.Block.Params) {
		return nil, &ArityMismatchError{What: "block", Want: len(c.Block.Params), Got: len(args)}
	}
	if err := in.enter(); err != nil {
		return nil, err
	}
	defer in.leave()

	f := newBlockFrame(c, caller)
	for i, name := range c.Block.Params {
		f.bind(name, args[i])
	}
	if c.Block.Body == nil {
		return Nil, nil
	}
	return in.Evaluate(c.Block.Body, f)
}

// CallClosure invokes a closure from embedding code, reporting
// conditions as errors.
func (in *Interp) CallClosure(c *Closure, args []Value) (Value, error) {
	return in.report(in.callClosure(c, args, nil))
}
