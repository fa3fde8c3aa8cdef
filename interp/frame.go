package interp

// ---------------------------------------------------------------------------
// Activation frames. A frame records the variable slots of one
// execution of a method or block body. Two linkages with different
// jobs: lexicalParent chains a block activation to the frame that
// created its closure (variable lookup follows this, never the call
// stack); caller is the dynamic link, kept for stack bookkeeping and
// tooling. Frames are heap objects shared by reference: every closure
// created while a frame is current captures that same frame, which is
// what makes outer-variable mutation through closures visible
// everywhere.
// ---------------------------------------------------------------------------

// Frame is one activation of a method or block.
type Frame struct {
	receiver      Value
	slots         map[string]Value
	lexicalParent *Frame  // defining frame for block activations, nil for methods
	caller        *Frame  // dynamic caller
	method        *Method // non-nil only for method activations
	completed     bool    // set when the owning activation finishes
}

// newMethodFrame allocates the frame for a method activation. Method
// frames anchor a lexical chain: their lexicalParent is always nil.
func newMethodFrame(receiver Value, m *Method, caller *Frame) *Frame {
	return &Frame{
		receiver: receiver,
		slots:    make(map[string]Value),
		caller:   caller,
		method:   m,
	}
}

// newBlockFrame allocates the frame for one invocation of a closure.
// The lexical parent is the closure's defining frame, and the
// receiver is the defining frame's receiver, regardless of who
// invoked the closure.
func newBlockFrame(c *Closure, caller *Frame) *Frame {
	return &Frame{
		receiver:      c.Defining.receiver,
		slots:         make(map[string]Value),
		lexicalParent: c.Defining,
		caller:        caller,
	}
}

// Receiver returns the activation's receiver (what self evaluates
// to).
func (f *Frame) Receiver() Value { return f.receiver }

// LexicalParent returns the defining frame for block activations,
// nil for method activations.
func (f *Frame) LexicalParent() *Frame { return f.lexicalParent }

// Caller returns the dynamic caller frame, nil at the top of a stack.
func (f *Frame) Caller() *Frame { return f.caller }

// Method returns the activated method for method frames, nil for
// block frames.
func (f *Frame) Method() *Method { return f.method }

// IsMethodFrame reports whether this frame is a method activation.
func (f *Frame) IsMethodFrame() bool { return f.method != nil }

// Completed reports whether the owning activation has finished. A
// non-local return targeting a completed frame is dead.
func (f *Frame) Completed() bool { return f.completed }

// Home returns the home frame of this activation: the method frame
// reached by following lexical parents. For a method activation that
// is the frame itself.
func (f *Frame) Home() *Frame {
	h := f
	for h.lexicalParent != nil {
		h = h.lexicalParent
	}
	return h
}

// declare creates a slot initialized to Nil. Slots exist for the
// frame's whole life once declared; redeclaring is harmless but
// resets the slot.
func (f *Frame) declare(name string) {
	f.slots[name] = Nil
}

// bind creates a slot holding v, used for parameter binding.
func (f *Frame) bind(name string, v Value) {
	f.slots[name] = v
}

// Lookup resolves name through the lexical chain: this frame, then
// its lexical parent, and so on. The chain is independent of the call
// stack.
func (f *Frame) Lookup(name string) (Value, bool) {
	for fr := f; fr != nil; fr = fr.lexicalParent {
		if v, ok := fr.slots[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// assign writes v to the frame that owns name's slot, following the
// same walk as Lookup. Returns false if no frame in the chain
// declares the name.
func (f *Frame) assign(name string, v Value) bool {
	for fr := f; fr != nil; fr = fr.lexicalParent {
		if _, ok := fr.slots[name]; ok {
			fr.slots[name] = v
			return true
		}
	}
	return false
}

// SlotNames returns the names declared directly in this frame, in no
// particular order.
func (f *Frame) SlotNames() []string {
	out := make([]string, 0, len(f.slots))
	for name := range f.slots {
		out = append(out, name)
	}
	return out
}

// ArgumentAt returns the i'th declared argument of a method
// activation, resolved by the method's parameter list rather than
// positionally. Primitives read their arguments through this.
func (f *Frame) ArgumentAt(i int) Value {
	if f.method == nil || i < 0 || i >= len(f.method.Params) {
		return Nil
	}
	v, ok := f.slots[f.method.Params[i]]
	if !ok {
		return Nil
	}
	return v
}

// NumArgs returns the declared argument count of a method activation.
func (f *Frame) NumArgs() int {
	if f.method == nil {
		return 0
	}
	return len(f.method.Params)
}
