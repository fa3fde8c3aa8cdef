package interp

import (
	"errors"
	"math"
)

// ---------------------------------------------------------------------------
// The primitive table. Ids follow the classic numbering where one
// exists: 1-12 integer arithmetic and comparison, 41-50 float, 60-62
// indexed access, 70-71 allocation, 110-112 identity and reflection.
// Local ranges: 201+ closure evaluation, 210+ booleans, 220+ object
// protocol, 260+ strings, 800+ remote messaging, 1000+ generated
// wrappers.
//
// Every primitive validates in order: declared argument count,
// receiver type, argument types, result representability. Violations
// are failures (the tagged method's body runs as fallback), never
// fatal conditions.
// ---------------------------------------------------------------------------

// errInexact marks an integer division whose quotient is not an
// integer.
var errInexact = errors.New("result not representable")

func (in *Interp) installPrimitives() {
	// Integer arithmetic and comparison.
	in.prims[1] = primIntAdd
	in.prims[2] = primIntSub
	in.prims[3] = primIntLess
	in.prims[4] = primIntGreater
	in.prims[5] = primIntLessEq
	in.prims[6] = primIntGreaterEq
	in.prims[7] = primIntEq
	in.prims[8] = primIntNotEq
	in.prims[9] = primIntMul
	in.prims[10] = primIntDiv
	in.prims[11] = primIntMod
	in.prims[12] = primIntQuo

	// Float arithmetic and comparison.
	in.prims[41] = primFloatAdd
	in.prims[42] = primFloatSub
	in.prims[43] = primFloatLess
	in.prims[44] = primFloatGreater
	in.prims[45] = primFloatLessEq
	in.prims[46] = primFloatGreaterEq
	in.prims[47] = primFloatEq
	in.prims[48] = primFloatNotEq
	in.prims[49] = primFloatMul
	in.prims[50] = primFloatDiv

	// Indexed access.
	in.prims[60] = primAt
	in.prims[61] = primAtPut
	in.prims[62] = primSize

	// Allocation.
	in.prims[70] = primBasicNew
	in.prims[71] = primBasicNewSized

	// Identity and reflection.
	in.prims[110] = primIdentical
	in.prims[111] = primNotIdentical
	in.prims[112] = primClass
	in.prims[113] = primClassName
	in.prims[114] = primClassSuperclass
	in.prims[115] = primClassSelectors
	in.prims[116] = primIsKindOf
	in.prims[117] = primIsMemberOf
	in.prims[118] = primRespondsTo

	// Closure evaluation. 201-204 share one implementation; the
	// declared parameter count of the tagged method supplies the
	// arity.
	in.prims[201] = primBlockValue
	in.prims[202] = primBlockValue
	in.prims[203] = primBlockValue
	in.prims[204] = primBlockValue
	in.prims[205] = primBlockValueWithArguments
	in.prims[206] = primWhileTrue
	in.prims[207] = primWhileFalse
	in.prims[208] = primBlockNumArgs

	// Booleans.
	in.prims[210] = primIfTrue
	in.prims[211] = primIfFalse
	in.prims[212] = primIfTrueIfFalse
	in.prims[213] = primIfFalseIfTrue
	in.prims[214] = primNot
	in.prims[215] = primAnd
	in.prims[216] = primOr

	// Object protocol.
	in.prims[220] = primIsNil
	in.prims[221] = primNotNil
	in.prims[230] = primPrintString
	in.prims[250] = primPrimitiveFailed

	// Strings.
	in.prims[260] = primStringConcat
	in.prims[261] = primStringAsSymbol
	in.prims[262] = primSymbolAsString
	in.prims[263] = primStringEqual
}

func boolValue(b bool) Value {
	if b {
		return True
	}
	return False
}

// ---------------------------------------------------------------------------
// Integer primitives
// ---------------------------------------------------------------------------

func intOperands(recv Value, f *Frame, m *Method) (int64, int64, error) {
	if len(m.Params) != 1 {
		return 0, 0, Fail(ErrBadArgumentCount)
	}
	r, ok := recv.(*Integer)
	if !ok {
		return 0, 0, Fail(ErrTypeMismatch)
	}
	a, ok := f.ArgumentAt(0).(*Integer)
	if !ok {
		return 0, 0, Fail(ErrTypeMismatch)
	}
	return r.Val, a.Val, nil
}

func addInt64(a, b int64) (int64, bool) {
	s := a + b
	if (a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0) {
		return 0, false
	}
	return s, true
}

func subInt64(a, b int64) (int64, bool) {
	d := a - b
	if (b < 0 && d < a) || (b > 0 && d > a) {
		return 0, false
	}
	return d, true
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a == -1 {
		if b == math.MinInt64 {
			return 0, false
		}
		return -b, true
	}
	if b == -1 {
		if a == math.MinInt64 {
			return 0, false
		}
		return -a, true
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}

func primIntAdd(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := intOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	s, ok := addInt64(a, b)
	if !ok {
		return nil, Fail(ErrOverflow)
	}
	return &Integer{Val: s}, nil
}

func primIntSub(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := intOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	d, ok := subInt64(a, b)
	if !ok {
		return nil, Fail(ErrOverflow)
	}
	return &Integer{Val: d}, nil
}

func primIntMul(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := intOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	p, ok := mulInt64(a, b)
	if !ok {
		return nil, Fail(ErrOverflow)
	}
	return &Integer{Val: p}, nil
}

// primIntDiv is exact division: it fails unless the quotient is an
// integer.
func primIntDiv(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := intOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, Fail(ErrDivisionByZero)
	}
	if a == math.MinInt64 && b == -1 {
		return nil, Fail(ErrOverflow)
	}
	if a%b != 0 {
		return nil, Fail(errInexact)
	}
	return &Integer{Val: a / b}, nil
}

// primIntMod is floored modulo: the result takes the divisor's sign.
func primIntMod(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := intOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, Fail(ErrDivisionByZero)
	}
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return &Integer{Val: r}, nil
}

// primIntQuo is floored division, pairing with primIntMod.
func primIntQuo(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := intOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, Fail(ErrDivisionByZero)
	}
	if a == math.MinInt64 && b == -1 {
		return nil, Fail(ErrOverflow)
	}
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return &Integer{Val: q}, nil
}

func primIntLess(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := intOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	return boolValue(a < b), nil
}

func primIntGreater(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := intOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	return boolValue(a > b), nil
}

func primIntLessEq(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := intOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	return boolValue(a <= b), nil
}

func primIntGreaterEq(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := intOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	return boolValue(a >= b), nil
}

func primIntEq(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := intOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	return boolValue(a == b), nil
}

func primIntNotEq(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := intOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	return boolValue(a != b), nil
}

// ---------------------------------------------------------------------------
// Float primitives
// ---------------------------------------------------------------------------

func floatOperands(recv Value, f *Frame, m *Method) (float64, float64, error) {
	if len(m.Params) != 1 {
		return 0, 0, Fail(ErrBadArgumentCount)
	}
	r, ok := recv.(*Float)
	if !ok {
		return 0, 0, Fail(ErrTypeMismatch)
	}
	a, ok := f.ArgumentAt(0).(*Float)
	if !ok {
		return 0, 0, Fail(ErrTypeMismatch)
	}
	return r.Val, a.Val, nil
}

func primFloatAdd(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := floatOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	return &Float{Val: a + b}, nil
}

func primFloatSub(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := floatOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	return &Float{Val: a - b}, nil
}

func primFloatMul(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := floatOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	return &Float{Val: a * b}, nil
}

func primFloatDiv(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := floatOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, Fail(ErrDivisionByZero)
	}
	return &Float{Val: a / b}, nil
}

func primFloatLess(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := floatOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	return boolValue(a < b), nil
}

func primFloatGreater(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := floatOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	return boolValue(a > b), nil
}

func primFloatLessEq(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := floatOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	return boolValue(a <= b), nil
}

func primFloatGreaterEq(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := floatOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	return boolValue(a >= b), nil
}

func primFloatEq(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := floatOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	return boolValue(a == b), nil
}

func primFloatNotEq(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	a, b, err := floatOperands(recv, f, m)
	if err != nil {
		return nil, err
	}
	return boolValue(a != b), nil
}

// ---------------------------------------------------------------------------
// Indexed access. All indexing is 1-based.
// ---------------------------------------------------------------------------

func indexableLen(v Value) int {
	switch v := v.(type) {
	case *Array:
		return len(v.Elems)
	case *String:
		return len(v.Val)
	case *Symbol:
		return len(v.Name)
	case *Instance:
		return v.IndexedLen()
	default:
		return 0
	}
}

func primAt(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 1 {
		return nil, Fail(ErrBadArgumentCount)
	}
	if !in.IsIndexable(recv) {
		return nil, Fail(ErrNotIndexable)
	}
	idx, ok := f.ArgumentAt(0).(*Integer)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	i := int(idx.Val)
	if i < 1 || i > indexableLen(recv) {
		return nil, Fail(ErrIndexOutOfBounds)
	}
	switch v := recv.(type) {
	case *Array:
		return v.Elems[i-1], nil
	case *String:
		return &Character{Val: rune(v.Val[i-1])}, nil
	case *Symbol:
		return &Character{Val: rune(v.Name[i-1])}, nil
	case *Instance:
		return v.indexed[i-1], nil
	}
	return nil, Fail(ErrNotIndexable)
}

func primAtPut(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 2 {
		return nil, Fail(ErrBadArgumentCount)
	}
	if !in.IsIndexable(recv) {
		return nil, Fail(ErrNotIndexable)
	}
	idx, ok := f.ArgumentAt(0).(*Integer)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	val := f.ArgumentAt(1)
	i := int(idx.Val)
	if i < 1 || i > indexableLen(recv) {
		return nil, Fail(ErrIndexOutOfBounds)
	}
	switch v := recv.(type) {
	case *Array:
		v.Elems[i-1] = val
	case *String:
		ch, ok := val.(*Character)
		if !ok || ch.Val < 0 || ch.Val > 255 {
			return nil, Fail(ErrTypeMismatch)
		}
		v.Val[i-1] = byte(ch.Val)
	case *Symbol:
		// Symbols are immutable.
		return nil, Fail(ErrTypeMismatch)
	case *Instance:
		v.indexed[i-1] = val
	}
	return val, nil
}

func primSize(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 0 {
		return nil, Fail(ErrBadArgumentCount)
	}
	if !in.IsIndexable(recv) {
		return nil, Fail(ErrNotIndexable)
	}
	return &Integer{Val: int64(indexableLen(recv))}, nil
}

// ---------------------------------------------------------------------------
// Allocation
// ---------------------------------------------------------------------------

func primBasicNew(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 0 {
		return nil, Fail(ErrBadArgumentCount)
	}
	cls, ok := recv.(*Class)
	if !ok {
		return nil, Fail(ErrNotAClass)
	}
	if cls.Variable {
		// Variable classes need a size; that is basicNew:.
		return nil, Fail(ErrBadArgumentCount)
	}
	return NewInstance(cls), nil
}

func primBasicNewSized(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 1 {
		return nil, Fail(ErrBadArgumentCount)
	}
	cls, ok := recv.(*Class)
	if !ok {
		return nil, Fail(ErrNotAClass)
	}
	size, ok := f.ArgumentAt(0).(*Integer)
	if !ok || size.Val < 0 {
		return nil, Fail(ErrTypeMismatch)
	}
	if !cls.Variable {
		return nil, Fail(ErrNotIndexable)
	}
	n := int(size.Val)
	switch cls {
	case in.ArrayClass:
		return NewArray(n), nil
	case in.StringClass:
		return &String{Val: make([]byte, n)}, nil
	}
	return NewIndexedInstance(cls, n), nil
}

// ---------------------------------------------------------------------------
// Identity and reflection
// ---------------------------------------------------------------------------

func primIdentical(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 1 {
		return nil, Fail(ErrBadArgumentCount)
	}
	return boolValue(Identical(recv, f.ArgumentAt(0))), nil
}

func primNotIdentical(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 1 {
		return nil, Fail(ErrBadArgumentCount)
	}
	return boolValue(!Identical(recv, f.ArgumentAt(0))), nil
}

func primClass(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 0 {
		return nil, Fail(ErrBadArgumentCount)
	}
	cls := in.ClassFor(recv)
	if cls == nil {
		return nil, Fail(ErrTypeMismatch)
	}
	return cls, nil
}

func primClassName(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 0 {
		return nil, Fail(ErrBadArgumentCount)
	}
	cls, ok := recv.(*Class)
	if !ok {
		return nil, Fail(ErrNotAClass)
	}
	return NewString(cls.Name), nil
}

func primClassSuperclass(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 0 {
		return nil, Fail(ErrBadArgumentCount)
	}
	cls, ok := recv.(*Class)
	if !ok {
		return nil, Fail(ErrNotAClass)
	}
	if cls.Superclass == nil {
		return Nil, nil
	}
	return cls.Superclass, nil
}

func primClassSelectors(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 0 {
		return nil, Fail(ErrBadArgumentCount)
	}
	cls, ok := recv.(*Class)
	if !ok {
		return nil, Fail(ErrNotAClass)
	}
	sels := cls.Selectors()
	arr := NewArray(len(sels))
	for i, sel := range sels {
		arr.Elems[i] = in.Symbols.Intern(sel)
	}
	return arr, nil
}

func primIsKindOf(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 1 {
		return nil, Fail(ErrBadArgumentCount)
	}
	cls, ok := f.ArgumentAt(0).(*Class)
	if !ok {
		return nil, Fail(ErrNotAClass)
	}
	rc := in.ClassFor(recv)
	if rc == nil {
		return nil, Fail(ErrTypeMismatch)
	}
	return boolValue(rc.InheritsFrom(cls)), nil
}

func primIsMemberOf(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 1 {
		return nil, Fail(ErrBadArgumentCount)
	}
	cls, ok := f.ArgumentAt(0).(*Class)
	if !ok {
		return nil, Fail(ErrNotAClass)
	}
	return boolValue(in.ClassFor(recv) == cls), nil
}

func primRespondsTo(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 1 {
		return nil, Fail(ErrBadArgumentCount)
	}
	sym, ok := f.ArgumentAt(0).(*Symbol)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	if cls, ok := recv.(*Class); ok {
		found := cls.LookupClassMethod(sym.Name) != nil ||
			in.ClassClass.LookupMethod(sym.Name) != nil
		return boolValue(found), nil
	}
	rc := in.ClassFor(recv)
	if rc == nil {
		return nil, Fail(ErrTypeMismatch)
	}
	return boolValue(rc.LookupMethod(sym.Name) != nil), nil
}

// ---------------------------------------------------------------------------
// Closure evaluation. Arity mismatches surface from callClosure as
// fatal conditions, not primitive failures.
// ---------------------------------------------------------------------------

func primBlockValue(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	c, ok := recv.(*Closure)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	args := make([]Value, len(m.Params))
	for i := range args {
		args[i] = f.ArgumentAt(i)
	}
	return in.callClosure(c, args, f)
}

func primBlockValueWithArguments(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 1 {
		return nil, Fail(ErrBadArgumentCount)
	}
	c, ok := recv.(*Closure)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	arr, ok := f.ArgumentAt(0).(*Array)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	return in.callClosure(c, arr.Elems, f)
}

func primBlockNumArgs(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 0 {
		return nil, Fail(ErrBadArgumentCount)
	}
	c, ok := recv.(*Closure)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	return &Integer{Val: int64(c.NumArgs())}, nil
}

func primWhileTrue(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	return runWhile(in, recv, f, m, True)
}

func primWhileFalse(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	return runWhile(in, recv, f, m, False)
}

func runWhile(in *Interp, recv Value, f *Frame, m *Method, keepGoing Value) (Value, error) {
	if len(m.Params) != 1 {
		return nil, Fail(ErrBadArgumentCount)
	}
	cond, ok := recv.(*Closure)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	body, ok := f.ArgumentAt(0).(*Closure)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	for {
		c, err := in.callClosure(cond, nil, f)
		if err != nil {
			return nil, err
		}
		if c != True && c != False {
			return nil, Fail(ErrTypeMismatch)
		}
		if c != keepGoing {
			return Nil, nil
		}
		if _, err := in.callClosure(body, nil, f); err != nil {
			return nil, err
		}
	}
}

// ---------------------------------------------------------------------------
// Boolean primitives. Registered on both True and False; the
// receiver's identity picks the branch.
// ---------------------------------------------------------------------------

func primIfTrue(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 1 {
		return nil, Fail(ErrBadArgumentCount)
	}
	if recv != True && recv != False {
		return nil, Fail(ErrTypeMismatch)
	}
	blk, ok := f.ArgumentAt(0).(*Closure)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	if recv == True {
		return in.callClosure(blk, nil, f)
	}
	return Nil, nil
}

func primIfFalse(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 1 {
		return nil, Fail(ErrBadArgumentCount)
	}
	if recv != True && recv != False {
		return nil, Fail(ErrTypeMismatch)
	}
	blk, ok := f.ArgumentAt(0).(*Closure)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	if recv == False {
		return in.callClosure(blk, nil, f)
	}
	return Nil, nil
}

func primIfTrueIfFalse(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	return runIfElse(in, recv, f, m, true)
}

func primIfFalseIfTrue(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	return runIfElse(in, recv, f, m, false)
}

func runIfElse(in *Interp, recv Value, f *Frame, m *Method, trueFirst bool) (Value, error) {
	if len(m.Params) != 2 {
		return nil, Fail(ErrBadArgumentCount)
	}
	if recv != True && recv != False {
		return nil, Fail(ErrTypeMismatch)
	}
	first, ok := f.ArgumentAt(0).(*Closure)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	second, ok := f.ArgumentAt(1).(*Closure)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	takeFirst := (recv == True) == trueFirst
	if takeFirst {
		return in.callClosure(first, nil, f)
	}
	return in.callClosure(second, nil, f)
}

func primNot(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 0 {
		return nil, Fail(ErrBadArgumentCount)
	}
	switch recv {
	case True:
		return False, nil
	case False:
		return True, nil
	}
	return nil, Fail(ErrTypeMismatch)
}

func primAnd(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 1 {
		return nil, Fail(ErrBadArgumentCount)
	}
	if recv != True && recv != False {
		return nil, Fail(ErrTypeMismatch)
	}
	blk, ok := f.ArgumentAt(0).(*Closure)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	if recv == False {
		return False, nil
	}
	return in.callClosure(blk, nil, f)
}

func primOr(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 1 {
		return nil, Fail(ErrBadArgumentCount)
	}
	if recv != True && recv != False {
		return nil, Fail(ErrTypeMismatch)
	}
	blk, ok := f.ArgumentAt(0).(*Closure)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	if recv == True {
		return True, nil
	}
	return in.callClosure(blk, nil, f)
}

// ---------------------------------------------------------------------------
// Object protocol
// ---------------------------------------------------------------------------

func primIsNil(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 0 {
		return nil, Fail(ErrBadArgumentCount)
	}
	return boolValue(recv == Nil), nil
}

func primNotNil(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 0 {
		return nil, Fail(ErrBadArgumentCount)
	}
	return boolValue(recv != Nil), nil
}

func primPrintString(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 0 {
		return nil, Fail(ErrBadArgumentCount)
	}
	return NewString(recv.Inspect()), nil
}

// primPrimitiveFailed raises the fatal primitive-failed condition.
// Kernel fallback bodies send primitiveFailed when their primitive
// declined; the caller frame names the method that failed.
func primPrimitiveFailed(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	className, selector := "", ""
	if caller := f.Caller(); caller != nil && caller.Method() != nil {
		cm := caller.Method()
		selector = cm.Selector
		if cm.Class != nil {
			className = cm.Class.Name
		}
	}
	return nil, &PrimitiveFailedError{ClassName: className, Selector: selector}
}

// ---------------------------------------------------------------------------
// String primitives
// ---------------------------------------------------------------------------

func primStringConcat(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 1 {
		return nil, Fail(ErrBadArgumentCount)
	}
	r, ok := recv.(*String)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	a, ok := f.ArgumentAt(0).(*String)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	out := make([]byte, 0, len(r.Val)+len(a.Val))
	out = append(out, r.Val...)
	out = append(out, a.Val...)
	return &String{Val: out}, nil
}

// primStringEqual compares contents byte for byte. Symbols inherit
// it, so #x = 'x' asSymbol holds without relying on identity.
func primStringEqual(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 1 {
		return nil, Fail(ErrBadArgumentCount)
	}
	text := func(v Value) (string, bool) {
		switch v := v.(type) {
		case *String:
			return v.Text(), true
		case *Symbol:
			return v.Name, true
		}
		return "", false
	}
	r, ok := text(recv)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	a, ok := text(f.ArgumentAt(0))
	if !ok {
		return boolValue(false), nil
	}
	return boolValue(r == a), nil
}

func primStringAsSymbol(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 0 {
		return nil, Fail(ErrBadArgumentCount)
	}
	s, ok := recv.(*String)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	return in.Symbols.Intern(s.Text()), nil
}

func primSymbolAsString(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 0 {
		return nil, Fail(ErrBadArgumentCount)
	}
	sym, ok := recv.(*Symbol)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	return NewString(sym.Name), nil
}
