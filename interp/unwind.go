package interp

// ---------------------------------------------------------------------------
// Non-local return unwinding. A ^ statement produces a blockReturn
// that travels outward through the evaluator's ordinary error
// returns. Only the method activation whose frame is the unwind's
// home consumes it; every other activation re-propagates it
// unchanged, which is what lets a return inside a deeply nested block
// abort all intervening activations. This is a control transfer, not
// an exception, and it never crosses the package boundary: an
// unconsumed unwind surfaces as a DeadFrameReturnError.
// ---------------------------------------------------------------------------

// blockReturn carries a return value and the identity of the home
// frame that must consume it.
type blockReturn struct {
	value Value
	home  *Frame
}

// Error satisfies the error interface so the unwind can flow through
// the evaluator's (Value, error) returns. The message only appears if
// an unwind ever leaks, which would be a defect.
func (r *blockReturn) Error() string { return "non-local return in flight" }

// asBlockReturn extracts an in-flight unwind from an evaluator error.
func asBlockReturn(err error) (*blockReturn, bool) {
	br, ok := err.(*blockReturn)
	return br, ok
}
