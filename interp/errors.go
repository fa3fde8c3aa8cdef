package interp

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Error conditions. The fatal taxonomy (unresolved names, does not
// understand, arity mismatch, dead-frame return) propagates to the
// top-level ExecuteMethod call. PrimitiveFailure is different: it is
// a recoverable signal consumed inside the activation that ran the
// primitive, where it triggers fallback-code evaluation, and it never
// surfaces to callers.
// ---------------------------------------------------------------------------

// Sentinel causes carried inside a PrimitiveFailure. They exist so
// primitives can say why they failed; they are never returned as
// top-level errors themselves.
var (
	ErrIndexOutOfBounds = errors.New("index out of bounds")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrOverflow         = errors.New("arithmetic overflow")
	ErrBadArgumentCount = errors.New("bad argument count")
	ErrNotIndexable     = errors.New("receiver not indexable")
	ErrNotAClass        = errors.New("receiver not a class")
)

// PrimitiveFailure signals that a primitive declined the operation.
// The owning method activation catches it and evaluates the method
// body as fallback code.
type PrimitiveFailure struct {
	Cause error
}

func (e *PrimitiveFailure) Error() string {
	if e.Cause != nil {
		return "primitive failure: " + e.Cause.Error()
	}
	return "primitive failure"
}

func (e *PrimitiveFailure) Unwrap() error { return e.Cause }

// Fail wraps cause as a primitive failure. Primitive implementations
// return it when validation declines the operation.
func Fail(cause error) error {
	return &PrimitiveFailure{Cause: cause}
}

// UnresolvedVariableError means a temporary or argument reference
// found no slot anywhere in the lexical chain. The tree is assumed
// pre-validated, so this indicates a front-end or evaluator defect.
type UnresolvedVariableError struct {
	Name string
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("unresolved variable %q", e.Name)
}

// UnresolvedGlobalError means a global reference found no binding.
// Evaluation halts rather than yielding a default; late binding is
// allowed but absence is not.
type UnresolvedGlobalError struct {
	Name string
}

func (e *UnresolvedGlobalError) Error() string {
	return fmt.Sprintf("unresolved global %q", e.Name)
}

// DoesNotUnderstandError means method lookup exhausted the superclass
// chain without a match.
type DoesNotUnderstandError struct {
	ClassName string
	Selector  string
}

func (e *DoesNotUnderstandError) Error() string {
	return fmt.Sprintf("%s does not understand #%s", e.ClassName, e.Selector)
}

// ArityMismatchError means a method or closure was invoked with the
// wrong number of arguments.
type ArityMismatchError struct {
	What string // selector, or "block" for closure invocations
	Want int
	Got  int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("%s expects %d arguments, got %d", e.What, e.Want, e.Got)
}

// DeadFrameReturnError means a non-local return targeted a home frame
// whose activation already completed. Policy choice: fatal.
type DeadFrameReturnError struct {
	Selector string // home method's selector when known
}

func (e *DeadFrameReturnError) Error() string {
	if e.Selector != "" {
		return fmt.Sprintf("non-local return to completed activation of #%s", e.Selector)
	}
	return "non-local return to completed activation"
}

// PrimitiveFailedError is the condition raised by the kernel's
// primitiveFailed method, which fallback bodies of kernel primitives
// send when the primitive declined and no recovery exists.
type PrimitiveFailedError struct {
	ClassName string
	Selector  string
}

func (e *PrimitiveFailedError) Error() string {
	if e.ClassName != "" && e.Selector != "" {
		return fmt.Sprintf("primitive failed in %s>>%s", e.ClassName, e.Selector)
	}
	return "primitive failed"
}

// RecursionLimitError means evaluation exceeded the configured
// activation depth. It stands in for the host stack fault that
// unbounded recursion would otherwise cause.
type RecursionLimitError struct {
	Depth int
}

func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("call depth exceeded %d activations", e.Depth)
}
