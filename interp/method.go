package interp

// ---------------------------------------------------------------------------
// Methods: a selector, parameter names, a body sequence, and an
// optional primitive tag. Immutable once registered on a class.
// ---------------------------------------------------------------------------

// Method is a compiled method. When Primitive is non-zero the
// evaluator consults the primitive table first and the body serves as
// fallback code.
type Method struct {
	Selector  string
	Params    []string
	Body      *Seq
	Primitive int    // primitive id, 0 when untagged
	Class     *Class // defining class, set at registration
	ClassSide bool   // set at registration
	Source    string // original source text when compiled from source
}

// NumArgs returns the number of declared parameters.
func (m *Method) NumArgs() int { return len(m.Params) }

// IsPrimitive reports whether the method carries a primitive tag.
func (m *Method) IsPrimitive() bool { return m.Primitive != 0 }

// NewMethod builds an untagged method from its parts. The body may
// be nil for an empty sequence.
func NewMethod(selector string, params []string, body *Seq) *Method {
	if body == nil {
		body = &Seq{}
	}
	return &Method{Selector: selector, Params: params, Body: body}
}
