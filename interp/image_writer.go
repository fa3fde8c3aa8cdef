package interp

import (
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Image snapshots, writer side. An image is a CBOR document holding
// the class table (with every method body as an encoded node tree)
// and the global bindings. Canonical encoding keeps snapshots of the
// same interpreter state byte-identical.
//
// Values encode as trees, not graphs: substructure reached through
// more than one path is written once per path and loads back as
// independent copies, and a cyclic value hits the nesting limit and
// refuses to encode.
//
// Closures and native handles have no meaning outside the process
// that created them; encoding one refuses with NotImageableError.
// ---------------------------------------------------------------------------

const (
	imageMagic   = "TPIMAGE"
	imageVersion = 1

	// Instance graphs are trees in practice; a depth this large means
	// a cycle.
	maxImageDepth = 1000
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// NotImageableError marks a value that cannot be stored in an image.
type NotImageableError struct {
	TypeName string
}

func (e *NotImageableError) Error() string {
	return "image: " + e.TypeName + " values cannot be stored in an image"
}

// ---------------------------------------------------------------------------
// Wire structures
// ---------------------------------------------------------------------------

type imageFile struct {
	Magic   string                `cbor:"magic"`
	Version int                   `cbor:"version"`
	Classes []imageClass          `cbor:"classes"`
	Globals map[string]*wireValue `cbor:"globals,omitempty"`
}

type imageClass struct {
	Name         string        `cbor:"name"`
	Superclass   string        `cbor:"super,omitempty"`
	InstVars     []string      `cbor:"ivars,omitempty"`
	Variable     bool          `cbor:"variable,omitempty"`
	Methods      []imageMethod `cbor:"methods,omitempty"`
	ClassMethods []imageMethod `cbor:"classMethods,omitempty"`
}

type imageMethod struct {
	Selector  string    `cbor:"sel"`
	Params    []string  `cbor:"params,omitempty"`
	Primitive int       `cbor:"prim,omitempty"`
	Source    string    `cbor:"src,omitempty"`
	Body      *wireNode `cbor:"body,omitempty"`
}

// wireNode is the kind-tagged encoding of one syntax node. Only the
// fields relevant to the kind are populated.
type wireNode struct {
	Kind     string        `cbor:"k"`
	IntVal   int64         `cbor:"i,omitempty"`
	FloatVal float64       `cbor:"f,omitempty"`
	StrVal   string        `cbor:"s,omitempty"`
	RuneVal  int32         `cbor:"r,omitempty"`
	Name     string        `cbor:"n,omitempty"`
	Slot     int           `cbor:"slot,omitempty"`
	Selector string        `cbor:"sel,omitempty"`
	Super    bool          `cbor:"sup,omitempty"`
	Receiver *wireNode     `cbor:"recv,omitempty"`
	Target   *wireNode     `cbor:"tgt,omitempty"`
	Value    *wireNode     `cbor:"val,omitempty"`
	Args     []*wireNode   `cbor:"args,omitempty"`
	Elements []*wireNode   `cbor:"elems,omitempty"`
	Temps    []string      `cbor:"temps,omitempty"`
	Stmts    []*wireNode   `cbor:"stmts,omitempty"`
	Params   []string      `cbor:"params,omitempty"`
	Body     *wireNode     `cbor:"body,omitempty"`
	Cascade  []wireCascade `cbor:"casc,omitempty"`
}

type wireCascade struct {
	Selector string      `cbor:"sel"`
	Args     []*wireNode `cbor:"args,omitempty"`
}

// wireValue is the kind-tagged encoding of one imageable value.
type wireValue struct {
	Kind     string       `cbor:"k"`
	IntVal   int64        `cbor:"i,omitempty"`
	FloatVal float64      `cbor:"f,omitempty"`
	StrVal   string       `cbor:"s,omitempty"`
	RuneVal  int32        `cbor:"r,omitempty"`
	Class    string       `cbor:"class,omitempty"`
	Elems    []*wireValue `cbor:"elems,omitempty"`
	Slots    []*wireValue `cbor:"slots,omitempty"`
	Indexed  []*wireValue `cbor:"indexed,omitempty"`
	HasIdx   bool         `cbor:"hasidx,omitempty"`
}

// ---------------------------------------------------------------------------
// Writer
// ---------------------------------------------------------------------------

// WriteImage snapshots the interpreter's classes and globals to w.
func WriteImage(in *Interp, w io.Writer) error {
	img, err := snapshot(in)
	if err != nil {
		return err
	}
	data, err := cborEncMode.Marshal(img)
	if err != nil {
		return fmt.Errorf("image: encode: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("image: write: %w", err)
	}
	return nil
}

// SaveImage snapshots the interpreter to a file.
func SaveImage(in *Interp, path string) error {
	img, err := snapshot(in)
	if err != nil {
		return err
	}
	data, err := cborEncMode.Marshal(img)
	if err != nil {
		return fmt.Errorf("image: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("image: write %s: %w", path, err)
	}
	return nil
}

func snapshot(in *Interp) (*imageFile, error) {
	img := &imageFile{
		Magic:   imageMagic,
		Version: imageVersion,
		Globals: make(map[string]*wireValue),
	}

	for _, name := range in.Classes.Names() {
		cls := in.Classes.Lookup(name)
		ic := imageClass{
			Name:     cls.Name,
			InstVars: cls.InstVarNames,
			Variable: cls.Variable,
		}
		if cls.Superclass != nil {
			ic.Superclass = cls.Superclass.Name
		}
		for _, sel := range cls.Selectors() {
			ic.Methods = append(ic.Methods, encodeMethod(cls.MethodNamed(sel)))
		}
		for _, sel := range cls.ClassSelectors() {
			ic.ClassMethods = append(ic.ClassMethods, encodeMethod(cls.ClassMethodNamed(sel)))
		}
		img.Classes = append(img.Classes, ic)
	}

	for _, name := range in.Globals.Names() {
		v, _ := in.Globals.Get(name)
		wv, err := encodeValue(v, 0)
		if err != nil {
			return nil, fmt.Errorf("image: global %s: %w", name, err)
		}
		img.Globals[name] = wv
	}
	return img, nil
}

func encodeMethod(m *Method) imageMethod {
	im := imageMethod{
		Selector:  m.Selector,
		Params:    m.Params,
		Primitive: m.Primitive,
		Source:    m.Source,
	}
	if m.Body != nil {
		im.Body = encodeNode(m.Body)
	}
	return im
}

func encodeNode(n Node) *wireNode {
	switch n := n.(type) {
	case nil:
		return nil
	case *IntLit:
		return &wireNode{Kind: "int", IntVal: n.Value}
	case *FloatLit:
		return &wireNode{Kind: "float", FloatVal: n.Value}
	case *StrLit:
		return &wireNode{Kind: "str", StrVal: n.Value}
	case *SymLit:
		return &wireNode{Kind: "sym", Name: n.Name}
	case *CharLit:
		return &wireNode{Kind: "char", RuneVal: int32(n.Value)}
	case *NilLit:
		return &wireNode{Kind: "nil"}
	case *TrueLit:
		return &wireNode{Kind: "true"}
	case *FalseLit:
		return &wireNode{Kind: "false"}
	case *ArrayLit:
		return &wireNode{Kind: "arraylit", Elements: encodeNodes(n.Elements)}
	case *DynArray:
		return &wireNode{Kind: "dynarray", Elements: encodeNodes(n.Elements)}
	case *SelfRef:
		return &wireNode{Kind: "self"}
	case *SuperRef:
		return &wireNode{Kind: "superref"}
	case *InstVarRef:
		return &wireNode{Kind: "ivar", Name: n.Name, Slot: n.Slot}
	case *ArgRef:
		return &wireNode{Kind: "arg", Name: n.Name}
	case *TempRef:
		return &wireNode{Kind: "temp", Name: n.Name}
	case *GlobalRef:
		return &wireNode{Kind: "global", Name: n.Name}
	case *Assign:
		return &wireNode{Kind: "assign", Target: encodeNode(n.Target), Value: encodeNode(n.Value)}
	case *Seq:
		return &wireNode{Kind: "seq", Temps: n.Temps, Stmts: encodeNodes(n.Stmts)}
	case *Send:
		return &wireNode{
			Kind:     "send",
			Receiver: encodeNode(n.Receiver),
			Selector: n.Selector,
			Args:     encodeNodes(n.Args),
			Super:    n.Super,
		}
	case *Cascade:
		w := &wireNode{Kind: "cascade", Receiver: encodeNode(n.Receiver)}
		for _, msg := range n.Messages {
			w.Cascade = append(w.Cascade, wireCascade{
				Selector: msg.Selector,
				Args:     encodeNodes(msg.Args),
			})
		}
		return w
	case *Return:
		return &wireNode{Kind: "return", Value: encodeNode(n.Value)}
	case *BlockLit:
		w := &wireNode{Kind: "block", Params: n.Params}
		if n.Body != nil {
			w.Body = encodeNode(n.Body)
		}
		return w
	default:
		// The node set is closed; reaching this is a defect.
		return &wireNode{Kind: fmt.Sprintf("unknown:%T", n)}
	}
}

func encodeNodes(nodes []Node) []*wireNode {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]*wireNode, len(nodes))
	for i, n := range nodes {
		out[i] = encodeNode(n)
	}
	return out
}

func encodeValue(v Value, depth int) (*wireValue, error) {
	if depth > maxImageDepth {
		return nil, fmt.Errorf("value nesting exceeds %d levels", maxImageDepth)
	}
	switch v := v.(type) {
	case *NilObject:
		return &wireValue{Kind: "nil"}, nil
	case *Boolean:
		if v.Val {
			return &wireValue{Kind: "true"}, nil
		}
		return &wireValue{Kind: "false"}, nil
	case *Integer:
		return &wireValue{Kind: "int", IntVal: v.Val}, nil
	case *Float:
		return &wireValue{Kind: "float", FloatVal: v.Val}, nil
	case *String:
		return &wireValue{Kind: "str", StrVal: v.Text()}, nil
	case *Symbol:
		return &wireValue{Kind: "sym", StrVal: v.Name}, nil
	case *Character:
		return &wireValue{Kind: "char", RuneVal: int32(v.Val)}, nil
	case *Array:
		w := &wireValue{Kind: "array"}
		for _, e := range v.Elems {
			we, err := encodeValue(e, depth+1)
			if err != nil {
				return nil, err
			}
			w.Elems = append(w.Elems, we)
		}
		return w, nil
	case *Class:
		return &wireValue{Kind: "classref", Class: v.Name}, nil
	case *Instance:
		w := &wireValue{Kind: "instance", Class: v.Class().Name, HasIdx: v.HasIndexed()}
		for i := 0; i < v.NumSlots(); i++ {
			we, err := encodeValue(v.GetSlot(i), depth+1)
			if err != nil {
				return nil, err
			}
			w.Slots = append(w.Slots, we)
		}
		for i := 1; i <= v.IndexedLen(); i++ {
			we, err := encodeValue(v.indexed[i-1], depth+1)
			if err != nil {
				return nil, err
			}
			w.Indexed = append(w.Indexed, we)
		}
		return w, nil
	case *Closure:
		return nil, &NotImageableError{TypeName: "BlockClosure"}
	case *Native:
		return nil, &NotImageableError{TypeName: "Native"}
	default:
		return nil, &NotImageableError{TypeName: fmt.Sprintf("%T", v)}
	}
}
