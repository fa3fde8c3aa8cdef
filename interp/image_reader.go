package interp

import (
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Image snapshots, reader side. Loading merges a snapshot into a
// bootstrapped interpreter: classes the interpreter already has (the
// kernel, or classes from an earlier load) keep their identity and
// structure and only have their method tables refreshed, so kernel
// class pointers held by the interpreter stay valid.
// ---------------------------------------------------------------------------

// ReadImage loads a snapshot from r into in.
func ReadImage(in *Interp, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("image: read: %w", err)
	}
	return loadImage(in, data)
}

// LoadImage loads a snapshot file into in.
func LoadImage(in *Interp, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("image: read %s: %w", path, err)
	}
	return loadImage(in, data)
}

func loadImage(in *Interp, data []byte) error {
	var img imageFile
	if err := cbor.Unmarshal(data, &img); err != nil {
		return fmt.Errorf("image: decode: %w", err)
	}
	if img.Magic != imageMagic {
		return fmt.Errorf("image: bad magic %q", img.Magic)
	}
	if img.Version != imageVersion {
		return fmt.Errorf("image: unsupported version %d", img.Version)
	}

	// Realize new classes in dependency order: a class is created once
	// its superclass exists, over as many passes as the chains need.
	pending := img.Classes
	for len(pending) > 0 {
		var remain []imageClass
		for _, ic := range pending {
			if in.Classes.Lookup(ic.Name) != nil {
				continue
			}
			var super *Class
			if ic.Superclass != "" {
				if super = in.Classes.Lookup(ic.Superclass); super == nil {
					remain = append(remain, ic)
					continue
				}
			}
			cls := NewClassWithInstVars(ic.Name, super, ic.InstVars)
			cls.Variable = ic.Variable
			in.Classes.Register(cls)
		}
		if len(remain) == len(pending) {
			return fmt.Errorf("image: unresolvable superclass %q for class %s",
				remain[0].Superclass, remain[0].Name)
		}
		pending = remain
	}

	for _, ic := range img.Classes {
		cls := in.Classes.Lookup(ic.Name)
		for _, im := range ic.Methods {
			m, err := decodeMethod(im)
			if err != nil {
				return fmt.Errorf("image: %s>>%s: %w", ic.Name, im.Selector, err)
			}
			cls.AddMethod(m)
		}
		for _, im := range ic.ClassMethods {
			m, err := decodeMethod(im)
			if err != nil {
				return fmt.Errorf("image: %s class>>%s: %w", ic.Name, im.Selector, err)
			}
			cls.AddClassMethod(m)
		}
	}

	for name, wv := range img.Globals {
		v, err := in.decodeValue(wv)
		if err != nil {
			return fmt.Errorf("image: global %s: %w", name, err)
		}
		in.Globals.Set(name, v)
	}
	return nil
}

func decodeMethod(im imageMethod) (*Method, error) {
	m := &Method{
		Selector:  im.Selector,
		Params:    im.Params,
		Primitive: im.Primitive,
		Source:    im.Source,
		Body:      &Seq{},
	}
	if im.Body != nil {
		n, err := decodeNode(im.Body)
		if err != nil {
			return nil, err
		}
		seq, ok := n.(*Seq)
		if !ok {
			return nil, fmt.Errorf("method body is %T, want sequence", n)
		}
		m.Body = seq
	}
	return m, nil
}

func decodeNode(w *wireNode) (Node, error) {
	if w == nil {
		return nil, nil
	}
	switch w.Kind {
	case "int":
		return &IntLit{Value: w.IntVal}, nil
	case "float":
		return &FloatLit{Value: w.FloatVal}, nil
	case "str":
		return &StrLit{Value: w.StrVal}, nil
	case "sym":
		return &SymLit{Name: w.Name}, nil
	case "char":
		return &CharLit{Value: rune(w.RuneVal)}, nil
	case "nil":
		return &NilLit{}, nil
	case "true":
		return &TrueLit{}, nil
	case "false":
		return &FalseLit{}, nil
	case "arraylit":
		elems, err := decodeNodes(w.Elements)
		if err != nil {
			return nil, err
		}
		return &ArrayLit{Elements: elems}, nil
	case "dynarray":
		elems, err := decodeNodes(w.Elements)
		if err != nil {
			return nil, err
		}
		return &DynArray{Elements: elems}, nil
	case "self":
		return &SelfRef{}, nil
	case "superref":
		return &SuperRef{}, nil
	case "ivar":
		return &InstVarRef{Name: w.Name, Slot: w.Slot}, nil
	case "arg":
		return &ArgRef{Name: w.Name}, nil
	case "temp":
		return &TempRef{Name: w.Name}, nil
	case "global":
		return &GlobalRef{Name: w.Name}, nil
	case "assign":
		target, err := decodeNode(w.Target)
		if err != nil {
			return nil, err
		}
		value, err := decodeNode(w.Value)
		if err != nil {
			return nil, err
		}
		return &Assign{Target: target, Value: value}, nil
	case "seq":
		stmts, err := decodeNodes(w.Stmts)
		if err != nil {
			return nil, err
		}
		return &Seq{Temps: w.Temps, Stmts: stmts}, nil
	case "send":
		recv, err := decodeNode(w.Receiver)
		if err != nil {
			return nil, err
		}
		args, err := decodeNodes(w.Args)
		if err != nil {
			return nil, err
		}
		return &Send{Receiver: recv, Selector: w.Selector, Args: args, Super: w.Super}, nil
	case "cascade":
		recv, err := decodeNode(w.Receiver)
		if err != nil {
			return nil, err
		}
		c := &Cascade{Receiver: recv}
		for _, wm := range w.Cascade {
			args, err := decodeNodes(wm.Args)
			if err != nil {
				return nil, err
			}
			c.Messages = append(c.Messages, CascadeMsg{Selector: wm.Selector, Args: args})
		}
		return c, nil
	case "return":
		value, err := decodeNode(w.Value)
		if err != nil {
			return nil, err
		}
		return &Return{Value: value}, nil
	case "block":
		var seq *Seq
		if w.Body != nil {
			n, err := decodeNode(w.Body)
			if err != nil {
				return nil, err
			}
			s, ok := n.(*Seq)
			if !ok {
				return nil, fmt.Errorf("block body is %T, want sequence", n)
			}
			seq = s
		}
		return &BlockLit{Params: w.Params, Body: seq}, nil
	default:
		return nil, fmt.Errorf("unknown node kind %q", w.Kind)
	}
}

func decodeNodes(ws []*wireNode) ([]Node, error) {
	if len(ws) == 0 {
		return nil, nil
	}
	out := make([]Node, len(ws))
	for i, w := range ws {
		n, err := decodeNode(w)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (in *Interp) decodeValue(w *wireValue) (Value, error) {
	switch w.Kind {
	case "nil":
		return Nil, nil
	case "true":
		return True, nil
	case "false":
		return False, nil
	case "int":
		return &Integer{Val: w.IntVal}, nil
	case "float":
		return &Float{Val: w.FloatVal}, nil
	case "str":
		return NewString(w.StrVal), nil
	case "sym":
		return in.Symbols.Intern(w.StrVal), nil
	case "char":
		return &Character{Val: rune(w.RuneVal)}, nil
	case "array":
		arr := NewArray(len(w.Elems))
		for i, we := range w.Elems {
			v, err := in.decodeValue(we)
			if err != nil {
				return nil, err
			}
			arr.Elems[i] = v
		}
		return arr, nil
	case "classref":
		cls := in.Classes.Lookup(w.Class)
		if cls == nil {
			return nil, fmt.Errorf("unknown class %q", w.Class)
		}
		return cls, nil
	case "instance":
		cls := in.Classes.Lookup(w.Class)
		if cls == nil {
			return nil, fmt.Errorf("unknown class %q", w.Class)
		}
		inst := NewInstance(cls)
		if len(w.Slots) != inst.NumSlots() {
			return nil, fmt.Errorf("class %s has %d slots, image has %d",
				w.Class, inst.NumSlots(), len(w.Slots))
		}
		for i, ws := range w.Slots {
			v, err := in.decodeValue(ws)
			if err != nil {
				return nil, err
			}
			inst.SetSlot(i, v)
		}
		if w.HasIdx {
			inst.indexed = make([]Value, len(w.Indexed))
			for i, wi := range w.Indexed {
				v, err := in.decodeValue(wi)
				if err != nil {
					return nil, err
				}
				inst.indexed[i] = v
			}
		}
		return inst, nil
	default:
		return nil, fmt.Errorf("unknown value kind %q", w.Kind)
	}
}
