package interp

import (
	"fmt"
	"math"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Request payloads for call:with: travel either as JSON text or as
// flat arrays of field-name/value pairs. The pair form is converted
// here, field by field against the method's input descriptor, so
// values are typed by the server's schema rather than guessed from
// the JSON surface.

// pairsToProto builds a message from alternating field names and
// values: #('name' 'espresso' 'count' 3). Names may be strings or
// symbols. Unknown field names are errors, not silently dropped.
func pairsToProto(arr *Array, msgDesc *desc.MessageDescriptor) (*dynamic.Message, error) {
	if len(arr.Elems)%2 != 0 {
		return nil, fmt.Errorf("field pairs: odd element count %d", len(arr.Elems))
	}
	msg := dynamic.NewMessage(msgDesc)
	for i := 0; i < len(arr.Elems); i += 2 {
		name, err := protoFieldName(arr.Elems[i])
		if err != nil {
			return nil, err
		}
		field := msgDesc.FindFieldByName(name)
		if field == nil {
			return nil, fmt.Errorf("message %s has no field %q", msgDesc.GetName(), name)
		}
		fv, err := valueToProtoField(arr.Elems[i+1], field)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		if err := msg.TrySetField(field, fv); err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
	}
	return msg, nil
}

func protoFieldName(v Value) (string, error) {
	switch k := v.(type) {
	case *String:
		return k.Text(), nil
	case *Symbol:
		return k.Name, nil
	}
	return "", fmt.Errorf("field name must be a string or symbol, got %s", v.Inspect())
}

// valueToProtoField converts one value for a field slot. Repeated
// fields take an array and convert element-wise.
func valueToProtoField(v Value, field *desc.FieldDescriptor) (interface{}, error) {
	if field.IsRepeated() && !field.IsMap() {
		arr, ok := v.(*Array)
		if !ok {
			return nil, fmt.Errorf("repeated field wants an array, got %s", v.Inspect())
		}
		out := make([]interface{}, len(arr.Elems))
		for i, elem := range arr.Elems {
			fv, err := scalarToProtoField(elem, field)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i+1, err)
			}
			out[i] = fv
		}
		return out, nil
	}
	return scalarToProtoField(v, field)
}

// scalarToProtoField converts a single element. Integers fail on
// values the wire type cannot hold rather than truncating, matching
// how the arithmetic primitives treat overflow.
func scalarToProtoField(v Value, field *desc.FieldDescriptor) (interface{}, error) {
	switch field.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_INT32,
		descriptorpb.FieldDescriptorProto_TYPE_SINT32,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED32:
		if n, ok := v.(*Integer); ok {
			if n.Val < math.MinInt32 || n.Val > math.MaxInt32 {
				return nil, fmt.Errorf("%d does not fit in 32 bits", n.Val)
			}
			return int32(n.Val), nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_INT64,
		descriptorpb.FieldDescriptorProto_TYPE_SINT64,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		if n, ok := v.(*Integer); ok {
			return n.Val, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_UINT32,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED32:
		if n, ok := v.(*Integer); ok {
			if n.Val < 0 || n.Val > math.MaxUint32 {
				return nil, fmt.Errorf("%d does not fit in unsigned 32 bits", n.Val)
			}
			return uint32(n.Val), nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_UINT64,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED64:
		if n, ok := v.(*Integer); ok {
			if n.Val < 0 {
				return nil, fmt.Errorf("%d does not fit in unsigned 64 bits", n.Val)
			}
			return uint64(n.Val), nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_FLOAT:
		switch n := v.(type) {
		case *Float:
			return float32(n.Val), nil
		case *Integer:
			return float32(n.Val), nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:
		switch n := v.(type) {
		case *Float:
			return n.Val, nil
		case *Integer:
			return float64(n.Val), nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		if v == True || v == False {
			return v == True, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_STRING:
		switch s := v.(type) {
		case *String:
			return s.Text(), nil
		case *Symbol:
			return s.Name, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		if s, ok := v.(*String); ok {
			// Strings are mutable; the wire copy must not share bytes.
			b := make([]byte, len(s.Val))
			copy(b, s.Val)
			return b, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		if arr, ok := v.(*Array); ok {
			return pairsToProto(arr, field.GetMessageType())
		}
	case descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		switch e := v.(type) {
		case *Integer:
			if e.Val < math.MinInt32 || e.Val > math.MaxInt32 {
				return nil, fmt.Errorf("%d does not fit in 32 bits", e.Val)
			}
			return int32(e.Val), nil
		case *Symbol:
			return enumNumber(field, e.Name)
		case *String:
			return enumNumber(field, e.Text())
		}
	}
	return nil, fmt.Errorf("cannot convert %s to proto type %v", v.Inspect(), field.GetType())
}

func enumNumber(field *desc.FieldDescriptor, name string) (interface{}, error) {
	ev := field.GetEnumType().FindValueByName(name)
	if ev == nil {
		return nil, fmt.Errorf("enum %s has no value %s", field.GetEnumType().GetName(), name)
	}
	return ev.GetNumber(), nil
}
