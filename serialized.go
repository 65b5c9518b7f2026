package configlib

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// gobNode is the wire shape of a Value in the native serialized format.
// Map entries are stored as parallel key and value slices to keep order.
type gobNode struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Items []gobNode
	Keys  []string
}

func toGobNode(v Value) gobNode {
	n := gobNode{Kind: v.kind}
	switch v.kind {
	case KindBool:
		n.Bool = v.b
	case KindInt:
		n.Int = v.i
	case KindFloat:
		n.Float = v.f
	case KindString:
		n.Str = v.s
	case KindList:
		n.Items = make([]gobNode, 0, len(v.list))
		for _, e := range v.list {
			n.Items = append(n.Items, toGobNode(e))
		}
	case KindMap:
		n.Keys = v.m.Keys()
		n.Items = make([]gobNode, 0, v.m.Len())
		for _, k := range v.m.keys {
			n.Items = append(n.Items, toGobNode(v.m.vals[k]))
		}
	}

	return n
}

func fromGobNode(n gobNode) (Value, error) {
	switch n.Kind {
	case KindNull:
		return Null(), nil
	case KindBool:
		return Bool(n.Bool), nil
	case KindInt:
		return Int(n.Int), nil
	case KindFloat:
		return Float(n.Float), nil
	case KindString:
		return String(n.Str), nil
	case KindList:
		list := make([]Value, 0, len(n.Items))
		for _, c := range n.Items {
			e, err := fromGobNode(c)
			if err != nil {
				return Value{}, err
			}
			list = append(list, e)
		}

		return List(list...), nil
	case KindMap:
		if len(n.Keys) != len(n.Items) {
			return Value{}, fmt.Errorf("map with %d keys but %d values", len(n.Keys), len(n.Items))
		}
		m := NewMap()
		for i, k := range n.Keys {
			e, err := fromGobNode(n.Items[i])
			if err != nil {
				return Value{}, err
			}
			m.Set(k, e)
		}

		return MapValue(m), nil
	default:
		return Value{}, fmt.Errorf("unknown value kind %d", n.Kind)
	}
}

func encodeSerialized(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(toGobNode(v)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeSerialized(data []byte) (Value, error) {
	var n gobNode
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&n); err != nil {
		return Value{}, err
	}

	return fromGobNode(n)
}
