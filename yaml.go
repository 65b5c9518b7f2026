package configlib

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

func encodeYAML(v Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(4)
	if err := enc.Encode(yamlNode(v)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// yamlNode converts v into a yaml.v3 node tree so that mapping order is
// retained on output.
func yamlNode(v Value) *yaml.Node {
	switch v.kind {
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}
	case KindInt:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.i, 10)}
	case KindFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: yamlFloat(v.f)}
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.s}
	case KindList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.list {
			n.Content = append(n.Content, yamlNode(e))
		}

		return n
	case KindMap:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if v.m.Len() == 0 {
			n.Style = yaml.FlowStyle
		}
		for _, k := range v.m.keys {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				yamlNode(v.m.vals[k]),
			)
		}

		return n
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	default:
		return string(appendFloat(nil, f))
	}
}

func decodeYAML(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Value{}, err
	}

	// an empty document
	if doc.Kind == 0 {
		return Null(), nil
	}

	return fromYAMLNode(&doc)
}

func fromYAMLNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}

		return fromYAMLNode(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return Value{}, fmt.Errorf("line %d: dangling alias", n.Line)
		}

		return fromYAMLNode(n.Alias)
	case yaml.SequenceNode:
		list := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			e, err := fromYAMLNode(c)
			if err != nil {
				return Value{}, err
			}
			list = append(list, e)
		}

		return List(list...), nil
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			kn := n.Content[i]
			if kn.Kind != yaml.ScalarNode {
				return Value{}, fmt.Errorf("line %d: mapping keys must be scalars", kn.Line)
			}
			e, err := fromYAMLNode(n.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			m.Set(kn.Value, e)
		}

		return MapValue(m), nil
	case yaml.ScalarNode:
		return fromYAMLScalar(n)
	default:
		return Value{}, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}

func fromYAMLScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, err
		}

		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return Int(i), nil
		}
		// too large for int64, keep the magnitude at least
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, err
		}

		return Float(f), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, err
		}

		return Float(f), nil
	default:
		// strings, timestamps and binary data are kept verbatim
		return String(n.Value), nil
	}
}

// ParseScalar interprets a single string using YAML's scalar resolution
// rules, e.g. "true" becomes a bool and "42" an int. Anything that does not
// resolve to a scalar is kept as a string.
func ParseScalar(s string) Value {
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(s), &n); err != nil || len(n.Content) != 1 || n.Content[0].Kind != yaml.ScalarNode {
		return String(s)
	}

	v, err := fromYAMLScalar(n.Content[0])
	if err != nil {
		return String(s)
	}
	if v.kind == KindNull && s != "null" && s != "~" {
		return String(s)
	}

	return v
}
