package configlib

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// jsonIndent matches the four space indentation of the pretty printed files
// written by earlier releases.
const jsonIndent = "    "

// appendJSON encodes v as compact JSON. Mapping keys keep their insertion
// order and neither slashes, non-ASCII nor HTML characters are escaped.
func appendJSON(buf []byte, v Value) ([]byte, error) {
	switch v.kind {
	case KindNull:
		return append(buf, "null"...), nil
	case KindBool:
		return strconv.AppendBool(buf, v.b), nil
	case KindInt:
		return strconv.AppendInt(buf, v.i, 10), nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, fmt.Errorf("can not encode %v as JSON", v.f)
		}

		return appendFloat(buf, v.f), nil
	case KindString:
		return appendJSONString(buf, v.s)
	case KindList:
		buf = append(buf, '[')
		for i, e := range v.list {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			buf, err = appendJSON(buf, e)
			if err != nil {
				return nil, err
			}
		}

		return append(buf, ']'), nil
	case KindMap:
		buf = append(buf, '{')
		for i, k := range v.m.keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			buf, err = appendJSONString(buf, k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, ':')
			buf, err = appendJSON(buf, v.m.vals[k])
			if err != nil {
				return nil, err
			}
		}

		return append(buf, '}'), nil
	default:
		return nil, fmt.Errorf("unknown value kind %s", v.kind)
	}
}

// appendFloat formats f so that it is always read back as a float, i.e. it
// carries a fraction or an exponent.
func appendFloat(buf []byte, f float64) []byte {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}

	return append(buf, s...)
}

func appendJSONString(buf []byte, s string) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}

	return append(buf, bytes.TrimSuffix(b.Bytes(), []byte("\n"))...), nil
}

func encodeJSON(v Value, pretty bool) ([]byte, error) {
	buf, err := appendJSON(make([]byte, 0, 512), v)
	if err != nil {
		return nil, err
	}
	if !pretty {
		return buf, nil
	}

	var out bytes.Buffer
	if err := json.Indent(&out, buf, "", jsonIndent); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// decodeJSON parses a single JSON document. Unlike encoding/json it keeps the
// order of object keys and distinguishes integers from floats.
func decodeJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return Value{}, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("unexpected data after top-level value")
	}

	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return numberValue(t.String())
	case json.Delim:
		switch t {
		case '[':
			list := make([]Value, 0, 4)
			for dec.More() {
				e, err := decodeJSONValue(dec)
				if err != nil {
					return Value{}, err
				}
				list = append(list, e)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}

			return List(list...), nil
		case '{':
			m := NewMap()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				k, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("invalid object key %v", kt)
				}
				e, err := decodeJSONValue(dec)
				if err != nil {
					return Value{}, err
				}
				m.Set(k, e)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}

			return MapValue(m), nil
		}
	}

	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

// numberValue turns a JSON number literal into an int if it is integral and
// fits into 64 bits, otherwise into a float.
func numberValue(lit string) (Value, error) {
	if !strings.ContainsAny(lit, ".eE") {
		if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return Int(i), nil
		}
	}

	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid number %q: %w", lit, err)
	}

	return Float(f), nil
}
