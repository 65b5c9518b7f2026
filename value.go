package configlib

import (
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
)

// Kind identifies which variant a Value holds.
type Kind uint8

// Supported value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single node of a configuration tree. It is either a scalar
// (null, bool, int, float, string), an ordered list of values or a mapping
// from string keys to values. The zero Value is null.
//
// Lists and maps are reference types: copying a Value shares the underlying
// storage. Use Clone to obtain an independent copy.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    *Map
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a floating point number.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// List wraps the given values into a list value.
func List(vs ...Value) Value {
	if vs == nil {
		vs = []Value{}
	}

	return Value{kind: KindList, list: vs}
}

// MapValue wraps m into a map value. A nil map yields an empty mapping.
func MapValue(m *Map) Value {
	if m == nil {
		m = NewMap()
	}

	return Value{kind: KindMap, m: m}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsInt returns the integer held by v.
func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInt
}

// AsFloat returns the number held by v. Integers are widened.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsList returns the elements of a list value. The slice is shared with v.
func (v Value) AsList() ([]Value, bool) {
	return v.list, v.kind == KindList
}

// AsMap returns the mapping held by v. The map is shared with v.
func (v Value) AsMap() (*Map, bool) {
	return v.m, v.kind == KindMap
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		out := make([]Value, len(v.list))
		for i, e := range v.list {
			out[i] = e.Clone()
		}

		return Value{kind: KindList, list: out}
	case KindMap:
		return Value{kind: KindMap, m: v.m.Clone()}
	default:
		return v
	}
}

// Equal reports whether v and o hold the same tree. Mapping key order is
// not significant, list order is.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString:
		return v.s == o.s
	case KindList:
		return slices.EqualFunc(v.list, o.list, Value.Equal)
	case KindMap:
		return v.m.Equal(o.m)
	default:
		return false
	}
}

// Interface converts v into plain Go values: nil, bool, int64, float64,
// string, []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}

		return out
	case KindMap:
		out := make(map[string]any, v.m.Len())
		for _, k := range v.m.keys {
			out[k] = v.m.vals[k].Interface()
		}

		return out
	default:
		return nil
	}
}

// String renders v as compact JSON. It is meant for diagnostics.
func (v Value) String() string {
	buf, err := appendJSON(nil, v)
	if err != nil {
		return fmt.Sprintf("%v", v.Interface())
	}

	return string(buf)
}

// ValueOf converts plain Go values into a Value. It accepts nil, Value, *Map,
// booleans, all integer and float types, strings and arbitrarily nested
// slices and string-keyed maps of those. Keys of Go maps are sorted since
// Go maps carry no order.
func ValueOf(in any) (Value, error) {
	switch t := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Map:
		return MapValue(t), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float64:
		return Float(t), nil
	case []any:
		out := make([]Value, 0, len(t))
		for _, e := range t {
			ev, err := ValueOf(e)
			if err != nil {
				return Value{}, err
			}
			out = append(out, ev)
		}

		return List(out...), nil
	case map[string]any:
		m := NewMap()
		for _, k := range slices.Sorted(maps.Keys(t)) {
			ev, err := ValueOf(t[k])
			if err != nil {
				return Value{}, err
			}
			m.Set(k, ev)
		}

		return MapValue(m), nil
	}

	return valueOfReflect(reflect.ValueOf(in))
}

func valueOfReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Value{}, fmt.Errorf("unsigned value %d overflows int64", u)
		}

		return Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}

		return ValueOf(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return List(), nil
		}
		out := make([]Value, 0, rv.Len())
		for i := range rv.Len() {
			ev, err := ValueOf(rv.Index(i).Interface())
			if err != nil {
				return Value{}, err
			}
			out = append(out, ev)
		}

		return List(out...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		slices.Sort(keys)
		m := NewMap()
		for _, k := range keys {
			ev, err := ValueOf(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return Value{}, err
			}
			m.Set(k, ev)
		}

		return MapValue(m), nil
	case reflect.Invalid:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %s", rv.Type())
	}
}

// Map is a string-keyed mapping that remembers insertion order. Keys are
// unique; overwriting an existing key keeps its original position.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap returns an empty mapping.
func NewMap() *Map {
	return &Map{
		vals: make(map[string]Value, 8),
	}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}

	return slices.Clone(m.keys)
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, found := m.vals[key]

	return v, found
}

// Set stores v under key.
func (m *Map) Set(key string, v Value) {
	if m.vals == nil {
		m.vals = make(map[string]Value, 8)
	}
	if _, found := m.vals[key]; !found {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key string) bool {
	if m == nil {
		return false
	}
	if _, found := m.vals[key]; !found {
		return false
	}
	delete(m.vals, key)
	if idx := slices.Index(m.keys, key); idx >= 0 {
		m.keys = slices.Delete(m.keys, idx, idx+1)
	}

	return true
}

// Clone returns a deep copy of m.
func (m *Map) Clone() *Map {
	out := &Map{
		keys: make([]string, 0, m.Len()),
		vals: make(map[string]Value, m.Len()),
	}
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out.keys = append(out.keys, k)
		out.vals[k] = m.vals[k].Clone()
	}

	return out
}

// Equal reports whether both mappings hold the same keys with equal values.
func (m *Map) Equal(o *Map) bool {
	if m.Len() != o.Len() {
		return false
	}
	if m.Len() == 0 {
		return true
	}
	for k, v := range m.vals {
		ov, found := o.vals[k]
		if !found || !v.Equal(ov) {
			return false
		}
	}

	return true
}
