package configlib

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueOf(t *testing.T) {
	t.Parallel()

	type named string

	for _, tc := range []struct {
		name string
		in   any
		want Value
	}{
		{name: "nil", in: nil, want: Null()},
		{name: "bool", in: true, want: Bool(true)},
		{name: "int", in: 42, want: Int(42)},
		{name: "int8", in: int8(-3), want: Int(-3)},
		{name: "uint16", in: uint16(7), want: Int(7)},
		{name: "float32", in: float32(0.5), want: Float(0.5)},
		{name: "string", in: "foo", want: String("foo")},
		{name: "named string", in: named("bar"), want: String("bar")},
		{name: "string slice", in: []string{"a", "b"}, want: List(String("a"), String("b"))},
		{name: "nil slice", in: []int(nil), want: List()},
		{name: "nested", in: map[string]any{
			"b": []any{1, "x"},
			"a": map[string]string{"c": "d"},
		}, want: func() Value {
			inner := NewMap()
			inner.Set("c", String("d"))
			m := NewMap()
			m.Set("a", MapValue(inner))
			m.Set("b", List(Int(1), String("x")))

			return MapValue(m)
		}()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ValueOf(tc.in)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}
}

func TestValueOfErrors(t *testing.T) {
	t.Parallel()

	_, err := ValueOf(uint64(math.MaxUint64))
	require.Error(t, err)

	_, err = ValueOf(map[int]string{1: "a"})
	require.Error(t, err)

	_, err = ValueOf(make(chan int))
	require.Error(t, err)
}

func TestValueOfSortsGoMaps(t *testing.T) {
	t.Parallel()

	v, err := ValueOf(map[string]any{"z": 1, "a": 2, "m": 3})
	require.NoError(t, err)

	m, ok := v.AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "m", "z"}, m.Keys())
}

func TestValueAccessors(t *testing.T) {
	t.Parallel()

	i, ok := Int(3).AsInt()
	assert.True(t, ok)
	assert.Equal(t, int64(3), i)

	f, ok := Int(3).AsFloat()
	assert.True(t, ok)
	assert.InDelta(t, 3.0, f, 0.0001)

	_, ok = String("3").AsInt()
	assert.False(t, ok)

	_, ok = Float(1.5).AsInt()
	assert.False(t, ok)

	var zero Value
	assert.True(t, zero.IsNull())
	assert.Equal(t, KindNull, zero.Kind())
	assert.Equal(t, "map", KindMap.String())
}

func TestValueEqual(t *testing.T) {
	t.Parallel()

	a := NewMap()
	a.Set("x", Int(1))
	a.Set("y", List(String("a")))
	b := NewMap()
	b.Set("y", List(String("a")))
	b.Set("x", Int(1))

	assert.True(t, MapValue(a).Equal(MapValue(b)), "key order must not matter")
	assert.False(t, Int(1).Equal(Float(1)), "kinds must match")
	assert.False(t, List(Int(1), Int(2)).Equal(List(Int(2), Int(1))), "list order matters")
	assert.True(t, Float(math.NaN()).Equal(Float(math.NaN())))
	assert.True(t, MapValue(nil).Equal(MapValue(NewMap())))
}

func TestValueCloneIsDeep(t *testing.T) {
	t.Parallel()

	inner := NewMap()
	inner.Set("k", String("v"))
	orig := MapValue(inner)

	cp := orig.Clone()
	cm, _ := cp.AsMap()
	cm.Set("k", String("changed"))
	cm.Set("new", Bool(true))

	v, _ := inner.Get("k")
	assert.Equal(t, String("v"), v)
	assert.Equal(t, 1, inner.Len())
}

func TestValueInterface(t *testing.T) {
	t.Parallel()

	m := NewMap()
	m.Set("list", List(Int(1), Float(2.5), Null()))
	m.Set("flag", Bool(false))

	assert.Equal(t, map[string]any{
		"list": []any{int64(1), 2.5, nil},
		"flag": false,
	}, MapValue(m).Interface())
}

func TestValueString(t *testing.T) {
	t.Parallel()

	m := NewMap()
	m.Set("b", String("x/y"))
	m.Set("a", List(Int(1), Float(2)))

	assert.Equal(t, `{"b":"x/y","a":[1,2.0]}`, MapValue(m).String())
}

func TestMapOrderAndDelete(t *testing.T) {
	t.Parallel()

	m := NewMap()
	m.Set("c", Int(1))
	m.Set("a", Int(2))
	m.Set("b", Int(3))
	m.Set("a", Int(4))

	assert.Equal(t, []string{"c", "a", "b"}, m.Keys())

	assert.True(t, m.Delete("a"))
	assert.False(t, m.Delete("a"))
	assert.Equal(t, []string{"c", "b"}, m.Keys())

	var nilMap *Map
	assert.Equal(t, 0, nilMap.Len())
	_, found := nilMap.Get("x")
	assert.False(t, found)
}

func TestMapMerge(t *testing.T) {
	t.Parallel()

	dst := NewMap()
	da := NewMap()
	da.Set("x", Int(1))
	da.Set("y", Int(2))
	dst.Set("a", MapValue(da))
	dst.Set("s", String("keep"))
	dst.Set("r", MapValue(NewMap()))

	src := NewMap()
	sa := NewMap()
	sa.Set("y", Int(3))
	sa.Set("z", Int(4))
	src.Set("a", MapValue(sa))
	src.Set("r", String("replaced"))
	src.Set("n", List(Int(1)))

	dst.Merge(src)

	want := NewMap()
	wa := NewMap()
	wa.Set("x", Int(1))
	wa.Set("y", Int(3))
	wa.Set("z", Int(4))
	want.Set("a", MapValue(wa))
	want.Set("s", String("keep"))
	want.Set("r", String("replaced"))
	want.Set("n", List(Int(1)))

	assert.True(t, MapValue(want).Equal(MapValue(dst)), "got %s", MapValue(dst))
	assert.Equal(t, []string{"a", "s", "r", "n"}, dst.Keys())

	// the merged values must not alias src
	sa.Set("y", Int(99))
	got, _ := dst.Get("a")
	gm, _ := got.AsMap()
	y, _ := gm.Get("y")
	assert.Equal(t, Int(3), y)
}

func TestParseScalar(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Value{
		"true":    Bool(true),
		"false":   Bool(false),
		"42":      Int(42),
		"-7":      Int(-7),
		"1.5":     Float(1.5),
		"null":    Null(),
		"~":       Null(),
		"":        String(""),
		"hello":   String("hello"),
		"a: b":    String("a: b"),
		"[1, 2]":  String("[1, 2]"),
		"foo/bar": String("foo/bar"),
	} {
		got := ParseScalar(in)
		assert.True(t, want.Equal(got), "%q: want %s, got %s", in, want, got)
	}
}
