package encoding

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stackchart/pkg/errors"
)

func TestAccessors(t *testing.T) {
	r := Record{"day": "Mon", "visits": 1200.0, "bounce": 0.25}

	tests := []struct {
		name string
		acc  Accessor
		want any
	}{
		{"field", Field("day"), "Mon"},
		{"missing field", Field("nope"), nil},
		{"const", Const(7), 7},
		{"func", Func(func(r Record) any { return r["visits"] }), 1200.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.acc.Value(r))
		})
	}
}

func TestCompile(t *testing.T) {
	e, err := Compile("visits * bounce")
	require.NoError(t, err)
	assert.Equal(t, 300.0, e.Value(Record{"visits": 1200.0, "bounce": 0.25}))
	assert.Equal(t, "visits * bounce", e.String())

	// Missing variables evaluate to nil; arithmetic on nil fails and
	// yields no value rather than an error.
	assert.Nil(t, e.Value(Record{"visits": 1.0}))
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile("   ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidAccessor))

	_, err = Compile("visits *")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidAccessor))
}

func TestParse(t *testing.T) {
	acc, err := Parse("day")
	require.NoError(t, err)
	name, ok := FieldName(acc)
	assert.True(t, ok)
	assert.Equal(t, "day", name)

	acc, err = Parse("=a + b")
	require.NoError(t, err)
	_, ok = FieldName(acc)
	assert.False(t, ok)
	assert.Equal(t, 3, acc.Value(Record{"a": 1, "b": 2}))

	_, err = Parse("")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "day", Describe(Field("day")))
	assert.Equal(t, "const(3)", Describe(Const(3)))
	assert.Equal(t, "<nil>", Describe(nil))
	assert.Equal(t, "encoding.Func", Describe(Func(func(Record) any { return nil })))
}

func TestValues(t *testing.T) {
	data := []Record{{"a": 1}, {"b": 2}, {"a": nil}, {"a": 3}}
	assert.Equal(t, []any{1, 3}, Values(data, Field("a")))
}

func TestFloat(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{1.5, 1.5, true},
		{float32(2), 2, true},
		{int64(-4), -4, true},
		{uint8(9), 9, true},
		{json.Number("12.5"), 12.5, true},
		{" 3 ", 3, true},
		{true, 1, true},
		{"abc", 0, false},
		{nil, 0, false},
		{[]int{1}, 0, false},
	}

	for _, tt := range tests {
		got, ok := Float(tt.in)
		assert.Equal(t, tt.wantOK, ok, "Float(%#v) ok", tt.in)
		assert.Equal(t, tt.want, got, "Float(%#v)", tt.in)
	}
}

func TestTime(t *testing.T) {
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, in := range []any{want, "2024-03-01", "2024-03-01T00:00:00Z", want.Unix()} {
		got, ok := Time(in)
		require.True(t, ok, "Time(%#v)", in)
		assert.True(t, want.Equal(got), "Time(%#v) = %v", in, got)
	}

	_, ok := Time("yesterday")
	assert.False(t, ok)
}

func TestKeyAndLabel(t *testing.T) {
	assert.Equal(t, Key(1), Key(1.0))
	assert.Equal(t, Key(int64(1)), Key(uint8(1)))
	assert.NotEqual(t, Key("1"), Key(1))

	t1 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.In(time.FixedZone("X", 3600))
	assert.Equal(t, Key(t1), Key(t2))

	assert.Equal(t, "Mon", Label("Mon"))
	assert.Equal(t, "2.5", Label(2.5))
	assert.Equal(t, "7", Label(7))
	assert.Equal(t, "", Label(nil))
}
