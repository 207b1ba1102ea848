package value

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), ""},
		{"integral number", Number(30), "30"},
		{"fraction", Number(2.5), "2.5"},
		{"negative zero", Number(math.Copysign(0, -1)), "0"},
		{"large number", Number(1234567), "1234567"},
		{"string", String("héllo"), "héllo"},
		{"true", Bool(true), "true"},
		{"false", Bool(false), "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestValue_Literal(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), "null"},
		{"number", Number(-1.5), "-1.5"},
		{"nan", Number(math.NaN()), "null"},
		{"plain string", String("abc"), `"abc"`},
		{"quotes and backslashes", String(`say "hi" \o/`), `"say \"hi\" \\o/"`},
		{"newline", String("a\nb"), `"a\nb"`},
		{"bool", Bool(true), "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Literal())
		})
	}
}

func TestValue_ToNumber(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want float64
	}{
		{"null", Null(), 0},
		{"number", Number(4.5), 4.5},
		{"thousands separators", String("1,000"), 1000},
		{"padded", String("  12.5 "), 12.5},
		{"unparsable", String("abc"), 0},
		{"empty", String(""), 0},
		{"true", Bool(true), 1},
		{"false", Bool(false), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.v.ToNumber(), 1e-9)
		})
	}
}

func TestValue_Truthy(t *testing.T) {
	assert.False(t, Null().Truthy())
	assert.False(t, Number(0).Truthy())
	assert.False(t, String("").Truthy())
	assert.False(t, Bool(false).Truthy())
	assert.True(t, Number(-1).Truthy())
	assert.True(t, String("0").Truthy())
	assert.True(t, Bool(true).Truthy())
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Null(), Null()))
	assert.False(t, Equal(Null(), Number(0)))
	assert.True(t, Equal(Number(1), Bool(true)))
	assert.True(t, Equal(String("a"), String("a")))
	assert.False(t, Equal(String("1"), Number(1)))
}

func TestFromGo(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null()},
		{"int64", int64(7), Number(7)},
		{"float32", float32(0.5), Number(0.5)},
		{"bytes", []byte("raw"), String("raw")},
		{"bool", true, Bool(true)},
		{"time", ts, String("2024-03-09 14:05:00")},
		{"value passthrough", String("x"), String("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromGo(tt.in))
		})
	}
}

func TestRow(t *testing.T) {
	row := NewRow(2)
	row.Set("name", String("Ann"))
	row.Set("qty", Number(3))
	row.Set("name", String("Bob"))

	assert.Equal(t, []string{"name", "qty"}, row.Columns(), "replacing keeps column order")
	assert.Equal(t, String("Bob"), row.Value("name"))
	assert.True(t, row.Value("missing").IsNull())

	augmented := row.With("_index", Number(1))
	assert.Equal(t, 3, augmented.Len())
	assert.Equal(t, 2, row.Len(), "With must not modify the receiver")

	assert.Equal(t, map[string]any{"name": "Bob", "qty": 3.0}, row.Map())
}

func TestFromMap_SortsColumns(t *testing.T) {
	row := FromMap(map[string]any{"b": 1, "a": "x"})
	assert.Equal(t, []string{"a", "b"}, row.Columns())
}
