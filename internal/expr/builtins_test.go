package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdoc/internal/value"
)

func TestBuiltins(t *testing.T) {
	ev := New()
	row := value.FromMap(map[string]any{
		"first":  "Ann",
		"last":   "Lee",
		"amount": 1234.5,
		"none":   nil,
		"word":   "héllo",
	})

	tests := []struct {
		name     string
		expr     string
		expected value.Value
	}{
		// String functions
		{"concat skips null", `concat("a", None, "b")`, value.String("ab")},
		{"concat mixed kinds", `concat({{first}}, " ", 3, " ", true)`, value.String("Ann 3 true")},
		{"upper", "upper({{first}})", value.String("ANN")},
		{"lower", "lower({{last}})", value.String("lee")},
		{"strip", `strip("  pad  ")`, value.String("pad")},
		{"left", `left("abcdef", 2)`, value.String("ab")},
		{"left clamps", `left("abc", 10)`, value.String("abc")},
		{"left negative", `left("abc", -1)`, value.String("")},
		{"right", `right("abcdef", 2)`, value.String("ef")},
		{"right clamps", `right("abc", 10)`, value.String("abc")},
		{"right zero", `right("abc", 0)`, value.String("")},
		{"mid", `mid("abcdef", 1, 3)`, value.String("bcd")},
		{"mid clamps", `mid("abc", 2, 10)`, value.String("c")},
		{"mid past end", `mid("abc", 5, 1)`, value.String("")},
		{"left counts runes", "left({{word}}, 2)", value.String("hé")},
		{"len counts runes", "len({{word}})", value.Number(5)},
		{"len of number", "len(12345)", value.Number(5)},
		{"replace", `replace("a-b-c", "-", "+")`, value.String("a+b+c")},

		// Math functions
		{"sum", `sum(1, "2", "1,000")`, value.Number(1003)},
		{"sum of nothing", "sum()", value.Number(0)},
		{"avg", "avg(1, 2, 3, 4)", value.Number(2.5)},
		{"avg of nothing", "avg()", value.Number(0)},
		{"avg coerces garbage", `avg("abc", 4)`, value.Number(2)},
		{"min", `min(3, "1", 2)`, value.Number(1)},
		{"max", `max(3, None, 7)`, value.Number(7)},
		{"round half to even down", "round(2.5)", value.Number(2)},
		{"round half to even up", "round(3.5)", value.Number(4)},
		{"round places", "round(3.14159, 2)", value.Number(3.14)},
		{"round negative places", "round(1250, -2)", value.Number(1200)},
		{"abs", "abs(-4)", value.Number(4)},
		{"int truncates", "int(-3.9)", value.Number(-3)},
		{"int of text", `int("42.7")`, value.Number(42)},
		{"float", `float("1,5")`, value.Number(15)},

		// Conditional
		{"if true", `if(1, "y", "n")`, value.String("y")},
		{"if empty string is false", `if("", "y", "n")`, value.String("n")},
		{"if null is false", `if({{none}}, "y", "n")`, value.String("n")},
		{"ifempty empty", `ifempty("", "x")`, value.String("x")},
		{"ifempty blank", `ifempty("  ", "x")`, value.String("x")},
		{"ifempty value", `ifempty("y", "x")`, value.String("y")},
		{"ifempty null", `ifempty({{none}}, "x")`, value.String("x")},
		{"ifempty keeps kind", `ifempty(0, "x")`, value.Number(0)},

		// Format functions
		{"number_format grouped", "number_format(1234.5, 1, true)", value.String("1,234.5")},
		{"number_format ungrouped", "number_format(1234.5, 1, false)", value.String("1234.5")},
		{"number_format defaults", "number_format({{amount}})", value.String("1,234.50")},
		{"number_format zero decimals", "number_format(1234567, 0)", value.String("1,234,567")},
		{"number_format negative", "number_format(-9876.5, 2)", value.String("-9,876.50")},
		{"number_format text", `number_format("abc")`, value.String("0.00")},
		{"format auto", `format("{} {}", {{first}}, {{last}})`, value.String("Ann Lee")},
		{"format numbered", `format("{0}-{1}-{0}", "a", "b")`, value.String("a-b-a")},
		{"format spec", `format("Total: {:,.2f}", {{amount}})`, value.String("Total: 1,234.50")},
		{"format zero pad", `format("{:03d}", 7)`, value.String("007")},
		{"format percent", `format("{:.1%}", 0.256)`, value.String("25.6%")},
		{"format escaped braces", `format("{{}} {}", 1)`, value.String("{} 1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ev.Evaluate(tt.expr, row)
			require.NoError(t, err)
			if tt.expected.Kind() == value.KindNumber {
				require.Equal(t, value.KindNumber, got.Kind())
				assert.InDelta(t, tt.expected.Num(), got.Num(), 1e-9)
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBuiltins_Errors(t *testing.T) {
	ev := New()

	tests := []struct {
		name string
		expr string
	}{
		{"format needs a string", "format(1)"},
		{"format index out of range", `format("{1}", "a")`},
		{"format mixed numbering", `format("{} {0}", "a")`},
		{"format unbalanced", `format("{", 1)`},
		{"format bad spec", `format("{:q}", 1)`},
		{"number_format negative decimals", "number_format(1, -1)"},
		{"too many arguments", `upper("a", "b")`},
		{"if needs three", "if(1, 2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ev.Evaluate(tt.expr, value.Row{})
			assert.Error(t, err)
		})
	}
}
