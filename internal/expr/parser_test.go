package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Precedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"-x * 2", "((-x) * 2)"},
		{"a or b and c", "(a or (b and c))"},
		{"not a == b", "(not (a == b))"},
		{"1 < 2 <= 3", "(1 < 2 <= 3)"},
		{"10 - 4 - 3", "((10 - 4) - 3)"},
		{`concat("a", upper(b))`, `concat("a", upper(b))`},
		{"f()", "f()"},
		{"None", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			node, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, node.String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"dangling operator", "1 +"},
		{"unclosed paren", "(1 + 2"},
		{"double comma", "f(1,,2)"},
		{"trailing tokens", "1 2"},
		{"unterminated string", `"abc`},
		{"assignment", "a = 1"},
		{"attribute access", `"x".upper()`},
		{"indexing", "a[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			var syntaxErr *SyntaxError
			assert.ErrorAs(t, err, &syntaxErr)
		})
	}
}
