package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/leapdoc/internal/value"
)

func TestExtractPlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"none", "plain text", []string{}},
		{"order and duplicates", "{{b}} {{a}} {{b}}", []string{"b", "a", "b"}},
		{"opaque names", "{{客户 名称}} and {{x-y.z}}", []string{"客户 名称", "x-y.z"}},
		{"empty braces ignored", "{{}} {{ok}}", []string{"ok"}},
		{"triple braces", "{{{a}}}", []string{"{a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractPlaceholders(tt.input))
		})
	}
}

func TestSubstitute(t *testing.T) {
	row := value.FromMap(map[string]any{
		"n": 2,
		"s": `a"b`,
		"z": nil,
	})

	assert.Equal(t, `2 + "a\"b" + null + null`, Substitute("{{n}} + {{s}} + {{z}} + {{missing}}", row))
}

func TestReplaceFunc_DoesNotRescan(t *testing.T) {
	got := ReplaceFunc("{{a}}-{{b}}", func(name string) string {
		if name == "a" {
			return "{{b}}"
		}
		return "B"
	})
	assert.Equal(t, "{{b}}-B", got)
}

func TestReplaceSequential(t *testing.T) {
	values := map[string]string{"a": "{{b}}", "b": "x", "n": "1"}
	fn := func(name string) string { return values[name] }

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"value holding a later token is consumed by it", "{{a}}{{b}}", "x{{b}}"},
		{"value holding an earlier token survives", "{{b}}{{a}}", "x{{b}}"},
		{"repeated tokens each replaced once", "{{n}}+{{n}}", "1+1"},
		{"no tokens", "plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReplaceSequential(tt.input, fn))
		})
	}
}

func TestSinglePlaceholder(t *testing.T) {
	name, ok := singlePlaceholder("  {{col}}\n")
	assert.True(t, ok)
	assert.Equal(t, "col", name)

	_, ok = singlePlaceholder("{{a}}{{b}}")
	assert.False(t, ok)

	_, ok = singlePlaceholder("x{{a}}")
	assert.False(t, ok)
}

func TestPlaceholderToken(t *testing.T) {
	assert.Equal(t, "{{price}}", PlaceholderToken("price"))
	assert.Equal(t, []string{"名前"}, ExtractPlaceholders(PlaceholderToken("名前")))

	// the token type shares the package namespace
	tok := NewLexer("1").NextToken()
	assert.Equal(t, TokenNumber, tok.Type)
}
