package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexer_Tokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "function call with mixed quotes",
			input: `concat("a\"b", 'c')`,
			expected: []Token{
				{Type: TokenIdent, Literal: "concat", Pos: 0},
				{Type: TokenLParen, Literal: "(", Pos: 6},
				{Type: TokenString, Literal: `a"b`, Pos: 7},
				{Type: TokenComma, Literal: ",", Pos: 13},
				{Type: TokenString, Literal: "c", Pos: 15},
				{Type: TokenRParen, Literal: ")", Pos: 18},
				{Type: TokenEOF, Pos: 19},
			},
		},
		{
			name:  "comparison operators",
			input: "1 <= 2 != 3",
			expected: []Token{
				{Type: TokenNumber, Literal: "1", Pos: 0},
				{Type: TokenLe, Literal: "<=", Pos: 2},
				{Type: TokenNumber, Literal: "2", Pos: 5},
				{Type: TokenNe, Literal: "!=", Pos: 7},
				{Type: TokenNumber, Literal: "3", Pos: 10},
				{Type: TokenEOF, Pos: 11},
			},
		},
		{
			name:  "keywords and aliases",
			input: "not None and True",
			expected: []Token{
				{Type: TokenNot, Literal: "not", Pos: 0},
				{Type: TokenNull, Literal: "None", Pos: 4},
				{Type: TokenAnd, Literal: "and", Pos: 9},
				{Type: TokenTrue, Literal: "True", Pos: 13},
				{Type: TokenEOF, Pos: 17},
			},
		},
		{
			name:  "numbers",
			input: "1.5e3 .25 7",
			expected: []Token{
				{Type: TokenNumber, Literal: "1.5e3", Pos: 0},
				{Type: TokenNumber, Literal: ".25", Pos: 6},
				{Type: TokenNumber, Literal: "7", Pos: 10},
				{Type: TokenEOF, Pos: 11},
			},
		},
		{
			name:  "escapes",
			input: `"tab\there\\"`,
			expected: []Token{
				{Type: TokenString, Literal: "tab\there\\", Pos: 0},
				{Type: TokenEOF, Pos: 13},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLexer(tt.input)
			var got []Token
			for {
				tok := l.NextToken()
				got = append(got, tok)
				if tok.Type == TokenEOF || tok.Type == TokenIllegal {
					break
				}
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLexer_Illegal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"unterminated string", `"abc`, ErrUnterminatedString},
		{"single equals", "a = 1", "assignment is not allowed, use =="},
		{"attribute access", "x.upper", "unexpected character '.'"},
		{"malformed number", "12abc", ErrInvalidNumber},
		{"bang", "!x", "unexpected character '!'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLexer(tt.input)
			for {
				tok := l.NextToken()
				if tok.Type == TokenIllegal {
					assert.Equal(t, tt.msg, tok.Literal)
					return
				}
				if tok.Type == TokenEOF {
					t.Fatalf("expected an illegal token in %q", tt.input)
				}
			}
		})
	}
}
