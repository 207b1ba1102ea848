package expr

import "strings"

// Lexer tokenizes formula text.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// NextToken returns the next token. Lexical errors are reported as
// TokenIllegal with the error message as the literal.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	pos := l.pos
	if l.atEOF() {
		return Token{Type: TokenEOF, Pos: pos}
	}

	var tok Token
	switch l.ch {
	case '+':
		tok = l.newToken(TokenPlus, "+")
	case '-':
		tok = l.newToken(TokenMinus, "-")
	case '*':
		tok = l.newToken(TokenStar, "*")
	case '/':
		tok = l.newToken(TokenSlash, "/")
	case '%':
		tok = l.newToken(TokenPercent, "%")
	case '(':
		tok = l.newToken(TokenLParen, "(")
	case ')':
		tok = l.newToken(TokenRParen, ")")
	case ',':
		tok = l.newToken(TokenComma, ",")
	case '=':
		if l.peekChar() != '=' {
			l.readChar()
			return Token{Type: TokenIllegal, Literal: "assignment is not allowed, use ==", Pos: pos}
		}
		l.readChar()
		tok = Token{Type: TokenEq, Literal: "==", Pos: pos}
	case '!':
		if l.peekChar() != '=' {
			l.readChar()
			return Token{Type: TokenIllegal, Literal: "unexpected character '!'", Pos: pos}
		}
		l.readChar()
		tok = Token{Type: TokenNe, Literal: "!=", Pos: pos}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenLe, Literal: "<=", Pos: pos}
		} else {
			tok = l.newToken(TokenLt, "<")
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenGe, Literal: ">=", Pos: pos}
		} else {
			tok = l.newToken(TokenGt, ">")
		}
	case '"', '\'':
		return l.readString(pos)
	default:
		if isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())) {
			return l.readNumber(pos)
		}
		if isIdentStart(l.ch) {
			ident := l.readIdentifier()
			return Token{Type: lookupIdent(ident), Literal: ident, Pos: pos}
		}
		ch := l.ch
		l.readChar()
		return Token{Type: TokenIllegal, Literal: "unexpected character " + quoteChar(ch), Pos: pos}
	}

	l.readChar()
	return tok
}

func (l *Lexer) newToken(t TokenType, lit string) Token {
	return Token{Type: t, Literal: lit, Pos: l.pos}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isIdentStart(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readNumber(pos int) Token {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			if !isDigit(l.ch) {
				return Token{Type: TokenIllegal, Literal: ErrInvalidNumber, Pos: pos}
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	if isIdentStart(l.ch) {
		return Token{Type: TokenIllegal, Literal: ErrInvalidNumber, Pos: pos}
	}
	return Token{Type: TokenNumber, Literal: l.input[start:l.pos], Pos: pos}
}

// readString reads a quoted string and resolves backslash escapes.
func (l *Lexer) readString(pos int) Token {
	quote := l.ch
	l.readChar()

	var sb strings.Builder
	for {
		if l.atEOF() {
			return Token{Type: TokenIllegal, Literal: ErrUnterminatedString, Pos: pos}
		}
		if l.ch == quote {
			l.readChar()
			return Token{Type: TokenString, Literal: sb.String(), Pos: pos}
		}
		if l.ch == '\\' {
			l.readChar()
			if l.atEOF() {
				return Token{Type: TokenIllegal, Literal: ErrUnterminatedString, Pos: pos}
			}
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '"', '\'':
				sb.WriteByte(l.ch)
			default:
				// unknown escapes are kept verbatim
				sb.WriteByte('\\')
				sb.WriteByte(l.ch)
			}
			l.readChar()
			continue
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// isIdentStart accepts ASCII letters, underscore and any non-ASCII byte so
// that names in other scripts lex as a single identifier.
func isIdentStart(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_' || ch >= 0x80
}

func quoteChar(ch byte) string {
	return "'" + string(rune(ch)) + "'"
}
