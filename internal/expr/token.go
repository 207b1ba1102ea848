package expr

// TokenType identifies the type of a formula token.
type TokenType int

// TokenType constants.
const (
	TokenIllegal TokenType = iota
	TokenEOF

	TokenNumber
	TokenString
	TokenIdent

	// Keywords
	TokenTrue
	TokenFalse
	TokenNull
	TokenAnd
	TokenOr
	TokenNot

	// Operators
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenEq
	TokenNe
	TokenLt
	TokenGt
	TokenLe
	TokenGe

	// Delimiters
	TokenLParen
	TokenRParen
	TokenComma
)

var tokenNames = map[TokenType]string{
	TokenIllegal: "ILLEGAL",
	TokenEOF:     "EOF",
	TokenNumber:  "NUMBER",
	TokenString:  "STRING",
	TokenIdent:   "IDENT",
	TokenTrue:    "true",
	TokenFalse:   "false",
	TokenNull:    "null",
	TokenAnd:     "and",
	TokenOr:      "or",
	TokenNot:     "not",
	TokenPlus:    "+",
	TokenMinus:   "-",
	TokenStar:    "*",
	TokenSlash:   "/",
	TokenPercent: "%",
	TokenEq:      "==",
	TokenNe:      "!=",
	TokenLt:      "<",
	TokenGt:      ">",
	TokenLe:      "<=",
	TokenGe:      ">=",
	TokenLParen:  "(",
	TokenRParen:  ")",
	TokenComma:   ",",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Token is a lexical token. Pos is the byte offset of its first character.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

// keywords maps reserved words to their token types. The capitalized
// spellings are accepted as aliases.
var keywords = map[string]TokenType{
	"true":  TokenTrue,
	"True":  TokenTrue,
	"false": TokenFalse,
	"False": TokenFalse,
	"null":  TokenNull,
	"None":  TokenNull,
	"and":   TokenAnd,
	"or":    TokenOr,
	"not":   TokenNot,
}

func lookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdent
}
