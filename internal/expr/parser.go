package expr

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/leapdoc/internal/value"
)

// Parser is a recursive-descent parser for formula text.
//
// Precedence, lowest first:
//
//	or
//	and
//	not
//	== != < > <= >=   (chainable)
//	+ -
//	* / %
//	unary + -
type Parser struct {
	lexer *Lexer
	token Token // current token
	peek  Token // lookahead token
	err   *SyntaxError
}

// NewParser creates a parser over input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	p.peek = p.lexer.NextToken()
	p.nextToken()
	return p
}

// Parse parses input as a single formula.
func Parse(input string) (Node, error) {
	return NewParser(input).Parse()
}

// Parse parses the whole input. The first syntax error stops parsing.
func (p *Parser) Parse() (Node, error) {
	node := p.parseOr()
	if p.err == nil && !p.check(TokenEOF) {
		p.addError(fmt.Sprintf("unexpected %s after end of expression", describe(p.token)))
	}
	if p.err != nil {
		return nil, p.err
	}
	return node, nil
}

func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
	if p.token.Type == TokenIllegal {
		p.addError(p.token.Literal)
	}
}

func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

func (p *Parser) expect(t TokenType) bool {
	if p.match(t) {
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), t))
	return false
}

// addError records the first error only; later errors are usually
// consequences of it.
func (p *Parser) addError(msg string) {
	if p.err != nil {
		return
	}
	p.err = &SyntaxError{Pos: p.token.Pos, Message: msg}
}

func (p *Parser) failed() bool {
	return p.err != nil
}

func (p *Parser) parseOr() Node {
	left := p.parseAnd()
	for !p.failed() && p.check(TokenOr) {
		pos := p.token.Pos
		p.nextToken()
		right := p.parseAnd()
		left = &BinaryExpr{Op: TokenOr, Left: left, Right: right, Offset: pos}
	}
	return left
}

func (p *Parser) parseAnd() Node {
	left := p.parseNot()
	for !p.failed() && p.check(TokenAnd) {
		pos := p.token.Pos
		p.nextToken()
		right := p.parseNot()
		left = &BinaryExpr{Op: TokenAnd, Left: left, Right: right, Offset: pos}
	}
	return left
}

func (p *Parser) parseNot() Node {
	if p.check(TokenNot) {
		pos := p.token.Pos
		p.nextToken()
		return &UnaryExpr{Op: TokenNot, Operand: p.parseNot(), Offset: pos}
	}
	return p.parseComparison()
}

func isComparison(t TokenType) bool {
	switch t {
	case TokenEq, TokenNe, TokenLt, TokenGt, TokenLe, TokenGe:
		return true
	}
	return false
}

func (p *Parser) parseComparison() Node {
	first := p.parseAdditive()
	if p.failed() || !isComparison(p.token.Type) {
		return first
	}

	cmp := &CompareExpr{Operands: []Node{first}, Offset: p.token.Pos}
	for !p.failed() && isComparison(p.token.Type) {
		cmp.Ops = append(cmp.Ops, p.token.Type)
		p.nextToken()
		cmp.Operands = append(cmp.Operands, p.parseAdditive())
	}
	return cmp
}

func (p *Parser) parseAdditive() Node {
	left := p.parseTerm()
	for !p.failed() && (p.check(TokenPlus) || p.check(TokenMinus)) {
		op, pos := p.token.Type, p.token.Pos
		p.nextToken()
		right := p.parseTerm()
		left = &BinaryExpr{Op: op, Left: left, Right: right, Offset: pos}
	}
	return left
}

func (p *Parser) parseTerm() Node {
	left := p.parseUnary()
	for !p.failed() && (p.check(TokenStar) || p.check(TokenSlash) || p.check(TokenPercent)) {
		op, pos := p.token.Type, p.token.Pos
		p.nextToken()
		right := p.parseUnary()
		left = &BinaryExpr{Op: op, Left: left, Right: right, Offset: pos}
	}
	return left
}

func (p *Parser) parseUnary() Node {
	if p.check(TokenMinus) || p.check(TokenPlus) {
		op, pos := p.token.Type, p.token.Pos
		p.nextToken()
		return &UnaryExpr{Op: op, Operand: p.parseUnary(), Offset: pos}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() Node {
	tok := p.token

	switch tok.Type {
	case TokenNumber:
		p.nextToken()
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.addError(ErrInvalidNumber)
			return nil
		}
		return &Literal{Value: value.Number(f), Offset: tok.Pos}
	case TokenString:
		p.nextToken()
		return &Literal{Value: value.String(tok.Literal), Offset: tok.Pos}
	case TokenTrue:
		p.nextToken()
		return &Literal{Value: value.Bool(true), Offset: tok.Pos}
	case TokenFalse:
		p.nextToken()
		return &Literal{Value: value.Bool(false), Offset: tok.Pos}
	case TokenNull:
		p.nextToken()
		return &Literal{Value: value.Null(), Offset: tok.Pos}
	case TokenIdent:
		p.nextToken()
		if p.check(TokenLParen) {
			return p.parseCall(tok)
		}
		return &Ident{Name: tok.Literal, Offset: tok.Pos}
	case TokenLParen:
		p.nextToken()
		inner := p.parseOr()
		p.expect(TokenRParen)
		return inner
	case TokenIllegal:
		// already recorded by nextToken
		return nil
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(tok), "expression"))
		return nil
	}
}

// parseCall parses an argument list; the current token is the "(".
func (p *Parser) parseCall(name Token) Node {
	call := &CallExpr{Name: name.Literal, Offset: name.Pos}
	p.nextToken()

	if p.match(TokenRParen) {
		return call
	}
	for !p.failed() {
		call.Args = append(call.Args, p.parseOr())
		if p.match(TokenComma) {
			continue
		}
		p.expect(TokenRParen)
		break
	}
	return call
}

func describe(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of expression"
	case TokenNumber, TokenIdent:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	case TokenString:
		return "string literal"
	default:
		return fmt.Sprintf("%q", tok.Type.String())
	}
}
