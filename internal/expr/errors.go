package expr

import (
	"errors"
	"fmt"
)

// EvaluationError wraps any failure to evaluate an expression.
type EvaluationError struct {
	Expression string // expression as written, before placeholder substitution
	Cause      error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate %q: %v", e.Expression, e.Cause)
}

func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

// SyntaxError reports malformed formula text. Pos is a byte offset into
// the substituted text.
type SyntaxError struct {
	Pos     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Message)
}

// TypeError reports an operator or function applied to unsupported kinds.
type TypeError struct {
	Message string
}

func (e *TypeError) Error() string {
	return "type error: " + e.Message
}

func newTypeError(format string, args ...any) *TypeError {
	return &TypeError{Message: fmt.Sprintf(format, args...)}
}

// ErrDivisionByZero is returned for division or modulo by zero.
var ErrDivisionByZero = errors.New("division by zero")

// Common error messages
const (
	ErrUnexpectedToken    = "unexpected token %s, expected %s"
	ErrUnterminatedString = "unterminated string literal"
	ErrInvalidNumber      = "invalid number literal"
	ErrUnknownFunction    = "unknown function %q"
	ErrUnknownName        = "unknown name %q"
	ErrArity              = "%s() takes %s argument(s), got %d"
)
