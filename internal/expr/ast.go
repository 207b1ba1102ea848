package expr

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdoc/internal/value"
)

// Node is a formula AST node.
type Node interface {
	Pos() int
	String() string
}

// Literal is a constant value: number, string, boolean or null.
type Literal struct {
	Value  value.Value
	Offset int
}

// Ident is a bare name. Formulas have no variables, so evaluating one
// is always an error; it exists to report the name precisely.
type Ident struct {
	Name   string
	Offset int
}

// UnaryExpr is a prefix operator applied to an operand.
type UnaryExpr struct {
	Op      TokenType
	Operand Node
	Offset  int
}

// BinaryExpr is an arithmetic or logical infix operation.
type BinaryExpr struct {
	Op     TokenType
	Left   Node
	Right  Node
	Offset int
}

// CompareExpr is a possibly chained comparison: a < b <= c means
// a < b and b <= c, with each operand evaluated once.
type CompareExpr struct {
	Ops      []TokenType
	Operands []Node // len(Operands) == len(Ops)+1
	Offset   int
}

// CallExpr is a call to a library function.
type CallExpr struct {
	Name   string
	Args   []Node
	Offset int
}

func (n *Literal) Pos() int     { return n.Offset }
func (n *Ident) Pos() int       { return n.Offset }
func (n *UnaryExpr) Pos() int   { return n.Offset }
func (n *BinaryExpr) Pos() int  { return n.Offset }
func (n *CompareExpr) Pos() int { return n.Offset }
func (n *CallExpr) Pos() int    { return n.Offset }

func (n *Literal) String() string { return n.Value.Literal() }
func (n *Ident) String() string   { return n.Name }

func (n *UnaryExpr) String() string {
	if n.Op == TokenNot {
		return "(not " + n.Operand.String() + ")"
	}
	return "(" + n.Op.String() + n.Operand.String() + ")"
}

func (n *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right)
}

func (n *CompareExpr) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(n.Operands[0].String())
	for i, op := range n.Ops {
		sb.WriteString(" ")
		sb.WriteString(op.String())
		sb.WriteString(" ")
		sb.WriteString(n.Operands[i+1].String())
	}
	sb.WriteString(")")
	return sb.String()
}

func (n *CallExpr) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return n.Name + "(" + strings.Join(args, ", ") + ")"
}
