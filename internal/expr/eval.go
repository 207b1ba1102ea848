package expr

import (
	"fmt"
	"math"

	"github.com/leapstack-labs/leapdoc/internal/value"
)

// interpreter walks a parsed formula. It holds only the read-only
// function table, so one instance may be shared across goroutines.
type interpreter struct {
	funcs map[string]builtin
}

func (in *interpreter) eval(n Node) (value.Value, error) {
	switch n := n.(type) {
	case *Literal:
		return n.Value, nil
	case *Ident:
		return value.Null(), fmt.Errorf(ErrUnknownName, n.Name)
	case *UnaryExpr:
		return in.evalUnary(n)
	case *BinaryExpr:
		return in.evalBinary(n)
	case *CompareExpr:
		return in.evalCompare(n)
	case *CallExpr:
		return in.evalCall(n)
	default:
		return value.Null(), fmt.Errorf("unsupported node %T", n)
	}
}

func (in *interpreter) evalUnary(n *UnaryExpr) (value.Value, error) {
	v, err := in.eval(n.Operand)
	if err != nil {
		return value.Null(), err
	}

	switch n.Op {
	case TokenNot:
		return value.Bool(!v.Truthy()), nil
	case TokenMinus:
		if !isNumeric(v) {
			return value.Null(), newTypeError("bad operand type for unary -: %s", v.Kind())
		}
		return value.Number(-v.ToNumber()), nil
	case TokenPlus:
		if !isNumeric(v) {
			return value.Null(), newTypeError("bad operand type for unary +: %s", v.Kind())
		}
		return value.Number(v.ToNumber()), nil
	default:
		return value.Null(), fmt.Errorf("unsupported unary operator %s", n.Op)
	}
}

func (in *interpreter) evalBinary(n *BinaryExpr) (value.Value, error) {
	left, err := in.eval(n.Left)
	if err != nil {
		return value.Null(), err
	}

	// and/or short-circuit and yield an operand, not a bool
	switch n.Op {
	case TokenAnd:
		if !left.Truthy() {
			return left, nil
		}
		return in.eval(n.Right)
	case TokenOr:
		if left.Truthy() {
			return left, nil
		}
		return in.eval(n.Right)
	}

	right, err := in.eval(n.Right)
	if err != nil {
		return value.Null(), err
	}

	if n.Op == TokenPlus && left.Kind() == value.KindString && right.Kind() == value.KindString {
		return value.String(left.Str() + right.Str()), nil
	}
	if !isNumeric(left) || !isNumeric(right) {
		return value.Null(), newTypeError("unsupported operand types for %s: %s and %s", n.Op, left.Kind(), right.Kind())
	}

	a, b := left.ToNumber(), right.ToNumber()
	switch n.Op {
	case TokenPlus:
		return value.Number(a + b), nil
	case TokenMinus:
		return value.Number(a - b), nil
	case TokenStar:
		return value.Number(a * b), nil
	case TokenSlash:
		if b == 0 {
			return value.Null(), ErrDivisionByZero
		}
		return value.Number(a / b), nil
	case TokenPercent:
		if b == 0 {
			return value.Null(), ErrDivisionByZero
		}
		return value.Number(floorMod(a, b)), nil
	default:
		return value.Null(), fmt.Errorf("unsupported binary operator %s", n.Op)
	}
}

func (in *interpreter) evalCompare(n *CompareExpr) (value.Value, error) {
	left, err := in.eval(n.Operands[0])
	if err != nil {
		return value.Null(), err
	}

	for i, op := range n.Ops {
		right, err := in.eval(n.Operands[i+1])
		if err != nil {
			return value.Null(), err
		}
		ok, err := compare(op, left, right)
		if err != nil {
			return value.Null(), err
		}
		if !ok {
			return value.Bool(false), nil
		}
		left = right
	}
	return value.Bool(true), nil
}

func (in *interpreter) evalCall(n *CallExpr) (value.Value, error) {
	fn, ok := in.funcs[n.Name]
	if !ok {
		return value.Null(), fmt.Errorf(ErrUnknownFunction, n.Name)
	}
	if err := fn.checkArity(n.Name, len(n.Args)); err != nil {
		return value.Null(), err
	}

	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := in.eval(a)
		if err != nil {
			return value.Null(), err
		}
		args[i] = v
	}

	v, err := fn.call(args)
	if err != nil {
		return value.Null(), fmt.Errorf("%s(): %w", n.Name, err)
	}
	return v, nil
}

func compare(op TokenType, a, b value.Value) (bool, error) {
	switch op {
	case TokenEq:
		return value.Equal(a, b), nil
	case TokenNe:
		return !value.Equal(a, b), nil
	}

	var c int
	switch {
	case isNumeric(a) && isNumeric(b):
		x, y := a.ToNumber(), b.ToNumber()
		switch {
		case x < y:
			c = -1
		case x > y:
			c = 1
		}
	case a.Kind() == value.KindString && b.Kind() == value.KindString:
		switch {
		case a.Str() < b.Str():
			c = -1
		case a.Str() > b.Str():
			c = 1
		}
	default:
		return false, newTypeError("%s not supported between %s and %s", op, a.Kind(), b.Kind())
	}

	switch op {
	case TokenLt:
		return c < 0, nil
	case TokenGt:
		return c > 0, nil
	case TokenLe:
		return c <= 0, nil
	case TokenGe:
		return c >= 0, nil
	default:
		return false, fmt.Errorf("unsupported comparison %s", op)
	}
}

func isNumeric(v value.Value) bool {
	return v.Kind() == value.KindNumber || v.Kind() == value.KindBool
}

// floorMod returns a mod b with the sign of b.
func floorMod(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}
