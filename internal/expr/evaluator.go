// Package expr implements the sandboxed formula language used by mapping
// rules.
//
// An expression is text containing {{column}} placeholders. When the whole
// expression is a single placeholder the row value is returned as is.
// Otherwise each placeholder is replaced by a literal for its row value
// and the text is parsed and interpreted. Formulas can only reach the
// built-in function library: there are no variables, attributes, indexing
// or imports.
package expr

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/leapstack-labs/leapdoc/internal/value"
)

// Evaluator evaluates expressions against rows. It holds no mutable state
// after construction and is safe for concurrent use.
type Evaluator struct {
	interp *interpreter
	logger *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used to report failures swallowed by
// EvaluateSafe.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Evaluator with the standard function library.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		interp: &interpreter{funcs: builtins()},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Functions returns the sorted names of the library functions.
func (e *Evaluator) Functions() []string {
	return slices.Sorted(maps.Keys(e.interp.funcs))
}

// Evaluate evaluates expr against row. Failures are returned as
// *EvaluationError.
func (e *Evaluator) Evaluate(expr string, row value.Row) (value.Value, error) {
	if name, ok := singlePlaceholder(expr); ok {
		return row.Value(name), nil
	}

	node, err := Parse(Substitute(expr, row))
	if err != nil {
		return value.Null(), &EvaluationError{Expression: expr, Cause: err}
	}

	v, err := e.interp.eval(node)
	if err != nil {
		return value.Null(), &EvaluationError{Expression: expr, Cause: err}
	}
	return v, nil
}

// EvaluateSafe is Evaluate that never fails: it returns def when
// evaluation fails or yields null.
func (e *Evaluator) EvaluateSafe(expr string, row value.Row, def value.Value) (result value.Value) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("expression evaluation panicked",
				slog.String("expression", expr),
				slog.String("panic", fmt.Sprint(r)))
			result = def
		}
	}()

	v, err := e.Evaluate(expr, row)
	if err != nil {
		e.logger.Debug("expression evaluation failed",
			slog.String("expression", expr),
			slog.String("error", err.Error()))
		return def
	}
	if v.IsNull() {
		return def
	}
	return v
}

// Check parses expr with every placeholder bound to null and reports
// syntax errors. Runtime errors such as unknown functions are not
// detected.
func Check(expr string) error {
	if _, ok := singlePlaceholder(expr); ok {
		return nil
	}
	if _, err := Parse(Substitute(expr, value.Row{})); err != nil {
		return &EvaluationError{Expression: expr, Cause: err}
	}
	return nil
}
