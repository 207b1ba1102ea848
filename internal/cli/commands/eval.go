package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdoc/internal/cli/output"
	"github.com/leapstack-labs/leapdoc/internal/expr"
	"github.com/leapstack-labs/leapdoc/internal/value"
)

// evalResult is the JSON form of an evaluation.
type evalResult struct {
	Expression string `json:"expression"`
	Value      any    `json:"value"`
	Kind       string `json:"kind"`
	Text       string `json:"text"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <expression> [column=value...]",
		Short: "Evaluate a mapping expression against sample values",
		Long: `Evaluate an expression the way a mapping rule would, against a row built
from column=value arguments.

Values that parse as numbers become numbers, true and false become booleans,
an empty value is null and anything else is text. Unlike document rendering,
evaluation errors are reported instead of leaving the placeholder empty.`,
		Example: `  # Arithmetic over columns
  leapdoc eval '{{price}} * {{qty}}' price=2.5 qty=4

  # Text functions
  leapdoc eval 'upper(left({{name}}, 3))' name=alice

  # Show the result kind as JSON
  leapdoc eval 'if({{total}} > 100, "big", "small")' total=150 -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, args[0], args[1:])
		},
	}
	return cmd
}

func runEval(cmd *cobra.Command, expression string, assignments []string) error {
	cc := NewCommandContext(cmd)

	row, err := parseAssignments(assignments)
	if err != nil {
		return err
	}

	v, err := expr.New(expr.WithLogger(cc.Logger)).Evaluate(expression, row)
	if err != nil {
		return err
	}
	return printEval(cc.Renderer, expression, v)
}

// parseAssignments builds a row from column=value arguments.
func parseAssignments(args []string) (value.Row, error) {
	row := value.NewRow(len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return row, fmt.Errorf("invalid column value %q\nHint: use column=value", arg)
		}
		row.Set(name, inferValue(raw))
	}
	return row, nil
}

// inferValue types a command-line cell.
func inferValue(raw string) value.Value {
	switch raw {
	case "":
		return value.Null()
	case "true":
		return value.Bool(true)
	case "false":
		return value.Bool(false)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return value.Number(f)
	}
	return value.String(raw)
}

func printEval(r *output.Renderer, expression string, v value.Value) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(evalResult{
			Expression: expression,
			Value:      v.Any(),
			Kind:       v.Kind().String(),
			Text:       v.String(),
		})
	}
	r.Println(v.String())
	if r.IsTTY() {
		r.Muted(v.Kind().String())
	}
	return nil
}
