package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/leapstack-labs/leapdoc/internal/value"
)

// Func is the signature of a library function.
type Func func(args []value.Value) (value.Value, error)

type builtin struct {
	minArgs int
	maxArgs int // -1 for variadic
	fn      Func
}

func (b builtin) checkArity(name string, n int) error {
	if n >= b.minArgs && (b.maxArgs < 0 || n <= b.maxArgs) {
		return nil
	}
	var want string
	switch {
	case b.maxArgs < 0:
		want = fmt.Sprintf("at least %d", b.minArgs)
	case b.minArgs == b.maxArgs:
		want = strconv.Itoa(b.minArgs)
	default:
		want = fmt.Sprintf("%d to %d", b.minArgs, b.maxArgs)
	}
	return fmt.Errorf(ErrArity, name, want, n)
}

func (b builtin) call(args []value.Value) (value.Value, error) {
	return b.fn(args)
}

// groupingPrinter formats numbers with comma thousands separators.
var groupingPrinter = message.NewPrinter(language.English)

// builtins returns the formula function library. Names are case-sensitive.
func builtins() map[string]builtin {
	return map[string]builtin{
		// String functions
		"concat":  {0, -1, fnConcat},
		"upper":   {1, 1, stringFn(strings.ToUpper)},
		"lower":   {1, 1, stringFn(strings.ToLower)},
		"strip":   {1, 1, stringFn(strings.TrimSpace)},
		"left":    {2, 2, fnLeft},
		"right":   {2, 2, fnRight},
		"mid":     {3, 3, fnMid},
		"len":     {1, 1, fnLen},
		"replace": {3, 3, fnReplace},

		// Math functions
		"sum":   {0, -1, fnSum},
		"avg":   {0, -1, fnAvg},
		"min":   {1, -1, fnMin},
		"max":   {1, -1, fnMax},
		"round": {1, 2, fnRound},
		"abs":   {1, 1, numberFn(math.Abs)},
		"int":   {1, 1, numberFn(math.Trunc)},
		"float": {1, 1, numberFn(func(f float64) float64 { return f })},

		// Conditional
		"if":      {3, 3, fnIf},
		"ifempty": {2, 2, fnIfEmpty},

		// Format functions
		"format":        {1, -1, fnFormat},
		"number_format": {1, 3, fnNumberFormat},
	}
}

func stringFn(f func(string) string) Func {
	return func(args []value.Value) (value.Value, error) {
		return value.String(f(args[0].String())), nil
	}
}

func numberFn(f func(float64) float64) Func {
	return func(args []value.Value) (value.Value, error) {
		return value.Number(f(args[0].ToNumber())), nil
	}
}

func fnConcat(args []value.Value) (value.Value, error) {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteString(a.String())
	}
	return value.String(sb.String()), nil
}

// clamp limits n to [0, limit].
func clamp(n, limit int) int {
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}

func toInt(v value.Value) int {
	f := math.Trunc(v.ToNumber())
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

func fnLeft(args []value.Value) (value.Value, error) {
	r := []rune(args[0].String())
	n := clamp(toInt(args[1]), len(r))
	return value.String(string(r[:n])), nil
}

// fnRight keeps the last n runes; right(s, 0) is "".
func fnRight(args []value.Value) (value.Value, error) {
	r := []rune(args[0].String())
	n := clamp(toInt(args[1]), len(r))
	return value.String(string(r[len(r)-n:])), nil
}

func fnMid(args []value.Value) (value.Value, error) {
	r := []rune(args[0].String())
	start := clamp(toInt(args[1]), len(r))
	length := clamp(toInt(args[2]), len(r)-start)
	return value.String(string(r[start : start+length])), nil
}

func fnLen(args []value.Value) (value.Value, error) {
	return value.Number(float64(utf8.RuneCountInString(args[0].String()))), nil
}

func fnReplace(args []value.Value) (value.Value, error) {
	return value.String(strings.ReplaceAll(args[0].String(), args[1].String(), args[2].String())), nil
}

func fnSum(args []value.Value) (value.Value, error) {
	var total float64
	for _, a := range args {
		total += a.ToNumber()
	}
	return value.Number(total), nil
}

func fnAvg(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Number(0), nil
	}
	total, _ := fnSum(args)
	return value.Number(total.Num() / float64(len(args))), nil
}

func fnMin(args []value.Value) (value.Value, error) {
	m := args[0].ToNumber()
	for _, a := range args[1:] {
		m = math.Min(m, a.ToNumber())
	}
	return value.Number(m), nil
}

func fnMax(args []value.Value) (value.Value, error) {
	m := args[0].ToNumber()
	for _, a := range args[1:] {
		m = math.Max(m, a.ToNumber())
	}
	return value.Number(m), nil
}

// fnRound rounds half to even at the given number of decimal places.
func fnRound(args []value.Value) (value.Value, error) {
	x := args[0].ToNumber()
	places := 0
	if len(args) > 1 {
		places = toInt(args[1])
	}
	return value.Number(roundHalfEven(x, places)), nil
}

func roundHalfEven(x float64, places int) float64 {
	if places == 0 {
		return math.RoundToEven(x)
	}
	scale := math.Pow(10, float64(places))
	scaled := x * scale
	if math.IsInf(scaled, 0) {
		return x
	}
	return math.RoundToEven(scaled) / scale
}

func fnIf(args []value.Value) (value.Value, error) {
	if args[0].Truthy() {
		return args[1], nil
	}
	return args[2], nil
}

func fnIfEmpty(args []value.Value) (value.Value, error) {
	if args[0].IsNull() || strings.TrimSpace(args[0].String()) == "" {
		return args[1], nil
	}
	return args[0], nil
}

var errNegativeDecimals = errors.New("decimal places must not be negative")

func fnNumberFormat(args []value.Value) (value.Value, error) {
	num := args[0].ToNumber()
	decimals := 2
	if len(args) > 1 {
		decimals = toInt(args[1])
	}
	grouping := true
	if len(args) > 2 {
		grouping = args[2].Truthy()
	}
	if decimals < 0 {
		return value.Null(), errNegativeDecimals
	}
	return value.String(formatFixed(num, decimals, grouping)), nil
}

func formatFixed(num float64, decimals int, grouping bool) string {
	if grouping && !math.IsNaN(num) && !math.IsInf(num, 0) {
		return groupingPrinter.Sprintf(fmt.Sprintf("%%.%df", decimals), num)
	}
	return strconv.FormatFloat(num, 'f', decimals, 64)
}
