package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapdoc/internal/value"
)

// fnFormat substitutes positional fields into a brace template:
// "{}" takes the next argument, "{1}" a numbered one, "{{" and "}}" are
// literal braces, and "{:spec}" or "{1:spec}" applies a format spec.
func fnFormat(args []value.Value) (value.Value, error) {
	if args[0].Kind() != value.KindString {
		return value.Null(), newTypeError("format string must be a string, got %s", args[0].Kind())
	}
	tmpl, params := args[0].Str(), args[1:]

	var sb strings.Builder
	next := 0
	numbered, automatic := false, false

	for i := 0; i < len(tmpl); i++ {
		ch := tmpl[i]
		if ch == '}' {
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				sb.WriteByte('}')
				i++
				continue
			}
			return value.Null(), fmt.Errorf("single '}' encountered in format string")
		}
		if ch != '{' {
			sb.WriteByte(ch)
			continue
		}
		if i+1 < len(tmpl) && tmpl[i+1] == '{' {
			sb.WriteByte('{')
			i++
			continue
		}

		end := strings.IndexByte(tmpl[i:], '}')
		if end < 0 {
			return value.Null(), fmt.Errorf("single '{' encountered in format string")
		}
		field := tmpl[i+1 : i+end]
		i += end

		name, spec, _ := strings.Cut(field, ":")
		var idx int
		if name == "" {
			automatic = true
			idx = next
			next++
		} else {
			n, err := strconv.Atoi(name)
			if err != nil || n < 0 {
				return value.Null(), fmt.Errorf("invalid field %q in format string", name)
			}
			numbered = true
			idx = n
		}
		if numbered && automatic {
			return value.Null(), fmt.Errorf("cannot switch between automatic and manual field numbering")
		}
		if idx >= len(params) {
			return value.Null(), fmt.Errorf("replacement index %d out of range", idx)
		}

		s, err := applySpec(params[idx], spec)
		if err != nil {
			return value.Null(), err
		}
		sb.WriteString(s)
	}
	return value.String(sb.String()), nil
}

// applySpec formats v according to [0][width][,][.precision][type], where
// type is one of s, d, f or %.
func applySpec(v value.Value, spec string) (string, error) {
	if spec == "" {
		return v.String(), nil
	}

	rest := spec
	zeroPad := false
	if strings.HasPrefix(rest, "0") {
		zeroPad = true
		rest = rest[1:]
	}

	width := 0
	for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		width = width*10 + int(rest[0]-'0')
		rest = rest[1:]
	}

	grouping := false
	if strings.HasPrefix(rest, ",") {
		grouping = true
		rest = rest[1:]
	}

	precision := -1
	if strings.HasPrefix(rest, ".") {
		rest = rest[1:]
		precision = 0
		digits := 0
		for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
			precision = precision*10 + int(rest[0]-'0')
			rest = rest[1:]
			digits++
		}
		if digits == 0 {
			return "", fmt.Errorf("format specifier missing precision")
		}
	}

	kind := ""
	if len(rest) == 1 {
		kind, rest = rest, ""
	}
	if rest != "" {
		return "", fmt.Errorf("invalid format specifier %q", spec)
	}

	var out string
	switch kind {
	case "f":
		if precision < 0 {
			precision = 6
		}
		out = formatFixed(v.ToNumber(), precision, grouping)
	case "%":
		if precision < 0 {
			precision = 6
		}
		out = formatFixed(v.ToNumber()*100, precision, grouping) + "%"
	case "d":
		if !isNumeric(v) {
			return "", newTypeError("format code 'd' requires a number, got %s", v.Kind())
		}
		out = formatFixed(v.ToNumber(), 0, grouping)
	case "", "s":
		switch {
		case grouping && isNumeric(v):
			out = formatFixed(v.ToNumber(), max(precision, 0), true)
		case precision >= 0 && v.Kind() == value.KindNumber:
			out = formatFixed(v.Num(), precision, false)
		case precision >= 0:
			r := []rune(v.String())
			out = string(r[:clamp(precision, len(r))])
		default:
			out = v.String()
		}
	default:
		return "", fmt.Errorf("unknown format code %q", kind)
	}

	return pad(out, width, zeroPad && isNumeric(v)), nil
}

func pad(s string, width int, zero bool) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	if !zero {
		return strings.Repeat(" ", width-n) + s
	}
	if strings.HasPrefix(s, "-") {
		return "-" + strings.Repeat("0", width-n) + s[1:]
	}
	return strings.Repeat("0", width-n) + s
}
