package expr

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapdoc/internal/value"
)

// placeholderPattern matches {{name}} where name is any non-empty run of
// characters other than '}'.
var placeholderPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Match is one placeholder occurrence in a text.
type Match struct {
	Name  string
	Token string // full token text including braces
	Start int    // byte offset of the opening braces
	End   int    // byte offset just past the closing braces
}

// FindPlaceholders returns every placeholder occurrence in s, left to right.
func FindPlaceholders(s string) []Match {
	locs := placeholderPattern.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return nil
	}
	matches := make([]Match, len(locs))
	for i, loc := range locs {
		matches[i] = Match{
			Name:  s[loc[2]:loc[3]],
			Token: s[loc[0]:loc[1]],
			Start: loc[0],
			End:   loc[1],
		}
	}
	return matches
}

// ExtractPlaceholders returns the name of every placeholder occurrence in
// expr, left to right, duplicates included.
func ExtractPlaceholders(expr string) []string {
	matches := FindPlaceholders(expr)
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Name
	}
	return names
}

// HasPlaceholder reports whether s contains at least one placeholder.
func HasPlaceholder(s string) bool {
	return placeholderPattern.MatchString(s)
}

// PlaceholderToken returns the placeholder token for name.
func PlaceholderToken(name string) string {
	return "{{" + name + "}}"
}

// singlePlaceholder returns the name when the trimmed expression is
// exactly one token and nothing else.
func singlePlaceholder(expr string) (string, bool) {
	trimmed := strings.TrimSpace(expr)
	loc := placeholderPattern.FindStringSubmatchIndex(trimmed)
	if loc == nil || loc[0] != 0 || loc[1] != len(trimmed) {
		return "", false
	}
	return trimmed[loc[2]:loc[3]], true
}

// ReplaceFunc replaces each placeholder occurrence in s with the result of
// fn applied to its name. Replacement text is never rescanned.
func ReplaceFunc(s string, fn func(name string) string) string {
	matches := FindPlaceholders(s)
	if len(matches) == 0 {
		return s
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(s[last:m.Start])
		sb.WriteString(fn(m.Name))
		last = m.End
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// ReplaceSequential takes the placeholder occurrences of s left to right
// and, for each, replaces the first remaining literal copy of its token in
// the text built so far with fn(name). A value that contains a token text
// can therefore be consumed by a later occurrence of that token.
func ReplaceSequential(s string, fn func(name string) string) string {
	for _, m := range FindPlaceholders(s) {
		s = strings.Replace(s, m.Token, fn(m.Name), 1)
	}
	return s
}

// Substitute replaces every placeholder in expr with the formula literal
// of the row's value. Absent columns become null.
func Substitute(expr string, row value.Row) string {
	return ReplaceFunc(expr, func(name string) string {
		return row.Value(name).Literal()
	})
}
