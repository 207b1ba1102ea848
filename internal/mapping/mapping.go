// Package mapping holds the rules that bind template placeholders to row
// columns or formulas, together with the generation settings saved
// alongside them.
package mapping

import (
	"slices"

	"github.com/leapstack-labs/leapdoc/internal/expr"
)

// Kind selects how a rule produces its value.
type Kind string

// Rule kinds.
const (
	KindDirect     Kind = "direct"     // value of the Source column
	KindExpression Kind = "expression" // result of Expression
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindDirect || k == KindExpression
}

// Default settings.
const (
	DefaultFilenamePattern = "output_{{_index}}.docx"
	DefaultHeaderRow       = 1
	DefaultStartRow        = 2
)

// Rule maps one placeholder to a value. Only the field selected by Kind is
// used; the other is kept as is so switching kinds back loses nothing.
type Rule struct {
	Placeholder string
	Kind        Kind
	Source      string
	Expression  string
}

// Direct returns a rule copying column source into placeholder.
func Direct(placeholder, source string) Rule {
	return Rule{Placeholder: placeholder, Kind: KindDirect, Source: source}
}

// Expression returns a rule evaluating formula for placeholder.
func Expression(placeholder, formula string) Rule {
	return Rule{Placeholder: placeholder, Kind: KindExpression, Expression: formula}
}

// Expr returns the expression to evaluate for this rule. A direct rule
// becomes a single-placeholder expression for its source column, or the
// empty string when it has no source.
func (r Rule) Expr() string {
	if r.Kind == KindExpression {
		return r.Expression
	}
	if r.Source == "" {
		return ""
	}
	return expr.PlaceholderToken(r.Source)
}

// Config is an ordered, placeholder-unique list of rules plus the
// settings of a generation job.
type Config struct {
	Rules                 []Rule
	OutputFilenamePattern string
	ExcelFile             string
	TemplateFile          string
	OutputDirectory       string
	SheetName             string
	HeaderRow             int
	StartRow              int
}

// New returns an empty config with default settings.
func New() *Config {
	return &Config{
		OutputFilenamePattern: DefaultFilenamePattern,
		HeaderRow:             DefaultHeaderRow,
		StartRow:              DefaultStartRow,
	}
}

// AddRule inserts r, replacing any rule for the same placeholder. The new
// rule always ends up last.
func (c *Config) AddRule(r Rule) {
	c.RemoveRule(r.Placeholder)
	c.Rules = append(c.Rules, r)
}

// RemoveRule deletes the rule for placeholder, if any.
func (c *Config) RemoveRule(placeholder string) {
	c.Rules = slices.DeleteFunc(c.Rules, func(r Rule) bool {
		return r.Placeholder == placeholder
	})
}

// Rule returns the rule for placeholder.
func (c *Config) Rule(placeholder string) (Rule, bool) {
	for _, r := range c.Rules {
		if r.Placeholder == placeholder {
			return r, true
		}
	}
	return Rule{}, false
}

// ClearRules deletes all rules. Settings are kept.
func (c *Config) ClearRules() {
	c.Rules = nil
}

// Mappings returns placeholder -> expression for every rule with a
// non-empty placeholder.
func (c *Config) Mappings() map[string]string {
	m := make(map[string]string, len(c.Rules))
	for _, r := range c.Rules {
		if r.Placeholder == "" {
			continue
		}
		m[r.Placeholder] = r.Expr()
	}
	return m
}

// AutoMap adds a direct rule for every placeholder that exactly matches a
// column name, in placeholder order. It returns the placeholders mapped.
func (c *Config) AutoMap(columns, placeholders []string) []string {
	var mapped []string
	for _, p := range placeholders {
		if !slices.Contains(columns, p) {
			continue
		}
		c.AddRule(Direct(p, p))
		mapped = append(mapped, p)
	}
	return mapped
}

// Unmapped returns the placeholders that have no rule, in input order.
func (c *Config) Unmapped(placeholders []string) []string {
	var out []string
	for _, p := range placeholders {
		if _, ok := c.Rule(p); !ok {
			out = append(out, p)
		}
	}
	return out
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Rules = slices.Clone(c.Rules)
	return &cp
}

// Validate checks the structural constraints on settings and rules.
func (c *Config) Validate() error {
	if c.HeaderRow < 1 {
		return &MalformedConfigError{Reason: "header_row must be at least 1"}
	}
	if c.StartRow < 1 {
		return &MalformedConfigError{Reason: "start_row must be at least 1"}
	}
	for i, r := range c.Rules {
		if r.Placeholder == "" {
			return &MalformedConfigError{Reason: ruleReason(i, "missing placeholder")}
		}
		if !r.Kind.Valid() {
			return &MalformedConfigError{Reason: ruleReason(i, "unknown type "+quoteKind(r.Kind))}
		}
	}
	return nil
}

// Missing names the settings a generation job needs that are empty.
func (c *Config) Missing() []string {
	var missing []string
	if c.ExcelFile == "" {
		missing = append(missing, "excel_file")
	}
	if c.TemplateFile == "" {
		missing = append(missing, "template_file")
	}
	if c.OutputDirectory == "" {
		missing = append(missing, "output_directory")
	}
	return missing
}
