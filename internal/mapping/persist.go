package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a mapping file encoding.
type Format int

// Supported formats.
const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks the format from a file extension. Anything that is not
// .yaml or .yml is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// wire types use pointers so absent fields can fall back to defaults.
type wireRule struct {
	Placeholder *string `json:"placeholder" yaml:"placeholder"`
	Type        *string `json:"type" yaml:"type"`
	Source      string  `json:"source" yaml:"source"`
	Expression  string  `json:"expression" yaml:"expression"`
}

type wireConfig struct {
	Rules                 []wireRule `json:"rules" yaml:"rules"`
	OutputFilenamePattern *string    `json:"output_filename_pattern" yaml:"output_filename_pattern"`
	ExcelFile             string     `json:"excel_file" yaml:"excel_file"`
	TemplateFile          string     `json:"template_file" yaml:"template_file"`
	OutputDirectory       string     `json:"output_directory" yaml:"output_directory"`
	SheetName             string     `json:"sheet_name" yaml:"sheet_name"`
	HeaderRow             *int       `json:"header_row" yaml:"header_row"`
	StartRow              *int       `json:"start_row" yaml:"start_row"`
}

// outRule and outConfig fix the field order of saved files.
type outRule struct {
	Placeholder string `json:"placeholder" yaml:"placeholder"`
	Type        string `json:"type" yaml:"type"`
	Source      string `json:"source" yaml:"source"`
	Expression  string `json:"expression" yaml:"expression"`
}

type outConfig struct {
	Rules                 []outRule `json:"rules" yaml:"rules"`
	OutputFilenamePattern string    `json:"output_filename_pattern" yaml:"output_filename_pattern"`
	ExcelFile             string    `json:"excel_file" yaml:"excel_file"`
	TemplateFile          string    `json:"template_file" yaml:"template_file"`
	OutputDirectory       string    `json:"output_directory" yaml:"output_directory"`
	SheetName             string    `json:"sheet_name" yaml:"sheet_name"`
	HeaderRow             int       `json:"header_row" yaml:"header_row"`
	StartRow              int       `json:"start_row" yaml:"start_row"`
}

// Load reads a mapping file. Syntax and content errors are reported as
// *MalformedConfigError; I/O errors are returned wrapped.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	cfg, err := Decode(bytes.NewReader(data), FormatFor(path))
	if err != nil {
		var malformed *MalformedConfigError
		if errors.As(err, &malformed) {
			malformed.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Save writes c to path, creating parent directories. Non-ASCII text is
// written as UTF-8, not escaped.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create mapping directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := c.Encode(&buf, FormatFor(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write mapping file: %w", err)
	}
	return nil
}

// Decode parses a mapping config. Missing settings take their defaults and
// a rule without a type is direct.
func Decode(r io.Reader, format Format) (*Config, error) {
	var w wireConfig
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&w); err != nil && !errors.Is(err, io.EOF) {
			return nil, &MalformedConfigError{Reason: "invalid YAML", Cause: err}
		}
	default:
		if err := json.NewDecoder(r).Decode(&w); err != nil {
			return nil, &MalformedConfigError{Reason: "invalid JSON", Cause: err}
		}
	}

	cfg := New()
	cfg.ExcelFile = w.ExcelFile
	cfg.TemplateFile = w.TemplateFile
	cfg.OutputDirectory = w.OutputDirectory
	cfg.SheetName = w.SheetName
	if w.OutputFilenamePattern != nil {
		cfg.OutputFilenamePattern = *w.OutputFilenamePattern
	}
	if w.HeaderRow != nil {
		cfg.HeaderRow = *w.HeaderRow
	}
	if w.StartRow != nil {
		cfg.StartRow = *w.StartRow
	}

	for i, wr := range w.Rules {
		if wr.Placeholder == nil {
			return nil, &MalformedConfigError{Reason: ruleReason(i, "missing placeholder")}
		}
		kind := KindDirect
		if wr.Type != nil {
			kind = Kind(*wr.Type)
		}
		if !kind.Valid() {
			return nil, &MalformedConfigError{Reason: ruleReason(i, "unknown type "+quoteKind(kind))}
		}
		cfg.Rules = append(cfg.Rules, Rule{
			Placeholder: *wr.Placeholder,
			Kind:        kind,
			Source:      wr.Source,
			Expression:  wr.Expression,
		})
	}

	if cfg.HeaderRow < 1 {
		return nil, &MalformedConfigError{Reason: "header_row must be at least 1"}
	}
	if cfg.StartRow < 1 {
		return nil, &MalformedConfigError{Reason: "start_row must be at least 1"}
	}
	return cfg, nil
}

// Encode writes c in the given format.
func (c *Config) Encode(w io.Writer, format Format) error {
	out := outConfig{
		Rules:                 make([]outRule, len(c.Rules)),
		OutputFilenamePattern: c.OutputFilenamePattern,
		ExcelFile:             c.ExcelFile,
		TemplateFile:          c.TemplateFile,
		OutputDirectory:       c.OutputDirectory,
		SheetName:             c.SheetName,
		HeaderRow:             c.HeaderRow,
		StartRow:              c.StartRow,
	}
	for i, r := range c.Rules {
		kind := r.Kind
		if kind == "" {
			kind = KindDirect
		}
		out.Rules[i] = outRule{
			Placeholder: r.Placeholder,
			Type:        string(kind),
			Source:      r.Source,
			Expression:  r.Expression,
		}
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode mapping: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode mapping: %w", err)
		}
		return nil
	}
}
