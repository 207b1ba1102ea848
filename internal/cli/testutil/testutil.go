// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapdoc/internal/cli/output"
	"github.com/leapstack-labs/leapdoc/internal/testutil"
)

// Project is a generation job laid out in a temporary directory.
type Project struct {
	Dir       string
	Template  string
	Data      string
	Mapping   string
	OutputDir string
}

// SetupTestProject creates a temporary project: a DOCX letter template, a
// three-row CSV and a mapping file tying them together.
func SetupTestProject(t *testing.T) *Project {
	t.Helper()

	dir := t.TempDir()
	p := &Project{
		Dir:       dir,
		Data:      filepath.Join(dir, "customers.csv"),
		Mapping:   filepath.Join(dir, "mapping.json"),
		OutputDir: filepath.Join(dir, "out"),
	}

	p.Template = testutil.WriteDocx(t, dir, "letter.docx",
		testutil.Para("Dear {{name}},"),
		testutil.Para("You owe {{total}}."),
	)

	data := "name,price,qty\nAnn,10,3\nBob,2.5,4\nCy,1,1\n"
	if err := os.WriteFile(p.Data, []byte(data), 0600); err != nil {
		t.Fatalf("failed to create customers.csv: %v", err)
	}

	mapping := `{
  "rules": [
    {"placeholder": "name", "type": "direct", "source": "name", "expression": ""},
    {"placeholder": "total", "type": "expression", "source": "", "expression": "number_format({{price}} * {{qty}})"}
  ],
  "output_filename_pattern": "letter_{{name}}",
  "excel_file": "customers.csv",
  "template_file": "letter.docx",
  "output_directory": "out",
  "sheet_name": "",
  "header_row": 1,
  "start_row": 2
}`
	if err := os.WriteFile(p.Mapping, []byte(mapping), 0600); err != nil {
		t.Fatalf("failed to create mapping.json: %v", err)
	}

	return p
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and basic structure.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	// Check for balanced code fences
	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	// Check that headers have content
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
