package render

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdoc/internal/document"
	"github.com/leapstack-labs/leapdoc/internal/testutil"
	"github.com/leapstack-labs/leapdoc/internal/value"
)

func newRenderer(t *testing.T, body ...string) *Renderer {
	t.Helper()
	path := testutil.WriteDocx(t, t.TempDir(), "template.docx", body...)
	r, err := New(Config{TemplatePath: path, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	return r
}

func renderTexts(t *testing.T, r *Renderer, row value.Row, mappings map[string]string) []string {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out", "doc.docx")
	require.NoError(t, r.Render(row, mappings, out))

	doc, err := document.Open(out)
	require.NoError(t, err)
	var texts []string
	for _, p := range doc.Paragraphs() {
		texts = append(texts, p.Paragraph.Text())
	}
	return texts
}

func TestPlaceholders_SortedUniqueAcrossRegions(t *testing.T) {
	path := testutil.WriteDocxParts(t, t.TempDir(), "t.docx", map[string]string{
		"word/document.xml": testutil.DocumentXML(
			testutil.Para(testutil.Run("Dear {{na"), testutil.BoldRun("me}}")),
			testutil.Table(testutil.Para("{{amount}}"), testutil.Para("{{name}}")),
		),
		"word/header1.xml": testutil.HeaderXML(testutil.Para("{{title}}")),
		"word/footer1.xml": testutil.FooterXML(testutil.Para("page {{_index}}")),
	})

	r, err := New(Config{TemplatePath: path})
	require.NoError(t, err)
	assert.Equal(t, []string{"_index", "amount", "name", "title"}, r.Placeholders())
}

func TestRender_ExpressionMapping(t *testing.T) {
	r := newRenderer(t,
		testutil.Para("Total: {{total}}"),
		testutil.Para("{{price}} * {{qty}}"),
	)
	row := value.FromMap(map[string]any{"price": 10, "qty": 3})

	texts := renderTexts(t, r, row, map[string]string{"total": "{{price}} * {{qty}}"})
	assert.Equal(t, []string{"Total: 30", "10 * 3"}, texts)
}

func TestRender_SplitRunsCollapseIntoFirstRun(t *testing.T) {
	r := newRenderer(t,
		testutil.Para(testutil.BoldRun("Hello {{na"), testutil.Run("me}}, welcome")),
	)
	out := filepath.Join(t.TempDir(), "doc.docx")
	require.NoError(t, r.Render(value.FromMap(map[string]any{"name": "Ann"}), nil, out))

	doc, err := document.Open(out)
	require.NoError(t, err)
	p := doc.Paragraphs()[0].Paragraph
	assert.Equal(t, "Hello Ann, welcome", p.Text())
	assert.Equal(t, []string{"Hello Ann, welcome", ""}, p.Runs(), "all text moves into the bold first run")
}

func TestRender_Defaults(t *testing.T) {
	r := newRenderer(t,
		testutil.Para("[{{missing}}]"),
		testutil.Para("[{{empty}}]"),
		testutil.Para("[{{bad}}]"),
		testutil.Para("no tokens here"),
	)
	row := value.FromMap(map[string]any{"empty": nil})

	texts := renderTexts(t, r, row, map[string]string{"bad": "1 / 0"})
	assert.Equal(t, []string{"[]", "[]", "[]", "no tokens here"}, texts)
}

func TestRender_FirstRemainingOccurrence(t *testing.T) {
	r := newRenderer(t, testutil.Para("{{a}}{{b}}"), testutil.Para("{{b}} {{a}}"))
	row := value.FromMap(map[string]any{"a": "{{b}}", "b": "x"})

	assert.Equal(t, []string{"x{{b}}", "x {{b}}"}, renderTexts(t, r, row, nil))
}

func TestRender_ThreeRowsThreeFiles(t *testing.T) {
	r := newRenderer(t, testutil.Para("Name: {{name}}"))
	dir := t.TempDir()

	names := []string{"Ann", "Bob", "Cy"}
	for i, name := range names {
		row := value.FromMap(map[string]any{"name": name})
		out := filepath.Join(dir, r.GenerateFilename("{{name}}", row, i))
		require.NoError(t, r.Render(row, nil, out))
	}

	for _, name := range names {
		doc, err := document.Open(filepath.Join(dir, name+".docx"))
		require.NoError(t, err)
		assert.Equal(t, "Name: "+name, doc.Paragraphs()[0].Paragraph.Text())
	}
}

func TestRender_TextTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "letter.txt")
	require.NoError(t, os.WriteFile(path, []byte("Hi {{name}}\nBye"), 0600))

	r, err := New(Config{TemplatePath: path})
	require.NoError(t, err)
	assert.Equal(t, ".txt", r.Extension())

	out := filepath.Join(dir, "out.txt")
	require.NoError(t, r.Render(value.FromMap(map[string]any{"name": "Ann"}), nil, out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Hi Ann\nBye", string(data))
}

func TestNew_MissingTemplate(t *testing.T) {
	_, err := New(Config{TemplatePath: filepath.Join(t.TempDir(), "absent.docx")})
	var loadErr *document.TemplateLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestPreview(t *testing.T) {
	r := newRenderer(t, testutil.Para("{{name}} owes {{total}}"))
	row := value.FromMap(map[string]any{"name": "Ann", "price": 2.5, "qty": 4})

	assert.Equal(t, map[string]string{
		"name":  "Ann",
		"total": "10.00",
	}, r.Preview(row, map[string]string{"total": "number_format({{price}} * {{qty}})"}))
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		row      map[string]any
		ext      string
		expected string
	}{
		{"sanitizes values", "{{name}}_report.docx", map[string]any{"name": "A/B"}, ".docx", "A_B_report.docx"},
		{"all invalid chars", "{{v}}", map[string]any{"v": `<>:"/\|?*`}, ".docx", "_________.docx"},
		{"pattern chars kept", "out/{{v}}", map[string]any{"v": "x"}, ".docx", "out/x.docx"},
		{"appends extension", "output_{{_index}}", map[string]any{"_index": 3}, ".docx", "output_3.docx"},
		{"extension case-insensitive", "R.DOCX", nil, ".docx", "R.DOCX"},
		{"absent column empty", "a{{missing}}b", nil, ".docx", "ab.docx"},
		{"null column empty", "a{{v}}b", map[string]any{"v": nil}, ".docx", "ab.docx"},
		{"no evaluation", "{{a}}+{{b}}", map[string]any{"a": 1, "b": 2}, ".txt", "1+2.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Filename(tt.pattern, value.FromMap(tt.row), tt.ext))
		})
	}
}
