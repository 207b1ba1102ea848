// Package render fills document templates with row values.
package render

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapdoc/internal/document"
	// Register the built-in template formats.
	_ "github.com/leapstack-labs/leapdoc/internal/document/docx"
	_ "github.com/leapstack-labs/leapdoc/internal/document/text"
	"github.com/leapstack-labs/leapdoc/internal/expr"
	"github.com/leapstack-labs/leapdoc/internal/value"
)

// Config holds renderer configuration.
type Config struct {
	// TemplatePath is the template every document is rendered from.
	TemplatePath string
	// Store overrides the store chosen from the template extension (optional).
	Store document.Store
	// Evaluator evaluates mapping expressions (optional, a default one is created).
	Evaluator *expr.Evaluator
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Renderer renders one template. It holds no per-row state and is safe for
// concurrent use: each Render loads its own copy of the template.
type Renderer struct {
	templatePath string
	store        document.Store
	evaluator    *expr.Evaluator
	logger       *slog.Logger
	placeholders []string
}

// New creates a renderer and loads the template once to check that it is
// readable. Failures are *document.TemplateLoadError.
func New(cfg Config) (*Renderer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store := cfg.Store
	if store == nil {
		var err error
		store, err = document.StoreFor(cfg.TemplatePath)
		if err != nil {
			return nil, &document.TemplateLoadError{Path: cfg.TemplatePath, Cause: err}
		}
	}

	evaluator := cfg.Evaluator
	if evaluator == nil {
		evaluator = expr.New(expr.WithLogger(logger))
	}

	doc, err := store.Load(cfg.TemplatePath)
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		templatePath: cfg.TemplatePath,
		store:        store,
		evaluator:    evaluator,
		logger:       logger,
		placeholders: Placeholders(doc),
	}
	logger.Debug("template loaded", "template", cfg.TemplatePath, "placeholders", len(r.placeholders))
	return r, nil
}

// TemplatePath returns the template the renderer reads.
func (r *Renderer) TemplatePath() string {
	return r.templatePath
}

// Extension returns the extension of generated documents.
func (r *Renderer) Extension() string {
	return r.store.Extension()
}

// Placeholders returns the sorted unique placeholder names of the template.
func (r *Renderer) Placeholders() []string {
	return slices.Clone(r.placeholders)
}

// Placeholders returns the sorted unique placeholder names found in any
// paragraph of doc. Paragraph text spans all runs, so a token split
// across runs is found.
func Placeholders(doc document.Document) []string {
	seen := make(map[string]struct{})
	for _, p := range doc.Paragraphs() {
		for _, name := range expr.ExtractPlaceholders(p.Paragraph.Text()) {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// completeMappings adds an identity mapping for every row column the
// caller did not map.
func completeMappings(row value.Row, mappings map[string]string) map[string]string {
	complete := make(map[string]string, len(mappings)+row.Len())
	for _, col := range row.Columns() {
		complete[col] = expr.PlaceholderToken(col)
	}
	for name, e := range mappings {
		complete[name] = e
	}
	return complete
}

// resolve returns the text substituted for placeholder name.
func (r *Renderer) resolve(name string, row value.Row, mappings map[string]string) string {
	e, ok := mappings[name]
	if !ok {
		e = expr.PlaceholderToken(name)
	}
	return r.evaluator.EvaluateSafe(e, row, value.String("")).String()
}

// Render fills a fresh copy of the template with row and writes it to
// outPath, creating parent directories. Each placeholder occurrence is
// replaced, left to right, by its mapped expression evaluated against row.
// Each value lands on the first remaining copy of its token text.
// Paragraphs without placeholders are not
// touched. A rewritten paragraph takes the formatting of its first run.
func (r *Renderer) Render(row value.Row, mappings map[string]string, outPath string) error {
	doc, err := r.store.Load(r.templatePath)
	if err != nil {
		return err
	}

	complete := completeMappings(row, mappings)
	replaced := 0
	for _, loc := range doc.Paragraphs() {
		text := loc.Paragraph.Text()
		if !expr.HasPlaceholder(text) {
			continue
		}
		loc.Paragraph.SetText(expr.ReplaceSequential(text, func(name string) string {
			replaced++
			return r.resolve(name, row, complete)
		}))
	}

	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := doc.Save(outPath); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	r.logger.Debug("document rendered",
		slog.String("output", outPath),
		slog.Int("replacements", replaced))
	return nil
}

// Preview resolves every template placeholder against row without
// writing anything.
func (r *Renderer) Preview(row value.Row, mappings map[string]string) map[string]string {
	complete := completeMappings(row, mappings)
	out := make(map[string]string, len(r.placeholders))
	for _, name := range r.placeholders {
		out[name] = r.resolve(name, row, complete)
	}
	return out
}

// invalidFilenameChars are replaced with '_' in substituted values.
const invalidFilenameChars = `<>:"/\|?*`

// GenerateFilename builds an output file name from pattern using the
// renderer's document extension. index is accepted for compatibility and
// not used; the generator exposes it to patterns as {{_index}}.
func (r *Renderer) GenerateFilename(pattern string, row value.Row, index int) string {
	return Filename(pattern, row, r.Extension())
}

// Filename substitutes {{column}} tokens in pattern with the row's raw
// string values (absent or null columns become empty), replaces characters
// that are invalid in file names inside the substituted values, and
// appends ext unless the result already ends with it. No expressions are
// evaluated.
func Filename(pattern string, row value.Row, ext string) string {
	name := expr.ReplaceSequential(pattern, func(col string) string {
		return sanitize(row.Value(col).String())
	})
	if ext != "" && !strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) {
		name += ext
	}
	return name
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidFilenameChars, r) {
			return '_'
		}
		return r
	}, s)
}
