// Package text implements document.Store for plain text templates, one
// paragraph per line. It is registered for .txt and .md, and as the
// fallback for unknown extensions.
package text

import (
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/leapdoc/internal/document"
)

func init() {
	document.Register(".txt", Store{ext: ".txt"})
	document.Register(".md", Store{ext: ".md"})
	document.RegisterFallback(Store{ext: ".txt"})
}

// Store loads line-oriented text templates.
type Store struct {
	ext string
}

// NewStore returns a store whose generated files use ext.
func NewStore(ext string) Store {
	return Store{ext: ext}
}

// Extension implements document.Store.
func (s Store) Extension() string {
	if s.ext == "" {
		return ".txt"
	}
	return s.ext
}

// Load implements document.Store.
func (Store) Load(path string) (document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &document.TemplateLoadError{Path: path, Cause: err}
	}
	return Parse(string(data)), nil
}

// Document is a text file split into lines.
type Document struct {
	lines   []*line
	newline string
}

// Parse splits content into lines. CRLF input is written back as CRLF.
func Parse(content string) *Document {
	doc := &Document{newline: "\n"}
	if strings.Contains(content, "\r\n") {
		doc.newline = "\r\n"
	}
	for _, l := range strings.Split(content, doc.newline) {
		doc.lines = append(doc.lines, &line{text: l})
	}
	return doc
}

// Paragraphs implements document.Document.
func (d *Document) Paragraphs() []document.Located {
	out := make([]document.Located, len(d.lines))
	for i, l := range d.lines {
		out[i] = document.Located{Part: "text", Region: document.RegionBody, Paragraph: l}
	}
	return out
}

// String returns the current content.
func (d *Document) String() string {
	parts := make([]string, len(d.lines))
	for i, l := range d.lines {
		parts[i] = l.text
	}
	return strings.Join(parts, d.newline)
}

// Save implements document.Document.
func (d *Document) Save(path string) error {
	if err := os.WriteFile(path, []byte(d.String()), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

type line struct {
	text string
}

func (l *line) Text() string     { return l.text }
func (l *line) SetText(s string) { l.text = s }
func (l *line) Runs() []string   { return []string{l.text} }
