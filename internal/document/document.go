// Package document defines the text-container capability the renderer
// works against. Concrete formats live in subpackages and register
// themselves by file extension:
//
//	import _ "github.com/leapstack-labs/leapdoc/internal/document/docx"
package document

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Region identifies where in a document a paragraph lives.
type Region int

// Region constants.
const (
	RegionBody Region = iota
	RegionTable
	RegionHeader
	RegionFooter
)

func (r Region) String() string {
	switch r {
	case RegionBody:
		return "body"
	case RegionTable:
		return "table"
	case RegionHeader:
		return "header"
	case RegionFooter:
		return "footer"
	default:
		return "unknown"
	}
}

// Paragraph is a run-fragmented line of text.
type Paragraph interface {
	// Text returns the concatenated text of all runs.
	Text() string
	// SetText puts s into the first run and clears the others, so the
	// first run's formatting applies to the whole paragraph.
	SetText(s string)
	// Runs returns the text of each run in order.
	Runs() []string
}

// Located is a paragraph together with the part and region it belongs to.
type Located struct {
	Part      string // format-specific part name, e.g. word/header1.xml
	Region    Region
	Paragraph Paragraph
}

// Document is a loaded, mutable copy of a template.
type Document interface {
	// Paragraphs returns every paragraph in every text-bearing region,
	// in document order: body and tables first, then headers, then footers.
	Paragraphs() []Located
	// Save writes the document to path. Parent directories must exist.
	Save(path string) error
}

// Store loads documents of one format.
type Store interface {
	// Load reads a fresh copy of the document at path. Failures are
	// *TemplateLoadError.
	Load(path string) (Document, error)
	// Extension is the file extension of documents in this format,
	// including the dot.
	Extension() string
}

// TemplateLoadError reports a template that could not be read or parsed.
type TemplateLoadError struct {
	Path  string
	Cause error
}

func (e *TemplateLoadError) Error() string {
	return fmt.Sprintf("failed to load template %s: %v", e.Path, e.Cause)
}

func (e *TemplateLoadError) Unwrap() error {
	return e.Cause
}

// UnknownFormatError is returned when no store handles an extension.
type UnknownFormatError struct {
	Extension string
	Available []string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unsupported template format %q (available: %s)", e.Extension, strings.Join(e.Available, ", "))
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Store)
	fallback   Store
)

// Register associates a store with a file extension such as ".docx".
// Called by format packages in their init() functions.
func Register(ext string, s Store) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(ext)] = s
}

// RegisterFallback sets the store used for extensions nobody registered.
func RegisterFallback(s Store) {
	registryMu.Lock()
	defer registryMu.Unlock()
	fallback = s
}

// StoreFor returns the store for the template at path.
func StoreFor(path string) (Store, error) {
	ext := strings.ToLower(filepath.Ext(path))

	registryMu.RLock()
	defer registryMu.RUnlock()
	if s, ok := registry[ext]; ok {
		return s, nil
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, &UnknownFormatError{Extension: ext, Available: formatsLocked()}
}

// Open loads the template at path with the store registered for its
// extension.
func Open(path string) (Document, error) {
	s, err := StoreFor(path)
	if err != nil {
		return nil, &TemplateLoadError{Path: path, Cause: err}
	}
	return s.Load(path)
}

// Formats returns the registered extensions, sorted.
func Formats() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return formatsLocked()
}

func formatsLocked() []string {
	names := make([]string, 0, len(registry))
	for ext := range registry {
		names = append(names, ext)
	}
	sort.Strings(names)
	return names
}
