// Package source reads tabular records that drive document generation.
//
// A source is opened from a location: a spreadsheet or CSV path, or a
// database DSN such as sqlite://data.db. Implementations register a
// factory per scheme in their init() functions.
package source

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapdoc/internal/value"
)

// Source is a tabular row source. Row and column numbers are 1-based.
type Source interface {
	// SheetNames lists the sheets (or tables) of the source.
	SheetNames() ([]string, error)
	// Headers returns the column names in headerRow, stopping at the first
	// empty cell. An empty sheet means the default sheet.
	Headers(sheet string, headerRow int) ([]string, error)
	// Rows yields the records from startRow on. Fully empty rows are
	// skipped; cells beyond the header count are dropped and missing cells
	// are null.
	Rows(sheet string, headerRow, startRow int) iter.Seq2[Record, error]
	// Close releases the underlying file or connection.
	Close() error
}

// Record is one data row and its 1-based position in the source.
type Record struct {
	Position int
	Row      value.Row
}

// RowSourceError reports a source that could not be opened or read.
type RowSourceError struct {
	Location string
	Cause    error
}

func (e *RowSourceError) Error() string {
	return fmt.Sprintf("row source %s: %v", e.Location, e.Cause)
}

func (e *RowSourceError) Unwrap() error {
	return e.Cause
}

// Factory opens a source at location.
type Factory func(ctx context.Context, location string, logger *slog.Logger) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a source factory for a scheme such as "xlsx" or "postgres".
// Called by source implementations in their init() functions.
func Register(scheme string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[scheme] = factory
}

// Get retrieves a source factory by scheme.
func Get(scheme string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[scheme]
	return f, ok
}

// ListSchemes returns all registered schemes (sorted).
func ListSchemes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownSchemeError is returned when no source handles a location.
type UnknownSchemeError struct {
	Scheme    string
	Available []string
}

func (e *UnknownSchemeError) Error() string {
	return fmt.Sprintf("unknown row source type %q\nAvailable types: %v", e.Scheme, e.Available)
}

// extensionSchemes maps file extensions to the scheme that reads them.
var extensionSchemes = map[string]string{
	".xlsx":    "xlsx",
	".xlsm":    "xlsx",
	".xltx":    "xlsx",
	".csv":     "csv",
	".tsv":     "csv",
	".db":      "sqlite",
	".sqlite":  "sqlite",
	".sqlite3": "sqlite",
	".duckdb":  "duckdb",
}

// Scheme returns the scheme for location: the DSN scheme when location
// has one, otherwise the scheme registered for its file extension.
func Scheme(location string) string {
	if i := strings.Index(location, "://"); i > 0 {
		return strings.ToLower(location[:i])
	}
	return extensionSchemes[strings.ToLower(filepath.Ext(location))]
}

// Open opens the source at location. Failures are *RowSourceError.
func Open(ctx context.Context, location string, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	scheme := Scheme(location)
	factory, ok := Get(scheme)
	if !ok {
		return nil, &RowSourceError{
			Location: location,
			Cause:    &UnknownSchemeError{Scheme: scheme, Available: ListSchemes()},
		}
	}

	logger.Debug("opening row source", "location", location, "scheme", scheme)
	src, err := factory(ctx, location, logger)
	if err != nil {
		return nil, &RowSourceError{Location: location, Cause: err}
	}
	return src, nil
}

// TrimHeaders returns the header cells up to the first empty one.
func TrimHeaders(cells []string) []string {
	for i, c := range cells {
		if c == "" {
			return cells[:i:i]
		}
	}
	return cells
}

// BuildRow maps cells onto headers. Cells beyond the header count are
// dropped and missing cells are null. ok is false when every cell is null.
// A repeated header keeps its first position and takes the later value.
func BuildRow(headers []string, cells []value.Value) (row value.Row, ok bool) {
	row = value.NewRow(len(headers))
	for i, h := range headers {
		v := value.Null()
		if i < len(cells) {
			v = cells[i]
		}
		if !v.IsNull() {
			ok = true
		}
		row.Set(h, v)
	}
	return row, ok
}

// Collect reads every record of a sheet.
func Collect(src Source, sheet string, headerRow, startRow int) ([]Record, error) {
	var records []Record
	for rec, err := range src.Rows(sheet, headerRow, startRow) {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
