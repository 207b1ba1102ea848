// Package csvfile reads rows from comma, semicolon or tab separated files.
// A file is a single sheet named after the file.
package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapdoc/internal/source"
	"github.com/leapstack-labs/leapdoc/internal/value"
)

func init() {
	source.Register("csv", func(_ context.Context, location string, logger *slog.Logger) (source.Source, error) {
		src, err := Open(strings.TrimPrefix(location, "csv://"), logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	})
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Source is a parsed delimited file.
type Source struct {
	name    string
	records [][]string
	lines   []int // starting line of each record
}

var _ source.Source = (*Source)(nil)

// Open reads the file at path. The delimiter is a tab for .tsv files and
// otherwise whichever of ',' ';' or '\t' is most frequent in the first line.
func Open(path string, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv file: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	delim := sniffDelimiter(data)
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		delim = '\t'
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	s := &Source{name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv file: %w", err)
		}
		line, _ := r.FieldPos(0)
		s.records = append(s.records, rec)
		s.lines = append(s.lines, line)
	}

	logger.Debug("csv file loaded", "path", path, "records", len(s.records), "delimiter", string(delim))
	return s, nil
}

// record returns the fields on a 1-based line, or nil for blank and
// missing lines.
func (s *Source) record(line int) []string {
	i, ok := slices.BinarySearch(s.lines, line)
	if !ok {
		return nil
	}
	return s.records[i]
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// Close implements source.Source.
func (s *Source) Close() error { return nil }

// SheetNames implements source.Source.
func (s *Source) SheetNames() ([]string, error) {
	return []string{s.name}, nil
}

func (s *Source) checkSheet(sheet string) error {
	if sheet != "" && sheet != s.name {
		return fmt.Errorf("sheet %q not found", sheet)
	}
	return nil
}

// Headers implements source.Source.
func (s *Source) Headers(sheet string, headerRow int) ([]string, error) {
	if err := s.checkSheet(sheet); err != nil {
		return nil, err
	}
	return source.TrimHeaders(s.record(headerRow)), nil
}

// Rows implements source.Source. Empty fields are null, decimal numbers
// are numbers and everything else is a string.
func (s *Source) Rows(sheet string, headerRow, startRow int) iter.Seq2[source.Record, error] {
	return func(yield func(source.Record, error) bool) {
		headers, err := s.Headers(sheet, headerRow)
		if err != nil {
			yield(source.Record{}, err)
			return
		}
		if len(headers) == 0 {
			return
		}

		first, _ := slices.BinarySearch(s.lines, startRow)
		for i := first; i < len(s.records); i++ {
			fields := s.records[i]
			cells := make([]value.Value, len(fields))
			for j, f := range fields {
				cells[j] = cellValue(f)
			}
			row, ok := source.BuildRow(headers, cells)
			if !ok {
				continue
			}
			if !yield(source.Record{Position: s.lines[i], Row: row}, nil) {
				return
			}
		}
	}
}

// cellValue types one field. Only plain decimal notation counts as a
// number; "1,000", "0x1F", "NaN" and "Inf" stay strings.
func cellValue(f string) value.Value {
	if f == "" {
		return value.Null()
	}
	trimmed := strings.TrimSpace(f)
	if trimmed != "" && strings.Trim(trimmed, "+-.0123456789eE") == "" {
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return value.Number(n)
		}
	}
	return value.String(f)
}
