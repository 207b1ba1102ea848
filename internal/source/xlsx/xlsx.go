// Package xlsx reads rows from Excel workbooks.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/leapstack-labs/leapdoc/internal/source"
	"github.com/leapstack-labs/leapdoc/internal/value"
)

func init() {
	source.Register("xlsx", func(_ context.Context, location string, logger *slog.Logger) (source.Source, error) {
		src, err := Open(strings.TrimPrefix(location, "xlsx://"), logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	})
}

// Source is an open workbook.
type Source struct {
	path   string
	file   *excelize.File
	logger *slog.Logger

	dateStyles map[int]bool
}

var _ source.Source = (*Source)(nil)

// Open opens the workbook at path.
func Open(path string, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return &Source{path: path, file: f, logger: logger, dateStyles: make(map[int]bool)}, nil
}

// Close implements source.Source.
func (s *Source) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// SheetNames implements source.Source.
func (s *Source) SheetNames() ([]string, error) {
	if s.file == nil {
		return nil, errors.New("workbook not opened")
	}
	return s.file.GetSheetList(), nil
}

// sheet resolves an empty name to the active sheet.
func (s *Source) sheet(name string) (string, error) {
	if s.file == nil {
		return "", errors.New("workbook not opened")
	}
	if name != "" {
		if idx, err := s.file.GetSheetIndex(name); err != nil || idx < 0 {
			return "", fmt.Errorf("sheet %q not found", name)
		}
		return name, nil
	}
	active := s.file.GetSheetName(s.file.GetActiveSheetIndex())
	if active == "" {
		list := s.file.GetSheetList()
		if len(list) == 0 {
			return "", errors.New("workbook has no sheets")
		}
		active = list[0]
	}
	return active, nil
}

// Headers implements source.Source.
func (s *Source) Headers(sheet string, headerRow int) ([]string, error) {
	name, err := s.sheet(sheet)
	if err != nil {
		return nil, err
	}
	rows, err := s.file.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}
	if headerRow < 1 || headerRow > len(rows) {
		return []string{}, nil
	}
	return source.TrimHeaders(rows[headerRow-1]), nil
}

// Rows implements source.Source.
func (s *Source) Rows(sheet string, headerRow, startRow int) iter.Seq2[source.Record, error] {
	return func(yield func(source.Record, error) bool) {
		name, err := s.sheet(sheet)
		if err != nil {
			yield(source.Record{}, err)
			return
		}
		headers, err := s.Headers(name, headerRow)
		if err != nil {
			yield(source.Record{}, err)
			return
		}
		if len(headers) == 0 {
			return
		}

		formatted, err := s.file.GetRows(name)
		if err != nil {
			yield(source.Record{}, fmt.Errorf("failed to read sheet %q: %w", name, err))
			return
		}
		raw, err := s.file.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			yield(source.Record{}, fmt.Errorf("failed to read sheet %q: %w", name, err))
			return
		}

		start := max(startRow, 1)
		for rowNum := start; rowNum <= len(formatted); rowNum++ {
			cells := make([]value.Value, len(headers))
			for col := range headers {
				cells[col] = s.cell(name, rowNum, col+1, at(raw, rowNum, col), at(formatted, rowNum, col))
			}
			row, ok := source.BuildRow(headers, cells)
			if !ok {
				continue
			}
			if !yield(source.Record{Position: rowNum, Row: row}, nil) {
				return
			}
		}
	}
}

func at(rows [][]string, rowNum, col int) string {
	if rowNum-1 >= len(rows) {
		return ""
	}
	r := rows[rowNum-1]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// cell types a cell. Numbers and booleans keep their kind, numbers shown
// as dates use their displayed text, everything else is a string.
func (s *Source) cell(sheet string, rowNum, col int, raw, formatted string) value.Value {
	if raw == "" && formatted == "" {
		return value.Null()
	}
	ref, err := excelize.CoordinatesToCellName(col, rowNum)
	if err != nil {
		return value.String(formatted)
	}
	typ, err := s.file.GetCellType(sheet, ref)
	if err != nil {
		return value.String(formatted)
	}

	switch typ {
	case excelize.CellTypeBool:
		return value.Bool(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return value.String(formatted)
		}
		if s.isDateCell(sheet, ref) {
			return value.String(formatted)
		}
		return value.Number(n)
	default:
		return value.String(formatted)
	}
}

func (s *Source) isDateCell(sheet, ref string) bool {
	styleID, err := s.file.GetCellStyle(sheet, ref)
	if err != nil || styleID == 0 {
		return false
	}
	if isDate, ok := s.dateStyles[styleID]; ok {
		return isDate
	}

	isDate := false
	if style, err := s.file.GetStyle(styleID); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			isDate = isDateFormat(*style.CustomNumFmt)
		} else {
			isDate = isBuiltinDateFormat(style.NumFmt)
		}
	}
	s.dateStyles[styleID] = isDate
	return isDate
}

// isBuiltinDateFormat reports whether a built-in number format id is a
// date or time format, including the East Asian ones.
func isBuiltinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	default:
		return false
	}
}

// isDateFormat reports whether a custom number format code shows a date
// or time: it has a d, m, y, h or s token outside quoted text, escapes
// and bracketed sections.
func isDateFormat(code string) bool {
	// only the first section applies to positive numbers
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}
	inQuote := false
	inBracket := false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			if c == '"' {
				inQuote = false
			}
		case inBracket:
			if c == ']' {
				inBracket = false
			}
		case c == '"':
			inQuote = true
		case c == '[':
			// [h], [mm] and [ss] are elapsed time
			if end := strings.IndexByte(code[i:], ']'); end > 1 && isElapsed(strings.ToLower(code[i+1:i+end])) {
				return true
			}
			inBracket = true
		case c == '\\' || c == '_' || c == '*':
			i++
		default:
			switch c | 0x20 {
			case 'd', 'm', 'y', 'h', 's':
				return true
			}
		}
	}
	return false
}

func isElapsed(s string) bool {
	return strings.Trim(s, "h") == "" || strings.Trim(s, "m") == "" || strings.Trim(s, "s") == ""
}
