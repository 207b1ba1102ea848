// Package sqldb reads rows from SQL databases through database/sql.
//
// A sheet is a table name (optionally schema-qualified) or a SELECT
// query. Header and start rows do not apply: every result row is a
// record and the result columns are the headers.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdoc/internal/source"
	"github.com/leapstack-labs/leapdoc/internal/value"
)

// Dialect holds the per-database SQL the source needs.
type Dialect struct {
	Name string
	// ListTables returns one column of table names, sorted.
	ListTables string
	// QuoteChar quotes identifiers.
	QuoteChar byte
}

// Source is an open database connection.
type Source struct {
	DB      *sql.DB
	Dialect Dialect
	Logger  *slog.Logger

	// ctx bounds every query issued through the source.
	ctx context.Context
}

var _ source.Source = (*Source)(nil)

// NewSource wraps an open database.
func NewSource(ctx context.Context, db *sql.DB, d Dialect, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{DB: db, Dialect: d, Logger: logger, ctx: ctx}
}

// Close closes the database connection.
func (s *Source) Close() error {
	if s.DB != nil {
		s.Logger.Debug("closing database connection", "dialect", s.Dialect.Name)
		err := s.DB.Close()
		s.DB = nil
		return err
	}
	return nil
}

// SheetNames lists the tables and views of the current schema.
func (s *Source) SheetNames() ([]string, error) {
	if s.DB == nil {
		return nil, errors.New("database connection not established")
	}
	rows, err := s.DB.QueryContext(s.ctx, s.Dialect.ListTables)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// IsQuery reports whether sheet is a query rather than a table name.
func IsQuery(sheet string) bool {
	fields := strings.Fields(sheet)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH", "VALUES", "TABLE":
		return true
	default:
		return false
	}
}

// quoteIdent quotes a possibly schema-qualified table name.
func (s *Source) quoteIdent(name string) string {
	q := string(s.Dialect.QuoteChar)
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = q + strings.ReplaceAll(p, q, q+q) + q
	}
	return strings.Join(parts, ".")
}

// statement returns the query that reads sheet. An empty sheet reads the
// first table.
func (s *Source) statement(sheet string) (string, error) {
	sheet = strings.TrimSpace(sheet)
	if IsQuery(sheet) {
		return strings.TrimSuffix(sheet, ";"), nil
	}
	if sheet == "" {
		names, err := s.SheetNames()
		if err != nil {
			return "", err
		}
		if len(names) == 0 {
			return "", errors.New("database has no tables")
		}
		sheet = names[0]
	}
	return "SELECT * FROM " + s.quoteIdent(sheet), nil
}

// Headers returns the result columns of sheet. headerRow is ignored.
func (s *Source) Headers(sheet string, _ int) ([]string, error) {
	if s.DB == nil {
		return nil, errors.New("database connection not established")
	}
	stmt, err := s.statement(sheet)
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(s.ctx, "SELECT * FROM ("+stmt+") AS leapdoc_src LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()
	return rows.Columns()
}

// Rows yields every result row of sheet. headerRow and startRow are
// ignored; positions count result rows from 1.
func (s *Source) Rows(sheet string, _, _ int) iter.Seq2[source.Record, error] {
	return func(yield func(source.Record, error) bool) {
		if s.DB == nil {
			yield(source.Record{}, errors.New("database connection not established"))
			return
		}
		stmt, err := s.statement(sheet)
		if err != nil {
			yield(source.Record{}, err)
			return
		}

		s.Logger.Debug("reading rows", "dialect", s.Dialect.Name, "query", stmt)
		rows, err := s.DB.QueryContext(s.ctx, stmt)
		if err != nil {
			yield(source.Record{}, fmt.Errorf("failed to execute query: %w", err))
			return
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			yield(source.Record{}, fmt.Errorf("failed to read columns: %w", err))
			return
		}

		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}

		pos := 0
		for rows.Next() {
			if err := rows.Scan(ptrs...); err != nil {
				yield(source.Record{}, fmt.Errorf("failed to scan row: %w", err))
				return
			}
			pos++
			cells := make([]value.Value, len(raw))
			for i, v := range raw {
				cells[i] = value.FromGo(v)
			}
			row, ok := source.BuildRow(columns, cells)
			if !ok {
				continue
			}
			if !yield(source.Record{Position: pos, Row: row}, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(source.Record{}, fmt.Errorf("failed to read rows: %w", err))
		}
	}
}
