package source

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdoc/internal/value"
)

// memSource serves fixed records.
type memSource struct {
	records []Record
	err     error
}

func (m *memSource) SheetNames() ([]string, error) { return []string{"mem"}, nil }

func (m *memSource) Headers(string, int) ([]string, error) { return []string{"a"}, nil }

func (m *memSource) Rows(string, int, int) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, r := range m.records {
			if !yield(r, nil) {
				return
			}
		}
		if m.err != nil {
			yield(Record{}, m.err)
		}
	}
}

func (m *memSource) Close() error { return nil }

func TestScheme(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"customers.xlsx", "xlsx"},
		{"Customers.XLSM", "xlsx"},
		{"data/people.csv", "csv"},
		{"people.tsv", "csv"},
		{"crm.db", "sqlite"},
		{"warehouse.duckdb", "duckdb"},
		{"postgres://user@host/db", "postgres"},
		{"SQLITE://crm.db", "sqlite"},
		{"notes.txt", ""},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, Scheme(tt.location))
		})
	}
}

func TestOpen(t *testing.T) {
	Register("memtest", func(_ context.Context, location string, _ *slog.Logger) (Source, error) {
		if location == "memtest://broken" {
			return nil, errors.New("boom")
		}
		return &memSource{}, nil
	})

	src, err := Open(context.Background(), "memtest://ok", nil)
	require.NoError(t, err)
	assert.NoError(t, src.Close())
	assert.Contains(t, ListSchemes(), "memtest")

	_, err = Open(context.Background(), "memtest://broken", nil)
	var rsErr *RowSourceError
	require.ErrorAs(t, err, &rsErr)
	assert.Equal(t, "memtest://broken", rsErr.Location)
	assert.EqualError(t, rsErr.Cause, "boom")

	_, err = Open(context.Background(), "notes.txt", nil)
	var unknown *UnknownSchemeError
	require.ErrorAs(t, err, &unknown)
	assert.Empty(t, unknown.Scheme)
}

func TestTrimHeaders(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, TrimHeaders([]string{"a", "b", "", "d"}))
	assert.Equal(t, []string{"a"}, TrimHeaders([]string{"a"}))
	assert.Empty(t, TrimHeaders([]string{"", "b"}))
}

func TestBuildRow(t *testing.T) {
	headers := []string{"name", "qty"}

	row, ok := BuildRow(headers, []value.Value{value.String("Ann"), value.Number(3), value.String("dropped")})
	require.True(t, ok)
	assert.Equal(t, []string{"name", "qty"}, row.Columns())
	assert.Equal(t, "Ann", row.Value("name").String())

	row, ok = BuildRow(headers, []value.Value{value.String("Bob")})
	require.True(t, ok)
	assert.True(t, row.Value("qty").IsNull(), "missing cells are null")

	_, ok = BuildRow(headers, []value.Value{value.Null()})
	assert.False(t, ok, "fully empty rows are reported")

	row, _ = BuildRow([]string{"x", "x"}, []value.Value{value.Number(1), value.Number(2)})
	assert.Equal(t, 1, row.Len())
	assert.Equal(t, "2", row.Value("x").String())
}

func TestCollect(t *testing.T) {
	recs := []Record{{Position: 2}, {Position: 3}}

	got, err := Collect(&memSource{records: recs}, "", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, recs, got)

	_, err = Collect(&memSource{records: recs, err: errors.New("read failed")}, "", 1, 2)
	assert.EqualError(t, err, "read failed")
}
