package csvfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdoc/internal/expr"
	"github.com/leapstack-labs/leapdoc/internal/source"
	"github.com/leapstack-labs/leapdoc/internal/value"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestSource_Rows(t *testing.T) {
	path := write(t, "clients.csv", "\xEF\xBB\xBFname,amount,,extra\nAnn,10,x,y\n,,\n\nBob,\"1,000\"\n")

	src, err := Open(path, nil)
	require.NoError(t, err)

	names, err := src.SheetNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"clients"}, names)

	headers, err := src.Headers("", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "amount"}, headers, "BOM stripped, stops at the first empty header")

	records, err := source.Collect(src, "clients", 1, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 2, records[0].Position)
	assert.Equal(t, value.KindNumber, records[0].Row.Value("amount").Kind())
	assert.Equal(t, "10", records[0].Row.Value("amount").String())
	assert.Equal(t, 5, records[1].Position, "positions are line numbers")
	assert.Equal(t, value.String("1,000"), records[1].Row.Value("amount"), "grouped numbers stay strings")
}

func TestSource_Delimiters(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"semicolon", "a.csv", "x;y\n1;2\n"},
		{"tab", "a.tsv", "x\ty\n1\t2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Open(write(t, tt.file, tt.content), nil)
			require.NoError(t, err)
			records, err := source.Collect(src, "", 1, 2)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.True(t, value.Equal(value.Number(2), records[0].Row.Value("y")))
		})
	}
}

func TestSource_UnknownSheet(t *testing.T) {
	src, err := Open(write(t, "a.csv", "x\n1\n"), nil)
	require.NoError(t, err)
	_, err = src.Headers("Sheet1", 1)
	assert.Error(t, err)

	_, err = Open(filepath.Join(t.TempDir(), "absent.csv"), nil)
	assert.Error(t, err)
}

func TestScheme(t *testing.T) {
	assert.Equal(t, "csv", source.Scheme("data/Clients.CSV"))
	assert.Equal(t, "xlsx", source.Scheme("book.xlsx"))
	assert.Equal(t, "postgres", source.Scheme("postgres://localhost/db"))
	assert.Equal(t, "", source.Scheme("notes.pdf"))
}

func TestCellValue(t *testing.T) {
	tests := []struct {
		field string
		want  value.Value
	}{
		{"", value.Null()},
		{"10", value.Number(10)},
		{" 2.5 ", value.Number(2.5)},
		{"-3", value.Number(-3)},
		{"1e3", value.Number(1000)},
		{"007", value.Number(7)},
		{"1,000", value.String("1,000")},
		{"0x1F", value.String("0x1F")},
		{"NaN", value.String("NaN")},
		{"Inf", value.String("Inf")},
		{"e", value.String("e")},
		{"   ", value.String("   ")},
		{"Ann", value.String("Ann")},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got := cellValue(tt.field)
			assert.Equal(t, tt.want.Kind(), got.Kind())
			assert.Equal(t, tt.want.String(), got.String())
		})
	}
}

func TestSource_ArithmeticOnNumericFields(t *testing.T) {
	src, err := Open(write(t, "order.csv", "price,qty\n10,3\n"), nil)
	require.NoError(t, err)

	records, err := source.Collect(src, "", 1, 2)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got, err := expr.New().Evaluate("{{price}} * {{qty}}", records[0].Row)
	require.NoError(t, err)
	assert.Equal(t, "30", got.String())
}
