package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdoc/internal/cli/output"
	"github.com/leapstack-labs/leapdoc/internal/source"
)

// InspectOptions holds options for the inspect command.
type InspectOptions struct {
	Sheet     string
	HeaderRow int
	Rows      int
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <data>",
		Short: "List the sheets and headers of a row source",
		Long: `Show the sheets (or tables) of a row source with their column headers.

Locations are spreadsheet files (.xlsx, .xlsm), CSV or TSV files, SQLite or
DuckDB files, or DSNs such as sqlite://path, duckdb://path and postgres://...`,
		Example: `  # List every sheet
  leapdoc inspect customers.xlsx

  # Show the first five rows of one sheet
  leapdoc inspect customers.xlsx --sheet Customers --rows 5

  # Inspect a SQL query
  leapdoc inspect crm.db --sheet "SELECT name, city FROM customers"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "Only inspect this sheet, table or query")
	cmd.Flags().IntVar(&opts.HeaderRow, "header-row", 1, "Row holding the column headers")
	cmd.Flags().IntVar(&opts.Rows, "rows", 0, "Number of data rows to show per sheet")

	return cmd
}

func runInspect(cmd *cobra.Command, location string, opts *InspectOptions) error {
	cc := NewCommandContext(cmd)

	src, err := source.Open(cmd.Context(), absLocation(location), cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	sheets, err := inspectSheets(src, opts)
	if err != nil {
		return &source.RowSourceError{Location: location, Cause: err}
	}
	return printSheets(cc.Renderer, location, sheets)
}

// inspectSheets reads the headers, and with opts.Rows the first rows, of
// the selected sheets.
func inspectSheets(src source.Source, opts *InspectOptions) ([]output.SheetInfo, error) {
	names := []string{opts.Sheet}
	if opts.Sheet == "" {
		var err error
		if names, err = src.SheetNames(); err != nil {
			return nil, err
		}
	}

	headerRow := max(opts.HeaderRow, 1)
	sheets := make([]output.SheetInfo, 0, len(names))
	for _, name := range names {
		headers, err := src.Headers(name, headerRow)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		info := output.SheetInfo{Name: name, Headers: headers}
		if info.Headers == nil {
			info.Headers = []string{}
		}

		if opts.Rows > 0 {
			for rec, err := range src.Rows(name, headerRow, headerRow+1) {
				if err != nil {
					return nil, fmt.Errorf("sheet %q: %w", name, err)
				}
				info.Rows = append(info.Rows, stringRow(rec))
				if len(info.Rows) == opts.Rows {
					break
				}
			}
		}
		sheets = append(sheets, info)
	}
	return sheets, nil
}

func stringRow(rec source.Record) map[string]string {
	out := make(map[string]string, rec.Row.Len())
	for _, col := range rec.Row.Columns() {
		out[col] = rec.Row.Value(col).String()
	}
	return out
}

func printSheets(r *output.Renderer, location string, sheets []output.SheetInfo) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(sheets)
	}

	r.Header(1, fmt.Sprintf("Sheets (%d total)", len(sheets)))
	r.KeyValue("Source", location)
	r.Println()

	for _, s := range sheets {
		r.Header(2, s.Name)
		if len(s.Headers) == 0 {
			r.Muted("No headers")
			r.Println()
			continue
		}
		r.KeyValue("Columns", strings.Join(s.Headers, ", "))
		if len(s.Rows) > 0 {
			rows := make([][]string, len(s.Rows))
			for i, row := range s.Rows {
				cells := make([]string, len(s.Headers))
				for j, h := range s.Headers {
					cells[j] = row[h]
				}
				rows[i] = cells
			}
			r.Println()
			r.Table(s.Headers, rows)
		}
		r.Println()
	}
	return nil
}
