package commands

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdoc/internal/cli/output"
	"github.com/leapstack-labs/leapdoc/internal/generate"
	"github.com/leapstack-labs/leapdoc/internal/render"
	"github.com/leapstack-labs/leapdoc/internal/source"
)

// PreviewOptions holds options for the preview command.
type PreviewOptions struct {
	Job JobOptions
	Row int
}

// previewResult is the JSON form of a preview.
type previewResult struct {
	Row      int               `json:"row"`
	Position int               `json:"source_row"`
	Filename string            `json:"filename"`
	Values   map[string]string `json:"values"`
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand() *cobra.Command {
	opts := &PreviewOptions{}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the placeholder values for one data row",
		Long: `Resolve every template placeholder against one data row and print the
values and the output file name, without writing any document.`,
		Example: `  # Preview the first row
  leapdoc preview -m letters.json

  # Preview the third row as JSON
  leapdoc preview -m letters.json --row 3 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPreview(cmd, opts)
		},
	}

	opts.Job.AddFlags(cmd.Flags())
	cmd.Flags().IntVar(&opts.Row, "row", 1, "1-based data row to preview")

	return cmd
}

func runPreview(cmd *cobra.Command, opts *PreviewOptions) error {
	cc := NewCommandContext(cmd)

	j, err := loadJob(cc.Cfg, &opts.Job, true)
	if err != nil {
		return err
	}
	if err := j.require("excel_file", "template_file"); err != nil {
		return err
	}

	renderer, err := render.New(render.Config{TemplatePath: j.templatePath(), Logger: cc.Logger})
	if err != nil {
		return err
	}
	location := j.dataLocation()
	src, err := source.Open(cmd.Context(), location, cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	m := j.mapping
	headerRow := max(m.HeaderRow, 1)
	startRow := m.StartRow
	if startRow < 1 {
		startRow = headerRow + 1
	}
	records, err := source.Collect(src, m.SheetName, headerRow, startRow)
	if err != nil {
		return &source.RowSourceError{Location: location, Cause: err}
	}
	if len(records) == 0 {
		return generate.ErrNoRows
	}
	if opts.Row < 1 || opts.Row > len(records) {
		return fmt.Errorf("row %d out of range, the source has %d data rows", opts.Row, len(records))
	}

	rec := records[opts.Row-1]
	row := generate.RowFor(opts.Row, rec)
	res := previewResult{
		Row:      opts.Row,
		Position: rec.Position,
		Filename: renderer.GenerateFilename(m.OutputFilenamePattern, row, opts.Row),
		Values:   renderer.Preview(row, m.Mappings()),
	}
	return printPreview(cc.Renderer, res)
}

func printPreview(r *output.Renderer, res previewResult) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res)
	}

	r.Header(1, fmt.Sprintf("Preview of row %d", res.Row))
	r.KeyValue("Source row", fmt.Sprint(res.Position))
	r.KeyValue("File", r.Path(filepath.Base(res.Filename)))
	r.Println()

	names := make([]string, 0, len(res.Values))
	for name := range res.Values {
		names = append(names, name)
	}
	slices.Sort(names)

	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{name, res.Values[name]}
	}
	r.Table([]string{"Placeholder", "Value"}, rows)
	return nil
}
