package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdoc/internal/cli/output"
	"github.com/leapstack-labs/leapdoc/internal/render"
	"github.com/leapstack-labs/leapdoc/internal/source"
)

// AutomapOptions holds options for the automap command.
type AutomapOptions struct {
	Job    JobOptions
	DryRun bool
}

// automapResult is the JSON form of an automap run.
type automapResult struct {
	Mapping  string   `json:"mapping"`
	Mapped   []string `json:"mapped"`
	Unmapped []string `json:"unmapped"`
	Written  bool     `json:"written"`
}

// NewAutomapCommand creates the automap command.
func NewAutomapCommand() *cobra.Command {
	opts := &AutomapOptions{}

	cmd := &cobra.Command{
		Use:   "automap",
		Short: "Map placeholders to same-named columns",
		Long: `Create or update a mapping file: every template placeholder whose name
exactly matches a column header gets a direct rule. Existing rules for other
placeholders are kept. Job settings given as flags are saved too.`,
		Example: `  # Start a mapping file for a template and spreadsheet
  leapdoc automap -m letters.json -t letter.docx -d customers.xlsx --output-dir out

  # Show what would be mapped without writing
  leapdoc automap -m letters.json --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAutomap(cmd, opts)
		},
	}

	opts.Job.AddFlags(cmd.Flags())
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report the result without writing the mapping file")

	return cmd
}

func runAutomap(cmd *cobra.Command, opts *AutomapOptions) error {
	cc := NewCommandContext(cmd)
	if cc.Cfg.Mapping == "" && !opts.DryRun {
		return errors.New("no mapping file given\nHint: use --mapping to name the file to create or update, or --dry-run")
	}

	j, err := loadJob(cc.Cfg, &opts.Job, false)
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
	src, err := source.Open(cmd.Context(), j.dataLocation(), cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	headers, err := src.Headers(j.mapping.SheetName, j.mapping.HeaderRow)
	if err != nil {
		return &source.RowSourceError{Location: j.dataLocation(), Cause: err}
	}

	placeholders := renderer.Placeholders()
	res := automapResult{
		Mapping: cc.Cfg.Mapping,
		Mapped:  j.mapping.AutoMap(headers, placeholders),
	}
	res.Unmapped = j.mapping.Unmapped(placeholders)

	if !opts.DryRun {
		if err := j.mapping.Save(cc.Cfg.Mapping); err != nil {
			return err
		}
		res.Written = true
		cc.Logger.Debug("mapping saved", "path", cc.Cfg.Mapping, "rules", len(j.mapping.Rules))
	}

	return printAutomap(cc.Renderer, res)
}

func printAutomap(r *output.Renderer, res automapResult) error {
	if r.EffectiveMode() == output.ModeJSON {
		if res.Mapped == nil {
			res.Mapped = []string{}
		}
		if res.Unmapped == nil {
			res.Unmapped = []string{}
		}
		return r.JSON(res)
	}

	r.Header(1, "Auto-map")
	r.KeyValue("Mapped", fmt.Sprintf("%d (%s)", len(res.Mapped), strings.Join(res.Mapped, ", ")))
	if len(res.Unmapped) > 0 {
		r.Warning(fmt.Sprintf("%d placeholders have no rule: %s", len(res.Unmapped), strings.Join(res.Unmapped, ", ")))
	}
	if res.Written {
		r.Success("Saved " + r.Path(res.Mapping))
	} else {
		r.Muted("Dry run, nothing written")
	}
	return nil
}
