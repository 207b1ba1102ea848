package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdoc/internal/cli/output"
	"github.com/leapstack-labs/leapdoc/internal/generate"
	"github.com/leapstack-labs/leapdoc/internal/render"
	"github.com/leapstack-labs/leapdoc/internal/source"
)

// GenerateOptions holds options for the generate command.
type GenerateOptions struct {
	Job        JobOptions
	JSONOutput bool
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one document per data row",
		Long: `Render the template once for every row of the row source.

Settings come from the mapping file (--mapping) and can be overridden with
flags. By default the first failing row stops the batch; use --keep-going to
record failures and continue.`,
		Example: `  # Generate from a saved mapping file
  leapdoc generate --mapping letters.json

  # Generate without a mapping file; placeholders map to same-named columns
  leapdoc generate -t letter.docx -d customers.xlsx --output-dir out --pattern '{{name}}'

  # Render four documents at a time and keep going past failures
  leapdoc generate -m letters.json --workers 4 --keep-going

  # Emit JSON lines for scripts
  leapdoc generate -m letters.json --json`,
		Aliases: []string{"run"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}

	opts.Job.AddFlags(cmd.Flags())
	addBatchFlags(cmd)
	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "Output as JSON lines for progress tracking")

	return cmd
}

// addBatchFlags registers the flags shared by generate and watch. Their
// values reach the commands through the loaded config.
func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().Int("workers", 1, "Number of documents rendered concurrently")
	cmd.Flags().Bool("keep-going", false, "Record failing rows and continue")
}

func runGenerate(cmd *cobra.Command, opts *GenerateOptions) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	j, err := loadJob(cc.Cfg, &opts.Job, true)
	if err != nil {
		return err
	}
	if err := j.require("excel_file", "template_file", "output_directory"); err != nil {
		return err
	}

	jsonOut := opts.JSONOutput || r.EffectiveMode() == output.ModeJSON
	progress := textProgress(r)
	if jsonOut {
		progress = jsonProgress(r)
	} else {
		r.Header(1, "Generating documents")
		r.KeyValue("Template", j.templatePath())
		r.KeyValue("Data", j.dataLocation())
		r.KeyValue("Output", j.outputDir())
		r.Println()
	}

	result, err := executeJob(cmd.Context(), cc, j, progress)
	if jsonOut {
		emitComplete(r, result, err)
	}
	return report(r, result, err, !jsonOut)
}

// executeJob runs one batch for j.
func executeJob(ctx context.Context, cc *CommandContext, j *job, progress func(generate.Progress)) (*generate.Result, error) {
	renderer, err := render.New(render.Config{TemplatePath: j.templatePath(), Logger: cc.Logger})
	if err != nil {
		return nil, err
	}

	location := j.dataLocation()
	src, err := source.Open(ctx, location, cc.Logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	m := j.mapping
	opts := generate.Options{
		Source:          src,
		SourceName:      location,
		Sheet:           m.SheetName,
		HeaderRow:       m.HeaderRow,
		StartRow:        m.StartRow,
		Renderer:        renderer,
		Mappings:        m.Mappings(),
		FilenamePattern: m.OutputFilenamePattern,
		OutputDir:       j.outputDir(),
		Workers:         cc.Cfg.Workers,
		KeepGoing:       cc.Cfg.KeepGoing,
		Progress:        progress,
	}

	if cc.Cfg.History {
		store, err := openStore(cc.Cfg, cc.Logger)
		if err != nil {
			cc.Logger.Warn("run history disabled", "error", err)
		} else {
			defer func() { _ = store.Close() }()
			opts.Store = store
		}
	}

	return generate.New(cc.Logger).Run(ctx, opts)
}

func textProgress(r *output.Renderer) func(generate.Progress) {
	return func(p generate.Progress) {
		line := fmt.Sprintf("[%d/%d] %s", p.Current, p.Total, p.Message)
		if p.Err != nil {
			r.Fail(line)
			return
		}
		r.Muted(line)
	}
}

func jsonProgress(r *output.Renderer) func(generate.Progress) {
	return func(p generate.Progress) {
		ev := &output.RunEvent{
			Event:   "row_complete",
			Current: p.Current,
			Total:   p.Total,
			Path:    p.Path,
			Status:  "success",
		}
		if p.Err != nil {
			ev.Status = "failed"
			ev.Error = p.Err.Error()
		}
		_ = r.Event(ev)
	}
}

func emitComplete(r *output.Renderer, result *generate.Result, err error) {
	ev := &output.RunEvent{Event: "run_complete", Status: "completed"}
	if result != nil {
		ev.RunID = result.RunID
		ev.Total = result.Total
		ev.Generated = result.Generated
		ev.Failed = len(result.Failures)
		ev.Cancelled = result.Cancelled
		ev.DurationMS = result.Duration.Milliseconds()
		if ev.Failed > 0 {
			ev.Status = "partial"
		}
		if result.Cancelled {
			ev.Status = "cancelled"
		}
	}
	if err != nil {
		ev.Status = "failed"
		ev.Error = err.Error()
	}
	_ = r.Event(ev)
}

// report prints the outcome of a batch and returns the command error.
func report(r *output.Renderer, result *generate.Result, err error, verbose bool) error {
	if result == nil {
		return err
	}
	if err != nil {
		var rowErr *generate.RowError
		if errors.As(err, &rowErr) && verbose {
			r.Println()
			r.Fail(fmt.Sprintf("Stopped after %d of %d files", result.Generated, result.Total))
		}
		return err
	}

	if result.Cancelled {
		return errors.New(result.Message())
	}

	if verbose {
		r.Println()
		if len(result.Failures) > 0 {
			r.Fail(result.Message())
			r.Println()
			rows := make([][]string, len(result.Failures))
			for i, f := range result.Failures {
				rows[i] = []string{strconv.Itoa(f.Index), strconv.Itoa(f.Position), filepath.Base(f.Path), f.Cause.Error()}
			}
			r.Table([]string{"Row", "Source row", "File", "Error"}, rows)
		} else {
			r.Success(result.Message())
		}
		if result.RunID != "" {
			r.KeyValue("Run", result.RunID)
		}
		r.KeyValue("Duration", result.Duration.Round(time.Millisecond).String())
	}

	if len(result.Failures) > 0 {
		return fmt.Errorf("%d of %d rows failed", len(result.Failures), result.Total)
	}
	return nil
}
