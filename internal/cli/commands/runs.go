package commands

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdoc/internal/cli/output"
	"github.com/leapstack-labs/leapdoc/internal/state"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded generation runs",
		Long: `List past generate runs from the run history database, newest first.

Use 'runs show <id>' for the per-row outcome of one run.`,
		Example: `  # Show the last 20 runs
  leapdoc runs

  # Show every run as JSON
  leapdoc runs --limit 0 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRuns(cmd, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")

	cmd.AddCommand(newRunsShowCommand())
	return cmd
}

func newRunsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the rows of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsShow(cmd, args[0])
		},
	}
}

func runRuns(cmd *cobra.Command, limit int) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	if !fileExists(cc.Cfg.StatePath) {
		return printRuns(r, nil)
	}
	store, err := openStore(cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	infos := make([]output.RunInfo, len(runs))
	for i, run := range runs {
		infos[i] = runInfo(run)
	}
	return printRuns(r, infos)
}

func runRunsShow(cmd *cobra.Command, id string) error {
	cc := NewCommandContext(cmd)

	store, err := openStore(cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	rows, err := store.GetRunRows(cmd.Context(), id)
	if err != nil {
		return err
	}

	detail := output.RunDetail{RunInfo: runInfo(run), Rows: make([]output.RunRowInfo, len(rows))}
	for i, row := range rows {
		detail.Rows[i] = output.RunRowInfo{
			Index:      row.Index,
			Position:   row.Position,
			OutputPath: row.OutputPath,
			Status:     string(row.Status),
			Error:      row.Error,
		}
	}
	return printRunDetail(cc.Renderer, detail)
}

func runInfo(run *state.Run) output.RunInfo {
	info := output.RunInfo{
		ID:        run.ID,
		Status:    string(run.Status),
		Template:  run.Template,
		Source:    run.Source,
		OutputDir: run.OutputDir,
		Total:     run.Total,
		Generated: run.Generated,
		Failed:    run.Failed,
		StartedAt: run.StartedAt.Format(time.RFC3339),
		Error:     run.Error,
	}
	if run.CompletedAt != nil {
		info.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	return info
}

func printRuns(r *output.Renderer, runs []output.RunInfo) error {
	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []output.RunInfo{}
		}
		return r.JSON(runs)
	}

	r.Header(1, "Runs")
	if len(runs) == 0 {
		r.Muted("No runs recorded")
		return nil
	}
	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			run.ID,
			run.Status,
			run.StartedAt,
			strconv.Itoa(run.Generated) + "/" + strconv.Itoa(run.Total),
			strconv.Itoa(run.Failed),
			filepath.Base(run.Template),
		}
	}
	r.Table([]string{"ID", "Status", "Started", "Generated", "Failed", "Template"}, rows)
	return nil
}

func printRunDetail(r *output.Renderer, d output.RunDetail) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(d)
	}

	r.Header(1, "Run "+d.ID)
	r.KeyValue("Status", d.Status)
	r.KeyValue("Template", d.Template)
	r.KeyValue("Data", d.Source)
	r.KeyValue("Output", d.OutputDir)
	r.KeyValue("Started", d.StartedAt)
	if d.CompletedAt != "" {
		r.KeyValue("Completed", d.CompletedAt)
	}
	r.KeyValue("Generated", strconv.Itoa(d.Generated)+" of "+strconv.Itoa(d.Total))
	if d.Error != "" {
		r.KeyValue("Error", d.Error)
	}
	if len(d.Rows) == 0 {
		return nil
	}

	r.Println()
	rows := make([][]string, len(d.Rows))
	for i, row := range d.Rows {
		rows[i] = []string{strconv.Itoa(row.Index), strconv.Itoa(row.Position), filepath.Base(row.OutputPath), row.Status, row.Error}
	}
	r.Table([]string{"Row", "Source row", "File", "Status", "Error"}, rows)
	return nil
}
