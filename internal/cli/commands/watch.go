package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdoc/internal/cli/config"
	"github.com/leapstack-labs/leapdoc/internal/watch"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Job JobOptions
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate documents when the template, data or mapping changes",
		Long: `Generate all documents once, then again every time the template, the
row source file or the mapping file is saved. Failed runs are reported and
watching continues. Stop with Ctrl+C.`,
		Example: `  # Regenerate on every save
  leapdoc watch -m letters.json

  # Wait one second of quiet before regenerating
  leapdoc watch -m letters.json --debounce 1s --keep-going`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	opts.Job.AddFlags(cmd.Flags())
	addBatchFlags(cmd)
	cmd.Flags().Duration("debounce", config.DefaultDebounce, "Quiet period before regenerating")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	j, err := loadJob(cc.Cfg, &opts.Job, true)
	if err != nil {
		return err
	}
	if err := j.require("excel_file", "template_file", "output_directory"); err != nil {
		return err
	}

	files := watchedFiles(cc.Cfg, j)
	w, err := watch.New(watch.Config{Files: files, Debounce: cc.Cfg.Watch.Debounce, Logger: cc.Logger})
	if err != nil {
		return err
	}

	generateOnce := func(ctx context.Context) {
		// the mapping file may have changed since the last run
		j, err := loadJob(cc.Cfg, &opts.Job, true)
		if err == nil {
			err = j.require("excel_file", "template_file", "output_directory")
		}
		if err == nil {
			result, runErr := executeJob(ctx, cc, j, textProgress(r))
			err = report(r, result, runErr, true)
		}
		if err != nil && ctx.Err() == nil {
			r.Fail(err.Error())
		}
		r.Muted(fmt.Sprintf("%s watching %d files, Ctrl+C to stop", time.Now().Format(time.TimeOnly), len(files)))
	}

	r.Header(1, "Watching for changes")
	for _, f := range files {
		r.KeyValue("File", r.Path(f))
	}
	r.Println()

	generateOnce(cmd.Context())
	return w.Run(cmd.Context(), generateOnce)
}

// watchedFiles lists the local files a job depends on.
func watchedFiles(cfg *config.Config, j *job) []string {
	files := []string{j.templatePath()}
	if loc := j.dataLocation(); !isDSN(loc) {
		files = append(files, loc)
	}
	if cfg.Mapping != "" {
		files = append(files, cfg.Mapping)
	}
	return files
}
