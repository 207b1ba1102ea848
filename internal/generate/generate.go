// Package generate renders one document per source row.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapdoc/internal/render"
	"github.com/leapstack-labs/leapdoc/internal/source"
	"github.com/leapstack-labs/leapdoc/internal/state"
	"github.com/leapstack-labs/leapdoc/internal/value"
)

// Reserved columns added to every row before rendering.
const (
	IndexColumn    = "_index" // 1-based ordinal within the run
	PositionColumn = "_row"   // 1-based position in the source
)

// ErrNoRows is returned when the source yields no data rows.
var ErrNoRows = errors.New("no data rows in source")

// Progress reports a finished row. Current counts finished rows and
// strictly increases from 1 to Total.
type Progress struct {
	Current int
	Total   int
	Message string
	Path    string
	Err     error
}

// RowError is the failure of one row.
type RowError struct {
	Index    int // 1-based ordinal within the run
	Position int // 1-based position in the source
	Path     string
	Cause    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (%s): %v", e.Index, e.Path, e.Cause)
}

func (e *RowError) Unwrap() error {
	return e.Cause
}

// Options configures one generation run.
type Options struct {
	// Source provides the rows. The caller owns it and closes it.
	Source source.Source
	// SourceName labels the source in errors and run history.
	SourceName string
	Sheet      string
	HeaderRow  int // default 1
	StartRow   int // default HeaderRow+1

	Renderer *render.Renderer
	// Mappings maps placeholder names to expressions.
	Mappings map[string]string
	// FilenamePattern builds output names; see render.Filename.
	FilenamePattern string
	OutputDir       string

	// Workers is the number of rows rendered concurrently (default 1).
	Workers int
	// KeepGoing records row failures and continues instead of aborting.
	KeepGoing bool

	// Progress is called after each finished row, never concurrently.
	Progress func(Progress)
	// Store records the run when set.
	Store state.Store
}

// Result summarizes a run.
type Result struct {
	RunID     string
	Total     int
	Generated int
	Failures  []*RowError
	Cancelled bool
	Duration  time.Duration
}

// Message is the user-facing summary of the run.
func (r *Result) Message() string {
	switch {
	case r.Cancelled:
		return fmt.Sprintf("Cancelled, generated %d of %d files", r.Generated, r.Total)
	case len(r.Failures) > 0:
		return fmt.Sprintf("Generated %d of %d files, %d failed", r.Generated, r.Total, len(r.Failures))
	default:
		return fmt.Sprintf("Successfully generated %d files", r.Generated)
	}
}

// Generator runs batches.
type Generator struct {
	logger *slog.Logger
}

// New creates a generator. If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{logger: logger}
}

// job is one row ready to render.
type job struct {
	index    int
	position int
	row      value.Row
	path     string
}

// RowFor returns the record's row with the reserved columns set for the
// given 1-based run index.
func RowFor(index int, rec source.Record) value.Row {
	return rec.Row.
		With(IndexColumn, value.Number(float64(index))).
		With(PositionColumn, value.Number(float64(rec.Position)))
}

// plan reads every record and computes its output path.
func (g *Generator) plan(opts Options) ([]job, error) {
	records, err := source.Collect(opts.Source, opts.Sheet, opts.HeaderRow, opts.StartRow)
	if err != nil {
		var srcErr *source.RowSourceError
		if errors.As(err, &srcErr) {
			return nil, err
		}
		return nil, &source.RowSourceError{Location: opts.SourceName, Cause: err}
	}
	if len(records) == 0 {
		return nil, ErrNoRows
	}

	jobs := make([]job, len(records))
	for i, rec := range records {
		row := RowFor(i+1, rec)
		name := opts.Renderer.GenerateFilename(opts.FilenamePattern, row, i)
		jobs[i] = job{
			index:    i + 1,
			position: rec.Position,
			row:      row,
			path:     filepath.Join(opts.OutputDir, name),
		}
	}
	g.warnDuplicates(jobs)
	return jobs, nil
}

// warnDuplicates logs output paths shared by several rows. The last row
// written wins.
func (g *Generator) warnDuplicates(jobs []job) {
	seen := make(map[string][]int)
	for _, j := range jobs {
		seen[j.path] = append(seen[j.path], j.index)
	}
	var dups []string
	for path, idx := range seen {
		if len(idx) > 1 {
			dups = append(dups, path)
		}
	}
	sort.Strings(dups)
	for _, path := range dups {
		g.logger.Warn("several rows share an output path; the last one written wins",
			slog.String("path", path),
			slog.Any("rows", seen[path]))
	}
}

// Run renders every row of the source. With KeepGoing unset, the first
// failing row stops scheduling and its *RowError is returned along with
// the partial result. Cancelling ctx stops scheduling new rows; rows
// already rendering finish.
func (g *Generator) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Source == nil || opts.Renderer == nil {
		return nil, errors.New("source and renderer are required")
	}
	started := time.Now()
	if opts.HeaderRow < 1 {
		opts.HeaderRow = 1
	}
	if opts.StartRow < 1 {
		opts.StartRow = opts.HeaderRow + 1
	}

	jobs, err := g.plan(opts)
	if err != nil {
		return nil, err
	}

	result := &Result{Total: len(jobs)}
	rec := newRecorder(ctx, opts.Store, g.logger)
	result.RunID = rec.start(state.NewRun{
		Template:  opts.Renderer.TemplatePath(),
		Source:    opts.SourceName,
		OutputDir: opts.OutputDir,
		Total:     len(jobs),
	})

	g.logger.Info("generation started",
		slog.String("run_id", result.RunID),
		slog.Int("rows", len(jobs)),
		slog.Int("workers", max(opts.Workers, 1)))

	var (
		mu       sync.Mutex
		finished int
	)
	// finish records one row outcome and reports progress.
	finish := func(j job, renderErr error) *RowError {
		mu.Lock()
		defer mu.Unlock()

		finished++
		p := Progress{Current: finished, Total: len(jobs), Path: j.path}
		var rowErr *RowError
		if renderErr != nil {
			rowErr = &RowError{Index: j.index, Position: j.position, Path: j.path, Cause: renderErr}
			result.Failures = append(result.Failures, rowErr)
			p.Err = rowErr
			p.Message = "Failed: " + filepath.Base(j.path)
			g.logger.Warn("row failed", slog.Int("row", j.index), slog.String("path", j.path), slog.String("error", renderErr.Error()))
		} else {
			result.Generated++
			p.Message = "Generated: " + filepath.Base(j.path)
		}
		rec.row(j, rowErr)
		if opts.Progress != nil {
			opts.Progress(p)
		}
		return rowErr
	}

	renderJob := func(j job) *RowError {
		return finish(j, opts.Renderer.Render(j.row, opts.Mappings, j.path))
	}

	var runErr error
	if opts.Workers <= 1 {
		for _, j := range jobs {
			if ctx.Err() != nil {
				break
			}
			if rowErr := renderJob(j); rowErr != nil && !opts.KeepGoing {
				runErr = rowErr
				break
			}
		}
	} else {
		eg, egctx := errgroup.WithContext(ctx)
		eg.SetLimit(opts.Workers)
		for _, j := range jobs {
			if egctx.Err() != nil {
				break
			}
			eg.Go(func() error {
				if egctx.Err() != nil {
					return nil
				}
				if rowErr := renderJob(j); rowErr != nil && !opts.KeepGoing {
					return rowErr
				}
				return nil
			})
		}
		runErr = eg.Wait()
	}

	result.Cancelled = ctx.Err() != nil && runErr == nil && result.Generated+len(result.Failures) < len(jobs)
	result.Duration = time.Since(started)
	sortFailures(result.Failures)

	rec.complete(result, runErr)
	g.logger.Info("generation finished",
		slog.String("run_id", result.RunID),
		slog.Int("generated", result.Generated),
		slog.Int("failed", len(result.Failures)),
		slog.Bool("cancelled", result.Cancelled),
		slog.Duration("duration", result.Duration))

	if runErr != nil {
		return result, runErr
	}
	return result, nil
}

func sortFailures(failures []*RowError) {
	sort.Slice(failures, func(i, j int) bool { return failures[i].Index < failures[j].Index })
}
