package generate

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/leapdoc/internal/state"
)

// recorder writes run history to an optional store. Store failures are
// logged and never fail the run.
type recorder struct {
	ctx    context.Context
	store  state.Store
	logger *slog.Logger
	runID  string
}

func newRecorder(ctx context.Context, store state.Store, logger *slog.Logger) *recorder {
	// history is written even after the run is cancelled
	return &recorder{ctx: context.WithoutCancel(ctx), store: store, logger: logger}
}

func (r *recorder) start(nr state.NewRun) string {
	if r.store == nil {
		return ""
	}
	run, err := r.store.CreateRun(r.ctx, nr)
	if err != nil {
		r.logger.Warn("failed to record run", slog.String("error", err.Error()))
		return ""
	}
	r.runID = run.ID
	return run.ID
}

func (r *recorder) row(j job, rowErr *RowError) {
	if r.runID == "" {
		return
	}
	rr := state.RunRow{
		RunID:      r.runID,
		Index:      j.index,
		Position:   j.position,
		OutputPath: j.path,
		Status:     state.RowStatusSuccess,
	}
	if rowErr != nil {
		rr.Status = state.RowStatusFailed
		rr.Error = rowErr.Cause.Error()
	}
	if err := r.store.RecordRow(r.ctx, rr); err != nil {
		r.logger.Warn("failed to record row", slog.Int("row", j.index), slog.String("error", err.Error()))
	}
}

func (r *recorder) complete(result *Result, runErr error) {
	if r.runID == "" {
		return
	}
	summary := state.RunSummary{
		Status:    runStatus(result, runErr),
		Generated: result.Generated,
		Failed:    len(result.Failures),
	}
	if runErr != nil {
		summary.Error = runErr.Error()
	}
	if err := r.store.CompleteRun(r.ctx, r.runID, summary); err != nil {
		r.logger.Warn("failed to complete run", slog.String("error", err.Error()))
	}
}

func runStatus(result *Result, runErr error) state.RunStatus {
	switch {
	case result.Cancelled:
		return state.RunStatusCancelled
	case runErr != nil || (result.Generated == 0 && len(result.Failures) > 0):
		return state.RunStatusFailed
	case len(result.Failures) > 0:
		return state.RunStatusPartial
	default:
		return state.RunStatusCompleted
	}
}
