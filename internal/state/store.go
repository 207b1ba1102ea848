// Package state records generation runs in a SQLite database so that
// past batches can be listed and inspected.
package state

import (
	"context"
	"time"
)

// RunStatus is the outcome of a generation run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RowStatus is the outcome of one rendered row.
type RowStatus string

// Row statuses.
const (
	RowStatusSuccess RowStatus = "success"
	RowStatusFailed  RowStatus = "failed"
)

// Run is one batch generation.
type Run struct {
	ID          string
	Template    string
	Source      string
	OutputDir   string
	Status      RunStatus
	Total       int
	Generated   int
	Failed      int
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// NewRun describes a run being started.
type NewRun struct {
	Template  string
	Source    string
	OutputDir string
	Total     int
}

// RunSummary is the final tally of a run.
type RunSummary struct {
	Status    RunStatus
	Generated int
	Failed    int
	Error     string
}

// RunRow is the outcome of one row of a run.
type RunRow struct {
	RunID      string
	Index      int // 1-based ordinal within the run
	Position   int // 1-based position in the row source
	OutputPath string
	Status     RowStatus
	Error      string
	RenderedAt time.Time
}

// Store persists run history.
type Store interface {
	CreateRun(ctx context.Context, run NewRun) (*Run, error)
	RecordRow(ctx context.Context, row RunRow) error
	CompleteRun(ctx context.Context, id string, summary RunSummary) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	GetRunRows(ctx context.Context, id string) ([]*RunRow, error)
	Close() error
}
