package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const runColumns = `id, template, source, output_dir, status, total, generated, failed, started_at, completed_at, error`

// CreateRun starts a run in the running state.
func (s *SQLiteStore) CreateRun(ctx context.Context, nr NewRun) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:        generateID(),
		Template:  nr.Template,
		Source:    nr.Source,
		OutputDir: nr.OutputDir,
		Status:    RunStatusRunning,
		Total:     nr.Total,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.Int("total", run.Total))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, template, source, output_dir, status, total, started_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Template, run.Source, run.OutputDir, string(run.Status), run.Total, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// RecordRow stores the outcome of one row.
func (s *SQLiteStore) RecordRow(ctx context.Context, row RunRow) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if row.RenderedAt.IsZero() {
		row.RenderedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO run_rows (run_id, row_index, position, output_path, status, error, rendered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.RunID, row.Index, row.Position, row.OutputPath, string(row.Status), nullString(row.Error), row.RenderedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record row %d: %w", row.Index, err)
	}
	return nil
}

// CompleteRun stores the final status and counts of a run.
func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, summary RunSummary) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	s.logger.Debug("completing run", slog.String("id", id), slog.String("status", string(summary.Status)))

	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, generated = ?, failed = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(summary.Status), summary.Generated, summary.Failed, time.Now().UTC(), nullString(summary.Error), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns all runs.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRunRows returns the recorded rows of a run in index order.
func (s *SQLiteStore) GetRunRows(ctx context.Context, id string) ([]*RunRow, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, row_index, position, output_path, status, error, rendered_at
		 FROM run_rows WHERE run_id = ? ORDER BY row_index`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run rows: %w", err)
	}
	defer rows.Close()

	var out []*RunRow
	for rows.Next() {
		r := &RunRow{}
		var status string
		var errMsg sql.NullString
		if err := rows.Scan(&r.RunID, &r.Index, &r.Position, &r.OutputPath, &status, &errMsg, &r.RenderedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.Status = RowStatus(status)
		r.Error = errMsg.String
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	run := &Run{}
	var status string
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := sc.Scan(&run.ID, &run.Template, &run.Source, &run.OutputDir, &status,
		&run.Total, &run.Generated, &run.Failed, &run.StartedAt, &completedAt, &errMsg)
	if err != nil {
		return nil, err
	}

	run.Status = RunStatus(status)
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	run.Error = errMsg.String
	return run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
