package generate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdoc/internal/document"
	"github.com/leapstack-labs/leapdoc/internal/render"
	"github.com/leapstack-labs/leapdoc/internal/source"
	"github.com/leapstack-labs/leapdoc/internal/source/csvfile"
	"github.com/leapstack-labs/leapdoc/internal/state"
	"github.com/leapstack-labs/leapdoc/internal/testutil"
)

type fixture struct {
	dir      string
	outDir   string
	src      source.Source
	renderer *render.Renderer
}

func setup(t *testing.T, csv string) *fixture {
	t.Helper()
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(csv), 0600))
	src, err := csvfile.Open(csvPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	tmpl := testutil.WriteDocx(t, dir, "template.docx",
		testutil.Para("Name: {{name}}"),
		testutil.Para("Row {{_index}} of source line {{_row}}"),
	)
	r, err := render.New(render.Config{TemplatePath: tmpl})
	require.NoError(t, err)

	return &fixture{dir: dir, outDir: filepath.Join(dir, "out"), src: src, renderer: r}
}

func (f *fixture) options() Options {
	return Options{
		Source:          f.src,
		SourceName:      "data.csv",
		HeaderRow:       1,
		StartRow:        2,
		Renderer:        f.renderer,
		FilenamePattern: "{{name}}",
		OutputDir:       f.outDir,
	}
}

func paragraphs(t *testing.T, path string) []string {
	t.Helper()
	doc, err := document.Open(path)
	require.NoError(t, err)
	var out []string
	for _, p := range doc.Paragraphs() {
		out = append(out, p.Paragraph.Text())
	}
	return out
}

func TestRun_OneFilePerRow(t *testing.T) {
	for _, workers := range []int{1, 3} {
		t.Run("workers", func(t *testing.T) {
			f := setup(t, "name\nAnn\nBob\nCy\n")
			opts := f.options()
			opts.Workers = workers

			result, err := New(testutil.NewTestLogger(t)).Run(t.Context(), opts)
			require.NoError(t, err)
			assert.Equal(t, 3, result.Total)
			assert.Equal(t, 3, result.Generated)
			assert.Empty(t, result.Failures)
			assert.False(t, result.Cancelled)
			assert.Equal(t, "Successfully generated 3 files", result.Message())

			expected := map[string]string{
				"Ann": "Row 1 of source line 2",
				"Bob": "Row 2 of source line 3",
				"Cy":  "Row 3 of source line 4",
			}
			for name, line := range expected {
				texts := paragraphs(t, filepath.Join(f.outDir, name+".docx"))
				assert.Equal(t, []string{"Name: " + name, line}, texts)
			}
		})
	}
}

func TestRun_ProgressStrictlyIncreases(t *testing.T) {
	f := setup(t, "name\na\nb\nc\nd\ne\n")
	opts := f.options()
	opts.Workers = 4

	var (
		mu   sync.Mutex
		seen []int
	)
	opts.Progress = func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 5, p.Total)
		seen = append(seen, p.Current)
	}

	_, err := New(nil).Run(t.Context(), opts)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, seen)
}

func TestRun_FailFastStopsAtFirstFailure(t *testing.T) {
	f := setup(t, "name\nAnn\nBob\nCy\n")
	// a directory in the way makes Bob's save fail
	require.NoError(t, os.MkdirAll(filepath.Join(f.outDir, "Bob.docx"), 0750))

	result, err := New(nil).Run(t.Context(), f.options())
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Index)
	assert.Equal(t, 3, rowErr.Position)
	assert.Equal(t, filepath.Join(f.outDir, "Bob.docx"), rowErr.Path)

	require.NotNil(t, result)
	assert.Equal(t, 1, result.Generated)
	assert.NoFileExists(t, filepath.Join(f.outDir, "Cy.docx"))
}

func TestRun_KeepGoingCollectsFailures(t *testing.T) {
	f := setup(t, "name\nAnn\nBob\nCy\n")
	require.NoError(t, os.MkdirAll(filepath.Join(f.outDir, "Bob.docx"), 0750))

	opts := f.options()
	opts.KeepGoing = true
	result, err := New(nil).Run(t.Context(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Generated)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 2, result.Failures[0].Index)
	assert.Equal(t, "Generated 2 of 3 files, 1 failed", result.Message())
	assert.FileExists(t, filepath.Join(f.outDir, "Cy.docx"))
}

func TestRun_Cancellation(t *testing.T) {
	f := setup(t, "name\nAnn\nBob\nCy\n")
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	opts := f.options()
	opts.Progress = func(p Progress) {
		if p.Current == 1 {
			cancel()
		}
	}

	result, err := New(nil).Run(ctx, opts)
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	assert.Equal(t, 1, result.Generated)
	assert.Equal(t, "Cancelled, generated 1 of 3 files", result.Message())
	assert.NoFileExists(t, filepath.Join(f.outDir, "Bob.docx"))
}

func TestRun_NoRows(t *testing.T) {
	f := setup(t, "name\n")
	_, err := New(nil).Run(t.Context(), f.options())
	assert.True(t, errors.Is(err, ErrNoRows))
	assert.EqualError(t, err, "no data rows in source")
}

func TestRun_DuplicatePathsLastWriterWins(t *testing.T) {
	f := setup(t, "name\nAnn\nAnn\n")
	opts := f.options()
	opts.FilenamePattern = "same"

	result, err := New(testutil.NewTestLogger(t)).Run(t.Context(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Generated)

	texts := paragraphs(t, filepath.Join(f.outDir, "same.docx"))
	assert.Equal(t, "Row 2 of source line 3", texts[1])
}

func TestRun_RecordsHistory(t *testing.T) {
	f := setup(t, "name\nAnn\nBob\n")
	require.NoError(t, os.MkdirAll(filepath.Join(f.outDir, "Bob.docx"), 0750))

	store := state.NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	defer store.Close()

	opts := f.options()
	opts.KeepGoing = true
	opts.Store = store
	result, err := New(nil).Run(t.Context(), opts)
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)

	run, err := store.GetRun(t.Context(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, state.RunStatusPartial, run.Status)
	assert.Equal(t, "data.csv", run.Source)
	assert.Equal(t, 2, run.Total)
	assert.Equal(t, 1, run.Generated)
	assert.Equal(t, 1, run.Failed)

	rows, err := store.GetRunRows(t.Context(), result.RunID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, state.RowStatusSuccess, rows[0].Status)
	assert.Equal(t, state.RowStatusFailed, rows[1].Status)
	assert.NotEmpty(t, rows[1].Error)
}

func TestRunStatus(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		err      error
		expected state.RunStatus
	}{
		{"completed", Result{Generated: 2}, nil, state.RunStatusCompleted},
		{"partial", Result{Generated: 1, Failures: []*RowError{{}}}, nil, state.RunStatusPartial},
		{"all failed", Result{Failures: []*RowError{{}}}, nil, state.RunStatusFailed},
		{"aborted", Result{Generated: 1}, errors.New("boom"), state.RunStatusFailed},
		{"cancelled", Result{Cancelled: true}, nil, state.RunStatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, runStatus(&tt.result, tt.err))
		})
	}
}
