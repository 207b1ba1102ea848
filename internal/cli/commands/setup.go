package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/leapdoc/internal/cli/config"
	"github.com/leapstack-labs/leapdoc/internal/cli/output"
	"github.com/leapstack-labs/leapdoc/internal/mapping"
	"github.com/leapstack-labs/leapdoc/internal/state"

	// Register the row sources selected by location.
	_ "github.com/leapstack-labs/leapdoc/internal/source/csvfile"
	_ "github.com/leapstack-labs/leapdoc/internal/source/sqldb"
	_ "github.com/leapstack-labs/leapdoc/internal/source/xlsx"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the command's context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// openStore opens the run history store.
func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open run history %s: %w", cfg.StatePath, err)
	}
	return store, nil
}

// JobOptions are command-line overrides of mapping file settings.
type JobOptions struct {
	Template  string
	Data      string
	OutputDir string
	Sheet     string
	Pattern   string
	HeaderRow int
	StartRow  int
}

// AddFlags registers the job flags on fs.
func (o *JobOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Template, "template", "t", "", "Template document (.docx, .txt or .md)")
	fs.StringVarP(&o.Data, "data", "d", "", "Row source: spreadsheet, CSV, SQLite/DuckDB file or postgres:// DSN")
	fs.StringVar(&o.OutputDir, "output-dir", "", "Directory for generated documents")
	fs.StringVar(&o.Sheet, "sheet", "", "Sheet, table or SELECT query (default: first sheet)")
	fs.StringVar(&o.Pattern, "pattern", "", "Output filename pattern, e.g. '{{name}}_letter'")
	fs.IntVar(&o.HeaderRow, "header-row", 0, "Row holding the column headers (default 1)")
	fs.IntVar(&o.StartRow, "start-row", 0, "First data row (default 2)")
}

// job is a mapping config with its file locations resolved.
type job struct {
	mapping *mapping.Config
	// baseDir resolves relative locations stored in the mapping file.
	baseDir string
}

// loadJob reads the configured mapping file, if any, and applies opts.
// With mustExist unset, a missing mapping file yields an empty config.
func loadJob(cfg *config.Config, opts *JobOptions, mustExist bool) (*job, error) {
	j := &job{mapping: mapping.New()}
	if cfg.Mapping != "" {
		m, err := mapping.Load(cfg.Mapping)
		switch {
		case err == nil:
			j.mapping = m
		case !mustExist && errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
		j.baseDir = filepath.Dir(cfg.Mapping)
	}

	m := j.mapping
	// flag paths are relative to the working directory
	if opts.Template != "" {
		m.TemplateFile = absPath(opts.Template)
	}
	if opts.Data != "" {
		m.ExcelFile = absLocation(opts.Data)
	}
	if opts.OutputDir != "" {
		m.OutputDirectory = absPath(opts.OutputDir)
	}
	if opts.Sheet != "" {
		m.SheetName = opts.Sheet
	}
	if opts.Pattern != "" {
		m.OutputFilenamePattern = opts.Pattern
	}
	if opts.HeaderRow > 0 {
		m.HeaderRow = opts.HeaderRow
	}
	if opts.StartRow > 0 {
		m.StartRow = opts.StartRow
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}

// require fails when any of the named settings is empty.
func (j *job) require(settings ...string) error {
	var missing []string
	for _, s := range j.mapping.Missing() {
		for _, want := range settings {
			if s == want {
				missing = append(missing, s)
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing %s\nHint: set them in the mapping file (--mapping) or use --template, --data and --output-dir",
		strings.Join(missing, ", "))
}

func (j *job) templatePath() string {
	return resolve(j.mapping.TemplateFile, j.baseDir)
}

func (j *job) dataLocation() string {
	if isDSN(j.mapping.ExcelFile) {
		return j.mapping.ExcelFile
	}
	return resolve(j.mapping.ExcelFile, j.baseDir)
}

func (j *job) outputDir() string {
	return resolve(j.mapping.OutputDirectory, j.baseDir)
}

func resolve(path, baseDir string) string {
	if path == "" || baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func absLocation(loc string) string {
	if isDSN(loc) {
		return loc
	}
	return absPath(loc)
}

func isDSN(loc string) bool {
	return strings.Contains(loc, "://")
}

// fileExists reports whether path names an existing file.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
