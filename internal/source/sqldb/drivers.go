package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"  // postgres driver
	_ "github.com/marcboeker/go-duckdb" // duckdb driver
	_ "modernc.org/sqlite"              // sqlite driver

	"github.com/leapstack-labs/leapdoc/internal/source"
)

// SQLite, Postgres and DuckDB describe the supported databases.
var (
	SQLite = Dialect{
		Name:       "sqlite",
		ListTables: "SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name",
		QuoteChar:  '"',
	}
	Postgres = Dialect{
		Name:       "postgres",
		ListTables: "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name",
		QuoteChar:  '"',
	}
	DuckDB = Dialect{
		Name:       "duckdb",
		ListTables: "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name",
		QuoteChar:  '"',
	}
)

func init() {
	source.Register("sqlite", openSQLite)
	source.Register("postgres", openPostgres)
	source.Register("postgresql", openPostgres)
	source.Register("duckdb", openDuckDB)
}

// trimScheme removes a "scheme://" prefix.
func trimScheme(location, scheme string) string {
	return strings.TrimPrefix(location, scheme+"://")
}

// existingFile rejects database paths that do not exist, since opening
// them would create an empty database.
func existingFile(path string) error {
	if path == "" || path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}
	return nil
}

func openSQLite(ctx context.Context, location string, logger *slog.Logger) (source.Source, error) {
	path := trimScheme(location, "sqlite")
	if err := existingFile(path); err != nil {
		return nil, err
	}
	return openDialect(ctx, "sqlite", path, SQLite, logger)
}

func openPostgres(ctx context.Context, location string, logger *slog.Logger) (source.Source, error) {
	return openDialect(ctx, "pgx", location, Postgres, logger)
}

func openDuckDB(ctx context.Context, location string, logger *slog.Logger) (source.Source, error) {
	path := trimScheme(location, "duckdb")
	if err := existingFile(path); err != nil {
		return nil, err
	}
	return openDialect(ctx, "duckdb", path, DuckDB, logger)
}

// openDialect avoids returning a typed nil inside the interface.
func openDialect(ctx context.Context, driver, dsn string, d Dialect, logger *slog.Logger) (source.Source, error) {
	src, err := Open(ctx, driver, dsn, d, logger)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Open connects with a database/sql driver and checks the connection.
func Open(ctx context.Context, driver, dsn string, d Dialect, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("connecting to database", slog.String("dialect", d.Name))

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", d.Name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", d.Name, err)
	}
	return NewSource(ctx, db, d, logger), nil
}
