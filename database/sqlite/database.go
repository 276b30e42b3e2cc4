package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	fileloader "github.com/abdoelhafi/file-loader-app"

	_ "modernc.org/sqlite" // SQLite driver
)

// database provides SQLite database operations.
type database struct {
	db     *sql.DB
	tables fileloader.Tables
}

// busyTimeoutMS is how long a writer waits for the write lock before failing.
const busyTimeoutMS = 5000

// Connect opens a SQLite database. Tables should be validated before calling Connect.
//
// File databases run in WAL mode with a busy timeout, so readers are not
// blocked by an open upload transaction. An in-memory database exists per
// connection, so its pool is limited to one.
func Connect(ctx context.Context, dsn string, tables fileloader.Tables) (*database, error) {
	memory := isMemoryDSN(dsn)
	if !memory {
		dsn = withPragmas(dsn)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	}

	return &database{
		db:     db,
		tables: tables,
	}, nil
}

func isMemoryDSN(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") ||
		strings.HasPrefix(dsn, "file::memory:") ||
		strings.Contains(dsn, "mode=memory")
}

// withPragmas adds journal_mode and busy_timeout pragmas unless the DSN
// already sets them.
func withPragmas(dsn string) string {
	var params []string
	if !strings.Contains(dsn, "journal_mode") {
		params = append(params, "_pragma=journal_mode(WAL)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeoutMS))
	}
	if len(params) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate creates the uploads table and its indexes if they do not exist.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.db, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

// GetRepo returns the UploadRepo for database operations.
func (d *database) GetRepo() fileloader.UploadRepo {
	return &repo{db: d.db, tableName: d.tables.Uploads}
}

// Close closes the database connection.
func (d *database) Close() error {
	return d.db.Close()
}
