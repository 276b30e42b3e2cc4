package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	fileloader "github.com/abdoelhafi/file-loader-app"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
}

func getTableMigrations(tables fileloader.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.Uploads,
			Up:        createUploadsTable(tables.Uploads),
			Down:      dropTable(tables.Uploads),
		},
	}
}

func Migrate(ctx context.Context, db *sql.DB, tables fileloader.Tables) error {
	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func DropTables(ctx context.Context, db *sql.DB, tables fileloader.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createUploadsTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		indexNewest := quoteIdentifier(fmt.Sprintf("idx_%s_newest", tableName))
		indexObjectKey := quoteIdentifier(fmt.Sprintf("idx_%s_object_key", tableName))

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				name TEXT NOT NULL,
				size_kb REAL NOT NULL,
				content TEXT NOT NULL,
				media_type TEXT NOT NULL,
				object_key TEXT,
				object_url TEXT,
				object_etag TEXT,
				object_version TEXT,
				object_metadata TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)
		`, quotedTable)

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		indexSQL := fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (created_at DESC, id DESC)
		`, indexNewest, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index newest: %w", err)
		}

		indexSQL = fmt.Sprintf(`
			CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (object_key) WHERE object_key IS NOT NULL
		`, indexObjectKey, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index object_key: %w", err)
		}

		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tableName))

		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}
