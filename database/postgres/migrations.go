package postgres

import (
	"context"
	"fmt"

	fileloader "github.com/abdoelhafi/file-loader-app"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func createUploadsTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexNewest := pgx.Identifier{fmt.Sprintf("idx_%s_newest", tableName)}.Sanitize()
	indexObjectKey := pgx.Identifier{fmt.Sprintf("idx_%s_object_key", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			size_kb DOUBLE PRECISION NOT NULL,
			content TEXT NOT NULL,
			media_type TEXT NOT NULL,
			object_key TEXT,
			object_url TEXT,
			object_etag TEXT,
			object_version TEXT,
			object_metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (created_at DESC, id DESC);

		CREATE UNIQUE INDEX IF NOT EXISTS %s
		ON %s (object_key)
		WHERE (object_key IS NOT NULL);
	`,
		quotedTable,
		indexNewest, quotedTable,
		indexObjectKey, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create uploads table: %w", err)
	}
	return nil
}

// DropTables removes every table created by Migrate.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables fileloader.Tables) error {
	_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{tables.Uploads}.Sanitize()))
	if err != nil {
		return fmt.Errorf("drop uploads table: %w", err)
	}
	return nil
}
