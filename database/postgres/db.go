package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	fileloader "github.com/abdoelhafi/file-loader-app"
	"github.com/abdoelhafi/file-loader-app/database/internal"
)

var uploadsColumns = []internal.Column{
	{Name: "id", Type: "uuid"},
	{Name: "name", Type: "text"},
	{Name: "size_kb", Type: "double precision"},
	{Name: "content", Type: "text"},
	{Name: "media_type", Type: "text"},
	{Name: "object_key", Type: "text", Nullable: true},
	{Name: "object_url", Type: "text", Nullable: true},
	{Name: "object_etag", Type: "text", Nullable: true},
	{Name: "object_version", Type: "text", Nullable: true},
	{Name: "object_metadata", Type: "jsonb", Nullable: true},
	{Name: "created_at", Type: "timestamp with time zone"},
	{Name: "updated_at", Type: "timestamp with time zone"},
}

// ValidateSchema checks the uploads table exists in the current schema with
// the expected columns.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables fileloader.Tables) error {
	table := tables.Uploads
	if !fileloader.IsValidTableName(table) {
		return fmt.Errorf("validate schema: invalid table name: %s", table)
	}

	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1
		)`, table).Scan(&exists)
	if err != nil {
		return fmt.Errorf("validate schema: check table: %w", err)
	}
	if !exists {
		return fmt.Errorf("validate schema: table %s does not exist", table)
	}

	got, err := readColumns(ctx, pool, table)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", table, err)
	}

	if err := internal.CheckColumns(table, uploadsColumns, got); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

func readColumns(ctx context.Context, pool *pgxpool.Pool, table string) (map[string]internal.Column, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	cols := make(map[string]internal.Column)
	for rows.Next() {
		var name, typ, nullable string
		if err := rows.Scan(&name, &typ, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols[name] = internal.Column{Name: name, Type: typ, Nullable: nullable == "YES"}
	}

	return cols, rows.Err()
}
