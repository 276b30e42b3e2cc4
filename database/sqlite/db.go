package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	fileloader "github.com/abdoelhafi/file-loader-app"
	"github.com/abdoelhafi/file-loader-app/database/internal"
)

var uploadsColumns = []internal.Column{
	{Name: "id", Type: "text"},
	{Name: "name", Type: "text"},
	{Name: "size_kb", Type: "real"},
	{Name: "content", Type: "text"},
	{Name: "media_type", Type: "text"},
	{Name: "object_key", Type: "text", Nullable: true},
	{Name: "object_url", Type: "text", Nullable: true},
	{Name: "object_etag", Type: "text", Nullable: true},
	{Name: "object_version", Type: "text", Nullable: true},
	{Name: "object_metadata", Type: "text", Nullable: true},
	{Name: "created_at", Type: "text"},
	{Name: "updated_at", Type: "text"},
}

// ValidateSchema checks the uploads table exists with the expected columns.
func ValidateSchema(ctx context.Context, db *sql.DB, tables fileloader.Tables) error {
	table := tables.Uploads
	if !fileloader.IsValidTableName(table) {
		return fmt.Errorf("validate schema: invalid table name: %s", table)
	}

	var name string
	err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("validate schema: table %s does not exist", table)
	}
	if err != nil {
		return fmt.Errorf("validate schema: check table: %w", err)
	}

	got, err := readColumns(ctx, db, table)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", table, err)
	}

	if err := internal.CheckColumns(table, uploadsColumns, got); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

func readColumns(ctx context.Context, db *sql.DB, table string) (map[string]internal.Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols := make(map[string]internal.Column)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols[name] = internal.Column{Name: name, Type: typ, Nullable: notNull == 0}
	}

	return cols, rows.Err()
}
