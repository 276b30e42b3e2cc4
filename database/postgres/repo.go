// Package postgres implements the upload repository using PostgreSQL
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	fileloader "github.com/abdoelhafi/file-loader-app"
	"github.com/abdoelhafi/file-loader-app/database/internal"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	recordColumns  = `id, name, size_kb, content, media_type, object_key, object_url, object_etag, object_version, object_metadata, created_at, updated_at`
	summaryColumns = `id, name, size_kb, '' AS content, media_type, object_key, object_url, object_etag, object_version, object_metadata, created_at, updated_at`
)

type repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func (r *repo) table() string {
	return pgx.Identifier{r.tableName}.Sanitize()
}

func (r *repo) Begin(ctx context.Context) (fileloader.UploadTx, error) {
	pgTx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &tx{tx: pgTx, table: r.table()}, nil
}

func (r *repo) Get(ctx context.Context, id uuid.UUID) (fileloader.UploadRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, recordColumns, r.table())

	m, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fileloader.UploadRecord{}, fileloader.ErrNotFound
		}
		return fileloader.UploadRecord{}, fmt.Errorf("get: %w", err)
	}

	return m, nil
}

func (r *repo) List(ctx context.Context, q fileloader.ListQuery) (fileloader.ListResult, error) {
	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return fileloader.ListResult{}, fmt.Errorf("list: %w: %v", fileloader.ErrInvalidInput, err)
	}

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			ORDER BY created_at DESC, id DESC
			LIMIT $1
		`, summaryColumns, r.table())
		args = []any{q.Limit + 1}
	} else {
		cursorID, parseErr := uuid.Parse(cursor.ID)
		if parseErr != nil {
			return fileloader.ListResult{}, fmt.Errorf("list: %w: cursor id: %v", fileloader.ErrInvalidInput, parseErr)
		}
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE (created_at, id) < ($1, $2)
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		`, summaryColumns, r.table())
		args = []any{cursor.CreatedAt, cursorID, q.Limit + 1}
	}

	items, err := r.query(ctx, query, args...)
	if err != nil {
		return fileloader.ListResult{}, fmt.Errorf("list: %w", err)
	}

	var nextCursor string
	if len(items) > q.Limit {
		last := items[q.Limit-1]
		nextCursor = internal.EncodeCursor(last.CreatedAt, last.ID.String())
		items = items[:q.Limit]
	}

	return fileloader.ListResult{Items: items, NextCursor: nextCursor}, nil
}

func (r *repo) ListObjects(ctx context.Context) ([]fileloader.UploadRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE object_key IS NOT NULL OR object_url IS NOT NULL
		ORDER BY created_at
	`, summaryColumns, r.table())

	items, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	return items, nil
}

func (r *repo) query(ctx context.Context, query string, args ...any) ([]fileloader.UploadRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []fileloader.UploadRecord{}
	for rows.Next() {
		m, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return items, nil
}

type tx struct {
	tx    pgx.Tx
	table string
}

func (t *tx) Insert(ctx context.Context, entry fileloader.RecordEntry) (fileloader.UploadRecord, error) {
	metadata, err := marshalMetadata(entry.ObjectMetadata)
	if err != nil {
		return fileloader.UploadRecord{}, fmt.Errorf("insert: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (name, size_kb, content, media_type, object_key, object_url, object_etag, object_version, object_metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s
	`, t.table, recordColumns)

	m, err := scanRecord(t.tx.QueryRow(ctx, query,
		entry.Name, entry.SizeKB, entry.Content, entry.MediaType,
		nullIfEmpty(entry.ObjectKey), nullIfEmpty(entry.ObjectURL), entry.ObjectETag, entry.ObjectVersion,
		metadata,
	))
	if err != nil {
		return fileloader.UploadRecord{}, fmt.Errorf("insert: %w", err)
	}

	return m, nil
}

func (t *tx) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t.table)

	result, err := t.tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete: %w", fileloader.ErrNotFound)
	}

	return nil
}

func (t *tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (fileloader.UploadRecord, error) {
	var m fileloader.UploadRecord
	var objectKey, objectURL *string
	var metadata []byte

	err := row.Scan(
		&m.ID, &m.Name, &m.SizeKB, &m.Content, &m.MediaType,
		&objectKey, &objectURL, &m.ObjectETag, &m.ObjectVersion, &metadata,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return fileloader.UploadRecord{}, err
	}

	if objectKey != nil {
		m.ObjectKey = *objectKey
	}
	if objectURL != nil {
		m.ObjectURL = *objectURL
	}

	if metadata != nil {
		if err := json.Unmarshal(metadata, &m.ObjectMetadata); err != nil {
			return fileloader.UploadRecord{}, fmt.Errorf("parse object_metadata: %w", err)
		}
	}

	return m, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// marshalMetadata returns the JSON text for the object_metadata column, or nil for NULL.
func marshalMetadata(m fileloader.ObjectMetadata) (*string, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal object_metadata: %w", err)
	}
	s := string(b)
	return &s, nil
}
