// Package sqlite implements the upload repository using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	fileloader "github.com/abdoelhafi/file-loader-app"
	"github.com/abdoelhafi/file-loader-app/database/internal"
	"github.com/google/uuid"
)

// timeLayout is fixed width so that TEXT ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const (
	recordColumns  = `id, name, size_kb, content, media_type, object_key, object_url, object_etag, object_version, object_metadata, created_at, updated_at`
	summaryColumns = `id, name, size_kb, '' AS content, media_type, object_key, object_url, object_etag, object_version, object_metadata, created_at, updated_at`
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

type repo struct {
	db        *sql.DB
	tableName string
}

func (r *repo) Begin(ctx context.Context) (fileloader.UploadTx, error) {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &tx{tx: sqlTx, tableName: r.tableName}, nil
}

func (r *repo) Get(ctx context.Context, id uuid.UUID) (fileloader.UploadRecord, error) {
	return getRecord(ctx, r.db, r.tableName, id)
}

func (r *repo) List(ctx context.Context, q fileloader.ListQuery) (fileloader.ListResult, error) {
	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return fileloader.ListResult{}, fmt.Errorf("list: %w: %v", fileloader.ErrInvalidInput, err)
	}

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`SELECT %s FROM %s
			ORDER BY created_at DESC, id DESC
			LIMIT ?`, summaryColumns, quoteIdentifier(r.tableName))
		args = []any{q.Limit + 1}
	} else {
		query = fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`SELECT %s FROM %s
			WHERE (created_at, id) < (?, ?)
			ORDER BY created_at DESC, id DESC
			LIMIT ?`, summaryColumns, quoteIdentifier(r.tableName))
		args = []any{formatTime(cursor.CreatedAt), cursor.ID, q.Limit + 1}
	}

	items, err := queryRecords(ctx, r.db, query, args...)
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
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s
		WHERE object_key IS NOT NULL OR object_url IS NOT NULL
		ORDER BY created_at`, summaryColumns, quoteIdentifier(r.tableName))

	items, err := queryRecords(ctx, r.db, query)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	return items, nil
}

// tx stages writes inside a single *sql.Tx.
type tx struct {
	tx        *sql.Tx
	tableName string
}

func (t *tx) Insert(ctx context.Context, entry fileloader.RecordEntry) (fileloader.UploadRecord, error) {
	metadata, err := marshalMetadata(entry.ObjectMetadata)
	if err != nil {
		return fileloader.UploadRecord{}, fmt.Errorf("insert: %w", err)
	}

	now := time.Now().UTC()
	id := uuid.New()

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, quoteIdentifier(t.tableName), recordColumns)

	_, err = t.tx.ExecContext(ctx, query,
		id.String(), entry.Name, entry.SizeKB, entry.Content, entry.MediaType,
		nullString(entry.ObjectKey), nullString(entry.ObjectURL), entry.ObjectETag, entry.ObjectVersion,
		metadata, formatTime(now), formatTime(now),
	)
	if err != nil {
		return fileloader.UploadRecord{}, fmt.Errorf("insert: %w", err)
	}

	return fileloader.UploadRecord{
		ID:             id,
		Name:           entry.Name,
		SizeKB:         entry.SizeKB,
		Content:        entry.Content,
		MediaType:      entry.MediaType,
		ObjectKey:      entry.ObjectKey,
		ObjectURL:      entry.ObjectURL,
		ObjectETag:     entry.ObjectETag,
		ObjectVersion:  entry.ObjectVersion,
		ObjectMetadata: entry.ObjectMetadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (t *tx) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, quoteIdentifier(t.tableName)) //nolint:gosec // table name is validated

	result, err := t.tx.ExecContext(ctx, query, id.String())
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete: %w", fileloader.ErrNotFound)
	}

	return nil
}

func (t *tx) Commit(_ context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *tx) Rollback(_ context.Context) error {
	err := t.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func getRecord(ctx context.Context, db dbtx, tableName string, id uuid.UUID) (fileloader.UploadRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, recordColumns, quoteIdentifier(tableName)) //nolint:gosec // table name is validated

	m, err := scanRecord(db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fileloader.UploadRecord{}, fileloader.ErrNotFound
		}
		return fileloader.UploadRecord{}, fmt.Errorf("get: %w", err)
	}

	return m, nil
}

func queryRecords(ctx context.Context, db dbtx, query string, args ...any) ([]fileloader.UploadRecord, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []fileloader.UploadRecord{}
	for rows.Next() {
		m, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return items, nil
}

func scanRecord(row scanner) (fileloader.UploadRecord, error) {
	var m fileloader.UploadRecord
	var idStr, createdAt, updatedAt string
	var objectKey, objectURL, etag, version, metadata sql.NullString

	err := row.Scan(
		&idStr, &m.Name, &m.SizeKB, &m.Content, &m.MediaType,
		&objectKey, &objectURL, &etag, &version, &metadata,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return fileloader.UploadRecord{}, err
	}

	m.ID, err = uuid.Parse(idStr)
	if err != nil {
		return fileloader.UploadRecord{}, fmt.Errorf("parse uuid: %w", err)
	}

	m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return fileloader.UploadRecord{}, fmt.Errorf("parse created_at: %w", err)
	}

	m.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return fileloader.UploadRecord{}, fmt.Errorf("parse updated_at: %w", err)
	}

	m.ObjectKey = objectKey.String
	m.ObjectURL = objectURL.String
	if etag.Valid {
		m.ObjectETag = &etag.String
	}
	if version.Valid {
		m.ObjectVersion = &version.String
	}

	if metadata.Valid {
		if err := json.Unmarshal([]byte(metadata.String), &m.ObjectMetadata); err != nil {
			return fileloader.UploadRecord{}, fmt.Errorf("parse object_metadata: %w", err)
		}
	}

	return m, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func marshalMetadata(m fileloader.ObjectMetadata) (sql.NullString, error) {
	if m == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal object_metadata: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
