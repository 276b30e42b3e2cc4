package fileloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	msgUploadFailed = "Failed to upload file to object storage"
	msgDeleteFailed = "Failed to delete file from object storage"

	defaultListLimit = 100
	maxListLimit     = 1000
)

type UploadService struct {
	repo           UploadRepo
	store          ObjectStore
	rules          FileRules
	files          FileValidator
	content        ContentValidator
	cleanupTimeout time.Duration
}

// ServiceConfig holds configuration options for UploadService.
type ServiceConfig struct {
	Rules          *FileRules    // nil uses DefaultFileRules
	CleanupTimeout time.Duration // Timeout for compensation and rollback (default: 30s)
}

func NewUploadService(repo UploadRepo, store ObjectStore, cfg ServiceConfig) (*UploadService, error) {
	if repo == nil {
		return nil, fmt.Errorf("new upload service: %w: repo is required", ErrInvalidInput)
	}
	if store == nil {
		return nil, fmt.Errorf("new upload service: %w: object store is required", ErrInvalidInput)
	}

	rules := DefaultFileRules()
	if cfg.Rules != nil {
		rules = *cfg.Rules
	}

	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = 30 * time.Second
	}

	return &UploadService{
		repo:           repo,
		store:          store,
		rules:          rules,
		files:          NewFileValidator(rules),
		cleanupTimeout: cleanupTimeout,
	}, nil
}

// Create validates an upload, writes it to the object store and records it.
//
// The method performs the following steps:
//  1. Structural validation (size, media type, extension, filename length)
//  2. UTF-8 decoding of the content
//  3. Content validation (SQL and script signatures)
//  4. Key generation (uuid plus the original extension)
//  5. Begin a record transaction
//  6. Object store write
//  7. Record insert and commit
//
// Steps 1-3 have no side effects. If step 6 or 7 fails the transaction is
// rolled back and the object is deleted on a background context bounded by
// the cleanup timeout. A failed cleanup is logged and the original error is
// returned.
//
// Error types returned:
//   - *ValidationError (ErrValidation): the upload was rejected
//   - *StorageError (ErrStorage): the object store write failed
//   - ErrInvalidInput: nil content reader
//   - Wrapped repository errors
func (s *UploadService) Create(ctx context.Context, in NewUpload) (UploadRecord, error) {
	if err := ctx.Err(); err != nil {
		return UploadRecord{}, fmt.Errorf("create upload: %w", err)
	}

	if in.Content == nil {
		return UploadRecord{}, fmt.Errorf("create upload: %w: content cannot be nil", ErrInvalidInput)
	}

	if err := s.files.Validate(in.Size, in.MediaType, in.Name); err != nil {
		return UploadRecord{}, fmt.Errorf("create upload: %w", err)
	}

	data, content, err := s.decode(in)
	if err != nil {
		return UploadRecord{}, fmt.Errorf("create upload: %w", err)
	}

	if err := s.content.Validate(content); err != nil {
		return UploadRecord{}, fmt.Errorf("create upload: %w", err)
	}

	key := NewObjectKey(in.Name)

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return UploadRecord{}, fmt.Errorf("create upload: begin: %w", err)
	}

	record, err := s.storeAndRecord(ctx, tx, key, in, data, content)
	if err != nil {
		return UploadRecord{}, fmt.Errorf("create upload %s: %w", key, err)
	}

	return record, nil
}

// decode reads the whole upload and checks it is valid UTF-8 of the declared size.
func (s *UploadService) decode(in NewUpload) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(in.Content, s.rules.MaxSizeBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read content: %w", err)
	}

	if int64(len(data)) != in.Size {
		return nil, "", newValidationError(ReasonInvalidSize, msgInvalidSize)
	}

	if !utf8.Valid(data) {
		return nil, "", newValidationError(ReasonInvalidEncoding, msgInvalidEncoding)
	}

	return data, string(data), nil
}

// storeAndRecord runs the object store write and the insert inside tx. Every
// exit that does not commit runs compensate, panics included.
func (s *UploadService) storeAndRecord(ctx context.Context, tx UploadTx, key string, in NewUpload, data []byte, content string) (record UploadRecord, err error) {
	committed := false
	defer func() {
		if p := recover(); p != nil {
			s.compensate(tx, key, fmt.Errorf("panic: %v", p))
			panic(p)
		}
		if !committed {
			s.compensate(tx, key, err)
		}
	}()

	userMeta := map[string]string{
		MetaOriginalName: in.Name,
		MetaContentType:  in.MediaType,
		MetaSize:         strconv.FormatInt(in.Size, 10),
	}

	put, putErr := s.store.Put(ctx, key, bytes.NewReader(data), in.MediaType, userMeta)
	if putErr != nil {
		return UploadRecord{}, &StorageError{Op: "put", Key: key, Message: msgUploadFailed, Err: putErr}
	}
	if put.URL == "" {
		return UploadRecord{}, &StorageError{Op: "put", Key: key, Message: msgUploadFailed}
	}

	entry := RecordEntry{
		Name:           in.Name,
		SizeKB:         float64(in.Size) / 1024,
		Content:        content,
		MediaType:      in.MediaType,
		ObjectKey:      key,
		ObjectURL:      put.URL,
		ObjectETag:     put.Metadata.ETag,
		ObjectVersion:  put.Metadata.VersionID,
		ObjectMetadata: NormalizeObjectMetadata(put.Metadata),
	}

	record, err = tx.Insert(ctx, entry)
	if err != nil {
		return UploadRecord{}, fmt.Errorf("insert record: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return UploadRecord{}, fmt.Errorf("commit: %w", err)
	}
	committed = true

	return record, nil
}

// compensate discards the staged row and removes the object written under key.
// Failures here are logged only; cause is the error being returned to the caller.
func (s *UploadService) compensate(tx UploadTx, key string, cause error) {
	// The request context may already be cancelled.
	cleanupCtx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
	defer cancel()

	if rbErr := tx.Rollback(cleanupCtx); rbErr != nil {
		slog.Error("rollback upload transaction", "key", key, "err", rbErr, "cause", cause)
	}

	if delErr := s.store.Delete(cleanupCtx, key); delErr != nil {
		slog.Error("failed to clean up object after upload failure", "key", key, "err", delErr, "cause", cause)
		return
	}

	slog.Warn("upload rolled back", "key", key, "cause", cause)
}

// NormalizeObjectMetadata builds the metadata map kept on a record from what
// the object store reported. Values the store omitted are nil and the
// last-modified time is formatted as RFC 3339 in UTC.
func NormalizeObjectMetadata(meta StoreMetadata) ObjectMetadata {
	m := ObjectMetadata{
		MetaETag:         meta.ETag,
		MetaVersionID:    meta.VersionID,
		MetaLastModified: nil,
		MetaContentType:  userValue(meta.User, MetaContentType),
		MetaSize:         userValue(meta.User, MetaSize),
		MetaOriginalName: userValue(meta.User, MetaOriginalName),
	}

	if meta.LastModified != nil {
		ts := meta.LastModified.UTC().Format(time.RFC3339)
		m[MetaLastModified] = &ts
	}

	return m
}

func userValue(user map[string]string, key string) *string {
	v, ok := user[key]
	if !ok {
		return nil
	}
	return &v
}

func (s *UploadService) Get(ctx context.Context, id uuid.UUID) (UploadRecord, error) {
	if err := ctx.Err(); err != nil {
		return UploadRecord{}, fmt.Errorf("get upload: %w", err)
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return UploadRecord{}, fmt.Errorf("get upload %s: %w", id, err)
	}

	return record, nil
}

// List returns records newest first. Content is not loaded.
func (s *UploadService) List(ctx context.Context, q ListQuery) (ListResult, error) {
	if err := ctx.Err(); err != nil {
		return ListResult{}, fmt.Errorf("list uploads: %w", err)
	}

	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	q.Limit = min(q.Limit, maxListLimit)

	result, err := s.repo.List(ctx, q)
	if err != nil {
		return ListResult{}, fmt.Errorf("list uploads: %w", err)
	}

	return result, nil
}

// Delete loads the record with id and removes it with DeleteRecord.
func (s *UploadService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete upload %s: %w", id, err)
	}

	return s.DeleteRecord(ctx, record)
}

// DeleteRecord removes the object first and the row second, so a crash in
// between leaves a row without an object rather than an unreferenced object.
// If the object store delete fails the row is kept and a *StorageError is returned.
// A record without an object reference only has its row removed.
func (s *UploadService) DeleteRecord(ctx context.Context, record UploadRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("delete upload %s: begin: %w", record.ID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if record.HasObject() {
		key := record.StorageKey()
		if delErr := s.store.Delete(ctx, key); delErr != nil && !errors.Is(delErr, ErrNotFound) {
			return fmt.Errorf("delete upload %s: %w", record.ID, &StorageError{Op: "delete", Key: key, Message: msgDeleteFailed, Err: delErr})
		}
	}

	if err := tx.Delete(ctx, record.ID); err != nil {
		return fmt.Errorf("delete upload %s: %w", record.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("delete upload %s: commit: %w", record.ID, err)
	}

	return nil
}

// Reconcile compares the object store with the record table.
//
// Objects with no record and a last-modified time older than opts.Grace are
// orphans left behind by a crash between the object write and the commit;
// they are deleted unless opts.DryRun is set. Only keys NewObjectKey could
// have produced are considered, so foreign objects in a shared bucket are
// never touched. Records whose object is gone are
// reported and, with opts.PruneRecords, deleted.
func (s *UploadService) Reconcile(ctx context.Context, opts ReconcileOptions) (ReconcileReport, error) {
	if err := ctx.Err(); err != nil {
		return ReconcileReport{}, fmt.Errorf("reconcile: %w", err)
	}

	// Records first: a record always has its object written before it, so
	// listing objects second cannot miss an object that a listed record owns.
	records, err := s.repo.ListObjects(ctx)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("reconcile: list records: %w", err)
	}

	objects, err := s.store.List(ctx)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("reconcile: list objects: %w", err)
	}

	known := make(map[string]struct{}, len(records))
	for _, r := range records {
		known[r.StorageKey()] = struct{}{}
	}

	report := ReconcileReport{OrphanObjects: []string{}, MissingObjects: []uuid.UUID{}}
	cutoff := time.Now().Add(-opts.Grace)
	present := make(map[string]struct{}, len(objects))

	for _, obj := range objects {
		present[obj.Key] = struct{}{}

		if _, ok := known[obj.Key]; ok {
			continue
		}
		if !IsObjectKey(obj.Key) {
			continue
		}
		if obj.LastModified.After(cutoff) {
			continue
		}

		report.OrphanObjects = append(report.OrphanObjects, obj.Key)
		if opts.DryRun {
			continue
		}

		if err := s.store.Delete(ctx, obj.Key); err != nil {
			return report, fmt.Errorf("reconcile '%s': %w", obj.Key, err)
		}
		report.DeletedObjects++
		slog.Info("deleted orphan object", "key", obj.Key)
	}

	for _, r := range records {
		if _, ok := present[r.StorageKey()]; ok {
			continue
		}

		report.MissingObjects = append(report.MissingObjects, r.ID)
		if opts.DryRun || !opts.PruneRecords {
			continue
		}

		if err := s.deleteRow(ctx, r.ID); err != nil {
			return report, fmt.Errorf("reconcile '%s': %w", r.ID, err)
		}
		report.DeletedRecords++
		slog.Info("deleted record with missing object", "id", r.ID, "key", r.StorageKey())
	}

	return report, nil
}

func (s *UploadService) deleteRow(ctx context.Context, id uuid.UUID) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.Delete(ctx, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
