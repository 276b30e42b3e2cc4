package fileloader

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// UploadRepo defines record persistence. Writes go through an UploadTx so the
// service controls when a row becomes visible.
//
// All methods accept a context for cancellation and timeout control.
type UploadRepo interface {
	// Begin opens a transactional scope. Nothing written through the returned
	// UploadTx is visible to other readers until Commit.
	Begin(ctx context.Context) (UploadTx, error)

	// Get returns the full record, content included.
	//
	// Returns:
	//   - error: ErrNotFound if no record has the id
	Get(ctx context.Context, id uuid.UUID) (UploadRecord, error)

	// List returns records newest first without their content.
	List(ctx context.Context, q ListQuery) (ListResult, error)

	// ListObjects returns every record that references an object, without content.
	ListObjects(ctx context.Context) ([]UploadRecord, error)
}

// UploadTx is a single transactional scope over the record table.
//
// Rollback after Commit is a no-op, so callers may defer it.
type UploadTx interface {
	// Insert stages a new row and returns it with id and timestamps assigned.
	Insert(ctx context.Context, entry RecordEntry) (UploadRecord, error)

	// Delete stages removal of a row.
	//
	// Returns:
	//   - error: ErrNotFound if no record has the id
	Delete(ctx context.Context, id uuid.UUID) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// ObjectStore defines blob storage operations. Implementations are long-lived
// and safe for concurrent use.
type ObjectStore interface {
	// Put writes content under key and reports where it lives and what the
	// store recorded about it. An empty URL in the result counts as a failed write.
	//
	// Parameters:
	//   - key: storage key, unique per upload
	//   - content: bytes to store, written byte-for-byte
	//   - mediaType: stored as the object's content type
	//   - metadata: user metadata stored alongside the object
	Put(ctx context.Context, key string, content io.Reader, mediaType string, metadata map[string]string) (PutResult, error)

	// Get opens the object for reading. The caller closes the reader.
	//
	// Returns:
	//   - error: ErrNotFound if the key does not exist
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Head returns object information without the body.
	//
	// Returns:
	//   - error: ErrNotFound if the key does not exist
	Head(ctx context.Context, key string) (ObjectInfo, error)

	// Delete removes the object. Deleting a missing key succeeds.
	Delete(ctx context.Context, key string) error

	// List returns every stored object. Used by reconciliation only.
	List(ctx context.Context) ([]ObjectInfo, error)
}
