package fileloader

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// ObjectMetadata is the denormalized copy of the object store response kept on a record.
// Values the store did not report are nil.
type ObjectMetadata map[string]*string

// Keys of ObjectMetadata.
const (
	MetaETag         = "ETag"
	MetaVersionID    = "VersionId"
	MetaLastModified = "LastModified"
	MetaContentType  = "content_type"
	MetaSize         = "size"
	MetaOriginalName = "original_name"
)

// UploadRecord is one stored file.
type UploadRecord struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	SizeKB         float64        `json:"size"`
	Content        string         `json:"content,omitempty"`
	MediaType      string         `json:"file_type"`
	ObjectKey      string         `json:"object_key,omitempty"`
	ObjectURL      string         `json:"s3_url"`
	ObjectETag     *string        `json:"s3_etag"`
	ObjectVersion  *string        `json:"s3_version_id"`
	ObjectMetadata ObjectMetadata `json:"s3_metadata"`
	CreatedAt      time.Time      `json:"uploaded_at"`
	UpdatedAt      time.Time      `json:"last_modified"`
}

// HasObject reports whether the record references a blob.
func (r UploadRecord) HasObject() bool {
	return r.ObjectKey != "" || r.ObjectURL != ""
}

// StorageKey returns the object key of the record. Older rows only carry the URL,
// in which case the key is its last path segment.
func (r UploadRecord) StorageKey() string {
	if r.ObjectKey != "" {
		return r.ObjectKey
	}
	return KeyFromURL(r.ObjectURL)
}

// NewUpload is the input of UploadService.Create.
type NewUpload struct {
	Name      string
	MediaType string
	Size      int64
	Content   io.Reader
}

// RecordEntry is the row written by UploadTx.Insert.
type RecordEntry struct {
	Name           string
	SizeKB         float64
	Content        string
	MediaType      string
	ObjectKey      string
	ObjectURL      string
	ObjectETag     *string
	ObjectVersion  *string
	ObjectMetadata ObjectMetadata
}

// StoreMetadata is what the object store reports after a write.
type StoreMetadata struct {
	ETag         *string
	VersionID    *string
	LastModified *time.Time
	User         map[string]string
}

// PutResult is the outcome of ObjectStore.Put.
type PutResult struct {
	URL      string
	Metadata StoreMetadata
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

type ListQuery struct {
	Limit  int
	Cursor string
}

type ListResult struct {
	Items      []UploadRecord `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// ReconcileOptions controls UploadService.Reconcile.
type ReconcileOptions struct {
	// Grace skips objects modified more recently than this, so uploads in flight are not touched.
	Grace time.Duration
	// DryRun reports without deleting anything.
	DryRun bool
	// PruneRecords deletes rows whose object is missing from the store.
	PruneRecords bool
}

// ReconcileReport summarizes a reconcile run.
type ReconcileReport struct {
	OrphanObjects  []string    `json:"orphan_objects"`
	DeletedObjects int         `json:"deleted_objects"`
	MissingObjects []uuid.UUID `json:"missing_objects"`
	DeletedRecords int         `json:"deleted_records"`
}

// Tables holds configurable table names for record storage.
type Tables struct {
	Uploads string `mapstructure:"uploads"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Uploads == "" {
		return errors.New("validate tables: uploads table name cannot be empty")
	}

	if !IsValidTableName(t.Uploads) {
		return fmt.Errorf("validate tables: invalid uploads table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Uploads)
	}

	return nil
}
