package clientcli

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// UploadOptions configures an upload operation.
type UploadOptions struct {
	Paths       []string
	ContentType string // optional, detected from the extension if empty
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath string `json:"local_path"`
	File      File   `json:"file"`
	Err       error  `json:"-"` // nil on success
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	IDs []string
}

// DeleteResult represents the result of deleting a single upload.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
	Err     error  `json:"-"` // nil on success
}

// ListOptions configures a list operation.
type ListOptions struct {
	Limit  int
	Cursor string
	All    bool // auto-paginate through all results
}

// ListResult contains paginated list results.
type ListResult struct {
	Items      []File `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// File is an upload record as returned by the server.
type File struct {
	ID           uuid.UUID          `json:"id"`
	Name         string             `json:"name"`
	SizeKB       float64            `json:"size"`
	Content      string             `json:"content,omitempty"`
	FileType     string             `json:"file_type"`
	URL          string             `json:"s3_url"`
	ETag         *string            `json:"s3_etag"`
	VersionID    *string            `json:"s3_version_id"`
	Metadata     map[string]*string `json:"s3_metadata,omitempty"`
	UploadedAt   time.Time          `json:"uploaded_at"`
	LastModified time.Time          `json:"last_modified"`
}

// envelope mirrors the JSON body of every server response.
type envelope struct {
	Success   bool            `json:"success"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	Message   string          `json:"message,omitempty"`
}
