package fileloader

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record or object does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when a request is malformed before validation runs
	ErrInvalidInput = errors.New("invalid input")
	// ErrValidation matches every *ValidationError
	ErrValidation = errors.New("validation failed")
	// ErrStorage matches every *StorageError
	ErrStorage = errors.New("storage failure")
)

// Reason identifies which validation rule rejected an upload.
type Reason string

const (
	ReasonInvalidSize             Reason = "invalid_size"
	ReasonInvalidType             Reason = "invalid_type"
	ReasonInvalidExtension        Reason = "invalid_extension"
	ReasonFilenameTooLong         Reason = "filename_too_long"
	ReasonInvalidEncoding         Reason = "invalid_encoding"
	ReasonSuspiciousSQLContent    Reason = "suspicious_sql_content"
	ReasonSuspiciousScriptContent Reason = "suspicious_script_content"
)

// ValidationError is a client-caused rejection. Message is safe to return to callers.
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(reason Reason, message string) *ValidationError {
	return &ValidationError{Reason: reason, Message: message}
}

// StorageError is an object store failure. Message is the caller-facing text,
// Err keeps the underlying cause for logs.
type StorageError struct {
	Op      string
	Key     string
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Key, e.Message)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
