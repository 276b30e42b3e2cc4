package fileloader

import (
	"strings"

	"github.com/google/uuid"
)

// FileExtension returns the substring after the last "." of name, or "" when
// name has no dot. Case is preserved.
func FileExtension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

// NewObjectKey returns a fresh storage key that keeps the extension of name.
func NewObjectKey(name string) string {
	return uuid.NewString() + "." + FileExtension(name)
}

// IsObjectKey reports whether key has the shape NewObjectKey produces: a
// uuid, a dot, and an extension without path separators.
func IsObjectKey(key string) bool {
	id, ext, ok := strings.Cut(key, ".")
	if !ok || ext == "" || strings.ContainsAny(ext, "/\\") {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// KeyFromURL returns the last path segment of an object URL.
func KeyFromURL(u string) string {
	u = strings.TrimSuffix(u, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}
