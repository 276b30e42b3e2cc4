package fileloader_test

import (
	"strings"
	"testing"

	fileloader "github.com/abdoelhafi/file-loader-app"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFileExtension(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "notes.txt", want: "txt"},
		{name: "upper case kept", in: "NOTES.TXT", want: "TXT"},
		{name: "last dot wins", in: "archive.tar.txt", want: "txt"},
		{name: "no dot", in: "README", want: ""},
		{name: "trailing dot", in: "notes.", want: ""},
		{name: "hidden file", in: ".txt", want: "txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fileloader.FileExtension(tt.in))
		})
	}
}

func TestNewObjectKey(t *testing.T) {
	t.Run("keeps extension and is unique", func(t *testing.T) {
		a := fileloader.NewObjectKey("notes.txt")
		b := fileloader.NewObjectKey("notes.txt")

		assert.NotEqual(t, a, b)
		assert.True(t, strings.HasSuffix(a, ".txt"))

		_, err := uuid.Parse(strings.TrimSuffix(a, ".txt"))
		assert.NoError(t, err, "key prefix should be a uuid")
	})

	t.Run("never equals the input name", func(t *testing.T) {
		assert.NotEqual(t, "notes.txt", fileloader.NewObjectKey("notes.txt"))
	})
}

func TestIsObjectKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{name: "generated key", key: fileloader.NewObjectKey("notes.txt"), want: true},
		{name: "upper case uuid", key: strings.ToUpper(uuid.NewString()) + ".txt", want: true},
		{name: "plain name", key: "report.txt"},
		{name: "no extension", key: uuid.NewString()},
		{name: "empty extension", key: uuid.NewString() + "."},
		{name: "nested path", key: uuid.NewString() + ".d/file.txt"},
		{name: "prefixed", key: "backups/" + uuid.NewString() + ".txt"},
		{name: "urn uuid form", key: "urn:uuid:" + uuid.NewString() + ".txt"},
		{name: "empty", key: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fileloader.IsObjectKey(tt.key))
		})
	}
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "s3 url", in: "https://bucket.s3.amazonaws.com/abc.txt", want: "abc.txt"},
		{name: "path style", in: "http://localhost:9000/bucket/abc.txt", want: "abc.txt"},
		{name: "trailing slash", in: "http://host/files/abc.txt/", want: "abc.txt"},
		{name: "bare key", in: "abc.txt", want: "abc.txt"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fileloader.KeyFromURL(tt.in))
		})
	}
}

func TestUploadRecord_StorageKey(t *testing.T) {
	t.Run("prefers key column", func(t *testing.T) {
		r := fileloader.UploadRecord{ObjectKey: "k.txt", ObjectURL: "https://b.s3.amazonaws.com/other.txt"}
		assert.Equal(t, "k.txt", r.StorageKey())
		assert.True(t, r.HasObject())
	})

	t.Run("falls back to url", func(t *testing.T) {
		r := fileloader.UploadRecord{ObjectURL: "https://b.s3.amazonaws.com/other.txt"}
		assert.Equal(t, "other.txt", r.StorageKey())
		assert.True(t, r.HasObject())
	})

	t.Run("no object", func(t *testing.T) {
		assert.False(t, fileloader.UploadRecord{}.HasObject())
	})
}
