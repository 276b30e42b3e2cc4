// Package filesystem provides a local directory object store.
// It supports atomic writes using temp files, SHA256-based etags, and
// keeps content type and user metadata in a hidden sidecar directory.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	fileloader "github.com/abdoelhafi/file-loader-app"
	"github.com/google/uuid"
)

// metaDir holds one JSON sidecar per object. Names starting with a dot are
// never listed as objects.
const metaDir = ".meta"

// Store provides file system storage operations.
type Store struct {
	root    *os.Root
	baseURL string
}

// sidecar is the JSON document stored next to each object.
type sidecar struct {
	ContentType string            `json:"content_type"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
// Object URLs are baseURL joined with the key; an empty baseURL yields file:// URLs.
func NewFileStorage(root *os.Root, baseURL string) *Store {
	if baseURL == "" {
		abs, err := filepath.Abs(root.Name())
		if err != nil {
			abs = root.Name()
		}
		baseURL = (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}
	return &Store{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// Get opens a file for reading. Returns fileloader.ErrNotFound if the file does not exist.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fileloader.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Put atomically writes content under key using a temp file and rename, then
// writes the sidecar. The ETag is the SHA256 of the content and LastModified
// is the file's modification time. No version id is reported.
func (s *Store) Put(ctx context.Context, key string, content io.Reader, mediaType string, metadata map[string]string) (fileloader.PutResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fileloader.PutResult{}, ctxErr
	}

	if err := validateKey(key); err != nil {
		return fileloader.PutResult{}, err
	}

	etag, err := s.writeAtomic(ctx, key, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return fileloader.PutResult{}, err
	}

	if err := s.writeSidecar(key, sidecar{ContentType: mediaType, Metadata: metadata}); err != nil {
		_ = s.root.Remove(key)
		return fileloader.PutResult{}, err
	}

	info, err := s.root.Stat(key)
	if err != nil {
		return fileloader.PutResult{}, fmt.Errorf("stat written file: %w", err)
	}
	modTime := info.ModTime().UTC()

	user := make(map[string]string, len(metadata))
	for k, v := range metadata {
		user[k] = v
	}

	return fileloader.PutResult{
		URL: s.objectURL(key),
		Metadata: fileloader.StoreMetadata{
			ETag:         &etag,
			LastModified: &modTime,
			User:         user,
		},
	}, nil
}

func (s *Store) writeAtomic(ctx context.Context, key string, content io.Reader) (string, error) {
	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return "", fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, t)

	if _, err := io.Copy(w, content); err != nil {
		return "", fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return "", fmt.Errorf("could not sync written file: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if renameErr := s.root.Rename(tmpFile, key); renameErr != nil {
		return "", fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s *Store) writeSidecar(key string, sc sidecar) error {
	if err := s.root.MkdirAll(metaDir, 0o755); err != nil {
		return fmt.Errorf("could not create metadata directory: %w", err)
	}

	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}

	if err := s.root.WriteFile(sidecarPath(key), data, 0o644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

func (s *Store) readSidecar(key string) (sidecar, bool) {
	data, err := s.root.ReadFile(sidecarPath(key))
	if err != nil {
		return sidecar{}, false
	}

	var sc sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		slog.Warn("ignoring unreadable sidecar", "key", key, "err", err)
		return sidecar{}, false
	}
	return sc, true
}

// Head returns the stored object's size, etag, content type and modification time.
func (s *Store) Head(ctx context.Context, key string) (fileloader.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return fileloader.ObjectInfo{}, err
	}

	info, err := s.root.Stat(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileloader.ObjectInfo{}, fileloader.ErrNotFound
		}
		return fileloader.ObjectInfo{}, fmt.Errorf("stat file: %w", err)
	}

	return s.objectInfo(key, info)
}

// Delete removes a file and its sidecar. A missing file is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.root.Remove(key); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete file: %w", err)
	}

	if err := s.root.Remove(sidecarPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove sidecar", "key", key, "err", err)
	}

	return nil
}

// List returns every object in the root directory. Hidden entries, which
// include temp files and the sidecar directory, are skipped.
func (s *Store) List(ctx context.Context) ([]fileloader.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := []fileloader.ObjectInfo{}

	err := s.walkDir(ctx, ".", &entries)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return entries, nil
}

func (s *Store) walkDir(ctx context.Context, dir string, entries *[]fileloader.ObjectInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), dir)
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		entryPath := path.Join(dir, entry.Name())

		if entry.IsDir() {
			if err := s.walkDir(ctx, entryPath, entries); err != nil {
				return err
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		obj, err := s.objectInfo(entryPath, info)
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		*entries = append(*entries, obj)
	}

	return nil
}

func (s *Store) objectInfo(key string, info fs.FileInfo) (fileloader.ObjectInfo, error) {
	f, err := s.root.Open(key)
	if err != nil {
		return fileloader.ObjectInfo{}, err
	}

	h := sha256.New()
	_, copyErr := io.Copy(h, f)

	if closeErr := f.Close(); closeErr != nil {
		slog.Warn("failed to close file", "key", key, "err", closeErr)
	}

	if copyErr != nil {
		return fileloader.ObjectInfo{}, copyErr
	}

	contentType := detectContentType(key)
	if sc, ok := s.readSidecar(key); ok && sc.ContentType != "" {
		contentType = sc.ContentType
	}

	return fileloader.ObjectInfo{
		Key:          key,
		Size:         info.Size(),
		ETag:         hex.EncodeToString(h.Sum(nil)),
		ContentType:  contentType,
		LastModified: info.ModTime().UTC(),
	}, nil
}

func (s *Store) objectURL(key string) string {
	return s.baseURL + "/" + key
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, ".") || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("put: %w: invalid key %q", fileloader.ErrInvalidInput, key)
	}
	return nil
}

func sidecarPath(key string) string {
	return path.Join(metaDir, key+".json")
}

func detectContentType(name string) string {
	contentType := mime.TypeByExtension(filepath.Ext(name))

	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
