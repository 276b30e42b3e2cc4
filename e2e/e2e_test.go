package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fileloader "github.com/abdoelhafi/file-loader-app"
	"github.com/abdoelhafi/file-loader-app/clientcli"
)

var notes = strings.Repeat("Meeting notes for the quarterly review.\n", 16)

func sqliteServer(t *testing.T) ServerConfig {
	t.Helper()
	return ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "sqlite",
		DBDSN:       filepath.Join(t.TempDir(), "test.db"),
		StoragePath: t.TempDir(),
	}
}

func postgresServer(t *testing.T, table string) ServerConfig {
	t.Helper()
	return ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "postgres",
		DBDSN:       getSharedPostgresDatabase(t),
		Table:       table,
		StoragePath: t.TempDir(),
	}
}

func newClient(t *testing.T, baseURL string) *clientcli.Client {
	t.Helper()
	c, err := clientcli.New(&clientcli.Config{Endpoint: baseURL})
	require.NoError(t, err)
	return c
}

func TestE2E_Lifecycle_SQLite(t *testing.T) {
	baseURL, _, cleanup := startServer(t, sqliteServer(t))
	defer cleanup()

	runLifecycleTests(t, baseURL)
}

func TestE2E_Lifecycle_Postgres(t *testing.T) {
	baseURL, _, cleanup := startServer(t, postgresServer(t, "lifecycle_uploads"))
	defer cleanup()

	runLifecycleTests(t, baseURL)
}

func runLifecycleTests(t *testing.T, baseURL string) {
	t.Helper()
	ctx := context.Background()
	client := newClient(t, baseURL)

	var uploaded clientcli.File

	t.Run("upload stores file", func(t *testing.T) {
		path := writeTextFile(t, "notes.txt", notes)

		results, err := client.Upload(ctx, clientcli.UploadOptions{Paths: []string{path}})
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.NoError(t, results[0].Err)

		uploaded = results[0].File
		assert.Equal(t, "notes.txt", uploaded.Name)
		assert.Equal(t, "text/plain", uploaded.FileType)
		assert.InDelta(t, float64(len(notes))/1024, uploaded.SizeKB, 0.01)
		assert.NotEmpty(t, uploaded.URL)
		assert.Empty(t, uploaded.Content, "upload response omits content")
	})

	t.Run("get returns content", func(t *testing.T) {
		f, err := client.Get(ctx, uploaded.ID.String())
		require.NoError(t, err)
		assert.Equal(t, notes, f.Content)
		assert.Equal(t, uploaded.URL, f.URL)
	})

	t.Run("list includes upload without content", func(t *testing.T) {
		res, err := client.List(ctx, clientcli.ListOptions{All: true})
		require.NoError(t, err)

		var found *clientcli.File
		for i := range res.Items {
			if res.Items[i].ID == uploaded.ID {
				found = &res.Items[i]
			}
		}
		require.NotNil(t, found)
		assert.Empty(t, found.Content)
	})

	t.Run("delete removes upload", func(t *testing.T) {
		results, err := client.Delete(ctx, clientcli.DeleteOptions{IDs: []string{uploaded.ID.String()}})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results[0].Deleted)
		assert.NoError(t, results[0].Err)
	})

	t.Run("get after delete is not found", func(t *testing.T) {
		_, err := client.Get(ctx, uploaded.ID.String())
		assert.ErrorIs(t, err, clientcli.ErrNotFound)
	})

	t.Run("second delete is not found", func(t *testing.T) {
		results, err := client.Delete(ctx, clientcli.DeleteOptions{IDs: []string{uploaded.ID.String()}})
		require.NoError(t, err)
		assert.ErrorIs(t, results[0].Err, clientcli.ErrNotFound)
	})
}

func TestE2E_List_Pagination_SQLite(t *testing.T) {
	baseURL, _, cleanup := startServer(t, sqliteServer(t))
	defer cleanup()

	ctx := context.Background()
	client := newClient(t, baseURL)

	var paths []string
	for i := range 5 {
		paths = append(paths, writeTextFile(t, fmt.Sprintf("file-%d.txt", i), notes))
	}
	results, err := client.Upload(ctx, clientcli.UploadOptions{Paths: paths})
	require.NoError(t, err)
	require.False(t, clientcli.HasUploadErrors(results))

	first, err := client.List(ctx, clientcli.ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, first.Items, 2)
	assert.NotEmpty(t, first.NextCursor)

	all, err := client.List(ctx, clientcli.ListOptions{Limit: 2, All: true})
	require.NoError(t, err)
	assert.Len(t, all.Items, 5)
	assert.Empty(t, all.NextCursor)

	seen := map[string]bool{}
	for i, f := range all.Items {
		assert.False(t, seen[f.ID.String()], "duplicate id across pages")
		seen[f.ID.String()] = true
		if i > 0 {
			assert.False(t, f.UploadedAt.After(all.Items[i-1].UploadedAt), "newest first")
		}
	}
}

func postMultipart(t *testing.T, baseURL, filename, contentType string, content []byte) (int, map[string]any) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, filename)}
	h["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(baseURL+"/api/files/", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env map[string]any
	require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)
	return resp.StatusCode, env
}

func TestE2E_UploadRejected_SQLite(t *testing.T) {
	cfg := sqliteServer(t)
	baseURL, _, cleanup := startServer(t, cfg)
	defer cleanup()

	tests := []struct {
		name        string
		filename    string
		contentType string
		content     string
		reason      fileloader.Reason
	}{
		{name: "too small", filename: "a.txt", contentType: "text/plain", content: "short", reason: fileloader.ReasonInvalidSize},
		{name: "wrong type", filename: "a.txt", contentType: "text/csv", content: notes, reason: fileloader.ReasonInvalidType},
		{name: "wrong extension", filename: "a.csv", contentType: "text/plain", content: notes, reason: fileloader.ReasonInvalidExtension},
		{name: "sql", filename: "a.txt", contentType: "text/plain", content: notes + "DROP TABLE users;", reason: fileloader.ReasonSuspiciousSQLContent},
		{name: "script", filename: "a.txt", contentType: "text/plain", content: notes + `<script>x</script><body onload="y">`, reason: fileloader.ReasonSuspiciousScriptContent},
		{name: "not utf-8", filename: "a.txt", contentType: "text/plain", content: notes + "\xff\xfe", reason: fileloader.ReasonInvalidEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := postMultipart(t, baseURL, tt.filename, tt.contentType, []byte(tt.content))
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, false, env["success"])
			assert.Equal(t, string(tt.reason), env["error"])
		})
	}

	t.Run("nothing stored", func(t *testing.T) {
		res, err := newClient(t, baseURL).List(context.Background(), clientcli.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, res.Items)

		entries, err := os.ReadDir(cfg.StoragePath)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestE2E_Reconcile_SQLite(t *testing.T) {
	cfg := sqliteServer(t)
	baseURL, configPath, cleanup := startServer(t, cfg)
	defer cleanup()

	ctx := context.Background()
	client := newClient(t, baseURL)

	results, err := client.Upload(ctx, clientcli.UploadOptions{Paths: []string{writeTextFile(t, "keep.txt", notes)}})
	require.NoError(t, err)
	require.False(t, clientcli.HasUploadErrors(results))

	old := time.Now().Add(-2 * time.Hour)
	orphanKey := fileloader.NewObjectKey("orphan.txt")
	orphan := filepath.Join(cfg.StoragePath, orphanKey)
	fresh := filepath.Join(cfg.StoragePath, fileloader.NewObjectKey("fresh.txt"))
	foreign := filepath.Join(cfg.StoragePath, "other-app.txt")
	require.NoError(t, os.WriteFile(orphan, []byte(notes), 0o600))
	require.NoError(t, os.Chtimes(orphan, old, old))
	require.NoError(t, os.WriteFile(fresh, []byte(notes), 0o600))
	require.NoError(t, os.WriteFile(foreign, []byte(notes), 0o600))
	require.NoError(t, os.Chtimes(foreign, old, old))

	t.Run("dry run reports", func(t *testing.T) {
		var report fileloader.ReconcileReport
		out := runCommand(t, configPath, "reconcile", "--dry-run", "--json")
		require.NoError(t, json.Unmarshal(out, &report))

		assert.Equal(t, []string{orphanKey}, report.OrphanObjects)
		assert.Zero(t, report.DeletedObjects)
		assert.FileExists(t, orphan)
	})

	t.Run("deletes old orphans only", func(t *testing.T) {
		var report fileloader.ReconcileReport
		out := runCommand(t, configPath, "reconcile", "--json")
		require.NoError(t, json.Unmarshal(out, &report))

		assert.Equal(t, 1, report.DeletedObjects)
		assert.NoFileExists(t, orphan)
		assert.FileExists(t, fresh, "objects inside the grace period are kept")
		assert.FileExists(t, foreign, "keys the service did not generate are kept")
	})

	t.Run("uploaded file survives", func(t *testing.T) {
		f, err := client.Get(ctx, results[0].File.ID.String())
		require.NoError(t, err)
		assert.Equal(t, notes, f.Content)
	})
}

func TestE2E_Health_SQLite(t *testing.T) {
	baseURL, _, cleanup := startServer(t, sqliteServer(t))
	defer cleanup()

	assert.NoError(t, newClient(t, baseURL).Health(context.Background()))
}
