package clientcli_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/abdoelhafi/file-loader-app/clientcli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFile() clientcli.File {
	etag := "abc123"
	return clientcli.File{
		ID:         uuid.MustParse("7f1c2a8e-3f7b-4c1e-9a55-0a9f3b6d2c11"),
		Name:       "notes.txt",
		SizeKB:     0.586,
		Content:    "hello world",
		FileType:   "text/plain",
		URL:        "http://files.local/7f1c2a8e.txt",
		ETag:       &etag,
		UploadedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewFormatter(t *testing.T) {
	t.Run("json formatter", func(t *testing.T) {
		_, ok := clientcli.NewFormatter(true, false).(*clientcli.JSONFormatter)
		assert.True(t, ok)
	})

	t.Run("human formatter quiet", func(t *testing.T) {
		hf, ok := clientcli.NewFormatter(false, true).(*clientcli.HumanFormatter)
		require.True(t, ok)
		assert.True(t, hf.Quiet)
	})
}

func TestHumanFormatter_FormatUpload(t *testing.T) {
	results := []clientcli.UploadResult{
		{LocalPath: "notes.txt", File: sampleFile()},
		{LocalPath: "bad.exe", Err: errors.New("server error: 400 invalid_extension - Only .txt files are allowed")},
	}

	t.Run("verbose", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatUpload(&buf, results))

		out := buf.String()
		assert.Contains(t, out, "Uploaded: notes.txt (600 B)")
		assert.Contains(t, out, "ID:  7f1c2a8e-3f7b-4c1e-9a55-0a9f3b6d2c11")
		assert.Contains(t, out, "Error: bad.exe - server error: 400 invalid_extension")
	})

	t.Run("quiet prints ids", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{Quiet: true}).FormatUpload(&buf, results[:1]))
		assert.Equal(t, "7f1c2a8e-3f7b-4c1e-9a55-0a9f3b6d2c11\n", buf.String())
	})
}

func TestHumanFormatter_FormatFile(t *testing.T) {
	file := sampleFile()

	t.Run("details with content", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatFile(&buf, &file, false))

		out := buf.String()
		assert.Contains(t, out, "Name:      notes.txt")
		assert.Contains(t, out, "ETag:      abc123")
		assert.Contains(t, out, "Version:   -")
		assert.Contains(t, out, "hello world\n")
	})

	t.Run("content only", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatFile(&buf, &file, true))
		assert.Equal(t, "hello world", buf.String())
	})
}

func TestHumanFormatter_FormatList(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatList(&buf, &clientcli.ListResult{}))
		assert.Equal(t, "No files found\n", buf.String())
	})

	t.Run("table with cursor", func(t *testing.T) {
		var buf bytes.Buffer
		result := &clientcli.ListResult{
			Items:      []clientcli.File{sampleFile(), sampleFile()},
			NextCursor: "abc",
		}
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatList(&buf, result))

		out := buf.String()
		assert.Contains(t, out, "NAME")
		assert.Contains(t, out, "notes.txt")
		assert.Contains(t, out, "2 file(s) (1.17 KB total)")
		assert.Contains(t, out, `--cursor "abc"`)
	})
}

func TestHumanFormatter_FormatDelete(t *testing.T) {
	var buf bytes.Buffer
	results := []clientcli.DeleteResult{
		{ID: "a", Deleted: true},
		{ID: "b", Err: errors.New("not found")},
	}
	require.NoError(t, (&clientcli.HumanFormatter{}).FormatDelete(&buf, results))

	assert.Contains(t, buf.String(), "Deleted: a")
	assert.Contains(t, buf.String(), "Error: b - not found")
}

func TestHumanFormatter_Profiles(t *testing.T) {
	profiles := []clientcli.Profile{
		{Name: "local", Endpoint: "http://localhost:8000"},
		{Name: "prod", Endpoint: "https://files.example.com"},
	}

	var buf bytes.Buffer
	require.NoError(t, (&clientcli.HumanFormatter{}).FormatProfileList(&buf, profiles, "prod"))
	assert.Contains(t, buf.String(), "* prod")
	assert.Contains(t, buf.String(), "  local")

	buf.Reset()
	require.NoError(t, (&clientcli.HumanFormatter{}).FormatProfileShow(&buf, profiles[1], true))
	assert.Contains(t, buf.String(), "Name:     prod (default)")
	assert.Contains(t, buf.String(), "Endpoint: https://files.example.com")
}

func TestJSONFormatter(t *testing.T) {
	f := &clientcli.JSONFormatter{}

	t.Run("upload", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.FormatUpload(&buf, []clientcli.UploadResult{
			{LocalPath: "notes.txt", File: sampleFile()},
			{LocalPath: "bad.txt", Err: errors.New("rejected")},
		}))

		var out []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		require.Len(t, out, 2)
		assert.Equal(t, "notes.txt", out[0]["file"].(map[string]any)["name"])
		assert.NotContains(t, out[0], "error")
		assert.Equal(t, "rejected", out[1]["error"])
		assert.NotContains(t, out[1], "file")
	})

	t.Run("empty list", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.FormatList(&buf, &clientcli.ListResult{}))
		assert.JSONEq(t, `{"items":[]}`, buf.String())
	})

	t.Run("delete", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.FormatDelete(&buf, []clientcli.DeleteResult{{ID: "a", Deleted: true}}))
		assert.JSONEq(t, `{"results":[{"id":"a","deleted":true}]}`, buf.String())
	})

	t.Run("error", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.FormatError(&buf, errors.New("boom")))
		assert.JSONEq(t, `{"error":"boom"}`, buf.String())
	})

	t.Run("profile show", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.FormatProfileShow(&buf, clientcli.Profile{Name: "local", Endpoint: "http://x"}, false))
		assert.JSONEq(t, `{"name":"local","endpoint":"http://x","default":false}`, buf.String())
	})
}
