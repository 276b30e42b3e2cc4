package http_test

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	fileloaderhttp "github.com/abdoelhafi/file-loader-app/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestRequestLogger(t *testing.T) {
	t.Run("logs status and path", func(t *testing.T) {
		logs := captureLogs(t)

		handler := fileloaderhttp.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files/", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Contains(t, logs.String(), "path=/api/files/")
		assert.Contains(t, logs.String(), "status=418")
		assert.Contains(t, logs.String(), "level=INFO")
	})

	t.Run("implicit ok", func(t *testing.T) {
		logs := captureLogs(t)

		handler := fileloaderhttp.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("OK"))
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Contains(t, logs.String(), "status=200")
		assert.Contains(t, logs.String(), "bytes=2")
	})

	t.Run("server errors log at error level", func(t *testing.T) {
		logs := captureLogs(t)

		handler := fileloaderhttp.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/files/x", nil))

		assert.Contains(t, logs.String(), "level=ERROR")
		assert.Contains(t, logs.String(), "method=DELETE")
	})
}

func TestMaxBodySize(t *testing.T) {
	readAll := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := io.ReadAll(r.Body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("within limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		fileloaderhttp.MaxBodySize(10)(readAll).ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("over limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		fileloaderhttp.MaxBodySize(10)(readAll).ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789A")))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("zero disables the limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		fileloaderhttp.MaxBodySize(0)(readAll).ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 4096))))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
