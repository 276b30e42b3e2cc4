package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	fileloader "github.com/abdoelhafi/file-loader-app"
)

const msgUnexpected = "An unexpected error occurred"

// Envelope is the body of every JSON response.
type Envelope struct {
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// WriteJSON writes a successful envelope carrying data.
func WriteJSON(w http.ResponseWriter, r *http.Request, code int, message string, data any) {
	render.Status(r, code)
	render.JSON(w, r, Envelope{
		Success:   true,
		Timestamp: time.Now().UTC(),
		Data:      data,
		Message:   message,
	})
}

// WriteError writes a failed envelope.
func WriteError(w http.ResponseWriter, r *http.Request, code int, errCode, message string) {
	render.Status(r, code)
	render.JSON(w, r, Envelope{
		Success:   false,
		Timestamp: time.Now().UTC(),
		Error:     errCode,
		Message:   message,
	})
}

// HandleError writes the response for err. Validation and storage errors
// carry their own caller-facing message; anything unexpected is logged with
// its detail and answered with fallback.
func HandleError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetReqID(r.Context())

	var verr *fileloader.ValidationError
	if errors.As(err, &verr) {
		slog.Info("request rejected", "request_id", reqID, "reason", verr.Reason, "message", verr.Message)
		WriteError(w, r, http.StatusBadRequest, string(verr.Reason), verr.Message)
		return
	}

	if errors.Is(err, fileloader.ErrNotFound) {
		WriteError(w, r, http.StatusNotFound, "not_found", "File not found")
		return
	}

	if errors.Is(err, fileloader.ErrInvalidInput) {
		slog.Info("invalid request", "request_id", reqID, "error", err)
		WriteError(w, r, http.StatusBadRequest, "invalid_input", "Invalid request")
		return
	}

	var serr *fileloader.StorageError
	if errors.As(err, &serr) {
		slog.Error("object storage error", "request_id", reqID, "op", serr.Op, "key", serr.Key, "error", err)
		WriteError(w, r, http.StatusServiceUnavailable, "storage_error", serr.Message)
		return
	}

	slog.Error("request error", "request_id", reqID, "error", err)

	if fallback == "" {
		fallback = msgUnexpected
	}
	WriteError(w, r, http.StatusInternalServerError, "internal_error", fallback)
}
