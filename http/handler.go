package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	fileloader "github.com/abdoelhafi/file-loader-app"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000

	// DefaultMaxUploadSize bounds a whole upload request body.
	DefaultMaxUploadSize int64 = 1 << 20

	formFileField = "file"
)

type Service interface {
	Create(ctx context.Context, in fileloader.NewUpload) (fileloader.UploadRecord, error)
	Get(ctx context.Context, id uuid.UUID) (fileloader.UploadRecord, error)
	List(ctx context.Context, query fileloader.ListQuery) (fileloader.ListResult, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	CORS          CORSConfig
	MaxUploadSize int64  // 0 uses DefaultMaxUploadSize
	Health        Pinger // nil reports healthy
}

// Handler provides the HTTP API for uploaded files.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	cfg := *config
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = DefaultMaxUploadSize
	}
	return &Handler{
		config:  cfg,
		service: service,
	}
}

// Router returns an http.Handler serving the file API under /api/files and a
// health probe at /healthz.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	r.Get("/healthz", h.handleHealth)

	r.Route("/api/files", func(r chi.Router) {
		r.With(MaxBodySize(h.config.MaxUploadSize)).Post("/", h.handleUpload)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Delete("/{id}", h.handleDelete)
	})

	return r
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.config.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, r, http.StatusRequestEntityTooLarge, "request_too_large", "Request body too large")
			return
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			WriteError(w, r, http.StatusBadRequest, "no_file", "No file provided")
			return
		}
		slog.Info("parse multipart form", "request_id", middleware.GetReqID(r.Context()), "error", err)
		WriteError(w, r, http.StatusBadRequest, "invalid_form", "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(formFileField)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "no_file", "No file provided")
		return
	}
	defer func() { _ = file.Close() }()

	in := fileloader.NewUpload{
		Name:      header.Filename,
		MediaType: header.Header.Get("Content-Type"),
		Size:      header.Size,
		Content:   file,
	}

	record, err := h.service.Create(r.Context(), in)
	if err != nil {
		HandleError(w, r, err, msgUnexpected)
		return
	}

	WriteJSON(w, r, http.StatusCreated, "File uploaded successfully", record)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	cursor := r.URL.Query().Get("cursor")

	limit := defaultListLimit
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = max(1, min(maxListLimit, parsed))
		}
	}

	result, err := h.service.List(r.Context(), fileloader.ListQuery{
		Limit:  limit,
		Cursor: cursor,
	})
	if err != nil {
		HandleError(w, r, err, "Failed to retrieve files")
		return
	}

	if result.Items == nil {
		result.Items = []fileloader.UploadRecord{}
	}

	WriteJSON(w, r, http.StatusOK, "Files retrieved successfully", result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleError(w, r, err, "Failed to retrieve file")
		return
	}

	WriteJSON(w, r, http.StatusOK, "File retrieved successfully", record)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		HandleError(w, r, err, "Failed to delete file")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.config.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := h.config.Health.Ping(ctx); err != nil {
			slog.Error("health check", "error", err)
			WriteError(w, r, http.StatusServiceUnavailable, "unhealthy", "Database unavailable")
			return
		}
	}

	WriteJSON(w, r, http.StatusOK, "ok", nil)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", "Invalid file id")
		return uuid.Nil, false
	}
	return id, true
}
