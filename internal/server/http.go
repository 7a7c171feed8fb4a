package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/localrivet/readaloud/internal/blobstore"
	"github.com/localrivet/readaloud/internal/docstore"
	"github.com/localrivet/readaloud/internal/errortypes"
	"github.com/localrivet/readaloud/internal/summarizer"
	"github.com/localrivet/readaloud/internal/telemetry"
	"github.com/localrivet/readaloud/internal/translator"
)

const (
	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second

	// maxJSONBody bounds JSON request bodies.
	maxJSONBody = 10 << 20
)

// Dependencies are the collaborators of the HTTP API.
type Dependencies struct {
	Store      docstore.Store
	Blobs      *blobstore.Store
	Summarizer *summarizer.CachingSummarizer
	Translator translator.Translator
	Catalog    *translator.Catalog
	Metrics    *telemetry.MetricsCollector
	Logger     *slog.Logger

	// PageGap is passed to every reading session.
	PageGap time.Duration

	// PublicDir is served at / when set.
	PublicDir string

	// CORSOrigin defaults to "*".
	CORSOrigin string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// HTTPServer serves the readaloud HTTP and websocket API.
type HTTPServer struct {
	deps     Dependencies
	logger   *slog.Logger
	registry http.Handler
	handler  http.Handler
}

// NewHTTPServer validates deps and builds the route table.
func NewHTTPServer(deps Dependencies) (*HTTPServer, error) {
	if deps.Store == nil || deps.Blobs == nil || deps.Summarizer == nil || deps.Translator == nil {
		return nil, errortypes.ConfigError(ErrMissingDependencies, "http server initialization failed")
	}
	if deps.Catalog == nil {
		deps.Catalog = translator.DefaultCatalog()
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NewMetricsCollector()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.CORSOrigin == "" {
		deps.CORSOrigin = "*"
	}
	if deps.ShutdownTimeout <= 0 {
		deps.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &HTTPServer{
		deps:     deps,
		logger:   deps.Logger.With("component", "http"),
		registry: telemetry.Handler(telemetry.NewRegistry(deps.Metrics)),
	}
	s.handler = s.middleware(s.routes())
	return s, nil
}

// Handler returns the root handler with all middleware applied.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

func (s *HTTPServer) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /summarize", s.handleSummarize)
	mux.HandleFunc("POST /api/v1/pdf/summarize", s.handleSummarize)

	mux.HandleFunc("POST /api/v1/pdf/upload", s.handleUpload)
	mux.HandleFunc("POST /api/v1/pdf/extract/{id}", s.handleExtract)
	mux.HandleFunc("GET /api/v1/pdf/all", s.handleListDocuments)
	mux.HandleFunc("GET /api/v1/pdf/search/{name}", s.handleSearchDocuments)
	mux.HandleFunc("GET /api/v1/pdf/file/{id}", s.handleDownload)
	mux.HandleFunc("PUT /api/v1/pdf/update/{id}", s.handleUpdateDocument)
	mux.HandleFunc("DELETE /api/v1/pdf/delete/{id}", s.handleDeleteDocument)
	mux.HandleFunc("POST /api/v1/pdf/translate/{id}", s.handleTranslateDocument)
	mux.HandleFunc("POST /api/v1/pdf/translate", s.handleTranslateText)

	mux.HandleFunc("POST /api/v1/command", s.handleCommand)
	mux.HandleFunc("GET /api/v1/languages", s.handleLanguages)
	mux.HandleFunc("GET /api/v1/session/ws", s.handleSession)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/summarizer", s.handleSummarizerHealth)
	mux.Handle("GET /metrics", s.registry)

	if s.deps.PublicDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.deps.PublicDir)))
	}

	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *HTTPServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  s.deps.ReadTimeout,
		WriteTimeout: s.deps.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Stopping HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.deps.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

// writeJSON writes data as a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// decodeJSON decodes a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return NewErrorWithStatus(fmt.Errorf("content type %q", ct), http.StatusUnsupportedMediaType,
				ErrorCodeInvalidRequest, "Content-Type must be application/json")
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	// an empty body decodes as the zero request and fails validation instead
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return NewErrorWithStatus(err, http.StatusBadRequest, ErrorCodeInvalidRequest, "Invalid JSON payload")
	}
	return nil
}
