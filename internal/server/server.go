// Package server implements the HTTP server that exposes the voxdocs
// document pipeline: PDF upload and lifecycle, question answering over the
// stored chunks, room token issuance, and transcript capture.
// The server is started by the `voxdocs serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxdocs/voxdocs-go/internal/docs"
	"github.com/voxdocs/voxdocs-go/internal/logging"
)

// New constructs a Server from the provided document service and config.
// minter and transcripts may be nil; the corresponding endpoints then return
// 503 Service Unavailable.
func New(svc docService, minter tokenMinter, transcripts transcriptWriter, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("server: document service must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 5001
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 2 * time.Minute
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout covers the embedding round trip during uploads.
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	s := &Server{
		svc:         svc,
		minter:      minter,
		transcripts: transcripts,
		cfg:         cfg,
		log:         log,
		pingers:     cfg.Pingers,
		metrics:     newServerMetrics(reg),
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	s.stopRL = stopRL

	if cfg.APIKey == "" {
		log.Warn("server: API key not configured, authentication disabled")
	}

	// Protected API routes sit behind auth and the per-IP rate limit.
	api := http.NewServeMux()
	api.HandleFunc("POST /api/documents", s.handleUploadDocument)
	api.HandleFunc("GET /api/documents", s.handleListDocuments)
	api.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)
	api.HandleFunc("POST /api/ask", s.handleAsk)
	api.HandleFunc("GET /api/token", s.handleToken)
	api.HandleFunc("POST /api/transcriptions", s.handleTranscription)

	// Probes and metrics stay reachable without credentials.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/api/", rl.middleware(authMiddleware(cfg.APIKey, api)))

	handler := requestLogger(log, s.instrument(mux))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	// Seed the documents gauge so it is correct from the first scrape after a
	// restart, not only after the first document mutation.
	s.refreshDocumentsGauge(ctx)

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// Handler returns the server's root handler, used by tests via httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON encodes v as the JSON response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends a JSON error body with the given status code.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusForError maps the service error taxonomy to HTTP status codes.
// Extraction failures are the client's fault (unreadable upload), embedding
// failures point at the upstream backend, everything else is internal.
func statusForError(err error) int {
	switch {
	case errors.Is(err, docs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, docs.ErrExtraction):
		return http.StatusBadRequest
	case errors.Is(err, docs.ErrEmbedding):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
