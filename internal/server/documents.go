package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/voxdocs/voxdocs-go/internal/catalog"
	"github.com/voxdocs/voxdocs-go/internal/docs"
	"github.com/voxdocs/voxdocs-go/internal/logging"
)

// maxUploadBytes caps the multipart form size for document uploads.
const maxUploadBytes = 64 << 20

// handleUploadDocument handles POST /api/documents. The PDF arrives as the
// multipart "file" field, is spooled to a temp file, and handed to the
// ingestion pipeline. The temp artifact is always cleaned up; on success the
// pipeline has moved it into the document area.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file part")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		writeError(w, http.StatusBadRequest, "no selected file")
		return
	}

	tmp, err := os.CreateTemp("", "voxdocs-upload-*.pdf")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to spool upload")
		return
	}
	tmpPath := tmp.Name()
	// Ingest moves the temp file on success; this remove only fires on the
	// failure paths where it is still in place.
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		writeError(w, http.StatusInternalServerError, "failed to spool upload")
		return
	}
	if err := tmp.Close(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to spool upload")
		return
	}

	docID, err := s.svc.Ingest(r.Context(), tmpPath, filename)
	if err != nil {
		status := statusForError(err)
		outcome := "error"
		if errors.Is(err, docs.ErrExtraction) {
			outcome = "unreadable"
		}
		s.metrics.ingestTotal.WithLabelValues(outcome).Inc()
		log.Error("document ingest failed",
			slog.String("filename", filename),
			slog.Any("error", err),
		)
		writeError(w, status, err.Error())
		return
	}

	s.metrics.ingestTotal.WithLabelValues("ok").Inc()
	s.metrics.ingestDurationSeconds.Observe(time.Since(start).Seconds())
	s.refreshDocumentsGauge(r.Context())

	writeJSON(w, http.StatusOK, uploadResponse{DocID: docID, Filename: filename})
}

// handleListDocuments handles GET /api/documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	documents, err := s.svc.List(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("document list failed", slog.Any("error", err))
		writeError(w, statusForError(err), err.Error())
		return
	}
	if documents == nil {
		documents = []catalog.Document{}
	}
	s.metrics.documentsGauge.Set(float64(len(documents)))
	writeJSON(w, http.StatusOK, listResponse{Documents: documents})
}

// handleDeleteDocument handles DELETE /api/documents/{id}.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("id")
	if docID == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	if err := s.svc.Delete(r.Context(), docID); err != nil {
		if !errors.Is(err, docs.ErrNotFound) {
			logging.FromContext(r.Context()).Error("document delete failed",
				slog.String("doc_id", docID),
				slog.Any("error", err),
			)
		}
		writeError(w, statusForError(err), err.Error())
		return
	}

	s.refreshDocumentsGauge(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// refreshDocumentsGauge resets the documents gauge from the registry count.
// Counting instead of incrementing keeps the gauge correct across process
// restarts and concurrent mutations.
func (s *Server) refreshDocumentsGauge(ctx context.Context) {
	n, err := s.svc.DocumentCount(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("documents gauge refresh failed", slog.Any("error", err))
		return
	}
	s.metrics.documentsGauge.Set(float64(n))
}
