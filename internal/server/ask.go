package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/voxdocs/voxdocs-go/internal/logging"
)

// handleAsk handles POST /api/ask. The response carries both the raw
// similarity hits and the formatted excerpt answer the voice agent speaks.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	hits, err := s.svc.Search(r.Context(), req.Question, req.TopK)
	if err != nil {
		s.metrics.askTotal.WithLabelValues("error").Inc()
		log.Error("ask failed", slog.Any("error", err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	results := make([]askResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, askResult{
			ChunkID:    h.ChunkID,
			DocID:      h.DocID,
			Filename:   h.Filename,
			ChunkIndex: h.ChunkIndex,
			Text:       h.Text,
			UploadedAt: h.UploadedAt,
			Score:      h.Score,
		})
	}

	s.metrics.askTotal.WithLabelValues("ok").Inc()
	s.metrics.askDurationSeconds.Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, askResponse{
		Answer:  s.svc.FormatHits(hits),
		Results: results,
	})
}
