package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/voxdocs/voxdocs-go/internal/logging"
	"github.com/voxdocs/voxdocs-go/internal/token"
	"github.com/voxdocs/voxdocs-go/internal/transcript"
)

// handleToken handles GET /api/token. Query parameters "name" (participant
// identity, defaulted) and "room" (generated when absent) select the grant.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if s.minter == nil {
		writeError(w, http.StatusServiceUnavailable, "room tokens are not configured")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "my name"
	}
	room := r.URL.Query().Get("room")
	if room == "" {
		room = token.RandomRoomName()
	}

	signed, err := s.minter.Mint(name, room)
	if err != nil {
		logging.FromContext(r.Context()).Error("token mint failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to mint token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: signed, Room: room})
}

// handleTranscription handles POST /api/transcriptions, appending one line to
// the room's transcript file.
func (s *Server) handleTranscription(w http.ResponseWriter, r *http.Request) {
	if s.transcripts == nil {
		writeError(w, http.StatusServiceUnavailable, "transcripts are not configured")
		return
	}

	var req transcriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	line := transcript.Line{
		Room:        req.Room,
		SpeakerType: req.Type,
		Participant: req.Participant,
		Text:        req.Text,
	}
	if req.TS != 0 {
		line.At = time.UnixMilli(req.TS).UTC()
	}

	if err := s.transcripts.Append(line); err != nil {
		logging.FromContext(r.Context()).Error("transcript append failed",
			slog.String("room", req.Room),
			slog.Any("error", err),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
