// Package transcript appends spoken lines to per-room transcript files.
// Each room gets one append-only text file; writes are serialized so
// concurrent participants never interleave partial lines.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Line is one utterance to record.
type Line struct {
	// Room selects the transcript file. Empty rooms fall back to "unknown-room".
	Room string
	// SpeakerType distinguishes agent and user lines. Defaults to "agent".
	SpeakerType string
	// Participant is the speaker's identity, may be empty.
	Participant string
	// Text is the utterance itself.
	Text string
	// At is the utterance timestamp. Zero means now.
	At time.Time
}

// Writer appends transcript lines under a fixed directory.
type Writer struct {
	// dir is the transcripts directory, created on construction.
	dir string
	// mu serializes appends across rooms. Transcript volume is low enough
	// that a single lock is simpler than per-room file handles.
	mu sync.Mutex
}

// NewWriter creates the transcripts directory and returns a Writer.
func NewWriter(dataDir string) (*Writer, error) {
	dir := filepath.Join(dataDir, "transcripts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("transcript: create dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Append records one line in the room's transcript file.
func (w *Writer) Append(line Line) error {
	room := sanitizeRoom(line.Room)
	speaker := line.SpeakerType
	if speaker == "" {
		speaker = "agent"
	}
	at := line.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	entry := fmt.Sprintf("[%s] (%s) %s: %s\n",
		at.Format(time.RFC3339), speaker, line.Participant, line.Text)

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(w.dir, room+".txt"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("transcript: open %s: %w", room, err)
	}
	if _, err := f.WriteString(entry); err != nil {
		_ = f.Close()
		return fmt.Errorf("transcript: append %s: %w", room, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("transcript: close %s: %w", room, err)
	}
	return nil
}

// Path returns the transcript file path for a room, sanitized.
func (w *Writer) Path(room string) string {
	return filepath.Join(w.dir, sanitizeRoom(room)+".txt")
}

// sanitizeRoom keeps the room name filesystem-safe. The name becomes the
// transcript filename, so path separators and traversal sequences are
// replaced and empty names get a stable fallback.
func sanitizeRoom(room string) string {
	room = strings.TrimSpace(room)
	if room == "" {
		return "unknown-room"
	}
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, room)
	if strings.Trim(cleaned, "_") == "" {
		return "unknown-room"
	}
	return cleaned
}
