package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/voxdocs/voxdocs-go/internal/token"
	"github.com/voxdocs/voxdocs-go/internal/transcript"
)

func TestHandleToken_OK(t *testing.T) {
	t.Parallel()

	minter, err := token.NewMinter("lk-key", "lk-secret", time.Hour)
	if err != nil {
		t.Fatalf("new minter: %v", err)
	}
	s := newTestServer(t, &fakeDocs{}, minter, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/token?name=alice&room=room-12ab34cd", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp tokenResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Room != "room-12ab34cd" {
		t.Errorf("room: got %q", resp.Room)
	}
	if strings.Count(resp.Token, ".") != 2 {
		t.Errorf("token does not look like a JWT: %q", resp.Token)
	}
}

func TestHandleToken_GeneratesRoom(t *testing.T) {
	t.Parallel()

	minter, err := token.NewMinter("lk-key", "lk-secret", time.Hour)
	if err != nil {
		t.Fatalf("new minter: %v", err)
	}
	s := newTestServer(t, &fakeDocs{}, minter, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/token", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp tokenResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(resp.Room, "room-") {
		t.Errorf("generated room should have room- prefix, got %q", resp.Room)
	}
}

func TestHandleToken_Unconfigured(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeDocs{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/token", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without LiveKit keys, got %d", w.Code)
	}
}

func TestHandleTranscription_OK(t *testing.T) {
	t.Parallel()

	writer, err := transcript.NewWriter(t.TempDir())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	s := newTestServer(t, &fakeDocs{}, nil, writer)

	body := strings.NewReader(`{"room":"room-1","type":"user","text":"hello","ts":1700000000000,"participant":"alice"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/transcriptions", body)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Errorf("expected ok response, got %s", w.Body.String())
	}

	b, err := os.ReadFile(writer.Path("room-1"))
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if !strings.Contains(string(b), "(user) alice: hello") {
		t.Errorf("transcript line missing: %q", string(b))
	}
}

func TestHandleTranscription_Unconfigured(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeDocs{}, nil, nil)

	body := strings.NewReader(`{"room":"r","text":"x"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/transcriptions", body)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without transcript writer, got %d", w.Code)
	}
}
