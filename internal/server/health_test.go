package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// fakePinger is a Pinger stub with a scriptable result.
type fakePinger struct {
	name string
	err  error
}

func (p *fakePinger) Ping(context.Context) error { return p.err }
func (p *fakePinger) Name() string               { return p.name }

// newReadyServer builds a Server with the given pingers registered.
func newReadyServer(t *testing.T, pingers ...Pinger) *Server {
	t.Helper()

	s, err := New(&fakeDocs{}, nil, nil, &Config{
		Pingers:   pingers,
		RateLimit: 10000,
		RateBurst: 10000,
		Registry:  prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(s.stopRL)
	return s
}

func TestHandleReady_AllHealthy(t *testing.T) {
	t.Parallel()

	s := newReadyServer(t,
		&fakePinger{name: "qdrant"},
		&fakePinger{name: "catalog"},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp readyResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Ready || len(resp.Checks) != 2 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestHandleReady_DependencyDown(t *testing.T) {
	t.Parallel()

	s := newReadyServer(t,
		&fakePinger{name: "qdrant", err: errors.New("connection refused")},
		&fakePinger{name: "catalog"},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	var resp readyResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Ready {
		t.Error("ready must be false when a probe fails")
	}
	if resp.Checks[0].OK || resp.Checks[0].Error == "" {
		t.Errorf("failed check not reported: %+v", resp.Checks[0])
	}
	if !resp.Checks[1].OK {
		t.Errorf("healthy check misreported: %+v", resp.Checks[1])
	}
}

func TestHandleReady_NoPingers(t *testing.T) {
	t.Parallel()

	s := newReadyServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with no pingers, got %d", w.Code)
	}
}

func TestMultiPinger_FirstFailureWins(t *testing.T) {
	t.Parallel()

	mp := NewMultiPinger(
		&fakePinger{name: "a"},
		&fakePinger{name: "b", err: errors.New("down")},
		&fakePinger{name: "c"},
	)

	err := mp.Ping(context.Background())
	if err == nil {
		t.Fatal("expected error from failing pinger")
	}
	if got := err.Error(); got != "b: down" {
		t.Errorf("error should name the failing dependency, got %q", got)
	}
}

// TestServerAuth_ProtectedRoutesRequireToken verifies the full middleware
// chain: API routes reject unauthenticated requests while probes stay open.
func TestServerAuth_ProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()

	s, err := New(&fakeDocs{}, nil, nil, &Config{
		APIKey:    "secret",
		RateLimit: 10000,
		RateBurst: 10000,
		Registry:  prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(s.stopRL)

	// Protected route without a token.
	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("documents without token: expected 401, got %d", w.Code)
	}

	// Same route with the token.
	req = httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("documents with token: expected 200, got %d", w.Code)
	}

	// Probes bypass auth.
	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("health: expected 200 without token, got %d", w.Code)
	}
}
