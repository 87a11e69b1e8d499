package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newEmbedBackend spins up an httptest server that answers the embeddings
// endpoint with the given handler and returns an OpenAIEmbedder pointed at it.
func newEmbedBackend(t *testing.T, handler http.HandlerFunc) *OpenAIEmbedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIEmbedder(&OpenAIConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "text-embedding-3-small",
	})
}

func TestOpenAIEmbedder_BatchOrderRestored(t *testing.T) {
	t.Parallel()

	// The backend answers out of order; Embed must restore input order by index.
	e := newEmbedBackend(t, func(w http.ResponseWriter, r *http.Request) {
		var req openaiEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Input) != 3 {
			t.Errorf("expected a single batched request of 3 inputs, got %d", len(req.Input))
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"index":2,"embedding":[3]},
			{"index":0,"embedding":[1]},
			{"index":1,"embedding":[2]}
		]}`))
	})

	vectors, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	for i, want := range []float32{1, 2, 3} {
		if len(vectors[i]) != 1 || vectors[i][0] != want {
			t.Errorf("vector %d: want [%f], got %v", i, want, vectors[i])
		}
	}
}

func TestOpenAIEmbedder_HTTPErrorSurfaced(t *testing.T) {
	t.Parallel()

	e := newEmbedBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	})

	_, err := e.Embed(context.Background(), []string{"a"})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error should carry backend message, got %v", err)
	}
}

func TestOpenAIEmbedder_CountMismatchRejected(t *testing.T) {
	t.Parallel()

	e := newEmbedBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1]}]}`))
	})

	_, err := e.Embed(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error for mismatched embedding count")
	}
	if !strings.Contains(err.Error(), "expected 2 embeddings") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestOpenAIEmbedder_MalformedIndexRejected(t *testing.T) {
	t.Parallel()

	e := newEmbedBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":5,"embedding":[1]}]}`))
	})

	_, err := e.Embed(context.Background(), []string{"a"})
	if err == nil {
		t.Fatal("expected error for out-of-range index")
	}
}
