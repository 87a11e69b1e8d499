package rag

import (
	"context"
	"errors"
	"testing"
)

// fakeEmbedder returns a fixed vector for any input, or a configured error.
type fakeEmbedder struct {
	vector []float32
	err    error
	// lastBatch records the most recent Embed input for assertions.
	lastBatch []string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.lastBatch = texts
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func Test_Retriever_EmbedsQueryOnce(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	addDoc(t, store, "aaaa0000", []string{"hello", "world"})

	emb := &fakeEmbedder{vector: []float32{0, 1}}
	r, err := NewRetriever(emb, store, 5)
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}

	results, err := r.Retrieve(context.Background(), "what is up", 0)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(emb.lastBatch) != 1 || emb.lastBatch[0] != "what is up" {
		t.Errorf("query not embedded as a single-item batch: %v", emb.lastBatch)
	}
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}
	if results[0].Text != "world" {
		t.Errorf("axis-1 query should rank chunk 1 first, got %q", results[0].Text)
	}
}

func Test_Retriever_EmbedderFailureSurfaces(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	wantErr := errors.New("backend down")
	r, err := NewRetriever(&fakeEmbedder{err: wantErr}, store, 5)
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}

	_, err = r.Retrieve(context.Background(), "anything", 3)
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped embedder error, got %v", err)
	}
}

func Test_Retriever_NilDependenciesRejected(t *testing.T) {
	t.Parallel()

	if _, err := NewRetriever(nil, openTestStore(t), 5); err == nil {
		t.Error("expected error for nil embedder")
	}
	if _, err := NewRetriever(&fakeEmbedder{}, nil, 5); err == nil {
		t.Error("expected error for nil store")
	}
}
