// Package rag defines the retrieval core shared by the ingestion pipeline
// and the query path: vector storage, embedding, and retrieval interfaces
// plus the chunk types that flow between them. Concrete stores (Qdrant,
// flat-file JSON) satisfy these interfaces so the service layer never
// depends on a specific backend.
package rag

import (
	"context"
	"fmt"
	"time"
)

// DocumentMeta identifies the document a batch of chunks belongs to.
type DocumentMeta struct {
	// DocID is the short globally-unique document identifier (8 hex chars).
	DocID string

	// Filename is the display name of the uploaded file.
	Filename string

	// UploadedAt is the ingestion timestamp.
	UploadedAt time.Time
}

// ScoredChunk is a single similarity-search hit: a stored chunk together
// with the similarity score assigned at query time.
type ScoredChunk struct {
	// ChunkID is the composite stable id "{docID}_{index}".
	ChunkID string

	// DocID is the owning document's id.
	DocID string

	// Filename is the owning document's display name.
	Filename string

	// ChunkIndex is the zero-based position of this chunk within its document.
	ChunkIndex int

	// Text is the raw chunk text.
	Text string

	// UploadedAt is the owning document's ingestion timestamp.
	UploadedAt time.Time

	// Score is the cosine similarity to the query vector. Higher ranks first.
	Score float32
}

// ChunkID builds the composite stable chunk id from a document id and a
// zero-based chunk index. Chunk ids are namespaced by document, so two
// concurrent ingestions can never collide.
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s_%d", docID, index)
}

// VectorStore persists embedded chunks and performs similarity search.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// AddChunks stores all chunks of a document in one call. texts and
	// vectors are parallel slices (vectors[i] is the embedding of texts[i])
	// and the positional correspondence must be preserved by the store.
	// The write is all-or-nothing per document: after an error no chunk of
	// doc may remain visible to Search.
	AddChunks(ctx context.Context, doc DocumentMeta, texts []string, vectors [][]float32) error

	// Search returns up to min(topK, total) chunks ranked by non-increasing
	// cosine similarity to queryVector. An empty store yields an empty
	// result, not an error.
	Search(ctx context.Context, queryVector []float32, topK int) ([]ScoredChunk, error)

	// DeleteDocument removes every chunk owned by docID. Unknown ids are a
	// no-op returning nil.
	DeleteDocument(ctx context.Context, docID string) error

	// Count reports the total number of stored chunks across all documents.
	Count(ctx context.Context) (uint64, error)

	// Close flushes and releases any resources held by the store.
	Close() error
}

// Embedder converts text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings in
	// a single backend request. The returned slice is parallel to the input.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever is the high-level query interface: embed the query text, then
// delegate similarity search to the store.
// Implementations must be safe to call from multiple goroutines.
type Retriever interface {
	// Retrieve returns the top-k most relevant chunks for the given query.
	Retrieve(ctx context.Context, query string, topK int) ([]ScoredChunk, error)
}
