package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// JSONStore implements VectorStore as a single flat JSON index file with
// exact brute-force cosine search. It is the local zero-dependency backend
// and, because its ranking is exact, the oracle used to validate the Qdrant
// backend's ranking in tests. Suitable for modest corpora only: every
// search scans all chunks.
type JSONStore struct {
	// mu serialises all index mutations and file writes.
	mu sync.RWMutex

	// path is the location of the index file on disk.
	path string

	// chunks is the in-memory image of the persisted index.
	chunks []storedChunk
}

// storedChunk is the on-disk representation of one embedded chunk.
type storedChunk struct {
	ChunkID    string    `json:"chunk_id"`
	DocID      string    `json:"doc_id"`
	Filename   string    `json:"filename"`
	ChunkIndex int       `json:"chunk_index"`
	UploadedAt int64     `json:"uploaded_at"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding"`
}

// indexFile is the top-level JSON document persisted at path.
type indexFile struct {
	Chunks []storedChunk `json:"chunks"`
}

// OpenJSONStore loads (or initialises) a JSONStore at the given path.
// A missing index file starts an empty store; the file is created on the
// first write.
func OpenJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jsonstore: read %s: %w", path, err)
	}

	var idx indexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("jsonstore: parse %s: %w", path, err)
	}
	s.chunks = idx.Chunks

	return s, nil
}

// AddChunks appends all chunks of a document and persists the index.
// If the write fails the in-memory state is rolled back, keeping the
// document all-or-nothing.
func (s *JSONStore) AddChunks(_ context.Context, doc DocumentMeta, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("jsonstore: %d texts but %d vectors", len(texts), len(vectors))
	}
	if len(texts) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := len(s.chunks)
	for i, text := range texts {
		s.chunks = append(s.chunks, storedChunk{
			ChunkID:    ChunkID(doc.DocID, i),
			DocID:      doc.DocID,
			Filename:   doc.Filename,
			ChunkIndex: i,
			UploadedAt: doc.UploadedAt.Unix(),
			Text:       text,
			Embedding:  vectors[i],
		})
	}

	if err := s.save(); err != nil {
		s.chunks = s.chunks[:prev]
		return err
	}
	return nil
}

// Search scans every stored chunk, scores it with exact cosine similarity,
// and returns the top-k in non-increasing score order. Ties break on chunk
// id for deterministic output.
func (s *JSONStore) Search(_ context.Context, queryVector []float32, topK int) ([]ScoredChunk, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("jsonstore: topK must be positive, got %d", topK)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.chunks) == 0 {
		return []ScoredChunk{}, nil
	}

	scored := make([]ScoredChunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		scored = append(scored, ScoredChunk{
			ChunkID:    c.ChunkID,
			DocID:      c.DocID,
			Filename:   c.Filename,
			ChunkIndex: c.ChunkIndex,
			Text:       c.Text,
			UploadedAt: timeFromUnix(c.UploadedAt),
			Score:      cosineSimilarity(queryVector, c.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ChunkID < scored[j].ChunkID
	})

	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

// DeleteDocument removes every chunk owned by docID and persists the index.
// Unknown ids are a no-op and do not rewrite the file.
func (s *JSONStore) DeleteDocument(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0:0]
	for _, c := range s.chunks {
		if c.DocID != docID {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(s.chunks) {
		return nil
	}

	prev := s.chunks
	s.chunks = kept
	if err := s.save(); err != nil {
		s.chunks = prev
		return err
	}
	return nil
}

// Count reports the total number of stored chunks.
func (s *JSONStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.chunks)), nil
}

// Close is a no-op: every mutation is flushed at write time.
func (s *JSONStore) Close() error { return nil }

// save writes the index to a temporary file in the same directory and
// renames it into place, so a crash mid-write never corrupts the index.
// Callers must hold mu.
func (s *JSONStore) save() error {
	data, err := json.Marshal(indexFile{Chunks: s.chunks})
	if err != nil {
		return fmt.Errorf("jsonstore: marshal index: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("jsonstore: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.json")
	if err != nil {
		return fmt.Errorf("jsonstore: create temp index: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("jsonstore: write temp index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonstore: close temp index: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonstore: replace index: %w", err)
	}
	return nil
}

// cosineSimilarity returns the normalised dot product of a and b.
// Mismatched lengths or a zero-magnitude vector score 0.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// timeFromUnix converts a stored Unix timestamp to UTC time.
func timeFromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
