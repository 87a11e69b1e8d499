// Package docs implements the document retrieval service: PDF ingestion
// through the extract, chunk, embed, store pipeline, similarity search over
// the stored chunks, and lifecycle management (list, delete) backed by the
// SQLite catalog. All cross-cutting failure handling lives here so the
// transport layers stay thin.
package docs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voxdocs/voxdocs-go/internal/catalog"
	"github.com/voxdocs/voxdocs-go/internal/chunker"
	"github.com/voxdocs/voxdocs-go/internal/logging"
	"github.com/voxdocs/voxdocs-go/internal/rag"
)

// ExtractFunc converts a file on disk into its plain text.
type ExtractFunc func(path string) (string, error)

// Options configures a Service. Zero values fall back to the defaults below.
type Options struct {
	// ChunkSize is the maximum chunk length in characters (default 1500).
	ChunkSize int
	// ChunkOverlap is the character overlap between consecutive chunks (default 200).
	ChunkOverlap int
	// TopK is the default result count for Search and Answer (default 5).
	TopK int
	// ExcerptChars caps excerpt length in Answer output (default 400).
	ExcerptChars int
}

// Service orchestrates the document pipeline. It is safe for concurrent use;
// ingest and delete of the same document are serialized by a per-document lock.
type Service struct {
	// extract converts a stored PDF into plain text.
	extract ExtractFunc
	// embedder produces vector embeddings for chunk and query text.
	embedder rag.Embedder
	// store persists embedded chunks and serves similarity search.
	store rag.VectorStore
	// catalog registers completed documents for listing.
	catalog *catalog.Catalog
	// docsDir is where ingested source files live, one file per doc_id.
	docsDir string
	// locks serializes ingest/delete per document id.
	locks *docLocks

	chunkSize    int
	chunkOverlap int
	topK         int
	excerptChars int
}

// NewService constructs a Service. The docs directory is created if absent.
func NewService(extract ExtractFunc, embedder rag.Embedder, store rag.VectorStore, cat *catalog.Catalog, dataDir string, opts Options) (*Service, error) {
	if extract == nil {
		return nil, errors.New("docs: extract function is required")
	}
	if embedder == nil {
		return nil, errors.New("docs: embedder is required")
	}
	if store == nil {
		return nil, errors.New("docs: vector store is required")
	}
	if cat == nil {
		return nil, errors.New("docs: catalog is required")
	}

	docsDir := filepath.Join(dataDir, "docs")
	if err := os.MkdirAll(docsDir, 0o755); err != nil {
		return nil, fmt.Errorf("docs: create docs dir: %w", err)
	}

	s := &Service{
		extract:      extract,
		embedder:     embedder,
		store:        store,
		catalog:      cat,
		docsDir:      docsDir,
		locks:        newDocLocks(),
		chunkSize:    opts.ChunkSize,
		chunkOverlap: opts.ChunkOverlap,
		topK:         opts.TopK,
		excerptChars: opts.ExcerptChars,
	}
	if s.chunkSize <= 0 {
		s.chunkSize = chunker.DefaultChunkSize
	}
	if s.chunkOverlap <= 0 {
		s.chunkOverlap = chunker.DefaultOverlap
	}
	if s.topK <= 0 {
		s.topK = 5
	}
	if s.excerptChars <= 0 {
		s.excerptChars = 400
	}
	return s, nil
}

// newDocID returns a fresh 8-hex-character document id.
func newDocID() string {
	return uuid.NewString()[:8]
}

// Ingest runs the full pipeline for one source file: move it into the
// document area, extract its text, chunk, embed in a single batch, store the
// chunks, and finally register the catalog row. The source file at filePath
// is consumed on success. On any failure after the move the stored file and
// any partially written chunks are removed, so the document is either fully
// present or fully absent.
func (s *Service) Ingest(ctx context.Context, filePath, originalName string) (string, error) {
	log := logging.FromContext(ctx)

	docID := newDocID()
	unlock := s.locks.lock(docID)
	defer unlock()

	storedPath := filepath.Join(s.docsDir, docID+".pdf")
	if err := moveFile(filePath, storedPath); err != nil {
		return "", fmt.Errorf("%w: store source file: %w", ErrStorage, err)
	}

	doc := rag.DocumentMeta{
		DocID:      docID,
		Filename:   originalName,
		UploadedAt: time.Now().UTC(),
	}

	chunkCount, err := s.ingestStored(ctx, doc, storedPath)
	if err != nil {
		// Roll back the file move so a failed ingest leaves no trace.
		if rmErr := os.Remove(storedPath); rmErr != nil {
			log.Warn("failed to remove stored file after ingest error",
				"doc_id", docID, "path", storedPath, "error", rmErr)
		}
		return "", err
	}

	log.Info("document ingested",
		"doc_id", docID, "filename", originalName, "chunks", chunkCount)
	return docID, nil
}

// ingestStored extracts, chunks, embeds, and persists a file already moved
// into the document area. The caller owns rollback of the stored file.
func (s *Service) ingestStored(ctx context.Context, doc rag.DocumentMeta, storedPath string) (int, error) {
	text, err := s.extract(storedPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	chunks, err := chunker.Split(text, s.chunkSize, s.chunkOverlap)
	if err != nil {
		return 0, fmt.Errorf("docs: chunk %s: %w", doc.DocID, err)
	}

	// A scanned or image-only PDF can yield no text at all. Such a document
	// is still registered so the upload is visible, it just never matches
	// any query.
	if len(chunks) > 0 {
		vectors, err := s.embedder.Embed(ctx, chunks)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrEmbedding, err)
		}
		if err := s.store.AddChunks(ctx, doc, chunks, vectors); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrStorage, err)
		}
	}

	row := catalog.Document{
		DocID:      doc.DocID,
		Filename:   doc.Filename,
		UploadedAt: doc.UploadedAt,
		ChunkCount: len(chunks),
		StoredPath: storedPath,
	}
	if err := s.catalog.Insert(ctx, row); err != nil {
		// The chunks are already in the store; remove them so the document
		// does not exist half-registered.
		if delErr := s.store.DeleteDocument(context.WithoutCancel(ctx), doc.DocID); delErr != nil {
			logging.FromContext(ctx).Warn("failed to remove chunks after catalog error",
				"doc_id", doc.DocID, "error", delErr)
		}
		return 0, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return len(chunks), nil
}

// Search embeds the query and returns the topK most similar chunks.
// topK values of zero or below use the service default.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]rag.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("docs: query must not be empty")
	}
	if topK <= 0 {
		topK = s.topK
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query embedding, got %d", ErrEmbedding, len(vectors))
	}

	hits, err := s.store.Search(ctx, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return hits, nil
}

// Answer is the voice-assistant boundary: it always returns a ready-to-speak
// string and never an error. Failures become an apologetic message with the
// underlying detail, an empty store becomes an upload prompt.
func (s *Service) Answer(ctx context.Context, query string, topK int) string {
	hits, err := s.Search(ctx, query, topK)
	if err != nil {
		logging.FromContext(ctx).Error("document search failed", "error", err)
		return fmt.Sprintf("Failed to search documents. Error: %s", err)
	}
	return s.FormatHits(hits)
}

// FormatHits renders search hits as the spoken-answer excerpt list. An empty
// hit list becomes the upload prompt.
func (s *Service) FormatHits(hits []rag.ScoredChunk) string {
	if len(hits) == 0 {
		return "No documents found. Please upload PDFs first."
	}

	lines := []string{"Top matches from uploaded PDFs:"}
	for i, h := range hits {
		lines = append(lines, fmt.Sprintf("%d. [%s] %s", i+1, h.Filename, s.excerpt(h.Text)))
	}
	lines = append(lines, "\nUse these excerpts to craft a precise answer.")
	return strings.Join(lines, "\n")
}

// excerpt flattens chunk text to a single line and caps its length.
func (s *Service) excerpt(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) > s.excerptChars {
		return string(runes[:s.excerptChars]) + "…"
	}
	return flat
}

// List returns all registered documents ordered by upload time.
func (s *Service) List(ctx context.Context) ([]catalog.Document, error) {
	docs, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return docs, nil
}

// DocumentCount reports the number of registered documents.
func (s *Service) DocumentCount(ctx context.Context) (int, error) {
	n, err := s.catalog.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return n, nil
}

// Delete removes a document entirely: its chunks, its catalog row, and its
// stored source file. Unknown ids return ErrNotFound.
func (s *Service) Delete(ctx context.Context, docID string) error {
	unlock := s.locks.lock(docID)
	defer unlock()

	doc, err := s.catalog.Get(ctx, docID)
	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, docID)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if err := s.store.DeleteDocument(ctx, docID); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if err := s.catalog.Delete(ctx, docID); err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if err := os.Remove(doc.StoredPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove stored file: %w", ErrStorage, err)
	}

	logging.FromContext(ctx).Info("document deleted", "doc_id", docID, "filename", doc.Filename)
	return nil
}

// ChunkCount reports the total number of stored chunks across all documents.
func (s *Service) ChunkCount(ctx context.Context) (uint64, error) {
	return s.store.Count(ctx)
}

// moveFile renames src to dst, falling back to copy-and-remove when the
// rename crosses filesystems (temp dirs often live on a different mount).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
