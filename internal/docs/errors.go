package docs

import "errors"

// Failure categories surfaced by the Service. Callers classify with
// errors.Is to choose status codes and user-facing wording; the wrapped
// message carries the underlying detail.
var (
	// ErrNotFound reports an operation on a document id that was never
	// ingested (or was already deleted).
	ErrNotFound = errors.New("document not found")

	// ErrExtraction reports an unreadable or corrupt source file. Nothing is
	// persisted when this is returned.
	ErrExtraction = errors.New("could not extract text from document")

	// ErrEmbedding reports a failure of the embedding backend (network,
	// non-2xx response, malformed response). On ingestion nothing is
	// persisted when this is returned.
	ErrEmbedding = errors.New("embedding service failed")

	// ErrStorage reports a persistence failure in the vector store, catalog,
	// or document file area. On ingestion any partially written chunks are
	// removed before this is returned.
	ErrStorage = errors.New("document storage failed")
)
