package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// pointNamespace seeds the deterministic UUIDs used as Qdrant point ids.
// Deriving the point id from the composite chunk id makes re-ingestion of
// the same document id an idempotent upsert.
var pointNamespace = uuid.MustParse("9f2c1e6a-7b3d-4f7e-9c0a-2d5b8e4a1c36")

// QdrantConfig holds connection parameters for a Qdrant vector store instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// VectorSize is the dimensionality of the embeddings stored in this collection.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements VectorStore backed by a Qdrant instance. It is the
// system of record for embedded chunks; similarity search runs natively in
// Qdrant with cosine distance.
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig
}

// NewQdrantStore creates a new QdrantStore, ensuring the target collection
// exists (creating it with cosine distance if necessary), and returns a
// ready-to-use VectorStore.
func NewQdrantStore(ctx context.Context, cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	store := &QdrantStore{client: client, cfg: cfg}
	if err := store.ensureCollection(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// Client exposes the underlying gRPC client for readiness probes.
func (s *QdrantStore) Client() *qdrant.Client { return s.client }

// ensureCollection creates the Qdrant collection if it does not already exist.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", s.cfg.Collection, err)
	}

	return nil
}

// AddChunks upserts all chunks of a document in a single call. Point ids are
// deterministic UUIDs derived from the composite chunk id, and the payload
// carries the chunk text plus the metadata needed at query time. On failure
// a compensating DeleteDocument removes any partially written points so the
// document is fully absent rather than partially queryable.
func (s *QdrantStore) AddChunks(ctx context.Context, doc DocumentMeta, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("qdrant: %d texts but %d vectors", len(texts), len(vectors))
	}
	if len(texts) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(texts))
	for i, text := range texts {
		chunkID := ChunkID(doc.DocID, i)
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"chunk_id":    chunkID,
				"doc_id":      doc.DocID,
				"filename":    doc.Filename,
				"chunk_index": int64(i),
				"uploaded_at": doc.UploadedAt.Unix(),
				"text":        text,
			}),
		})
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		// Best-effort compensating delete keeps the document all-or-nothing.
		_ = s.DeleteDocument(context.WithoutCancel(ctx), doc.DocID)
		return fmt.Errorf("qdrant: upsert failed: %w", err)
	}

	return nil
}

// Search performs a cosine similarity search and returns the top-k results
// in non-increasing score order. An empty collection yields an empty slice.
func (s *QdrantStore) Search(ctx context.Context, queryVector []float32, topK int) ([]ScoredChunk, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("qdrant: topK must be positive, got %d", topK)
	}

	limit := uint64(topK)
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search failed: %w", err)
	}

	chunks := make([]ScoredChunk, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, scoredChunkFromPayload(r.Payload, r.Score))
	}

	return chunks, nil
}

// DeleteDocument removes every point whose payload doc_id matches. Deleting
// a document that was never ingested is a no-op.
func (s *QdrantStore) DeleteDocument(ctx context.Context, docID string) error {
	wait := true
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.cfg.Collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("doc_id", docID),
			},
		}),
		Wait: &wait,
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete doc %s: %w", docID, err)
	}
	return nil
}

// Count returns the exact number of stored chunks across all documents.
func (s *QdrantStore) Count(ctx context.Context) (uint64, error) {
	exact := true
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.cfg.Collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: count failed: %w", err)
	}
	return n, nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// scoredChunkFromPayload rebuilds a ScoredChunk from a Qdrant point payload.
// Missing payload keys yield zero values rather than errors; the payload
// layout is owned by AddChunks.
func scoredChunkFromPayload(payload map[string]*qdrant.Value, score float32) ScoredChunk {
	c := ScoredChunk{Score: score}
	if payload == nil {
		return c
	}
	if v, ok := payload["chunk_id"]; ok {
		c.ChunkID = v.GetStringValue()
	}
	if v, ok := payload["doc_id"]; ok {
		c.DocID = v.GetStringValue()
	}
	if v, ok := payload["filename"]; ok {
		c.Filename = v.GetStringValue()
	}
	if v, ok := payload["chunk_index"]; ok {
		c.ChunkIndex = int(v.GetIntegerValue())
	}
	if v, ok := payload["uploaded_at"]; ok {
		c.UploadedAt = timeFromUnix(v.GetIntegerValue())
	}
	if v, ok := payload["text"]; ok {
		c.Text = v.GetStringValue()
	}
	return c
}
