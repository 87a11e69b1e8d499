package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/voxdocs/voxdocs-go/internal/catalog"
	"github.com/voxdocs/voxdocs-go/internal/docs"
	"github.com/voxdocs/voxdocs-go/internal/embedder"
	"github.com/voxdocs/voxdocs-go/internal/extractor"
	"github.com/voxdocs/voxdocs-go/internal/rag"
	"github.com/voxdocs/voxdocs-go/internal/server"
	"github.com/voxdocs/voxdocs-go/internal/token"
)

// services bundles the wired document pipeline and the resources that need
// closing on shutdown.
type services struct {
	// svc is the document retrieval service.
	svc *docs.Service
	// pingers are the dependency probes for the server's readiness endpoint.
	pingers []server.Pinger
	// closers release the store and catalog, last-in first-out.
	closers []func() error
}

// close releases all held resources in reverse acquisition order.
func (s *services) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

// buildServices wires embedder, vector store, catalog, and document service
// from the environment. VOXDOCS_STORE_BACKEND selects the vector store:
// "qdrant" (default) or "local" for the flat-file index.
func buildServices(ctx context.Context, log *slog.Logger) (*services, error) {
	if err := embedder.Validate(log); err != nil {
		return nil, err
	}
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	log.Info("embedder initialised", slog.String("provider", embedder.Backend()))

	dataDir := getEnvOrDefault("VOXDOCS_DATA_DIR", defaultDataDir())
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dataDir, err)
	}

	out := &services{}

	var store rag.VectorStore
	backend := getEnvOrDefault("VOXDOCS_STORE_BACKEND", "qdrant")
	switch backend {
	case "qdrant":
		qdrantHost := getEnvOrDefault("QDRANT_HOST", "localhost")
		qdrantPort := getEnvInt("QDRANT_PORT", 6334)
		collection := getEnvOrDefault("QDRANT_COLLECTION", "voxdocs")
		vectorSize := uint64(getEnvInt("EMBEDDING_DIMENSIONS", embedder.DefaultDimensions(embedder.Backend())))

		qs, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
			Host:       qdrantHost,
			Port:       qdrantPort,
			Collection: collection,
			VectorSize: vectorSize,
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			UseTLS:     os.Getenv("QDRANT_TLS") == "true",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", qdrantHost, qdrantPort, err)
		}
		log.Info("qdrant store ready",
			slog.String("host", qdrantHost),
			slog.Int("port", qdrantPort),
			slog.String("collection", collection),
		)
		store = qs
		out.pingers = append(out.pingers, server.NewQdrantPinger(qs.Client()))

	case "local":
		indexPath := filepath.Join(dataDir, "index.json")
		js, err := rag.OpenJSONStore(indexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open local index %s: %w", indexPath, err)
		}
		log.Info("local store ready", slog.String("path", indexPath))
		store = js

	default:
		return nil, fmt.Errorf("unknown store backend %q (want qdrant or local)", backend)
	}
	out.closers = append(out.closers, store.Close)

	cat, err := catalog.Open(filepath.Join(dataDir, "catalog.db"))
	if err != nil {
		out.close()
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	out.closers = append(out.closers, cat.Close)
	out.pingers = append(out.pingers, cat)

	svc, err := docs.NewService(extractor.Text, emb, store, cat, dataDir, docs.Options{
		ChunkSize:    getEnvInt("CHUNK_SIZE", 0),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 0),
		TopK:         getEnvInt("RETRIEVAL_TOP_K", 0),
		ExcerptChars: getEnvInt("RETRIEVAL_EXCERPT_CHARS", 0),
	})
	if err != nil {
		out.close()
		return nil, err
	}
	out.svc = svc

	return out, nil
}

// buildMinter constructs the room token minter from the environment.
// Returns nil when the LiveKit key pair is absent; the token endpoint then
// reports itself unavailable instead of failing startup.
func buildMinter(log *slog.Logger) *token.Minter {
	apiKey := os.Getenv("LIVEKIT_API_KEY")
	apiSecret := os.Getenv("LIVEKIT_API_SECRET")
	if apiKey == "" || apiSecret == "" {
		log.Warn("room tokens disabled", slog.String("reason", "LIVEKIT_API_KEY / LIVEKIT_API_SECRET not set"))
		return nil
	}

	ttl := time.Duration(getEnvInt("LIVEKIT_TOKEN_TTL_MINUTES", 0)) * time.Minute
	m, err := token.NewMinter(apiKey, apiSecret, ttl)
	if err != nil {
		log.Warn("room tokens disabled", slog.Any("error", err))
		return nil
	}
	return m
}

// defaultDataDir resolves the default data directory (~/.voxdocs/data), with
// a relative fallback when the home directory cannot be determined.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".voxdocs", "data")
}

// getEnvOrDefault returns the env var value or fallback when unset/empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the env var parsed as int, or fallback when unset or
// unparsable.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// getEnvFloat returns the env var parsed as float64, or fallback when unset
// or unparsable.
func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
