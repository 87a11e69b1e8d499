package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/voxdocs/voxdocs-go/internal/catalog"
	"github.com/voxdocs/voxdocs-go/internal/rag"
	"github.com/voxdocs/voxdocs-go/internal/transcript"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 5001).
	Port int
	// ReadTimeout is the maximum duration for reading the request. Uploads
	// can be large, so the default is generous (default: 2 minutes).
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// Registry receives the server's Prometheus metrics. If nil a fresh
	// registry with the standard process/go collectors is created.
	Registry *prometheus.Registry
}

// docService is the interface the document handlers call. *docs.Service
// satisfies it; tests inject a fake.
type docService interface {
	// Ingest runs the full pipeline for one uploaded file.
	Ingest(ctx context.Context, filePath, originalName string) (string, error)
	// Search returns the topK most similar chunks for a query.
	Search(ctx context.Context, query string, topK int) ([]rag.ScoredChunk, error)
	// FormatHits renders hits as the spoken-answer excerpt list.
	FormatHits(hits []rag.ScoredChunk) string
	// List returns all registered documents.
	List(ctx context.Context) ([]catalog.Document, error)
	// DocumentCount reports the number of registered documents.
	DocumentCount(ctx context.Context) (int, error)
	// Delete removes a document, its chunks, and its stored file.
	Delete(ctx context.Context, docID string) error
}

// tokenMinter is the interface handleToken calls. *token.Minter satisfies it.
type tokenMinter interface {
	// Mint returns a signed room access token.
	Mint(identity, room string) (string, error)
}

// transcriptWriter is the interface handleTranscription calls.
// *transcript.Writer satisfies it.
type transcriptWriter interface {
	// Append records one transcript line.
	Append(line transcript.Line) error
}

// Server is the HTTP server that exposes the document pipeline.
type Server struct {
	// svc handles document ingestion, search, and lifecycle.
	svc docService
	// minter issues room access tokens. Nil when LiveKit keys are not
	// configured; the token endpoint then returns 503.
	minter tokenMinter
	// transcripts records utterances per room. Nil disables the endpoint.
	transcripts transcriptWriter
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds this instance's Prometheus metrics.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// uploadResponse is the JSON response for POST /api/documents.
type uploadResponse struct {
	// DocID is the identifier assigned to the ingested document.
	DocID string `json:"doc_id"`
	// Filename is the original upload filename.
	Filename string `json:"filename"`
}

// listResponse is the JSON response for GET /api/documents.
type listResponse struct {
	// Documents is the full document list, upload-time ascending.
	Documents []catalog.Document `json:"documents"`
}

// askRequest is the JSON body for POST /api/ask.
type askRequest struct {
	// Question is the natural language query.
	Question string `json:"question"`
	// TopK limits the number of results. Zero uses the server default.
	TopK int `json:"top_k"`
}

// askResult is one similarity hit in the /api/ask response.
type askResult struct {
	ChunkID    string    `json:"chunk_id"`
	DocID      string    `json:"doc_id"`
	Filename   string    `json:"filename"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	UploadedAt time.Time `json:"uploaded_at"`
	Score      float32   `json:"score"`
}

// askResponse is the JSON response for POST /api/ask.
type askResponse struct {
	// Answer is the formatted excerpt list ready for the voice agent.
	Answer string `json:"answer"`
	// Results are the raw similarity hits behind the answer.
	Results []askResult `json:"results"`
}

// tokenResponse is the JSON response for GET /api/token.
type tokenResponse struct {
	// Token is the signed room access JWT.
	Token string `json:"token"`
	// Room is the room the token grants access to.
	Room string `json:"room"`
}

// transcriptionRequest is the JSON body for POST /api/transcriptions.
type transcriptionRequest struct {
	// Room selects the transcript file.
	Room string `json:"room"`
	// Type distinguishes agent and user lines.
	Type string `json:"type"`
	// Text is the utterance.
	Text string `json:"text"`
	// TS is the utterance timestamp in epoch milliseconds. Zero means now.
	TS int64 `json:"ts"`
	// Participant is the speaker's identity.
	Participant string `json:"participant"`
}

// errorResponse is the JSON error body used by all handlers.
type errorResponse struct {
	// Error is the human-readable failure description.
	Error string `json:"error"`
}
