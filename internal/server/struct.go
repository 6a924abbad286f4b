package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/insight-search/insight-go/internal/library"
	"github.com/insight-search/insight-go/internal/rag"
	"github.com/insight-search/insight-go/internal/store"
)

// SearchOptions parameterizes retrieval behavior for both search modes.
// One server instance serves plain search and journal search; the journal
// route is simply disabled when JournalEnabled is false.
type SearchOptions struct {
	// DefaultTopK is the result count used when the request omits top_k.
	// Defaults to 10 if zero.
	DefaultTopK int
	// MaxTopK caps the per-request top_k. Defaults to 50 if zero.
	MaxTopK int
	// JournalEnabled exposes POST /api/journal when true.
	JournalEnabled bool
}

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, slog.Default is used.
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
	// Search holds the retrieval options.
	Search SearchOptions
	// StaticDir is the directory served at "/". Defaults to "ui/static".
	StaticDir string
}

// rewriter is the interface handleJournal calls to restate a journal entry.
// *rewrite.Service satisfies it; tests inject a fake.
type rewriter interface {
	Rewrite(ctx context.Context, entry string) (string, error)
}

// Server is the HTTP server exposing semantic search over the corpus.
type Server struct {
	// retriever answers search queries.
	retriever rag.Retriever
	// vectors is consulted for the corpus chunk count in /api/stats.
	vectors rag.VectorStore
	// ledger backs /api/documents and /api/stats. May be nil.
	ledger store.Ledger
	// rewriter restates journal entries. Nil when journal mode is disabled.
	rewriter rewriter
	// catalog resolves source files to canonical library URLs.
	catalog *library.Catalog
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

// searchRequest is the JSON body for POST /api/search and POST /api/journal.
type searchRequest struct {
	// Query is the search text. For /api/journal this is the journal entry.
	Query string `json:"query"`
	// TopK is the requested result count. Zero means the configured default.
	TopK int `json:"top_k"`
	// Authors restricts results to the given author labels. Empty means all.
	Authors []string `json:"authors"`
}

// searchResult is one retrieved chunk in a search response.
type searchResult struct {
	// DocumentID is the stable chunk identifier.
	DocumentID string `json:"document_id"`
	// Text is the chunk text.
	Text string `json:"text"`
	// SourceFile is the originating document filename.
	SourceFile string `json:"source_file"`
	// ParagraphID is the source paragraph index or range (e.g. "3" or "3-7").
	ParagraphID string `json:"paragraph_id"`
	// Author is the author label.
	Author string `json:"author"`
	// Score is the cosine similarity to the query.
	Score float32 `json:"score"`
	// URL is the canonical library URL for the source document.
	URL string `json:"url"`
}

// searchResponse is the JSON body returned by POST /api/search.
type searchResponse struct {
	// Results is the ranked result list. Always present, possibly empty.
	Results []searchResult `json:"results"`
}

// journalResponse is the JSON body returned by POST /api/journal.
type journalResponse struct {
	// Restatement is the compassionate restatement used as the search query.
	Restatement string `json:"restatement"`
	// Results is the ranked result list retrieved for the restatement.
	Results []searchResult `json:"results"`
}

// documentsResponse is the JSON body returned by GET /api/documents.
type documentsResponse struct {
	// Documents lists the indexed source files, most recent first.
	Documents []documentEntry `json:"documents"`
}

// documentEntry is one ledger row in a documents response.
type documentEntry struct {
	SourceFile string    `json:"source_file"`
	Author     string    `json:"author"`
	ChunkCount int       `json:"chunk_count"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// statsResponse is the JSON body returned by GET /api/stats.
type statsResponse struct {
	// Documents is the number of indexed source files.
	Documents int `json:"documents"`
	// Chunks is the total chunk count recorded in the ledger.
	Chunks int `json:"chunks"`
	// VectorCount is the number of points in the vector store.
	VectorCount uint64 `json:"vector_count"`
	// ByAuthor maps author label to indexed document count.
	ByAuthor map[string]int `json:"by_author"`
	// Authors lists the selectable author filter options.
	Authors []string `json:"authors"`
}
