// Package server implements the HTTP server that exposes semantic search over
// the corpus via a REST API and serves the web UI. The server is started by
// the `insight serve` CLI command.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/insight-search/insight-go/internal/library"
	"github.com/insight-search/insight-go/internal/rag"
	"github.com/insight-search/insight-go/internal/store"
)

// Deps bundles the dependencies a Server needs. Ledger and Rewriter are
// optional; the corresponding endpoints degrade gracefully without them.
type Deps struct {
	// Retriever answers search queries.
	Retriever rag.Retriever
	// Vectors supplies the corpus chunk count for /api/stats.
	Vectors rag.VectorStore
	// Ledger backs /api/documents and /api/stats.
	Ledger store.Ledger
	// Rewriter restates journal entries for /api/journal.
	Rewriter rewriter
	// Catalog resolves source files to canonical library URLs.
	Catalog *library.Catalog
	// Registry receives the server's Prometheus metrics. Nil uses the default
	// registry.
	Registry *prometheus.Registry
}

// New constructs a Server from the provided dependencies and config.
func New(deps Deps, cfg *Config) (*Server, error) {
	if deps.Retriever == nil {
		return nil, fmt.Errorf("server: retriever must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// Journal requests wait on a generative model; allow for slow backends.
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 10
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = 50
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = "ui/static"
	}
	if deps.Catalog == nil {
		deps.Catalog = library.DefaultCatalog()
	}

	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if deps.Registry != nil {
		reg = deps.Registry
		gatherer = deps.Registry
	}

	s := &Server{
		retriever: deps.Retriever,
		vectors:   deps.Vectors,
		ledger:    deps.Ledger,
		rewriter:  deps.Rewriter,
		catalog:   deps.Catalog,
		cfg:       cfg,
		log:       cfg.Logger,
		pingers:   cfg.Pingers,
		metrics:   newServerMetrics(reg),
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.Logger)
	s.stopRL = stopRL

	if cfg.APIKey == "" {
		cfg.Logger.Warn("server: INSIGHT_API_KEY not set — API authentication disabled")
	}

	// protected wraps an API handler with auth + rate limiting + metrics.
	protected := func(name string, h http.HandlerFunc) http.Handler {
		return s.instrument(name, authMiddleware(cfg.APIKey, rl.middleware(h)))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/search", protected("search", s.handleSearch))
	if cfg.Search.JournalEnabled && deps.Rewriter != nil {
		mux.Handle("POST /api/journal", protected("journal", s.handleJournal))
	}
	mux.Handle("GET /api/documents", protected("documents", s.handleDocuments))
	mux.Handle("GET /api/stats", protected("stats", s.handleStats))
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.instrument("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(cfg.Logger, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// Handler returns the server's root handler, for tests that drive the mux
// through httptest without opening a listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Close releases background resources without serving. Safe to call whether
// or not Start ran.
func (s *Server) Close() {
	if s.stopRL != nil {
		s.stopRL()
	}
}

// instrument wraps next with per-handler HTTP metrics.
func (s *Server) instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rw, r)

		s.metrics.httpRequestsTotal.WithLabelValues(r.Method, name, strconv.Itoa(rw.status)).Inc()
		s.metrics.httpDurationSeconds.WithLabelValues(r.Method, name).Observe(time.Since(start).Seconds())
	})
}
