package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/insight-search/insight-go/internal/logging"
	"github.com/insight-search/insight-go/internal/provider"
	"github.com/insight-search/insight-go/internal/rag"
	"github.com/insight-search/insight-go/internal/rewrite"
	"github.com/insight-search/insight-go/internal/server"
	"github.com/insight-search/insight-go/internal/tracing"
)

// NewServeCmd constructs the `insight serve` command, which starts the HTTP
// server and serves the search web UI.
func NewServeCmd() *cobra.Command {
	var host string
	var port int
	var staticDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Insight HTTP server and web UI",
		Long: `Start the Insight HTTP server on localhost.

The server exposes a REST API (search, journal, documents, stats) and
serves the web UI for interactive corpus exploration. Prometheus
metrics are exposed at /metrics, liveness at /api/health, and readiness
at /api/ready.

Journal mode requires a generative model and is only routed when
JOURNAL_ENABLED=true and the model provider initialises.

Examples:
  insight serve
  insight serve --port 9090
  JOURNAL_ENABLED=true MODEL_PROVIDER=openai insight serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("embedding_provider", embeddingBackend()))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			vs, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer vs.Close()

			retriever, err := rag.NewRetriever(emb, vs, getEnvInt("SEARCH_DEFAULT_TOP_K", 10))
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			ledger := openLedger(log)
			if ledger != nil {
				defer func() { _ = ledger.Close() }()
			}

			// Journal mode is optional: a missing or misconfigured model provider
			// degrades to search-only serving.
			journalEnabled := os.Getenv("JOURNAL_ENABLED") == "true"
			var rewriter *rewrite.Service
			if journalEnabled {
				chatModel, err := provider.NewFromEnv(ctx)
				if err != nil {
					log.Warn("journal: model provider unavailable, disabling", slog.Any("error", err))
					journalEnabled = false
				} else {
					rewriter, err = rewrite.NewService(chatModel, rewrite.WithLogger(log))
					if err != nil {
						log.Warn("journal: rewrite service unavailable, disabling", slog.Any("error", err))
						journalEnabled = false
					} else {
						log.Info("journal mode enabled")
					}
				}
			}

			pingers := []server.Pinger{
				server.NewQdrantPinger(vs.Client()),
				server.NewEmbedderPinger(emb, embeddingBackend()),
			}

			deps := server.Deps{
				Retriever: retriever,
				Vectors:   vs,
				Ledger:    ledger,
				Registry:  prometheus.NewRegistry(),
			}
			if rewriter != nil {
				deps.Rewriter = rewriter
			}

			srv, err := server.New(deps, &server.Config{
				Host:      host,
				Port:      port,
				Logger:    log,
				Pingers:   pingers,
				APIKey:    os.Getenv("INSIGHT_API_KEY"),
				StaticDir: staticDir,
				Search: server.SearchOptions{
					DefaultTopK:    getEnvInt("SEARCH_DEFAULT_TOP_K", 10),
					MaxTopK:        getEnvInt("SEARCH_MAX_TOP_K", 50),
					JournalEnabled: journalEnabled,
				},
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}
			defer srv.Close()

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")
	cmd.Flags().StringVar(&staticDir, "static-dir", "ui/static", "Directory with the web UI static files")

	return cmd
}
