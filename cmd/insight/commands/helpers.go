package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/insight-search/insight-go/internal/embedder"
	"github.com/insight-search/insight-go/internal/library"
	"github.com/insight-search/insight-go/internal/rag"
	"github.com/insight-search/insight-go/internal/store"
)

// Styles for terminal output, shared by the search, journal, and stats
// commands.
var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	passageStyle = lipgloss.NewStyle().PaddingLeft(2).Width(96)
	restateStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("13")).PaddingLeft(2).Width(96)
)

// buildEmbedder validates credentials and constructs the embedding backend
// from EMBEDDING_* environment variables.
func buildEmbedder(log *slog.Logger) (rag.Embedder, error) {
	if err := embedder.Validate(log); err != nil {
		return nil, err
	}
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	log.Info("embedder initialised", slog.String("provider", embeddingBackend()))
	return emb, nil
}

// embeddingBackend returns the configured embedding backend name.
func embeddingBackend() string {
	return getEnvOrDefault("EMBEDDING_PROVIDER", "openai")
}

// buildVectorStore connects to Qdrant using QDRANT_* environment variables,
// sizing the collection for the configured embedding backend.
func buildVectorStore(ctx context.Context, log *slog.Logger) (*rag.QdrantStore, error) {
	host := getEnvOrDefault("QDRANT_HOST", "localhost")
	port := getEnvInt("QDRANT_PORT", 6334)
	collection := getEnvOrDefault("QDRANT_COLLECTION", "bahai_writings")
	dims := getEnvInt("EMBEDDING_DIMENSIONS", embedder.DefaultDimensions(embeddingBackend()))

	vs, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
		Host:       host,
		Port:       port,
		Collection: collection,
		VectorSize: uint64(dims), //nolint:gosec // dimensions are bounded
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
	}
	log.Info("qdrant store ready",
		slog.String("host", host),
		slog.Int("port", port),
		slog.String("collection", collection),
	)
	return vs, nil
}

// openLedger opens the indexed-document ledger. INSIGHT_LEDGER_DB overrides
// the default path (~/.insight/ledger.db); set to "disabled" to turn the
// ledger off. A ledger failure is never fatal — commands degrade to running
// without bookkeeping.
func openLedger(log *slog.Logger) store.Ledger {
	dbPath := os.Getenv("INSIGHT_LEDGER_DB")
	if dbPath == "disabled" {
		log.Info("ledger: disabled via INSIGHT_LEDGER_DB=disabled")
		return nil
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			log.Warn("ledger: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil
		}
	}
	ledger, err := store.Open(dbPath)
	if err != nil {
		log.Warn("ledger: failed to open, disabling", slog.Any("error", err))
		return nil
	}
	log.Info("ledger: opened", slog.String("path", dbPath))
	return ledger
}

// renderResults prints retrieved passages with their metadata and library
// links.
func renderResults(w io.Writer, docs []rag.Document, catalog *library.Catalog) {
	if len(docs) == 0 {
		fmt.Fprintln(w, metaStyle.Render("No passages found."))
		return
	}
	for i, d := range docs {
		header := fmt.Sprintf("%d. %s", i+1, d.Author)
		score := scoreStyle.Render(fmt.Sprintf("%.3f", d.Score))
		fmt.Fprintf(w, "%s  %s\n", headingStyle.Render(header), score)
		fmt.Fprintln(w, passageStyle.Render(d.Text))

		meta := fmt.Sprintf("%s · ¶%s", d.SourceFile, d.ParagraphID)
		if url := catalog.ResolveURL(d.SourceFile); url != library.Root {
			meta += " · " + url
		}
		fmt.Fprintln(w, metaStyle.Render("  "+meta))
		fmt.Fprintln(w)
	}
}

// readEntry returns the journal entry from args, or from stdin when no
// argument was given (so entries can be piped in).
func readEntry(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading entry from stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// getEnvOrDefault returns the env var value, or fallback when unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the env var parsed as int, or fallback when unset or
// unparsable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
