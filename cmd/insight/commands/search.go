package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/insight-search/insight-go/internal/library"
	"github.com/insight-search/insight-go/internal/rag"
)

// NewSearchCmd constructs the `insight search` command, which embeds a query
// and prints the closest passages from the corpus.
func NewSearchCmd() *cobra.Command {
	var topK int
	var authors []string

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the corpus by meaning",
		Long: `Search the indexed corpus semantically.

The query is embedded with the configured backend and matched against
the stored passage vectors by cosine similarity. Results include the
source document, paragraph reference, author, and a link to the
passage's page in the Bahá'í Reference Library.

Examples:
  insight search "the purpose of tests and difficulties"
  insight search --top-k 5 "detachment from the world"
  insight search --author "Bahá'u'lláh" --author "'Abdu'l-Bahá" "prayers for healing"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := slog.Default()
			query := strings.Join(args, " ")

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			vs, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			defer vs.Close()

			retriever, err := rag.NewRetriever(emb, vs, getEnvInt("SEARCH_DEFAULT_TOP_K", 10))
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			var filter *rag.SearchFilter
			if len(authors) > 0 {
				filter = &rag.SearchFilter{Authors: authors}
			}

			docs, err := retriever.Retrieve(ctx, query, topK, filter)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			renderResults(cmd.OutOrStdout(), docs, library.DefaultCatalog())
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of passages to return (default from SEARCH_DEFAULT_TOP_K)")
	cmd.Flags().StringArrayVarP(&authors, "author", "a", nil, "Restrict results to this author (repeatable)")

	return cmd
}
