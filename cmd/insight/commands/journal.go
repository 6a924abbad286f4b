package commands

import (
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/insight-search/insight-go/internal/library"
	"github.com/insight-search/insight-go/internal/provider"
	"github.com/insight-search/insight-go/internal/rag"
	"github.com/insight-search/insight-go/internal/rewrite"
	"github.com/insight-search/insight-go/internal/tracing"
)

// NewJournalCmd constructs the `insight journal` command, which restates a
// personal journal entry through the generative model and searches the corpus
// with the restatement.
func NewJournalCmd() *cobra.Command {
	var topK int
	var authors []string

	cmd := &cobra.Command{
		Use:   "journal [entry]",
		Short: "Search the corpus with a restated journal entry",
		Long: `Restate a journal entry through the configured generative model,
then search the corpus with the restatement.

Raw journal entries rarely make good search queries. The model produces
a compassionate restatement of what the entry expresses, and that
restatement — shown above the results — is what gets embedded and
searched.

The entry can be passed as an argument or piped on stdin.

Examples:
  insight journal "Today everything went wrong and I feel hopeless."
  cat entry.txt | insight journal
  MODEL_PROVIDER=ollama insight journal "I am grateful for my family."`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := slog.Default()

			entry, err := readEntry(args, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("journal: %w", err)
			}
			if entry == "" {
				return fmt.Errorf("journal: entry must not be empty")
			}

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			}

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("journal: failed to initialise model provider: %w", err)
			}

			svc, err := rewrite.NewService(chatModel, rewrite.WithLogger(log))
			if err != nil {
				return fmt.Errorf("journal: %w", err)
			}

			restated, err := svc.Rewrite(ctx, entry)
			if err != nil {
				return fmt.Errorf("journal: rewrite failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headingStyle.Render("Restatement"))
			fmt.Fprintln(out, restateStyle.Render(restated))
			fmt.Fprintln(out)

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("journal: %w", err)
			}

			vs, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("journal: %w", err)
			}
			defer vs.Close()

			retriever, err := rag.NewRetriever(emb, vs, getEnvInt("SEARCH_DEFAULT_TOP_K", 10))
			if err != nil {
				return fmt.Errorf("journal: %w", err)
			}

			var filter *rag.SearchFilter
			if len(authors) > 0 {
				filter = &rag.SearchFilter{Authors: authors}
			}

			docs, err := retriever.Retrieve(ctx, restated, topK, filter)
			if err != nil {
				return fmt.Errorf("journal: %w", err)
			}

			renderResults(out, docs, library.DefaultCatalog())
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of passages to return (default from SEARCH_DEFAULT_TOP_K)")
	cmd.Flags().StringArrayVarP(&authors, "author", "a", nil, "Restrict results to this author (repeatable)")

	return cmd
}
