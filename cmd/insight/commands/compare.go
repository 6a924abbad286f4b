package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/insight-search/insight-go/internal/rag"
)

// NewCompareCmd constructs the `insight compare` command, which embeds two
// texts and prints their cosine similarity.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [text-a] [text-b]",
		Short: "Compare the semantic similarity of two texts",
		Long: `Embed two texts with the configured backend and print their cosine
similarity — 1.0 for identical meaning, near 0 for unrelated texts.

Useful for sanity-checking the embedding backend and for exploring how
the engine perceives relatedness between passages.

Examples:
  insight compare "the soul of man" "the human spirit"
  insight compare "detachment" "material wealth"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := slog.Default()

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("compare: %w", err)
			}

			vecs, err := emb.Embed(ctx, []string{args[0], args[1]})
			if err != nil {
				return fmt.Errorf("compare: embedding failed: %w", err)
			}
			if len(vecs) != 2 {
				return fmt.Errorf("compare: expected 2 embeddings, got %d", len(vecs))
			}

			score := rag.Cosine(vecs[0], vecs[1])
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
				headingStyle.Render("Similarity:"),
				scoreStyle.Render(fmt.Sprintf("%.4f", score)),
			)
			return nil
		},
	}

	return cmd
}
