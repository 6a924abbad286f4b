package commands

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"
)

// NewStatsCmd constructs the `insight stats` command, which prints corpus
// statistics from the ledger and the vector store.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show corpus statistics",
		Long: `Show what has been indexed: document and chunk counts from the
SQLite ledger, the author breakdown, and the live point count reported
by the Qdrant collection.

Examples:
  insight stats
  INSIGHT_LEDGER_DB=/tmp/ledger.db insight stats`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := slog.Default()
			out := cmd.OutOrStdout()

			ledger := openLedger(log)
			if ledger != nil {
				defer func() { _ = ledger.Close() }()

				st, err := ledger.Stats(ctx)
				if err != nil {
					return fmt.Errorf("stats: %w", err)
				}

				fmt.Fprintln(out, headingStyle.Render("Ledger"))
				fmt.Fprintf(out, "  documents: %d\n", st.Documents)
				fmt.Fprintf(out, "  chunks:    %d\n", st.Chunks)

				if len(st.ByAuthor) > 0 {
					fmt.Fprintln(out, headingStyle.Render("By author"))
					names := make([]string, 0, len(st.ByAuthor))
					for name := range st.ByAuthor {
						names = append(names, name)
					}
					sort.Strings(names)
					for _, name := range names {
						fmt.Fprintf(out, "  %-30s %d\n", name, st.ByAuthor[name])
					}
				}
			} else {
				fmt.Fprintln(out, metaStyle.Render("Ledger disabled — no document bookkeeping."))
			}

			vs, err := buildVectorStore(ctx, log)
			if err != nil {
				// The ledger stats are still useful when Qdrant is down.
				log.Warn("stats: vector store unavailable", slog.Any("error", err))
				return nil
			}
			defer vs.Close()

			count, err := vs.Count(ctx)
			if err != nil {
				log.Warn("stats: vector count failed", slog.Any("error", err))
				return nil
			}
			fmt.Fprintln(out, headingStyle.Render("Vector store"))
			fmt.Fprintf(out, "  points: %d\n", count)

			return nil
		},
	}

	return cmd
}
