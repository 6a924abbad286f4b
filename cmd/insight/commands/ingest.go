package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/insight-search/insight-go/internal/ingestion"
	"github.com/insight-search/insight-go/internal/library"
)

// NewIngestCmd constructs the `insight ingest` command, which chunks, embeds,
// and indexes source documents into the Qdrant vector store.
func NewIngestCmd() *cobra.Command {
	var inputDir string
	var indexedDir string
	var minWords int
	var batchSize int
	var exportJSON string

	cmd := &cobra.Command{
		Use:   "ingest [file ...]",
		Short: "Ingest documents into the vector store",
		Long: `Chunk, embed, and index documents into the Qdrant vector store.

With no arguments, every .docx, .txt, and .md file in the input directory
is ingested. Successfully ingested files are moved to the indexed
directory and recorded in the SQLite ledger, so re-running the command
only picks up new documents.

Paragraphs shorter than --min-words are merged with their successors
until the threshold is met, keeping prayer verses and short lines in
context. Chunks that fail to embed are skipped with a warning; the rest
of the document still indexes.

With --export-json, documents are chunked and written to a JSON file
instead of being embedded — useful for inspecting chunk boundaries or
feeding external pipelines. No embedding backend is needed.

Required environment variables (unless --export-json):
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: bahai_writings)
  EMBEDDING_PROVIDER   Embedding backend: openai, ollama (default: openai)
  OPENAI_API_KEY       Required for the openai backend

Examples:
  insight ingest
  insight ingest docs/hidden-words.docx
  insight ingest --input-dir ./writings --min-words 50
  insight ingest --export-json chunks.json docs/prayers.docx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := slog.Default()

			files := args
			if len(files) == 0 {
				var err error
				files, err = ingestion.Discover(inputDir)
				if err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
				if len(files) == 0 {
					log.Warn("no documents found", slog.String("dir", inputDir))
					return nil
				}
			}

			if exportJSON != "" {
				return runExport(files, minWords, exportJSON, log)
			}

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			vs, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer vs.Close()

			ledger := openLedger(log)
			if ledger != nil {
				defer func() { _ = ledger.Close() }()
			}

			pipeline, err := ingestion.NewPipeline(emb, vs, ledger, nil, &ingestion.Config{
				MinWords:   minWords,
				BatchSize:  batchSize,
				IndexedDir: indexedDir,
			}, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			log.Info("starting ingestion", slog.Int("documents", len(files)))

			var failed int
			for _, f := range files {
				res, err := pipeline.IngestFile(ctx, f)
				if err != nil {
					// One bad document must not stop the batch.
					log.Error("document failed", slog.String("file", f), slog.Any("error", err))
					failed++
					continue
				}
				log.Info("document ingested",
					slog.String("file", res.SourceFile),
					slog.String("author", res.Author),
					slog.Int("chunks", res.Chunks),
					slog.Int("stored", res.Stored),
					slog.Int("skipped", res.Skipped),
				)
			}

			log.Info("ingestion complete",
				slog.Int("documents", len(files)-failed),
				slog.Int("failed", failed),
			)
			if failed == len(files) {
				return fmt.Errorf("ingest: all %d documents failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input-dir", "i", getEnvOrDefault("INGEST_INPUT_DIR", "docs"), "Directory scanned for source documents")
	cmd.Flags().StringVar(&indexedDir, "indexed-dir", getEnvOrDefault("INGEST_INDEXED_DIR", "docs/indexed"), "Directory ingested files are moved to")
	cmd.Flags().IntVar(&minWords, "min-words", getEnvInt("INGEST_MIN_WORDS", 50), "Minimum word count per chunk; shorter paragraphs are merged")
	cmd.Flags().IntVar(&batchSize, "batch-size", getEnvInt("INGEST_BATCH_SIZE", 32), "Chunks upserted per vector store call")
	cmd.Flags().StringVar(&exportJSON, "export-json", "", "Write chunks to this JSON file instead of indexing")

	return cmd
}

// runExport chunks the given files and writes them to a single JSON file,
// without touching the embedding backend or vector store.
func runExport(files []string, minWords int, outPath string, log *slog.Logger) error {
	catalog := library.DefaultCatalog()

	var records []ingestion.ChunkRecord
	for _, f := range files {
		chunks, err := ingestion.ExtractChunks(f, minWords, catalog)
		if err != nil {
			log.Error("document failed", slog.String("file", f), slog.Any("error", err))
			continue
		}
		log.Info("document chunked", slog.String("file", f), slog.Int("chunks", len(chunks)))
		records = append(records, chunks...)
	}

	if err := ingestion.WriteJSON(outPath, records); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	log.Info("chunks exported", slog.String("path", outPath), slog.Int("chunks", len(records)))
	return nil
}
