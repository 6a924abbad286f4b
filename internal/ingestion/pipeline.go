// Package ingestion implements the document ingestion pipeline. It reads
// word-processor documents, segments them into paragraph chunks, embeds each
// chunk, and upserts the results into the vector store, recording each
// completed file in the indexed-document ledger. This pipeline is invoked by
// the `insight ingest` CLI command.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/insight-search/insight-go/internal/corpus"
	"github.com/insight-search/insight-go/internal/library"
	"github.com/insight-search/insight-go/internal/rag"
	"github.com/insight-search/insight-go/internal/store"
)

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// MinWords is the minimum word count a chunk should reach before being
	// closed; consecutive short paragraphs are merged until they meet it.
	// Defaults to 50 if zero.
	MinWords int

	// BatchSize is the number of chunks upserted per vector-store call.
	// Defaults to 32 if zero.
	BatchSize int

	// IndexedDir, when non-empty, is the directory successfully ingested
	// files are moved to so re-runs skip them.
	IndexedDir string
}

// Result summarizes the ingestion of a single document.
type Result struct {
	// SourceFile is the base name of the ingested file.
	SourceFile string
	// Author is the label assigned by the classifier.
	Author string
	// Chunks is the number of chunks produced by the merger.
	Chunks int
	// Stored is the number of chunks upserted into the vector store.
	Stored int
	// Skipped is the number of chunks dropped due to embedding failures.
	Skipped int
}

// Pipeline orchestrates the read → segment → embed → upsert flow for source
// documents.
type Pipeline struct {
	// embedder converts chunk texts into dense vector embeddings.
	embedder rag.Embedder

	// store persists the embedded chunks.
	store rag.VectorStore

	// ledger records each completed file. Optional; nil disables bookkeeping.
	ledger store.Ledger

	// catalog assigns author labels from filenames.
	catalog *library.Catalog

	// cfg holds the resolved pipeline configuration.
	cfg *Config

	// log receives per-chunk and per-file progress.
	log *slog.Logger
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(embedder rag.Embedder, vectorStore rag.VectorStore, ledger store.Ledger, catalog *library.Catalog, cfg *Config, log *slog.Logger) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if vectorStore == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if catalog == nil {
		catalog = library.DefaultCatalog()
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.MinWords <= 0 {
		cfg.MinWords = 50
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if log == nil {
		log = slog.Default()
	}

	return &Pipeline{
		embedder: embedder,
		store:    vectorStore,
		ledger:   ledger,
		catalog:  catalog,
		cfg:      cfg,
		log:      log,
	}, nil
}

// Discover returns the ingestable files directly under dir, sorted by name.
// Subdirectories are not descended into.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ingestion: read dir %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".docx", ".txt", ".md":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// IngestFile runs the full pipeline for a single document: read paragraphs,
// extract and merge into chunks, classify the author, embed each chunk, and
// upsert in batches.
//
// Embedding failures are per-chunk: the chunk is logged and skipped, and the
// rest of the document proceeds. Store failures abort the remaining batches
// and return an error — chunks already upserted are NOT rolled back, so a
// re-run of the same file overwrites them idempotently.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (Result, error) {
	base := filepath.Base(path)
	res := Result{
		SourceFile: base,
		Author:     p.catalog.Classify(base),
	}

	paras, err := ReadParagraphs(path)
	if err != nil {
		return res, err
	}

	chunks, err := corpus.Merge(library.Stem(base), corpus.Extract(paras), p.cfg.MinWords)
	if err != nil {
		return res, fmt.Errorf("ingestion: merge %s: %w", base, err)
	}
	res.Chunks = len(chunks)

	p.log.Info("segmented document",
		slog.String("file", base),
		slog.String("author", res.Author),
		slog.Int("paragraphs", len(paras)),
		slog.Int("chunks", len(chunks)),
	)

	docs := make([]rag.Document, 0, len(chunks))
	embeddings := make([][]float32, 0, len(chunks))
	for _, chunk := range chunks {
		vecs, err := p.embedder.Embed(ctx, []string{chunk.Text})
		if err != nil {
			p.log.Warn("embedding failed, skipping chunk",
				slog.String("file", base),
				slog.String("chunk", chunk.SourceID),
				slog.Any("error", err),
			)
			res.Skipped++
			continue
		}
		docs = append(docs, rag.Document{
			ID:          chunk.SourceID,
			Text:        chunk.Text,
			SourceFile:  base,
			ParagraphID: chunk.ParagraphRange(),
			Author:      res.Author,
		})
		embeddings = append(embeddings, vecs[0])
	}

	for start := 0; start < len(docs); start += p.cfg.BatchSize {
		end := start + p.cfg.BatchSize
		if end > len(docs) {
			end = len(docs)
		}
		if err := p.store.Upsert(ctx, docs[start:end], embeddings[start:end]); err != nil {
			res.Stored = start
			return res, fmt.Errorf("ingestion: upsert %s chunks %d-%d: %w", base, start, end-1, err)
		}
		res.Stored = end
	}

	if p.cfg.IndexedDir != "" {
		if err := p.moveToIndexed(path); err != nil {
			return res, err
		}
	}

	if p.ledger != nil {
		rec := store.IndexedDocument{
			SourceFile: base,
			Author:     res.Author,
			ChunkCount: res.Stored,
			IndexedAt:  time.Now(),
		}
		if err := p.ledger.Record(ctx, rec); err != nil {
			return res, fmt.Errorf("ingestion: ledger record %s: %w", base, err)
		}
	}

	return res, nil
}

// moveToIndexed relocates a completed file into the indexed directory.
func (p *Pipeline) moveToIndexed(path string) error {
	if err := os.MkdirAll(p.cfg.IndexedDir, 0o755); err != nil {
		return fmt.Errorf("ingestion: create indexed dir: %w", err)
	}
	dst := filepath.Join(p.cfg.IndexedDir, filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		return fmt.Errorf("ingestion: move %s to indexed dir: %w", filepath.Base(path), err)
	}
	return nil
}
