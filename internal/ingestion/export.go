package ingestion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/insight-search/insight-go/internal/corpus"
	"github.com/insight-search/insight-go/internal/library"
)

// ChunkRecord is the JSON shape of one exported chunk. The field set matches
// what the embedding tooling downstream expects.
type ChunkRecord struct {
	DocumentID  string `json:"document_id"`
	Text        string `json:"text"`
	SourceFile  string `json:"source_file"`
	ParagraphID string `json:"paragraph_id"`
	Author      string `json:"author"`
}

// ExtractChunks runs the read → extract → merge → classify stages for a single
// document and returns the chunk records, without touching any external
// service. This backs `insight ingest --export-json`.
func ExtractChunks(path string, minWords int, catalog *library.Catalog) ([]ChunkRecord, error) {
	if catalog == nil {
		catalog = library.DefaultCatalog()
	}

	base := filepath.Base(path)
	paras, err := ReadParagraphs(path)
	if err != nil {
		return nil, err
	}

	chunks, err := corpus.Merge(library.Stem(base), corpus.Extract(paras), minWords)
	if err != nil {
		return nil, fmt.Errorf("ingestion: merge %s: %w", base, err)
	}

	author := catalog.Classify(base)
	records := make([]ChunkRecord, 0, len(chunks))
	for _, c := range chunks {
		records = append(records, ChunkRecord{
			DocumentID:  c.SourceID,
			Text:        c.Text,
			SourceFile:  base,
			ParagraphID: c.ParagraphRange(),
			Author:      author,
		})
	}
	return records, nil
}

// WriteJSON writes the chunk records as an indented JSON array to path.
func WriteJSON(path string, records []ChunkRecord) error {
	// An empty run still produces a valid (empty) array, not "null".
	if records == nil {
		records = []ChunkRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("ingestion: marshal export: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("ingestion: write export %s: %w", path, err)
	}
	return nil
}
