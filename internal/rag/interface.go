// Package rag defines the retrieval interfaces for the semantic search
// pipeline: embedding, vector storage, and query-time retrieval. Concrete
// backends (Qdrant, the in-memory store) satisfy these interfaces so neither
// the ingestion pipeline nor the front-ends depend on a specific vendor.
package rag

import (
	"context"
)

// Document is one stored or retrieved passage of the corpus — a merged
// paragraph chunk with its citation metadata.
type Document struct {
	// ID is the chunk's stable source identifier
	// (e.g. "hidden-words_para_4-9"). Unique across the corpus.
	ID string

	// Text is the chunk text.
	Text string

	// SourceFile is the corpus filename the chunk was extracted from.
	SourceFile string

	// ParagraphID is the original paragraph index range within the source
	// document ("4" or "4-9").
	ParagraphID string

	// Author is the author category assigned at ingestion time.
	Author string

	// Score is the cosine similarity assigned during retrieval (higher is
	// better). Zero when the document was not produced by a search.
	Score float32
}

// SearchFilter restricts a search to a subset of the corpus.
// A nil filter (or an empty Authors slice) matches everything.
type SearchFilter struct {
	// Authors limits results to documents whose author category is in the
	// set. Values come from library.AuthorOptions.
	Authors []string
}

// VectorStore persists document embeddings and answers similarity queries.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// Upsert stores or updates a batch of documents with their pre-computed
	// embeddings. embeddings is parallel to docs: embeddings[i] belongs to
	// docs[i].
	Upsert(ctx context.Context, docs []Document, embeddings [][]float32) error

	// Search returns the topK most similar documents for the query embedding,
	// best first, optionally restricted by filter.
	Search(ctx context.Context, queryEmbedding []float32, topK int, filter *SearchFilter) ([]Document, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (uint64, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the store.
	Close() error
}

// Embedder converts texts into dense vector embeddings. The returned slice is
// parallel to the input. Implementations must be safe to call from multiple
// goroutines.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever is the high-level query interface used by the front-ends.
// It combines query embedding and vector search.
type Retriever interface {
	// Retrieve returns the topK most relevant documents for the query.
	// A blank query yields an empty result set, not an error.
	Retrieve(ctx context.Context, query string, topK int, filter *SearchFilter) ([]Document, error)
}
