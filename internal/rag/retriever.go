package rag

import (
	"context"
	"fmt"
	"strings"
)

// DefaultRetriever implements Retriever by embedding the query and delegating
// similarity search to a VectorStore.
type DefaultRetriever struct {
	// embedder converts the query text to a dense vector.
	embedder Embedder

	// store performs the vector similarity search.
	store VectorStore

	// defaultTopK is the result count used when the caller passes 0.
	defaultTopK int
}

// NewRetriever constructs a DefaultRetriever. defaultTopK is the fallback
// result count when Retrieve is called with topK <= 0; it defaults to 10,
// matching the front-ends' result slider default.
func NewRetriever(embedder Embedder, store VectorStore, defaultTopK int) (*DefaultRetriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	if defaultTopK <= 0 {
		defaultTopK = 10
	}
	return &DefaultRetriever{
		embedder:    embedder,
		store:       store,
		defaultTopK: defaultTopK,
	}, nil
}

// Retrieve embeds the query and returns the topK most relevant documents.
// A blank or whitespace-only query is a no-op: it returns an empty result
// set without touching the embedder or the store.
func (r *DefaultRetriever) Retrieve(ctx context.Context, query string, topK int, filter *SearchFilter) ([]Document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = r.defaultTopK
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("rag: embedding query failed: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("rag: embedder returned no vector for query")
	}

	docs, err := r.store.Search(ctx, embeddings[0], topK, filter)
	if err != nil {
		return nil, fmt.Errorf("rag: vector search failed: %w", err)
	}
	return docs, nil
}
