package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-memory VectorStore using brute-force cosine
// similarity. It backs local runs without a Qdrant instance and the package
// tests. Upserts by the same document ID replace the previous entry.
type MemoryStore struct {
	mu   sync.RWMutex
	docs []Document
	vecs [][]float32
	byID map[string]int
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

// Upsert stores or replaces documents with their embeddings.
func (m *MemoryStore) Upsert(_ context.Context, docs []Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("memory store: %d documents but %d embeddings", len(docs), len(embeddings))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, doc := range docs {
		if j, ok := m.byID[doc.ID]; ok {
			m.docs[j] = doc
			m.vecs[j] = embeddings[i]
			continue
		}
		m.byID[doc.ID] = len(m.docs)
		m.docs = append(m.docs, doc)
		m.vecs = append(m.vecs, embeddings[i])
	}
	return nil
}

// Search scores every stored vector against the query by cosine similarity
// and returns the topK best matches, best first.
func (m *MemoryStore) Search(_ context.Context, queryEmbedding []float32, topK int, filter *SearchFilter) ([]Document, error) {
	if topK <= 0 {
		topK = 10
	}

	allowed := map[string]bool{}
	if filter != nil {
		for _, a := range filter.Authors {
			allowed[a] = true
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		idx   int
		score float32
	}
	candidates := make([]scored, 0, len(m.docs))
	for i := range m.docs {
		if len(allowed) > 0 && !allowed[m.docs[i].Author] {
			continue
		}
		candidates = append(candidates, scored{idx: i, score: Cosine(queryEmbedding, m.vecs[i])})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if topK > len(candidates) {
		topK = len(candidates)
	}

	out := make([]Document, 0, topK)
	for _, c := range candidates[:topK] {
		doc := m.docs[c.idx]
		doc.Score = c.score
		out = append(out, doc)
	}
	return out, nil
}

// Count returns the number of stored documents.
func (m *MemoryStore) Count(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.docs)), nil
}

// Delete removes documents by ID. Unknown IDs are ignored.
func (m *MemoryStore) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	docs := m.docs[:0]
	vecs := m.vecs[:0]
	m.byID = make(map[string]int)
	for i := range m.docs {
		if drop[m.docs[i].ID] {
			continue
		}
		m.byID[m.docs[i].ID] = len(docs)
		docs = append(docs, m.docs[i])
		vecs = append(vecs, m.vecs[i])
	}
	m.docs = docs
	m.vecs = vecs
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }

// Cosine computes the cosine similarity of two vectors. Mismatched or
// zero-magnitude vectors score 0.
func Cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
