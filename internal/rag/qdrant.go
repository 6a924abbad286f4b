package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// Payload field names used for every stored point. The search front-ends and
// the author filter depend on these exact keys.
const (
	payloadDocumentID  = "document_id"
	payloadText        = "text"
	payloadSourceFile  = "source_file"
	payloadParagraphID = "paragraph_id"
	payloadAuthor      = "author"
)

// pointNamespace is the fixed UUIDv5 namespace for deriving Qdrant point IDs
// from chunk source identifiers. Re-ingesting the same document therefore
// overwrites its existing points instead of duplicating them.
var pointNamespace = uuid.MustParse("8e4a33aa-6b5e-4bc0-9a3d-5f12c2a9b7e1")

// QdrantConfig holds connection parameters for a Qdrant instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the collection name holding the corpus.
	Collection string

	// VectorSize is the dimensionality of the stored embeddings.
	VectorSize uint64

	// APIKey is the optional API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements VectorStore backed by a Qdrant collection using
// cosine distance.
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig
}

// NewQdrantStore connects to Qdrant and ensures the target collection exists,
// creating it with cosine distance if necessary.
func NewQdrantStore(ctx context.Context, cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	store := &QdrantStore{client: client, cfg: cfg}
	if err := store.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Client exposes the underlying gRPC client for readiness probes.
func (s *QdrantStore) Client() *qdrant.Client { return s.client }

// ensureCollection creates the collection if it does not already exist.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", s.cfg.Collection, err)
	}
	return nil
}

// Upsert stores a batch of documents with their pre-computed embeddings.
func (s *QdrantStore) Upsert(ctx context.Context, docs []Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("qdrant: %d documents but %d embeddings", len(docs), len(embeddings))
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for i, doc := range docs {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(doc.ID)),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: qdrant.NewValueMap(documentPayload(doc)),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert failed: %w", err)
	}
	return nil
}

// Search performs a cosine similarity query and returns the topK best
// matches, optionally restricted to an author set.
func (s *QdrantStore) Search(ctx context.Context, queryEmbedding []float32, topK int, filter *SearchFilter) ([]Document, error) {
	limit := uint64(topK) //nolint:gosec // topK is validated by callers

	var qf *qdrant.Filter
	if filter != nil && len(filter.Authors) > 0 {
		qf = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatchKeywords(payloadAuthor, filter.Authors...),
			},
		}
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Limit:          &limit,
		Filter:         qf,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search failed: %w", err)
	}

	docs := make([]Document, 0, len(results))
	for _, r := range results {
		docs = append(docs, documentFromPayload(r.Payload, r.Score))
	}
	return docs, nil
}

// documentPayload maps a document to its point payload. The chunk identifier
// travels in the payload too: the point ID on the wire is an opaque UUIDv5,
// so the original ID would otherwise be unrecoverable at search time.
func documentPayload(doc Document) map[string]any {
	return map[string]any{
		payloadDocumentID:  doc.ID,
		payloadText:        doc.Text,
		payloadSourceFile:  doc.SourceFile,
		payloadParagraphID: doc.ParagraphID,
		payloadAuthor:      doc.Author,
	}
}

// documentFromPayload rebuilds a document from a point payload and its query
// score. Missing payload fields are left zero.
func documentFromPayload(payload map[string]*qdrant.Value, score float32) Document {
	doc := Document{Score: score}
	if payload == nil {
		return doc
	}
	if v, ok := payload[payloadDocumentID]; ok {
		doc.ID = v.GetStringValue()
	}
	if v, ok := payload[payloadText]; ok {
		doc.Text = v.GetStringValue()
	}
	if v, ok := payload[payloadSourceFile]; ok {
		doc.SourceFile = v.GetStringValue()
	}
	if v, ok := payload[payloadParagraphID]; ok {
		doc.ParagraphID = v.GetStringValue()
	}
	if v, ok := payload[payloadAuthor]; ok {
		doc.Author = v.GetStringValue()
	}
	return doc
}

// Count returns the exact number of points in the collection.
func (s *QdrantStore) Count(ctx context.Context) (uint64, error) {
	exact := true
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.cfg.Collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: count failed: %w", err)
	}
	return n, nil
}

// Delete removes documents by their chunk source identifiers.
func (s *QdrantStore) Delete(ctx context.Context, ids []string) error {
	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewIDUUID(pointID(id)))
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.cfg.Collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete failed: %w", err)
	}
	return nil
}

// Close closes the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// pointID derives the deterministic UUIDv5 point ID for a chunk source
// identifier.
func pointID(sourceID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(sourceID)).String()
}
