package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/insight-search/insight-go/internal/rag"
	"github.com/insight-search/insight-go/internal/store"
)

// scriptedEmbedder returns a fixed unit vector per text, failing for any text
// containing failSubstring.
type scriptedEmbedder struct {
	failSubstring string
	calls         int
}

func (e *scriptedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	for _, txt := range texts {
		if e.failSubstring != "" && strings.Contains(txt, e.failSubstring) {
			return nil, errors.New("embedding backend unavailable")
		}
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

// failingStore delegates to an inner store until failAfter upserts have
// succeeded, then errors.
type failingStore struct {
	rag.VectorStore
	failAfter int
	upserts   int
}

func (f *failingStore) Upsert(ctx context.Context, docs []rag.Document, embeddings [][]float32) error {
	if f.upserts >= f.failAfter {
		return errors.New("qdrant unreachable")
	}
	f.upserts++
	return f.VectorStore.Upsert(ctx, docs, embeddings)
}

// memLedger records calls in memory.
type memLedger struct {
	recs []store.IndexedDocument
}

func (l *memLedger) Record(_ context.Context, doc store.IndexedDocument) error {
	l.recs = append(l.recs, doc)
	return nil
}

func (l *memLedger) List(context.Context) ([]store.IndexedDocument, error) { return l.recs, nil }
func (l *memLedger) Stats(context.Context) (store.Stats, error)           { return store.Stats{}, nil }
func (l *memLedger) Close() error                                         { return nil }

// writeTextDoc drops a three-paragraph plain-text document into dir. Each
// paragraph has at least three words so a MinWords of 3 keeps them unmerged.
func writeTextDoc(t *testing.T, dir, name string, paragraphs []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(paragraphs, "\n\n")), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

var samplePledgeParagraphs = []string{
	"The earth is but one country.",
	"So powerful is the light of unity.",
	"Let your vision be world embracing.",
}

func TestIngestFile_StoresChunks(t *testing.T) {
	t.Parallel()

	memStore := rag.NewMemoryStore()
	p, err := NewPipeline(&scriptedEmbedder{}, memStore, nil, nil, &Config{MinWords: 3}, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	path := writeTextDoc(t, t.TempDir(), "hidden-words.txt", samplePledgeParagraphs)
	res, err := p.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}

	if res.Chunks != 3 || res.Stored != 3 || res.Skipped != 0 {
		t.Errorf("result = %+v, want 3 chunks, 3 stored, 0 skipped", res)
	}
	if res.Author != "Bahá'u'lláh" {
		t.Errorf("author = %q, want Bahá'u'lláh", res.Author)
	}

	n, err := memStore.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Fatalf("store holds %d docs, want 3", n)
	}

	docs, err := memStore.Search(context.Background(), []float32{1, 0, 0}, 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	ids := make(map[string]rag.Document, len(docs))
	for _, d := range docs {
		ids[d.ID] = d
	}
	first, ok := ids["hidden-words_para_0"]
	if !ok {
		t.Fatalf("missing chunk hidden-words_para_0; got ids %v", keys(ids))
	}
	if first.Text != samplePledgeParagraphs[0] {
		t.Errorf("chunk text = %q, want %q", first.Text, samplePledgeParagraphs[0])
	}
	if first.SourceFile != "hidden-words.txt" || first.ParagraphID != "0" || first.Author != "Bahá'u'lláh" {
		t.Errorf("chunk metadata = %+v", first)
	}
}

func TestIngestFile_SkipsFailedEmbeddings(t *testing.T) {
	t.Parallel()

	memStore := rag.NewMemoryStore()
	emb := &scriptedEmbedder{failSubstring: "light of unity"}
	p, err := NewPipeline(emb, memStore, nil, nil, &Config{MinWords: 3}, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	path := writeTextDoc(t, t.TempDir(), "gleanings-writings-bahaullah.txt", samplePledgeParagraphs)
	res, err := p.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestFile should continue past per-chunk failures, got %v", err)
	}

	if res.Skipped != 1 || res.Stored != 2 {
		t.Errorf("result = %+v, want 1 skipped, 2 stored", res)
	}
	n, _ := memStore.Count(context.Background())
	if n != 2 {
		t.Errorf("store holds %d docs, want 2", n)
	}
}

func TestIngestFile_StoreFailureAborts(t *testing.T) {
	t.Parallel()

	inner := rag.NewMemoryStore()
	fs := &failingStore{VectorStore: inner, failAfter: 1}
	// BatchSize 1 so the second batch hits the failure.
	p, err := NewPipeline(&scriptedEmbedder{}, fs, nil, nil, &Config{MinWords: 3, BatchSize: 1}, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	path := writeTextDoc(t, t.TempDir(), "tablets-bahaullah.txt", samplePledgeParagraphs)
	res, err := p.IngestFile(context.Background(), path)
	if err == nil {
		t.Fatal("want error when the store fails mid-document")
	}

	// The first batch stays stored — no rollback — and no further batches run.
	if res.Stored != 1 {
		t.Errorf("Stored = %d, want 1", res.Stored)
	}
	n, _ := inner.Count(context.Background())
	if n != 1 {
		t.Errorf("store holds %d docs after abort, want 1", n)
	}

	// The source file must not move on failure.
	if _, statErr := os.Stat(path); statErr != nil {
		t.Errorf("source file should remain in place: %v", statErr)
	}
}

func TestIngestFile_MovesFileAndRecordsLedger(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	indexed := filepath.Join(dir, "indexed")
	ledger := &memLedger{}
	p, err := NewPipeline(&scriptedEmbedder{}, rag.NewMemoryStore(), ledger, nil,
		&Config{MinWords: 3, IndexedDir: indexed}, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	path := writeTextDoc(t, dir, "kitab-i-iqan.txt", samplePledgeParagraphs)
	if _, err := p.IngestFile(context.Background(), path); err != nil {
		t.Fatalf("IngestFile: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("source file should have been moved out of the input dir")
	}
	if _, err := os.Stat(filepath.Join(indexed, "kitab-i-iqan.txt")); err != nil {
		t.Errorf("moved file missing from indexed dir: %v", err)
	}

	if len(ledger.recs) != 1 {
		t.Fatalf("ledger has %d records, want 1", len(ledger.recs))
	}
	rec := ledger.recs[0]
	if rec.SourceFile != "kitab-i-iqan.txt" || rec.Author != "Bahá'u'lláh" || rec.ChunkCount != 3 {
		t.Errorf("ledger record = %+v", rec)
	}
	if rec.IndexedAt.IsZero() {
		t.Error("ledger record has zero IndexedAt")
	}
}

func TestNewPipeline_RequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := NewPipeline(nil, rag.NewMemoryStore(), nil, nil, nil, nil); err == nil {
		t.Error("want error for nil embedder")
	}
	if _, err := NewPipeline(&scriptedEmbedder{}, nil, nil, nil, nil, nil); err == nil {
		t.Error("want error for nil store")
	}
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b.docx", "a.txt", "notes.md", "skip.pdf", ".env"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.docx"),
		filepath.Join(dir, "notes.md"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Discover = %v, want %v", got, want)
	}
}

func keys(m map[string]rag.Document) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
