package store

import (
	"context"
	"testing"
	"time"
)

func openTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	t.Parallel()
	s := openTestLedger(t)
	ctx := context.Background()

	docs := []IndexedDocument{
		{SourceFile: "kitab-i-iqan.docx", Author: "Bahá'u'lláh", ChunkCount: 120, IndexedAt: time.Unix(1000, 0)},
		{SourceFile: "some-answered-questions.docx", Author: "'Abdu'l-Bahá", ChunkCount: 85, IndexedAt: time.Unix(2000, 0)},
	}
	for _, d := range docs {
		if err := s.Record(ctx, d); err != nil {
			t.Fatalf("Record(%s): %v", d.SourceFile, err)
		}
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List returned %d docs, want 2", len(got))
	}
	// Most recently indexed first.
	if got[0].SourceFile != "some-answered-questions.docx" {
		t.Errorf("first doc = %s, want some-answered-questions.docx", got[0].SourceFile)
	}
	if got[1].Author != "Bahá'u'lláh" || got[1].ChunkCount != 120 {
		t.Errorf("second doc = %+v, want Bahá'u'lláh / 120 chunks", got[1])
	}
}

func TestRecordReplacesOnReingest(t *testing.T) {
	t.Parallel()
	s := openTestLedger(t)
	ctx := context.Background()

	first := IndexedDocument{SourceFile: "hidden-words.docx", Author: "Bahá'u'lláh", ChunkCount: 40}
	if err := s.Record(ctx, first); err != nil {
		t.Fatalf("Record: %v", err)
	}
	second := first
	second.ChunkCount = 42
	if err := s.Record(ctx, second); err != nil {
		t.Fatalf("Record (reingest): %v", err)
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List returned %d docs after reingest, want 1", len(got))
	}
	if got[0].ChunkCount != 42 {
		t.Errorf("ChunkCount = %d, want 42", got[0].ChunkCount)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()
	s := openTestLedger(t)
	ctx := context.Background()

	seed := []IndexedDocument{
		{SourceFile: "kitab-i-iqan.docx", Author: "Bahá'u'lláh", ChunkCount: 120},
		{SourceFile: "hidden-words.docx", Author: "Bahá'u'lláh", ChunkCount: 40},
		{SourceFile: "1999_01_01_message.docx", Author: "Universal House of Justice", ChunkCount: 7},
	}
	for _, d := range seed {
		if err := s.Record(ctx, d); err != nil {
			t.Fatalf("Record(%s): %v", d.SourceFile, err)
		}
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Documents != 3 {
		t.Errorf("Documents = %d, want 3", st.Documents)
	}
	if st.Chunks != 167 {
		t.Errorf("Chunks = %d, want 167", st.Chunks)
	}
	if st.ByAuthor["Bahá'u'lláh"] != 2 {
		t.Errorf("ByAuthor[Bahá'u'lláh] = %d, want 2", st.ByAuthor["Bahá'u'lláh"])
	}
	if st.ByAuthor["Universal House of Justice"] != 1 {
		t.Errorf("ByAuthor[UHJ] = %d, want 1", st.ByAuthor["Universal House of Justice"])
	}
}

func TestStatsEmpty(t *testing.T) {
	t.Parallel()
	s := openTestLedger(t)

	st, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Documents != 0 || st.Chunks != 0 {
		t.Errorf("empty ledger stats = %+v, want zeros", st)
	}
	if len(st.ByAuthor) != 0 {
		t.Errorf("ByAuthor = %v, want empty", st.ByAuthor)
	}
}

func TestDefaultDBPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	want := home + "/.insight/ledger.db"
	if path != want {
		t.Errorf("DefaultDBPath = %s, want %s", path, want)
	}
}
