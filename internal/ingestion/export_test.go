package ingestion

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractChunks(t *testing.T) {
	t.Parallel()

	path := writeTextDoc(t, t.TempDir(), "hidden-words.txt", samplePledgeParagraphs)
	records, err := ExtractChunks(path, 3, nil)
	if err != nil {
		t.Fatalf("ExtractChunks: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	first := records[0]
	if first.DocumentID != "hidden-words_para_0" {
		t.Errorf("DocumentID = %q, want hidden-words_para_0", first.DocumentID)
	}
	if first.SourceFile != "hidden-words.txt" || first.ParagraphID != "0" {
		t.Errorf("record = %+v", first)
	}
	if first.Author != "Bahá'u'lláh" {
		t.Errorf("Author = %q, want Bahá'u'lláh", first.Author)
	}
}

func TestExtractChunks_MergedRange(t *testing.T) {
	t.Parallel()

	// Two short paragraphs merge under a high minimum; the record must carry
	// the merged ID and range.
	path := writeTextDoc(t, t.TempDir(), "prayers-meditations.txt", []string{
		"Short one.",
		"Short two.",
	})
	records, err := ExtractChunks(path, 50, nil)
	if err != nil {
		t.Fatalf("ExtractChunks: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 merged chunk", len(records))
	}
	if records[0].DocumentID != "prayers-meditations_para_0-1" {
		t.Errorf("DocumentID = %q, want prayers-meditations_para_0-1", records[0].DocumentID)
	}
	if records[0].ParagraphID != "0-1" {
		t.Errorf("ParagraphID = %q, want 0-1", records[0].ParagraphID)
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "chunks.json")
	records := []ChunkRecord{
		{DocumentID: "doc_para_0", Text: "hello", SourceFile: "doc.txt", ParagraphID: "0", Author: "Other"},
	}
	if err := WriteJSON(out, records); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var got []ChunkRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if len(got) != 1 || got[0] != records[0] {
		t.Errorf("round-trip = %+v, want %+v", got, records)
	}
}

func TestWriteJSON_EmptyIsArray(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "empty.json")
	if err := WriteJSON(out, nil); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		t.Errorf("empty export = %q, want a JSON array", data)
	}
}
