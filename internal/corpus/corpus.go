// Package corpus implements the paragraph segmentation used by the ingestion
// pipeline. Documents arrive as an ordered sequence of raw paragraph strings;
// Extract pairs each non-empty paragraph with its original position, and Merge
// greedily joins consecutive short paragraphs into chunks that meet a minimum
// word count. Short liturgical paragraphs embed poorly on their own — merging
// toward a minimum length produces more self-contained units while the index
// range preserves citation granularity.
//
// Everything in this package is pure and allocation-only: no I/O, no shared
// state. It may be called concurrently across independent documents.
package corpus

import (
	"fmt"
	"strings"
)

// RawParagraph is one extracted, non-empty paragraph of a source document.
type RawParagraph struct {
	// Text is the trimmed paragraph text. Never empty.
	Text string

	// OriginalIndex is the paragraph's position in the document's original
	// (pre-filter) paragraph sequence. Strictly increasing across a document.
	OriginalIndex int
}

// Chunk is a contiguous run of one or more source paragraphs joined into a
// single embeddable unit. Chunks from one document partition its paragraphs:
// every RawParagraph belongs to exactly one Chunk and index ranges never
// overlap.
type Chunk struct {
	// Text is the space-joined text of the constituent paragraphs.
	Text string

	// StartIndex is the OriginalIndex of the first constituent paragraph.
	StartIndex int

	// EndIndex is the OriginalIndex of the last constituent paragraph.
	// StartIndex == EndIndex for single-paragraph chunks.
	EndIndex int

	// SourceID is the stable per-chunk identifier encoding the document stem
	// and the original paragraph index range. Unique within a document.
	SourceID string

	// Author is the author category assigned to the source document.
	// Filled in by the caller (see the library package); Merge leaves it empty.
	Author string
}

// Extract converts a document's raw paragraph strings into RawParagraphs.
// Each input is trimmed; whitespace-only entries are dropped. OriginalIndex
// records the position in the input slice, so downstream index ranges always
// refer to the document's own paragraph numbering.
func Extract(raw []string) []RawParagraph {
	out := make([]RawParagraph, 0, len(raw))
	for i, s := range raw {
		text := strings.TrimSpace(s)
		if text == "" {
			continue
		}
		out = append(out, RawParagraph{Text: text, OriginalIndex: i})
	}
	return out
}

// Merge joins consecutive short paragraphs into chunks of at least minWords
// whitespace-separated tokens. The scan is a single greedy left-to-right pass
// with no backtracking: a chunk opens at the current paragraph and absorbs
// following paragraphs until the accumulated buffer reaches minWords or the
// document ends. The word count is recomputed against the full accumulated
// buffer after every append.
//
// The final chunk may stay under minWords when no further paragraphs exist to
// absorb; it is emitted as-is, never dropped and never merged backward.
//
// docStem names the source document (filename without extension) and seeds
// each chunk's SourceID. minWords must be positive.
func Merge(docStem string, paras []RawParagraph, minWords int) ([]Chunk, error) {
	if minWords <= 0 {
		return nil, fmt.Errorf("corpus: minWords must be positive, got %d", minWords)
	}
	if len(paras) == 0 {
		return nil, nil
	}

	chunks := make([]Chunk, 0, len(paras))
	i := 0
	for i < len(paras) {
		var buf strings.Builder
		buf.WriteString(paras[i].Text)
		start := paras[i].OriginalIndex
		end := start

		j := i + 1
		for countWords(buf.String()) < minWords && j < len(paras) {
			buf.WriteString(" ")
			buf.WriteString(paras[j].Text)
			end = paras[j].OriginalIndex
			j++
		}

		chunks = append(chunks, Chunk{
			Text:       buf.String(),
			StartIndex: start,
			EndIndex:   end,
			SourceID:   SourceID(docStem, start, end),
		})
		i = j
	}
	return chunks, nil
}

// SourceID builds the stable chunk identifier for the given document stem and
// paragraph index range. Single-paragraph chunks omit the range suffix.
func SourceID(docStem string, start, end int) string {
	if start == end {
		return fmt.Sprintf("%s_para_%d", docStem, start)
	}
	return fmt.Sprintf("%s_para_%d-%d", docStem, start, end)
}

// ParagraphRange formats a chunk's index range the way it is stored in vector
// payload metadata and shown in citations: "3" for a single paragraph,
// "3-7" for a merged run.
func (c Chunk) ParagraphRange() string {
	if c.StartIndex == c.EndIndex {
		return fmt.Sprintf("%d", c.StartIndex)
	}
	return fmt.Sprintf("%d-%d", c.StartIndex, c.EndIndex)
}

// WordCount returns the whitespace-token count of the chunk text.
func (c Chunk) WordCount() int {
	return countWords(c.Text)
}

// countWords counts whitespace-separated tokens.
func countWords(s string) int {
	return len(strings.Fields(s))
}
