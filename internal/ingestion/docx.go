package ingestion

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadParagraphs extracts the ordered paragraph texts from a source document.
// Supported formats: .docx (WordprocessingML paragraphs), .txt and .md
// (blank-line separated paragraphs). Paragraphs are returned raw — trimming
// and empty-filtering happen downstream.
func ReadParagraphs(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return readDocx(path)
	case ".txt", ".md":
		return readText(path)
	default:
		return nil, fmt.Errorf("ingestion: unsupported document format %q", filepath.Ext(path))
	}
}

// readDocx opens the .docx ZIP container and pulls the paragraph texts out of
// word/document.xml. Each <w:p> element becomes one paragraph; the text is the
// concatenation of its <w:t> runs in document order. Formatting, tables, and
// headers are ignored.
func readDocx(path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("ingestion: open docx %s: %w", path, err)
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("ingestion: %s has no word/document.xml — not a .docx file?", path)
	}

	rc, err := doc.Open()
	if err != nil {
		return nil, fmt.Errorf("ingestion: open document.xml in %s: %w", path, err)
	}
	defer rc.Close()

	return parseDocumentXML(rc)
}

// parseDocumentXML streams the WordprocessingML body and collects one string
// per <w:p>. Kept separate from the ZIP handling so tests can feed XML
// directly.
func parseDocumentXML(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		buf        strings.Builder
		inP        bool
		inT        bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingestion: parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inP = true
				buf.Reset()
			case "t":
				inT = inP
			case "tab":
				if inP {
					buf.WriteByte(' ')
				}
			}
		case xml.CharData:
			if inT {
				buf.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inT = false
			case "p":
				if inP {
					paragraphs = append(paragraphs, buf.String())
					inP = false
				}
			}
		}
	}
	return paragraphs, nil
}

// readText reads a plain-text or markdown file and splits it into paragraphs
// at blank lines. Consecutive non-blank lines are joined with a single space.
func readText(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingestion: read %s: %w", path, err)
	}

	var (
		paragraphs []string
		current    []string
	)
	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = current[:0]
		}
	}
	for _, line := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, strings.TrimSpace(line))
	}
	flush()
	return paragraphs, nil
}
