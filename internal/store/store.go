// Package store provides a SQLite-backed ledger of indexed documents. Each
// successfully ingested source file gets one row recording its author label
// and chunk count. The ledger backs the `insight stats` command and the
// GET /api/documents endpoint, and survives server restarts.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// IndexedDocument is one ingested source file.
type IndexedDocument struct {
	// SourceFile is the original filename (base name, not full path).
	SourceFile string
	// Author is the author label assigned at ingestion time.
	Author string
	// ChunkCount is the number of chunks upserted for this file.
	ChunkCount int
	// IndexedAt is when ingestion of this file completed.
	IndexedAt time.Time
}

// Stats summarizes the ledger for the stats command and endpoint.
type Stats struct {
	// Documents is the number of indexed source files.
	Documents int
	// Chunks is the total chunk count across all files.
	Chunks int
	// ByAuthor maps author label to indexed document count.
	ByAuthor map[string]int
}

// Ledger persists and retrieves the indexed-document records. Implementations
// must be safe for concurrent use.
type Ledger interface {
	// Record upserts the row for doc.SourceFile. Re-ingesting a file replaces
	// its previous entry rather than duplicating it.
	Record(ctx context.Context, doc IndexedDocument) error
	// List returns all indexed documents ordered by most recently indexed first.
	List(ctx context.Context) ([]IndexedDocument, error)
	// Stats aggregates document and chunk counts from the ledger.
	Stats(ctx context.Context) (Stats, error)
	// Close releases any resources held by the ledger.
	Close() error
}

// SQLiteLedger is a Ledger backed by a local SQLite database.
type SQLiteLedger struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the ledger database.
// It resolves to ~/.insight/ledger.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".insight")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "ledger.db"), nil
}

// Open opens (or creates) a SQLiteLedger at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteLedger, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteLedger{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteLedger) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS indexed_documents (
    source_file  TEXT    PRIMARY KEY,
    author       TEXT    NOT NULL,
    chunk_count  INTEGER NOT NULL,
    indexed_at   INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_indexed_documents_author
    ON indexed_documents (author);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Record upserts the row for doc.SourceFile.
func (s *SQLiteLedger) Record(ctx context.Context, doc IndexedDocument) error {
	const q = `
INSERT INTO indexed_documents (source_file, author, chunk_count, indexed_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(source_file) DO UPDATE SET
    author      = excluded.author,
    chunk_count = excluded.chunk_count,
    indexed_at  = excluded.indexed_at`

	at := doc.IndexedAt
	if at.IsZero() {
		at = time.Now()
	}
	if _, err := s.db.ExecContext(ctx, q, doc.SourceFile, doc.Author, doc.ChunkCount, at.Unix()); err != nil {
		return fmt.Errorf("store: record %s: %w", doc.SourceFile, err)
	}
	return nil
}

// List returns all indexed documents, most recently indexed first.
func (s *SQLiteLedger) List(ctx context.Context) ([]IndexedDocument, error) {
	const q = `
SELECT source_file, author, chunk_count, indexed_at
FROM   indexed_documents
ORDER  BY indexed_at DESC, source_file ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var docs []IndexedDocument
	for rows.Next() {
		var d IndexedDocument
		var ts int64
		if err := rows.Scan(&d.SourceFile, &d.Author, &d.ChunkCount, &ts); err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		d.IndexedAt = time.Unix(ts, 0)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rows: %w", err)
	}
	return docs, nil
}

// Stats aggregates document and chunk counts from the ledger.
func (s *SQLiteLedger) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByAuthor: make(map[string]int)}

	const totals = `SELECT COUNT(*), COALESCE(SUM(chunk_count), 0) FROM indexed_documents`
	if err := s.db.QueryRowContext(ctx, totals).Scan(&st.Documents, &st.Chunks); err != nil {
		return Stats{}, fmt.Errorf("store: stats totals: %w", err)
	}

	const byAuthor = `SELECT author, COUNT(*) FROM indexed_documents GROUP BY author`
	rows, err := s.db.QueryContext(ctx, byAuthor)
	if err != nil {
		return Stats{}, fmt.Errorf("store: stats by author: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var author string
		var n int
		if err := rows.Scan(&author, &n); err != nil {
			return Stats{}, fmt.Errorf("store: stats scan: %w", err)
		}
		st.ByAuthor[author] = n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("store: stats rows: %w", err)
	}
	return st, nil
}

// Close releases the database connection pool.
func (s *SQLiteLedger) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
