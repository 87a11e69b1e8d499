// Package catalog provides the SQLite-backed document registry. The vector
// store owns chunks; the catalog owns document summaries (filename, upload
// time, chunk count, stored file path) and gives listDocuments a stable
// ordering without scanning chunk payloads. Rows survive process restarts.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// ErrNotFound is returned when a document id has no catalog row.
var ErrNotFound = errors.New("catalog: document not found")

// Document is one registered document.
type Document struct {
	// DocID is the short globally-unique document identifier.
	DocID string `json:"doc_id"`
	// Filename is the display name of the uploaded file.
	Filename string `json:"filename"`
	// UploadedAt is the ingestion timestamp.
	UploadedAt time.Time `json:"uploaded_at"`
	// ChunkCount is the number of chunks stored for this document.
	ChunkCount int `json:"chunk_count"`
	// StoredPath is the durable location of the original PDF.
	StoredPath string `json:"-"`
}

// Catalog is a document registry backed by a local SQLite database.
// It is safe for concurrent use.
type Catalog struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// Open opens (or creates) a Catalog at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*Catalog, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	c := &Catalog{db: db}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// migrate creates the schema if it does not already exist.
func (c *Catalog) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
    doc_id       TEXT    PRIMARY KEY,
    filename     TEXT    NOT NULL,
    uploaded_at  INTEGER NOT NULL,  -- Unix timestamp (seconds)
    chunk_count  INTEGER NOT NULL,
    stored_path  TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_uploaded
    ON documents (uploaded_at, doc_id);
`
	if _, err := c.db.Exec(ddl); err != nil {
		return fmt.Errorf("catalog: migrate: %w", err)
	}
	return nil
}

// Insert registers a document. The caller writes the catalog row only after
// the document's chunks are fully persisted, so a listed document is always
// complete.
func (c *Catalog) Insert(ctx context.Context, doc Document) error {
	const q = `INSERT INTO documents (doc_id, filename, uploaded_at, chunk_count, stored_path) VALUES (?, ?, ?, ?, ?)`
	_, err := c.db.ExecContext(ctx, q, doc.DocID, doc.Filename, doc.UploadedAt.Unix(), doc.ChunkCount, doc.StoredPath)
	if err != nil {
		return fmt.Errorf("catalog: insert %s: %w", doc.DocID, err)
	}
	return nil
}

// Get returns the document registered under docID, or ErrNotFound.
func (c *Catalog) Get(ctx context.Context, docID string) (Document, error) {
	const q = `SELECT doc_id, filename, uploaded_at, chunk_count, stored_path FROM documents WHERE doc_id = ?`

	var doc Document
	var ts int64
	err := c.db.QueryRowContext(ctx, q, docID).Scan(&doc.DocID, &doc.Filename, &ts, &doc.ChunkCount, &doc.StoredPath)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("catalog: get %s: %w", docID, err)
	}
	doc.UploadedAt = time.Unix(ts, 0).UTC()
	return doc, nil
}

// List returns all documents ordered by upload time ascending, ties broken
// by document id. This is the listDocuments ordering contract.
func (c *Catalog) List(ctx context.Context) ([]Document, error) {
	const q = `SELECT doc_id, filename, uploaded_at, chunk_count, stored_path FROM documents ORDER BY uploaded_at ASC, doc_id ASC`

	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var ts int64
		if err := rows.Scan(&doc.DocID, &doc.Filename, &ts, &doc.ChunkCount, &doc.StoredPath); err != nil {
			return nil, fmt.Errorf("catalog: list scan: %w", err)
		}
		doc.UploadedAt = time.Unix(ts, 0).UTC()
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list rows: %w", err)
	}
	return docs, nil
}

// Delete removes the row for docID. Returns ErrNotFound when no row existed.
func (c *Catalog) Delete(ctx context.Context, docID string) error {
	const q = `DELETE FROM documents WHERE doc_id = ?`

	res, err := c.db.ExecContext(ctx, q, docID)
	if err != nil {
		return fmt.Errorf("catalog: delete %s: %w", docID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog: delete %s: %w", docID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count reports the number of registered documents.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("catalog: count: %w", err)
	}
	return n, nil
}

// Ping reports whether the underlying database is reachable. Used by the
// server's readiness probe.
func (c *Catalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Name returns the dependency label used in readiness responses.
func (c *Catalog) Name() string { return "catalog" }

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
