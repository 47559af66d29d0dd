// ABOUTME: Document chunk persistence for SQLite
// ABOUTME: Inserts records with packed embeddings and scans them back in recency order
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harper/docrag/internal/models"
)

// DocumentStore handles document chunk persistence
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Insert stores rec, assigns its ID, and returns it
func (s *DocumentStore) Insert(ctx context.Context, rec *models.DocumentRecord) (int64, error) {
	if err := rec.Embedding.Validate(); err != nil {
		return 0, fmt.Errorf("refusing to store record: %w", err)
	}
	rec.ApplyDefaults()

	var page sql.NullInt64
	if rec.PageNumber != nil {
		page = sql.NullInt64{Int64: int64(*rec.PageNumber), Valid: true}
	}

	s.db.writeMu.Lock()
	defer s.db.writeMu.Unlock()

	res, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO documents (content, embedding, dimensions, source_file, source_type,
			chunk_index, page_number, total_chunks, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Content, rec.Embedding.Bytes(), len(rec.Embedding), rec.SourceFile, string(rec.SourceType),
		rec.ChunkIndex, page, rec.TotalChunks, rec.Metadata, rec.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to insert document: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read document id: %w", err)
	}
	rec.ID = id
	return id, nil
}

// ScanAll returns every stored record, newest first
func (s *DocumentStore) ScanAll(ctx context.Context) ([]models.DocumentRecord, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, content, embedding, source_file, source_type, chunk_index,
			page_number, total_chunks, metadata, created_at
		FROM documents
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.DocumentRecord
	for rows.Next() {
		var (
			rec        models.DocumentRecord
			blob       []byte
			sourceType string
			page       sql.NullInt64
			created    string
		)
		if err := rows.Scan(&rec.ID, &rec.Content, &blob, &rec.SourceFile, &sourceType,
			&rec.ChunkIndex, &page, &rec.TotalChunks, &rec.Metadata, &created); err != nil {
			return nil, fmt.Errorf("failed to read document row: %w", err)
		}

		vec, err := models.VectorFromBytes(blob)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", rec.ID, err)
		}
		rec.Embedding = vec
		rec.SourceType = models.SourceType(sourceType)
		if page.Valid {
			p := int(page.Int64)
			rec.PageNumber = &p
		}
		if t, err := time.Parse(timeLayout, created); err == nil {
			rec.CreatedAt = t
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

// Count returns the number of stored records
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// Close closes the underlying database
func (s *DocumentStore) Close() error {
	return s.db.Close()
}
