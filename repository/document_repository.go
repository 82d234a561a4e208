package repository

import (
	"context"
	"errors"
	"fmt"

	"legislative-ai-assist/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDocumentNotFound = errors.New("document not found")

// DocumentRepository handles database operations for documents.
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a document and fills in its generated ID and timestamp.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO documents (id, title, jurisdiction, source_ref, doc_type, storage_path, chunk_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		doc.ID, doc.Title, doc.Jurisdiction, doc.SourceRef, doc.DocType, doc.StoragePath, doc.ChunkCount,
	).Scan(&doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// GetByID fetches a single document.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := r.db.QueryRow(ctx, `
		SELECT id, title, jurisdiction, source_ref, doc_type, storage_path, chunk_count, created_at
		FROM documents WHERE id = $1`, id,
	).Scan(&doc.ID, &doc.Title, &doc.Jurisdiction, &doc.SourceRef, &doc.DocType, &doc.StoragePath, &doc.ChunkCount, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// List returns documents newest first, optionally filtered by jurisdiction.
func (r *DocumentRepository) List(ctx context.Context, jurisdiction string, limit, offset int) ([]*models.Document, error) {
	query := `
		SELECT id, title, jurisdiction, source_ref, doc_type, storage_path, chunk_count, created_at
		FROM documents`
	args := []interface{}{limit, offset}
	if jurisdiction != "" {
		query += ` WHERE jurisdiction = $3`
		args = append(args, jurisdiction)
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Jurisdiction, &doc.SourceRef, &doc.DocType, &doc.StoragePath, &doc.ChunkCount, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// UpdateChunkCount records how many chunks a document was split into.
func (r *DocumentRepository) UpdateChunkCount(ctx context.Context, id string, count int) error {
	tag, err := r.db.Exec(ctx, `UPDATE documents SET chunk_count = $2 WHERE id = $1`, id, count)
	if err != nil {
		return fmt.Errorf("failed to update chunk count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// Delete removes a document. Its chunks are removed by the schema's
// ON DELETE CASCADE.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}
