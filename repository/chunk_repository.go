package repository

import (
	"context"
	"fmt"
	"strings"

	"legislative-ai-assist/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChunkRepository handles database operations for document chunks.
type ChunkRepository struct {
	db *pgxpool.Pool
}

// NewChunkRepository creates a new chunk repository
func NewChunkRepository(db *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float32) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// InsertChunks stores the chunks of one document with their embeddings.
func (r *ChunkRepository) InsertChunks(ctx context.Context, documentID string, chunks []models.Chunk) error {
	for _, chunk := range chunks {
		id := chunk.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err := r.db.Exec(ctx, `
			INSERT INTO chunks (id, document_id, content, chunk_index, embedding)
			VALUES ($1, $2, $3, $4, $5::vector)`,
			id, documentID, chunk.Content, chunk.ChunkIndex, formatVector(chunk.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunk.ChunkIndex, err)
		}
	}
	return nil
}

// DeleteByDocument removes all chunks belonging to a document.
func (r *ChunkRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

// HybridSearch combines vector similarity and Postgres full-text search
// using reciprocal rank fusion. Both rankings are computed over the top
// candidates, joined, and fused with:
//
//	rrf_score = vector_weight/(rrf_k + vector_rank) + fts_weight/(rrf_k + fts_rank)
//
// jurisdiction filters results to "SK" or "EU"; empty searches all.
func (r *ChunkRepository) HybridSearch(
	ctx context.Context,
	embedding []float32,
	query string,
	jurisdiction string,
	limit int,
	vectorWeight, ftsWeight float64,
	rrfK int,
) ([]models.ScoredChunk, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("empty query embedding")
	}

	vectorStr := formatVector(embedding)
	candidateLimit := limit * 4

	jurisdictionFilter := ""
	args := []interface{}{vectorStr, query, candidateLimit, vectorWeight, ftsWeight, rrfK, limit}
	if jurisdiction != "" {
		jurisdictionFilter = "AND d.jurisdiction = $8"
		args = append(args, jurisdiction)
	}

	sql := fmt.Sprintf(`
		WITH vector_ranked AS (
			SELECT c.id, ROW_NUMBER() OVER (ORDER BY c.embedding <=> $1::vector) AS rank
			FROM chunks c
			JOIN documents d ON d.id = c.document_id
			WHERE true %s
			ORDER BY c.embedding <=> $1::vector
			LIMIT $3
		),
		fts_ranked AS (
			SELECT c.id, ROW_NUMBER() OVER (
				ORDER BY ts_rank(to_tsvector('simple', c.content), websearch_to_tsquery('simple', $2)) DESC
			) AS rank
			FROM chunks c
			JOIN documents d ON d.id = c.document_id
			WHERE to_tsvector('simple', c.content) @@ websearch_to_tsquery('simple', $2) %s
			LIMIT $3
		),
		fused AS (
			SELECT
				COALESCE(v.id, f.id) AS id,
				COALESCE($4 / ($6 + v.rank), 0) + COALESCE($5 / ($6 + f.rank), 0) AS rrf_score,
				COALESCE(v.rank, 0) AS vector_rank,
				COALESCE(f.rank, 0) AS fts_rank
			FROM vector_ranked v
			FULL OUTER JOIN fts_ranked f ON v.id = f.id
		)
		SELECT
			c.id, c.document_id, c.content,
			d.title, d.jurisdiction, d.source_ref,
			fused.rrf_score, fused.vector_rank, fused.fts_rank
		FROM fused
		JOIN chunks c ON c.id = fused.id
		JOIN documents d ON d.id = c.document_id
		ORDER BY fused.rrf_score DESC
		LIMIT $7`, jurisdictionFilter, jurisdictionFilter)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("hybrid search failed: %w", err)
	}
	defer rows.Close()

	var results []models.ScoredChunk
	for rows.Next() {
		var sc models.ScoredChunk
		if err := rows.Scan(
			&sc.ID, &sc.DocumentID, &sc.Content,
			&sc.Title, &sc.Jurisdiction, &sc.SourceRef,
			&sc.RRFScore, &sc.VectorRank, &sc.FTSRank,
		); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, sc)
	}
	return results, rows.Err()
}
