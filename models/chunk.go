package models

import "time"

// Chunk is a stored fragment of a legal document with its embedding.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Content    string    `json:"content"`
	ChunkIndex int       `json:"chunk_index"`
	Embedding  []float32 `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScoredChunk is a chunk returned by hybrid search, annotated with its
// fusion score, component ranks, and the jurisdiction it was searched
// under ("SK", "EU", or "" when the search was not jurisdiction-scoped).
type ScoredChunk struct {
	ID           string  `json:"id"`
	DocumentID   string  `json:"document_id"`
	Content      string  `json:"content"`
	Title        string  `json:"title"`
	Jurisdiction string  `json:"jurisdiction"`
	SourceRef    string  `json:"source_ref"`
	RRFScore     float64 `json:"rrf_score"`
	VectorRank   int     `json:"vector_rank,omitempty"`
	FTSRank      int     `json:"fts_rank,omitempty"`
}
