package models

import "time"

// Document is an ingested legal text (statute, decision, guideline).
type Document struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Jurisdiction string    `json:"jurisdiction"`
	SourceRef    string    `json:"source_ref"`
	DocType      string    `json:"doc_type"`
	StoragePath  string    `json:"storage_path,omitempty"`
	ChunkCount   int       `json:"chunk_count"`
	CreatedAt    time.Time `json:"created_at"`
}
