// Package pipeline implements the chat answer pipeline (route,
// retrieve, generate, verify) and the judge case-analysis pipeline.
package pipeline

import (
	"context"

	"legislative-ai-assist/llm"
	"legislative-ai-assist/models"
	"legislative-ai-assist/scraper"
)

// ModelCaller sends chat exchanges to a configured model role.
type ModelCaller interface {
	Call(ctx context.Context, role, system string, messages []llm.Message, opts ...llm.CallOption) (*llm.Result, error)
}

// Embedder produces embedding vectors for query text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkSearcher runs hybrid search over the document store.
type ChunkSearcher interface {
	HybridSearch(ctx context.Context, embedding []float32, query, jurisdiction string, limit int, vectorWeight, ftsWeight float64, rrfK int) ([]models.ScoredChunk, error)
}

// CaseSearcher retrieves live court cases from external sources.
type CaseSearcher interface {
	SearchCases(ctx context.Context, query, jurisdiction, dateFrom, dateTo string, limit int) []models.ExternalCase
}

// SourceSearcher queries the per-source external search adapters.
type SourceSearcher interface {
	SearchAllSources(ctx context.Context, query string, maxPerSource int, includeSK, includeEC, includeCJEU bool) map[string]scraper.Result
}

// Auditor records model interactions. Implementations must never fail
// the calling request.
type Auditor interface {
	Log(ctx context.Context, record models.AuditRecord)
}

// LanguageDetector identifies the language of user input.
type LanguageDetector interface {
	Detect(text string) string
}
