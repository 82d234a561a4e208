package service

import (
	"context"
	"errors"
	"fmt"

	"legislative-ai-assist/config"
	"legislative-ai-assist/llm"
	"legislative-ai-assist/pipeline"
	"legislative-ai-assist/repository"
)

var ErrEmptyQuery = errors.New("query must not be empty")

// SearchService exposes hybrid document search directly, without the
// chat pipeline around it.
type SearchService struct {
	chunkRepo *repository.ChunkRepository
	llmClient *llm.Client
	detector  pipeline.LanguageDetector
	search    config.SearchConfig
}

// SearchServiceOption is a functional option for SearchService
type SearchServiceOption func(*SearchService)

// SearchWithChunkRepository sets the chunk repository
func SearchWithChunkRepository(repo *repository.ChunkRepository) SearchServiceOption {
	return func(s *SearchService) {
		s.chunkRepo = repo
	}
}

// SearchWithLLMClient sets the embedding client
func SearchWithLLMClient(client *llm.Client) SearchServiceOption {
	return func(s *SearchService) {
		s.llmClient = client
	}
}

// SearchWithDetector sets the language detector
func SearchWithDetector(detector pipeline.LanguageDetector) SearchServiceOption {
	return func(s *SearchService) {
		s.detector = detector
	}
}

// SearchWithConfig sets the search tuning parameters
func SearchWithConfig(search config.SearchConfig) SearchServiceOption {
	return func(s *SearchService) {
		s.search = search
	}
}

// NewSearchService creates a new search service
func NewSearchService(opts ...SearchServiceOption) *SearchService {
	s := &SearchService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchResult is one hit of a direct search.
type SearchResult struct {
	DocumentID   string  `json:"document_id"`
	Title        string  `json:"title"`
	Jurisdiction string  `json:"jurisdiction"`
	Label        string  `json:"label"`
	SourceRef    string  `json:"source_ref"`
	Content      string  `json:"content"`
	Score        float64 `json:"score"`
}

// Search embeds the query and runs one hybrid search. jurisdiction is
// "SK", "EU", or "" for the whole store; topK <= 0 uses the configured
// default.
func (s *SearchService) Search(ctx context.Context, query, jurisdiction string, topK int) ([]SearchResult, string, error) {
	if query == "" {
		return nil, "", ErrEmptyQuery
	}
	if topK <= 0 {
		topK = s.search.FinalTopK
	}
	language := s.detector.Detect(query)

	embedding, err := s.llmClient.Embed(ctx, query)
	if err != nil {
		return nil, "", fmt.Errorf("failed to embed query: %w", err)
	}

	chunks, err := s.chunkRepo.HybridSearch(ctx, embedding, query, jurisdiction, topK,
		s.search.VectorWeight, s.search.FTSWeight, s.search.RRFK)
	if err != nil {
		return nil, "", fmt.Errorf("search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(chunks))
	for _, chunk := range chunks {
		results = append(results, SearchResult{
			DocumentID:   chunk.DocumentID,
			Title:        chunk.Title,
			Jurisdiction: chunk.Jurisdiction,
			Label:        pipeline.JurisdictionLabel(chunk.Jurisdiction),
			SourceRef:    chunk.SourceRef,
			Content:      chunk.Content,
			Score:        chunk.RRFScore,
		})
	}
	return results, language, nil
}
