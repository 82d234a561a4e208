package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"

	"legislative-ai-assist/config"
	"legislative-ai-assist/models"
)

// RetrievalBundle is the combined evidence for one query: pre-indexed
// document chunks plus live court cases from external sources.
type RetrievalBundle struct {
	Chunks       []models.ScoredChunk   `json:"chunks"`
	Cases        []models.ExternalCase  `json:"cases"`
	TotalSources int                    `json:"total_sources"`
}

// Retriever performs jurisdiction-aware hybrid search over the
// document store and optionally augments it with live case retrieval.
type Retriever struct {
	embedder Embedder
	chunks   ChunkSearcher
	cases    CaseSearcher
	search   config.SearchConfig
}

// NewRetriever creates a retriever. cases may be nil when live case
// retrieval is disabled.
func NewRetriever(embedder Embedder, chunks ChunkSearcher, cases CaseSearcher, search config.SearchConfig) *Retriever {
	return &Retriever{embedder: embedder, chunks: chunks, cases: cases, search: search}
}

// Retrieve embeds the query once and runs hybrid search for each
// requested jurisdiction. Results are merged, sorted by fusion score
// (stable, so jurisdiction order breaks ties), and cut to topK.
// topK <= 0 uses the configured default.
func (r *Retriever) Retrieve(ctx context.Context, query string, needsEU, needsSK bool, topK int) ([]models.ScoredChunk, error) {
	if topK <= 0 {
		topK = r.search.FinalTopK
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var jurisdictions []string
	if needsSK {
		jurisdictions = append(jurisdictions, "SK")
	}
	if needsEU {
		jurisdictions = append(jurisdictions, "EU")
	}
	if len(jurisdictions) == 0 {
		// Neither flag set: search the whole store.
		jurisdictions = []string{""}
	}

	var results []models.ScoredChunk
	for _, jurisdiction := range jurisdictions {
		found, err := r.chunks.HybridSearch(ctx, embedding, query, jurisdiction, topK,
			r.search.VectorWeight, r.search.FTSWeight, r.search.RRFK)
		if err != nil {
			return nil, fmt.Errorf("hybrid search failed for jurisdiction %q: %w", jurisdiction, err)
		}
		results = append(results, found...)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RRFScore > results[j].RRFScore
	})
	if len(results) > topK {
		results = results[:topK]
	}

	log.Printf("Retrieved %d chunks for %q", len(results), truncateRunes(query, 80))
	return results, nil
}

// RetrieveWithCases retrieves chunks and, when enabled, live court
// cases. Case retrieval failures never abort the chunk results; the
// case list is simply empty.
func (r *Retriever) RetrieveWithCases(ctx context.Context, query string, needsEU, needsSK bool, topK int, includeLiveCases bool) (*RetrievalBundle, error) {
	chunks, err := r.Retrieve(ctx, query, needsEU, needsSK, topK)
	if err != nil {
		return nil, err
	}

	var cases []models.ExternalCase
	if includeLiveCases && r.cases != nil {
		jurisdiction := ""
		if needsSK && !needsEU {
			jurisdiction = "SK"
		} else if needsEU && !needsSK {
			jurisdiction = "EU"
		}

		cases = r.cases.SearchCases(ctx, query, jurisdiction, "", "", r.search.CaseLimit)
		log.Printf("Retrieved %d live court cases", len(cases))
	}

	return &RetrievalBundle{
		Chunks:       chunks,
		Cases:        cases,
		TotalSources: len(chunks) + len(cases),
	}, nil
}

// JurisdictionLabel renders the citation label for a jurisdiction,
// "[SK]" or "[EU]", or "" when the chunk is not jurisdiction-scoped.
func JurisdictionLabel(jurisdiction string) string {
	if jurisdiction == "" {
		return ""
	}
	return "[" + jurisdiction + "]"
}
