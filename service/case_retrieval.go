package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"legislative-ai-assist/models"
	"legislative-ai-assist/scraper"
)

var wordSplitRe = regexp.MustCompile(`\W+`)

var rankStopwords = map[string]bool{
	"": true, "a": true, "the": true, "of": true, "in": true, "to": true,
}

type cacheEntry struct {
	storedAt time.Time
	cases    []models.ExternalCase
}

// CaseRetrievalService aggregates live court cases from external
// sources: NSSUD and PMU for Slovak cases, EUR-Lex and the EU
// Commission for EU cases. Results are cached per query for an hour.
type CaseRetrievalService struct {
	nssud  *scraper.NSSUDScraper
	pmu    *scraper.PMUScraper
	eurlex *scraper.EurLexService

	cacheTTL time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// CaseRetrievalOption is a functional option for CaseRetrievalService
type CaseRetrievalOption func(*CaseRetrievalService)

// CaseRetrievalWithNSSUD sets the NSSUD scraper
func CaseRetrievalWithNSSUD(s *scraper.NSSUDScraper) CaseRetrievalOption {
	return func(svc *CaseRetrievalService) {
		svc.nssud = s
	}
}

// CaseRetrievalWithPMU sets the PMU scraper
func CaseRetrievalWithPMU(s *scraper.PMUScraper) CaseRetrievalOption {
	return func(svc *CaseRetrievalService) {
		svc.pmu = s
	}
}

// CaseRetrievalWithEurLex sets the EU case law service
func CaseRetrievalWithEurLex(s *scraper.EurLexService) CaseRetrievalOption {
	return func(svc *CaseRetrievalService) {
		svc.eurlex = s
	}
}

// CaseRetrievalWithTTL sets the cache lifetime
func CaseRetrievalWithTTL(ttl time.Duration) CaseRetrievalOption {
	return func(svc *CaseRetrievalService) {
		svc.cacheTTL = ttl
	}
}

// CaseRetrievalWithClock sets the time source, used by tests
func CaseRetrievalWithClock(now func() time.Time) CaseRetrievalOption {
	return func(svc *CaseRetrievalService) {
		svc.now = now
	}
}

// NewCaseRetrievalService creates a new case retrieval service
func NewCaseRetrievalService(opts ...CaseRetrievalOption) *CaseRetrievalService {
	svc := &CaseRetrievalService{
		cacheTTL: time.Hour,
		now:      time.Now,
		cache:    make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// SearchCases looks up relevant court cases across all enabled sources.
// jurisdiction is "SK", "EU", or "" for both; both jurisdictions run in
// parallel and a failing one never aborts the other. Results are ranked
// by keyword relevance and capped at twice the limit to leave room for
// both jurisdictions.
func (s *CaseRetrievalService) SearchCases(ctx context.Context, query, jurisdiction, dateFrom, dateTo string, limit int) []models.ExternalCase {
	type task func() []models.ExternalCase

	var tasks []task
	if jurisdiction == "SK" || jurisdiction == "" {
		tasks = append(tasks, func() []models.ExternalCase {
			return s.searchSK(ctx, query, dateFrom, dateTo, limit)
		})
	}
	if jurisdiction == "EU" || jurisdiction == "" {
		tasks = append(tasks, func() []models.ExternalCase {
			return s.searchEU(ctx, query, limit)
		})
	}
	if len(tasks) == 0 {
		return nil
	}

	results := make([][]models.ExternalCase, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t task) {
			defer wg.Done()
			results[i] = t()
		}(i, t)
	}
	wg.Wait()

	var all []models.ExternalCase
	for _, r := range results {
		all = append(all, r...)
	}

	ranked := RankCases(all, query)
	if len(ranked) > limit*2 {
		ranked = ranked[:limit*2]
	}
	return ranked
}

// ClearCache drops all cached results.
func (s *CaseRetrievalService) ClearCache() {
	s.mu.Lock()
	s.cache = make(map[string]cacheEntry)
	s.mu.Unlock()
}

func (s *CaseRetrievalService) searchSK(ctx context.Context, query, dateFrom, dateTo string, limit int) []models.ExternalCase {
	cacheKey := fmt.Sprintf("SK_%s_%s_%s_%d", query, dateFrom, dateTo, limit)
	if cached, ok := s.cached(cacheKey); ok {
		log.Printf("Returning cached SK cases for %q", query)
		return cached
	}

	perSource := limit / 2
	if perSource < 10 {
		perSource = 10
	}

	var nssudRes, pmuRes scraper.Result
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		nssudRes = s.nssud.Search(ctx, perSource)
	}()
	go func() {
		defer wg.Done()
		pmuRes = s.pmu.Search(ctx, query, perSource)
	}()
	wg.Wait()

	var cases []models.ExternalCase
	if nssudRes.Degraded {
		log.Printf("Warning: NSSUD search degraded: %v", nssudRes.Err)
	} else {
		cases = append(cases, nssudRes.Cases...)
	}
	if pmuRes.Degraded {
		log.Printf("Warning: PMU search degraded: %v", pmuRes.Err)
	} else {
		cases = append(cases, pmuRes.Cases...)
	}

	s.store(cacheKey, cases)
	return cases
}

func (s *CaseRetrievalService) searchEU(ctx context.Context, query string, limit int) []models.ExternalCase {
	cacheKey := fmt.Sprintf("EU_%s_%d", query, limit)
	if cached, ok := s.cached(cacheKey); ok {
		log.Printf("Returning cached EU cases for %q", query)
		return cached
	}

	res := s.eurlex.Search(ctx, query, limit)
	if res.Degraded {
		log.Printf("Warning: EU case search degraded: %v", res.Err)
	}

	s.store(cacheKey, res.Cases)
	return res.Cases
}

func (s *CaseRetrievalService) cached(key string) ([]models.ExternalCase, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(entry.storedAt) >= s.cacheTTL {
		delete(s.cache, key)
		return nil, false
	}
	return entry.cases, true
}

func (s *CaseRetrievalService) store(key string, cases []models.ExternalCase) {
	s.mu.Lock()
	s.cache[key] = cacheEntry{storedAt: s.now(), cases: cases}
	s.mu.Unlock()
}

// RankCases orders cases by keyword overlap with the query. Title
// matches weigh three times as much as topic matches, and a query term
// appearing in the case number earns one bonus point. The sort is
// stable, so source order breaks ties.
func RankCases(cases []models.ExternalCase, query string) []models.ExternalCase {
	queryWords := wordSet(strings.ToLower(query))

	ranked := make([]models.ExternalCase, len(cases))
	copy(ranked, cases)

	for i := range ranked {
		titleWords := wordSet(strings.ToLower(ranked[i].Title))
		topicWords := wordSet(strings.ToLower(ranked[i].Topic))
		caseNumber := strings.ToLower(ranked[i].CaseNumber)

		score := 0
		for w := range queryWords {
			if titleWords[w] {
				score += 3
			}
			if topicWords[w] {
				score++
			}
		}
		for w := range queryWords {
			if len(w) > 3 && strings.Contains(caseNumber, w) {
				score++
				break
			}
		}
		ranked[i].RelevanceScore = float64(score)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})
	return ranked
}

func wordSet(text string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range wordSplitRe.Split(text, -1) {
		if !rankStopwords[w] {
			words[w] = true
		}
	}
	return words
}
