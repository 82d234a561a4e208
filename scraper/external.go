package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"legislative-ai-assist/models"
)

// Source keys returned by SearchAllSources.
const (
	SourceSlovLex = "slov_lex"
	SourceEC      = "ec_decisions"
	SourceCJEU    = "cjeu"
)

const cdmNamespace = "http://publications.europa.eu/ontology/cdm#"

// ExternalSearch runs live case law lookups for the chat pipeline:
// Slov-lex for Slovak decisions, the EC competition JSON API for
// Commission decisions, and the CELLAR SPARQL endpoint for CJEU
// judgments. All sources degrade to an empty, flagged result.
type ExternalSearch struct {
	slovLex        *SlovLexScraper
	ECCasesBaseURL string
	EurLexBaseURL  string
	SparqlEndpoint string
	client         *http.Client
}

// NewExternalSearch creates the live search adapter set.
func NewExternalSearch(slovLex *SlovLexScraper, ecCasesBaseURL, eurLexBaseURL, sparqlEndpoint string) *ExternalSearch {
	return &ExternalSearch{
		slovLex:        slovLex,
		ECCasesBaseURL: ecCasesBaseURL,
		EurLexBaseURL:  eurLexBaseURL,
		SparqlEndpoint: sparqlEndpoint,
		client:         newHTTPClient(25 * time.Second),
	}
}

// SearchAllSources queries the enabled sources concurrently. A failing
// source never affects its siblings; its result is returned degraded.
func (s *ExternalSearch) SearchAllSources(ctx context.Context, query string, maxPerSource int, includeSK, includeEC, includeCJEU bool) map[string]Result {
	type task struct {
		key string
		run func() Result
	}

	var tasks []task
	if includeSK {
		tasks = append(tasks, task{SourceSlovLex, func() Result { return s.slovLex.Search(ctx, query, maxPerSource) }})
	}
	if includeEC {
		tasks = append(tasks, task{SourceEC, func() Result { return s.SearchECDecisions(ctx, query, maxPerSource) }})
	}
	if includeCJEU {
		tasks = append(tasks, task{SourceCJEU, func() Result { return s.SearchCJEU(ctx, query, maxPerSource) }})
	}
	if len(tasks) == 0 {
		return map[string]Result{}
	}

	results := make([]Result, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t task) {
			defer wg.Done()
			results[i] = t.run()
		}(i, t)
	}
	wg.Wait()

	out := make(map[string]Result, len(tasks))
	total := 0
	for i, t := range tasks {
		out[t.key] = results[i]
		total += len(results[i].Cases)
	}
	log.Printf("External search done: %d results across %d sources for %q", total, len(tasks), truncate(query, 50))
	return out
}

// SearchECDecisions queries the EC competition cases JSON API, falling
// back to the portal's HTML search.
func (s *ExternalSearch) SearchECDecisions(ctx context.Context, query string, limit int) Result {
	params := url.Values{}
	params.Set("query", query)
	params.Set("size", fmt.Sprint(limit))
	params.Set("language", "EN")
	params.Set("sort", "relevance")

	req, err := http.NewRequestWithContext(ctx, "GET", s.ECCasesBaseURL+"/api/cases?"+params.Encode(), nil)
	if err != nil {
		return degraded("EC Competition Decisions", err)
	}
	setCommonHeaders(req, "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("Warning: EC cases API failed: %v", err)
		return s.ecHTMLFallback(ctx, query, limit, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("ec cases API returned status %d", resp.StatusCode)
		log.Printf("Warning: %v", err)
		return s.ecHTMLFallback(ctx, query, limit, err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return s.ecHTMLFallback(ctx, query, limit, err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		log.Printf("Warning: EC cases API returned malformed JSON: %v", err)
		return s.ecHTMLFallback(ctx, query, limit, err)
	}

	cases := parseECJSON(data, limit, s.ECCasesBaseURL)
	if len(cases) > 0 {
		return Result{Source: "EC Competition Decisions", Cases: cases}
	}
	return s.ecHTMLFallback(ctx, query, limit, nil)
}

func (s *ExternalSearch) ecHTMLFallback(ctx context.Context, query string, limit int, apiErr error) Result {
	svc := &EurLexService{ECCasesBaseURL: s.ECCasesBaseURL, EurLexBaseURL: s.EurLexBaseURL, client: s.client}
	cases, err := svc.searchECHTML(ctx, query, limit)
	if err != nil {
		log.Printf("Warning: EC HTML fallback failed: %v", err)
		if apiErr != nil {
			err = fmt.Errorf("api: %v, html fallback: %w", apiErr, err)
		}
		return degraded("EC Competition Decisions", err)
	}
	return Result{Source: "EC Competition Decisions", Cases: cases}
}

// SearchCJEU queries CJEU case law through the CELLAR SPARQL endpoint
// of the Publications Office, falling back to the EUR-Lex quick search
// when SPARQL fails or finds nothing.
func (s *ExternalSearch) SearchCJEU(ctx context.Context, query string, limit int) Result {
	// Only the first few words go into the SPARQL filter.
	words := strings.Fields(query)
	if len(words) > 4 {
		words = words[:4]
	}
	keyword := strings.Join(words, " ")

	cases, err := s.sparqlSearch(ctx, keyword, limit)
	if err != nil {
		log.Printf("Warning: CJEU SPARQL search failed: %v", err)
	} else if len(cases) > 0 {
		return Result{Source: "CJEU / EUR-Lex (CELLAR)", Cases: cases}
	}

	svc := &EurLexService{ECCasesBaseURL: s.ECCasesBaseURL, EurLexBaseURL: s.EurLexBaseURL, client: s.client}
	fallback, fbErr := svc.searchEurLexCaseLaw(ctx, query, limit)
	if fbErr != nil {
		log.Printf("Warning: EUR-Lex fallback failed: %v", fbErr)
		if err == nil {
			err = fbErr
		}
		return degraded("CJEU / EUR-Lex", err)
	}
	return Result{Source: "CJEU / EUR-Lex", Cases: fallback}
}

func (s *ExternalSearch) sparqlSearch(ctx context.Context, keyword string, limit int) ([]models.ExternalCase, error) {
	body := buildCJEUSparql(keyword, limit)

	req, err := http.NewRequestWithContext(ctx, "POST", s.SparqlEndpoint, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/sparql-query")
	req.Header.Set("Accept", "application/sparql-results+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sparql endpoint returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var data struct {
		Results struct {
			Bindings []map[string]struct {
				Value string `json:"value"`
			} `json:"bindings"`
		} `json:"results"`
	}
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, fmt.Errorf("failed to parse SPARQL response: %w", err)
	}

	var cases []models.ExternalCase
	for _, b := range data.Results.Bindings {
		if len(cases) >= limit {
			break
		}
		celex := b["celex"].Value
		date := b["date"].Value
		if len(date) > 10 {
			date = date[:10]
		}

		caseNumber := CelexToFriendly(celex)
		if caseNumber == "" {
			caseNumber = celex
		}
		var caseURL string
		if celex != "" {
			caseURL = s.EurLexBaseURL + "/legal-content/EN/TXT/?uri=CELEX:" + celex
		}

		cases = append(cases, models.ExternalCase{
			Title:        b["title"].Value,
			CaseNumber:   caseNumber,
			URL:          caseURL,
			Court:        "Court of Justice of the EU",
			Date:         date,
			Jurisdiction: "EU",
			Source:       "CJEU / EUR-Lex (CELLAR)",
			Type:         "court_decision",
			Topic:        "competition law",
			ScrapedAt:    scrapedNow(),
		})
	}
	return cases, nil
}

// buildCJEUSparql builds a CELLAR query over cdm:judgment works with a
// case-insensitive title filter on English expressions.
func buildCJEUSparql(keyword string, limit int) string {
	safe := strings.ReplaceAll(keyword, `"`, " ")
	safe = strings.ReplaceAll(safe, "'", " ")
	safe = strings.TrimSpace(safe)
	if r := []rune(safe); len(r) > 80 {
		// Trim on rune boundaries so diacritics never get split mid-sequence.
		safe = string(r[:80])
	}

	return fmt.Sprintf(`
PREFIX cdm:     <%s>
PREFIX dcterms: <http://purl.org/dc/terms/>
PREFIX lang:    <http://publications.europa.eu/resource/authority/language/>

SELECT DISTINCT ?work ?celex ?date ?title
WHERE {
  ?work a cdm:judgment ;
        cdm:resource_legal_id_celex ?celex ;
        cdm:work_date_document      ?date ;
        cdm:work_has_expression     ?expr .

  ?expr cdm:expression_uses_language lang:ENG ;
        cdm:expression_title         ?title .

  FILTER ( CONTAINS( LCASE(STR(?title)), LCASE("%s") ) )
}
ORDER BY DESC(?date)
LIMIT %d
`, cdmNamespace, safe, limit)
}
