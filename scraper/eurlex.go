package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"legislative-ai-assist/models"

	"github.com/PuerkitoBio/goquery"
)

var ecCaseNumberRe = regexp.MustCompile(`(?i)AT\.\d+|M\.\d+|COMP/[A-Z.]+\d+`)

// EurLexService searches EU competition case law: CJEU judgments via
// the EUR-Lex quick search and European Commission decisions via the
// competition cases portal. It serves the EU side of aggregated live
// case retrieval.
type EurLexService struct {
	EurLexBaseURL  string
	ECCasesBaseURL string
	client         *http.Client
}

// NewEurLexService creates the EU case law service.
func NewEurLexService(eurLexBaseURL, ecCasesBaseURL string) *EurLexService {
	return &EurLexService{
		EurLexBaseURL:  eurLexBaseURL,
		ECCasesBaseURL: ecCasesBaseURL,
		client:         newHTTPClient(30 * time.Second),
	}
}

// Search runs both EU sources sequentially and merges the hits, each
// source capped at half the limit (at least 10).
func (s *EurLexService) Search(ctx context.Context, query string, limit int) Result {
	perSource := limit / 2
	if perSource < 10 {
		perSource = 10
	}

	var cases []models.ExternalCase
	failures := 0

	cjeu, err := s.searchEurLexCaseLaw(ctx, query, perSource)
	if err != nil {
		log.Printf("Warning: EUR-Lex CJEU search failed: %v", err)
		failures++
	} else {
		cases = append(cases, cjeu...)
	}

	ec, err := s.searchECDecisions(ctx, query, perSource)
	if err != nil {
		log.Printf("Warning: EC competition search failed: %v", err)
		failures++
	} else {
		cases = append(cases, ec...)
	}

	if len(cases) > limit {
		cases = cases[:limit]
	}
	if len(cases) == 0 && failures == 2 {
		return degraded("EUR-Lex", fmt.Errorf("both EU sources failed"))
	}
	return Result{Source: "EUR-Lex", Cases: cases}
}

// searchEurLexCaseLaw uses the EUR-Lex quick search. The case-law
// sub-domain parameter triggers HTTP 500 on EUR-Lex servers, so
// "judgment" is prepended to the query instead, and results are
// filtered to CELEX numbers starting with "6" (the case law sector).
func (s *EurLexService) searchEurLexCaseLaw(ctx context.Context, query string, limit int) ([]models.ExternalCase, error) {
	searchText := query
	if !strings.Contains(strings.ToLower(query), "judgment") {
		searchText = "judgment " + query
	}

	params := url.Values{}
	params.Set("scope", "EURLEX")
	params.Set("type", "quick")
	params.Set("lang", "en")
	params.Set("text", searchText)

	req, err := http.NewRequestWithContext(ctx, "GET", s.EurLexBaseURL+"/search.html?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	setCommonHeaders(req, "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eur-lex returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var cases []models.ExternalCase
	seenCelex := make(map[string]bool)

	doc.Find(`a[href*="CELEX"], a[href*="legal-content"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(cases) >= limit {
			return false
		}
		href, _ := sel.Attr("href")
		if href == "" {
			return true
		}

		celex := ExtractCelex(href)
		if celex == "" || !strings.HasPrefix(celex, "6") {
			return true
		}
		// Each case appears three times (viewer, PDF, HTML); keep the viewer.
		if strings.Contains(href, "/TXT/PDF/") || strings.Contains(href, "/TXT/HTML/") {
			return true
		}
		if seenCelex[celex] {
			return true
		}
		seenCelex[celex] = true

		linkURL := href
		switch {
		case strings.HasPrefix(href, "./"):
			linkURL = s.EurLexBaseURL + href[1:]
		case strings.HasPrefix(href, "/"):
			linkURL = s.EurLexBaseURL + href
		case !strings.HasPrefix(href, "http"):
			return true
		}

		title := strings.TrimSpace(sel.Text())
		if len(title) < 5 {
			title = "CJEU Case " + celex
		}

		caseNumber := CelexToFriendly(celex)
		if caseNumber == "" {
			caseNumber = celex
		}

		cases = append(cases, models.ExternalCase{
			Title:        truncate(title, 200),
			CaseNumber:   caseNumber,
			URL:          linkURL,
			Court:        "Court of Justice of the EU / General Court",
			Jurisdiction: "EU",
			Source:       "EUR-Lex",
			Type:         "court_decision",
			Topic:        "competition law",
			ScrapedAt:    scrapedNow(),
		})
		return true
	})

	return cases, nil
}

// searchECDecisions queries the EC competition portal, JSON first with
// an HTML fallback.
func (s *EurLexService) searchECDecisions(ctx context.Context, query string, limit int) ([]models.ExternalCase, error) {
	cases, err := s.searchECJSON(ctx, query, limit)
	if err == nil && len(cases) > 0 {
		return cases, nil
	}
	if err != nil {
		log.Printf("Warning: EC JSON search failed, trying HTML: %v", err)
	}
	return s.searchECHTML(ctx, query, limit)
}

func (s *EurLexService) searchECJSON(ctx context.Context, query string, limit int) ([]models.ExternalCase, error) {
	pageSize := limit
	if pageSize > 25 {
		pageSize = 25
	}
	params := url.Values{}
	params.Set("search", query)
	params.Set("page", "1")
	params.Set("pageSize", fmt.Sprint(pageSize))

	req, err := http.NewRequestWithContext(ctx, "GET", s.ECCasesBaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	setCommonHeaders(req, "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ec portal returned status %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		return nil, fmt.Errorf("ec portal returned non-JSON content")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse EC response: %w", err)
	}
	return parseECJSON(data, limit, s.ECCasesBaseURL), nil
}

// parseECJSON handles the varying shapes the EC portal has returned
// over time, including an Elasticsearch-style envelope.
func parseECJSON(data map[string]interface{}, limit int, baseURL string) []models.ExternalCase {
	items := firstList(data, "items", "cases", "results", "data")
	if items == nil {
		if hits, ok := data["hits"].(map[string]interface{}); ok {
			items, _ = hits["hits"].([]interface{})
		}
	}

	var cases []models.ExternalCase
	for _, raw := range items {
		if len(cases) >= limit {
			break
		}
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if source, ok := item["_source"].(map[string]interface{}); ok {
			item = source
		}

		caseNumber := firstString(item, "caseNumber", "case_number", "reference", "id")
		title := firstString(item, "caseName", "title", "name")
		if title == "" {
			title = caseNumber
		}
		date := firstString(item, "closingDate", "decisionDate", "date")
		if idx := strings.Index(date, "T"); idx > 0 {
			date = date[:idx]
		}

		caseURL := firstString(item, "url")
		if caseURL == "" && caseNumber != "" {
			caseURL = baseURL + "/cases/" + caseNumber
		}

		cases = append(cases, models.ExternalCase{
			Title:        truncate(title, 200),
			CaseNumber:   caseNumber,
			URL:          caseURL,
			Court:        "European Commission DG COMP",
			Date:         date,
			Summary:      firstString(item, "description", "summary"),
			Jurisdiction: "EU",
			Source:       "EU Commission",
			Type:         "authority_decision",
			Topic:        "competition law",
			ScrapedAt:    scrapedNow(),
		})
	}
	return cases
}

func (s *EurLexService) searchECHTML(ctx context.Context, query string, limit int) ([]models.ExternalCase, error) {
	params := url.Values{}
	params.Set("search", query)

	req, err := http.NewRequestWithContext(ctx, "GET", s.ECCasesBaseURL+"/cases?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	setCommonHeaders(req, "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ec portal returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var cases []models.ExternalCase
	seen := make(map[string]bool)
	doc.Find(`a[href*="/cases/"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(cases) >= limit {
			return false
		}
		href, _ := sel.Attr("href")
		caseURL := href
		if !strings.HasPrefix(href, "http") {
			caseURL = s.ECCasesBaseURL + href
		}
		if seen[caseURL] {
			return true
		}
		seen[caseURL] = true

		title := strings.TrimSpace(sel.Text())
		if len(title) < 3 {
			return true
		}
		caseNumber := ecCaseNumberRe.FindString(href)
		if caseNumber == "" {
			caseNumber = ecCaseNumberRe.FindString(title)
		}
		if caseNumber == "" {
			caseNumber = truncate(title, 50)
		}

		cases = append(cases, models.ExternalCase{
			Title:        truncate(title, 200),
			CaseNumber:   caseNumber,
			URL:          caseURL,
			Court:        "European Commission DG COMP",
			Jurisdiction: "EU",
			Source:       "EU Commission",
			Type:         "authority_decision",
			Topic:        "competition law",
			ScrapedAt:    scrapedNow(),
		})
		return true
	})
	return cases, nil
}

func firstString(item map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := item[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

func firstList(data map[string]interface{}, keys ...string) []interface{} {
	for _, k := range keys {
		if list, ok := data[k].([]interface{}); ok && len(list) > 0 {
			return list
		}
	}
	return nil
}
