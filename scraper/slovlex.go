package scraper

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"legislative-ai-assist/models"
)

var (
	// Each result wraps its link in a heading element.
	slovLexItemRe = regexp.MustCompile(`(?is)href="(/(?:judikatury|vyhladavanie)[^"]+)"[^>]*>\s*<[^>]+>\s*([^<]{5,250})`)
	// Fallback: any internal link with a readable title.
	slovLexGenericRe = regexp.MustCompile(`(?i)href="(/(?:judikatury|pravne-predpisy)[^"]*)"[^>]*>\s*([A-ZÀ-Ž][^<]{8,250})</a>`)
	// Court decision case numbers look like 3Cdo/12/2020 or 4Ob/15/2019.
	slovLexCaseNumRe = regexp.MustCompile(`\b\d+\s*[A-Za-z]{1,5}/\d+/\d{4}\b`)

	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// SlovLexScraper searches Slovak judicial decisions (judikatura) on
// Slov-lex. Slov-lex has no public REST API for judicature, so the
// full-text search page is fetched and parsed.
type SlovLexScraper struct {
	BaseURL string
	client  *http.Client
}

// NewSlovLexScraper creates a Slov-lex scraper against the given base URL.
func NewSlovLexScraper(baseURL string) *SlovLexScraper {
	return &SlovLexScraper{
		BaseURL: baseURL,
		client:  newHTTPClient(25 * time.Second),
	}
}

// Search queries the Slov-lex judicature full-text search.
func (s *SlovLexScraper) Search(ctx context.Context, query string, limit int) Result {
	params := url.Values{}
	params.Set("query", query)
	params.Set("type", "JUDIKATURY")
	searchURL := s.BaseURL + "/vyhladavanie?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return degraded("Slov-lex", err)
	}
	setCommonHeaders(req, "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("Warning: Slov-lex search failed: %v", err)
		return degraded("Slov-lex", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("slov-lex returned status %d", resp.StatusCode)
		log.Printf("Warning: %v", err)
		return degraded("Slov-lex", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Warning: Slov-lex body read failed: %v", err)
		return degraded("Slov-lex", err)
	}

	cases := s.parseResults(string(body), limit)
	return Result{Source: "Slov-lex", Cases: cases}
}

func (s *SlovLexScraper) parseResults(html string, limit int) []models.ExternalCase {
	var cases []models.ExternalCase
	seen := make(map[string]bool)

	for _, re := range []*regexp.Regexp{slovLexItemRe, slovLexGenericRe} {
		for _, m := range re.FindAllStringSubmatch(html, -1) {
			if len(cases) >= limit {
				break
			}
			path := strings.TrimSpace(m[1])
			title := strings.TrimSpace(htmlTagRe.ReplaceAllString(whitespaceRe.ReplaceAllString(m[2], " "), ""))
			if title == "" || len(title) < 5 || seen[path] {
				continue
			}
			seen[path] = true

			cases = append(cases, models.ExternalCase{
				Title:        title,
				CaseNumber:   slovLexCaseNumRe.FindString(title),
				URL:          s.BaseURL + path,
				Court:        "Slovenské súdy",
				Jurisdiction: "SK",
				Source:       "Slov-lex",
				Type:         "court_decision",
				Topic:        "hospodárska súťaž",
				ScrapedAt:    scrapedNow(),
			})
		}
		if len(cases) >= limit {
			break
		}
	}
	return cases
}
