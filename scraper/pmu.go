package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"legislative-ai-assist/models"

	"github.com/PuerkitoBio/goquery"
)

// Category pages listing competition law content. These are static
// HTML; the decision register itself is JS-rendered and not scrapable.
var pmuCategoryPages = []string{
	"/kartely/",
	"/zneuzivanie-dominantneho-postavenia/",
	"/koncentracie/",
	"/vertikalne-dohody/",
}

var pmuCategoryTopics = map[string]string{
	"/kartely/":                              "kartelové dohody",
	"/zneuzivanie-dominantneho-postavenia/":  "zneužívanie dominantného postavenia",
	"/koncentracie/":                         "kontrola koncentrácií",
	"/vertikalne-dohody/":                    "vertikálne dohody",
}

var (
	pmuSkipURLRe   = regexp.MustCompile(`(?i)/(en|sk)/?$|/kontakt|/o-urade|/financie|/kariera|/kniznica|/podatelna|instagram|facebook|twitter|linkedin`)
	pmuNewsTermRe  = regexp.MustCompile(`(?i)kartel|pokuta|rozhodnut|zneuz|dominantn|koncentr|sutaz|súťaž`)
	pmuDateRe      = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`)
	pmuYearRe      = regexp.MustCompile(`\b20\d{2}\b`)

	// Case reference formats tried in order, e.g. 2023/DZ/1/1, POK-001/2023.
	pmuCaseNumberRes = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}/[A-Z]+/\d+/\d+`),
		regexp.MustCompile(`[A-Z]+-\d{3,}/\d{4}`),
		regexp.MustCompile(`[A-Z]{2,3}-\d+/\d{4}`),
		regexp.MustCompile(`\d{4}/[A-Z]+/\d+`),
	}
)

// PMUScraper fetches decisions and news of the Slovak antitrust
// authority (Protimonopolný úrad SR).
type PMUScraper struct {
	BaseURL string
	client  *http.Client
}

// NewPMUScraper creates a PMU scraper against the given base URL.
func NewPMUScraper(baseURL string) *PMUScraper {
	return &PMUScraper{
		BaseURL: baseURL,
		client:  newHTTPClient(20 * time.Second),
	}
}

// Search collects decision links from the category pages and, when the
// limit is not yet reached, decision announcements from the news page.
// The query is not sent to PMU; relevance ranking happens downstream.
func (s *PMUScraper) Search(ctx context.Context, query string, limit int) Result {
	_ = query
	var all []models.ExternalCase
	failures := 0

	for _, path := range pmuCategoryPages {
		if len(all) >= limit {
			break
		}
		items, err := s.fetchCategory(ctx, path)
		if err != nil {
			log.Printf("Warning: PMU page %s failed: %v", path, err)
			failures++
			continue
		}
		all = append(all, items...)
	}

	if len(all) < limit {
		items, err := s.fetchNews(ctx)
		if err != nil {
			log.Printf("Warning: PMU news page failed: %v", err)
			failures++
		} else {
			all = append(all, items...)
		}
	}

	// Deduplicate by URL, keeping first occurrence.
	seen := make(map[string]bool)
	unique := make([]models.ExternalCase, 0, len(all))
	for _, c := range all {
		if seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		unique = append(unique, c)
	}
	if len(unique) > limit {
		unique = unique[:limit]
	}

	if len(unique) == 0 && failures > 0 {
		return degraded("PMÚ", fmt.Errorf("all %d PMU page fetches failed", failures))
	}
	return Result{Source: "PMÚ", Cases: unique}
}

func (s *PMUScraper) fetchCategory(ctx context.Context, path string) ([]models.ExternalCase, error) {
	doc, err := s.fetchDocument(ctx, s.BaseURL+path)
	if err != nil {
		return nil, err
	}

	topic := pmuCategoryTopics[path]
	if topic == "" {
		topic = "hospodárska súťaž"
	}

	content := doc.Find("main")
	if content.Length() == 0 {
		content = doc.Selection
	}

	var cases []models.ExternalCase
	content.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		text := strings.TrimSpace(sel.Text())
		if len(text) < 8 {
			return
		}

		url := s.absoluteURL(href)
		if url == "" || pmuSkipURLRe.MatchString(url) {
			return
		}

		caseNumber := extractPMUCaseNumber(text)
		if caseNumber == "" {
			caseNumber = extractPMUCaseNumber(href)
		}
		if caseNumber == "" {
			caseNumber = truncate(text, 60)
		}

		cases = append(cases, models.ExternalCase{
			Title:        truncate(text, 200),
			CaseNumber:   caseNumber,
			URL:          url,
			Court:        "Protimonopolný úrad SR",
			Date:         extractPMUDate(text),
			Jurisdiction: "SK",
			Source:       "PMÚ",
			Type:         "authority_decision",
			Topic:        topic,
			ScrapedAt:    scrapedNow(),
		})
	})
	return cases, nil
}

func (s *PMUScraper) fetchNews(ctx context.Context) ([]models.ExternalCase, error) {
	doc, err := s.fetchDocument(ctx, s.BaseURL+"/aktuality/")
	if err != nil {
		return nil, err
	}

	var cases []models.ExternalCase
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		text := strings.TrimSpace(sel.Text())
		// Only long descriptive links about competition matters.
		if len(text) < 20 || !pmuNewsTermRe.MatchString(text) {
			return
		}

		url := s.absoluteURL(href)
		if url == "" {
			return
		}

		caseNumber := extractPMUCaseNumber(text)
		if caseNumber == "" {
			caseNumber = truncate(text, 60)
		}

		cases = append(cases, models.ExternalCase{
			Title:        truncate(text, 200),
			CaseNumber:   caseNumber,
			URL:          url,
			Court:        "Protimonopolný úrad SR",
			Date:         extractPMUDate(text),
			Jurisdiction: "SK",
			Source:       "PMÚ",
			Type:         "authority_decision",
			Topic:        "hospodárska súťaž",
			ScrapedAt:    scrapedNow(),
		})
	})
	return cases, nil
}

func (s *PMUScraper) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
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
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode, url)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func (s *PMUScraper) absoluteURL(href string) string {
	switch {
	case strings.HasPrefix(href, "http"):
		if !strings.Contains(href, "antimon.gov.sk") && !strings.HasPrefix(href, s.BaseURL) {
			return ""
		}
		return href
	case strings.HasPrefix(href, "/"):
		return s.BaseURL + href
	default:
		return ""
	}
}

func extractPMUCaseNumber(text string) string {
	for _, re := range pmuCaseNumberRes {
		if m := re.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

func extractPMUDate(text string) string {
	if m := pmuDateRe.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[3], zeroPad(m[2]), zeroPad(m[1]))
	}
	return pmuYearRe.FindString(text)
}

func zeroPad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
