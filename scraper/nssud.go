package scraper

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"legislative-ai-assist/models"
)

// Competition law keywords used to filter the general RSS feed.
var nssudKeywords = []string{
	"hospodárska súťaž", "sutaz", "kartel", "kartelová", "monopol",
	"dominantn", "antimonopol", "pmu", "protimonopoln",
	"koncentrác", "fúzi", "zneužív", "hospodárenie",
	"competition", "antitrust", "cartel",
}

var nssudRSSDateRe = regexp.MustCompile(`(\d{1,2})\s+(\w{3})\s+(\d{4})`)

var rssMonths = map[string]string{
	"Jan": "01", "Feb": "02", "Mar": "03", "Apr": "04",
	"May": "05", "Jun": "06", "Jul": "07", "Aug": "08",
	"Sep": "09", "Oct": "10", "Nov": "11", "Dec": "12",
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// NSSUDScraper fetches competition law cases of the Slovak Supreme
// Administrative Court (Najvyšší správny súd SR). NSSUD exposes no
// search API; the WordPress RSS feed (latest ~100 articles) is fetched
// and filtered for competition law relevance.
type NSSUDScraper struct {
	BaseURL string
	client  *http.Client
}

// NewNSSUDScraper creates an NSSUD scraper against the given base URL.
func NewNSSUDScraper(baseURL string) *NSSUDScraper {
	return &NSSUDScraper{
		BaseURL: baseURL,
		client:  newHTTPClient(20 * time.Second),
	}
}

// Search fetches the RSS feed and keeps competition-related items. The
// feed only ever returns the latest articles, so date bounds are not
// applied server-side.
func (s *NSSUDScraper) Search(ctx context.Context, limit int) Result {
	req, err := http.NewRequestWithContext(ctx, "GET", s.BaseURL+"/feed/", nil)
	if err != nil {
		return degraded("NSSUD", err)
	}
	setCommonHeaders(req, "application/rss+xml, text/xml, */*")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("Warning: NSSUD RSS fetch failed: %v", err)
		return degraded("NSSUD", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("nssud feed returned status %d", resp.StatusCode)
		log.Printf("Warning: %v", err)
		return degraded("NSSUD", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return degraded("NSSUD", err)
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		log.Printf("Warning: NSSUD RSS parse failed: %v", err)
		return degraded("NSSUD", err)
	}

	var cases []models.ExternalCase
	for _, item := range feed.Channel.Items {
		if len(cases) >= limit {
			break
		}
		combined := strings.ToLower(item.Title + " " + item.Description)
		if !containsAny(combined, nssudKeywords) {
			continue
		}
		url := strings.TrimSpace(item.Link)
		if url == "" {
			continue
		}

		title := truncate(strings.TrimSpace(item.Title), 200)
		if title == "" {
			title = "NSSUD – Competition Law"
		}

		cases = append(cases, models.ExternalCase{
			Title:        title,
			CaseNumber:   caseNumberFromSlug(url),
			URL:          url,
			Court:        "Najvyšší správny súd SR",
			Date:         parseRSSDate(item.PubDate),
			Jurisdiction: "SK",
			Source:       "NSSUD",
			Type:         "court_decision",
			Topic:        "hospodárska súťaž",
			ScrapedAt:    scrapedNow(),
		})
	}

	return Result{Source: "NSSUD", Cases: cases}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// caseNumberFromSlug derives an identifier from the article URL slug;
// NSSUD articles carry no formal case number in the feed.
func caseNumberFromSlug(url string) string {
	trimmed := strings.TrimRight(url, "/")
	slug := trimmed[strings.LastIndex(trimmed, "/")+1:]
	if slug == "" {
		return "NSSUD-article"
	}
	return truncate(slug, 60)
}

// parseRSSDate converts an RFC 2822 pubDate ("Fri, 21 Feb 2026 ...")
// to YYYY-MM-DD.
func parseRSSDate(date string) string {
	m := nssudRSSDateRe.FindStringSubmatch(date)
	if m == nil {
		return ""
	}
	month, ok := rssMonths[m[2]]
	if !ok {
		month = "01"
	}
	return m[3] + "-" + month + "-" + zeroPad(m[1])
}
