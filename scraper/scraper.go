// Package scraper retrieves case law from external legal databases:
// Slov-lex and PMU for Slovak decisions, EUR-Lex, CELLAR, and the
// European Commission competition portal for EU decisions. None of the
// Slovak sources expose a stable public API, so most adapters parse
// HTML or RSS and degrade gracefully when the markup changes.
package scraper

import (
	"net/http"
	"time"

	"legislative-ai-assist/models"
)

const userAgent = "Mozilla/5.0 (compatible; LegalResearchBot/1.0; +https://github.com/legislative-ai-assist)"

// Result is the outcome of searching one external source. Degraded is
// set when the source failed (timeout, HTTP error, malformed payload),
// so callers can tell a broken source apart from a genuine empty hit
// list. Degraded results always carry the underlying error.
type Result struct {
	Source   string
	Cases    []models.ExternalCase
	Degraded bool
	Err      error
}

func degraded(source string, err error) Result {
	return Result{Source: source, Degraded: true, Err: err}
}

func scrapedNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func setCommonHeaders(req *http.Request, accept string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "sk,en;q=0.9,hu;q=0.8")
}
