package models

// ExternalCase is a case-law hit retrieved live from an external source
// (Slov-lex, PMU, NSSUD, EUR-Lex, European Commission).
type ExternalCase struct {
	CaseNumber     string  `json:"case_number"`
	Title          string  `json:"title"`
	Court          string  `json:"court"`
	Date           string  `json:"date,omitempty"`
	URL            string  `json:"url"`
	Summary        string  `json:"summary,omitempty"`
	Source         string  `json:"source"`
	Jurisdiction   string  `json:"jurisdiction"`
	Type           string  `json:"type,omitempty"`
	Topic          string  `json:"topic,omitempty"`
	ScrapedAt      string  `json:"scraped_at,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
}
