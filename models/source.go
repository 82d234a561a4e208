package models

// Source type values used in SourceInfo.
const (
	SourceTypeDocument  = "document"
	SourceTypeCourtCase = "court_case"
)

// SourceInfo describes one source cited in an answer. Document sources
// come from the internal store; court_case sources come from live
// external searches.
type SourceInfo struct {
	Type         string  `json:"type"`
	Title        string  `json:"title"`
	Jurisdiction string  `json:"jurisdiction"`
	Reference    string  `json:"reference,omitempty"`
	URL          string  `json:"url,omitempty"`
	Score        float64 `json:"score,omitempty"`
	Excerpt      string  `json:"excerpt,omitempty"`
}
