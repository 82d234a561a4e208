package models

// Intent values produced by the query router.
const (
	IntentQuestion = "question"
	IntentSearch   = "search"
	IntentFollowup = "followup"
	IntentGreeting = "greeting"
	IntentOfftopic = "offtopic"
)

// Complexity values produced by the query router.
const (
	ComplexitySimple  = "simple"
	ComplexityComplex = "complex"
)

// Classification is the router's decision for a single query.
type Classification struct {
	Intent         string `json:"intent"`
	Complexity     string `json:"complexity"`
	NeedsEU        bool   `json:"needs_eu"`
	NeedsSK        bool   `json:"needs_sk"`
	RewrittenQuery string `json:"rewritten_query"`
	Language       string `json:"language"`
	SkipSearch     bool   `json:"skip_search"`
}
