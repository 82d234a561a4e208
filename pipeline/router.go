package pipeline

import (
	"context"
	"log"
	"regexp"
	"strings"

	"legislative-ai-assist/config"
	"legislative-ai-assist/llm"
	"legislative-ai-assist/models"
)

// Rule-based fast-path lexicons. Matching is word-bounded so that
// "hi" never fires inside "prohibition" or "this".
var greetingPatterns = []string{
	"hello", "hi", "hey", "good morning", "good afternoon",
	"ahoj", "dobry den", "dobré ráno",
	"szia", "helló", "jó napot", "jó reggelt",
}

var offtopicPatterns = []string{
	"weather", "recipe", "sport", "football", "movie", "music",
	"počasie", "recept", "futbal", "film", "hudba",
	"időjárás", "foci", "zene",
}

var (
	greetingRes = compileWordPatterns(greetingPatterns)
	offtopicRes = compileWordPatterns(offtopicPatterns)
)

// compileWordPatterns builds one regexp per pattern with Unicode-aware
// word boundaries. The stdlib \b is ASCII-only and never matches after
// accented letters like "helló", so letter-class lookarounds are
// emulated with explicit non-letter edges.
func compileWordPatterns(patterns []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(`(?:^|[^\p{L}\d_])` + regexp.QuoteMeta(p) + `(?:[^\p{L}\d_]|$)`)
	}
	return res
}

func matchesAny(text string, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Router classifies queries before retrieval: a deterministic rule
// layer handles greetings and offtopic chatter without a model call,
// and a light model classifies everything else and rewrites the query
// for search.
type Router struct {
	llm      ModelCaller
	detector LanguageDetector
	audit    Auditor
	cfg      *config.Config
}

// NewRouter creates a query router.
func NewRouter(caller ModelCaller, detector LanguageDetector, audit Auditor, cfg *config.Config) *Router {
	return &Router{llm: caller, detector: detector, audit: audit, cfg: cfg}
}

// Route classifies the query. The classifier's language field is always
// overwritten by the detector, and skip_search follows the intent.
func (r *Router) Route(ctx context.Context, query string, history []models.Message) models.Classification {
	language := r.detector.Detect(query)
	queryLower := strings.ToLower(strings.TrimSpace(query))
	wordCount := len(strings.Fields(queryLower))

	// Long queries are almost never greetings.
	if wordCount <= 6 && matchesAny(queryLower, greetingRes) {
		return models.Classification{
			Intent:         models.IntentGreeting,
			Complexity:     models.ComplexitySimple,
			RewrittenQuery: query,
			Language:       language,
			SkipSearch:     true,
		}
	}
	if wordCount <= 4 && matchesAny(queryLower, offtopicRes) {
		return models.Classification{
			Intent:         models.IntentOfftopic,
			Complexity:     models.ComplexitySimple,
			RewrittenQuery: query,
			Language:       language,
			SkipSearch:     true,
		}
	}

	classification := r.classify(ctx, query, history)
	classification.Language = language
	classification.SkipSearch = classification.Intent == models.IntentGreeting ||
		classification.Intent == models.IntentOfftopic

	log.Printf("Router: intent=%s, complexity=%s, eu=%t, sk=%t",
		classification.Intent, classification.Complexity, classification.NeedsEU, classification.NeedsSK)
	return classification
}

func (r *Router) classify(ctx context.Context, query string, history []models.Message) models.Classification {
	// Last two exchanges give the classifier follow-up context.
	contextSummary := ""
	if len(history) > 0 {
		start := len(history) - 4
		if start < 0 {
			start = 0
		}
		var lines []string
		for _, m := range history[start:] {
			lines = append(lines, m.Role+": "+truncateRunes(m.Content, 200))
		}
		contextSummary = strings.Join(lines, "\n")
	}
	if contextSummary == "" {
		contextSummary = "No previous context."
	}

	prompt := config.Fill(r.cfg.Prompts.RouterPrompt, map[string]string{
		"query":   query,
		"context": contextSummary,
	})

	fallback := models.Classification{
		Intent:         models.IntentQuestion,
		Complexity:     models.ComplexitySimple,
		NeedsEU:        true,
		NeedsSK:        true,
		RewrittenQuery: query,
	}

	result, err := r.llm.Call(ctx, "light",
		"You are a query classifier for a legal competition law database used by legal professionals for compliance and research. Return valid JSON only.",
		[]llm.Message{{Role: "user", Content: prompt}},
		llm.WithJSONOutput(), llm.WithMaxTokens(300),
	)
	if err != nil {
		log.Printf("Warning: router model call failed, using defaults: %v", err)
		return fallback
	}

	r.audit.Log(ctx, models.AuditRecord{
		Operation:    "router",
		Provider:     result.Provider,
		Model:        result.Model,
		InputTokens:  result.InputTokens,
		OutputTokens: result.OutputTokens,
		LatencyMS:    result.LatencyMS,
	})

	var parsed struct {
		Intent         string `json:"intent"`
		Complexity     string `json:"complexity"`
		NeedsEU        *bool  `json:"needs_eu"`
		NeedsSK        *bool  `json:"needs_sk"`
		RewrittenQuery string `json:"rewritten_query"`
	}
	if err := llm.ExtractJSON(result.Content, &parsed); err != nil {
		log.Printf("Warning: router failed to parse JSON, using defaults: %v", err)
		return fallback
	}

	classification := fallback
	if parsed.Intent != "" {
		classification.Intent = parsed.Intent
	}
	if parsed.Complexity != "" {
		classification.Complexity = parsed.Complexity
	}
	if parsed.NeedsEU != nil {
		classification.NeedsEU = *parsed.NeedsEU
	}
	if parsed.NeedsSK != nil {
		classification.NeedsSK = *parsed.NeedsSK
	}
	if parsed.RewrittenQuery != "" {
		classification.RewrittenQuery = parsed.RewrittenQuery
	}
	return classification
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
