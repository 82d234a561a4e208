package pipeline

import (
	"context"
	"strings"
	"testing"

	"legislative-ai-assist/models"
	"legislative-ai-assist/scraper"
)

func TestExtractFallbackKeywords(t *testing.T) {
	text := "Kartelová dohoda medzi dvoma súťažiteľmi viedla k pokute. Kartelová prax pokračovala."
	keywords := ExtractFallbackKeywords(text)

	if len(keywords) == 0 {
		t.Fatal("no keywords extracted")
	}
	if keywords[0] != "Kartelová" {
		t.Errorf("first keyword = %q, want Kartelová", keywords[0])
	}
	for i, kw := range keywords {
		if len([]rune(kw)) < 4 {
			t.Errorf("keyword %q shorter than 4 letters", kw)
		}
		for j := i + 1; j < len(keywords); j++ {
			if strings.EqualFold(kw, keywords[j]) {
				t.Errorf("duplicate keyword %q", kw)
			}
		}
	}
	if len(keywords) > 8 {
		t.Errorf("extracted %d keywords, cap is 8", len(keywords))
	}
}

func TestExtractFallbackKeywordsAccented(t *testing.T) {
	keywords := ExtractFallbackKeywords("súťaž zneužívanie ťažkosti")
	want := []string{"súťaž", "zneužívanie", "ťažkosti"}
	if len(keywords) != len(want) {
		t.Fatalf("keywords = %v, want %v", keywords, want)
	}
	for i := range want {
		if keywords[i] != want[i] {
			t.Errorf("keywords[%d] = %q, want %q", i, keywords[i], want[i])
		}
	}
}

func TestBuildJudgeSearchQuery(t *testing.T) {
	topic := models.TopicDefinition{
		SearchKeywords: []string{"a", "b", "c", "d", "e", "f", "g", "h"},
	}
	if got := buildJudgeSearchQuery(topic); got != "a b c d e f" {
		t.Errorf("query = %q, want first 6 keywords", got)
	}

	noKeywords := models.TopicDefinition{
		TopicSummary: "one two three four five six seven eight nine ten",
	}
	if got := buildJudgeSearchQuery(noKeywords); got != "one two three four five six" {
		t.Errorf("query = %q, want first words of summary", got)
	}
}

func TestFormatCaseLawResults(t *testing.T) {
	results := map[string]scraper.Result{
		scraper.SourceCJEU: {Cases: []models.ExternalCase{
			{Title: "Intel v Commission", CaseNumber: "C-413/14 P", Date: "2017-09-06", URL: "https://example.com/intel"},
		}},
		scraper.SourceSlovLex: {Cases: []models.ExternalCase{
			{Title: "Rozhodnutie o kartelovej dohode", CaseNumber: "3Sžh/1/2020"},
		}},
		scraper.SourceEC: {},
	}

	got := FormatCaseLawResults(results)

	skIdx := strings.Index(got, "=== Slov-lex [SK] – Slovak Judicial Decisions ===")
	cjeuIdx := strings.Index(got, "=== CJEU / EUR-Lex [EU] – Court of Justice of the EU ===")
	if skIdx == -1 || cjeuIdx == -1 {
		t.Fatalf("missing source headers:\n%s", got)
	}
	if skIdx > cjeuIdx {
		t.Error("Slov-lex section should precede CJEU")
	}
	if strings.Contains(got, "European Commission") {
		t.Error("empty source should not render a header")
	}
	if !strings.Contains(got, "• Intel v Commission  [C-413/14 P]  (2017-09-06)") {
		t.Errorf("case line malformed:\n%s", got)
	}

	if FormatCaseLawResults(map[string]scraper.Result{}) != "" {
		t.Error("all-empty results should format to empty string")
	}
}

func TestAnalyzeNoCaseLawReturnsNotice(t *testing.T) {
	// Steps 1 and 4 consume one model call each; step 3 must not call
	// the model when search came back empty.
	caller := &fakeModelCaller{t: t, responses: []string{
		`{"legal_domain": "competition law", "legal_issues": ["cartel"], "jurisdictions": ["SK", "EU"], "search_keywords": ["kartel"], "topic_summary": "cartel agreement"}`,
		"Final opinion text.",
	}}
	external := &fakeSourceSearcher{results: map[string]scraper.Result{
		scraper.SourceSlovLex: {Source: scraper.SourceSlovLex},
		scraper.SourceCJEU:    {Source: scraper.SourceCJEU},
	}}
	j := NewJudge(caller, external, nopAuditor{}, testConfig())

	result, err := j.Analyze(context.Background(), "Dvaja súťažitelia si rozdelili trh.", "sk")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !strings.Contains(result.CaseLawAnalysis, "neboli pre danú tému nájdené žiadne konkrétne súdne rozhodnutia") {
		t.Errorf("expected Slovak no-case-law notice, got %q", result.CaseLawAnalysis)
	}
	if result.StepsCompleted != 4 {
		t.Errorf("steps completed = %d, want 4", result.StepsCompleted)
	}
	if result.Application != "Final opinion text." {
		t.Errorf("application = %q", result.Application)
	}
	if len(caller.calls) != 2 {
		t.Errorf("expected 2 model calls, got %d", len(caller.calls))
	}
}

func TestAnalyzeFullPipeline(t *testing.T) {
	caller := &fakeModelCaller{t: t, responses: []string{
		`{"legal_domain": "competition law", "legal_issues": ["abuse of dominance"], "jurisdictions": ["EU"], "search_keywords": ["dominance", "abuse"], "topic_summary": "dominant position abuse"}`,
		"Case law analysis text.",
		"Application text.",
	}}
	external := &fakeSourceSearcher{results: map[string]scraper.Result{
		scraper.SourceCJEU: {Cases: []models.ExternalCase{
			{Title: "Intel v Commission", CaseNumber: "C-413/14 P", Jurisdiction: "EU"},
		}},
	}}
	j := NewJudge(caller, external, nopAuditor{}, testConfig())

	result, err := j.Analyze(context.Background(), "A dominant firm refused to supply.", "en")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.CaseLawAnalysis != "Case law analysis text." {
		t.Errorf("analysis = %q", result.CaseLawAnalysis)
	}
	if len(result.Sources) != 1 || result.Sources[0].CaseNumber != "C-413/14 P" {
		t.Errorf("sources = %+v", result.Sources)
	}
	if result.Topic.LegalDomain != "competition law" {
		t.Errorf("domain = %q", result.Topic.LegalDomain)
	}

	// Step 3 prompt carries the retrieved case law.
	if !strings.Contains(caller.calls[1].content, "Intel v Commission") {
		t.Errorf("analysis prompt missing retrieved case:\n%s", caller.calls[1].content)
	}
	// All three steps use the deep model.
	for i, call := range caller.calls {
		if call.role != "deep" {
			t.Errorf("call %d role = %q, want deep", i, call.role)
		}
	}
}

func TestDefineTopicFallbackOnModelFailure(t *testing.T) {
	caller := &fakeModelCaller{t: t, failAll: true}
	j := NewJudge(caller, &fakeSourceSearcher{}, nopAuditor{}, testConfig())

	topic := j.defineTopic(context.Background(), "Kartelová dohoda o cenách medzi výrobcami ocele.", "sk")
	if topic.LegalDomain != "general law" {
		t.Errorf("fallback domain = %q, want general law", topic.LegalDomain)
	}
	if len(topic.Jurisdictions) != 2 {
		t.Errorf("fallback jurisdictions = %v, want SK and EU", topic.Jurisdictions)
	}
	if len(topic.SearchKeywords) == 0 {
		t.Error("fallback should extract keywords from the description")
	}
	if topic.TopicSummary == "" {
		t.Error("fallback should preserve the description as summary")
	}
}

func TestDefineTopicFallbackOnBadJSON(t *testing.T) {
	caller := &fakeModelCaller{t: t, responses: []string{"I cannot produce JSON, sorry."}}
	j := NewJudge(caller, &fakeSourceSearcher{}, nopAuditor{}, testConfig())

	topic := j.defineTopic(context.Background(), "Zneužívanie dominantného postavenia na trhu.", "sk")
	if topic.LegalDomain != "general law" {
		t.Errorf("fallback domain = %q", topic.LegalDomain)
	}
	if len(topic.SearchKeywords) == 0 {
		t.Error("fallback keywords empty")
	}
}
