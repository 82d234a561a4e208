package pipeline

import (
	"context"
	"math"
	"strings"
	"testing"

	"legislative-ai-assist/models"
)

func TestBuildContextEmpty(t *testing.T) {
	if got := BuildContext(nil, nil); got != "No relevant documents found in the database." {
		t.Errorf("empty context = %q", got)
	}
}

func TestBuildContextNumbersChunksAndCases(t *testing.T) {
	chunks := []models.ScoredChunk{
		{Content: "Zákaz dohôd obmedzujúcich súťaž.", Jurisdiction: "SK"},
		{Content: "Article 101 TFEU prohibits cartels.", Jurisdiction: "EU"},
	}
	cases := []models.ExternalCase{
		{Title: "Komisia v. Acme", CaseNumber: "AT.12345", Date: "2024-05-01", URL: "https://example.com/at12345", Summary: "Cartel fine upheld.", Jurisdiction: "EU"},
	}

	got := BuildContext(chunks, cases)

	for _, want := range []string{
		"Source 1 [SK]:\nZákaz dohôd obmedzujúcich súťaž.",
		"Source 2 [EU]:\nArticle 101 TFEU prohibits cartels.",
		"Source 3 [EU] (court case):\nKomisia v. Acme",
		"Case number: AT.12345",
		"Date: 2024-05-01",
		"Summary: Cartel fine upheld.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "\n\n---\n\n") != 2 {
		t.Errorf("expected 2 separators between 3 blocks:\n%s", got)
	}
}

func TestConfidence(t *testing.T) {
	if got := Confidence(nil, nil); got != 0.0 {
		t.Errorf("no sources confidence = %v, want 0.0", got)
	}

	chunks := []models.ScoredChunk{{RRFScore: 0.004}, {RRFScore: 0.008}}
	cases := []models.ExternalCase{{RelevanceScore: 6.0}} // pooled as 0.6
	// avg(0.004, 0.008, 0.6) * 100 = 20.4 -> clamped to 1.0
	if got := Confidence(chunks, cases); got != 1.0 {
		t.Errorf("confidence = %v, want clamp to 1.0", got)
	}

	low := []models.ScoredChunk{{RRFScore: 0.003}, {RRFScore: 0.005}}
	got := Confidence(low, nil)
	if math.Abs(got-0.4) > 1e-9 {
		t.Errorf("confidence = %v, want 0.4", got)
	}
}

func TestGenerateAndVerifyCorrectionSubstitutes(t *testing.T) {
	caller := &fakeModelCaller{t: t, responses: []string{
		"Draft answer citing Source 1.",
		`{"verified": false, "issues": ["missing citation"], "corrected_response": "Corrected answer [SK]."}`,
	}}
	g := NewGenerator(caller, nopAuditor{}, testConfig())
	chunks := []models.ScoredChunk{{Content: "text", Jurisdiction: "SK", RRFScore: 0.01}}

	result, err := g.GenerateAndVerify(context.Background(), "Je kartel zakázaný?", chunks, nil, "sk", nil, models.ComplexitySimple)
	if err != nil {
		t.Fatalf("GenerateAndVerify failed: %v", err)
	}
	if result.Response != "Corrected answer [SK]." {
		t.Errorf("response = %q, want corrected text", result.Response)
	}
	if result.Verified {
		t.Error("verified should reflect the original draft's judgment")
	}
	if len(result.VerificationIssues) != 1 || result.VerificationIssues[0] != "missing citation" {
		t.Errorf("issues = %v", result.VerificationIssues)
	}
	if len(caller.calls) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(caller.calls))
	}
	if caller.calls[0].role != "light" {
		t.Errorf("simple query should use the light model, got %q", caller.calls[0].role)
	}
	if caller.calls[1].role != "light" {
		t.Errorf("verification should use the light model, got %q", caller.calls[1].role)
	}
}

func TestGenerateComplexUsesDeepModel(t *testing.T) {
	caller := &fakeModelCaller{t: t, responses: []string{
		"Deep answer.",
		`{"verified": true}`,
	}}
	g := NewGenerator(caller, nopAuditor{}, testConfig())
	chunks := []models.ScoredChunk{{Content: "text", Jurisdiction: "EU", RRFScore: 0.01}}

	result, err := g.GenerateAndVerify(context.Background(), "Analyze this merger", chunks, nil, "en", nil, models.ComplexityComplex)
	if err != nil {
		t.Fatalf("GenerateAndVerify failed: %v", err)
	}
	if caller.calls[0].role != "deep" {
		t.Errorf("complex query should use the deep model, got %q", caller.calls[0].role)
	}
	if !result.Verified {
		t.Error("expected verified result")
	}
}

func TestGenerateSkipsVerificationWithoutChunks(t *testing.T) {
	// Only one canned response: a second call would fail the test.
	caller := &fakeModelCaller{t: t, responses: []string{"Answer from cases only."}}
	g := NewGenerator(caller, nopAuditor{}, testConfig())
	cases := []models.ExternalCase{{Title: "Case", CaseNumber: "C-1/20", Jurisdiction: "EU", RelevanceScore: 3}}

	result, err := g.GenerateAndVerify(context.Background(), "question", nil, cases, "en", nil, models.ComplexitySimple)
	if err != nil {
		t.Fatalf("GenerateAndVerify failed: %v", err)
	}
	if !result.Verified {
		t.Error("unverifiable answers pass through as verified")
	}
	if len(caller.calls) != 1 {
		t.Errorf("expected 1 model call, got %d", len(caller.calls))
	}
	if len(result.Sources) != 1 || result.Sources[0].Type != models.SourceTypeCourtCase {
		t.Errorf("sources = %+v", result.Sources)
	}
}

func TestGenerateVerificationEmitsAudit(t *testing.T) {
	caller := &fakeModelCaller{t: t, responses: []string{
		"Draft answer.",
		`{"verified": true}`,
	}}
	audit := &recordingAuditor{}
	g := NewGenerator(caller, audit, testConfig())
	chunks := []models.ScoredChunk{{Content: "text", Jurisdiction: "SK", RRFScore: 0.01}}

	if _, err := g.GenerateAndVerify(context.Background(), "q", chunks, nil, "en", nil, models.ComplexitySimple); err != nil {
		t.Fatalf("GenerateAndVerify failed: %v", err)
	}
	if len(audit.records) != 1 {
		t.Fatalf("got %d audit records, want 1", len(audit.records))
	}
	if audit.records[0].Operation != "verification" {
		t.Errorf("operation = %q, want verification", audit.records[0].Operation)
	}
	if audit.records[0].Model != "test-model" {
		t.Errorf("model = %q", audit.records[0].Model)
	}
}

func TestGenerateVerificationFailsOpen(t *testing.T) {
	caller := &fakeModelCaller{t: t, responses: []string{
		"Draft answer.",
		"this is not json",
	}}
	g := NewGenerator(caller, nopAuditor{}, testConfig())
	chunks := []models.ScoredChunk{{Content: "text", RRFScore: 0.01}}

	result, err := g.GenerateAndVerify(context.Background(), "q", chunks, nil, "en", nil, models.ComplexitySimple)
	if err != nil {
		t.Fatalf("GenerateAndVerify failed: %v", err)
	}
	if !result.Verified || result.Response != "Draft answer." {
		t.Errorf("unparseable verification should accept the draft, got verified=%v response=%q", result.Verified, result.Response)
	}
}

func TestBuildMessagesIncludesLanguageSuffixAndHistory(t *testing.T) {
	caller := &fakeModelCaller{t: t, responses: []string{"Odpoveď."}}
	g := NewGenerator(caller, nopAuditor{}, testConfig())

	history := []models.Message{
		{Role: "user", Content: "Prvá otázka"},
		{Role: "assistant", Content: "Prvá odpoveď", Sources: []models.SourceInfo{
			{Jurisdiction: "SK", Reference: "Zákon č. 187/2021"},
		}},
	}

	_, err := g.GenerateAndVerify(context.Background(), "Druhá otázka", nil, nil, "sk", history, models.ComplexitySimple)
	if err != nil {
		t.Fatalf("GenerateAndVerify failed: %v", err)
	}

	call := caller.calls[0]
	if !strings.Contains(call.system, "Odpovedaj po slovensky.") {
		t.Errorf("system prompt missing Slovak suffix: %q", call.system)
	}
	if !strings.Contains(call.content, "Druhá otázka") {
		t.Errorf("user message missing query: %q", call.content)
	}
	if !strings.Contains(call.content, "No relevant documents found") {
		t.Errorf("empty evidence should carry the fixed notice: %q", call.content)
	}
}

func TestAnnotateHistoryMessage(t *testing.T) {
	msg := models.Message{
		Role:    "assistant",
		Content: "Answer text",
		Sources: []models.SourceInfo{
			{Jurisdiction: "SK", Reference: "Zákon č. 187/2021"},
			{Jurisdiction: "EU", Title: "Regulation 1/2003"},
			{Jurisdiction: "EU", Reference: "C-67/13 P"},
			{Jurisdiction: "SK", Reference: "never shown"},
		},
	}

	got := annotateHistoryMessage(msg)
	if !strings.Contains(got, "[Previously cited: [SK] Zákon č. 187/2021; [EU] Regulation 1/2003; [EU] C-67/13 P]") {
		t.Errorf("annotation = %q", got)
	}
	if strings.Contains(got, "never shown") {
		t.Error("annotation should cap at 3 references")
	}

	plain := models.Message{Role: "user", Content: "Question"}
	if got := annotateHistoryMessage(plain); got != "Question" {
		t.Errorf("user messages pass through unchanged, got %q", got)
	}
}
