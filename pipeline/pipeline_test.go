package pipeline

import (
	"context"
	"testing"

	"legislative-ai-assist/config"
	"legislative-ai-assist/llm"
	"legislative-ai-assist/models"
	"legislative-ai-assist/scraper"
)

// fakeModelCaller replays canned responses and records the calls made.
type fakeModelCaller struct {
	t         *testing.T
	responses []string
	calls     []fakeCall
	failAll   bool
}

type fakeCall struct {
	role    string
	system  string
	content string
}

func (f *fakeModelCaller) Call(ctx context.Context, role, system string, messages []llm.Message, opts ...llm.CallOption) (*llm.Result, error) {
	if f.failAll {
		return nil, llm.ErrEmptyResponse
	}
	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	f.calls = append(f.calls, fakeCall{role: role, system: system, content: last})

	if len(f.responses) == 0 {
		f.t.Fatalf("unexpected model call with role %q", role)
	}
	content := f.responses[0]
	f.responses = f.responses[1:]
	return &llm.Result{Content: content, Model: "test-model", Provider: "test"}, nil
}

type fakeDetector struct{ lang string }

func (f fakeDetector) Detect(string) string { return f.lang }

type nopAuditor struct{}

func (nopAuditor) Log(context.Context, models.AuditRecord) {}

// recordingAuditor keeps every logged record for assertions.
type recordingAuditor struct {
	records []models.AuditRecord
}

func (r *recordingAuditor) Log(_ context.Context, record models.AuditRecord) {
	r.records = append(r.records, record)
}

type fakeEmbedder struct{ vec []float32 }

func (f fakeEmbedder) Embed(context.Context, string) ([]float32, error) { return f.vec, nil }

// fakeChunkSearcher returns preconfigured chunks per jurisdiction.
type fakeChunkSearcher struct {
	byJurisdiction map[string][]models.ScoredChunk
	calls          []string
}

func (f *fakeChunkSearcher) HybridSearch(ctx context.Context, embedding []float32, query, jurisdiction string, limit int, vw, fw float64, rrfK int) ([]models.ScoredChunk, error) {
	f.calls = append(f.calls, jurisdiction)
	return f.byJurisdiction[jurisdiction], nil
}

type fakeCaseSearcher struct {
	cases  []models.ExternalCase
	called bool
}

func (f *fakeCaseSearcher) SearchCases(ctx context.Context, query, jurisdiction, dateFrom, dateTo string, limit int) []models.ExternalCase {
	f.called = true
	return f.cases
}

type fakeSourceSearcher struct {
	results map[string]scraper.Result
}

func (f *fakeSourceSearcher) SearchAllSources(ctx context.Context, query string, maxPerSource int, includeSK, includeEC, includeCJEU bool) map[string]scraper.Result {
	return f.results
}

func testConfig() *config.Config {
	return config.Defaults()
}
