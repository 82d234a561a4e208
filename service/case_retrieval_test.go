package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"legislative-ai-assist/models"
	"legislative-ai-assist/scraper"
)

const testRSSFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <item>
      <title>Rozsudok vo veci kartelovej dohody</title>
      <link>https://example.com/rozhodnutia/3szh-1-2024</link>
      <description>Súd potvrdil pokutu za kartel.</description>
      <pubDate>Fri, 21 Feb 2025 10:00:00 +0100</pubDate>
    </item>
  </channel>
</rss>`

func TestRankCases(t *testing.T) {
	cases := []models.ExternalCase{
		{Title: "Unrelated building permit", Topic: "zoning dispute"},
		{Title: "Cartel fine decision", Topic: "price fixing cartel"},
		{Title: "Merger review", Topic: "cartel mentioned in passing"},
	}

	ranked := RankCases(cases, "cartel fine")

	if ranked[0].Title != "Cartel fine decision" {
		t.Errorf("top case = %q", ranked[0].Title)
	}
	// Title matches for both words (3+3) plus one topic match.
	if ranked[0].RelevanceScore != 7 {
		t.Errorf("top score = %v, want 7", ranked[0].RelevanceScore)
	}
	// Only a topic match.
	if ranked[1].Title != "Merger review" || ranked[1].RelevanceScore != 1 {
		t.Errorf("second case = %q score %v", ranked[1].Title, ranked[1].RelevanceScore)
	}
	if ranked[2].RelevanceScore != 0 {
		t.Errorf("unrelated case score = %v, want 0", ranked[2].RelevanceScore)
	}

	// The input slice is left untouched.
	if cases[0].RelevanceScore != 0 || cases[0].Title != "Unrelated building permit" {
		t.Error("RankCases mutated its input")
	}
}

func TestRankCasesTopicWithoutSummary(t *testing.T) {
	// CJEU and Commission hits carry a topic tag but no summary text;
	// the tag alone must still contribute to the score.
	cases := []models.ExternalCase{
		{Title: "Intel v Commission", CaseNumber: "C-413/14 P", Topic: "competition law"},
	}

	ranked := RankCases(cases, "competition law")
	if ranked[0].RelevanceScore != 2 {
		t.Errorf("score = %v, want 2 topic-word matches", ranked[0].RelevanceScore)
	}
}

func TestRankCasesCaseNumberBonus(t *testing.T) {
	cases := []models.ExternalCase{
		{Title: "Decision one", CaseNumber: "AT.40099"},
		{Title: "Decision two", CaseNumber: "M.8870"},
	}

	ranked := RankCases(cases, "40099")
	if ranked[0].CaseNumber != "AT.40099" || ranked[0].RelevanceScore != 1 {
		t.Errorf("case number bonus not applied: %+v", ranked[0])
	}
}

func TestRankCasesStableOnTies(t *testing.T) {
	cases := []models.ExternalCase{
		{Title: "first"},
		{Title: "second"},
		{Title: "third"},
	}
	ranked := RankCases(cases, "nothing matches")
	for i, want := range []string{"first", "second", "third"} {
		if ranked[i].Title != want {
			t.Errorf("ranked[%d] = %q, want %q", i, ranked[i].Title, want)
		}
	}
}

func TestSearchCasesCachesResults(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSSFeed))
	}))
	defer server.Close()

	// PMU returns errors so only NSSUD contributes; a degraded source
	// must not poison the cache.
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	svc := NewCaseRetrievalService(
		CaseRetrievalWithNSSUD(scraper.NewNSSUDScraper(server.URL)),
		CaseRetrievalWithPMU(scraper.NewPMUScraper(failing.URL)),
	)

	first := svc.SearchCases(context.Background(), "kartel", "SK", "", "", 5)
	if len(first) != 1 {
		t.Fatalf("got %d cases, want 1", len(first))
	}
	firstHits := atomic.LoadInt32(&hits)

	second := svc.SearchCases(context.Background(), "kartel", "SK", "", "", 5)
	if len(second) != 1 {
		t.Fatalf("cached search returned %d cases", len(second))
	}
	if atomic.LoadInt32(&hits) != firstHits {
		t.Error("second identical query should be served from cache")
	}
}

func TestSearchCasesCacheExpiry(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSSFeed))
	}))
	defer server.Close()
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	current := time.Now()
	svc := NewCaseRetrievalService(
		CaseRetrievalWithNSSUD(scraper.NewNSSUDScraper(server.URL)),
		CaseRetrievalWithPMU(scraper.NewPMUScraper(failing.URL)),
		CaseRetrievalWithTTL(time.Hour),
		CaseRetrievalWithClock(func() time.Time { return current }),
	)

	svc.SearchCases(context.Background(), "kartel", "SK", "", "", 5)
	hitsAfterFirst := atomic.LoadInt32(&hits)

	current = current.Add(59 * time.Minute)
	svc.SearchCases(context.Background(), "kartel", "SK", "", "", 5)
	if atomic.LoadInt32(&hits) != hitsAfterFirst {
		t.Error("entry expired before the TTL elapsed")
	}

	current = current.Add(2 * time.Minute)
	svc.SearchCases(context.Background(), "kartel", "SK", "", "", 5)
	if atomic.LoadInt32(&hits) == hitsAfterFirst {
		t.Error("expired entry should trigger a fresh fetch")
	}
}

func TestSearchCasesJurisdictionIsolation(t *testing.T) {
	skServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSSFeed))
	}))
	defer skServer.Close()
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer failing.Close()

	svc := NewCaseRetrievalService(
		CaseRetrievalWithNSSUD(scraper.NewNSSUDScraper(skServer.URL)),
		CaseRetrievalWithPMU(scraper.NewPMUScraper(failing.URL)),
		CaseRetrievalWithEurLex(scraper.NewEurLexService(failing.URL, failing.URL)),
	)

	// EU sources are down; SK results must still come through.
	cases := svc.SearchCases(context.Background(), "kartel", "", "", "", 5)
	if len(cases) != 1 {
		t.Fatalf("got %d cases, want 1 from the healthy SK source", len(cases))
	}
	if cases[0].Source != "NSSUD" {
		t.Errorf("case source = %q", cases[0].Source)
	}
}
