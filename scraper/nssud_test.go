package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const nssudFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>NSSUD</title>
<item>
<title>Súd potvrdil pokutu za kartelovú dohodu stavebných firiem</title>
<link>https://www.nssud.sk/2026/02/sud-potvrdil-pokutu-kartel/</link>
<description>Najvyšší správny súd potvrdil rozhodnutie o kartelovej dohode.</description>
<pubDate>Fri, 21 Feb 2026 12:00:00 +0000</pubDate>
</item>
<item>
<title>Nová budova súdu slávnostne otvorená</title>
<link>https://www.nssud.sk/2026/02/nova-budova/</link>
<description>Slávnostné otvorenie novej budovy.</description>
<pubDate>Thu, 20 Feb 2026 09:00:00 +0000</pubDate>
</item>
<item>
<title>Zneužívanie dominantného postavenia na trhu energií</title>
<link>https://www.nssud.sk/2026/01/dominantne-postavenie-energie/</link>
<description>Rozhodnutie vo veci zneužívania dominantného postavenia.</description>
<pubDate>Mon, 5 Jan 2026 10:00:00 +0000</pubDate>
</item>
</channel>
</rss>`

func TestNSSUDSearchFiltersCompetitionItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed/" {
			t.Errorf("path = %q, want /feed/", r.URL.Path)
		}
		w.Write([]byte(nssudFixture))
	}))
	defer srv.Close()

	s := NewNSSUDScraper(srv.URL)
	res := s.Search(context.Background(), 10)

	if res.Degraded {
		t.Fatalf("unexpected degraded result: %v", res.Err)
	}
	if len(res.Cases) != 2 {
		t.Fatalf("got %d cases, want 2 (building news filtered out)", len(res.Cases))
	}

	first := res.Cases[0]
	if first.Date != "2026-02-21" {
		t.Errorf("date = %q, want 2026-02-21", first.Date)
	}
	if first.CaseNumber != "sud-potvrdil-pokutu-kartel" {
		t.Errorf("case number = %q", first.CaseNumber)
	}
	if first.Type != "court_decision" || first.Topic != "hospodárska súťaž" {
		t.Errorf("type = %q, topic = %q", first.Type, first.Topic)
	}
	if first.ScrapedAt == "" {
		t.Error("scraped_at should be set")
	}
	if first.Court != "Najvyšší správny súd SR" {
		t.Errorf("court = %q", first.Court)
	}

	if res.Cases[1].Date != "2026-01-05" {
		t.Errorf("single-digit day not padded: %q", res.Cases[1].Date)
	}
}

func TestNSSUDSearchMalformedFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not a feed"))
	}))
	defer srv.Close()

	s := NewNSSUDScraper(srv.URL)
	res := s.Search(context.Background(), 10)
	if !res.Degraded {
		t.Error("expected degraded result for malformed feed")
	}
}
