package sites

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bearwatch/internal/config"
	"bearwatch/internal/infrastructure/fetch"
)

func newTestClient(srv *httptest.Server) *fetch.Client {
	return fetch.NewClient(config.ScraperConfig{
		MaxRetries: 1,
		Timeout:    5 * time.Second,
		UserAgents: []string{"test-agent/1.0"},
	}, srv.Client(), nil)
}

func TestNRLListCandidates(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/news", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<article><a href="/news/bears-name-captain"><h3>Bears name inaugural captain</h3></a></article>
			<article><a href="/news/bears-name-captain"><h3>Bears name inaugural captain</h3></a></article>
			<article><a href="/ladder"><h3>Ladder</h3></a></article>
		</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	scraper := NewNRL(newTestClient(srv), nil)
	candidates, err := scraper.ListCandidates(context.Background(), config.SourceConfig{
		BaseURL:    srv.URL,
		ListingURL: srv.URL + "/news",
	})
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(candidates), candidates)
	}
	if candidates[0].URL != srv.URL+"/news/bears-name-captain" {
		t.Fatalf("unexpected url: %s", candidates[0].URL)
	}
	if candidates[0].Title != "Bears name inaugural captain" {
		t.Fatalf("unexpected title: %s", candidates[0].Title)
	}
}

func TestNRLFetchArticle(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/news/bears-name-captain", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><article>
			<h1>Bears name inaugural captain</h1>
			<time datetime="2026-03-14T10:00:00Z">14 March 2026</time>
			<div class="article-content">
				<p>The Perth Bears have named their captain.</p>
				<p>The announcement came on Saturday.</p>
			</div>
		</article></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	scraper := NewNRL(newTestClient(srv), nil)
	extract, err := scraper.FetchArticle(context.Background(), srv.URL+"/news/bears-name-captain")
	if err != nil {
		t.Fatalf("fetch article: %v", err)
	}

	if extract.Title != "Bears name inaugural captain" {
		t.Fatalf("unexpected title: %q", extract.Title)
	}
	if extract.FullText != "The Perth Bears have named their captain. The announcement came on Saturday." {
		t.Fatalf("unexpected full text: %q", extract.FullText)
	}
	want := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	if extract.PublishedAt == nil || !extract.PublishedAt.Equal(want) {
		t.Fatalf("unexpected published date: %v", extract.PublishedAt)
	}
}

func TestNineListCandidatesSurvivesFailedPage(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/sport/nrl", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<article><a href="/nrl/bears-roster-takes-shape">Bears roster takes shape</a></article>
			<article><a href="/nrl/bears-roster-takes-shape">Bears roster takes shape ahead of debut season</a></article>
			<article><a href="/nrl/live-scores/round-4">Live scores round four</a></article>
			<article><a href="/nrl/tiny">Short</a></article>
			<article><a href="/lifestyle/recipes">Weeknight recipes to try now</a></article>
		</body></html>`))
	})
	mux.HandleFunc("/topic/perth-bears", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	scraper := NewNine(newTestClient(srv), nil)
	candidates, err := scraper.ListCandidates(context.Background(), config.SourceConfig{
		BaseURL:    srv.URL,
		ListingURL: srv.URL + "/sport/nrl",
		ExtraPages: []string{srv.URL + "/topic/perth-bears"},
	})
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(candidates), candidates)
	}
	// The longest title seen for a URL wins.
	if candidates[0].Title != "Bears roster takes shape ahead of debut season" {
		t.Fatalf("unexpected title: %s", candidates[0].Title)
	}
}

func TestNineListCandidatesAllPagesFailed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	scraper := NewNine(newTestClient(srv), nil)
	_, err := scraper.ListCandidates(context.Background(), config.SourceConfig{
		BaseURL:    srv.URL,
		ListingURL: srv.URL + "/sport/nrl",
	})
	if err == nil {
		t.Fatal("expected an error when every listing page fails")
	}
}

func TestNewsNowListCandidates(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/nrl", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<a href="https://c.newsnow.com/A/1234?x=1">Perth Bears close in on marquee signing</a>
			<a href="https://c.newsnow.com/A/1234?x=1">Perth Bears close in on marquee signing</a>
			<a href="https://c.newsnow.com/A/5678?x=2">Short</a>
			<a href="/nrl/other">An internal navigation link here</a>
		</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	scraper := NewNewsNow(newTestClient(srv), nil)
	candidates, err := scraper.ListCandidates(context.Background(), config.SourceConfig{
		BaseURL:    srv.URL,
		ListingURL: srv.URL + "/nrl",
	})
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(candidates), candidates)
	}
	if candidates[0].Title != "Perth Bears close in on marquee signing" {
		t.Fatalf("unexpected title: %s", candidates[0].Title)
	}

	extract, err := scraper.FetchArticle(context.Background(), candidates[0].URL)
	if err != nil {
		t.Fatalf("fetch article: %v", err)
	}
	if extract != nil {
		t.Fatalf("expected title-only source to return no extract, got %+v", extract)
	}
}

func TestRSSListCandidatesAndFetch(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
	<title>NRL News</title>
	<item>
		<title>Bears sign veteran prop</title>
		<link>https://example.com/bears-sign-veteran-prop</link>
		<description>The club confirmed the signing.</description>
		<pubDate>Sat, 14 Mar 2026 10:00:00 GMT</pubDate>
	</item>
	<item>
		<title>Item without a link</title>
	</item>
</channel></rss>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	scraper := NewRSS(newTestClient(srv), nil)
	candidates, err := scraper.ListCandidates(context.Background(), config.SourceConfig{
		BaseURL: "https://example.com",
		FeedURL: srv.URL + "/feed",
	})
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(candidates), candidates)
	}
	if candidates[0].URL != "https://example.com/bears-sign-veteran-prop" {
		t.Fatalf("unexpected url: %s", candidates[0].URL)
	}

	extract, err := scraper.FetchArticle(context.Background(), candidates[0].URL)
	if err != nil {
		t.Fatalf("fetch article: %v", err)
	}
	if extract == nil || extract.Title != "Bears sign veteran prop" {
		t.Fatalf("unexpected extract: %+v", extract)
	}
	if extract.Summary != "The club confirmed the signing." {
		t.Fatalf("unexpected summary: %q", extract.Summary)
	}
	if extract.PublishedAt == nil {
		t.Fatal("expected a published date from the feed")
	}

	if _, err := scraper.FetchArticle(context.Background(), "https://example.com/unknown"); err == nil {
		t.Fatal("expected an error for a url missing from the last listing")
	}
}
