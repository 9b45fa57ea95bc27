package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"bearwatch/internal/domain"
	"bearwatch/internal/ports"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "articles.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleArticle(url string) *domain.Article {
	published := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	return &domain.Article{
		URL:             url,
		Title:           "Bears confirm squad",
		Source:          "NRL.com",
		Summary:         "A summary",
		FullText:        "Full text of the article",
		PublishedAt:     &published,
		MatchedKeywords: []string{"Perth Bears"},
		Relevance:       domain.RelevancePrimary,
	}
}

func TestInsertIfAbsent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	inserted, err := store.InsertIfAbsent(ctx, sampleArticle("https://example.com/a"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !inserted {
		t.Fatal("expected first insert to report true")
	}

	inserted, err = store.InsertIfAbsent(ctx, sampleArticle("https://example.com/a"))
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if inserted {
		t.Fatal("expected duplicate insert to report false")
	}

	count, err := store.Count(ctx, ports.ArticleFilter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 stored article, got %d", count)
	}
}

func TestInsertIfAbsentConcurrent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	const attempts = 8
	results := make(chan bool, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := store.InsertIfAbsent(ctx, sampleArticle("https://example.com/race"))
			if err != nil {
				t.Errorf("concurrent insert: %v", err)
				return
			}
			results <- inserted
		}()
	}
	wg.Wait()
	close(results)

	var winners int
	for inserted := range results {
		if inserted {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winning insert, got %d", winners)
	}

	count, err := store.Count(ctx, ports.ArticleFilter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single stored row, got %d", count)
	}
}

func TestGetRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	want := sampleArticle("https://example.com/roundtrip")
	if _, err := store.InsertIfAbsent(ctx, want); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := store.Get(ctx, want.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.Title != want.Title || got.Source != want.Source || got.Summary != want.Summary {
		t.Fatalf("unexpected article: %+v", got)
	}
	if got.Relevance != domain.RelevancePrimary {
		t.Fatalf("unexpected relevance: %d", got.Relevance)
	}
	if len(got.MatchedKeywords) != 1 || got.MatchedKeywords[0] != "Perth Bears" {
		t.Fatalf("unexpected keywords: %v", got.MatchedKeywords)
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(*want.PublishedAt) {
		t.Fatalf("unexpected published date: %v", got.PublishedAt)
	}
	if got.ScrapedAt.IsZero() {
		t.Fatal("scraped date should be set at insert time")
	}
	if got.IsRead {
		t.Fatal("new articles must start unread")
	}

	if _, err := store.Get(ctx, "https://example.com/missing"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryPagination(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		article := sampleArticle(fmt.Sprintf("https://example.com/page/%d", i))
		article.ScrapedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := store.InsertIfAbsent(ctx, article); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	page1, err := store.Query(ctx, ports.ArticleFilter{}, 1, 20)
	if err != nil {
		t.Fatalf("query page 1: %v", err)
	}
	if len(page1) != 20 {
		t.Fatalf("expected 20 articles on page 1, got %d", len(page1))
	}

	page2, err := store.Query(ctx, ports.ArticleFilter{}, 2, 20)
	if err != nil {
		t.Fatalf("query page 2: %v", err)
	}
	if len(page2) != 5 {
		t.Fatalf("expected 5 articles on page 2, got %d", len(page2))
	}

	// Newest first: page 1 starts with the most recently scraped row, and
	// the pages never overlap.
	if page1[0].URL != "https://example.com/page/24" {
		t.Fatalf("unexpected first article: %s", page1[0].URL)
	}
	seen := map[string]struct{}{}
	for _, a := range page1 {
		seen[a.URL] = struct{}{}
	}
	for _, a := range page2 {
		if _, dup := seen[a.URL]; dup {
			t.Fatalf("article %s appears on both pages", a.URL)
		}
	}
	if page2[4].URL != "https://example.com/page/0" {
		t.Fatalf("expected oldest article last on page 2, got %s", page2[4].URL)
	}
}

func TestQueryFilters(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	primary := sampleArticle("https://example.com/primary")
	secondary := sampleArticle("https://example.com/secondary")
	secondary.Source = "The Roar"
	secondary.Relevance = domain.RelevanceSecondary
	secondary.MatchedKeywords = []string{"NRL expansion"}

	for _, a := range []*domain.Article{primary, secondary} {
		if _, err := store.InsertIfAbsent(ctx, a); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	bySource, err := store.Query(ctx, ports.ArticleFilter{Source: "The Roar"}, 1, 20)
	if err != nil {
		t.Fatalf("query by source: %v", err)
	}
	if len(bySource) != 1 || bySource[0].URL != secondary.URL {
		t.Fatalf("unexpected source filter result: %+v", bySource)
	}

	highRelevance, err := store.Query(ctx, ports.ArticleFilter{MinRelevance: domain.RelevancePrimary}, 1, 20)
	if err != nil {
		t.Fatalf("query by relevance: %v", err)
	}
	if len(highRelevance) != 1 || highRelevance[0].URL != primary.URL {
		t.Fatalf("unexpected relevance filter result: %+v", highRelevance)
	}
}

func TestSetRead(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	article := sampleArticle("https://example.com/read")
	if _, err := store.InsertIfAbsent(ctx, article); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := store.SetRead(ctx, article.URL, true); err != nil {
		t.Fatalf("set read: %v", err)
	}

	unread, err := store.Query(ctx, ports.ArticleFilter{UnreadOnly: true}, 1, 20)
	if err != nil {
		t.Fatalf("query unread: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("read article still returned by unread query: %+v", unread)
	}

	// Idempotent, and reversible.
	if err := store.SetRead(ctx, article.URL, true); err != nil {
		t.Fatalf("repeat set read: %v", err)
	}
	if err := store.SetRead(ctx, article.URL, false); err != nil {
		t.Fatalf("set unread: %v", err)
	}

	unread, err = store.Query(ctx, ports.ArticleFilter{UnreadOnly: true}, 1, 20)
	if err != nil {
		t.Fatalf("query unread again: %v", err)
	}
	if len(unread) != 1 {
		t.Fatalf("expected article back in unread set, got %d", len(unread))
	}

	if err := store.SetRead(ctx, "https://example.com/nope", true); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound for unknown url, got %v", err)
	}
}

func TestStatsAndSources(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		a := sampleArticle(fmt.Sprintf("https://example.com/nrl/%d", i))
		if _, err := store.InsertIfAbsent(ctx, a); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	roar := sampleArticle("https://example.com/roar/1")
	roar.Source = "The Roar"
	if _, err := store.InsertIfAbsent(ctx, roar); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.SetRead(ctx, roar.URL, true); err != nil {
		t.Fatalf("set read: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 4 || stats.Unread != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.BySource["NRL.com"] != 3 || stats.BySource["The Roar"] != 1 {
		t.Fatalf("unexpected per-source counts: %v", stats.BySource)
	}

	sources, err := store.Sources(ctx)
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if len(sources) != 2 || sources[0] != "NRL.com" || sources[1] != "The Roar" {
		t.Fatalf("unexpected sources: %v", sources)
	}
}

func TestLastChecked(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	got, err := store.LastChecked(ctx)
	if err != nil {
		t.Fatalf("last checked: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil before any cycle, got %v", got)
	}

	want := time.Date(2026, time.March, 14, 12, 30, 0, 0, time.UTC)
	if err := store.SetLastChecked(ctx, want); err != nil {
		t.Fatalf("set last checked: %v", err)
	}
	// Overwrites, does not accumulate rows.
	if err := store.SetLastChecked(ctx, want.Add(time.Hour)); err != nil {
		t.Fatalf("set last checked again: %v", err)
	}

	got, err = store.LastChecked(ctx)
	if err != nil {
		t.Fatalf("last checked: %v", err)
	}
	if got == nil || !got.Equal(want.Add(time.Hour)) {
		t.Fatalf("unexpected last checked: %v", got)
	}
}
