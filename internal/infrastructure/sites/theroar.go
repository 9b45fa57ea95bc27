package sites

import (
	"context"
	"fmt"
	"log/slog"

	"bearwatch/internal/config"
	"bearwatch/internal/infrastructure/fetch"
	"bearwatch/internal/source"
)

// TheRoar scrapes theroar.com.au rugby league coverage.
type TheRoar struct {
	client *fetch.Client
	logger *slog.Logger
}

var _ source.Scraper = (*TheRoar)(nil)

// NewTheRoar wires the shared polite client.
func NewTheRoar(client *fetch.Client, logger *slog.Logger) *TheRoar {
	return &TheRoar{client: client, logger: logger}
}

// Name identifies the strategy inside the registry.
func (t *TheRoar) Name() string {
	return "theroar"
}

// ListCandidates extracts article links, skipping author/tag/category pages.
func (t *TheRoar) ListCandidates(ctx context.Context, cfg config.SourceConfig) ([]source.Candidate, error) {
	doc, err := fetchDocument(ctx, t.client, cfg.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", cfg.ListingURL, err)
	}

	return collectCandidates(doc, cfg.BaseURL, listingRules{
		selectors: []string{"article a", ".article-card a", "a.article-link", ".post-item a"},
		skip:      []string{"/author/", "/tag/", "/category/", "#"},
	}), nil
}

// FetchArticle downloads and parses a single article page.
func (t *TheRoar) FetchArticle(ctx context.Context, articleURL string) (*source.Extract, error) {
	doc, err := fetchDocument(ctx, t.client, articleURL)
	if err != nil {
		return nil, err
	}

	title := firstText(doc, "h1.entry-title", "h1.article-title", "article h1", ".post-title", "h1")
	if title == "" {
		return nil, fmt.Errorf("no title found at %s", articleURL)
	}

	return &source.Extract{
		Title:       title,
		Summary:     firstText(doc, ".article-standfirst", ".entry-content > p:first-of-type", ".lead", "article p:first-of-type"),
		FullText:    paragraphText(doc, ".entry-content", ".article-content", ".post-content", "article .content"),
		PublishedAt: publishedAt(doc, "time[datetime]", ".entry-date", ".post-date", ".published"),
	}, nil
}
