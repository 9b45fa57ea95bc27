package sites

import (
	"context"
	"fmt"
	"log/slog"

	"bearwatch/internal/config"
	"bearwatch/internal/infrastructure/fetch"
	"bearwatch/internal/source"
)

// NRL scrapes the official NRL.com news listing.
type NRL struct {
	client *fetch.Client
	logger *slog.Logger
}

var _ source.Scraper = (*NRL)(nil)

// NewNRL wires the shared polite client.
func NewNRL(client *fetch.Client, logger *slog.Logger) *NRL {
	return &NRL{client: client, logger: logger}
}

// Name identifies the strategy inside the registry.
func (n *NRL) Name() string {
	return "nrl"
}

// ListCandidates extracts article links from the NRL.com news page. The site
// mixes several card markups, so multiple selectors are tried and results
// deduplicated by URL.
func (n *NRL) ListCandidates(ctx context.Context, cfg config.SourceConfig) ([]source.Candidate, error) {
	doc, err := fetchDocument(ctx, n.client, cfg.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", cfg.ListingURL, err)
	}

	return collectCandidates(doc, cfg.BaseURL, listingRules{
		selectors:   []string{"article a[href*='/news/']", ".news-card a", ".article-card a"},
		mustContain: []string{"/news/"},
	}), nil
}

// FetchArticle downloads and parses a single NRL.com article.
func (n *NRL) FetchArticle(ctx context.Context, articleURL string) (*source.Extract, error) {
	doc, err := fetchDocument(ctx, n.client, articleURL)
	if err != nil {
		return nil, err
	}

	title := firstText(doc, "h1.article-title", "h1.headline", "article h1", "h1")
	if title == "" {
		return nil, fmt.Errorf("no title found at %s", articleURL)
	}

	return &source.Extract{
		Title:       title,
		Summary:     firstText(doc, ".article-standfirst", ".article-summary", ".standfirst", "article p:first-of-type"),
		FullText:    paragraphText(doc, ".article-content", ".article-body", "article .content", ".story-content"),
		PublishedAt: publishedAt(doc, "time[datetime]", ".article-date", ".published-date", ".date"),
	}, nil
}
