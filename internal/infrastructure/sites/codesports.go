package sites

import (
	"context"
	"fmt"
	"log/slog"

	"bearwatch/internal/config"
	"bearwatch/internal/infrastructure/fetch"
	"bearwatch/internal/source"
)

// CodeSports scrapes codesports.com.au NRL coverage.
type CodeSports struct {
	client *fetch.Client
	logger *slog.Logger
}

var _ source.Scraper = (*CodeSports)(nil)

// NewCodeSports wires the shared polite client.
func NewCodeSports(client *fetch.Client, logger *slog.Logger) *CodeSports {
	return &CodeSports{client: client, logger: logger}
}

// Name identifies the strategy inside the registry.
func (c *CodeSports) Name() string {
	return "codesports"
}

// ListCandidates extracts article links from the NRL section.
func (c *CodeSports) ListCandidates(ctx context.Context, cfg config.SourceConfig) ([]source.Candidate, error) {
	doc, err := fetchDocument(ctx, c.client, cfg.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", cfg.ListingURL, err)
	}

	return collectCandidates(doc, cfg.BaseURL, listingRules{
		selectors: []string{
			"article a[href*='/nrl/']",
			".article-card a",
			".story-card a",
			"a[href*='/story/']",
			".headline a",
		},
		skip: []string{"/video/", "/live/", "/author/", "#"},
	}), nil
}

// FetchArticle downloads and parses a single story.
func (c *CodeSports) FetchArticle(ctx context.Context, articleURL string) (*source.Extract, error) {
	doc, err := fetchDocument(ctx, c.client, articleURL)
	if err != nil {
		return nil, err
	}

	title := firstText(doc,
		"h1.article-title",
		"h1.story-headline",
		"h1[itemprop='headline']",
		"article h1",
		"h1",
	)
	if title == "" {
		return nil, fmt.Errorf("no title found at %s", articleURL)
	}

	return &source.Extract{
		Title: title,
		Summary: firstText(doc,
			".article-standfirst",
			".story-standfirst",
			".standfirst",
			"[itemprop='description']",
			"article p.lead",
		),
		FullText: paragraphText(doc,
			".article-body",
			".story-content",
			"[itemprop='articleBody']",
			"article .content",
		),
		PublishedAt: publishedAt(doc,
			"time[datetime]",
			".publish-date",
			".article-date",
			"[itemprop='datePublished']",
		),
	}, nil
}
