package sites

import (
	"context"
	"fmt"
	"log/slog"

	"bearwatch/internal/config"
	"bearwatch/internal/infrastructure/fetch"
	"bearwatch/internal/source"
)

// SevenWest covers the Seven West Media mastheads (The West Australian and
// PerthNow), which share story-card markup. One registration serves both
// configured sources.
type SevenWest struct {
	client *fetch.Client
	logger *slog.Logger
}

var _ source.Scraper = (*SevenWest)(nil)

// NewSevenWest wires the shared polite client.
func NewSevenWest(client *fetch.Client, logger *slog.Logger) *SevenWest {
	return &SevenWest{client: client, logger: logger}
}

// Name identifies the strategy inside the registry.
func (s *SevenWest) Name() string {
	return "sevenwest"
}

// ListCandidates extracts article links from a rugby-league section page,
// skipping video/gallery/author pages.
func (s *SevenWest) ListCandidates(ctx context.Context, cfg config.SourceConfig) ([]source.Candidate, error) {
	doc, err := fetchDocument(ctx, s.client, cfg.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", cfg.ListingURL, err)
	}

	return collectCandidates(doc, cfg.BaseURL, listingRules{
		selectors: []string{
			"article a[href*='/sport/']",
			".story-card a",
			".story-block a",
			".article-card a",
			"a[data-testid='story-link']",
			".headline a",
		},
		skip: []string{"/author/", "/video/", "/gallery/", "/tag/", "#"},
	}), nil
}

// FetchArticle downloads and parses a single story. Paywalled stories yield
// whatever body text is freely available.
func (s *SevenWest) FetchArticle(ctx context.Context, articleURL string) (*source.Extract, error) {
	doc, err := fetchDocument(ctx, s.client, articleURL)
	if err != nil {
		return nil, err
	}

	title := firstText(doc,
		"h1[data-testid='headline']",
		"h1.story-headline",
		"h1.article-title",
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
			"[data-testid='standfirst']",
			".story-standfirst",
			".article-standfirst",
			".standfirst",
			"article p.lead",
		),
		FullText: paragraphText(doc,
			"[data-testid='article-body']",
			".story-content",
			".article-body",
			"[itemprop='articleBody']",
			"article .content",
		),
		PublishedAt: publishedAt(doc,
			"time[datetime]",
			"[data-testid='publish-date']",
			".publish-date",
			".article-date",
		),
	}, nil
}
