package sites

import (
	"context"
	"fmt"
	"log/slog"

	"bearwatch/internal/config"
	"bearwatch/internal/infrastructure/fetch"
	"bearwatch/internal/source"
)

// FoxSports scrapes foxsports.com.au NRL coverage.
type FoxSports struct {
	client *fetch.Client
	logger *slog.Logger
}

var _ source.Scraper = (*FoxSports)(nil)

// NewFoxSports wires the shared polite client.
func NewFoxSports(client *fetch.Client, logger *slog.Logger) *FoxSports {
	return &FoxSports{client: client, logger: logger}
}

// Name identifies the strategy inside the registry.
func (f *FoxSports) Name() string {
	return "foxsports"
}

// ListCandidates extracts NRL news-story links, skipping video and
// match-centre pages.
func (f *FoxSports) ListCandidates(ctx context.Context, cfg config.SourceConfig) ([]source.Candidate, error) {
	doc, err := fetchDocument(ctx, f.client, cfg.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", cfg.ListingURL, err)
	}

	return collectCandidates(doc, cfg.BaseURL, listingRules{
		selectors: []string{
			"article a[href*='/nrl/']",
			".story-card a",
			".article-item a",
			"a[href*='/news-story/']",
			".kicker-item a",
		},
		mustContain: []string{"/nrl/", "/news-story/"},
		skip:        []string{"/video/", "/live/", "/match-centre/", "#"},
	}), nil
}

// FetchArticle downloads and parses a single story.
func (f *FoxSports) FetchArticle(ctx context.Context, articleURL string) (*source.Extract, error) {
	doc, err := fetchDocument(ctx, f.client, articleURL)
	if err != nil {
		return nil, err
	}

	title := firstText(doc,
		"h1.story-headline",
		"h1.article-title",
		"h1[itemprop='headline']",
		"article h1",
		".story-header h1",
		"h1",
	)
	if title == "" {
		return nil, fmt.Errorf("no title found at %s", articleURL)
	}

	return &source.Extract{
		Title: title,
		Summary: firstText(doc,
			".story-standfirst",
			".article-standfirst",
			".story-intro",
			"[itemprop='description']",
			".lead-text",
		),
		FullText: paragraphText(doc,
			".story-content",
			".article-body",
			"[itemprop='articleBody']",
			".story-body",
		),
		PublishedAt: publishedAt(doc,
			"time[datetime]",
			".publish-date",
			".story-date",
			"[itemprop='datePublished']",
		),
	}, nil
}
