package sites

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/gofeed"

	"bearwatch/internal/config"
	"bearwatch/internal/infrastructure/fetch"
	"bearwatch/internal/source"
)

// RSS is a generic scraper for sources that expose a syndication feed.
// Extracts come from the feed items themselves, so FetchArticle performs no
// extra request: it serves the entry cached during the listing pass. A cycle
// runs on one goroutine, so the cache needs no locking.
type RSS struct {
	client *fetch.Client
	parser *gofeed.Parser
	logger *slog.Logger

	entries map[string]*source.Extract
}

var _ source.Scraper = (*RSS)(nil)

// NewRSS wires the shared polite client.
func NewRSS(client *fetch.Client, logger *slog.Logger) *RSS {
	return &RSS{
		client: client,
		parser: gofeed.NewParser(),
		logger: logger,
	}
}

// Name identifies the strategy inside the registry.
func (r *RSS) Name() string {
	return "rss"
}

// ListCandidates fetches the configured feed through the polite client and
// caches each item's extract for the follow-up FetchArticle calls.
func (r *RSS) ListCandidates(ctx context.Context, cfg config.SourceConfig) ([]source.Candidate, error) {
	feedURL := cfg.FeedURL
	if feedURL == "" {
		feedURL = cfg.ListingURL
	}

	body, err := r.client.Get(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", feedURL, err)
	}

	feed, err := r.parser.ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	r.entries = make(map[string]*source.Extract, len(feed.Items))
	var candidates []source.Candidate
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		link := absoluteURL(cfg.BaseURL, item.Link)
		r.entries[link] = &source.Extract{
			Title:       cleanText(item.Title),
			Summary:     cleanText(item.Description),
			FullText:    cleanText(item.Content),
			PublishedAt: item.PublishedParsed,
		}
		candidates = append(candidates, source.Candidate{URL: link, Title: cleanText(item.Title)})
	}

	return candidates, nil
}

// FetchArticle serves the entry cached by the preceding listing pass.
func (r *RSS) FetchArticle(ctx context.Context, articleURL string) (*source.Extract, error) {
	if extract, ok := r.entries[articleURL]; ok {
		return extract, nil
	}
	return nil, fmt.Errorf("feed entry %s not in last listing", articleURL)
}
