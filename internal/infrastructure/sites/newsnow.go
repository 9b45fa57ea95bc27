package sites

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bearwatch/internal/config"
	"bearwatch/internal/infrastructure/fetch"
	"bearwatch/internal/source"
)

const newsnowRedirectHost = "c.newsnow.com/A/"

// NewsNow scrapes the NewsNow NRL aggregator. Its links redirect through
// JavaScript, so article bodies are unreachable; matching runs on listing
// titles alone.
type NewsNow struct {
	client *fetch.Client
	logger *slog.Logger
}

var _ source.Scraper = (*NewsNow)(nil)

// NewNewsNow wires the shared polite client.
func NewNewsNow(client *fetch.Client, logger *slog.Logger) *NewsNow {
	return &NewsNow{client: client, logger: logger}
}

// Name identifies the strategy inside the registry.
func (n *NewsNow) Name() string {
	return "newsnow"
}

// ListCandidates collects redirect links with usable headline text.
func (n *NewsNow) ListCandidates(ctx context.Context, cfg config.SourceConfig) ([]source.Candidate, error) {
	doc, err := fetchDocument(ctx, n.client, cfg.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", cfg.ListingURL, err)
	}

	seen := map[string]struct{}{}
	var candidates []source.Candidate
	doc.Find("a[href*='" + newsnowRedirectHost + "']").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if href == "" || !strings.Contains(href, newsnowRedirectHost) {
			return
		}
		if _, ok := seen[href]; ok {
			return
		}
		seen[href] = struct{}{}

		title := cleanText(link.Text())
		if len(title) < 10 {
			return
		}
		candidates = append(candidates, source.Candidate{URL: href, Title: title})
	})

	return candidates, nil
}

// FetchArticle returns no extract: the redirect target cannot be followed
// without JavaScript, so the orchestrator matches on the title alone.
func (n *NewsNow) FetchArticle(ctx context.Context, articleURL string) (*source.Extract, error) {
	return nil, nil
}
