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

// Nine covers the Nine Entertainment mastheads (nine.com.au, SMH, The Age),
// which share story markup. Sources may configure extra topic pages that are
// scanned after the main listing.
type Nine struct {
	client *fetch.Client
	logger *slog.Logger
}

var _ source.Scraper = (*Nine)(nil)

// NewNine wires the shared polite client.
func NewNine(client *fetch.Client, logger *slog.Logger) *Nine {
	return &Nine{client: client, logger: logger}
}

// Name identifies the strategy inside the registry.
func (n *Nine) Name() string {
	return "nine"
}

// ListCandidates walks the listing plus any extra topic pages, keeping for
// each URL the longest title seen. A page that fails to load is skipped so a
// partial listing set survives.
func (n *Nine) ListCandidates(ctx context.Context, cfg config.SourceConfig) ([]source.Candidate, error) {
	pages := append([]string{cfg.ListingURL}, cfg.ExtraPages...)

	titles := map[string]string{}
	var order []string
	var lastErr error

	for _, pageURL := range pages {
		doc, err := fetchDocument(ctx, n.client, pageURL)
		if err != nil {
			lastErr = err
			n.warn("listing page failed", "url", pageURL, "error", err)
			continue
		}

		doc.Find("article a, h3 a").Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			if href == "" {
				return
			}
			href = absoluteURL(cfg.BaseURL, href)
			if !strings.Contains(href, "/nrl/") && !strings.Contains(href, "/sport/") {
				return
			}
			for _, skip := range []string{"/live-scores/", "/ladder/", "/draw/", "/fixtures/"} {
				if strings.Contains(href, skip) {
					return
				}
			}

			title := cleanText(link.Text())
			prev, known := titles[href]
			if !known {
				order = append(order, href)
			}
			if !known || len(title) > len(prev) {
				titles[href] = title
			}
		})
	}

	if len(titles) == 0 && lastErr != nil {
		return nil, fmt.Errorf("all listing pages failed: %w", lastErr)
	}

	var candidates []source.Candidate
	for _, href := range order {
		// Listings repeat bare image links; a real headline is at least a
		// few words long.
		if title := titles[href]; len(title) >= 10 {
			candidates = append(candidates, source.Candidate{URL: href, Title: title})
		}
	}

	return candidates, nil
}

// FetchArticle downloads and parses a single story.
func (n *Nine) FetchArticle(ctx context.Context, articleURL string) (*source.Extract, error) {
	doc, err := fetchDocument(ctx, n.client, articleURL)
	if err != nil {
		return nil, err
	}

	title := firstText(doc,
		"h1.story__headline",
		"h1[data-testid='headline']",
		"article h1",
		".article-header h1",
		"h1",
	)
	if title == "" {
		return nil, fmt.Errorf("no title found at %s", articleURL)
	}

	return &source.Extract{
		Title: title,
		Summary: firstText(doc,
			".story__abstract",
			"[data-testid='abstract']",
			".article-standfirst",
			".lead",
			"article p:first-of-type",
		),
		FullText: paragraphText(doc,
			".story__content",
			"[data-testid='article-content']",
			".article-body",
			".article-content",
			"article .content",
		),
		PublishedAt: publishedAt(doc,
			"time[datetime]",
			"[data-testid='timestamp']",
			".story__date",
			".article-date",
			".published",
		),
	}, nil
}

func (n *Nine) warn(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Warn(msg, args...)
	}
}
