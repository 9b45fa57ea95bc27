package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bearwatch/internal/config"
	"bearwatch/internal/domain"
	"bearwatch/internal/matcher"
	"bearwatch/internal/ports"
	"bearwatch/internal/source"
)

// CycleDeps wires all driven adapters into the scrape orchestration.
type CycleDeps struct {
	Registry *source.Registry
	Store    ports.ArticleStore
	Matcher  *matcher.Matcher
	Sources  []config.SourceConfig
	Logger   *slog.Logger
}

// Cycle drives one end-to-end scrape pass: for each enabled source in
// priority order, list candidates, fetch and match each one, and store the
// relevant articles. Source and candidate failures are isolated; only store
// failures abort the cycle.
type Cycle struct {
	registry *source.Registry
	store    ports.ArticleStore
	matcher  *matcher.Matcher
	sources  []config.SourceConfig
	logger   *slog.Logger
}

var _ ports.CycleRunner = (*Cycle)(nil)

// NewCycle constructs the orchestration component. Sources are expected in
// priority order (config.EnabledSources).
func NewCycle(deps CycleDeps) *Cycle {
	return &Cycle{
		registry: deps.Registry,
		store:    deps.Store,
		matcher:  deps.Matcher,
		sources:  deps.Sources,
		logger:   deps.Logger,
	}
}

// Run executes one scrape cycle and returns its summary. The returned error
// is non-nil only for storage failures, which make the rest of the cycle
// meaningless.
func (c *Cycle) Run(ctx context.Context) (domain.CycleSummary, error) {
	summary := domain.CycleSummary{StartedAt: time.Now()}

	for _, src := range c.sources {
		c.info("processing source", "source", src.Name, "scraper", src.Scraper)

		report, err := c.scrapeSource(ctx, src)
		summary.Reports = append(summary.Reports, report)
		summary.Found += report.Found
		summary.Saved += report.Saved
		if err != nil {
			summary.Duplicates = summary.Found - summary.Saved
			summary.Duration = time.Since(summary.StartedAt)
			return summary, fmt.Errorf("source %s: %w", src.Name, err)
		}

		if report.Err != nil {
			c.warn("source unavailable", "source", src.Name, "error", report.Err)
		} else {
			c.info("source done", "source", src.Name, "found", report.Found, "saved", report.Saved)
		}
	}

	summary.Duplicates = summary.Found - summary.Saved
	summary.Duration = time.Since(summary.StartedAt)

	if err := c.store.SetLastChecked(ctx, time.Now()); err != nil {
		return summary, fmt.Errorf("record last checked: %w", err)
	}

	c.info("cycle complete",
		"found", summary.Found,
		"saved", summary.Saved,
		"duplicates", summary.Duplicates,
		"failed_sources", len(summary.Failed()),
		"duration", summary.Duration)

	return summary, nil
}

// scrapeSource processes one source. The report captures recoverable
// failures; the returned error is reserved for storage failures.
func (c *Cycle) scrapeSource(ctx context.Context, src config.SourceConfig) (domain.SourceReport, error) {
	report := domain.SourceReport{Source: src.Name}

	scraper, err := c.registry.Resolve(src.Scraper)
	if err != nil {
		report.Err = fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
		return report, nil
	}

	candidates, err := scraper.ListCandidates(ctx, src)
	if err != nil {
		report.Err = fmt.Errorf("%w: listing: %v", domain.ErrSourceUnavailable, err)
		return report, nil
	}
	c.debug("candidates listed", "source", src.Name, "count", len(candidates))

	for _, cand := range candidates {
		article, ok := c.evaluate(ctx, scraper, src, cand)
		if !ok {
			continue
		}
		report.Found++

		inserted, insertErr := c.store.InsertIfAbsent(ctx, article)
		if insertErr != nil {
			return report, fmt.Errorf("store article %s: %w", article.URL, insertErr)
		}
		if inserted {
			report.Saved++
			c.info("saved new article", "source", src.Name, "title", article.Title, "relevance", article.Relevance)
		}
	}

	return report, nil
}

// evaluate fetches and matches one candidate. Returns (nil, false) when the
// candidate is irrelevant or its fetch/parse failed; such failures never
// abort the source.
func (c *Cycle) evaluate(ctx context.Context, scraper source.Scraper, src config.SourceConfig, cand source.Candidate) (*domain.Article, bool) {
	// Quick prefilter: when the listing exposes a title that matches
	// nothing, skip without fetching the body.
	if cand.Title != "" {
		if matched, _ := c.matcher.Match(cand.Title); matched == nil {
			return nil, false
		}
	}

	extract, err := scraper.FetchArticle(ctx, cand.URL)
	if err != nil {
		c.warn("article fetch failed", "source", src.Name, "url", cand.URL, "error", err)
		return nil, false
	}

	if extract == nil {
		// Title-only source: the listing title is all we can match on.
		matched, relevance := c.matcher.Match(cand.Title)
		if matched == nil {
			return nil, false
		}
		return &domain.Article{
			URL:             cand.URL,
			Title:           cand.Title,
			Source:          src.Name,
			MatchedKeywords: matched,
			Relevance:       relevance,
		}, true
	}

	text := strings.Join([]string{extract.Title, extract.Summary, extract.FullText}, " ")
	matched, relevance := c.matcher.Match(text)
	if matched == nil {
		return nil, false
	}

	title := extract.Title
	if title == "" {
		title = cand.Title
	}

	return &domain.Article{
		URL:             cand.URL,
		Title:           title,
		Source:          src.Name,
		Summary:         extract.Summary,
		FullText:        extract.FullText,
		PublishedAt:     extract.PublishedAt,
		MatchedKeywords: matched,
		Relevance:       relevance,
	}, true
}

func (c *Cycle) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Cycle) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Cycle) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
