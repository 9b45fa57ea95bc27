package source

import (
	"context"
	"fmt"
	"time"

	"bearwatch/internal/config"
)

// Candidate is a link discovered on a listing page, not yet confirmed
// relevant. Title may be empty when the listing exposes none.
type Candidate struct {
	URL   string
	Title string
}

// Extract holds the fields parsed from a fetched article page.
type Extract struct {
	Title       string
	Summary     string
	FullText    string
	PublishedAt *time.Time
}

// Scraper captures a single site strategy. ListCandidates walks the
// configured listing page(s); FetchArticle downloads and parses one article.
// A scraper may return (nil, nil) from FetchArticle when article bodies are
// unreachable (JS redirects), in which case matching runs on the title alone.
type Scraper interface {
	Name() string
	ListCandidates(ctx context.Context, cfg config.SourceConfig) ([]Candidate, error)
	FetchArticle(ctx context.Context, url string) (*Extract, error)
}

// Registry keeps a mapping from scraper names to their implementations.
type Registry struct {
	scrapers map[string]Scraper
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scrapers: map[string]Scraper{}}
}

// Register adds or replaces a scraper implementation.
func (r *Registry) Register(s Scraper) {
	if r.scrapers == nil {
		r.scrapers = map[string]Scraper{}
	}
	r.scrapers[s.Name()] = s
}

// Resolve returns a scraper by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scraper, error) {
	if s, ok := r.scrapers[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("scraper %s is not registered", name)
}
