package ports

import (
	"context"
	"time"

	"bearwatch/internal/domain"
)

// ArticleFilter narrows store queries. Zero values mean "no constraint".
type ArticleFilter struct {
	Source       string
	MinRelevance int
	UnreadOnly   bool
}

// ArticleStore persists deduplicated articles and exposes the query contract
// consumed by the viewer. Implementations must make InsertIfAbsent race-free:
// two simultaneous inserts of one URL store exactly one row.
type ArticleStore interface {
	InsertIfAbsent(ctx context.Context, article *domain.Article) (bool, error)
	Get(ctx context.Context, url string) (domain.Article, error)
	Query(ctx context.Context, filter ArticleFilter, page, pageSize int) ([]domain.Article, error)
	Count(ctx context.Context, filter ArticleFilter) (int, error)
	SetRead(ctx context.Context, url string, read bool) error
	Stats(ctx context.Context) (domain.Stats, error)
	Sources(ctx context.Context) ([]string, error)
	SetLastChecked(ctx context.Context, t time.Time) error
	LastChecked(ctx context.Context) (*time.Time, error)
}

// CycleRunner drives one end-to-end scrape cycle.
type CycleRunner interface {
	Run(ctx context.Context) (domain.CycleSummary, error)
}

// Scheduler controls when cycles execute in daemon mode.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
