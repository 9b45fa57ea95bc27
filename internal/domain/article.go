package domain

import (
	"errors"
	"time"
)

// Relevance tiers assigned by the keyword matcher.
const (
	RelevancePrimary   = 2
	RelevanceSecondary = 1
)

// ErrNotFound signals that the requested article URL is not stored.
var ErrNotFound = errors.New("article not found")

// ErrSourceUnavailable marks recoverable per-source failures (network,
// non-2xx status, unparseable markup). The orchestrator logs and moves on.
var ErrSourceUnavailable = errors.New("source unavailable")

// Article is a discovered news item, keyed by its canonical URL.
// IsRead is the only field mutable after insertion.
type Article struct {
	URL             string
	Title           string
	Source          string
	Summary         string
	FullText        string
	PublishedAt     *time.Time
	ScrapedAt       time.Time
	MatchedKeywords []string
	Relevance       int
	IsRead          bool
}

// SourceReport captures the outcome of scraping a single source.
type SourceReport struct {
	Source string
	Found  int
	Saved  int
	Err    error
}

// CycleSummary aggregates one full pass over all enabled sources.
type CycleSummary struct {
	StartedAt  time.Time
	Duration   time.Duration
	Found      int
	Saved      int
	Duplicates int
	Reports    []SourceReport
}

// Failed lists the sources that reported an error during the cycle.
func (s CycleSummary) Failed() []SourceReport {
	var failed []SourceReport
	for _, r := range s.Reports {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// Stats describes the stored collection for the viewer.
type Stats struct {
	Total    int
	Unread   int
	BySource map[string]int
}
