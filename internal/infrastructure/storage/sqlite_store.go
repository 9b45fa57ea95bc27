package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"bearwatch/internal/domain"
	"bearwatch/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT UNIQUE NOT NULL,
	title TEXT NOT NULL,
	source TEXT NOT NULL,
	summary TEXT,
	full_text TEXT,
	published_date DATETIME,
	scraped_date DATETIME NOT NULL,
	matched_keywords TEXT,
	relevance_score INTEGER NOT NULL DEFAULT 1,
	is_read INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_scraped_date ON articles(scraped_date DESC);
CREATE INDEX IF NOT EXISTS idx_source ON articles(source);
CREATE INDEX IF NOT EXISTS idx_relevance ON articles(relevance_score DESC);
CREATE INDEX IF NOT EXISTS idx_is_read ON articles(is_read);

CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const lastCheckedKey = "last_checked"

const articleColumns = "url, title, source, summary, full_text, published_date, scraped_date, matched_keywords, relevance_score, is_read"

// SQLiteStore persists articles in a single local SQLite file. Each exported
// operation is one statement or transaction, so concurrent scrape and viewer
// processes never observe partial writes.
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.ArticleStore = (*SQLiteStore)(nil)

// Open creates the database file (and parent directory) if needed and
// applies the schema. Failures here are fatal for the caller: nothing in a
// cycle is meaningful without durable storage.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_loc=UTC")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertIfAbsent atomically stores the article unless its URL already
// exists. Returns true when a row was inserted. This is the sole
// deduplication mechanism; ON CONFLICT DO NOTHING makes it race-free.
func (s *SQLiteStore) InsertIfAbsent(ctx context.Context, article *domain.Article) (bool, error) {
	if article.ScrapedAt.IsZero() {
		article.ScrapedAt = time.Now().UTC()
	}

	var keywords sql.NullString
	if len(article.MatchedKeywords) > 0 {
		raw, err := json.Marshal(article.MatchedKeywords)
		if err != nil {
			return false, fmt.Errorf("marshal keywords: %w", err)
		}
		keywords = sql.NullString{String: string(raw), Valid: true}
	}

	query, args, err := sq.Insert("articles").
		Columns("url", "title", "source", "summary", "full_text", "published_date", "scraped_date", "matched_keywords", "relevance_score").
		Values(article.URL, article.Title, article.Source, article.Summary, article.FullText,
			nullableTime(article.PublishedAt), article.ScrapedAt, keywords, article.Relevance).
		Suffix("ON CONFLICT(url) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert article: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected > 0, nil
}

// Get returns a single article or domain.ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, url string) (domain.Article, error) {
	query, args, err := sq.Select(articleColumns).
		From("articles").
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build select: %w", err)
	}

	article, err := scanArticle(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article: %w", err)
	}

	return article, nil
}

// Query returns one page ordered by scraped_date descending. Pages are
// 1-based; pagination is plain LIMIT/OFFSET.
func (s *SQLiteStore) Query(ctx context.Context, filter ports.ArticleFilter, page, pageSize int) ([]domain.Article, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	builder := sq.Select(articleColumns).
		From("articles").
		OrderBy("scraped_date DESC", "id DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize))
	builder = applyFilter(builder, filter)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, scanErr := scanArticle(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan article: %w", scanErr)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return articles, nil
}

// Count returns the number of articles matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ports.ArticleFilter) (int, error) {
	builder := applyFilter(sq.Select("COUNT(*)").From("articles"), filter)

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}

	return count, nil
}

// SetRead flips the read flag. Idempotent; domain.ErrNotFound when the URL
// is not stored.
func (s *SQLiteStore) SetRead(ctx context.Context, url string, read bool) error {
	query, args, err := sq.Update("articles").
		Set("is_read", boolToInt(read)).
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set read: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Stats aggregates totals and per-source counts.
func (s *SQLiteStore) Stats(ctx context.Context) (domain.Stats, error) {
	stats := domain.Stats{BySource: map[string]int{}}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&stats.Total); err != nil {
		return domain.Stats{}, fmt.Errorf("count total: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles WHERE is_read = 0").Scan(&stats.Unread); err != nil {
		return domain.Stats{}, fmt.Errorf("count unread: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT source, COUNT(*) FROM articles GROUP BY source")
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count by source: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var src string
		var count int
		if err := rows.Scan(&src, &count); err != nil {
			return domain.Stats{}, fmt.Errorf("scan source count: %w", err)
		}
		stats.BySource[src] = count
	}
	if err := rows.Err(); err != nil {
		return domain.Stats{}, fmt.Errorf("rows iteration: %w", err)
	}

	return stats, nil
}

// Sources lists the distinct sources that have stored articles.
func (s *SQLiteStore) Sources(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT source FROM articles ORDER BY source")
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return sources, nil
}

// SetLastChecked records when a cycle last completed.
func (s *SQLiteStore) SetLastChecked(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		lastCheckedKey, t.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set last checked: %w", err)
	}
	return nil
}

// LastChecked returns the last completed cycle time, or nil when no cycle
// has run yet.
func (s *SQLiteStore) LastChecked(ctx context.Context) (*time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", lastCheckedKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last checked: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("parse last checked: %w", err)
	}
	return &ts, nil
}

func applyFilter(builder sq.SelectBuilder, filter ports.ArticleFilter) sq.SelectBuilder {
	if filter.Source != "" {
		builder = builder.Where(sq.Eq{"source": filter.Source})
	}
	if filter.MinRelevance > 0 {
		builder = builder.Where(sq.GtOrEq{"relevance_score": filter.MinRelevance})
	}
	if filter.UnreadOnly {
		builder = builder.Where(sq.Eq{"is_read": 0})
	}
	return builder
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		article   domain.Article
		summary   sql.NullString
		fullText  sql.NullString
		published sql.NullTime
		keywords  sql.NullString
		isRead    int
	)

	err := row.Scan(&article.URL, &article.Title, &article.Source, &summary, &fullText,
		&published, &article.ScrapedAt, &keywords, &article.Relevance, &isRead)
	if err != nil {
		return domain.Article{}, err
	}

	article.Summary = summary.String
	article.FullText = fullText.String
	if published.Valid {
		ts := published.Time
		article.PublishedAt = &ts
	}
	if keywords.Valid && keywords.String != "" {
		if err := json.Unmarshal([]byte(keywords.String), &article.MatchedKeywords); err != nil {
			return domain.Article{}, fmt.Errorf("decode keywords: %w", err)
		}
	}
	article.IsRead = isRead != 0

	return article, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
