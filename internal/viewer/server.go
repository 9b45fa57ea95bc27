package viewer

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"bearwatch/internal/domain"
	"bearwatch/internal/ports"
)

// Server exposes the article store's query contract over HTTP, plus a
// trigger for a manual scrape cycle. It never touches scrapers or the
// matcher directly.
type Server struct {
	store    ports.ArticleStore
	cycle    ports.CycleRunner
	pageSize int
	logger   *slog.Logger
	echo     *echo.Echo

	mu      sync.Mutex
	running bool
	lastRun *runResult
}

type runResult struct {
	FinishedAt time.Time `json:"finished_at"`
	Found      int       `json:"found"`
	Saved      int       `json:"saved"`
	Duplicates int       `json:"duplicates"`
	Error      string    `json:"error,omitempty"`
}

// NewServer wires routes. cycle may be nil, in which case the scrape
// trigger responds with 503.
func NewServer(store ports.ArticleStore, cycle ports.CycleRunner, pageSize int, logger *slog.Logger) *Server {
	if pageSize < 1 {
		pageSize = 20
	}

	s := &Server{
		store:    store,
		cycle:    cycle,
		pageSize: pageSize,
		logger:   logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api := e.Group("/api")
	api.GET("/articles", s.handleListArticles)
	api.GET("/articles/one", s.handleGetArticle)
	api.POST("/articles/read", s.handleSetRead)
	api.GET("/stats", s.handleStats)
	api.GET("/sources", s.handleSources)
	api.POST("/scrape", s.handleScrape)
	api.GET("/scrape/status", s.handleScrapeStatus)

	s.echo = e
	return s
}

// Handler returns the underlying echo instance (used by tests).
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type articleJSON struct {
	URL             string     `json:"url"`
	Title           string     `json:"title"`
	Source          string     `json:"source"`
	Summary         string     `json:"summary,omitempty"`
	FullText        string     `json:"full_text,omitempty"`
	PublishedDate   *time.Time `json:"published_date,omitempty"`
	ScrapedDate     time.Time  `json:"scraped_date"`
	MatchedKeywords []string   `json:"matched_keywords"`
	RelevanceScore  int        `json:"relevance_score"`
	IsRead          bool       `json:"is_read"`
}

func toJSON(a domain.Article) articleJSON {
	return articleJSON{
		URL:             a.URL,
		Title:           a.Title,
		Source:          a.Source,
		Summary:         a.Summary,
		FullText:        a.FullText,
		PublishedDate:   a.PublishedAt,
		ScrapedDate:     a.ScrapedAt,
		MatchedKeywords: a.MatchedKeywords,
		RelevanceScore:  a.Relevance,
		IsRead:          a.IsRead,
	}
}

type listResponse struct {
	Articles   []articleJSON `json:"articles"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalCount int           `json:"total_count"`
	TotalPages int           `json:"total_pages"`
}

func (s *Server) handleListArticles(c echo.Context) error {
	ctx := c.Request().Context()

	page := intParam(c, "page", 1)
	if page < 1 {
		page = 1
	}

	filter := ports.ArticleFilter{
		Source:       c.QueryParam("source"),
		MinRelevance: intParam(c, "relevance", 0),
		UnreadOnly:   c.QueryParam("unread") == "true",
	}

	articles, err := s.store.Query(ctx, filter, page, s.pageSize)
	if err != nil {
		return s.serverError(c, err, "query articles")
	}

	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return s.serverError(c, err, "count articles")
	}

	resp := listResponse{
		Articles:   make([]articleJSON, 0, len(articles)),
		Page:       page,
		PageSize:   s.pageSize,
		TotalCount: total,
		TotalPages: (total + s.pageSize - 1) / s.pageSize,
	}
	for _, a := range articles {
		resp.Articles = append(resp.Articles, toJSON(a))
	}

	return c.JSON(http.StatusOK, resp)
}

// handleGetArticle returns one article and marks it read, mirroring the
// "viewing marks read" behaviour of the web UI.
func (s *Server) handleGetArticle(c echo.Context) error {
	ctx := c.Request().Context()

	url := c.QueryParam("url")
	if url == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "url parameter is required"})
	}

	article, err := s.store.Get(ctx, url)
	if errors.Is(err, domain.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "article not found"})
	}
	if err != nil {
		return s.serverError(c, err, "get article")
	}

	if !article.IsRead {
		if err := s.store.SetRead(ctx, url, true); err != nil {
			return s.serverError(c, err, "mark read")
		}
		article.IsRead = true
	}

	return c.JSON(http.StatusOK, toJSON(article))
}

type setReadRequest struct {
	URL  string `json:"url"`
	Read bool   `json:"read"`
}

func (s *Server) handleSetRead(c echo.Context) error {
	var req setReadRequest
	if err := c.Bind(&req); err != nil || req.URL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "url is required"})
	}

	err := s.store.SetRead(c.Request().Context(), req.URL, req.Read)
	if errors.Is(err, domain.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "article not found"})
	}
	if err != nil {
		return s.serverError(c, err, "set read")
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := s.store.Stats(ctx)
	if err != nil {
		return s.serverError(c, err, "stats")
	}

	lastChecked, err := s.store.LastChecked(ctx)
	if err != nil {
		return s.serverError(c, err, "last checked")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"total":        stats.Total,
		"unread":       stats.Unread,
		"read":         stats.Total - stats.Unread,
		"by_source":    stats.BySource,
		"last_checked": lastChecked,
	})
}

func (s *Server) handleSources(c echo.Context) error {
	sources, err := s.store.Sources(c.Request().Context())
	if err != nil {
		return s.serverError(c, err, "sources")
	}
	if sources == nil {
		sources = []string{}
	}
	return c.JSON(http.StatusOK, sources)
}

// handleScrape triggers a background scrape cycle. Only one cycle runs at a
// time; a second trigger while one is in flight is refused.
func (s *Server) handleScrape(c echo.Context) error {
	if s.cycle == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "scraping is not enabled on this server"})
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return c.JSON(http.StatusConflict, map[string]any{"success": false, "message": "scraper already running"})
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		summary, err := s.cycle.Run(context.Background())

		result := &runResult{
			FinishedAt: time.Now(),
			Found:      summary.Found,
			Saved:      summary.Saved,
			Duplicates: summary.Duplicates,
		}
		if err != nil {
			result.Error = err.Error()
			if s.logger != nil {
				s.logger.Error("triggered cycle failed", "error", err)
			}
		}

		s.mu.Lock()
		s.running = false
		s.lastRun = result
		s.mu.Unlock()
	}()

	return c.JSON(http.StatusAccepted, map[string]any{"success": true, "message": "scraper started"})
}

func (s *Server) handleScrapeStatus(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]any{
		"running":  s.running,
		"last_run": s.lastRun,
	})
}

func (s *Server) serverError(c echo.Context, err error, op string) error {
	if s.logger != nil {
		s.logger.Error("viewer request failed", "op", op, "error", err)
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func intParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
