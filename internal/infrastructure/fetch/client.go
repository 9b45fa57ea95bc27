package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"bearwatch/internal/config"
)

// StatusError reports a non-2xx response from a source.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// Permanent reports whether retrying the same request is pointless.
func (e *StatusError) Permanent() bool {
	return e.Code >= 400 && e.Code < 500
}

// Client is the shared outbound HTTP client for all scrapers. It enforces a
// randomized delay between consecutive requests, rotates User-Agent headers
// and retries transient failures with exponential backoff. One scrape cycle
// runs on a single goroutine, so requests are naturally sequential.
type Client struct {
	http        *http.Client
	minDelay    time.Duration
	maxDelay    time.Duration
	maxRetries  int
	userAgents  []string
	logger      *slog.Logger
	lastRequest time.Time
}

// NewClient wires a client from scraper settings; httpClient defaults to one
// with the configured timeout.
func NewClient(cfg config.ScraperConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	return &Client{
		http:       httpClient,
		minDelay:   cfg.MinDelay,
		maxDelay:   cfg.MaxDelay,
		maxRetries: retries,
		userAgents: cfg.UserAgents,
		logger:     logger,
	}
}

// Get fetches a page and returns its body. Transport errors and 5xx
// responses are retried up to the configured attempt count; 4xx responses
// fail immediately.
func (c *Client) Get(ctx context.Context, pageURL string) (string, error) {
	if err := c.politeDelay(ctx); err != nil {
		return "", err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 30 * time.Second

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		body, err := c.do(ctx, pageURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Permanent() {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if attempt == c.maxRetries {
			break
		}

		wait := bo.NextBackOff()
		c.debug("request failed, retrying", "url", pageURL, "attempt", attempt, "retry_in", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("fetch %s after %d attempts: %w", pageURL, c.maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return string(raw), nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-AU,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

func (c *Client) userAgent() string {
	if len(c.userAgents) == 0 {
		return "bearwatch/1.0"
	}
	return c.userAgents[rand.IntN(len(c.userAgents))]
}

// politeDelay sleeps until a randomized window has passed since the previous
// request, keeping the crawl below anti-scraping thresholds.
func (c *Client) politeDelay(ctx context.Context) error {
	if c.maxDelay <= 0 {
		c.lastRequest = time.Now()
		return nil
	}

	delay := c.minDelay
	if c.maxDelay > c.minDelay {
		delay += rand.N(c.maxDelay - c.minDelay)
	}

	elapsed := time.Since(c.lastRequest)
	if !c.lastRequest.IsZero() && elapsed < delay {
		select {
		case <-time.After(delay - elapsed):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.lastRequest = time.Now()
	return nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
