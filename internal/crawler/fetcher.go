// Package crawler implements the ingestion pipeline: fetching pages,
// extracting text and links, chunking, embedding, and the crawl job
// state machine driven by a polling worker.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sitebotics/sitebot/internal/metrics"
)

// crawlerUserAgent identifies the crawler to origin servers.
const crawlerUserAgent = "SitebotCrawler/1.0"

// ErrNotHTML indicates the response was not an HTML document. Callers
// skip the page rather than failing the crawl.
var ErrNotHTML = errors.New("not an HTML response")

// PageFetcher retrieves the HTML body of a URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher fetches pages over HTTP with a per-request timeout.
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewHTTPFetcher creates a fetcher. collector may be nil.
func NewHTTPFetcher(timeout time.Duration, collector *metrics.Collector, logger *slog.Logger) *HTTPFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{
		client:  &http.Client{},
		timeout: timeout,
		metrics: collector,
		logger:  logger,
	}
}

// Fetch retrieves a page and returns its HTML. Non-2xx statuses and
// non-HTML content types are errors; the latter wraps ErrNotHTML.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", crawlerUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml+xml") {
		return "", fmt.Errorf("fetch %s: %w (%s)", url, ErrNotHTML, contentType)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}

	duration := time.Since(start)
	if f.metrics != nil {
		f.metrics.RecordTiming(metrics.OpPageFetch, duration)
	}
	f.logger.Debug("fetched page", "url", url, "bytes", len(body), "duration_ms", duration.Milliseconds())

	return string(body), nil
}
