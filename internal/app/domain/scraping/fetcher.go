package scraping

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

// PageFetcher is the single HTTP door for the scraping pipeline. Every
// request waits on the politeness limiter first, so detection, discovery and
// page scraping never hammer a dealer site no matter which stage is running.
type PageFetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// NewPageFetcher builds a fetcher with a fixed per request timeout. The
// limiter allows a burst of 2 so a detect-then-discover pair does not stall.
func NewPageFetcher(timeout time.Duration, userAgent string, requestsPerSecond float64) *PageFetcher {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &PageFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), 2),
	}
}

// Get performs a polite GET. Non-2xx statuses come back as errors so callers
// never end up parsing an error page. The caller owns the response body.
func (f *PageFetcher) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: status %d: %w", rawURL, resp.StatusCode, models.ErrUpstream)
	}
	return resp, nil
}

// Document fetches a page and hands back the parsed DOM.
func (f *PageFetcher) Document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	resp, err := f.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", rawURL, err)
	}
	return doc, nil
}
