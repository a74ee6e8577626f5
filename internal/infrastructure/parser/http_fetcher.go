package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"MarketNewsForecaster/internal/config"
	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/ports"
)

const maxPageBytes = 8 << 20

// HTTPFetcher downloads timeline pages and article pages over plain HTTP GET.
type HTTPFetcher struct {
	client      *http.Client
	timelineURL string
	userAgent   string
	limiter     ports.Limiter
	logger      *slog.Logger
}

var (
	_ ports.TimelineFetcher = (*HTTPFetcher)(nil)
	_ ports.PageFetcher     = (*HTTPFetcher)(nil)
)

// NewHTTPFetcher wires an HTTP client; timeout defaults to 20s. The limiter may be nil.
func NewHTTPFetcher(client *http.Client, site config.SiteConfig, fetch config.FetchConfig, limiter ports.Limiter, log *slog.Logger) *HTTPFetcher {
	if client == nil {
		timeout := fetch.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPFetcher{
		client:      client,
		timelineURL: site.TimelineURL,
		userAgent:   fetch.UserAgent,
		limiter:     limiter,
		logger:      log,
	}
}

// FetchTimeline downloads the timeline page for key; nil means the page has no data.
func (f *HTTPFetcher) FetchTimeline(ctx context.Context, key domain.TimelineKey) ([]byte, error) {
	if !strings.Contains(f.timelineURL, "%d") {
		return nil, fmt.Errorf("timeline url %q has no %%d placeholder", f.timelineURL)
	}
	body, err := f.get(ctx, fmt.Sprintf(f.timelineURL, int(key)))
	if err != nil {
		return nil, fmt.Errorf("timeline %d: %w", key, err)
	}
	return body, nil
}

// FetchArticle downloads one article page; nil means the page is gone or empty.
func (f *HTTPFetcher) FetchArticle(ctx context.Context, link domain.ArticleLink) (*domain.RawArticle, error) {
	body, err := f.get(ctx, link.URL)
	if err != nil {
		return nil, fmt.Errorf("article %s: %w", link.URL, err)
	}
	if body == nil {
		return nil, nil
	}
	return &domain.RawArticle{
		Key:   link.Key,
		URL:   link.URL,
		Order: link.Order,
		Body:  string(body),
	}, nil
}

func (f *HTTPFetcher) get(ctx context.Context, pageURL string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent:
		f.debug("page absent", "url", pageURL, "status", resp.StatusCode)
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		f.debug("page empty", "url", pageURL)
		return nil, nil
	}
	return body, nil
}

func (f *HTTPFetcher) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
