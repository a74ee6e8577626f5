package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketNewsForecaster/internal/config"
	"MarketNewsForecaster/internal/domain"
)

type countingLimiter struct{ calls atomic.Int32 }

func (c *countingLimiter) Wait(context.Context) error {
	c.calls.Add(1)
	return nil
}

func TestHTTPFetcherTimelineAndArticle(t *testing.T) {
	t.Parallel()

	var agent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent.Store(r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/timeline/5.chn":
			_, _ = w.Write([]byte(`<h3><a href="/a.chn">a</a></h3>`))
		case "/timeline/6.chn":
			_, _ = w.Write([]byte("   "))
		case "/a.chn":
			_, _ = w.Write([]byte("<html>article</html>"))
		case "/broken.chn":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	limiter := &countingLimiter{}
	site := config.SiteConfig{TimelineURL: srv.URL + "/timeline/%d.chn"}
	fetch := config.FetchConfig{UserAgent: "forecaster-test"}
	f := NewHTTPFetcher(srv.Client(), site, fetch, limiter, nil)
	ctx := context.Background()

	payload, err := f.FetchTimeline(ctx, 5)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "/a.chn")
	assert.Equal(t, "forecaster-test", agent.Load())

	empty, err := f.FetchTimeline(ctx, 6)
	require.NoError(t, err)
	assert.Nil(t, empty)

	missing, err := f.FetchTimeline(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, missing)

	art, err := f.FetchArticle(ctx, domain.ArticleLink{Key: 5, URL: srv.URL + "/a.chn", Order: 3})
	require.NoError(t, err)
	require.NotNil(t, art)
	assert.Equal(t, 3, art.Order)
	assert.Equal(t, "<html>article</html>", art.Body)

	gone, err := f.FetchArticle(ctx, domain.ArticleLink{URL: srv.URL + "/gone.chn"})
	require.NoError(t, err)
	assert.Nil(t, gone)

	_, err = f.FetchArticle(ctx, domain.ArticleLink{URL: srv.URL + "/broken.chn"})
	require.Error(t, err)

	assert.Equal(t, int32(6), limiter.calls.Load())
}

func TestHTTPFetcherRejectsTemplateWithoutPlaceholder(t *testing.T) {
	t.Parallel()

	f := NewHTTPFetcher(nil, config.SiteConfig{TimelineURL: "https://cafef.vn/timeline.chn"}, config.FetchConfig{}, nil, nil)
	_, err := f.FetchTimeline(context.Background(), 1)
	require.Error(t, err)
}
