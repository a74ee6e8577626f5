package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"MarketNewsForecaster/internal/domain"
)

type memStore struct {
	records map[domain.TimelineKey]domain.FetchRecord
	saves   int
}

func newMemStore() *memStore {
	return &memStore{records: map[domain.TimelineKey]domain.FetchRecord{}}
}

func (m *memStore) Load(key domain.TimelineKey) (*domain.FetchRecord, error) {
	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memStore) Save(rec domain.FetchRecord) error {
	m.saves++
	m.records[rec.Key] = rec
	return nil
}

func (m *memStore) Keys() ([]domain.TimelineKey, error) {
	keys := make([]domain.TimelineKey, 0, len(m.records))
	for k := range m.records {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

func (m *memStore) Close() error { return nil }

type fakeTimeline struct {
	pages map[domain.TimelineKey]string
	fail  map[domain.TimelineKey]bool
	calls map[domain.TimelineKey]int
}

func (f *fakeTimeline) FetchTimeline(_ context.Context, key domain.TimelineKey) ([]byte, error) {
	if f.calls == nil {
		f.calls = map[domain.TimelineKey]int{}
	}
	f.calls[key]++
	if f.fail[key] {
		return nil, errors.New("connection reset")
	}
	page, ok := f.pages[key]
	if !ok {
		return nil, nil
	}
	return []byte(page), nil
}

// lineExtractor treats each payload line as one URL; "!" marks a malformed page.
type lineExtractor struct{}

func (lineExtractor) ExtractLinks(key domain.TimelineKey, payload []byte) ([]domain.ArticleLink, error) {
	if strings.HasPrefix(string(payload), "!") {
		return nil, fmt.Errorf("malformed page %d", key)
	}
	var links []domain.ArticleLink
	for i, line := range strings.Split(strings.TrimSpace(string(payload)), "\n") {
		links = append(links, domain.ArticleLink{Key: key, URL: strings.TrimSpace(line), Order: i})
	}
	return links, nil
}

type fakePages struct {
	bodies map[string]string
	fail   map[string]bool
}

func (f *fakePages) FetchArticle(_ context.Context, link domain.ArticleLink) (*domain.RawArticle, error) {
	if f.fail[link.URL] {
		return nil, errors.New("timeout")
	}
	body, ok := f.bodies[link.URL]
	if !ok {
		return nil, nil
	}
	return &domain.RawArticle{URL: link.URL, Body: body}, nil
}

type countLimiter struct{ n int }

func (c *countLimiter) Wait(context.Context) error {
	c.n++
	return nil
}

// prefixNormalizer accepts "YYYY-MM-DD|text" bodies; "nodate" and "skip" are rejections.
type prefixNormalizer struct{}

func (prefixNormalizer) Normalize(body, url string) (domain.NormalizedArticle, error) {
	switch {
	case body == "nodate":
		return domain.NormalizedArticle{}, fmt.Errorf("%s: %w", url, domain.ErrDateExtraction)
	case body == "skip":
		return domain.NormalizedArticle{}, fmt.Errorf("%s: %w", url, domain.ErrFilteredOut)
	case body == "boom":
		return domain.NormalizedArticle{}, errors.New("parser exploded")
	}
	parts := strings.SplitN(body, "|", 2)
	var y, m, d int
	if _, err := fmt.Sscanf(parts[0], "%d-%d-%d", &y, &m, &d); err != nil {
		return domain.NormalizedArticle{}, domain.ErrDateExtraction
	}
	return domain.NormalizedArticle{Corpus: parts[1], Year: y, Month: m, Day: d}, nil
}
