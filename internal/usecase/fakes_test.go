package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"MarketNewsForecaster/internal/domain"
)

type memStore struct {
	records map[domain.TimelineKey]domain.FetchRecord
	closed  int
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

func (m *memStore) Close() error {
	m.closed++
	return nil
}

// fakeSite serves timeline pages as newline-separated URLs and article
// bodies as "YYYY-MM-DD|text"; it also extracts and normalizes them.
type fakeSite struct {
	timeline      map[domain.TimelineKey]string
	articles      map[string]string
	timelineCalls int
	articleCalls  int
}

func (f *fakeSite) FetchTimeline(_ context.Context, key domain.TimelineKey) ([]byte, error) {
	f.timelineCalls++
	page, ok := f.timeline[key]
	if !ok {
		return nil, nil
	}
	return []byte(page), nil
}

func (f *fakeSite) ExtractLinks(key domain.TimelineKey, payload []byte) ([]domain.ArticleLink, error) {
	var links []domain.ArticleLink
	for i, line := range strings.Split(strings.TrimSpace(string(payload)), "\n") {
		links = append(links, domain.ArticleLink{Key: key, URL: line, Order: i})
	}
	return links, nil
}

func (f *fakeSite) FetchArticle(_ context.Context, link domain.ArticleLink) (*domain.RawArticle, error) {
	f.articleCalls++
	body, ok := f.articles[link.URL]
	if !ok {
		return nil, nil
	}
	return &domain.RawArticle{URL: link.URL, Body: body}, nil
}

func (f *fakeSite) Normalize(body, url string) (domain.NormalizedArticle, error) {
	if body == "skip" {
		return domain.NormalizedArticle{}, fmt.Errorf("%s: %w", url, domain.ErrFilteredOut)
	}
	parts := strings.SplitN(body, "|", 2)
	t, err := time.Parse(domain.DateLayout, parts[0])
	if err != nil || len(parts) != 2 {
		return domain.NormalizedArticle{}, fmt.Errorf("%s: %w", url, domain.ErrDateExtraction)
	}
	return domain.NormalizedArticle{Corpus: parts[1], Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

type fakePrices struct {
	bars []domain.PriceBar
	err  error
}

func (f *fakePrices) PriceBar(_ context.Context, _ string, day time.Time) (*domain.PriceBar, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.bars {
		if f.bars[i].Date.Equal(day) {
			return &f.bars[i], nil
		}
	}
	return nil, nil
}

func (f *fakePrices) PriceHistory(_ context.Context, _ string, from, to time.Time) ([]domain.PriceBar, error) {
	var out []domain.PriceBar
	for _, b := range f.bars {
		if !b.Date.Before(from) && !b.Date.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

type insert struct {
	table string
	row   map[string]any
}

type recordingSink struct {
	configured bool
	fail       bool
	inserts    []insert
}

func (s *recordingSink) Configured() bool { return s.configured }

func (s *recordingSink) Insert(_ context.Context, table string, row map[string]any) error {
	if !s.configured {
		return nil
	}
	if s.fail {
		return errors.New("connection refused")
	}
	s.inserts = append(s.inserts, insert{table: table, row: row})
	return nil
}

// LatestRecords reads back what was inserted, the way the SQL sink does.
func (s *recordingSink) LatestRecords(_ context.Context, symbol string, n int) ([]domain.AlignedRecord, error) {
	var stored []domain.AlignedRecord
	for _, ins := range s.inserts {
		if ins.row["symbol"] != symbol {
			continue
		}
		day, _ := ins.row["time"].(time.Time)
		stored = append(stored, domain.AlignedRecord{Symbol: symbol, Date: day})
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].Date.Before(stored[j].Date) })
	if len(stored) > n {
		stored = stored[len(stored)-n:]
	}
	return stored, nil
}

type staticRecords struct {
	records []domain.AlignedRecord
}

func (s staticRecords) LatestRecords(_ context.Context, _ string, n int) ([]domain.AlignedRecord, error) {
	if len(s.records) <= n {
		return s.records, nil
	}
	return s.records[len(s.records)-n:], nil
}

type constEmbedder struct {
	dim   int
	calls int
}

func (c *constEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	c.calls++
	out := make([][]float64, len(texts))
	for i := range texts {
		v := make([]float64, c.dim)
		for j := range v {
			v[j] = 0.5
		}
		out[i] = v
	}
	return out, nil
}

type constModel struct{ value float64 }

func (m constModel) Predict(context.Context, [][]float64, [][]float64) (float64, error) {
	return m.value, nil
}

type captureNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (c *captureNotifier) PublishDigest(_ context.Context, digest string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, digest)
	return nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func records(closes ...float64) []domain.AlignedRecord {
	out := make([]domain.AlignedRecord, len(closes))
	for i, c := range closes {
		out[i] = domain.AlignedRecord{
			Symbol: "ACB",
			Date:   day(2024, 10, i+1),
			Open:   c, High: c + 1, Low: c - 1, Close: c,
		}
		if i%2 == 0 {
			out[i].Corpus = fmt.Sprintf("news %d", i)
			out[i].NewsCount = 1
		}
	}
	return out
}
