package usecase

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/infrastructure/storage"
)

func newDaily(t *testing.T, prices *fakePrices, sink *recordingSink) *Daily {
	t.Helper()
	site := &fakeSite{
		timeline: map[domain.TimelineKey]string{1: "a\nb", 2: "c"},
		articles: map[string]string{
			"a": "2024-10-09|today one",
			"b": "2024-10-08|yesterday",
			"c": "2024-10-09|today two",
		},
	}
	ict := time.FixedZone("ICT", 7*3600)
	return &Daily{
		PriceTable: "fact_price_stock",
		Location:   ict,
		Timeline:   site,
		Extractor:  site,
		Pages:      site,
		Normalizer: site,
		Prices:     prices,
		Sink:       sink,
		Artifacts:  storage.NewArtifactStore(t.TempDir()),
		// 2024-10-08 20:00 UTC is already 2024-10-09 in ICT
		Now:   func() time.Time { return time.Date(2024, 10, 8, 20, 0, 0, 0, time.UTC) },
		NewID: func() string { return "run-1" },
	}
}

func TestDailyComposesAndPersists(t *testing.T) {
	t.Parallel()

	prices := &fakePrices{bars: []domain.PriceBar{{Date: day(2024, 10, 9), Open: 24, High: 25, Low: 23.5, Close: 24.8, Volume: 1000}}}
	sink := &recordingSink{configured: true}
	d := newDaily(t, prices, sink)

	report, err := d.Run(context.Background(), "ACB", []domain.TimelineKey{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.True(t, report.Day.Equal(day(2024, 10, 9)))
	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, 2, report.NewsCount)
	assert.True(t, report.PriceOK)
	assert.True(t, report.RecordComposed)
	assert.True(t, report.Persisted)
	require.NotNil(t, report.Record)
	assert.Equal(t, "today one\n\ntoday two", report.Record.Corpus)

	require.Len(t, sink.inserts, 1)
	assert.Equal(t, 24.8, sink.inserts[0].row["close"])
	assert.Equal(t, 2, sink.inserts[0].row["news_count"])

	_, err = os.Stat(report.SnapshotPath)
	require.NoError(t, err)
}

func TestDailyWithoutPriceInsertsNothing(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{configured: true}
	d := newDaily(t, &fakePrices{}, sink)

	report, err := d.Run(context.Background(), "ACB", []domain.TimelineKey{1, 2})
	require.NoError(t, err)

	assert.False(t, report.PriceOK)
	assert.False(t, report.RecordComposed)
	assert.False(t, report.Persisted)
	assert.Nil(t, report.Record)
	assert.Empty(t, sink.inserts)
	assert.Equal(t, 2, report.NewsCount)
	assert.NotEmpty(t, report.SnapshotPath)
}

func TestDailyPriceErrorIsTreatedAsMissing(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{configured: true}
	d := newDaily(t, &fakePrices{err: errors.New("quota")}, sink)

	report, err := d.Run(context.Background(), "ACB", []domain.TimelineKey{1})
	require.NoError(t, err)
	assert.False(t, report.PriceOK)
	assert.Empty(t, sink.inserts)
}

func TestDailyPersistFailureIsReturned(t *testing.T) {
	t.Parallel()

	prices := &fakePrices{bars: []domain.PriceBar{{Date: day(2024, 10, 9), Close: 24.8}}}
	d := newDaily(t, prices, &recordingSink{configured: true, fail: true})

	report, err := d.Run(context.Background(), "ACB", []domain.TimelineKey{1})
	require.Error(t, err)
	assert.True(t, report.RecordComposed)
	assert.False(t, report.Persisted)
}

func TestDailyRerunSameDayInsertsOnce(t *testing.T) {
	t.Parallel()

	prices := &fakePrices{bars: []domain.PriceBar{{Date: day(2024, 10, 9), Open: 24, High: 25, Low: 23.5, Close: 24.8, Volume: 1000}}}
	sink := &recordingSink{configured: true}
	d := newDaily(t, prices, sink)

	_, err := d.Run(context.Background(), "ACB", []domain.TimelineKey{1, 2})
	require.NoError(t, err)
	report, err := d.Run(context.Background(), "ACB", []domain.TimelineKey{1, 2})
	require.NoError(t, err)

	assert.True(t, report.RecordComposed)
	assert.False(t, report.Persisted)
	assert.True(t, report.AlreadyStored)
	assert.Len(t, sink.inserts, 1)
}
