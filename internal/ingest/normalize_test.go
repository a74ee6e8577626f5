package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketNewsForecaster/internal/domain"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	out, err := Classify(prefixNormalizer{}, domain.RawArticle{URL: "u", Order: 7, Body: "2024-10-09|ACB"})
	require.NoError(t, err)
	require.True(t, out.Accepted())
	assert.Equal(t, 7, out.Article.Order)
	assert.Equal(t, "u", out.Article.URL)

	out, err = Classify(prefixNormalizer{}, domain.RawArticle{URL: "u", Body: "nodate"})
	require.NoError(t, err)
	require.NotNil(t, out.Rejection)
	assert.Equal(t, domain.RejectNoDate, out.Rejection.Reason)

	out, err = Classify(prefixNormalizer{}, domain.RawArticle{URL: "u", Body: "skip"})
	require.NoError(t, err)
	assert.Equal(t, domain.RejectFilteredOut, out.Rejection.Reason)

	_, err = Classify(prefixNormalizer{}, domain.RawArticle{URL: "u", Body: "boom"})
	assert.Error(t, err)
}

func TestNormalizeAllNeverAborts(t *testing.T) {
	t.Parallel()

	raws := []domain.RawArticle{
		{URL: "1", Order: 0, Body: "2024-10-08|first"},
		{URL: "2", Order: 1, Body: "nodate"},
		{URL: "3", Order: 2, Body: "boom"},
		{URL: "4", Order: 3, Body: "skip"},
		{URL: "5", Order: 4, Body: "2024-10-09|second"},
		{URL: "6", Order: 5, Body: "skip"},
	}

	got, report := NormalizeAll(prefixNormalizer{}, raws, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[1].Corpus)
	assert.Equal(t, 4, got[1].Order)
	assert.Equal(t, 2, report.Accepted)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Rejected[domain.RejectNoDate])
	assert.Equal(t, 2, report.Rejected[domain.RejectFilteredOut])
}
