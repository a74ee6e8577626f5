package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/features"
	"MarketNewsForecaster/internal/forecast"
)

func TestForecasterPredictsAndPersists(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{configured: true}
	notifier := &captureNotifier{}
	embedder := &constEmbedder{dim: 3}
	f := &Forecaster{
		Records:      staticRecords{records: records(9, 10, 12, 15, 11)},
		Builder:      features.Builder{SequenceLength: 4, EmbeddingDim: 3, Embedder: embedder},
		Invoker:      forecast.Invoker{Model: constModel{value: 1.0}},
		Sink:         sink,
		PredictTable: "fact_price_predict",
		Notifier:     notifier,
	}

	pred, err := f.Run(context.Background(), "ACB")
	require.NoError(t, err)

	assert.Equal(t, 15.0, pred.Price)
	assert.True(t, pred.ReferenceDate.Equal(day(2024, 10, 5)))
	assert.Equal(t, 1, embedder.calls)

	require.Len(t, sink.inserts, 1)
	assert.Equal(t, "fact_price_predict", sink.inserts[0].table)
	assert.Equal(t, 15.0, sink.inserts[0].row["price_predict"])

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "15.00")
}

func TestForecasterShortHistory(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{configured: true}
	f := &Forecaster{
		Records: staticRecords{records: records(1, 2, 3)},
		Builder: features.Builder{SequenceLength: 20, EmbeddingDim: 3},
		Invoker: forecast.Invoker{Model: constModel{}},
		Sink:    sink,
	}

	_, err := f.Run(context.Background(), "ACB")
	var winErr *domain.InsufficientWindowError
	require.True(t, errors.As(err, &winErr))
	assert.Equal(t, 3, winErr.Got)
	assert.Empty(t, sink.inserts)
}

func TestForecasterWithoutSource(t *testing.T) {
	t.Parallel()

	_, err := (&Forecaster{}).Run(context.Background(), "ACB")
	assert.ErrorIs(t, err, domain.ErrNoRecordSource)
}
