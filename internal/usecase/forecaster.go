package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/features"
	"MarketNewsForecaster/internal/forecast"
	"MarketNewsForecaster/internal/ports"
)

// Forecaster predicts the next close from the most recent window of records.
type Forecaster struct {
	Records      ports.RecordSource
	Builder      features.Builder
	Invoker      forecast.Invoker
	Sink         ports.Sink
	PredictTable string
	Notifier     ports.Notifier
	Logger       *slog.Logger
}

// Run reads the last SequenceLength records, predicts, persists the
// prediction when a sink is configured and publishes a digest.
func (f *Forecaster) Run(ctx context.Context, symbol string) (domain.Prediction, error) {
	log := orDiscard(f.Logger)
	if f.Records == nil {
		return domain.Prediction{}, domain.ErrNoRecordSource
	}

	window, err := f.Records.LatestRecords(ctx, symbol, f.Builder.SequenceLength)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("load window: %w", err)
	}

	tensors, err := f.Builder.Build(ctx, window)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("build features: %w", err)
	}

	pred, err := f.Invoker.Predict(ctx, symbol, tensors)
	if err != nil {
		return domain.Prediction{}, err
	}

	if f.Sink != nil && f.Sink.Configured() {
		if err := f.Sink.Insert(ctx, f.PredictTable, pred.Row()); err != nil {
			return pred, fmt.Errorf("persist prediction: %w", err)
		}
	}

	if f.Notifier != nil {
		if err := f.Notifier.PublishDigest(ctx, buildForecastDigest(pred, window)); err != nil {
			log.Warn("publish forecast digest", "error", err)
		}
	}

	log.Info("forecast ready", "symbol", symbol,
		"time", pred.ReferenceDate.Format(domain.DateLayout), "price_predict", pred.Rounded().String())
	return pred, nil
}
