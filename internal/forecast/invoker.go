// Package forecast runs the sequence model on built tensors and maps the
// scaled output back to price units.
package forecast

import (
	"context"
	"fmt"
	"time"

	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/features"
	"MarketNewsForecaster/internal/ports"
)

// Invoker calls the model with a window's tensors.
type Invoker struct {
	Model ports.Model
	Now   func() time.Time
}

// Predict returns the next-close prediction for the window the tensors were built from.
func (i Invoker) Predict(ctx context.Context, symbol string, t features.Tensors) (domain.Prediction, error) {
	if i.Model == nil {
		return domain.Prediction{}, fmt.Errorf("no model configured")
	}
	if t.Price == nil || t.Events == nil {
		return domain.Prediction{}, fmt.Errorf("tensors are incomplete")
	}

	scaled, err := i.Model.Predict(ctx, features.Rows(t.Price), features.Rows(t.Events))
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("model predict: %w", err)
	}

	now := time.Now().UTC()
	if i.Now != nil {
		now = i.Now()
	}

	return domain.Prediction{
		Symbol:        symbol,
		ReferenceDate: t.LastDate(),
		Scaled:        scaled,
		Price:         Inverse(scaled, t.Stats),
		CreatedAt:     now,
	}, nil
}

// Inverse undoes the close-column scaling of the window described by stats.
func Inverse(scaled float64, stats features.Stats) float64 {
	return stats.Close.Inverse(scaled)
}
