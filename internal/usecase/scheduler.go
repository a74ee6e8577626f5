package usecase

import (
	"context"
	"errors"
	"time"

	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/ports"
)

// Scheduler wires the cron driver with the daily update and forecast.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	keys     []domain.TimelineKey
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, keys []domain.TimelineKey) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, keys: keys}
}

// RunOnce performs one scheduled cycle: the daily update, then a forecast.
func (s *Scheduler) RunOnce(ctx context.Context, trigger time.Time) error {
	log := s.pipeline.logger.With("trigger", trigger.Format(time.RFC3339))

	report, err := s.pipeline.Daily(ctx, "", s.keys)
	if err != nil {
		log.Error("daily update failed", "error", err)
		return err
	}
	log.Info("daily update done", "news", report.NewsCount, "persisted", report.Persisted)

	pred, err := s.pipeline.Forecast(ctx, "")
	if err != nil {
		var winErr *domain.InsufficientWindowError
		if errors.As(err, &winErr) {
			log.Warn("not enough history to forecast yet", "have", winErr.Got, "need", winErr.Want)
			return nil
		}
		log.Error("forecast failed", "error", err)
		return err
	}
	log.Info("forecast done", "price_predict", pred.Rounded().String())
	return nil
}

// Start registers the cycle with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		_ = s.RunOnce(ctx, trigger)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
