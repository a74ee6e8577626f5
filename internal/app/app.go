package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MarketNewsForecaster/internal/config"
	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/infrastructure/market"
	"MarketNewsForecaster/internal/infrastructure/ml"
	"MarketNewsForecaster/internal/infrastructure/parser"
	"MarketNewsForecaster/internal/infrastructure/ratelimit"
	"MarketNewsForecaster/internal/infrastructure/scheduler"
	"MarketNewsForecaster/internal/infrastructure/storage"
	"MarketNewsForecaster/internal/infrastructure/telegram"
	"MarketNewsForecaster/internal/logging"
	"MarketNewsForecaster/internal/ports"
	"MarketNewsForecaster/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	cron     *scheduler.CronScheduler
}

// New builds a runnable application instance from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	artifacts := storage.NewArtifactStore(cfg.Storage.DataDir)
	openStore, err := recordStoreOpener(cfg.Storage, artifacts.Layout)
	if err != nil {
		return nil, err
	}

	registry, err := parser.DefaultRegistry(cfg.Site)
	if err != nil {
		return nil, fmt.Errorf("site strategies: %w", err)
	}
	source, err := parser.NewStrategySource(registry, cfg.Site, baseLogger.With("component", "source"))
	if err != nil {
		return nil, err
	}
	fetcher := parser.NewHTTPFetcher(nil, cfg.Site, cfg.Fetch, nil, baseLogger.With("component", "fetcher"))

	prices := market.NewClient(cfg.Market.PriceAPIURL, cfg.Market.APIKey,
		market.WithLimiter(ratelimit.NewGate(cfg.Fetch.PriceDelay)),
		market.WithLogger(baseLogger.With("component", "prices")),
	)

	sink := storage.NewSQLSink(cfg.Database)
	var records ports.RecordSource = storage.NewCSVRecordSource(artifacts.Layout.AlignedFile())
	if sink.Configured() {
		records = sink
	}

	mlClient := ml.NewClient(cfg.ML.EmbeddingURL, cfg.ML.ModelURL, cfg.ML.APIKey)

	var notifier ports.Notifier
	if tg := telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID); tg.Configured() {
		notifier = tg
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Symbol:         cfg.Market.Symbol,
		BatchSize:      cfg.Fetch.BatchSize,
		PriceTable:     cfg.Database.PriceTable,
		PredictTable:   cfg.Database.PredictTable,
		Location:       cfg.Scheduler.Location(),
		OpenStore:      openStore,
		Timeline:       fetcher,
		Extractor:      source,
		Pages:          fetcher,
		Normalizer:     source,
		Prices:         prices,
		Sink:           sink,
		Records:        records,
		Artifacts:      artifacts,
		Embedder:       mlClient,
		Model:          mlClient,
		Notifier:       notifier,
		TimelineGate:   ratelimit.NewGate(cfg.Fetch.TimelineDelay),
		ArticleGate:    ratelimit.NewGate(cfg.Fetch.ArticleDelay),
		SequenceLength: cfg.ML.SequenceLength,
		EmbeddingDim:   cfg.ML.EmbeddingDim,
		Logger:         baseLogger.With("component", "pipeline"),
	})

	cron := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location(), baseLogger.With("component", "scheduler"))

	return &Application{cfg: cfg, logger: baseLogger, pipeline: pipeline, cron: cron}, nil
}

func recordStoreOpener(cfg config.StorageConfig, layout storage.Layout) (func() (ports.RecordStore, error), error) {
	switch cfg.CacheBackend {
	case "", config.CacheBackendFile:
		return func() (ports.RecordStore, error) {
			return storage.NewFileRecordStore(layout.TimelineDir())
		}, nil
	case config.CacheBackendBadger:
		return func() (ports.RecordStore, error) {
			return storage.OpenBadgerRecordStore(layout.BadgerDir())
		}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

// Pipeline exposes the workflows for one-shot commands.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// Config returns the configuration the application was built with.
func (a *Application) Config() config.Config {
	return a.cfg
}

// DailyKeys converts the configured timeline keys for the scheduled daily run.
func (a *Application) DailyKeys() []domain.TimelineKey {
	keys := make([]domain.TimelineKey, len(a.cfg.Scheduler.DailyKeys))
	for i, k := range a.cfg.Scheduler.DailyKeys {
		keys[i] = domain.TimelineKey(k)
	}
	return keys
}

// RunScheduled starts the cron loop and blocks until ctx is done.
func (a *Application) RunScheduled(ctx context.Context) error {
	if err := a.cron.Validate(); err != nil {
		return err
	}

	sched := usecase.NewScheduler(a.cron, a.pipeline, a.DailyKeys())
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	if next, err := a.cron.Next(time.Now()); err == nil {
		a.logger.Info("waiting for next run", "next", next)
	}

	<-ctx.Done()
	return sched.Stop(context.Background())
}
