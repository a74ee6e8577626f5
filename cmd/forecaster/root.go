package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"MarketNewsForecaster/internal/app"
	"MarketNewsForecaster/internal/config"
	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/logging"
	"MarketNewsForecaster/internal/usecase"
)

// workflows is the slice of the pipeline the commands drive.
type workflows interface {
	Symbol() string
	Historical(ctx context.Context, start, end domain.TimelineKey) (usecase.HistoricalReport, error)
	Daily(ctx context.Context, symbol string, keys []domain.TimelineKey) (usecase.DailyReport, error)
	Forecast(ctx context.Context, symbol string) (domain.Prediction, error)
	BuildDataset(ctx context.Context, symbol string) (usecase.DatasetReport, error)
}

// runtime bundles what a command needs after configuration is resolved.
type runtime struct {
	cfg       config.Config
	logger    *slog.Logger
	workflows workflows
	schedule  func(ctx context.Context) error
	dailyKeys []domain.TimelineKey
}

// loadConfig and buildRuntime are swapped out in tests.
var (
	loadConfig   = config.Load
	buildRuntime = newRuntime
)

var rootCmd = &cobra.Command{
	Use:   "forecaster",
	Short: "News and price ingestion with next-day price forecasting",
	Long: `Collects finance news and daily price bars, aligns them by trading day,
builds sliding feature windows and asks a remote model for the next close.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(historicalCmd, dailyCmd, forecastCmd, datasetCmd, scheduleCmd)
}

func newRuntime(cfg config.Config) (*runtime, error) {
	logger := logging.New(cfg.Logging.Level)
	application, err := app.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build application: %w", err)
	}
	return &runtime{
		cfg:       cfg,
		logger:    logger,
		workflows: application.Pipeline(),
		schedule:  application.RunScheduled,
		dailyKeys: application.DailyKeys(),
	}, nil
}

// commandContext cancels on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func toKeys(raw []int) []domain.TimelineKey {
	keys := make([]domain.TimelineKey, len(raw))
	for i, k := range raw {
		keys[i] = domain.TimelineKey(k)
	}
	return keys
}
