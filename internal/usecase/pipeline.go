package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/features"
	"MarketNewsForecaster/internal/forecast"
	"MarketNewsForecaster/internal/logging"
	"MarketNewsForecaster/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Symbol       string
	BatchSize    int
	PriceTable   string
	PredictTable string
	Location     *time.Location

	OpenStore  func() (ports.RecordStore, error)
	Timeline   ports.TimelineFetcher
	Extractor  ports.LinkExtractor
	Pages      ports.PageFetcher
	Normalizer ports.Normalizer
	Prices     ports.PriceSource
	Sink       ports.Sink
	Records    ports.RecordSource
	Artifacts  ports.ArtifactStore
	Embedder   ports.Embedder
	Model      ports.Model
	Notifier   ports.Notifier

	TimelineGate ports.Limiter
	ArticleGate  ports.Limiter

	SequenceLength int
	EmbeddingDim   int

	Logger *slog.Logger
	Now    func() time.Time
}

// Pipeline groups the backfill, daily, forecast and dataset workflows over
// one set of adapters.
type Pipeline struct {
	symbol     string
	historical *Historical
	daily      *Daily
	forecaster *Forecaster
	dataset    *DatasetBuilder
	notifier   ports.Notifier
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	log := orDiscard(deps.Logger)
	builder := features.Builder{
		SequenceLength: deps.SequenceLength,
		EmbeddingDim:   deps.EmbeddingDim,
		Embedder:       deps.Embedder,
	}

	return &Pipeline{
		symbol: deps.Symbol,
		historical: &Historical{
			Symbol:       deps.Symbol,
			BatchSize:    deps.BatchSize,
			PriceTable:   deps.PriceTable,
			OpenStore:    deps.OpenStore,
			Timeline:     deps.Timeline,
			Extractor:    deps.Extractor,
			Pages:        deps.Pages,
			Normalizer:   deps.Normalizer,
			Prices:       deps.Prices,
			Sink:         deps.Sink,
			Artifacts:    deps.Artifacts,
			TimelineGate: deps.TimelineGate,
			ArticleGate:  deps.ArticleGate,
			Logger:       log.With("component", "historical"),
			Now:          deps.Now,
		},
		daily: &Daily{
			PriceTable:   deps.PriceTable,
			Location:     deps.Location,
			Timeline:     deps.Timeline,
			Extractor:    deps.Extractor,
			Pages:        deps.Pages,
			Normalizer:   deps.Normalizer,
			Prices:       deps.Prices,
			Sink:         deps.Sink,
			Artifacts:    deps.Artifacts,
			TimelineGate: deps.TimelineGate,
			ArticleGate:  deps.ArticleGate,
			Logger:       log.With("component", "daily"),
			Now:          deps.Now,
		},
		forecaster: &Forecaster{
			Records:      deps.Records,
			Builder:      builder,
			Invoker:      forecast.Invoker{Model: deps.Model, Now: deps.Now},
			Sink:         deps.Sink,
			PredictTable: deps.PredictTable,
			Notifier:     deps.Notifier,
			Logger:       log.With("component", "forecast"),
		},
		dataset: &DatasetBuilder{
			Artifacts: deps.Artifacts,
			Builder:   builder,
			Logger:    log.With("component", "dataset"),
		},
		notifier: deps.Notifier,
		logger:   log,
	}
}

// Symbol is the configured default instrument.
func (p *Pipeline) Symbol() string {
	return p.symbol
}

// Historical runs the staged backfill for keys in [start, end).
func (p *Pipeline) Historical(ctx context.Context, start, end domain.TimelineKey) (HistoricalReport, error) {
	return p.historical.Run(ctx, start, end)
}

// Daily runs today's incremental update and publishes a digest when a notifier is set.
func (p *Pipeline) Daily(ctx context.Context, symbol string, keys []domain.TimelineKey) (DailyReport, error) {
	report, err := p.daily.Run(ctx, p.symbolOr(symbol), keys)
	if err != nil {
		return report, err
	}
	if p.notifier != nil {
		if nErr := p.notifier.PublishDigest(ctx, buildDailyDigest(report)); nErr != nil {
			p.logger.Warn("publish daily digest", "error", nErr)
		}
	}
	return report, nil
}

// Forecast predicts the next close for symbol.
func (p *Pipeline) Forecast(ctx context.Context, symbol string) (domain.Prediction, error) {
	return p.forecaster.Run(ctx, p.symbolOr(symbol))
}

// BuildDataset exports the training windows for symbol.
func (p *Pipeline) BuildDataset(ctx context.Context, symbol string) (DatasetReport, error) {
	return p.dataset.Run(ctx, p.symbolOr(symbol))
}

func (p *Pipeline) symbolOr(symbol string) string {
	if symbol != "" {
		return symbol
	}
	return p.symbol
}

func buildDailyDigest(r DailyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* daily update %s\n", r.Symbol, r.Day.Format(domain.DateLayout))
	fmt.Fprintf(&b, "News: %d\n", r.NewsCount)
	if r.Record == nil {
		b.WriteString("No price bar for today; nothing recorded.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Close: %.2f (O %.2f H %.2f L %.2f)\n", r.Record.Close, r.Record.Open, r.Record.High, r.Record.Low)
	if r.Persisted {
		b.WriteString("Stored in database.\n")
	}
	return b.String()
}

func buildForecastDigest(pred domain.Prediction, window []domain.AlignedRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* forecast from %s\n", pred.Symbol, pred.ReferenceDate.Format(domain.DateLayout))
	fmt.Fprintf(&b, "Predicted close: %s\n", pred.Rounded().StringFixed(2))
	if n := len(window); n > 0 {
		fmt.Fprintf(&b, "Last close: %.2f over a %d-day window\n", window[n-1].Close, n)
	}
	return b.String()
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return logging.Discard()
}
