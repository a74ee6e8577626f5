package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"MarketNewsForecaster/internal/align"
	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/ingest"
	"MarketNewsForecaster/internal/ports"
)

// DailyReport summarises one daily incremental run.
type DailyReport struct {
	RunID          string
	Symbol         string
	Day            time.Time
	Pages          int
	Links          int
	NewsCount      int
	Normalize      ingest.NormalizeReport
	PriceOK        bool
	RecordComposed bool
	Persisted      bool
	AlreadyStored  bool
	SnapshotPath   string
	Record         *domain.AlignedRecord
}

// Daily fetches today's news straight from the timeline, joins it with
// today's price bar and appends one aligned record.
type Daily struct {
	PriceTable string
	Location   *time.Location

	Timeline   ports.TimelineFetcher
	Extractor  ports.LinkExtractor
	Pages      ports.PageFetcher
	Normalizer ports.Normalizer
	Prices     ports.PriceSource
	Sink       ports.Sink
	Artifacts  ports.ArtifactStore

	TimelineGate ports.Limiter
	ArticleGate  ports.Limiter

	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string
}

// Run processes today for symbol using the given timeline keys. Without a
// price bar nothing is composed or persisted, but the snapshot is still written.
func (d *Daily) Run(ctx context.Context, symbol string, keys []domain.TimelineKey) (DailyReport, error) {
	log := orDiscard(d.Logger)
	now := d.now()
	local := now
	if d.Location != nil {
		local = now.In(d.Location)
	}
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	report := DailyReport{RunID: d.newID(), Symbol: symbol, Day: day}

	records, err := d.fetchTimelines(ctx, keys)
	if err != nil {
		return report, err
	}
	report.Pages = len(records)

	links := ingest.BuildCatalogue(records, d.Extractor, log)
	report.Links = len(links)

	fetched, err := (&ingest.ArticleFetcher{Fetcher: d.Pages, Limiter: d.ArticleGate, Logger: log}).FetchBatch(ctx, links)
	if err != nil {
		return report, fmt.Errorf("download articles: %w", err)
	}

	articles, nrep := ingest.NormalizeAll(d.Normalizer, fetched.Articles, log)
	report.Normalize = nrep

	todays := make([]domain.NormalizedArticle, 0, len(articles))
	for _, a := range articles {
		if a.Date().Equal(day) {
			todays = append(todays, a)
		}
	}
	report.NewsCount = len(todays)

	bar, err := d.Prices.PriceBar(ctx, symbol, day)
	if err != nil {
		log.Warn("price bar unavailable", "symbol", symbol, "day", day.Format(domain.DateLayout), "error", err)
		bar = nil
	}
	report.PriceOK = bar != nil

	record := align.ComposeDaily(symbol, todays, bar, now.UTC())
	report.RecordComposed = record != nil
	report.Record = record

	path, err := d.Artifacts.SaveDailySnapshot(domain.DailySnapshot{
		RunID:       report.RunID,
		Symbol:      symbol,
		Day:         day.Format(domain.DateLayout),
		GeneratedAt: now.UTC(),
		NewsEvents:  todays,
		Price:       bar,
		Record:      record,
	})
	if err != nil {
		return report, fmt.Errorf("save daily snapshot: %w", err)
	}
	report.SnapshotPath = path

	if record != nil && d.Sink != nil && d.Sink.Configured() {
		through, err := storedThrough(ctx, d.Sink, symbol)
		if err != nil {
			return report, err
		}
		if record.Date.After(through) {
			if err := d.Sink.Insert(ctx, d.PriceTable, record.Row()); err != nil {
				return report, fmt.Errorf("persist daily record: %w", err)
			}
			report.Persisted = true
		} else {
			report.AlreadyStored = true
			log.Info("record already stored", "symbol", symbol, "day", day.Format(domain.DateLayout))
		}
	}

	log.Info("daily run finished",
		"run_id", report.RunID, "symbol", symbol, "day", day.Format(domain.DateLayout),
		"news", report.NewsCount, "price_ok", report.PriceOK, "persisted", report.Persisted)
	return report, nil
}

// fetchTimelines reads each key directly from the source; today's pages are
// still changing, so they bypass the fetch cache.
func (d *Daily) fetchTimelines(ctx context.Context, keys []domain.TimelineKey) ([]domain.FetchRecord, error) {
	log := orDiscard(d.Logger)
	records := make([]domain.FetchRecord, 0, len(keys))
	for _, key := range keys {
		if d.TimelineGate != nil {
			if err := d.TimelineGate.Wait(ctx); err != nil {
				return records, err
			}
		}
		payload, err := d.Timeline.FetchTimeline(ctx, key)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return records, ctxErr
			}
			log.Warn("timeline fetch failed", "key", int(key), "error", err)
			continue
		}
		if len(payload) == 0 {
			continue
		}
		records = append(records, domain.FetchRecord{Key: key, Payload: payload, FetchedAt: d.now().UTC()})
	}
	return records, nil
}

func (d *Daily) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Daily) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return uuid.NewString()
}
