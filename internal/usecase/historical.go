package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"MarketNewsForecaster/internal/align"
	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/ingest"
	"MarketNewsForecaster/internal/ports"
)

// Stage identifies a step of the historical backfill.
type Stage int

const (
	StageNone Stage = iota
	StageFetch
	StageCatalogue
	StageArticles
	StageNormalize
	StageAlign
	StagePersist
)

func (s Stage) String() string {
	switch s {
	case StageFetch:
		return "fetch"
	case StageCatalogue:
		return "catalogue"
	case StageArticles:
		return "articles"
	case StageNormalize:
		return "normalize"
	case StageAlign:
		return "align"
	case StagePersist:
		return "persist"
	default:
		return "none"
	}
}

// HistoricalReport describes how far a backfill got; it is returned even on
// failure so a rerun knows where it resumes.
type HistoricalReport struct {
	Start     domain.TimelineKey
	End       domain.TimelineKey
	LastStage Stage

	Cache   ingest.CacheStats
	Records int
	Links   int

	RawBatchesWritten int
	RawBatchesSkipped int
	ArticlesFetched   int
	ArticlesAbsent    int
	ArticlesFailed    int

	NormalizedWritten int
	NormalizedSkipped int
	Normalize         ingest.NormalizeReport

	Aligned       int
	Persisted     int
	AlreadyStored int

	CataloguePath string
	AlignedPath   string
}

// Historical runs the staged backfill over a key range: fetch, catalogue,
// article download, normalization, alignment and optional persistence.
type Historical struct {
	Symbol     string
	BatchSize  int
	PriceTable string

	OpenStore  func() (ports.RecordStore, error)
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
}

// Run executes every stage for keys in [start, end). Stages whose artifacts
// already exist are skipped.
func (h *Historical) Run(ctx context.Context, start, end domain.TimelineKey) (HistoricalReport, error) {
	report := HistoricalReport{Start: start, End: end, Normalize: ingest.NormalizeReport{Rejected: map[domain.RejectReason]int{}}}
	if end <= start {
		return report, fmt.Errorf("empty key range [%d, %d)", start, end)
	}
	log := h.logger()

	if err := h.fetchAndCatalogue(ctx, start, end, &report); err != nil {
		return report, err
	}
	if err := h.downloadArticles(ctx, &report); err != nil {
		return report, err
	}
	report.LastStage = StageArticles

	if err := h.normalize(&report); err != nil {
		return report, err
	}
	report.LastStage = StageNormalize

	records, err := h.align(ctx, &report)
	if err != nil {
		return report, err
	}
	report.LastStage = StageAlign

	if h.Sink != nil && h.Sink.Configured() {
		through, err := storedThrough(ctx, h.Sink, h.Symbol)
		if err != nil {
			return report, err
		}
		for _, rec := range records {
			if !rec.Date.After(through) {
				report.AlreadyStored++
				continue
			}
			if err := h.Sink.Insert(ctx, h.PriceTable, rec.Row()); err != nil {
				return report, fmt.Errorf("persist %s: %w", rec.Date.Format(domain.DateLayout), err)
			}
			report.Persisted++
		}
		report.LastStage = StagePersist
	}

	log.Info("historical run finished",
		"start", int(start), "end", int(end),
		"links", report.Links, "articles", report.ArticlesFetched,
		"normalized", report.Normalize.Accepted, "aligned", report.Aligned,
		"persisted", report.Persisted, "already_stored", report.AlreadyStored, "stage", report.LastStage.String())
	return report, nil
}

func (h *Historical) fetchAndCatalogue(ctx context.Context, start, end domain.TimelineKey, report *HistoricalReport) error {
	store, err := h.OpenStore()
	if err != nil {
		return fmt.Errorf("open fetch cache: %w", err)
	}
	defer store.Close()

	cache := &ingest.FetchCache{
		Store:   store,
		Fetcher: h.Timeline,
		Limiter: h.TimelineGate,
		Logger:  h.logger(),
		Now:     h.Now,
	}
	_, err = cache.FetchRange(ctx, start, end)
	report.Cache = cache.Stats
	if err != nil {
		return fmt.Errorf("fetch timeline: %w", err)
	}
	report.LastStage = StageFetch

	// the catalogue covers every cached key, not just this run's range
	keys, err := store.Keys()
	if err != nil {
		return fmt.Errorf("list cached keys: %w", err)
	}
	records := make([]domain.FetchRecord, 0, len(keys))
	for _, key := range keys {
		rec, err := store.Load(key)
		if err != nil {
			return fmt.Errorf("load key %d: %w", key, err)
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}
	report.Records = len(records)

	links := ingest.BuildCatalogue(records, h.Extractor, h.logger())
	path, err := h.Artifacts.SaveCatalogue(links)
	if err != nil {
		return fmt.Errorf("save catalogue: %w", err)
	}
	report.Links = len(links)
	report.CataloguePath = path
	report.LastStage = StageCatalogue
	return nil
}

func (h *Historical) downloadArticles(ctx context.Context, report *HistoricalReport) error {
	links, err := h.Artifacts.LoadCatalogue()
	if err != nil {
		return fmt.Errorf("load catalogue: %w", err)
	}

	batches := ingest.Batches(links, h.BatchSize)
	starts := make([]int, 0, len(batches))
	for s := range batches {
		starts = append(starts, s)
	}
	sort.Ints(starts)

	fetcher := &ingest.ArticleFetcher{Fetcher: h.Pages, Limiter: h.ArticleGate, Logger: h.logger()}
	for _, s := range starts {
		if h.Artifacts.RawBatchExists(s) {
			report.RawBatchesSkipped++
			continue
		}
		res, err := fetcher.FetchBatch(ctx, batches[s])
		report.ArticlesFetched += len(res.Articles)
		report.ArticlesAbsent += res.Absent
		report.ArticlesFailed += res.Failed
		if err != nil {
			return fmt.Errorf("download batch %d: %w", s, err)
		}
		if _, err := h.Artifacts.SaveRawBatch(s, res.Articles); err != nil {
			return fmt.Errorf("save batch %d: %w", s, err)
		}
		report.RawBatchesWritten++
		h.logger().Info("article batch saved", "start", s, "articles", len(res.Articles))
	}
	return nil
}

func (h *Historical) normalize(report *HistoricalReport) error {
	starts, err := h.Artifacts.RawBatchStarts()
	if err != nil {
		return fmt.Errorf("list raw batches: %w", err)
	}

	for _, s := range starts {
		if h.Artifacts.NormalizedBatchExists(s) {
			report.NormalizedSkipped++
			continue
		}
		raws, err := h.Artifacts.LoadRawBatch(s)
		if err != nil {
			return fmt.Errorf("load raw batch %d: %w", s, err)
		}
		articles, nrep := ingest.NormalizeAll(h.Normalizer, raws, h.logger())
		mergeNormalizeReport(&report.Normalize, nrep)
		if _, err := h.Artifacts.SaveNormalizedBatch(s, articles); err != nil {
			return fmt.Errorf("save normalized batch %d: %w", s, err)
		}
		report.NormalizedWritten++
	}
	return nil
}

func (h *Historical) align(ctx context.Context, report *HistoricalReport) ([]domain.AlignedRecord, error) {
	articles, err := h.Artifacts.LoadNormalized()
	if err != nil {
		return nil, fmt.Errorf("load normalized articles: %w", err)
	}

	var bars []domain.PriceBar
	if first, last := align.Span(articles); !first.IsZero() {
		bars, err = h.Prices.PriceHistory(ctx, h.Symbol, first, last)
		if err != nil {
			return nil, fmt.Errorf("price history: %w", err)
		}
	}

	records := align.Align(h.Symbol, articles, bars, h.now())
	path, err := h.Artifacts.SaveAligned(records)
	if err != nil {
		return nil, fmt.Errorf("save aligned records: %w", err)
	}
	report.Aligned = len(records)
	report.AlignedPath = path
	return records, nil
}

func (h *Historical) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *Historical) logger() *slog.Logger {
	return orDiscard(h.Logger)
}

func mergeNormalizeReport(dst *ingest.NormalizeReport, src ingest.NormalizeReport) {
	dst.Accepted += src.Accepted
	dst.Failed += src.Failed
	if dst.Rejected == nil {
		dst.Rejected = map[domain.RejectReason]int{}
	}
	for reason, n := range src.Rejected {
		dst.Rejected[reason] += n
	}
}

// storedThrough returns the newest day the sink already holds for symbol. It
// is the zero time when the sink holds nothing or cannot read rows back.
func storedThrough(ctx context.Context, sink ports.Sink, symbol string) (time.Time, error) {
	src, ok := sink.(ports.RecordSource)
	if !ok {
		return time.Time{}, nil
	}
	latest, err := src.LatestRecords(ctx, symbol, 1)
	if err != nil {
		return time.Time{}, fmt.Errorf("read stored records: %w", err)
	}
	if len(latest) == 0 {
		return time.Time{}, nil
	}
	return domain.Day(latest[len(latest)-1].Date), nil
}
