package ports

import (
	"context"
	"time"

	"MarketNewsForecaster/internal/domain"
)

// TimelineFetcher downloads one timeline page; a nil payload means "no data".
type TimelineFetcher interface {
	FetchTimeline(ctx context.Context, key domain.TimelineKey) ([]byte, error)
}

// LinkExtractor turns a timeline payload into ordered article links.
type LinkExtractor interface {
	ExtractLinks(key domain.TimelineKey, payload []byte) ([]domain.ArticleLink, error)
}

// PageFetcher downloads an article page; a nil article means "no data".
type PageFetcher interface {
	FetchArticle(ctx context.Context, link domain.ArticleLink) (*domain.RawArticle, error)
}

// Normalizer converts an article body into a dated corpus entry. It fails with
// domain.ErrDateExtraction or domain.ErrFilteredOut for expected rejections.
type Normalizer interface {
	Normalize(body, url string) (domain.NormalizedArticle, error)
}

// RecordStore durably keeps fetch records by key.
type RecordStore interface {
	Load(key domain.TimelineKey) (*domain.FetchRecord, error)
	Save(record domain.FetchRecord) error
	Keys() ([]domain.TimelineKey, error)
	Close() error
}

// PriceSource supplies daily OHLCV bars for a symbol.
type PriceSource interface {
	PriceBar(ctx context.Context, symbol string, day time.Time) (*domain.PriceBar, error)
	PriceHistory(ctx context.Context, symbol string, from, to time.Time) ([]domain.PriceBar, error)
}

// Embedder maps texts to fixed-length vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Model is the opaque sequence model returning a scaled next-value prediction.
type Model interface {
	Predict(ctx context.Context, price, events [][]float64) (float64, error)
}

// Sink persists rows into the external store.
type Sink interface {
	Configured() bool
	Insert(ctx context.Context, table string, row map[string]any) error
}

// RecordSource reads the most recent aligned records for a symbol, oldest first.
type RecordSource interface {
	LatestRecords(ctx context.Context, symbol string, n int) ([]domain.AlignedRecord, error)
}

// Limiter gates successive outbound requests.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Notifier streams digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// ArtifactStore persists the stage outputs that make a run resumable.
type ArtifactStore interface {
	SaveCatalogue(links []domain.ArticleLink) (string, error)
	LoadCatalogue() ([]domain.ArticleLink, error)

	RawBatchExists(start int) bool
	SaveRawBatch(start int, articles []domain.RawArticle) (string, error)
	RawBatchStarts() ([]int, error)
	LoadRawBatch(start int) ([]domain.RawArticle, error)

	NormalizedBatchExists(start int) bool
	SaveNormalizedBatch(start int, articles []domain.NormalizedArticle) (string, error)
	LoadNormalized() ([]domain.NormalizedArticle, error)

	SaveAligned(records []domain.AlignedRecord) (string, error)
	LoadAligned() ([]domain.AlignedRecord, error)

	SaveDailySnapshot(snapshot domain.DailySnapshot) (string, error)
	SaveDataset(ds domain.Dataset) (string, error)
}
