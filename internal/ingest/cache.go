package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/logging"
	"MarketNewsForecaster/internal/ports"
)

// CacheStats counts how each key was served.
type CacheStats struct {
	Hits    int `json:"hits"`
	Fetched int `json:"fetched"`
	Empty   int `json:"empty"`
	Failed  int `json:"failed"`
}

// FetchCache serves timeline payloads from a durable store and fetches only
// keys that have never been stored.
type FetchCache struct {
	Store   ports.RecordStore
	Fetcher ports.TimelineFetcher
	Limiter ports.Limiter
	Logger  *slog.Logger
	Now     func() time.Time

	Stats CacheStats
}

// GetOrFetch returns the stored record for key or fetches and stores it. A nil
// record with nil error means the source had no data; nothing is stored then,
// so a later run will try again.
func (c *FetchCache) GetOrFetch(ctx context.Context, key domain.TimelineKey) (*domain.FetchRecord, error) {
	rec, err := c.Store.Load(key)
	if err != nil {
		return nil, fmt.Errorf("load key %d: %w", key, err)
	}
	if rec != nil {
		c.Stats.Hits++
		return rec, nil
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	payload, err := c.Fetcher.FetchTimeline(ctx, key)
	if err != nil {
		c.Stats.Failed++
		c.logger().Warn("timeline fetch failed", "key", int(key), "error", err)
		return nil, nil
	}
	if len(payload) == 0 {
		c.Stats.Empty++
		return nil, nil
	}

	rec = &domain.FetchRecord{Key: key, Payload: payload, FetchedAt: c.now()}
	if err := c.Store.Save(*rec); err != nil {
		return nil, fmt.Errorf("save key %d: %w", key, err)
	}
	c.Stats.Fetched++
	return rec, nil
}

// FetchRange walks keys [start, end) and returns the stored records in key order.
func (c *FetchCache) FetchRange(ctx context.Context, start, end domain.TimelineKey) ([]domain.FetchRecord, error) {
	var records []domain.FetchRecord
	for key := start; key < end; key++ {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		rec, err := c.GetOrFetch(ctx, key)
		if err != nil {
			return records, err
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}
	c.logger().Info("timeline range cached", "start", int(start), "end", int(end),
		"hits", c.Stats.Hits, "fetched", c.Stats.Fetched, "empty", c.Stats.Empty, "failed", c.Stats.Failed)
	return records, nil
}

func (c *FetchCache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now().UTC()
}

func (c *FetchCache) logger() *slog.Logger {
	return orDiscard(c.Logger)
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return logging.Discard()
}
