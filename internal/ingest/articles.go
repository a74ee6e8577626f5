package ingest

import (
	"context"
	"log/slog"

	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/ports"
)

// ArticleFetcher downloads catalogue entries one by one behind a politeness gate.
type ArticleFetcher struct {
	Fetcher ports.PageFetcher
	Limiter ports.Limiter
	Logger  *slog.Logger
}

// BatchResult summarises one batch download.
type BatchResult struct {
	Articles []domain.RawArticle
	Absent   int
	Failed   int
}

// FetchBatch downloads every link; absent or failing pages are skipped so one
// bad page never aborts the batch. It stops early only when ctx is done.
func (f *ArticleFetcher) FetchBatch(ctx context.Context, links []domain.ArticleLink) (BatchResult, error) {
	log := orDiscard(f.Logger)
	res := BatchResult{Articles: make([]domain.RawArticle, 0, len(links))}

	for _, link := range links {
		if f.Limiter != nil {
			if err := f.Limiter.Wait(ctx); err != nil {
				return res, err
			}
		}

		art, err := f.Fetcher.FetchArticle(ctx, link)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			res.Failed++
			log.Warn("article fetch failed", "url", link.URL, "error", err)
			continue
		}
		if art == nil {
			res.Absent++
			continue
		}
		art.Key = link.Key
		art.Order = link.Order
		res.Articles = append(res.Articles, *art)
	}

	return res, nil
}

// Batches splits links into consecutive chunks of size, keyed by start offset.
func Batches(links []domain.ArticleLink, size int) map[int][]domain.ArticleLink {
	if size <= 0 {
		size = len(links)
	}
	out := make(map[int][]domain.ArticleLink)
	for start := 0; start < len(links); start += size {
		end := start + size
		if end > len(links) {
			end = len(links)
		}
		out[start] = links[start:end]
	}
	return out
}
