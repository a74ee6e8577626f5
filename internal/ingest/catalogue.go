package ingest

import (
	"log/slog"
	"sort"

	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/ports"
)

// BuildCatalogue extracts links from every record in ascending key order,
// keeps the first discovery of each URL and numbers links in discovery order.
// A record whose payload cannot be parsed is logged and skipped.
func BuildCatalogue(records []domain.FetchRecord, extractor ports.LinkExtractor, log *slog.Logger) []domain.ArticleLink {
	log = orDiscard(log)

	ordered := make([]domain.FetchRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Key < ordered[j].Key })

	seen := make(map[string]struct{})
	catalogue := make([]domain.ArticleLink, 0)
	for _, rec := range ordered {
		links, err := extractor.ExtractLinks(rec.Key, rec.Payload)
		if err != nil {
			log.Warn("skip malformed timeline record", "key", int(rec.Key), "error", err)
			continue
		}
		for _, link := range links {
			if link.URL == "" {
				continue
			}
			if _, dup := seen[link.URL]; dup {
				continue
			}
			seen[link.URL] = struct{}{}
			catalogue = append(catalogue, domain.ArticleLink{
				Key:   rec.Key,
				URL:   link.URL,
				Order: len(catalogue),
			})
		}
	}

	log.Info("catalogue built", "records", len(ordered), "links", len(catalogue))
	return catalogue
}
