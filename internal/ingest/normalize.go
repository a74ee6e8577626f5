package ingest

import (
	"errors"
	"log/slog"

	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/ports"
)

// NormalizeReport counts normalization results by outcome.
type NormalizeReport struct {
	Accepted int                         `json:"accepted"`
	Rejected map[domain.RejectReason]int `json:"rejected"`
	Failed   int                         `json:"failed"`
}

// Classify turns a normalizer result into an explicit outcome. Unexpected
// failures are returned as errors.
func Classify(n ports.Normalizer, raw domain.RawArticle) (domain.Outcome, error) {
	art, err := n.Normalize(raw.Body, raw.URL)
	switch {
	case err == nil:
		art.URL = raw.URL
		art.Order = raw.Order
		return domain.Outcome{Article: &art}, nil
	case errors.Is(err, domain.ErrDateExtraction):
		return domain.Outcome{Rejection: &domain.Rejection{URL: raw.URL, Reason: domain.RejectNoDate, Detail: err.Error()}}, nil
	case errors.Is(err, domain.ErrFilteredOut):
		return domain.Outcome{Rejection: &domain.Rejection{URL: raw.URL, Reason: domain.RejectFilteredOut, Detail: err.Error()}}, nil
	default:
		return domain.Outcome{}, err
	}
}

// NormalizeAll normalizes a batch, skipping rejected and unparseable articles.
// It never aborts on a single article.
func NormalizeAll(n ports.Normalizer, raws []domain.RawArticle, log *slog.Logger) ([]domain.NormalizedArticle, NormalizeReport) {
	log = orDiscard(log)
	report := NormalizeReport{Rejected: map[domain.RejectReason]int{}}
	out := make([]domain.NormalizedArticle, 0, len(raws))

	for _, raw := range raws {
		outcome, err := Classify(n, raw)
		if err != nil {
			report.Failed++
			log.Warn("article normalization failed", "url", raw.URL, "error", err)
			continue
		}
		if !outcome.Accepted() {
			report.Rejected[outcome.Rejection.Reason]++
			log.Debug("article rejected", "url", raw.URL, "reason", string(outcome.Rejection.Reason))
			continue
		}
		report.Accepted++
		out = append(out, *outcome.Article)
	}

	return out, report
}
