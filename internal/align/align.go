// Package align fuses per-day news corpora with daily price bars.
package align

import (
	"sort"
	"strings"
	"time"

	"MarketNewsForecaster/internal/domain"
)

// CorpusSeparator joins same-day article texts.
const CorpusSeparator = "\n\n"

// Align emits one record per price-bar date in ascending order. Articles on
// dates without a bar are dropped; bars without articles get an empty corpus.
// When bars repeat a date the last one wins.
func Align(symbol string, articles []domain.NormalizedArticle, bars []domain.PriceBar, now time.Time) []domain.AlignedRecord {
	byDay := make(map[time.Time]domain.PriceBar, len(bars))
	for _, bar := range bars {
		byDay[domain.Day(bar.Date)] = bar
	}

	groups := groupByDay(articles)

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	records := make([]domain.AlignedRecord, 0, len(days))
	for _, day := range days {
		bar := byDay[day]
		group := groups[day]
		records = append(records, record(symbol, day, bar, group, now))
	}
	return records
}

// ComposeDaily builds the single record for the bar's day from articles dated
// that day. It returns nil when there is no bar.
func ComposeDaily(symbol string, articles []domain.NormalizedArticle, bar *domain.PriceBar, now time.Time) *domain.AlignedRecord {
	if bar == nil {
		return nil
	}
	day := domain.Day(bar.Date)
	rec := record(symbol, day, *bar, groupByDay(articles)[day], now)
	return &rec
}

func record(symbol string, day time.Time, bar domain.PriceBar, group []domain.NormalizedArticle, now time.Time) domain.AlignedRecord {
	return domain.AlignedRecord{
		Symbol:    symbol,
		Date:      day,
		Open:      bar.Open,
		High:      bar.High,
		Low:       bar.Low,
		Close:     bar.Close,
		Volume:    bar.Volume,
		Corpus:    MergeCorpus(group),
		NewsCount: len(group),
		CreatedAt: now,
	}
}

// MergeCorpus concatenates article texts in discovery order.
func MergeCorpus(group []domain.NormalizedArticle) string {
	if len(group) == 0 {
		return ""
	}
	ordered := make([]domain.NormalizedArticle, len(group))
	copy(ordered, group)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	texts := make([]string, len(ordered))
	for i, a := range ordered {
		texts[i] = a.Corpus
	}
	return strings.Join(texts, CorpusSeparator)
}

func groupByDay(articles []domain.NormalizedArticle) map[time.Time][]domain.NormalizedArticle {
	groups := make(map[time.Time][]domain.NormalizedArticle)
	for _, a := range articles {
		day := a.Date()
		groups[day] = append(groups[day], a)
	}
	return groups
}

// Span returns the first and last article dates, or zero times when empty.
func Span(articles []domain.NormalizedArticle) (time.Time, time.Time) {
	var first, last time.Time
	for i, a := range articles {
		d := a.Date()
		if i == 0 || d.Before(first) {
			first = d
		}
		if i == 0 || d.After(last) {
			last = d
		}
	}
	return first, last
}
