package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day layout used in file names, CSV and JSON.
const DateLayout = "2006-01-02"

// PriceBar is one day's OHLCV quote for the symbol.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// AlignedRecord fuses one calendar day's price bar with that day's corpus.
type AlignedRecord struct {
	Symbol    string    `json:"symbol"`
	Date      time.Time `json:"time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Corpus    string    `json:"merge_corpus"`
	NewsCount int       `json:"news_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Row flattens the record into the column layout of the price/news fact table.
func (r AlignedRecord) Row() map[string]any {
	return map[string]any{
		"symbol":       r.Symbol,
		"time":         r.Date,
		"open":         r.Open,
		"high":         r.High,
		"low":          r.Low,
		"close":        r.Close,
		"volume":       r.Volume,
		"year":         r.Date.Year(),
		"month":        int(r.Date.Month()),
		"day":          r.Date.Day(),
		"merge_corpus": r.Corpus,
		"news_count":   r.NewsCount,
		"created_at":   r.CreatedAt,
	}
}

// Prediction is the model output mapped back to price units.
type Prediction struct {
	Symbol        string    `json:"symbol"`
	ReferenceDate time.Time `json:"time"`
	Scaled        float64   `json:"scaled"`
	Price         float64   `json:"price_predict"`
	CreatedAt     time.Time `json:"created_at"`
}

// Rounded returns the predicted price rounded to two decimals.
func (p Prediction) Rounded() decimal.Decimal {
	return decimal.NewFromFloat(p.Price).Round(2)
}

// Row flattens the prediction into the prediction fact table layout.
func (p Prediction) Row() map[string]any {
	return map[string]any{
		"time":          p.ReferenceDate,
		"price_predict": p.Rounded().InexactFloat64(),
	}
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
