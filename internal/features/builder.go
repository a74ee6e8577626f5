// Package features turns a window of aligned records into the scaled price
// and event tensors the sequence model consumes.
package features

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/ports"
)

// PriceColumns is the column order of the price tensor.
var PriceColumns = [4]string{"high", "low", "open", "close"}

// MinMax holds the range of one price field inside a window.
type MinMax struct {
	Min float64 `json:"min" msgpack:"min"`
	Max float64 `json:"max" msgpack:"max"`
}

func (m MinMax) span() float64 {
	if m.Max == m.Min {
		return 1.0
	}
	return m.Max - m.Min
}

// Scale maps v into the window's [0,1] range; a flat window maps to 0.
func (m MinMax) Scale(v float64) float64 {
	return (v - m.Min) / m.span()
}

// Inverse maps a scaled value back into price units using the raw range, so
// a flat window always maps back to its minimum.
func (m MinMax) Inverse(scaled float64) float64 {
	return scaled*(m.Max-m.Min) + m.Min
}

// Stats records the per-field ranges a window was scaled with.
type Stats struct {
	High  MinMax `json:"high" msgpack:"high"`
	Low   MinMax `json:"low" msgpack:"low"`
	Open  MinMax `json:"open" msgpack:"open"`
	Close MinMax `json:"close" msgpack:"close"`
}

// Tensors is the model input built from one window.
type Tensors struct {
	Dates  []time.Time
	Price  *mat.Dense // N x 4, columns as in PriceColumns
	Events *mat.Dense // N x EmbeddingDim
	Stats  Stats
}

// LastDate is the reference date of the window.
func (t Tensors) LastDate() time.Time {
	if len(t.Dates) == 0 {
		return time.Time{}
	}
	return t.Dates[len(t.Dates)-1]
}

// Rows copies a matrix into row-major slices.
func Rows(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

// Builder produces tensors identically for training and inference.
type Builder struct {
	SequenceLength int
	EmbeddingDim   int
	Embedder       ports.Embedder
}

// Build scales the window's prices and embeds its corpora. The window must be
// exactly SequenceLength records, oldest first.
func (b Builder) Build(ctx context.Context, window []domain.AlignedRecord) (Tensors, error) {
	if b.SequenceLength <= 0 || b.EmbeddingDim <= 0 {
		return Tensors{}, fmt.Errorf("builder needs positive sequence length and embedding dim, got %d and %d", b.SequenceLength, b.EmbeddingDim)
	}
	if len(window) != b.SequenceLength {
		return Tensors{}, &domain.InsufficientWindowError{Want: b.SequenceLength, Got: len(window)}
	}

	price, stats := scalePrices(window)
	events, err := b.embed(ctx, window)
	if err != nil {
		return Tensors{}, err
	}

	dates := make([]time.Time, len(window))
	for i, rec := range window {
		dates[i] = rec.Date
	}

	return Tensors{Dates: dates, Price: price, Events: events, Stats: stats}, nil
}

func scalePrices(window []domain.AlignedRecord) (*mat.Dense, Stats) {
	n := len(window)
	high := make([]float64, n)
	low := make([]float64, n)
	open := make([]float64, n)
	closes := make([]float64, n)
	for i, rec := range window {
		high[i], low[i], open[i], closes[i] = rec.High, rec.Low, rec.Open, rec.Close
	}

	stats := Stats{
		High:  rangeOf(high),
		Low:   rangeOf(low),
		Open:  rangeOf(open),
		Close: rangeOf(closes),
	}

	price := mat.NewDense(n, len(PriceColumns), nil)
	for i := 0; i < n; i++ {
		price.Set(i, 0, stats.High.Scale(high[i]))
		price.Set(i, 1, stats.Low.Scale(low[i]))
		price.Set(i, 2, stats.Open.Scale(open[i]))
		price.Set(i, 3, stats.Close.Scale(closes[i]))
	}
	return price, stats
}

func rangeOf(values []float64) MinMax {
	return MinMax{Min: floats.Min(values), Max: floats.Max(values)}
}

// embed issues one batched call for the non-empty corpora and leaves zero rows
// for the rest.
func (b Builder) embed(ctx context.Context, window []domain.AlignedRecord) (*mat.Dense, error) {
	events := mat.NewDense(len(window), b.EmbeddingDim, nil)

	var (
		texts     []string
		positions []int
	)
	for i, rec := range window {
		if strings.TrimSpace(rec.Corpus) == "" {
			continue
		}
		texts = append(texts, rec.Corpus)
		positions = append(positions, i)
	}
	if len(texts) == 0 {
		return events, nil
	}
	if b.Embedder == nil {
		return nil, fmt.Errorf("window has %d corpora but no embedder is configured", len(texts))
	}

	vectors, err := b.Embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed window: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	for k, vec := range vectors {
		if len(vec) != b.EmbeddingDim {
			return nil, fmt.Errorf("embedding for %s has width %d, want %d",
				window[positions[k]].Date.Format(domain.DateLayout), len(vec), b.EmbeddingDim)
		}
		events.SetRow(positions[k], vec)
	}
	return events, nil
}
