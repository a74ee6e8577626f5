package features

import (
	"context"

	"MarketNewsForecaster/internal/ports"
)

// MemoEmbedder remembers vectors by text so overlapping windows embed each
// corpus once. It is not safe for concurrent use.
type MemoEmbedder struct {
	inner ports.Embedder
	seen  map[string][]float64
}

var _ ports.Embedder = (*MemoEmbedder)(nil)

// NewMemoEmbedder wraps inner.
func NewMemoEmbedder(inner ports.Embedder) *MemoEmbedder {
	return &MemoEmbedder{inner: inner, seen: map[string][]float64{}}
}

// Embed forwards only unseen texts, still in a single call.
func (m *MemoEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	var missing []string
	queued := map[string]bool{}
	for _, t := range texts {
		if _, ok := m.seen[t]; !ok && !queued[t] {
			missing = append(missing, t)
			queued[t] = true
		}
	}

	if len(missing) > 0 {
		vectors, err := m.inner.Embed(ctx, missing)
		if err != nil {
			return nil, err
		}
		for i, vec := range vectors {
			if i < len(missing) {
				m.seen[missing[i]] = vec
			}
		}
	}

	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = m.seen[t]
	}
	return out, nil
}
