package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"MarketNewsForecaster/internal/ports"
)

// Gate enforces a minimum interval between successive outbound requests.
type Gate struct {
	limiter *rate.Limiter
}

var _ ports.Limiter = (*Gate)(nil)

// NewGate allows one request per interval; a non-positive interval disables throttling.
func NewGate(interval time.Duration) *Gate {
	if interval <= 0 {
		return &Gate{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Gate{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Unlimited returns a gate that never blocks.
func Unlimited() *Gate {
	return NewGate(0)
}

// Wait blocks until the next request may be sent.
func (g *Gate) Wait(ctx context.Context) error {
	if g == nil || g.limiter == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}
