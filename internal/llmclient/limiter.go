package llmclient

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// newLimiter builds a per-provider rate limiter from a requests-per-minute
// budget. Zero or negative disables throttling.
func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	interval := time.Minute / time.Duration(requestsPerMinute)
	return rate.NewLimiter(rate.Every(interval), 1)
}

// waitLimiter blocks until the limiter admits one request, honoring context
// cancellation. A nil limiter admits immediately.
func waitLimiter(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
