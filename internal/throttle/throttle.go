package throttle

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter blocks until the next request may be issued.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Every returns a limiter that lets the first call through immediately and
// spaces every later call at least d apart. A non-positive d never blocks.
func Every(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}
