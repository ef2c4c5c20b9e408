package relay

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum spacing between messages and a cap per fixed
// window. Rejected messages consume nothing.
type Limiter struct {
	mu sync.Mutex

	spacing *rate.Limiter
	limit   int
	window  time.Duration
	start   time.Time
	count   int
}

func NewLimiter(minInterval time.Duration, limit int, window time.Duration) *Limiter {
	spacing := rate.NewLimiter(rate.Inf, 1)
	if minInterval > 0 {
		spacing = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return &Limiter{spacing: spacing, limit: limit, window: window}
}

// Allow reports whether a message arriving at now is accepted.
func (l *Limiter) Allow(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.start.IsZero() || now.Sub(l.start) >= l.window {
		l.start = now
		l.count = 0
	}
	if l.count >= l.limit {
		return false
	}
	if !l.spacing.AllowN(now, 1) {
		return false
	}

	l.count++
	return true
}
