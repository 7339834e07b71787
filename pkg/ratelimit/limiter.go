// Package ratelimit enforces the local call budget against the GitHub API and
// tracks the server-reported quota from the X-RateLimit-Remaining and
// X-RateLimit-Reset headers. The two mechanisms are independent: the Limiter
// spaces our own calls, the Tracker mirrors what the server says is left.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for local rate limiting.
var (
	limiterWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gitscout_limiter_waits_total",
		Help: "Total number of acquisitions that had to wait for the window to roll over",
	})

	limiterWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gitscout_limiter_wait_seconds",
		Help:    "Time spent waiting for call-budget admission",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60},
	})
)

// Limiter admits at most MaxCalls calls per Window. Acquire blocks callers
// until one more call fits the current window. Safe for concurrent use; a
// single Limiter shared between goroutines gives them one shared budget.
type Limiter struct {
	// MaxCalls is the call budget per window.
	MaxCalls int

	// Window is the budget window duration.
	Window time.Duration

	// Clock returns the current time. Defaults to time.Now. Tests inject
	// a fake clock here.
	Clock func() time.Time

	// Pause suspends the caller for the given duration. Defaults to a
	// context-aware timer wait. Tests inject a no-op that advances the
	// fake clock instead.
	Pause func(ctx context.Context, d time.Duration) error

	mu          sync.Mutex
	windowStart time.Time
	calls       int
}

// NewLimiter creates a Limiter with the given budget.
func NewLimiter(maxCalls int, window time.Duration) *Limiter {
	return &Limiter{
		MaxCalls: maxCalls,
		Window:   window,
	}
}

// Acquire blocks until issuing one more call would not exceed MaxCalls calls
// within the current window. It returns early only when ctx is done. The
// internal lock is never held while sleeping.
func (l *Limiter) Acquire(ctx context.Context) error {
	waited := false
	start := l.now()

	for {
		l.mu.Lock()
		now := l.now()
		if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.Window {
			l.windowStart = now
			l.calls = 0
		}
		if l.calls < l.MaxCalls {
			l.calls++
			l.mu.Unlock()
			if waited {
				limiterWaitSeconds.Observe(l.now().Sub(start).Seconds())
			}
			return nil
		}
		// Budget exhausted: wait until the current window ends.
		wait := l.windowStart.Add(l.Window).Sub(now)
		l.mu.Unlock()

		if !waited {
			waited = true
			limiterWaitsTotal.Inc()
		}
		if err := l.pause(ctx, wait); err != nil {
			return err
		}
	}
}

func (l *Limiter) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now()
}

func (l *Limiter) pause(ctx context.Context, d time.Duration) error {
	if l.Pause != nil {
		return l.Pause(ctx, d)
	}
	return sleepContext(ctx, d)
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
