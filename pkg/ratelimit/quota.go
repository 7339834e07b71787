package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// GitHub-style quota headers.
const (
	HeaderQuotaRemaining = "X-RateLimit-Remaining"
	HeaderQuotaReset     = "X-RateLimit-Reset"
)

// Prometheus metrics for server quota tracking.
var (
	quotaRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gitscout_quota_remaining",
		Help: "Server-reported calls remaining in the current quota window",
	})
)

// Tracker mirrors the server-reported quota. The server is authoritative:
// Record overwrites state unconditionally and nothing is decremented locally.
// Responses without quota headers leave prior state untouched.
type Tracker struct {
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	store  Store
	logger zerolog.Logger
}

// NewTracker creates a quota tracker backed by the given store.
func NewTracker(store Store, logger zerolog.Logger) *Tracker {
	return &Tracker{
		store:  store,
		logger: logger,
	}
}

// Record overwrites the tracked state with the latest observation.
func (t *Tracker) Record(ctx context.Context, remaining int, resetAt time.Time) error {
	state := QuotaState{
		Remaining: remaining,
		ResetAt:   resetAt,
		UpdatedAt: t.now(),
	}
	if err := t.store.Save(ctx, state); err != nil {
		return err
	}

	quotaRemaining.Set(float64(remaining))
	t.logger.Debug().
		Int("remaining", remaining).
		Time("reset_at", resetAt).
		Msg("Quota state updated")
	return nil
}

// UpdateFromHeaders records quota state from response headers. Headers absent
// means no update, not an error: non-API responses and some proxies strip them.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get(HeaderQuotaRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return &HeaderError{Header: HeaderQuotaRemaining, Value: remainStr, Err: err}
	}

	resetAt := t.now()
	if resetStr := headers.Get(HeaderQuotaReset); resetStr != "" {
		epoch, err := strconv.ParseInt(resetStr, 10, 64)
		if err != nil {
			return &HeaderError{Header: HeaderQuotaReset, Value: resetStr, Err: err}
		}
		resetAt = time.Unix(epoch, 0)
	}

	return t.Record(ctx, remain, resetAt)
}

// Remaining returns the last reported remaining quota. Before any observation
// it reports ok=false and callers should assume a healthy budget.
func (t *Tracker) Remaining(ctx context.Context) (int, bool, error) {
	state, ok, err := t.store.Load(ctx)
	if err != nil || !ok {
		return 0, false, err
	}
	return state.Remaining, true, nil
}

// TimeUntilReset returns how long until the server resets the quota window,
// or zero when the reset time has passed or nothing has been observed yet.
func (t *Tracker) TimeUntilReset(ctx context.Context) (time.Duration, error) {
	state, ok, err := t.store.Load(ctx)
	if err != nil || !ok {
		return 0, err
	}

	wait := state.ResetAt.Sub(t.now())
	if wait < 0 {
		return 0, nil
	}
	return wait, nil
}

func (t *Tracker) now() time.Time {
	if t.Clock != nil {
		return t.Clock()
	}
	return time.Now()
}

// HeaderError reports a quota header that could not be parsed.
type HeaderError struct {
	Header string
	Value  string
	Err    error
}

func (e *HeaderError) Error() string {
	return "parse " + e.Header + " header " + strconv.Quote(e.Value) + ": " + e.Err.Error()
}

func (e *HeaderError) Unwrap() error {
	return e.Err
}
