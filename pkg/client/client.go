// Package client implements the resilient GitHub API requester: local call
// budgeting, server quota tracking, retry with exponential backoff, and
// handling of asynchronous "still processing" responses.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gitscout/gitscout/pkg/cache"
	"github.com/gitscout/gitscout/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for request operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gitscout_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gitscout_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gitscout_errors_total",
		Help: "Total request errors by class",
	}, []string{"class"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gitscout_retries_total",
		Help: "Total retry attempts by error class",
	}, []string{"class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gitscout_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gitscout_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"class"})

	quotaWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gitscout_quota_wait_seconds",
		Help:    "Time slept waiting for the server quota window to reset",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
	})
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.github.com".
	BaseURL string

	// Token is the opaque API credential. Empty means unauthenticated.
	Token string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout bounds one HTTP attempt.
	Timeout time.Duration

	// Retry is the backoff policy shared by transport failures and
	// not-ready polls.
	Retry RetryPolicy

	// PollInterval is the fixed wait between "still processing" polls.
	PollInterval time.Duration

	// QuotaMargin is added on top of the server-reported reset wait.
	QuotaMargin time.Duration

	// MaxCalls and Window configure the local call budget.
	MaxCalls int
	Window   time.Duration

	// QuotaStore persists quota state. Nil means in-process memory; a
	// ratelimit.RedisStore shares one server budget across processes.
	QuotaStore ratelimit.Store

	// Cache is an optional response cache consulted before the wire.
	Cache *cache.Manager
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(token string) Config {
	return Config{
		BaseURL:      "https://api.github.com",
		Token:        token,
		UserAgent:    "gitscout/0.1.0",
		Timeout:      10 * time.Second,
		Retry:        DefaultRetryPolicy(),
		PollInterval: 2 * time.Second,
		QuotaMargin:  1 * time.Second,
		MaxCalls:     30,
		Window:       60 * time.Second,
	}
}

// Client performs single logical requests against the API, hiding all
// transient-failure recovery from callers. One Client per logical stream;
// share an instance only to share its call budget.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	tracker    *ratelimit.Tracker
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger

	// sleep is swapped out in tests to avoid real waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a client from the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.MaxCalls <= 0 || cfg.Window <= 0 {
		return nil, fmt.Errorf("call budget must be positive (got %d per %v)", cfg.MaxCalls, cfg.Window)
	}
	if cfg.Retry.MaxAttempts <= 0 {
		return nil, fmt.Errorf("retry max attempts must be positive (got %d)", cfg.Retry.MaxAttempts)
	}

	logger := log.With().Str("component", "api-client").Logger()

	store := cfg.QuotaStore
	if store == nil {
		store = ratelimit.NewMemoryStore()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: ratelimit.NewLimiter(cfg.MaxCalls, cfg.Window),
		tracker: ratelimit.NewTracker(store, logger),
		cache:   cfg.Cache,
		config:  cfg,
		logger:  logger,
		sleep:   sleepContext,
	}, nil
}

// Get performs one logical GET against endpoint, driving retries, quota
// waits and not-ready polls to completion. The returned error is either a
// context error or a *RequestError.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (*Page, error) {
	if c.cache != nil {
		key := cache.Key{Endpoint: endpoint, Params: params}
		if body, ok := c.cache.Get(ctx, key); ok {
			return ParsePage(body)
		}
	}

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	attempts := 0
	for {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		status, body, err := c.do(ctx, endpoint, params)
		if err == nil && status >= 200 && status < 300 && status != http.StatusAccepted {
			requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", status)).Inc()
			page, perr := ParsePage(body)
			if perr != nil {
				return nil, &RequestError{Endpoint: endpoint, StatusCode: status, Err: perr}
			}
			if c.cache != nil {
				key := cache.Key{Endpoint: endpoint, Params: params}
				if cerr := c.cache.Set(ctx, key, body); cerr != nil {
					c.logger.Warn().Err(cerr).Str("endpoint", endpoint).Msg("Failed to cache response")
				}
			}
			return page, nil
		}

		class := classify(status, string(body), err)
		errorsTotal.WithLabelValues(string(class)).Inc()
		if err != nil {
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		} else {
			requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", status)).Inc()
		}

		switch class {
		case ErrorClassQuota:
			// Recoverable indefinitely: progress is guaranteed once the
			// quota window rolls over. Bounded only by ctx.
			wait, werr := c.tracker.TimeUntilReset(ctx)
			if werr != nil {
				c.logger.Warn().Err(werr).Msg("Quota state unavailable, using margin only")
			}
			wait += c.config.QuotaMargin
			quotaWaitSeconds.Observe(wait.Seconds())
			c.logger.Warn().
				Str("endpoint", endpoint).
				Dur("wait", wait).
				Msg("Quota exceeded, waiting for reset")
			if serr := c.sleep(ctx, wait); serr != nil {
				return nil, serr
			}
			lastErr = fmt.Errorf("%w (status %d)", ErrQuotaExceeded, status)

		case ErrorClassNotReady:
			attempts++
			lastErr = fmt.Errorf("%w (status %d)", ErrNotReady, status)
			if attempts >= c.config.Retry.MaxAttempts {
				return nil, c.exhausted(endpoint, status, class, attempts, lastErr)
			}
			retriesTotal.WithLabelValues(string(class)).Inc()
			c.logger.Info().
				Str("endpoint", endpoint).
				Int("attempt", attempts).
				Dur("wait", c.config.PollInterval).
				Msg("Server still processing, polling")
			if serr := c.sleep(ctx, c.config.PollInterval); serr != nil {
				return nil, serr
			}

		case ErrorClassTransient:
			attempts++
			if err != nil {
				lastErr = err
			} else {
				lastErr = fmt.Errorf("server error (status %d)", status)
			}
			if attempts >= c.config.Retry.MaxAttempts {
				return nil, c.exhausted(endpoint, status, class, attempts, lastErr)
			}
			delay := c.config.Retry.Delay(attempts - 1)
			retriesTotal.WithLabelValues(string(class)).Inc()
			retryBackoffSeconds.WithLabelValues(string(class)).Observe(delay.Seconds())
			c.logger.Warn().
				Err(lastErr).
				Str("endpoint", endpoint).
				Int("attempt", attempts).
				Dur("backoff", delay).
				Msg("Transient failure, retrying after backoff")
			if serr := c.sleep(ctx, delay); serr != nil {
				return nil, serr
			}

		default:
			// Client-side or permanent error. Not retried.
			c.logger.Error().
				Str("endpoint", endpoint).
				Int("status", status).
				Msg("Request failed")
			return nil, &RequestError{Endpoint: endpoint, StatusCode: status, Body: string(body)}
		}
	}
}

// do executes one HTTP attempt and feeds quota headers to the tracker.
func (c *Client) do(ctx context.Context, endpoint string, params url.Values) (int, []byte, error) {
	u := c.config.BaseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if c.config.Token != "" {
		req.Header.Set("Authorization", "token "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	if uerr := c.tracker.UpdateFromHeaders(ctx, resp.Header); uerr != nil {
		c.logger.Warn().Err(uerr).Msg("Failed to update quota from headers")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// exhausted builds the terminal error for a request that ran out of attempts.
func (c *Client) exhausted(endpoint string, status int, class ErrorClass, attempts int, lastErr error) error {
	retryExhaustedTotal.WithLabelValues(string(class)).Inc()
	c.logger.Error().
		Err(lastErr).
		Str("endpoint", endpoint).
		Int("attempts", attempts).
		Msg("Retry attempts exhausted")
	return &RequestError{
		Endpoint:   endpoint,
		StatusCode: status,
		Err:        fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, lastErr),
	}
}

// Tracker exposes the quota tracker, e.g. for status reporting.
func (c *Client) Tracker() *ratelimit.Tracker {
	return c.tracker
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// sleepContext waits for d or until ctx is done.
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
