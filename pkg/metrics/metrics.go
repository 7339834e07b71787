// Package metrics provides the centralized Prometheus registry for gitscout.
// All metrics are defined in their respective packages (client, cache,
// ratelimit) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by gitscout.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - gitscout_limiter_waits_total (Counter): Acquisitions that had to wait for the window
//   - gitscout_limiter_wait_seconds (Histogram): Time spent waiting for window capacity
//   - gitscout_quota_remaining (Gauge): Last server-reported quota remaining
//
// Cache Metrics (pkg/cache):
//   - gitscout_cache_hits_total{layer} (Counter): Cache hits by layer (memory, redis)
//   - gitscout_cache_misses_total (Counter): Cache misses
//   - gitscout_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - gitscout_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - gitscout_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - gitscout_errors_total{class} (Counter): Errors by class (transient, quota, not_ready, fatal)
//
// Retry Metrics (pkg/client):
//   - gitscout_retries_total{error_class} (Counter): Retry attempts by error class
//   - gitscout_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - gitscout_retry_exhausted_total{error_class} (Counter): Requests that exhausted max attempts
//   - gitscout_quota_wait_seconds (Histogram): Time slept waiting for quota resets
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(gitscout_cache_hits_total[5m])) /
//   (sum(rate(gitscout_cache_hits_total[5m])) + sum(rate(gitscout_cache_misses_total[5m])))
//
//   # Quota Headroom
//   gitscout_quota_remaining < 50
//
//   # Request Error Rate
//   rate(gitscout_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(gitscout_request_duration_seconds_bucket[5m]))
