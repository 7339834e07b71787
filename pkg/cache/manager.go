package cache

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// Prometheus metrics for cache operations.
var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gitscout_cache_hits_total",
		Help: "Cache hits by layer",
	}, []string{"layer"})

	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gitscout_cache_misses_total",
		Help: "Cache misses",
	})

	cacheErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gitscout_cache_errors_total",
		Help: "Cache operation errors by operation",
	}, []string{"operation"})
)

type entry struct {
	body      []byte
	expiresAt time.Time
}

// Manager is a two-layer response cache: process memory in front of an
// optional Redis backend. A nil Redis client leaves it memory-only.
type Manager struct {
	ttl   time.Duration
	redis *redis.Client

	mu      sync.RWMutex
	entries map[string]entry
}

// NewManager creates a memory-only cache with the given entry TTL.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// NewManagerWithRedis creates a cache backed by Redis, so parallel harvester
// processes share detail responses.
func NewManagerWithRedis(client *redis.Client, ttl time.Duration) *Manager {
	m := NewManager(ttl)
	m.redis = client
	return m
}

// Get returns the cached body for key, or ok=false on a miss. Redis lookups
// that fail count as misses; the caller falls through to the wire.
func (m *Manager) Get(ctx context.Context, key Key) ([]byte, bool) {
	k := key.String()

	m.mu.RLock()
	e, ok := m.entries[k]
	m.mu.RUnlock()
	if ok && time.Now().Before(e.expiresAt) {
		cacheHitsTotal.WithLabelValues("memory").Inc()
		return e.body, true
	}

	if m.redis != nil {
		body, err := m.redis.Get(ctx, k).Bytes()
		if err == nil {
			cacheHitsTotal.WithLabelValues("redis").Inc()
			m.storeMemory(k, body)
			return body, true
		}
		if err != redis.Nil {
			cacheErrorsTotal.WithLabelValues("get").Inc()
		}
	}

	cacheMissesTotal.Inc()
	return nil, false
}

// Set stores body under key in every configured layer.
func (m *Manager) Set(ctx context.Context, key Key, body []byte) error {
	k := key.String()
	m.storeMemory(k, body)

	if m.redis != nil {
		if err := m.redis.Set(ctx, k, body, m.ttl).Err(); err != nil {
			cacheErrorsTotal.WithLabelValues("set").Inc()
			return err
		}
	}
	return nil
}

func (m *Manager) storeMemory(k string, body []byte) {
	m.mu.Lock()
	m.entries[k] = entry{body: body, expiresAt: time.Now().Add(m.ttl)}
	m.mu.Unlock()
}
