package ratelimit

import (
	"context"
	"sync"
	"time"
)

// QuotaState is the last server-reported quota observation.
type QuotaState struct {
	// Remaining is the number of calls the server will still accept in the
	// current quota window, from the X-RateLimit-Remaining header.
	Remaining int `json:"remaining"`

	// ResetAt is when the server resets the quota window, from the
	// X-RateLimit-Reset header (epoch seconds).
	ResetAt time.Time `json:"reset_at"`

	// UpdatedAt is when this observation was recorded.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists quota state. The in-process default is MemoryStore; use
// RedisStore to share one server budget between parallel harvester processes.
type Store interface {
	// Load returns the stored state, with ok=false when nothing has been
	// recorded yet.
	Load(ctx context.Context) (state QuotaState, ok bool, err error)

	// Save overwrites the stored state. Last writer wins.
	Save(ctx context.Context, state QuotaState) error
}

// MemoryStore keeps quota state in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	state QuotaState
	set   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context) (QuotaState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.set, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, state QuotaState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.set = true
	return nil
}
