package idempotency

import (
	"context"
	"sync"
	"time"

	"callvault/pkg/platform/sentinel"
)

// MemoryStore is an in-process Store for unit tests and single-instance
// development. Production deployments must use RedisStore: instances do not
// share process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	entry     *Entry // nil while the claim placeholder is held
	expiresAt time.Time
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}}
}

func (s *MemoryStore) Get(_ context.Context, scope, key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.entries[cacheKey(scope, key)]
	if !ok || time.Now().After(stored.expiresAt) {
		delete(s.entries, cacheKey(scope, key))
		return nil, sentinel.ErrNotFound
	}
	if stored.entry == nil {
		return nil, ErrInFlight
	}
	copied := *stored.entry
	return &copied, nil
}

func (s *MemoryStore) Claim(_ context.Context, scope, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := cacheKey(scope, key)
	if stored, ok := s.entries[k]; ok && time.Now().Before(stored.expiresAt) {
		return false, nil
	}
	s.entries[k] = memoryEntry{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

func (s *MemoryStore) Put(_ context.Context, scope, key string, entry Entry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := entry
	s.entries[cacheKey(scope, key)] = memoryEntry{entry: &copied, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, cacheKey(scope, key))
	return nil
}
