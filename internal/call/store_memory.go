package call

import (
	"context"
	"sync"
	"time"

	id "callvault/pkg/domain"
	"callvault/pkg/platform/sentinel"
)

// MemoryStore is an in-process Store for unit tests.
type MemoryStore struct {
	mu      sync.Mutex
	calls   map[id.CallID]Call
	configs map[id.OrgID]VoiceConfig
}

// NewMemoryStore constructs an empty in-memory call store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		calls:   make(map[id.CallID]Call),
		configs: make(map[id.OrgID]VoiceConfig),
	}
}

func (s *MemoryStore) Insert(_ context.Context, c Call) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.calls[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.calls[c.ID] = c
	return nil
}

func (s *MemoryStore) Get(_ context.Context, orgID id.OrgID, callID id.CallID) (*Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.calls[callID]
	if !ok || c.OrgID != orgID {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) MarkDialed(_ context.Context, orgID id.OrgID, callID id.CallID, callSID string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.calls[callID]
	if !ok || c.OrgID != orgID || c.Status != StatusPending {
		return sentinel.ErrInvalidState
	}
	c.Status = StatusInProgress
	c.CallSID = callSID
	c.StartedAt = &startedAt
	s.calls[callID] = c
	return nil
}

func (s *MemoryStore) MarkFailed(_ context.Context, orgID id.OrgID, callID id.CallID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.calls[callID]
	if !ok || c.OrgID != orgID {
		return sentinel.ErrNotFound
	}
	c.Status = StatusFailed
	s.calls[callID] = c
	return nil
}

func (s *MemoryStore) UpsertVoiceConfig(_ context.Context, cfg VoiceConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.OrgID] = cfg
	return nil
}

func (s *MemoryStore) GetVoiceConfig(_ context.Context, orgID id.OrgID) (*VoiceConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.configs[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &cfg, nil
}
