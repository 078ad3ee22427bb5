package audit

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	id "callvault/pkg/domain"
)

// MemoryStore is an in-process Store for unit tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryStore constructs an empty in-memory ledger store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryStore) ListByResource(_ context.Context, orgID id.OrgID, resourceType string, resourceID uuid.UUID, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Entry
	for _, entry := range s.entries {
		if entry.OrgID == orgID && entry.ResourceType == resourceType && entry.ResourceID == resourceID {
			matched = append(matched, entry)
		}
	}
	return newestFirst(matched, limit), nil
}

func (s *MemoryStore) ListIntents(_ context.Context, orgID id.OrgID, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Entry
	for _, entry := range s.entries {
		if entry.OrgID == orgID && IsIntent(entry.Action) {
			matched = append(matched, entry)
		}
	}
	return newestFirst(matched, limit), nil
}

func newestFirst(entries []Entry, limit int) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
