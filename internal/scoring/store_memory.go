package scoring

import (
	"context"
	"sort"
	"sync"

	id "callvault/pkg/domain"
	"callvault/pkg/platform/sentinel"
)

// MemoryStore is an in-process Store for unit tests.
type MemoryStore struct {
	mu    sync.Mutex
	cards map[id.ScorecardID]Scorecard
}

// NewMemoryStore constructs an empty in-memory scorecard store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cards: make(map[id.ScorecardID]Scorecard)}
}

func (s *MemoryStore) Insert(_ context.Context, card Scorecard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cards[card.ID]; exists {
		return sentinel.ErrConflict
	}
	s.cards[card.ID] = card
	return nil
}

func (s *MemoryStore) Get(_ context.Context, orgID id.OrgID, cardID id.ScorecardID) (*Scorecard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.cards[cardID]
	if !ok || card.OrgID != orgID {
		return nil, sentinel.ErrNotFound
	}
	return &card, nil
}

func (s *MemoryStore) List(_ context.Context, orgID id.OrgID) ([]Scorecard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cards []Scorecard
	for _, card := range s.cards {
		if card.OrgID == orgID {
			cards = append(cards, card)
		}
	}
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].CreatedAt.After(cards[j].CreatedAt)
	})
	return cards, nil
}
