package artifact

import (
	"context"
	"sort"
	"sync"
	"time"

	id "callvault/pkg/domain"
	"callvault/pkg/platform/sentinel"
)

// MemoryStore is an in-process Store for unit tests. It mirrors the
// PostgresStore semantics, including the one-child-per-parent conflict.
type MemoryStore struct {
	mu        sync.Mutex
	artifacts map[id.ArtifactID]Artifact
	children  map[id.ArtifactID]id.ArtifactID
}

// NewMemoryStore constructs an empty in-memory artifact store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		artifacts: make(map[id.ArtifactID]Artifact),
		children:  make(map[id.ArtifactID]id.ArtifactID),
	}
}

func (s *MemoryStore) Insert(_ context.Context, a Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.artifacts[a.ID]; exists {
		return sentinel.ErrConflict
	}
	s.artifacts[a.ID] = a
	return nil
}

func (s *MemoryStore) InsertChild(_ context.Context, orgID id.OrgID, parentID id.ArtifactID, child Artifact) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.artifacts[parentID]
	if !ok || parent.OrgID != orgID {
		return nil, sentinel.ErrNotFound
	}
	if _, taken := s.children[parentID]; taken {
		return nil, sentinel.ErrConflict
	}

	child.OrgID = parent.OrgID
	child.CallID = parent.CallID
	child.Type = parent.Type
	child.Version = parent.Version + 1
	childParent := parentID
	child.ParentID = &childParent

	s.artifacts[child.ID] = child
	s.children[parentID] = child.ID
	return &child, nil
}

func (s *MemoryStore) Get(_ context.Context, orgID id.OrgID, artifactID id.ArtifactID) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.artifacts[artifactID]
	if !ok || a.OrgID != orgID {
		return nil, sentinel.ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) ListByCall(_ context.Context, orgID id.OrgID, callID id.CallID) ([]Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Artifact
	for _, a := range s.artifacts {
		if a.OrgID == orgID && a.CallID == callID {
			matched = append(matched, a)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}

func (s *MemoryStore) LatestByCallAndType(_ context.Context, orgID id.OrgID, callID id.CallID, artifactType Type) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *Artifact
	for _, a := range s.artifacts {
		if a.OrgID != orgID || a.CallID != callID || a.Type != artifactType {
			continue
		}
		if latest == nil || a.Version > latest.Version {
			match := a
			latest = &match
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	return latest, nil
}

func (s *MemoryStore) EarliestByCallAndType(_ context.Context, orgID id.OrgID, callID id.CallID, artifactType string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var earliest time.Time
	found := false
	for _, a := range s.artifacts {
		if a.OrgID != orgID || a.CallID != callID || string(a.Type) != artifactType {
			continue
		}
		if !found || a.CreatedAt.Before(earliest) {
			earliest = a.CreatedAt
			found = true
		}
	}
	return earliest, found, nil
}

func (s *MemoryStore) Lineage(_ context.Context, orgID id.OrgID, artifactID id.ArtifactID) ([]Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.artifacts[artifactID]
	if !ok || current.OrgID != orgID {
		return nil, sentinel.ErrNotFound
	}

	chain := []Artifact{current}
	for current.ParentID != nil {
		parent, ok := s.artifacts[*current.ParentID]
		if !ok {
			break
		}
		chain = append(chain, parent)
		current = parent
	}
	sort.SliceStable(chain, func(i, j int) bool {
		return chain[i].Version < chain[j].Version
	})
	return chain, nil
}

func (s *MemoryStore) CompleteStatus(_ context.Context, orgID id.OrgID, artifactID id.ArtifactID, status Status, metadata Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.artifacts[artifactID]
	if !ok || a.OrgID != orgID || a.Type == TypeManifest {
		return sentinel.ErrInvalidState
	}
	if a.Status != StatusQueued && a.Status != StatusProcessing {
		return sentinel.ErrInvalidState
	}
	a.Status = status
	if metadata != nil {
		a.Metadata = metadata
	}
	s.artifacts[artifactID] = a
	return nil
}
