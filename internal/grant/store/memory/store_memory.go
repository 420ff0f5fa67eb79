package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"medledger/internal/grant"
	id "medledger/pkg/domain"
	"medledger/pkg/platform/sentinel"
)

// InMemoryStore keeps grants in a map guarded by one mutex, which serializes
// the duplicate check and insert the same way the PostgreSQL partial unique
// index does.
type InMemoryStore struct {
	mu     sync.RWMutex
	grants map[id.GrantID]*grant.AccessGrant
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{grants: make(map[id.GrantID]*grant.AccessGrant)}
}

func (s *InMemoryStore) CreateRequest(_ context.Context, g *grant.AccessGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.grants {
		if existing.AccessorID == g.AccessorID && existing.OwnerID == g.OwnerID && existing.IsActive() {
			return sentinel.ErrConflict
		}
	}
	clone := *g
	s.grants[g.ID] = &clone
	return nil
}

func (s *InMemoryStore) Transition(_ context.Context, grantID id.GrantID, ownerID id.UserID, from []grant.Status, to grant.Status, respondedAt time.Time) (*grant.AccessGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grants[grantID]
	if !ok || g.OwnerID != ownerID {
		return nil, sentinel.ErrNotFound
	}

	allowed := false
	for _, status := range from {
		if g.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, sentinel.ErrInvalidState
	}

	g.Status = to
	if g.RespondedAt == nil {
		t := respondedAt
		g.RespondedAt = &t
	}
	clone := *g
	return &clone, nil
}

func (s *InMemoryStore) IsGranted(_ context.Context, accessorID, ownerID id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.grants {
		if g.AccessorID == accessorID && g.OwnerID == ownerID && g.Status == grant.StatusGranted {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) ListByAccessor(_ context.Context, accessorID id.UserID) ([]*grant.AccessGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*grant.AccessGrant
	for _, g := range s.grants {
		if g.AccessorID == accessorID {
			clone := *g
			out = append(out, &clone)
		}
	}
	sortByRequestedAtDesc(out)
	return out, nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, ownerID id.UserID) ([]*grant.AccessGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*grant.AccessGrant
	for _, g := range s.grants {
		if g.OwnerID == ownerID {
			clone := *g
			out = append(out, &clone)
		}
	}
	sortByRequestedAtDesc(out)
	return out, nil
}

func sortByRequestedAtDesc(grants []*grant.AccessGrant) {
	sort.SliceStable(grants, func(i, j int) bool {
		return grants[i].RequestedAt.After(grants[j].RequestedAt)
	})
}
