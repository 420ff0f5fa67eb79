package memory

import (
	"context"
	"sort"
	"sync"

	"medledger/internal/audit"
	id "medledger/pkg/domain"
)

// InMemoryStore holds audit events in an append-only slice.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.events, limit, func(audit.Event) bool { return true }), nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, performedBy id.UserID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.events, 0, func(e audit.Event) bool {
		return e.PerformedBy == performedBy
	}), nil
}

func (s *InMemoryStore) ListByActions(_ context.Context, actions []audit.Action, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[audit.Action]bool, len(actions))
	for _, a := range actions {
		wanted[a] = true
	}
	return newestFirst(s.events, limit, func(e audit.Event) bool {
		return wanted[e.Action]
	}), nil
}

func newestFirst(events []audit.Event, limit int, keep func(audit.Event) bool) []audit.Event {
	var out []audit.Event
	for _, e := range events {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
