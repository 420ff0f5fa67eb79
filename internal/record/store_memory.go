package record

import (
	"context"
	"sort"
	"sync"

	id "medledger/pkg/domain"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.UserID][]*PatientRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.UserID][]*PatientRecord)}
}

func (s *InMemoryStore) Create(_ context.Context, rec *PatientRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *rec
	s.records[rec.OwnerID] = append(s.records[rec.OwnerID], &clone)
	return nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, ownerID id.UserID) ([]*PatientRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*PatientRecord, 0, len(s.records[ownerID]))
	for _, rec := range s.records[ownerID] {
		clone := *rec
		out = append(out, &clone)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
