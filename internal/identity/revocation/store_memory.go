package revocation

import (
	"context"
	"sync"
	"time"

	id "medledger/pkg/domain"
)

// InMemoryList is a single-process revocation list with lazy expiry.
type InMemoryList struct {
	mu      sync.RWMutex
	revoked map[id.UserID]time.Time
	clock   func() time.Time
}

func NewInMemoryList() *InMemoryList {
	return &InMemoryList{
		revoked: make(map[id.UserID]time.Time),
		clock:   time.Now,
	}
}

// WithClock overrides the clock for tests.
func (l *InMemoryList) WithClock(clock func() time.Time) *InMemoryList {
	l.clock = clock
	return l
}

func (l *InMemoryList) RevokeUser(_ context.Context, userID id.UserID, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revoked[userID] = l.clock().Add(ttl)
	return nil
}

func (l *InMemoryList) IsUserRevoked(_ context.Context, userID id.UserID) (bool, error) {
	l.mu.RLock()
	expiry, ok := l.revoked[userID]
	l.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if l.clock().After(expiry) {
		l.mu.Lock()
		delete(l.revoked, userID)
		l.mu.Unlock()
		return false, nil
	}
	return true, nil
}
