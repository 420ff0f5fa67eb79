package audit

import (
	"context"

	id "medledger/pkg/domain"
)

// Store is the append-only persistence boundary. There is deliberately no
// update or delete operation; the audit trail is the record of truth for
// compliance. All list operations return newest-first.
type Store interface {
	Append(ctx context.Context, event Event) error

	// ListRecent returns the most recent events; limit <= 0 means all.
	ListRecent(ctx context.Context, limit int) ([]Event, error)
	ListByUser(ctx context.Context, performedBy id.UserID) ([]Event, error)

	// ListByActions filters by action tags; limit <= 0 means all.
	ListByActions(ctx context.Context, actions []Action, limit int) ([]Event, error)
}
