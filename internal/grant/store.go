package grant

import (
	"context"
	"time"

	id "medledger/pkg/domain"
)

// Store is the durable bookkeeping of AccessGrant state. Implementations
// report infrastructure facts via pkg/platform/sentinel:
//
//   - CreateRequest returns sentinel.ErrConflict when an active (pending or
//     granted) grant already exists for the pair. The duplicate check and
//     insert are atomic with respect to concurrent CreateRequest calls for
//     the same pair; with PostgreSQL this is a partial unique index, not
//     application-level locking, so it holds across service instances.
//
//   - Transition atomically moves a grant owned by ownerID from one of the
//     given statuses to the target status. The status predicate makes
//     racing grant/revoke mutations safe: whichever observes the row first
//     wins, the loser gets sentinel.ErrInvalidState rather than silently
//     overwriting. A grant that does not exist, or is owned by someone
//     else, yields sentinel.ErrNotFound - deliberately indistinguishable so
//     callers cannot probe for other owners' grants.
type Store interface {
	CreateRequest(ctx context.Context, g *AccessGrant) error
	Transition(ctx context.Context, grantID id.GrantID, ownerID id.UserID, from []Status, to Status, respondedAt time.Time) (*AccessGrant, error)
	IsGranted(ctx context.Context, accessorID, ownerID id.UserID) (bool, error)
	ListByAccessor(ctx context.Context, accessorID id.UserID) ([]*AccessGrant, error)
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]*AccessGrant, error)
}
