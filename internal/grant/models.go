// Package grant holds the access-grant lifecycle: the consent record tracking
// one accessor/owner relationship from request through grant or revocation.
package grant

import (
	"time"

	id "medledger/pkg/domain"
	dErrors "medledger/pkg/domain-errors"
)

// Status is the grant lifecycle state.
//
// Transitions are strictly one-way-then-branching:
//
//	pending → granted
//	pending → revoked
//	granted → revoked
//
// A revoked grant is terminal; re-establishing access requires a fresh
// request, which creates a new grant record.
type Status string

const (
	StatusPending Status = "pending"
	StatusGranted Status = "granted"
	StatusRevoked Status = "revoked"
)

// ActiveStatuses are the states that block a new request for the same
// accessor/owner pair. At most one grant per pair may be in one of these.
var ActiveStatuses = []Status{StatusPending, StatusGranted}

// CanTransitionTo reports whether the state machine permits this move.
func (s Status) CanTransitionTo(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusGranted || to == StatusRevoked
	case StatusGranted:
		return to == StatusRevoked
	default:
		return false
	}
}

// AccessGrant records one accessor's relationship to one owner's records.
//
// Invariants:
//   - RequestedAt is immutable after construction
//   - RespondedAt is set exactly once, on the transition out of pending
//   - grants are never deleted; history is preserved as revoked rows
type AccessGrant struct {
	ID          id.GrantID `json:"id"`
	AccessorID  id.UserID  `json:"accessor_id"`
	OwnerID     id.UserID  `json:"owner_id"`
	Status      Status     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// NewRequest constructs a pending grant.
func NewRequest(grantID id.GrantID, accessorID, ownerID id.UserID, now time.Time) (*AccessGrant, error) {
	if accessorID.IsNil() || ownerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "accessor and owner ids are required")
	}
	if accessorID == ownerID {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "accessor cannot request access to their own records")
	}
	return &AccessGrant{
		ID:          grantID,
		AccessorID:  accessorID,
		OwnerID:     ownerID,
		Status:      StatusPending,
		RequestedAt: now,
	}, nil
}

// CanRespond checks whether the transition to the given status is legal from
// the current state.
func (g *AccessGrant) CanRespond(to Status) error {
	if !g.Status.CanTransitionTo(to) {
		return dErrors.New(dErrors.CodeInvalidState,
			"cannot move grant from "+string(g.Status)+" to "+string(to))
	}
	return nil
}

// ApplyResponse performs the transition. RespondedAt is written only once,
// on the transition out of pending; a later granted→revoked move keeps the
// original response time.
func (g *AccessGrant) ApplyResponse(to Status, now time.Time) {
	g.Status = to
	if g.RespondedAt == nil {
		g.RespondedAt = &now
	}
}

// IsActive reports whether this grant blocks a new request for the pair.
func (g *AccessGrant) IsActive() bool {
	return g.Status == StatusPending || g.Status == StatusGranted
}
