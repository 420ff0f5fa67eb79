// Package authz holds the single authorization decision function. Every
// role, approval, and consent check in the system goes through the Gate so
// the rules have one implementation, not one per route.
package authz

//go:generate mockgen -source=gate.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"medledger/internal/identity"
	id "medledger/pkg/domain"
	dErrors "medledger/pkg/domain-errors"
)

// ConsentChecker answers resource-scoped consent questions. Backed by the
// grant store in production.
type ConsentChecker interface {
	IsGranted(ctx context.Context, accessorID, ownerID id.UserID) (bool, error)
}

// Gate decides "may principal P perform action A" by composing hard checks:
// identity validity, role membership, the approval gate, and (for
// cross-principal record access) resource-scoped consent. It holds no state
// beyond its collaborators and is consulted on every request - never cached
// across requests, so a revocation takes effect on the very next call.
type Gate struct {
	consents ConsentChecker
}

func New(consents ConsentChecker) *Gate {
	return &Gate{consents: consents}
}

// Authorize runs the identity, role, and approval checks. Each denial code
// is the reason the caller sees; nothing else about the system leaks.
func (g *Gate) Authorize(_ context.Context, principal *identity.User, allowed ...identity.Role) error {
	if principal == nil || !principal.IsActive {
		return dErrors.New(dErrors.CodeAccountDeactivated, "account has been deactivated")
	}

	roleOK := false
	for _, role := range allowed {
		if principal.Role == role {
			roleOK = true
			break
		}
	}
	if !roleOK {
		return dErrors.New(dErrors.CodeRoleMismatch, "insufficient role for this operation")
	}

	if principal.Role.RequiresApproval() && !principal.IsApproved {
		return dErrors.New(dErrors.CodePendingApproval, "account pending approval")
	}
	return nil
}

// AuthorizeRecordAccess runs the full chain for an accessor reading an
// owner's records, including the consent check against live grant state.
func (g *Gate) AuthorizeRecordAccess(ctx context.Context, accessor *identity.User, ownerID id.UserID) error {
	if err := g.Authorize(ctx, accessor, identity.RoleDoctor); err != nil {
		return err
	}

	granted, err := g.consents.IsGranted(ctx, accessor.ID, ownerID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check consent")
	}
	if !granted {
		return dErrors.New(dErrors.CodeMissingConsent, "access not granted for this patient")
	}
	return nil
}
