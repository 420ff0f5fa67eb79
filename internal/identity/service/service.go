// Package service holds the admin-facing identity operations: account
// approval, deactivation, user listing, and the audit trail query. All
// operations require an active admin principal.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"medledger/internal/audit"
	"medledger/internal/authz"
	"medledger/internal/identity"
	"medledger/internal/identity/revocation"
	id "medledger/pkg/domain"
	dErrors "medledger/pkg/domain-errors"
	"medledger/pkg/platform/sentinel"
)

// revocationTTL bounds how long a deactivated user's tokens stay blocked.
// It must exceed the maximum token lifetime so every outstanding token
// expires before the revocation entry does.
const revocationTTL = 24 * time.Hour

type Service struct {
	users       identity.Store
	revocations revocation.List
	events      audit.Store
	gate        *authz.Gate
	recorder    *audit.Recorder
	logger      *slog.Logger
}

func NewService(
	users identity.Store,
	revocations revocation.List,
	events audit.Store,
	gate *authz.Gate,
	recorder *audit.Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:       users,
		revocations: revocations,
		events:      events,
		gate:        gate,
		recorder:    recorder,
		logger:      logger,
	}
}

// ListUsers returns all accounts, newest first.
func (s *Service) ListUsers(ctx context.Context, admin *identity.User) ([]*identity.User, error) {
	if err := s.gate.Authorize(ctx, admin, identity.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

// Approve marks a user as approved. Approving an already-approved user is a
// no-op that still succeeds; the audit event is written either way.
func (s *Service) Approve(ctx context.Context, admin *identity.User, userID id.UserID) (*identity.User, error) {
	if err := s.gate.Authorize(ctx, admin, identity.RoleAdmin); err != nil {
		return nil, err
	}

	user, err := s.users.SetApproved(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to approve user")
	}

	target := userID
	s.recorder.Record(ctx, audit.Event{
		Action:      audit.ActionUserApproved,
		PerformedBy: admin.ID,
		TargetUser:  &target,
	})
	return user, nil
}

// Deactivate disables the account and revokes its outstanding tokens so the
// cutoff takes effect immediately, not at next token expiry.
func (s *Service) Deactivate(ctx context.Context, admin *identity.User, userID id.UserID) (*identity.User, error) {
	if err := s.gate.Authorize(ctx, admin, identity.RoleAdmin); err != nil {
		return nil, err
	}
	if userID == admin.ID {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "admins cannot deactivate their own account")
	}

	user, err := s.users.SetActive(ctx, userID, false)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate user")
	}

	if s.revocations != nil {
		if err := s.revocations.RevokeUser(ctx, userID, revocationTTL); err != nil {
			// The account flag already blocks new authorizations; log and move on.
			s.logger.ErrorContext(ctx, "failed to revoke tokens for deactivated user",
				"user_id", userID.String(),
				"error", err,
			)
		}
	}

	target := userID
	s.recorder.Record(ctx, audit.Event{
		Action:      audit.ActionUserDeactivated,
		PerformedBy: admin.ID,
		TargetUser:  &target,
	})
	return user, nil
}

// AuditTrail returns recent audit events, optionally filtered by action.
// limit <= 0 returns everything.
func (s *Service) AuditTrail(ctx context.Context, admin *identity.User, actions []audit.Action, limit int) ([]audit.Event, error) {
	if err := s.gate.Authorize(ctx, admin, identity.RoleAdmin); err != nil {
		return nil, err
	}

	var (
		events []audit.Event
		err    error
	)
	if len(actions) == 0 {
		events, err = s.events.ListRecent(ctx, limit)
	} else {
		events, err = s.events.ListByActions(ctx, actions, limit)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit trail")
	}
	return events, nil
}
