// Package access is the consent workflow orchestrator: accessors request
// access to an owner's records, owners grant or revoke, and every
// state-changing operation lands exactly one event in the audit trail. This
// is the only package external callers invoke for the access lifecycle.
package access

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"medledger/internal/audit"
	"medledger/internal/authz"
	"medledger/internal/grant"
	"medledger/internal/identity"
	"medledger/internal/platform/metrics"
	"medledger/internal/record"
	id "medledger/pkg/domain"
	dErrors "medledger/pkg/domain-errors"
	"medledger/pkg/platform/sentinel"
	"medledger/pkg/requestcontext"
)

// Decision is the owner's answer to an access request. Revoke doubles as
// "reject a pending request" and "withdraw previously granted access".
type Decision string

const (
	DecisionGrant  Decision = "grant"
	DecisionRevoke Decision = "revoke"
)

// ParseDecision validates a decision string at the transport boundary.
func ParseDecision(raw string) (Decision, error) {
	switch Decision(raw) {
	case DecisionGrant, DecisionRevoke:
		return Decision(raw), nil
	default:
		return "", dErrors.New(dErrors.CodeBadRequest, "decision must be grant or revoke")
	}
}

// Service composes the permission store, the authorization gate, the record
// collaborator, and the audit recorder. All dependencies are injected; there
// is no ambient global state, so tests supply isolated fakes.
type Service struct {
	grants   grant.Store
	users    identity.Store
	records  record.Store
	gate     *authz.Gate
	recorder *audit.Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewService(
	grants grant.Store,
	users identity.Store,
	records record.Store,
	gate *authz.Gate,
	recorder *audit.Recorder,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		grants:   grants,
		users:    users,
		records:  records,
		gate:     gate,
		recorder: recorder,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("medledger/access"),
	}
}

// RequestAccess creates a pending grant from the accessor toward the owner.
// The storage layer serializes duplicate requests for the same pair; at most
// one active grant per pair can exist, concurrent callers included.
func (s *Service) RequestAccess(ctx context.Context, accessor *identity.User, ownerID id.UserID) (*grant.AccessGrant, error) {
	ctx, span := s.tracer.Start(ctx, "access.RequestAccess")
	defer span.End()

	if err := s.gate.Authorize(ctx, accessor, identity.RoleDoctor); err != nil {
		return nil, err
	}

	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "patient not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve patient")
	}
	if owner.Role != identity.RolePatient {
		return nil, dErrors.New(dErrors.CodeNotFound, "patient not found")
	}

	g, err := grant.NewRequest(id.NewGrantID(), accessor.ID, ownerID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.grants.CreateRequest(ctx, g); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an access request for this patient already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create access request")
	}

	target := ownerID
	s.recorder.Record(ctx, audit.Event{
		Action:      audit.ActionAccessRequested,
		PerformedBy: accessor.ID,
		TargetUser:  &target,
		Details:     audit.GrantDetails{GrantID: g.ID},
	})
	if s.metrics != nil {
		s.metrics.AccessRequests.Inc()
	}
	return g, nil
}

// Respond applies the owner's decision to a grant they own. The ownership
// filter is the authenticated principal's ID - never a client-supplied owner
// - so one owner cannot touch another's grants; a foreign grant is
// indistinguishable from a missing one.
func (s *Service) Respond(ctx context.Context, owner *identity.User, grantID id.GrantID, decision Decision) (*grant.AccessGrant, error) {
	ctx, span := s.tracer.Start(ctx, "access.Respond")
	defer span.End()

	if err := s.gate.Authorize(ctx, owner, identity.RolePatient); err != nil {
		return nil, err
	}

	var (
		from   []grant.Status
		to     grant.Status
		action audit.Action
	)
	switch decision {
	case DecisionGrant:
		// Granting is only reachable from pending: resurrecting a revoked
		// relationship requires a fresh request.
		from, to, action = []grant.Status{grant.StatusPending}, grant.StatusGranted, audit.ActionAccessGranted
	case DecisionRevoke:
		from, to, action = []grant.Status{grant.StatusPending, grant.StatusGranted}, grant.StatusRevoked, audit.ActionAccessRevoked
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "decision must be grant or revoke")
	}

	g, err := s.grants.Transition(ctx, grantID, owner.ID, from, to, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "access request not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeInvalidState, "access request is not in a state that allows this decision")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update access request")
		}
	}

	target := g.AccessorID
	s.recorder.Record(ctx, audit.Event{
		Action:      action,
		PerformedBy: owner.ID,
		TargetUser:  &target,
		Details:     audit.GrantDetails{GrantID: g.ID},
	})
	if s.metrics != nil {
		if decision == DecisionGrant {
			s.metrics.AccessGrants.Inc()
		} else {
			s.metrics.AccessRevocations.Inc()
		}
	}
	return g, nil
}

// ListOutgoing returns the accessor's requests, most recent first.
func (s *Service) ListOutgoing(ctx context.Context, accessor *identity.User) ([]*grant.AccessGrant, error) {
	if err := s.gate.Authorize(ctx, accessor, identity.RoleDoctor); err != nil {
		return nil, err
	}
	grants, err := s.grants.ListByAccessor(ctx, accessor.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list access requests")
	}
	return grants, nil
}

// ListIncoming returns the requests directed at the owner, most recent first.
func (s *Service) ListIncoming(ctx context.Context, owner *identity.User) ([]*grant.AccessGrant, error) {
	if err := s.gate.Authorize(ctx, owner, identity.RolePatient); err != nil {
		return nil, err
	}
	grants, err := s.grants.ListByOwner(ctx, owner.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list access requests")
	}
	return grants, nil
}

// GrantedOwners returns the owners who currently grant the accessor access.
func (s *Service) GrantedOwners(ctx context.Context, accessor *identity.User) ([]*identity.User, error) {
	if err := s.gate.Authorize(ctx, accessor, identity.RoleDoctor); err != nil {
		return nil, err
	}
	grants, err := s.grants.ListByAccessor(ctx, accessor.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list grants")
	}

	var owners []*identity.User
	for _, g := range grants {
		if g.Status != grant.StatusGranted {
			continue
		}
		owner, err := s.users.FindByID(ctx, g.OwnerID)
		if err != nil {
			// Grant outlived the identity record; skip rather than fail the listing.
			s.logger.WarnContext(ctx, "granted owner missing from identity store",
				"owner_id", g.OwnerID.String(),
				"grant_id", g.ID.String(),
			)
			continue
		}
		owners = append(owners, owner)
	}
	return owners, nil
}

// ViewRecords is the consent-protected read: full gate chain including live
// grant state, then delegation to the record collaborator, then exactly one
// RECORD_VIEWED event. Denials return the gate's reason and are not audited.
func (s *Service) ViewRecords(ctx context.Context, accessor *identity.User, ownerID id.UserID) ([]*record.PatientRecord, error) {
	ctx, span := s.tracer.Start(ctx, "access.ViewRecords")
	defer span.End()

	if err := s.gate.AuthorizeRecordAccess(ctx, accessor, ownerID); err != nil {
		return nil, err
	}

	records, err := s.records.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load records")
	}

	device := requestcontext.ClientDevice(ctx)
	target := ownerID
	s.recorder.Record(ctx, audit.Event{
		Action:      audit.ActionRecordViewed,
		PerformedBy: accessor.ID,
		TargetUser:  &target,
		Details: audit.RecordViewDetails{
			RecordCount: len(records),
			Browser:     device.Browser,
			OS:          device.OS,
		},
	})
	if s.metrics != nil {
		s.metrics.RecordsViewed.Inc()
	}
	return records, nil
}
