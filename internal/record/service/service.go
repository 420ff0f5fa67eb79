// Package service orchestrates owners' record management: validation,
// authorization, persistence, and the audit trail for record creation.
package service

import (
	"context"
	"log/slog"

	"medledger/internal/audit"
	"medledger/internal/authz"
	"medledger/internal/identity"
	"medledger/internal/platform/metrics"
	"medledger/internal/record"
	id "medledger/pkg/domain"
	dErrors "medledger/pkg/domain-errors"
	"medledger/pkg/requestcontext"
)

type Service struct {
	records  record.Store
	gate     *authz.Gate
	recorder *audit.Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewService(records record.Store, gate *authz.Gate, recorder *audit.Recorder, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{records: records, gate: gate, recorder: recorder, metrics: m, logger: logger}
}

// Create stores a new record for the calling owner and audits the creation.
func (s *Service) Create(ctx context.Context, owner *identity.User, input record.CreateInput) (*record.PatientRecord, error) {
	if err := s.gate.Authorize(ctx, owner, identity.RolePatient); err != nil {
		return nil, err
	}

	rec, err := record.NewRecord(id.NewRecordID(), owner.ID, input, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create record")
	}

	target := owner.ID
	s.recorder.Record(ctx, audit.Event{
		Action:      audit.ActionRecordCreated,
		PerformedBy: owner.ID,
		TargetUser:  &target,
		Details:     audit.RecordCreatedDetails{RecordID: rec.ID, Title: rec.Title},
	})
	if s.metrics != nil {
		s.metrics.RecordsCreated.Inc()
	}
	return rec, nil
}

// ListMine returns the calling owner's records, newest first. Reading one's
// own records is not a cross-principal access and is not audited.
func (s *Service) ListMine(ctx context.Context, owner *identity.User) ([]*record.PatientRecord, error) {
	if err := s.gate.Authorize(ctx, owner, identity.RolePatient); err != nil {
		return nil, err
	}
	records, err := s.records.ListByOwner(ctx, owner.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}
	return records, nil
}
