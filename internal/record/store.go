package record

import (
	"context"

	id "medledger/pkg/domain"
)

// Store persists patient records. ListByOwner returns newest-first.
type Store interface {
	Create(ctx context.Context, rec *PatientRecord) error
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]*PatientRecord, error)
}
