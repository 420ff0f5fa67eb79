package record

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "medledger/pkg/domain"
)

// PostgresStore persists patient records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, rec *PatientRecord) error {
	query := `
		INSERT INTO patient_records (id, owner_id, title, description, diagnosis, prescription, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(rec.ID),
		uuid.UUID(rec.OwnerID),
		rec.Title,
		rec.Description,
		rec.Diagnosis,
		rec.Prescription,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert patient record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID id.UserID) ([]*PatientRecord, error) {
	query := `
		SELECT id, owner_id, title, description, diagnosis, prescription, created_at, updated_at
		FROM patient_records
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(ownerID))
	if err != nil {
		return nil, fmt.Errorf("query patient records: %w", err)
	}
	defer rows.Close()

	var records []*PatientRecord
	for rows.Next() {
		var (
			rec   PatientRecord
			recID uuid.UUID
			owner uuid.UUID
		)
		if err := rows.Scan(&recID, &owner, &rec.Title, &rec.Description, &rec.Diagnosis, &rec.Prescription, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan patient record: %w", err)
		}
		rec.ID = id.RecordID(recID)
		rec.OwnerID = id.UserID(owner)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patient records: %w", err)
	}
	return records, nil
}
