package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"medledger/internal/audit"
	id "medledger/pkg/domain"
)

// Store persists audit events in PostgreSQL. The audit_events table has no
// UPDATE or DELETE path in this codebase; append-only by construction.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const eventColumns = `id, action, performed_by, target_user, details, timestamp, anchor_ref`

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	details, err := audit.EncodeDetails(event.Details)
	if err != nil {
		return err
	}

	var targetUser uuid.NullUUID
	if event.TargetUser != nil {
		targetUser = uuid.NullUUID{UUID: uuid.UUID(*event.TargetUser), Valid: true}
	}

	query := `
		INSERT INTO audit_events (id, action, performed_by, target_user, details, timestamp, anchor_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		event.ID,
		string(event.Action),
		uuid.UUID(event.PerformedBy),
		targetUser,
		details,
		event.Timestamp,
		nullableString(event.AnchorRef),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM audit_events ORDER BY timestamp DESC`
	if limit > 0 {
		return s.list(ctx, query+` LIMIT $1`, limit)
	}
	return s.list(ctx, query)
}

func (s *Store) ListByUser(ctx context.Context, performedBy id.UserID) ([]audit.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM audit_events
		WHERE performed_by = $1
		ORDER BY timestamp DESC
	`
	return s.list(ctx, query, uuid.UUID(performedBy))
}

func (s *Store) ListByActions(ctx context.Context, actions []audit.Action, limit int) ([]audit.Event, error) {
	tags := make([]string, len(actions))
	for i, a := range actions {
		tags[i] = string(a)
	}
	query := `
		SELECT ` + eventColumns + `
		FROM audit_events
		WHERE action = ANY($1::text[])
		ORDER BY timestamp DESC
	`
	if limit > 0 {
		return s.list(ctx, query+` LIMIT $2`, pq.Array(tags), limit)
	}
	return s.list(ctx, query, pq.Array(tags))
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event      audit.Event
			action     string
			performed  uuid.UUID
			targetUser uuid.NullUUID
			details    []byte
			anchorRef  sql.NullString
		)
		if err := rows.Scan(&event.ID, &action, &performed, &targetUser, &details, &event.Timestamp, &anchorRef); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = audit.Action(action)
		event.PerformedBy = id.UserID(performed)
		if targetUser.Valid {
			u := id.UserID(targetUser.UUID)
			event.TargetUser = &u
		}
		event.AnchorRef = anchorRef.String
		if event.Details, err = audit.DecodeDetails(event.Action, details); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
