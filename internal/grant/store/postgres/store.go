package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"medledger/internal/grant"
	id "medledger/pkg/domain"
	"medledger/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Store persists access grants in PostgreSQL.
//
// The active-pair invariant is enforced by a partial unique index:
//
//	CREATE UNIQUE INDEX access_grants_active_pair_idx
//	    ON access_grants (accessor_id, owner_id)
//	    WHERE status IN ('pending', 'granted');
//
// so concurrent CreateRequest calls for the same pair are serialized by the
// database and exactly one wins, across any number of service instances.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const grantColumns = `id, accessor_id, owner_id, status, requested_at, responded_at`

func (s *Store) CreateRequest(ctx context.Context, g *grant.AccessGrant) error {
	query := `
		INSERT INTO access_grants (id, accessor_id, owner_id, status, requested_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(g.ID),
		uuid.UUID(g.AccessorID),
		uuid.UUID(g.OwnerID),
		string(g.Status),
		g.RequestedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert access grant: %w", err)
	}
	return nil
}

// Transition is a single compare-and-set UPDATE: the status predicate means a
// racing grant and revoke on the same pending row cannot both succeed. When
// no row matches we re-read to distinguish "not owned by caller" from "wrong
// state".
func (s *Store) Transition(ctx context.Context, grantID id.GrantID, ownerID id.UserID, from []grant.Status, to grant.Status, respondedAt time.Time) (*grant.AccessGrant, error) {
	fromStatuses := make([]string, len(from))
	for i, status := range from {
		fromStatuses[i] = string(status)
	}

	query := `
		UPDATE access_grants
		SET status = $3, responded_at = COALESCE(responded_at, $4)
		WHERE id = $1 AND owner_id = $2 AND status = ANY($5::text[])
		RETURNING ` + grantColumns

	g, err := scanGrant(s.db.QueryRowContext(ctx, query,
		uuid.UUID(grantID),
		uuid.UUID(ownerID),
		string(to),
		respondedAt,
		pq.Array(fromStatuses),
	))
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transition access grant: %w", err)
	}

	var exists bool
	checkQuery := `SELECT EXISTS (SELECT 1 FROM access_grants WHERE id = $1 AND owner_id = $2)`
	if err := s.db.QueryRowContext(ctx, checkQuery, uuid.UUID(grantID), uuid.UUID(ownerID)).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check access grant: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return nil, sentinel.ErrInvalidState
}

func (s *Store) IsGranted(ctx context.Context, accessorID, ownerID id.UserID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM access_grants
			WHERE accessor_id = $1 AND owner_id = $2 AND status = 'granted'
		)
	`
	var granted bool
	if err := s.db.QueryRowContext(ctx, query, uuid.UUID(accessorID), uuid.UUID(ownerID)).Scan(&granted); err != nil {
		return false, fmt.Errorf("check grant: %w", err)
	}
	return granted, nil
}

func (s *Store) ListByAccessor(ctx context.Context, accessorID id.UserID) ([]*grant.AccessGrant, error) {
	query := `
		SELECT ` + grantColumns + `
		FROM access_grants
		WHERE accessor_id = $1
		ORDER BY requested_at DESC
	`
	return s.list(ctx, query, uuid.UUID(accessorID))
}

func (s *Store) ListByOwner(ctx context.Context, ownerID id.UserID) ([]*grant.AccessGrant, error) {
	query := `
		SELECT ` + grantColumns + `
		FROM access_grants
		WHERE owner_id = $1
		ORDER BY requested_at DESC
	`
	return s.list(ctx, query, uuid.UUID(ownerID))
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*grant.AccessGrant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query access grants: %w", err)
	}
	defer rows.Close()

	var grants []*grant.AccessGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan access grant: %w", err)
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access grants: %w", err)
	}
	return grants, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrant(row rowScanner) (*grant.AccessGrant, error) {
	var (
		g           grant.AccessGrant
		grantID     uuid.UUID
		accessorID  uuid.UUID
		ownerID     uuid.UUID
		status      string
		respondedAt sql.NullTime
	)
	err := row.Scan(&grantID, &accessorID, &ownerID, &status, &g.RequestedAt, &respondedAt)
	if err != nil {
		return nil, err
	}
	g.ID = id.GrantID(grantID)
	g.AccessorID = id.UserID(accessorID)
	g.OwnerID = id.UserID(ownerID)
	g.Status = grant.Status(status)
	if respondedAt.Valid {
		t := respondedAt.Time
		g.RespondedAt = &t
	}
	return &g, nil
}
