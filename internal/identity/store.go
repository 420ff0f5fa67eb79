package identity

import (
	"context"

	id "medledger/pkg/domain"
)

// Store is the identity collaborator boundary. Reads serve the authorization
// gate; the two setters exist for the administration service only.
// Implementations return sentinel.ErrNotFound for unknown users and
// sentinel.ErrConflict for duplicate emails on Create.
type Store interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, userID id.UserID) (*User, error)
	List(ctx context.Context) ([]*User, error)
	SetApproved(ctx context.Context, userID id.UserID) (*User, error)
	SetActive(ctx context.Context, userID id.UserID, active bool) (*User, error)
}
