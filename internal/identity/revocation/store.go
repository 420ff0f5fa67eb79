// Package revocation tracks users whose sessions have been force-revoked.
// Deactivating an account must take effect before the account's tokens
// expire, so the auth middleware consults this list on every request.
package revocation

import (
	"context"
	"time"

	id "medledger/pkg/domain"
)

// List is the revocation store. Entries carry a TTL at least as long as the
// longest-lived token, after which the token itself is expired anyway.
type List interface {
	RevokeUser(ctx context.Context, userID id.UserID, ttl time.Duration) error
	IsUserRevoked(ctx context.Context, userID id.UserID) (bool, error)
}
