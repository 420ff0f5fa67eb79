package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "medledger/pkg/domain"
)

// RedisList stores revocations as keys with TTL so expiry needs no cleanup
// job. Shared across service instances, unlike the in-memory list.
type RedisList struct {
	client *redis.Client
}

func NewRedisList(client *redis.Client) *RedisList {
	return &RedisList{client: client}
}

func revocationKey(userID id.UserID) string {
	return "revoked_user:" + userID.String()
}

func (l *RedisList) RevokeUser(ctx context.Context, userID id.UserID, ttl time.Duration) error {
	if err := l.client.Set(ctx, revocationKey(userID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("set revocation: %w", err)
	}
	return nil
}

func (l *RedisList) IsUserRevoked(ctx context.Context, userID id.UserID) (bool, error) {
	n, err := l.client.Exists(ctx, revocationKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}
