package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	id "medledger/pkg/domain"
	"medledger/pkg/requestcontext"
)

// ContextWithUser returns a context carrying the given user ID, as the auth
// middleware would after validating a token.
func ContextWithUser(t *testing.T, userID string) context.Context {
	t.Helper()
	parsed, err := id.ParseUserID(userID)
	require.NoError(t, err, "invalid test user ID")
	return requestcontext.WithUserID(context.Background(), parsed)
}

// ContextAt pins the request time so assertions on timestamps are exact.
func ContextAt(ctx context.Context, at time.Time) context.Context {
	return requestcontext.WithTime(ctx, at)
}

// ContextWithDevice attaches client device metadata, as the device middleware
// would after parsing the User-Agent header.
func ContextWithDevice(ctx context.Context, browser, os string) context.Context {
	return requestcontext.WithClientDevice(ctx, requestcontext.Device{Browser: browser, OS: os})
}
