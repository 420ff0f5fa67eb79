package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "medledger/pkg/domain"
)

func signToken(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestValidator_ValidateToken(t *testing.T) {
	const key = "test-signing-key"
	validator := NewValidator(key)
	userID := id.NewUserID()

	t.Run("accepts a valid token and extracts the subject", func(t *testing.T) {
		tokenString := signToken(t, key, jwt.MapClaims{
			"sub": userID.String(),
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		claims, err := validator.ValidateToken(tokenString)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
	})

	t.Run("rejects a token signed with the wrong key", func(t *testing.T) {
		tokenString := signToken(t, "other-key", jwt.MapClaims{
			"sub": userID.String(),
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := validator.ValidateToken(tokenString)
		assert.Error(t, err)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		tokenString := signToken(t, key, jwt.MapClaims{
			"sub": userID.String(),
			"exp": time.Now().Add(-time.Minute).Unix(),
		})

		_, err := validator.ValidateToken(tokenString)
		assert.Error(t, err)
	})

	t.Run("rejects a token whose subject is not a UUID", func(t *testing.T) {
		tokenString := signToken(t, key, jwt.MapClaims{
			"sub": "alice",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := validator.ValidateToken(tokenString)
		assert.Error(t, err)
	})
}
