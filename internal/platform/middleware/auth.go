package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "medledger/pkg/domain"
	"medledger/pkg/requestcontext"
)

// Claims is what the token validator extracts from a bearer token. Token
// issuance and verification mechanics live behind TokenValidator; this layer
// only cares about who the caller claims to be.
type Claims struct {
	UserID id.UserID
}

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// RevocationChecker reports whether a user's sessions have been revoked.
// Deactivating an account pushes the user onto this list so outstanding
// tokens stop working immediately instead of at expiry.
type RevocationChecker interface {
	IsUserRevoked(ctx context.Context, userID id.UserID) (bool, error)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + errCode + `","error_description":"` + errDesc + `"}`))
}

// RequireAuth validates the Authorization header, checks the revocation list,
// and injects the caller's user ID into the request context. It does not load
// the principal; handlers fetch fresh identity state on every request so
// approval and deactivation changes take effect immediately.
func RequireAuth(validator TokenValidator, revocations RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			if revocations != nil {
				revoked, err := revocations.IsUserRevoked(ctx, claims.UserID)
				if err != nil {
					// Fail closed: an unreadable revocation list must not
					// let a possibly-revoked session through.
					logger.ErrorContext(ctx, "revocation check failed",
						"error", err,
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusServiceUnavailable, "unavailable", "Authorization temporarily unavailable")
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - revoked session",
						"user_id", claims.UserID.String(),
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Session has been revoked")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithUserID(ctx, claims.UserID)))
		})
	}
}
