// Package token implements the middleware TokenValidator using HMAC-signed
// JWTs. Token issuance belongs to the external identity provider; this side
// only verifies signatures and extracts the subject.
package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"medledger/internal/platform/middleware"
	id "medledger/pkg/domain"
)

// Validator verifies HS256 tokens issued by the identity collaborator.
type Validator struct {
	signingKey []byte
}

func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

// ValidateToken parses and verifies the token, returning the subject claims.
func (v *Validator) ValidateToken(tokenString string) (*middleware.Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("token subject: %w", err)
	}
	userID, err := id.ParseUserID(subject)
	if err != nil {
		return nil, fmt.Errorf("token subject is not a user id: %w", err)
	}

	return &middleware.Claims{UserID: userID}, nil
}
