package identity

import (
	"time"

	id "medledger/pkg/domain"
	dErrors "medledger/pkg/domain-errors"
)

// Role classifies a principal. Patients own records, doctors request access
// to them, admins manage accounts and read the audit trail.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a role string at trust boundaries.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RolePatient, RoleDoctor, RoleAdmin:
		return Role(raw), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+raw)
	}
}

// RequiresApproval reports whether principals of this role need admin
// sign-off before using role-specific operations. Admins are exempt.
func (r Role) RequiresApproval() bool {
	return r != RoleAdmin
}

// User is the principal record owned by the external identity provider. The
// authorization core treats it as read-only input except for the two admin
// flags, which the administration service mutates through the Store.
//
// Invariants:
//   - Role is one of patient, doctor, admin
//   - IsApproved starts false for self-registered patients and true for
//     admin-created doctors; only an admin flips it
//   - IsActive starts true; deactivation is the account kill switch
type User struct {
	ID             id.UserID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	Specialization string    `json:"specialization,omitempty"`
	IsApproved     bool      `json:"is_approved"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}
