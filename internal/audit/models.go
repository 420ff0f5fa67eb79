// Package audit is the append-only record of security-relevant actions. It
// exclusively owns audit storage; no other component writes events directly.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "medledger/pkg/domain"
)

// Action tags one class of security-relevant activity.
type Action string

const (
	// ActionLogin is emitted by the external auth collaborator, never by
	// this core; it appears here so the admin trail can decode it.
	ActionLogin Action = "LOGIN"

	ActionAccessRequested Action = "ACCESS_REQUESTED"
	ActionAccessGranted   Action = "ACCESS_GRANTED"
	ActionAccessRevoked   Action = "ACCESS_REVOKED"
	ActionRecordViewed    Action = "RECORD_VIEWED"
	ActionRecordCreated   Action = "RECORD_CREATED"
	ActionUserApproved    Action = "USER_APPROVED"
	ActionUserDeactivated Action = "USER_DEACTIVATED"
)

// Details is the action-specific payload, a tagged union keyed by Action.
// Each action has one known variant, which keeps the payload extensible per
// action without degenerating into an untyped bag.
type Details interface {
	isDetails()
}

// GrantDetails accompanies the three access-lifecycle actions.
type GrantDetails struct {
	GrantID id.GrantID `json:"grant_id"`
}

func (GrantDetails) isDetails() {}

// RecordViewDetails accompanies RECORD_VIEWED.
type RecordViewDetails struct {
	RecordCount int    `json:"record_count"`
	Browser     string `json:"browser,omitempty"`
	OS          string `json:"os,omitempty"`
}

func (RecordViewDetails) isDetails() {}

// RecordCreatedDetails accompanies RECORD_CREATED.
type RecordCreatedDetails struct {
	RecordID id.RecordID `json:"record_id"`
	Title    string      `json:"title,omitempty"`
}

func (RecordCreatedDetails) isDetails() {}

// LoginDetails accompanies LOGIN events written by the auth collaborator.
type LoginDetails struct {
	ClientIP string `json:"client_ip,omitempty"`
}

func (LoginDetails) isDetails() {}

// Event is one immutable audit entry. Created once, never mutated, never
// deleted.
type Event struct {
	ID          uuid.UUID  `json:"id"`
	Action      Action     `json:"action"`
	PerformedBy id.UserID  `json:"performed_by"`
	TargetUser  *id.UserID `json:"target_user,omitempty"`
	Details     Details    `json:"details,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`

	// AnchorRef is reserved for a future external tamper-evidence anchor
	// (e.g. a transaction hash). The core never populates it.
	AnchorRef string `json:"anchor_ref,omitempty"`
}

// EncodeDetails marshals the payload for storage. Nil details encode as nil.
func EncodeDetails(d Details) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal audit details: %w", err)
	}
	return raw, nil
}

// DecodeDetails unmarshals a stored payload into the variant for the action.
// Unknown actions keep their payload opaque (nil), preserving forward
// compatibility with events written by newer deployments.
func DecodeDetails(action Action, raw []byte) (Details, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var target Details
	switch action {
	case ActionAccessRequested, ActionAccessGranted, ActionAccessRevoked:
		target = &GrantDetails{}
	case ActionRecordViewed:
		target = &RecordViewDetails{}
	case ActionRecordCreated:
		target = &RecordCreatedDetails{}
	case ActionLogin:
		target = &LoginDetails{}
	default:
		return nil, nil
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("unmarshal %s details: %w", action, err)
	}

	switch v := target.(type) {
	case *GrantDetails:
		return *v, nil
	case *RecordViewDetails:
		return *v, nil
	case *RecordCreatedDetails:
		return *v, nil
	case *LoginDetails:
		return *v, nil
	default:
		return nil, nil
	}
}
