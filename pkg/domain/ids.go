// Package domain holds the typed identifiers shared across features. Using
// distinct types for each entity keeps an accessor ID from ever being passed
// where an owner ID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "medledger/pkg/domain-errors"
)

type (
	// UserID identifies a principal (patient, doctor, or admin).
	UserID uuid.UUID
	// GrantID identifies one access-grant lifecycle record.
	GrantID uuid.UUID
	// RecordID identifies a patient record.
	RecordID uuid.UUID
)

func NewUserID() UserID     { return UserID(uuid.New()) }
func NewGrantID() GrantID   { return GrantID(uuid.New()) }
func NewRecordID() RecordID { return RecordID(uuid.New()) }

// parseUUID enforces the invariant that IDs are valid, non-nil UUIDs at trust
// boundaries (path params, tokens).
func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	return UserID(parsed), err
}

func ParseGrantID(raw string) (GrantID, error) {
	parsed, err := parseUUID(raw)
	return GrantID(parsed), err
}

func ParseRecordID(raw string) (RecordID, error) {
	parsed, err := parseUUID(raw)
	return RecordID(parsed), err
}

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id GrantID) String() string { return uuid.UUID(id).String() }
func (id GrantID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id RecordID) String() string { return uuid.UUID(id).String() }
func (id RecordID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// Text marshalling so the typed IDs serialize as canonical UUID strings.

func (id UserID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(text []byte) error {
	parsed, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id GrantID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *GrantID) UnmarshalText(text []byte) error {
	parsed, err := ParseGrantID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id RecordID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *RecordID) UnmarshalText(text []byte) error {
	parsed, err := ParseRecordID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
