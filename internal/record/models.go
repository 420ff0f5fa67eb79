// Package record is the protected-resource collaborator: the patient records
// whose visibility the consent workflow mediates. The workflow service is
// the only reader on behalf of accessors; owners reach their own records
// through the record service directly.
package record

import (
	"strings"
	"time"

	id "medledger/pkg/domain"
	dErrors "medledger/pkg/domain-errors"
)

// PatientRecord is one medical record belonging to an owner.
type PatientRecord struct {
	ID           id.RecordID `json:"id"`
	OwnerID      id.UserID   `json:"owner_id"`
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	Diagnosis    string      `json:"diagnosis,omitempty"`
	Prescription string      `json:"prescription,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// CreateInput is the caller-supplied portion of a new record.
type CreateInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Diagnosis    string `json:"diagnosis"`
	Prescription string `json:"prescription"`
}

// NewRecord validates and constructs a record for the given owner.
func NewRecord(recordID id.RecordID, ownerID id.UserID, input CreateInput, now time.Time) (*PatientRecord, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "record title is required")
	}
	return &PatientRecord{
		ID:           recordID,
		OwnerID:      ownerID,
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		Diagnosis:    strings.TrimSpace(input.Diagnosis),
		Prescription: strings.TrimSpace(input.Prescription),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
