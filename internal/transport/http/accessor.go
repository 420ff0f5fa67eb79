package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medledger/internal/transport/http/shared"
	id "medledger/pkg/domain"
)

// handleRequestAccess creates a pending access request toward a patient.
func (h *Handler) handleRequestAccess(w http.ResponseWriter, r *http.Request) {
	ownerID, err := id.ParseUserID(chi.URLParam(r, "ownerID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	accessor, ok := h.principal(w, r)
	if !ok {
		return
	}

	g, err := h.access.RequestAccess(r.Context(), accessor, ownerID)
	if err != nil {
		h.logDenied(r.Context(), "request_access", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, g)
}

// handleListOutgoing lists the accessor's requests, newest first.
func (h *Handler) handleListOutgoing(w http.ResponseWriter, r *http.Request) {
	accessor, ok := h.principal(w, r)
	if !ok {
		return
	}

	grants, err := h.access.ListOutgoing(r.Context(), accessor)
	if err != nil {
		h.logDenied(r.Context(), "list_outgoing", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, grants)
}

// handleGrantedPatients lists the patients who currently grant access.
func (h *Handler) handleGrantedPatients(w http.ResponseWriter, r *http.Request) {
	accessor, ok := h.principal(w, r)
	if !ok {
		return
	}

	owners, err := h.access.GrantedOwners(r.Context(), accessor)
	if err != nil {
		h.logDenied(r.Context(), "granted_patients", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, owners)
}

// handleViewPatientRecords is the consent-gated read of a patient's records.
func (h *Handler) handleViewPatientRecords(w http.ResponseWriter, r *http.Request) {
	ownerID, err := id.ParseUserID(chi.URLParam(r, "ownerID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	accessor, ok := h.principal(w, r)
	if !ok {
		return
	}

	records, err := h.access.ViewRecords(r.Context(), accessor, ownerID)
	if err != nil {
		h.logDenied(r.Context(), "view_records", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, records)
}
