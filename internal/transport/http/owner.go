package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medledger/internal/access"
	"medledger/internal/record"
	"medledger/internal/transport/http/shared"
	id "medledger/pkg/domain"
	dErrors "medledger/pkg/domain-errors"
)

// handleListIncoming lists access requests directed at the patient.
func (h *Handler) handleListIncoming(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.principal(w, r)
	if !ok {
		return
	}

	grants, err := h.access.ListIncoming(r.Context(), owner)
	if err != nil {
		h.logDenied(r.Context(), "list_incoming", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, grants)
}

// handleRespond applies the decision encoded in the route to a grant the
// patient owns.
func (h *Handler) handleRespond(decision access.Decision) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		grantID, err := id.ParseGrantID(chi.URLParam(r, "grantID"))
		if err != nil {
			shared.WriteError(w, err)
			return
		}

		owner, ok := h.principal(w, r)
		if !ok {
			return
		}

		g, err := h.access.Respond(r.Context(), owner, grantID, decision)
		if err != nil {
			h.logDenied(r.Context(), "respond", err)
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, g)
	}
}

// handleListOwnRecords lists the patient's own records.
func (h *Handler) handleListOwnRecords(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.principal(w, r)
	if !ok {
		return
	}

	records, err := h.records.ListMine(r.Context(), owner)
	if err != nil {
		h.logDenied(r.Context(), "list_own_records", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

// handleCreateRecord adds a record to the patient's own history.
func (h *Handler) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var input record.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	owner, ok := h.principal(w, r)
	if !ok {
		return
	}

	rec, err := h.records.Create(r.Context(), owner, input)
	if err != nil {
		h.logDenied(r.Context(), "create_record", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, rec)
}
