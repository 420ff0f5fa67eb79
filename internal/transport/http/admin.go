package httptransport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"medledger/internal/audit"
	"medledger/internal/transport/http/shared"
	id "medledger/pkg/domain"
	dErrors "medledger/pkg/domain-errors"
	pkgstrings "medledger/pkg/platform/strings"
)

// defaultAuditPageSize bounds unqualified audit queries.
const defaultAuditPageSize = 100

// handleListUsers lists every account for the admin console.
func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.principal(w, r)
	if !ok {
		return
	}

	users, err := h.admin.ListUsers(r.Context(), admin)
	if err != nil {
		h.logDenied(r.Context(), "list_users", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, users)
}

// handleApproveUser marks an account as approved.
func (h *Handler) handleApproveUser(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	admin, ok := h.principal(w, r)
	if !ok {
		return
	}

	user, err := h.admin.Approve(r.Context(), admin, userID)
	if err != nil {
		h.logDenied(r.Context(), "approve_user", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, user)
}

// handleDeactivateUser disables an account and revokes its tokens.
func (h *Handler) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	admin, ok := h.principal(w, r)
	if !ok {
		return
	}

	user, err := h.admin.Deactivate(r.Context(), admin, userID)
	if err != nil {
		h.logDenied(r.Context(), "deactivate_user", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, user)
}

// handleAuditTrail queries the audit log. Repeated "action" query parameters
// filter; "limit" caps the page, defaulting to defaultAuditPageSize.
func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.principal(w, r)
	if !ok {
		return
	}

	var actions []audit.Action
	for _, raw := range pkgstrings.DedupeAndTrim(r.URL.Query()["action"]) {
		actions = append(actions, audit.Action(raw))
	}

	limit := defaultAuditPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	events, err := h.admin.AuditTrail(r.Context(), admin, actions, limit)
	if err != nil {
		h.logDenied(r.Context(), "audit_trail", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, events)
}
