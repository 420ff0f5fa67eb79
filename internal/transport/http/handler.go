// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// the domain services, and encode; no business rule lives here.
package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"medledger/internal/access"
	"medledger/internal/identity"
	identitysvc "medledger/internal/identity/service"
	recordsvc "medledger/internal/record/service"
	"medledger/internal/transport/http/shared"
	dErrors "medledger/pkg/domain-errors"
	"medledger/pkg/platform/sentinel"
	"medledger/pkg/requestcontext"
)

type Handler struct {
	logger  *slog.Logger
	users   identity.Store
	access  *access.Service
	records *recordsvc.Service
	admin   *identitysvc.Service
}

func NewHandler(
	logger *slog.Logger,
	users identity.Store,
	accessSvc *access.Service,
	records *recordsvc.Service,
	admin *identitysvc.Service,
) *Handler {
	return &Handler{
		logger:  logger,
		users:   users,
		access:  accessSvc,
		records: records,
		admin:   admin,
	}
}

// principal loads the authenticated user fresh from the store on every
// request. Approval and deactivation flags are read live, never from token
// claims, so an admin action takes effect on the caller's next request.
func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (*identity.User, bool) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		h.logger.ErrorContext(ctx, "user ID missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return nil, false
	}

	user, err := h.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "unknown account"))
			return nil, false
		}
		h.logger.ErrorContext(ctx, "failed to load principal",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to load account"))
		return nil, false
	}
	return user, true
}

func (h *Handler) logDenied(ctx context.Context, op string, err error) {
	if dErrors.IsForbidden(err) {
		h.logger.WarnContext(ctx, "authorization denied",
			"operation", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
}
