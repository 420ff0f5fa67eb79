package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medledger/internal/access"
	"medledger/internal/platform/middleware"
)

// RouterDeps carries everything the router wires together. The metrics
// handler is injected so the transport does not depend on the registry.
type RouterDeps struct {
	Handler     *Handler
	Validator   middleware.TokenValidator
	Revocations middleware.RevocationChecker
	Metrics     http.Handler
}

// NewRouter builds the full route tree. Everything under /api requires a
// valid bearer token; role and approval checks happen in the services, so a
// route reachable by the wrong role still returns the gate's denial code.
func NewRouter(deps RouterDeps) http.Handler {
	h := deps.Handler

	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.ClientMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.RequireAuth(deps.Validator, deps.Revocations, h.logger))

		api.Route("/accessor", func(ar chi.Router) {
			ar.Post("/requests/{ownerID}", h.handleRequestAccess)
			ar.Get("/requests", h.handleListOutgoing)
			ar.Get("/patients", h.handleGrantedPatients)
			ar.Get("/patients/{ownerID}/records", h.handleViewPatientRecords)
		})

		api.Route("/owner", func(or chi.Router) {
			or.Get("/requests", h.handleListIncoming)
			or.Patch("/requests/{grantID}/grant", h.handleRespond(access.DecisionGrant))
			or.Patch("/requests/{grantID}/revoke", h.handleRespond(access.DecisionRevoke))
			or.Get("/records", h.handleListOwnRecords)
			or.Post("/records", h.handleCreateRecord)
		})

		api.Route("/admin", func(adm chi.Router) {
			adm.Get("/users", h.handleListUsers)
			adm.Patch("/users/{userID}/approve", h.handleApproveUser)
			adm.Patch("/users/{userID}/deactivate", h.handleDeactivateUser)
			adm.Get("/audit-events", h.handleAuditTrail)
		})
	})

	return r
}
