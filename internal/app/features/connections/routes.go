// internal/app/features/connections/routes.go
package connections

import (
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all connection routes under the base path (typically
// "/connections" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		// User side
		pr.Get("/", h.ServeList)
		pr.Get("/start", h.ServeStart)
		pr.Post("/start", h.HandleStart)
		pr.Get("/claim", h.ServeClaim)

		// Single connection
		pr.Get("/{id}", h.ServeView)
		pr.Post("/{id}/decide", h.HandleDecide)
		pr.Post("/{id}/message", h.HandleMessage)
		pr.Post("/{id}/resign", h.HandleResign)

		// Organization side
		pr.Get("/org/{orgID}", h.ServeOrgList)
		pr.Post("/org/{orgID}/offer", h.HandleOffer)
		pr.Post("/org/{orgID}/invite", h.HandleInvite)
		pr.Post("/org/{orgID}/invite/bulk", h.HandleBulkInvite)
		pr.Post("/org/{orgID}/invite/{inviteID}/revoke", h.HandleRevoke)
	})

	// Deleting a connection re-opens the pair; admins only.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin"))
		pr.Post("/{id}/delete", h.HandleDelete)
	})

	return r
}
