// internal/app/features/organizations/routes.go
package organizations

import (
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all Organization routes under the base path
// (typically "/organizations" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Browsing is open to everyone, signed in or not.
	r.Get("/", h.ServeList)
	r.Get("/{id}/view", h.ServeView)

	// Admin-only routes
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin"))

		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)

		pr.Get("/{id}/edit", h.ServeEdit)
		pr.Post("/{id}/edit", h.HandleEdit)

		pr.Post("/{id}/delete", h.HandleDelete)

		// MANAGE MODAL (HTMX)
		pr.Get("/{id}/manage_modal", h.ServeManageModal)
	})

	return r
}
