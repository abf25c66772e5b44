// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin Users routes under the base path (typically
// "/users" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin"))

		pr.Get("/", h.ServeList)
		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}/view", h.ServeView)
		pr.Post("/{id}/status", h.HandleSetStatus)
	})

	return r
}
