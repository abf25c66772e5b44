// internal/app/features/organizations/manage.go
package organizations

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	organizationstore "github.com/dalemusser/mentorhub/internal/app/store/organizations"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeManageModal renders the HTMX "Manage Organization" modal with links
// to the org's pages.
// Authorization: RequireRole("admin") middleware in routes.go.
func (h *Handler) ServeManageModal(w http.ResponseWriter, r *http.Request) {
	orgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Organization not found.", "/organizations")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	org, err := h.Orgs.GetByID(ctx, orgID)
	if errors.Is(err, organizationstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "Organization not found.", "/organizations")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load organization", err, "Unable to load the organization.", "/organizations")
		return
	}

	templates.RenderSnippet(w, "organization_manage_modal", orgManageModalData{
		ID:      org.ID.Hex(),
		Name:    org.Name,
		BackURL: httpnav.ResolveBackURL(r, "/organizations"),
	})
}
