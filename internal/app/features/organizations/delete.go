// internal/app/features/organizations/delete.go
package organizations

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	organizationstore "github.com/dalemusser/mentorhub/internal/app/store/organizations"
	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleDelete removes an organization.
// Authorization: RequireRole("admin") middleware in routes.go.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	orgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Organization not found.", "/organizations")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	org, err := h.Orgs.GetByID(ctx, orgID)
	if errors.Is(err, organizationstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "Organization not found.", "/organizations")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load organization", err, "Unable to delete the organization.", "/organizations")
		return
	}

	if _, err := h.Orgs.Delete(ctx, orgID); err != nil {
		h.ErrLog.LogServerError(w, r, "delete organization", err, "Database error while deleting the organization.", "/organizations")
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.OrgDeleted(ctx, r, actorID, orgID, org.Name)

	http.Redirect(w, r, "/organizations", http.StatusSeeOther)
}
