// internal/app/features/organizations/view.go
package organizations

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	organizationstore "github.com/dalemusser/mentorhub/internal/app/store/organizations"
	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/mentorhub/internal/app/system/status"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeView handles GET /organizations/{id}/view: the public organization
// page with its current mentors and admins.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
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
		h.ErrLog.LogServerError(w, r, "load organization", err, "Unable to load the organization.", "/organizations")
		return
	}

	role, _, uid, signedIn := authz.UserCtx(r)
	if org.Status != status.Active && role != "admin" {
		uierrors.RenderNotFound(w, r, "Organization not found.", "/organizations")
		return
	}

	mentors, err := h.people(ctx, h.Profiles.ListMentorsForOrg, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list mentors", err, "Unable to load the organization.", "/organizations")
		return
	}
	admins, err := h.people(ctx, h.Profiles.ListAdminsForOrg, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list org admins", err, "Unable to load the organization.", "/organizations")
		return
	}

	isOrgAdmin := false
	if signedIn {
		if viewer, err := h.Profiles.GetByUserID(ctx, uid); err == nil {
			isOrgAdmin = viewer.AdminsFor(orgID)
		} else if !errors.Is(err, profilestore.ErrNotFound) {
			h.Log.Warn("load viewer profile", zap.Error(err))
		}
	}

	templates.Render(w, r, "organization_view", viewData{
		BaseVM:      viewdata.NewBaseVM(r, org.Name, "/organizations"),
		ID:          org.ID.Hex(),
		Name:        org.Name,
		Description: org.Description,
		Homepage:    org.Homepage,
		Contact:     org.ContactInfo,
		Status:      org.Status,
		Mentors:     mentors,
		Admins:      admins,
		IsOrgAdmin:  isOrgAdmin || role == "admin",
	})
}

// people resolves the users behind a list of profiles to display rows.
func (h *Handler) people(ctx context.Context, list func(context.Context, primitive.ObjectID) ([]models.Profile, error), orgID primitive.ObjectID) ([]personRow, error) {
	profiles, err := list(ctx, orgID)
	if err != nil {
		return nil, err
	}
	rows := make([]personRow, 0, len(profiles))
	for _, p := range profiles {
		u, err := h.Users.GetByID(ctx, p.UserID)
		if err != nil {
			h.Log.Warn("resolve profile user", zap.String("profile_id", p.ID.Hex()), zap.Error(err))
			continue
		}
		rows = append(rows, personRow{Name: u.FullName, Email: u.Email})
	}
	return rows, nil
}
