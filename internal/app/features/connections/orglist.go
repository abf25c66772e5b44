// internal/app/features/connections/orglist.go
package connections

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	"github.com/dalemusser/mentorhub/internal/app/policy/connectionpolicy"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeOrgList handles GET /connections/org/{orgID}: the organization's side
// of its negotiations plus outstanding email invitations. Restricted to the
// organization's admins and site admins.
func (h *Handler) ServeOrgList(w http.ResponseWriter, r *http.Request) {
	orgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orgID"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Organization not found.", "/connections")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ok, err := connectionpolicy.CanActForOrg(ctx, h.Profiles, r, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "org authorization check", err, "Unable to load connections.", "/connections")
		return
	}
	if !ok {
		uierrors.RenderForbidden(w, r, "You do not administer this organization.", "/connections")
		return
	}

	org, err := h.Orgs.GetByID(ctx, orgID)
	if err != nil {
		uierrors.RenderNotFound(w, r, "Organization not found.", "/connections")
		return
	}

	conns, err := h.Connections.ListForOrganization(ctx, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list org connections", err, "Unable to load connections.", "/connections")
		return
	}

	items := make([]listItem, 0, len(conns))
	for _, c := range conns {
		items = append(items, listItem{
			ID:           c.ID,
			Counterpart:  h.profileUserName(ctx, c.ProfileID),
			Status:       c.Status(),
			GrantedRole:  c.GrantedRole(),
			Unseen:       !c.SeenByOrg,
			LastModified: c.LastModified,
		})
	}

	invites, err := h.Invites.ListForOrganization(ctx, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list invitations", err, "Unable to load connections.", "/connections")
		return
	}
	inviteRows := make([]inviteRow, 0, len(invites))
	for _, inv := range invites {
		inviteRows = append(inviteRows, inviteRow{
			ID:        inv.ID,
			Email:     inv.Email,
			RoleLabel: inv.Role.Label(),
			ExpiresAt: inv.ExpiresAt,
		})
	}

	templates.Render(w, r, "connections_org", orgListData{
		BaseVM:  viewdata.NewBaseVM(r, org.Name+" Connections", "/connections"),
		OrgID:   orgID.Hex(),
		OrgName: org.Name,
		Items:   items,
		Invites: inviteRows,
	})
}
