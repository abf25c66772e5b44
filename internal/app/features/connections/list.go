// internal/app/features/connections/list.go
package connections

import (
	"context"
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /connections: the signed-in user's side of every
// negotiation, most recently active first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data := listData{
		BaseVM: viewdata.NewBaseVM(r, "My Connections", "/"),
	}

	profile, err := h.currentProfile(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile", err, "Unable to load your connections.", "/")
		return
	}
	data.HasProfile = true

	conns, err := h.Connections.ListForProfile(ctx, profile.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list connections", err, "Unable to load your connections.", "/")
		return
	}

	orgIDs := make([]primitive.ObjectID, 0, len(conns))
	for _, c := range conns {
		orgIDs = append(orgIDs, c.OrganizationID)
	}
	names, err := h.Orgs.NameMap(ctx, orgIDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load organization names", err, "Unable to load your connections.", "/")
		return
	}

	data.Items = make([]listItem, 0, len(conns))
	for _, c := range conns {
		name := names[c.OrganizationID]
		if name == "" {
			name = "Unknown organization"
		}
		data.Items = append(data.Items, listItem{
			ID:           c.ID,
			Counterpart:  name,
			Status:       c.Status(),
			GrantedRole:  c.GrantedRole(),
			Unseen:       !c.SeenByUser,
			LastModified: c.LastModified,
		})
	}

	templates.Render(w, r, "connections_list", data)
}
