// internal/app/features/connections/view.go
package connections

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	"github.com/dalemusser/mentorhub/internal/app/policy/connectionpolicy"
	connectionstore "github.com/dalemusser/mentorhub/internal/app/store/connections"
	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeView handles GET /connections/{id}: the negotiation state of both
// tracks plus the message thread. Viewing marks the connection seen for the
// sides the viewer genuinely holds; a site admin browsing does not clear
// anyone's badge.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	connID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Connection not found.", "/connections")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	conn, err := h.Connections.Get(ctx, connID)
	if errors.Is(err, connectionstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "Connection not found.", "/connections")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load connection", err, "Unable to load the connection.", "/connections")
		return
	}

	ok, err := connectionpolicy.CanView(ctx, h.Profiles, r, conn)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "view authorization check", err, "Unable to load the connection.", "/connections")
		return
	}
	if !ok {
		uierrors.RenderForbidden(w, r, "You are not part of this connection.", "/connections")
		return
	}

	isOwner, isOrgAdmin := h.viewerSides(ctx, r, conn)
	role, _, _, _ := authz.UserCtx(r)
	isAdmin := role == "admin"

	if isOwner {
		if err := h.Connections.MarkSeen(ctx, conn.ID, models.ActorUser); err != nil {
			h.Log.Warn("mark seen (user)", zap.Error(err))
		}
	}
	if isOrgAdmin {
		if err := h.Connections.MarkSeen(ctx, conn.ID, models.ActorOrg); err != nil {
			h.Log.Warn("mark seen (org)", zap.Error(err))
		}
	}

	msgs, err := h.Messages.ListForConnection(ctx, conn.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list messages", err, "Unable to load the connection.", "/connections")
		return
	}
	rows := make([]messageRow, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, messageRow{
			AuthorName: m.AuthorName,
			System:     m.IsAutoGenerated,
			Content:    m.Content,
			CreatedOn:  m.Created,
		})
	}

	tracks := make([]trackRow, 0, len(models.Tracks))
	for _, t := range models.Tracks {
		state := conn.TrackState(t)
		tracks = append(tracks, trackRow{
			Track:         t,
			Label:         t.Label(),
			State:         state,
			UserDecision:  conn.Flag(t, models.ActorUser),
			OrgDecision:   conn.Flag(t, models.ActorOrg),
			CanDecideUser: (isOwner || isAdmin) && conn.Flag(t, models.ActorUser) == models.DecisionPending && !state.Terminal(),
			CanDecideOrg:  (isOrgAdmin || isAdmin) && conn.Flag(t, models.ActorOrg) == models.DecisionPending && !state.Terminal(),
			CanResign:     state == models.TrackGranted && (isOwner || isAdmin),
		})
	}

	templates.Render(w, r, "connection_view", connViewData{
		BaseVM:    viewdata.NewBaseVM(r, "Connection", "/connections"),
		ID:        conn.ID.Hex(),
		OrgID:     conn.OrganizationID.Hex(),
		OrgName:   h.orgName(ctx, conn.OrganizationID),
		UserName:  h.profileUserName(ctx, conn.ProfileID),
		Status:    conn.Status(),
		Tracks:    tracks,
		Messages:  rows,
		CanPost:   true,
		CanDelete: connectionpolicy.CanDelete(r),
	})
}

// viewerSides reports which sides of the connection the viewer actually
// holds: the profile owner's side, and the organization admin's side.
func (h *Handler) viewerSides(ctx context.Context, r *http.Request, conn models.Connection) (isOwner, isOrgAdmin bool) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false, false
	}

	subject, err := h.Profiles.Get(ctx, conn.ProfileID)
	if err == nil && subject.UserID == uid {
		isOwner = true
	}

	viewer, err := h.Profiles.GetByUserID(ctx, uid)
	if err == nil && viewer.AdminsFor(conn.OrganizationID) {
		isOrgAdmin = true
	}
	if err != nil && !errors.Is(err, profilestore.ErrNotFound) {
		h.Log.Warn("load viewer profile", zap.Error(err))
	}
	return isOwner, isOrgAdmin
}
