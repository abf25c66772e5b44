// internal/app/features/connections/decide.go
package connections

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	"github.com/dalemusser/mentorhub/internal/app/policy/connectionpolicy"
	connectionstore "github.com/dalemusser/mentorhub/internal/app/store/connections"
	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /connections/{id}/decide                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleDecide records one side's accept or reject on one track. The form
// carries side (user|org), track, and outcome (accept|reject); the handler
// verifies the viewer may act as that side before touching the flag.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	connID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Connection not found.", "/connections")
		return
	}
	connPath := "/connections/" + connID.Hex()

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", connPath)
		return
	}

	track, trackOK := parseTrack(strings.TrimSpace(r.FormValue("track")))
	outcome, outcomeOK := parseOutcome(strings.TrimSpace(r.FormValue("outcome")))
	side := strings.TrimSpace(r.FormValue("side"))
	if !trackOK || !outcomeOK || (side != "user" && side != "org") {
		uierrors.RenderBadRequest(w, r, "Invalid decision.", connPath)
		return
	}
	actor := models.ActorUser
	if side == "org" {
		actor = models.ActorOrg
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	conn, err := h.Connections.Get(ctx, connID)
	if errors.Is(err, connectionstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "Connection not found.", "/connections")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load connection", err, "A server error occurred.", "/connections")
		return
	}

	if !h.maySideAct(ctx, w, r, conn, actor) {
		return
	}

	updated, err := h.Connections.Decide(ctx, connID, track, actor, outcome)
	var invalid *models.InvalidTransitionError
	if errors.As(err, &invalid) {
		uierrors.RenderBadRequest(w, r,
			"This decision is no longer available; the track has already been decided.", connPath)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "record decision", err, "A server error occurred.", connPath)
		return
	}

	subjectID := h.subjectUserID(ctx, conn.ProfileID)
	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.ConnectionDecided(ctx, r, actorID, subjectID, conn.OrganizationID,
		string(track), string(actor), string(outcome))
	if updated.TrackState(track) == models.TrackGranted {
		h.AuditLog.RoleGranted(ctx, r, subjectID, conn.OrganizationID, string(track))
	}

	http.Redirect(w, r, connPath, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /connections/{id}/resign                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleResign revokes a granted role. Only the role holder (or a site
// admin) may resign it.
func (h *Handler) HandleResign(w http.ResponseWriter, r *http.Request) {
	connID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Connection not found.", "/connections")
		return
	}
	connPath := "/connections/" + connID.Hex()

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", connPath)
		return
	}
	track, trackOK := parseTrack(strings.TrimSpace(r.FormValue("track")))
	if !trackOK {
		uierrors.RenderBadRequest(w, r, "Invalid role.", connPath)
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
		h.ErrLog.LogServerError(w, r, "load connection", err, "A server error occurred.", "/connections")
		return
	}

	if !h.maySideAct(ctx, w, r, conn, models.ActorUser) {
		return
	}
	if conn.TrackState(track) != models.TrackGranted {
		uierrors.RenderBadRequest(w, r, "This role is not currently granted.", connPath)
		return
	}

	if err := h.Connections.Resign(ctx, connID, track); err != nil {
		h.ErrLog.LogServerError(w, r, "resign role", err, "A server error occurred.", connPath)
		return
	}

	h.AuditLog.RoleResigned(ctx, r, h.subjectUserID(ctx, conn.ProfileID), conn.OrganizationID, string(track))

	http.Redirect(w, r, connPath, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /connections/{id}/delete                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleDelete removes a connection and its thread so the pair can start
// over. Admin only; the route group enforces the role, the policy check is
// the second line.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	connID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Connection not found.", "/connections")
		return
	}

	if !connectionpolicy.CanDelete(r) {
		uierrors.RenderForbidden(w, r, "Only administrators can delete connections.", "/connections")
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
		h.ErrLog.LogServerError(w, r, "load connection", err, "A server error occurred.", "/connections")
		return
	}

	if err := h.Connections.Delete(ctx, connID); err != nil {
		h.ErrLog.LogServerError(w, r, "delete connection", err, "A server error occurred.", "/connections")
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.ConnectionDeleted(ctx, r, actorID, h.subjectUserID(ctx, conn.ProfileID), conn.OrganizationID)

	http.Redirect(w, r, "/connections", http.StatusSeeOther)
}

// maySideAct verifies the viewer may act as the given side of conn,
// rendering a forbidden page and returning false otherwise.
func (h *Handler) maySideAct(ctx context.Context, w http.ResponseWriter, r *http.Request, conn models.Connection, actor models.Actor) bool {
	if actor == models.ActorUser {
		subject, err := h.Profiles.Get(ctx, conn.ProfileID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "load subject profile", err, "A server error occurred.", "/connections")
			return false
		}
		if !connectionpolicy.CanActForUser(r, subject) {
			uierrors.RenderForbidden(w, r, "You cannot act on this side of the connection.", "/connections")
			return false
		}
		return true
	}

	ok, err := connectionpolicy.CanActForOrg(ctx, h.Profiles, r, conn.OrganizationID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "org authorization check", err, "A server error occurred.", "/connections")
		return false
	}
	if !ok {
		uierrors.RenderForbidden(w, r, "You do not administer this organization.", "/connections")
		return false
	}
	return true
}

// subjectUserID resolves the user who owns the connection's profile, for
// audit records. Returns the zero ObjectID when the profile is gone.
func (h *Handler) subjectUserID(ctx context.Context, profileID primitive.ObjectID) primitive.ObjectID {
	p, err := h.Profiles.Get(ctx, profileID)
	if err != nil {
		return primitive.NilObjectID
	}
	return p.UserID
}
