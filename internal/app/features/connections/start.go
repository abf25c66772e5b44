// internal/app/features/connections/start.go
package connections

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	"github.com/dalemusser/mentorhub/internal/app/policy/connectionpolicy"
	connectionstore "github.com/dalemusser/mentorhub/internal/app/store/connections"
	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/mentorhub/internal/app/system/formutil"
	"github.com/dalemusser/mentorhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mentorhub/internal/app/system/limits"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /connections/start                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeStart shows the "request a role" form. An optional org query
// parameter preselects the organization.
func (h *Handler) ServeStart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data := startData{OrgID: query.Get(r, "org"), Track: string(models.TrackMentor)}
	formutil.SetBase(&data.Base, r, "Request a Role", "/connections")

	if err := h.loadOrgOptions(ctx, &data); err != nil {
		h.ErrLog.LogServerError(w, r, "list organizations", err, "Unable to load organizations.", "/connections")
		return
	}

	templates.Render(w, r, "connection_start", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /connections/start                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleStart creates a user-initiated connection: the user requests a role
// at an organization, with an optional introduction note.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/connections/start")
		return
	}

	orgIDHex := strings.TrimSpace(r.FormValue("org_id"))
	trackVal := strings.TrimSpace(r.FormValue("track"))
	note := strings.TrimSpace(r.FormValue("note"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	orgID, err := primitive.ObjectIDFromHex(orgIDHex)
	if err != nil {
		h.renderStartWithError(w, r, ctx, "Please choose an organization.", orgIDHex, trackVal, note)
		return
	}
	track, ok := parseTrack(trackVal)
	if !ok {
		h.renderStartWithError(w, r, ctx, "Please choose a role.", orgIDHex, trackVal, note)
		return
	}
	if len(note) > limits.MaxMessageLength {
		h.renderStartWithError(w, r, ctx, "The note is too long.", orgIDHex, trackVal, "")
		return
	}
	note = htmlsanitize.Sanitize(note)

	if _, err := h.Orgs.GetByID(ctx, orgID); err != nil {
		h.renderStartWithError(w, r, ctx, "That organization does not exist.", "", trackVal, note)
		return
	}

	profile, err := h.currentProfile(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile", err, "A server error occurred.", "/connections")
		return
	}

	_, uname, uid, _ := authz.UserCtx(r)
	conn, err := h.Connections.Start(ctx, profile.ID, orgID, models.ActorUser, track, note, uid, uname)
	if errors.Is(err, connectionstore.ErrConnectionExists) {
		h.renderStartWithError(w, r, ctx,
			"You already have a connection with this organization. Open it to continue the conversation.",
			orgIDHex, trackVal, note)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "start connection", err, "A server error occurred.", "/connections")
		return
	}

	h.AuditLog.ConnectionCreated(ctx, r, uid, uid, orgID, string(track), string(models.ActorUser))

	http.Redirect(w, r, "/connections/"+conn.ID.Hex(), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /connections/org/{orgID}/offer                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleOffer creates an org-initiated connection: an org admin offers a
// role to an existing user, addressed by email.
func (h *Handler) HandleOffer(w http.ResponseWriter, r *http.Request) {
	orgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orgID"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Organization not found.", "/connections")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/connections")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ok, err := connectionpolicy.CanActForOrg(ctx, h.Profiles, r, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "org authorization check", err, "A server error occurred.", "/connections")
		return
	}
	if !ok {
		uierrors.RenderForbidden(w, r, "You do not administer this organization.", "/connections")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	track, trackOK := parseTrack(strings.TrimSpace(r.FormValue("track")))
	note := strings.TrimSpace(r.FormValue("note"))
	orgPath := "/connections/org/" + orgID.Hex()

	if !trackOK {
		uierrors.RenderBadRequest(w, r, "Please choose a role.", orgPath)
		return
	}
	if len(note) > limits.MaxMessageLength {
		uierrors.RenderBadRequest(w, r, "The note is too long.", orgPath)
		return
	}
	note = htmlsanitize.Sanitize(note)

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r,
			"No account exists for that email address. Send an email invitation instead.", orgPath)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find user by email", err, "A server error occurred.", orgPath)
		return
	}

	subject, err := h.Profiles.GetByUserID(ctx, u.ID)
	if errors.Is(err, profilestore.ErrNotFound) {
		subject, err = h.Profiles.Create(ctx, u.ID)
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load subject profile", err, "A server error occurred.", orgPath)
		return
	}

	_, uname, actorID, _ := authz.UserCtx(r)
	conn, err := h.Connections.Start(ctx, subject.ID, orgID, models.ActorOrg, track, note, actorID, uname)
	if errors.Is(err, connectionstore.ErrConnectionExists) {
		uierrors.RenderBadRequest(w, r,
			"A connection with this user already exists. Open it to continue the conversation.", orgPath)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "start connection", err, "A server error occurred.", orgPath)
		return
	}

	h.AuditLog.ConnectionCreated(ctx, r, actorID, u.ID, orgID, string(track), string(models.ActorOrg))

	http.Redirect(w, r, "/connections/"+conn.ID.Hex(), http.StatusSeeOther)
}

func (h *Handler) loadOrgOptions(ctx context.Context, data *startData) error {
	orgs, err := h.Orgs.ListActive(ctx)
	if err != nil {
		return err
	}
	data.Orgs = make([]orgOption, 0, len(orgs))
	for _, o := range orgs {
		data.Orgs = append(data.Orgs, orgOption{ID: o.ID.Hex(), Name: o.Name})
	}
	return nil
}

func (h *Handler) renderStartWithError(w http.ResponseWriter, r *http.Request, ctx context.Context, msg, orgID, track, note string) {
	data := startData{OrgID: orgID, Track: track, Note: note}
	formutil.SetBase(&data.Base, r, "Request a Role", "/connections")
	data.SetError(msg)

	if err := h.loadOrgOptions(ctx, &data); err != nil {
		h.ErrLog.LogServerError(w, r, "list organizations", err, "Unable to load organizations.", "/connections")
		return
	}
	templates.Render(w, r, "connection_start", data)
}
