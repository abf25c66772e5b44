// internal/app/features/connections/invite.go
package connections

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	"github.com/dalemusser/mentorhub/internal/app/policy/connectionpolicy"
	anonconnectionstore "github.com/dalemusser/mentorhub/internal/app/store/anonconnections"
	connectionstore "github.com/dalemusser/mentorhub/internal/app/store/connections"
	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/mentorhub/internal/app/system/inputval"
	"github.com/dalemusser/mentorhub/internal/app/system/mailer"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /connections/org/{orgID}/invite                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleInvite sends an email invitation to take a role at the organization.
// The invitation carries a single-use token; claiming it creates a
// connection whose org side is already accepted.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	orgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orgID"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Organization not found.", "/connections")
		return
	}
	orgPath := "/connections/org/" + orgID.Hex()

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", orgPath)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ok, err := connectionpolicy.CanActForOrg(ctx, h.Profiles, r, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "org authorization check", err, "A server error occurred.", orgPath)
		return
	}
	if !ok {
		uierrors.RenderForbidden(w, r, "You do not administer this organization.", "/connections")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	track, trackOK := parseTrack(strings.TrimSpace(r.FormValue("track")))

	if !inputval.IsValidEmail(email) {
		uierrors.RenderBadRequest(w, r, "A valid email address is required.", orgPath)
		return
	}
	if !trackOK {
		uierrors.RenderBadRequest(w, r, "Please choose a role.", orgPath)
		return
	}

	org, err := h.Orgs.GetByID(ctx, orgID)
	if err != nil {
		uierrors.RenderNotFound(w, r, "Organization not found.", "/connections")
		return
	}

	token, err := h.Invites.Invite(ctx, orgID, email, track)
	if errors.Is(err, anonconnectionstore.ErrDuplicateInvite) {
		uierrors.RenderBadRequest(w, r,
			"An invitation for this email address is already outstanding. Revoke it first to send another.", orgPath)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create invitation", err, "A server error occurred.", orgPath)
		return
	}

	h.Notify.SendInvitation(email, mailer.InvitationEmailData{
		SiteName:  viewdata.SiteName(),
		OrgName:   org.Name,
		RoleName:  track.Label(),
		ClaimLink: fmt.Sprintf("%s/register?token=%s", h.BaseURL, token),
		ExpiresIn: formatExpiry(h.Invites.Expiry()),
	})

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.InvitationSent(ctx, r, actorID, orgID, email, string(track))

	http.Redirect(w, r, orgPath, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /connections/org/{orgID}/invite/{inviteID}/revoke                      |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleRevoke withdraws an outstanding invitation.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	orgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orgID"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Organization not found.", "/connections")
		return
	}
	orgPath := "/connections/org/" + orgID.Hex()

	inviteID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "inviteID"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Invitation not found.", orgPath)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ok, err := connectionpolicy.CanActForOrg(ctx, h.Profiles, r, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "org authorization check", err, "A server error occurred.", orgPath)
		return
	}
	if !ok {
		uierrors.RenderForbidden(w, r, "You do not administer this organization.", "/connections")
		return
	}

	// The store has no point lookup by id; the audit record wants the email,
	// so find it in the org's outstanding invitations.
	email := ""
	invites, err := h.Invites.ListForOrganization(ctx, orgID)
	if err == nil {
		for _, inv := range invites {
			if inv.ID == inviteID {
				email = inv.Email
				break
			}
		}
	}

	if err := h.Invites.Revoke(ctx, inviteID); err != nil {
		if errors.Is(err, anonconnectionstore.ErrNotFound) {
			uierrors.RenderNotFound(w, r, "Invitation not found.", orgPath)
			return
		}
		h.ErrLog.LogServerError(w, r, "revoke invitation", err, "A server error occurred.", orgPath)
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.InvitationRevoked(ctx, r, actorID, orgID, email)

	http.Redirect(w, r, orgPath, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /connections/claim                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeClaim lets a signed-in user consume an invitation token. New users go
// through /register?token= instead; this path covers invitees who already
// have an account.
func (h *Handler) ServeClaim(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(query.Get(r, "token"))
	if token == "" {
		uierrors.RenderNotFound(w, r, "This invitation link is incomplete.", "/connections")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	profile, err := h.currentProfile(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile", err, "A server error occurred.", "/connections")
		return
	}

	// Resolving the token and creating the connection run in one
	// transaction, so a failed claim leaves the invitation claimable.
	conn, invite, err := h.Connections.ClaimInvitation(ctx, h.Invites, profile.ID, token)
	if errors.Is(err, anonconnectionstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r,
			"This invitation is invalid, expired, or already used.", "/connections")
		return
	}
	if errors.Is(err, connectionstore.ErrConnectionExists) {
		uierrors.RenderBadRequest(w, r,
			"You already have a connection with this organization. Open it to continue the conversation.",
			"/connections")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "claim invitation", err, "A server error occurred.", "/connections")
		return
	}

	_, _, uid, _ := authz.UserCtx(r)
	h.AuditLog.InvitationClaimed(ctx, r, uid, invite.OrganizationID, string(invite.Role))

	http.Redirect(w, r, "/connections/"+conn.ID.Hex(), http.StatusSeeOther)
}

// formatExpiry renders a duration as a rough human-readable span.
func formatExpiry(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days >= 2 {
		return fmt.Sprintf("%d days", days)
	}
	if days == 1 {
		return "1 day"
	}
	hours := int(d.Hours())
	if hours >= 2 {
		return fmt.Sprintf("%d hours", hours)
	}
	return "1 hour"
}
