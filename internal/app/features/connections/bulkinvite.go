// internal/app/features/connections/bulkinvite.go
package connections

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	"github.com/dalemusser/mentorhub/internal/app/policy/connectionpolicy"
	anonconnectionstore "github.com/dalemusser/mentorhub/internal/app/store/anonconnections"
	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/mentorhub/internal/app/system/csvutil"
	"github.com/dalemusser/mentorhub/internal/app/system/mailer"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /connections/org/{orgID}/invite/bulk                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleBulkInvite sends invitations for every row of an uploaded CSV
// (email,role). The file is validated in full before any invitation is
// created; rows whose email already has an outstanding invitation are
// skipped rather than failing the batch.
func (h *Handler) HandleBulkInvite(w http.ResponseWriter, r *http.Request) {
	orgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orgID"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Organization not found.", "/connections")
		return
	}
	orgPath := "/connections/org/" + orgID.Hex()

	if err := r.ParseMultipartForm(csvutil.MaxUploadSize); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse multipart form failed", err, "Invalid upload.", orgPath)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
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

	file, _, err := r.FormFile("csv")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Choose a CSV file to upload.", orgPath)
		return
	}
	defer file.Close()

	rows, htmlErr, err := csvutil.PreScanInvitesCSV(file)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "scan invite csv", err, "A server error occurred.", orgPath)
		return
	}
	if htmlErr != "" {
		uierrors.RenderBadRequest(w, r, string(htmlErr), orgPath)
		return
	}
	if len(rows) == 0 {
		uierrors.RenderBadRequest(w, r, "The uploaded file has no invitation rows.", orgPath)
		return
	}

	org, err := h.Orgs.GetByID(ctx, orgID)
	if err != nil {
		uierrors.RenderNotFound(w, r, "Organization not found.", "/connections")
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)

	sent := 0
	skipped := 0
	for _, row := range rows {
		token, err := h.Invites.Invite(ctx, orgID, row.Email, row.Role)
		if errors.Is(err, anonconnectionstore.ErrDuplicateInvite) {
			skipped++
			continue
		}
		if err != nil {
			h.ErrLog.LogServerError(w, r, "create invitation from csv", err, "A server error occurred.", orgPath)
			return
		}

		h.Notify.SendInvitation(row.Email, mailer.InvitationEmailData{
			SiteName:  viewdata.SiteName(),
			OrgName:   org.Name,
			RoleName:  row.Role.Label(),
			ClaimLink: fmt.Sprintf("%s/register?token=%s", h.BaseURL, token),
			ExpiresIn: formatExpiry(h.Invites.Expiry()),
		})
		h.AuditLog.InvitationSent(ctx, r, actorID, orgID, row.Email, string(row.Role))
		sent++
	}

	h.Log.Info("bulk invitations processed",
		zap.String("org_id", orgID.Hex()),
		zap.Int("sent", sent),
		zap.Int("skipped", skipped))

	http.Redirect(w, r, orgPath, http.StatusSeeOther)
}
