// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	"github.com/dalemusser/mentorhub/internal/app/system/gates"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const minPasswordLength = 8

// roleRow is one granted role shown on the profile page.
type roleRow struct {
	OrgID   string
	OrgName string
	Role    string
}

// profileData is the view model for the profile page.
type profileData struct {
	viewdata.BaseVM

	FullName string
	Email    string

	Roles []roleRow

	Error   string
	Success string
}

// ServeProfile renders the signed-in user's profile page: account info,
// the roles they currently hold, and the password change form.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	gate := gates.RequireAuth(w, r, "/login")
	if !gate.OK {
		return
	}
	uid := gate.UserID

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		uierrors.RenderNotFound(w, r, "User not found.", "/")
		return
	}

	data := profileData{
		BaseVM:   viewdata.NewBaseVM(r, "Profile", "/"),
		FullName: user.FullName,
		Email:    user.Email,
	}

	roles, err := h.grantedRoles(ctx, uid)
	if err != nil {
		h.Log.Warn("profile: load granted roles", zap.Error(err))
	} else {
		data.Roles = roles
	}

	if r.URL.Query().Get("success") == "password" {
		data.Success = "Password changed successfully."
	}

	templates.Render(w, r, "profile", data)
}

// HandleChangePassword processes the password change form.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	gate := gates.RequireAuth(w, r, "/login")
	if !gate.OK {
		return
	}
	uid := gate.UserID

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/profile")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		uierrors.RenderNotFound(w, r, "User not found.", "/")
		return
	}

	current := r.FormValue("current_password")
	newPass := r.FormValue("new_password")
	confirm := r.FormValue("confirm_password")

	renderWithError := func(msg string) {
		data := profileData{
			BaseVM:   viewdata.NewBaseVM(r, "Profile", "/"),
			FullName: user.FullName,
			Email:    user.Email,
			Error:    msg,
		}
		if roles, err := h.grantedRoles(ctx, uid); err == nil {
			data.Roles = roles
		}
		templates.Render(w, r, "profile", data)
	}

	if !userstore.CheckPassword(user, current) {
		renderWithError("Current password is incorrect.")
		return
	}
	if len(newPass) < minPasswordLength {
		renderWithError("New password must be at least 8 characters.")
		return
	}
	if newPass != confirm {
		renderWithError("New passwords do not match.")
		return
	}
	if newPass == current {
		renderWithError("New password cannot be the same as your current password.")
		return
	}

	if err := h.Users.SetPassword(ctx, uid, newPass); err != nil {
		h.ErrLog.LogServerError(w, r, "update password failed", err, "Failed to update password.", "/profile")
		return
	}

	http.Redirect(w, r, "/profile?success=password", http.StatusSeeOther)
}

// grantedRoles resolves the user's held roles to org names for display.
func (h *Handler) grantedRoles(ctx context.Context, userID primitive.ObjectID) ([]roleRow, error) {
	p, err := h.Profiles.GetByUserID(ctx, userID)
	if err == profilestore.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	orgIDs := make([]primitive.ObjectID, 0, len(p.MentorFor)+len(p.OrgAdminFor))
	orgIDs = append(orgIDs, p.MentorFor...)
	orgIDs = append(orgIDs, p.OrgAdminFor...)
	if len(orgIDs) == 0 {
		return nil, nil
	}

	names, err := h.Orgs.NameMap(ctx, orgIDs)
	if err != nil {
		return nil, err
	}

	rows := make([]roleRow, 0, len(orgIDs))
	for _, id := range p.MentorFor {
		rows = append(rows, roleRow{
			OrgID:   id.Hex(),
			OrgName: names[id],
			Role:    models.TrackMentor.Label(),
		})
	}
	for _, id := range p.OrgAdminFor {
		rows = append(rows, roleRow{
			OrgID:   id.Hex(),
			OrgName: names[id],
			Role:    models.TrackOrgAdmin.Label(),
		})
	}
	return rows, nil
}
