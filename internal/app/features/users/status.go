// internal/app/features/users/status.go
package users

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/mentorhub/internal/app/system/status"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleSetStatus enables or disables an account. The form carries
// status=active|disabled. Admins cannot disable themselves.
// Authorization: RequireRole("admin") middleware in routes.go.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "User not found.", "/users")
		return
	}
	userPath := "/users/" + userID.Hex() + "/view"

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/users")
		return
	}

	st := strings.TrimSpace(r.FormValue("status"))
	if st != status.Active && st != status.Disabled {
		uierrors.RenderBadRequest(w, r, "Invalid status.", userPath)
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	if actorID == userID && st == status.Disabled {
		uierrors.RenderBadRequest(w, r, "You cannot disable your own account.", userPath)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.SetStatus(ctx, userID, st); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			uierrors.RenderNotFound(w, r, "User not found.", "/users")
			return
		}
		h.ErrLog.LogServerError(w, r, "set user status", err, "Database error while updating the user.", userPath)
		return
	}

	h.AuditLog.UserStatusChanged(ctx, r, actorID, userID, st == status.Disabled)

	http.Redirect(w, r, userPath, http.StatusSeeOther)
}
