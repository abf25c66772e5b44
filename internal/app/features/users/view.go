// internal/app/features/users/view.go
package users

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/mentorhub/internal/app/system/normalize"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const auditTrailLimit = 50

// ServeView handles GET /users/{id}/view: the account detail page with its
// recent audit trail.
// Authorization: RequireRole("admin") middleware in routes.go.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "User not found.", "/users")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "User not found.", "/users")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user", err, "Unable to load the user.", "/users")
		return
	}

	events, err := h.Audits.GetByUser(ctx, userID, auditTrailLimit)
	if err != nil {
		h.Log.Warn("load audit trail", zap.String("user_id", userID.Hex()), zap.Error(err))
	}
	trail := make([]auditRow, 0, len(events))
	for _, e := range events {
		trail = append(trail, auditRow{
			Event:   e.EventType,
			When:    e.Timestamp,
			IP:      e.IP,
			Details: e.FailureReason,
		})
	}

	_, _, actorID, _ := authz.UserCtx(r)

	templates.Render(w, r, "user_view", viewData{
		BaseVM:      viewdata.NewBaseVM(r, u.FullName, "/users"),
		ID:          u.ID.Hex(),
		FullName:    u.FullName,
		Email:       u.Email,
		UserRole:    normalize.Role(u.Role),
		Status:      normalize.Status(u.Status),
		IsSelf:      actorID == u.ID,
		AuditEvents: trail,
	})
}
