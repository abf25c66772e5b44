// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
	}
}

// ServeLogout handles GET /logout.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.Logout(r.Context(), r, u.ID)
	}

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: clear session", zap.Error(err))
	}

	// HTMX handling: use HX-Redirect to force a client-side navigation to "/".
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}

	// Non-HTMX: standard redirect home.
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
