// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/normalize"
	"github.com/dalemusser/mentorhub/internal/app/system/ratelimit"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
}

func NewHandler(
	users *userstore.Store,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:      users,
		Log:        logger,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   audit,
		Limiter:    limiter,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error     string
	Email     string
	ReturnURL string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	ret := query.Get(r, "return")

	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Login", "/"),
		ReturnURL: ret,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		h.renderFormWithError(w, r, "Please enter your email and password.", email)
		return
	}

	if h.Limiter != nil {
		if allowed, reason := h.Limiter.Check(r, email); !allowed {
			h.Log.Warn("login rate limited",
				zap.String("ip", ratelimit.ClientIP(r)))
			h.renderFormWithError(w, r, reason, email)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		h.renderFormWithError(w, r, "Incorrect email or password.", email)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB find user", err, "A server error occurred.", "/login")
		return
	}

	if normalize.Status(u.Status) == "disabled" {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, u.Email)
		h.renderFormWithError(
			w,
			r,
			"Your account is currently disabled. Please contact an administrator.",
			email,
		)
		return
	}

	if !userstore.CheckPassword(u, password) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, u.Email)
		h.renderFormWithError(w, r, "Incorrect email or password.", email)
		return
	}

	sessUser := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  normalize.Role(u.Role),
	}
	if err := h.SessionMgr.SignIn(w, r, sessUser); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("email", u.Email))
		h.renderFormWithError(w, r, "Unable to create session. Please try again.", email)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}

	h.AuditLog.LoginSuccess(r.Context(), r, u.ID, u.Email)

	ret := strings.TrimSpace(r.FormValue("return"))
	dest := urlutil.SafeReturn(ret, "", "/connections")
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| helper: render the form with an error                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, email string) {
	// From POST, "return" will be in the form; from GET, we might rely on the query.
	ret := strings.TrimSpace(r.FormValue("return"))
	if ret == "" {
		ret = query.Get(r, "return")
	}

	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Login", "/"),
		Error:     msg,
		Email:     email,
		ReturnURL: ret,
	})
}
