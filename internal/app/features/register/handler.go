// internal/app/features/register/handler.go
package register

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	anonconnectionstore "github.com/dalemusser/mentorhub/internal/app/store/anonconnections"
	connectionstore "github.com/dalemusser/mentorhub/internal/app/store/connections"
	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/inputval"
	"github.com/dalemusser/mentorhub/internal/app/system/mailer"
	"github.com/dalemusser/mentorhub/internal/app/system/notify"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

const minPasswordLength = 8

type Handler struct {
	Users       *userstore.Store
	Profiles    *profilestore.Store
	Connections *connectionstore.Store
	Invites     *anonconnectionstore.Store
	Notify      *notify.Notifier
	SessionMgr  *auth.SessionManager
	ErrLog      *uierrors.ErrorLogger
	AuditLog    *auditlog.Logger
	BaseURL     string
	Log         *zap.Logger
}

func NewHandler(
	users *userstore.Store,
	profiles *profilestore.Store,
	connections *connectionstore.Store,
	invites *anonconnectionstore.Store,
	notifier *notify.Notifier,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:       users,
		Profiles:    profiles,
		Connections: connections,
		Invites:     invites,
		Notify:      notifier,
		SessionMgr:  sessionMgr,
		ErrLog:      errLog,
		AuditLog:    audit,
		BaseURL:     baseURL,
		Log:         logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type registerFormData struct {
	viewdata.BaseVM
	Error    string
	FullName string
	Email    string
	Token    string
}

type registerForm struct {
	FullName string `validate:"required,max=120" label:"Full name"`
	Email    string `validate:"required,max=254,email" label:"Email"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /register                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRegister shows the registration form. A token query parameter carries
// an invitation; the form posts it back so the claim happens on submit.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "register", registerFormData{
		BaseVM: viewdata.NewBaseVM(r, "Create Account", "/"),
		Token:  query.Get(r, "token"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /register                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRegisterPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/register")
		return
	}

	form := registerForm{
		FullName: strings.TrimSpace(r.FormValue("full_name")),
		Email:    strings.TrimSpace(r.FormValue("email")),
	}
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")
	token := strings.TrimSpace(r.FormValue("token"))

	if result := inputval.Validate(form); result.HasErrors() {
		h.renderFormWithError(w, r, result.First(), form, token)
		return
	}
	if len(password) < minPasswordLength {
		h.renderFormWithError(w, r, "Password must be at least 8 characters.", form, token)
		return
	}
	if password != confirm {
		h.renderFormWithError(w, r, "Passwords do not match.", form, token)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		FullName: form.FullName,
		Email:    form.Email,
		Role:     "user",
		Status:   "active",
	}, password)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		h.renderFormWithError(w, r, "An account with this email already exists.", form, token)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create user", err, "A server error occurred.", "/register")
		return
	}

	profile, err := h.Profiles.Create(ctx, u.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create profile", err, "A server error occurred.", "/register")
		return
	}

	h.AuditLog.UserRegistered(ctx, r, u.ID, u.Email)

	// An invitation token turns registration into a claim: the organization
	// side of the connection is recorded as already accepted.
	if token != "" {
		h.claimInvitation(ctx, r, token, u, profile)
	}

	h.Notify.SendWelcome(u.Email, mailer.WelcomeEmailData{
		SiteName: viewdata.SiteName(),
		FullName: u.FullName,
		LoginURL: h.BaseURL + "/login",
	})

	sessUser := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}
	if err := h.SessionMgr.SignIn(w, r, sessUser); err != nil {
		h.Log.Error("sign in after registration", zap.Error(err), zap.String("email", u.Email))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/connections", http.StatusSeeOther)
}

// claimInvitation consumes the invite token and starts the pre-accepted
// connection, in one transaction so a failed claim leaves the invitation
// intact. Failures are logged but never block registration; the account is
// already created at this point.
func (h *Handler) claimInvitation(ctx context.Context, r *http.Request, token string, u models.User, profile models.Profile) {
	_, invite, err := h.Connections.ClaimInvitation(ctx, h.Invites, profile.ID, token)
	if errors.Is(err, anonconnectionstore.ErrNotFound) {
		h.Log.Warn("registration with unusable invite token", zap.String("email", u.Email))
		return
	}
	if err != nil {
		h.Log.Error("claim invitation", zap.Error(err))
		return
	}

	h.AuditLog.InvitationClaimed(ctx, r, u.ID, invite.OrganizationID, string(invite.Role))
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg string, form registerForm, token string) {
	templates.Render(w, r, "register", registerFormData{
		BaseVM:   viewdata.NewBaseVM(r, "Create Account", "/"),
		Error:    msg,
		FullName: form.FullName,
		Email:    form.Email,
		Token:    token,
	})
}
