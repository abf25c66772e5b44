// internal/app/features/users/new.go
package users

import (
	"context"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/mentorhub/internal/app/system/formutil"
	"github.com/dalemusser/mentorhub/internal/app/system/inputval"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// newUserInput defines validation rules for the admin "New User" form.
type newUserInput struct {
	FullName string `validate:"required,max=120" label:"Full name"`
	Email    string `validate:"required,max=254,email" label:"Email"`
}

const minPasswordLength = 8

// ServeNew renders the "New User" form.
// Authorization: RequireRole("admin") middleware in routes.go.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	data := newData{UserRole: "user"}
	formutil.SetBase(&data.Base, r, "New User", "/users")
	templates.Render(w, r, "user_new", data)
}

// HandleCreate processes the New User form submission. The account is
// created active with the given password; the user can change it later.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/users")
		return
	}

	fullName := strings.TrimSpace(r.FormValue("full_name"))
	email := strings.TrimSpace(r.FormValue("email"))
	userRole := strings.TrimSpace(r.FormValue("role"))
	password := r.FormValue("password")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	renderWithError := func(msg string) {
		data := newData{FullName: fullName, Email: email, UserRole: userRole}
		formutil.SetBase(&data.Base, r, "New User", "/users")
		data.SetError(msg)
		templates.Render(w, r, "user_new", data)
	}

	input := newUserInput{FullName: fullName, Email: email}
	if result := inputval.Validate(input); result.HasErrors() {
		renderWithError(result.First())
		return
	}
	if userRole != "admin" && userRole != "user" {
		renderWithError("Please choose a valid role.")
		return
	}
	if len(password) < minPasswordLength {
		renderWithError("The password must be at least 8 characters long.")
		return
	}

	u, err := h.Users.Create(ctx, models.User{
		FullName: fullName,
		Email:    email,
		Role:     userRole,
	}, password)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		renderWithError("A user with that email address already exists.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create user", err, "Database error while creating the user.", "/users")
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.UserCreated(ctx, r, actorID, u.ID, u.Email)

	http.Redirect(w, r, "/users/"+u.ID.Hex()+"/view", http.StatusSeeOther)
}
