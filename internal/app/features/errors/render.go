// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/templates"
	nav "github.com/dalemusser/waffle/pantry/httpnav"
)

// RenderUnauthorized shows a friendly "sign in required" page.
// If backURL is empty, it will default to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	u, signed := auth.CurrentUser(r)
	role, name := "", ""
	if signed && u != nil {
		role, name = u.Role, u.Name
	}
	if backURL == "" {
		backURL = "/login"
	}

	data := pageData{
		Title:      "Sign in required",
		IsLoggedIn: signed,
		Role:       role,
		UserName:   name,
		Message:    "Please sign in to continue.",
		BackURL:    backURL,
	}

	templates.Render(w, r, "error_forbidden", data)
}

// RenderForbidden shows a friendly access error page with a message.
// If backURL is empty, it resolves a safe back URL with a default fallback.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	u, signed := auth.CurrentUser(r)
	role, name := "", ""
	if signed && u != nil {
		role, name = u.Role, u.Name
	}
	if backURL == "" {
		backURL = nav.ResolveBackURL(r, "/")
	}

	data := pageData{
		Title:      "Access denied",
		IsLoggedIn: signed,
		Role:       role,
		UserName:   name,
		Message:    msg,
		BackURL:    backURL,
	}

	templates.Render(w, r, "error_forbidden", data)
}

// RenderNotFound shows a "not found" page with a message and back link.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	u, signed := auth.CurrentUser(r)
	role, name := "", ""
	if signed && u != nil {
		role, name = u.Role, u.Name
	}
	if backURL == "" {
		backURL = nav.ResolveBackURL(r, "/")
	}
	if msg == "" {
		msg = "The page you were looking for could not be found."
	}

	w.WriteHeader(http.StatusNotFound)
	data := pageData{
		Title:      "Not found",
		IsLoggedIn: signed,
		Role:       role,
		UserName:   name,
		Message:    msg,
		BackURL:    backURL,
	}

	templates.Render(w, r, "error_notfound", data)
}

// RenderBadRequest shows a failure page for malformed input with a 400 status.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, userMsg, backURL string) {
	u, signed := auth.CurrentUser(r)
	role, name := "", ""
	if signed && u != nil {
		role, name = u.Role, u.Name
	}
	if backURL == "" {
		backURL = nav.ResolveBackURL(r, "/")
	}
	if userMsg == "" {
		userMsg = "The request could not be understood."
	}

	w.WriteHeader(http.StatusBadRequest)
	data := pageData{
		Title:      "Invalid request",
		IsLoggedIn: signed,
		Role:       role,
		UserName:   name,
		Message:    userMsg,
		BackURL:    backURL,
	}

	templates.Render(w, r, "error_server", data)
}

// RenderServerError shows a generic failure page. The underlying error is
// logged by the caller (see ErrorLogger); only userMsg reaches the browser.
func RenderServerError(w http.ResponseWriter, r *http.Request, userMsg, backURL string) {
	u, signed := auth.CurrentUser(r)
	role, name := "", ""
	if signed && u != nil {
		role, name = u.Role, u.Name
	}
	if backURL == "" {
		backURL = nav.ResolveBackURL(r, "/")
	}
	if userMsg == "" {
		userMsg = "Something went wrong. Please try again."
	}

	w.WriteHeader(http.StatusInternalServerError)
	data := pageData{
		Title:      "Something went wrong",
		IsLoggedIn: signed,
		Role:       role,
		UserName:   name,
		Message:    userMsg,
		BackURL:    backURL,
	}

	templates.Render(w, r, "error_server", data)
}
