// Package gates provides authorization gate functions for HTTP handlers.
// Gates check authentication and authorization, rendering appropriate error
// pages when checks fail.
//
// Route groups with uniform requirements use middleware
// (auth.RequireSignedIn, auth.RequireRole) in routes.go. Gates are for
// handlers that need a different check than their route group, and they
// return the user context so handlers don't have to fetch it again.
// Resource-specific authorization that needs database lookups lives in
// internal/app/policy.
package gates

import (
	"net/http"

	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result contains the result of an authorization gate check.
type Result struct {
	Role   string
	Name   string
	UserID primitive.ObjectID
	OK     bool
}

// RequireAuth ensures a user is authenticated.
// If not authenticated, it renders an unauthorized error and returns OK=false.
// The loginURL parameter specifies where to redirect for login.
func RequireAuth(w http.ResponseWriter, r *http.Request, loginURL string) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, loginURL)
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

// RequireAdmin ensures the user is authenticated and has the admin role.
// If not authenticated, renders unauthorized error.
// If authenticated but not admin, renders forbidden error with the provided message and fallback URL.
func RequireAdmin(w http.ResponseWriter, r *http.Request, forbiddenMsg, fallbackURL string) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return Result{OK: false}
	}
	if role != "admin" {
		uierrors.RenderForbidden(w, r, forbiddenMsg, fallbackURL)
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

// RequireAnyRole ensures the user is authenticated and has one of the specified roles.
// If not authenticated, renders unauthorized error.
// If authenticated but role not in allowed list, renders forbidden error.
func RequireAnyRole(w http.ResponseWriter, r *http.Request, forbiddenMsg, fallbackURL string, allowedRoles ...string) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return Result{OK: false}
	}

	for _, allowed := range allowedRoles {
		if role == allowed {
			return Result{Role: role, Name: name, UserID: uid, OK: true}
		}
	}

	uierrors.RenderForbidden(w, r, forbiddenMsg, fallbackURL)
	return Result{OK: false}
}
