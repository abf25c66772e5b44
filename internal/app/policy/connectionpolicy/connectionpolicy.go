// Package connectionpolicy provides authorization policies for connection
// negotiation.
//
// Authorization rules:
//   - Admins can view and act on every connection, on both sides
//   - The profile owner acts on the user side of their own connections
//   - Org admins of an organization act on the org side of its connections
//   - Everyone else has no access
package connectionpolicy

import (
	"context"
	"errors"
	"net/http"

	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CanActForUser reports whether the current request user may act on the user
// side of a connection belonging to the given profile.
func CanActForUser(r *http.Request, profile models.Profile) bool {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if role == "admin" {
		return true
	}
	return profile.UserID == uid
}

// CanActForOrg reports whether the current request user may act on the org
// side for the given organization. Admins always can; otherwise the user
// must hold the org admin role there. Returns an error only when the
// profile lookup fails, so callers can distinguish "not authorized"
// (false, nil) from "database error" (false, err).
func CanActForOrg(ctx context.Context, profiles *profilestore.Store, r *http.Request, orgID primitive.ObjectID) (bool, error) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false, nil
	}
	if role == "admin" {
		return true, nil
	}

	profile, err := profiles.GetByUserID(ctx, uid)
	if errors.Is(err, profilestore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return profile.AdminsFor(orgID), nil
}

// CanView reports whether the current request user may see a connection and
// its message thread. Either side of the negotiation qualifies.
func CanView(ctx context.Context, profiles *profilestore.Store, r *http.Request, conn models.Connection) (bool, error) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false, nil
	}
	if role == "admin" {
		return true, nil
	}

	profile, err := profiles.GetByUserID(ctx, uid)
	if errors.Is(err, profilestore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if profile.ID == conn.ProfileID {
		return true, nil
	}
	return profile.AdminsFor(conn.OrganizationID), nil
}

// CanDelete reports whether the current request user may delete a connection
// and its thread. Deleting re-opens the pair for a fresh start, so it is
// limited to site admins.
func CanDelete(r *http.Request) bool {
	role, _, _, ok := authz.UserCtx(r)
	return ok && role == "admin"
}
