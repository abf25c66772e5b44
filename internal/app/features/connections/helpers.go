// internal/app/features/connections/helpers.go
package connections

import (
	"context"
	"errors"
	"net/http"

	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	"github.com/dalemusser/mentorhub/internal/app/system/authz"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentProfile returns the signed-in user's profile, creating it on first
// use. Accounts created by an admin have no profile until they first touch
// the connections feature.
func (h *Handler) currentProfile(ctx context.Context, r *http.Request) (models.Profile, error) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return models.Profile{}, profilestore.ErrNotFound
	}

	p, err := h.Profiles.GetByUserID(ctx, uid)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, profilestore.ErrNotFound) {
		return models.Profile{}, err
	}

	p, err = h.Profiles.Create(ctx, uid)
	if errors.Is(err, profilestore.ErrDuplicate) {
		return h.Profiles.GetByUserID(ctx, uid)
	}
	return p, err
}

// profileUserName resolves the display name of the user owning a profile.
func (h *Handler) profileUserName(ctx context.Context, profileID primitive.ObjectID) string {
	p, err := h.Profiles.Get(ctx, profileID)
	if err != nil {
		return "Unknown user"
	}
	u, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		return "Unknown user"
	}
	return u.FullName
}

// orgName resolves an organization's display name.
func (h *Handler) orgName(ctx context.Context, orgID primitive.ObjectID) string {
	org, err := h.Orgs.GetByID(ctx, orgID)
	if err != nil {
		return "Unknown organization"
	}
	return org.Name
}

// parseTrack maps a form value to a track.
func parseTrack(v string) (models.Track, bool) {
	t := models.Track(v)
	return t, t.Valid()
}

// parseOutcome maps a form value to a decision outcome.
func parseOutcome(v string) (models.Decision, bool) {
	switch v {
	case "accept":
		return models.DecisionAccepted, true
	case "reject":
		return models.DecisionRejected, true
	default:
		return "", false
	}
}
