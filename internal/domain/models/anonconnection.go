// internal/domain/models/anonconnection.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnonymousConnection is a placeholder negotiation for an invitee who has no
// account yet. An org admin creates one when inviting an email address; it
// is consumed and deleted exactly once, at registration time, when it is
// replaced by a real Connection whose org-side flag for the offered track is
// pre-set to Accepted.
//
// The invite token is a bearer credential that travels through an email
// link. Only an HMAC digest of it is stored (token_hash); resolving
// re-derives the digest from the presented token rather than looking the
// plain token up.
type AnonymousConnection struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`

	Email string `bson:"email" json:"email"`
	Role  Track  `bson:"role" json:"role"` // track offered to the invitee

	TokenHash string    `bson:"token_hash" json:"-"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Expired reports whether the invitation is past its validity window.
func (a *AnonymousConnection) Expired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}
