// internal/app/store/anonconnections/store.go
package anonconnectionstore

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// TokenLength is the length of the invite token in bytes (32 bytes =
	// 64 hex chars).
	TokenLength = 32
	// DefaultExpiry is how long an invitation stays claimable.
	DefaultExpiry = 7 * 24 * time.Hour
)

var (
	// ErrNotFound is returned when no claimable invitation matches the
	// presented token: unknown, expired, or already consumed.
	ErrNotFound = errors.New("invitation not found or expired")
	// ErrDuplicateInvite is returned when the organization already has a
	// live invitation for the email address.
	ErrDuplicateInvite = errors.New("an invitation for this email address already exists")
)

// Store manages email invitations to join an organization in a given role.
// The plain token travels only in the invitation email; the database holds
// an HMAC digest of it, so a leaked collection cannot be used to claim
// invitations. Consuming an invitation deletes it atomically, making each
// token single use.
type Store struct {
	c      *mongo.Collection
	secret []byte
	expiry time.Duration
}

// New creates a Store. secret keys the token digests and must be stable
// across restarts; expiry <= 0 selects DefaultExpiry.
func New(db *mongo.Database, secret string, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{
		c:      db.Collection("anonymous_connections"),
		secret: []byte(secret),
		expiry: expiry,
	}
}

// Expiry returns how long new invitations stay claimable.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// EnsureIndexes creates the token lookup index, the one-live-invite-per-
// (org, email) guard, and the TTL index that reaps expired invitations.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetName("idx_anonconn_token_hash").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "organization_id", Value: 1},
				{Key: "email", Value: 1},
			},
			Options: options.Index().SetName("idx_anonconn_org_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_anonconn_expires_ttl").SetExpireAfterSeconds(0),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Invite records an invitation for email to take the given role at the
// organization and returns the plain token to embed in the invitation link.
// The token is never stored.
func (s *Store) Invite(ctx context.Context, orgID primitive.ObjectID, email string, role models.Track) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", role)
	}

	token := generateToken()
	now := time.Now().UTC()

	a := models.AnonymousConnection{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		Email:          email,
		Role:           role,
		TokenHash:      s.digest(token),
		ExpiresAt:      now.Add(s.expiry),
		CreatedAt:      now,
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return "", ErrDuplicateInvite
		}
		return "", err
	}
	return token, nil
}

// Resolve consumes the invitation matching token. The digest is re-derived
// from the presented token; a match that is not yet expired is deleted and
// returned in one atomic step, so a second Resolve with the same token gets
// ErrNotFound no matter how the calls interleave.
func (s *Store) Resolve(ctx context.Context, token string) (models.AnonymousConnection, error) {
	var a models.AnonymousConnection
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"token_hash": s.digest(token),
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return models.AnonymousConnection{}, ErrNotFound
	}
	if err != nil {
		return models.AnonymousConnection{}, err
	}
	return a, nil
}

// ListForOrganization returns an organization's outstanding invitations,
// newest first.
func (s *Store) ListForOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.AnonymousConnection, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AnonymousConnection
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PurgeExpired deletes invitations past their expiry. The TTL index
// normally handles this; the call backstops deployments where TTL
// sweeps lag behind.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lte": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Revoke withdraws an invitation before it is claimed.
func (s *Store) Revoke(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) digest(token string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// generateToken returns a random invite token.
// Panics if the system's cryptographic random number generator fails.
func generateToken() string {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
