// internal/app/store/profiles/profilestore.go
package profilestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("profile not found")
	ErrDuplicate = errors.New("profile already exists for this user")
)

// Store persists program profiles, the authoritative record of which
// organizations a user mentors for or administers. Role mutations load the
// document, apply the in-memory role rules, and write the whole role state
// back; callers that need atomicity with other writes run them inside
// txn.WithTransaction, which threads the session through ctx.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

// EnsureIndexes creates the one-profile-per-user guard and the role lookup
// indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_profile_user").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "mentor_for", Value: 1}},
			Options: options.Index().SetName("idx_profile_mentor_for"),
		},
		{
			Keys:    bson.D{{Key: "org_admin_for", Value: 1}},
			Options: options.Index().SetName("idx_profile_admin_for"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a profile for userID. Each user has at most one profile,
// enforced by a unique index on user_id.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID) (models.Profile, error) {
	now := time.Now().UTC()
	p := models.Profile{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		MentorFor:   []primitive.ObjectID{},
		OrgAdminFor: []primitive.ObjectID{},
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Profile{}, ErrDuplicate
		}
		return models.Profile{}, err
	}
	return p, nil
}

// Get returns the profile with the given id.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (models.Profile, error) {
	var p models.Profile
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return models.Profile{}, ErrNotFound
	}
	return p, err
}

// GetByUserID returns the profile owned by userID.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.Profile, error) {
	var p models.Profile
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return models.Profile{}, ErrNotFound
	}
	return p, err
}

// AssignRole grants the role for the given track to the profile. Granting
// org admin escalates through mentor first, so the mentor list always
// contains the admin list.
func (s *Store) AssignRole(ctx context.Context, profileID, orgID primitive.ObjectID, track models.Track) error {
	return s.mutate(ctx, profileID, func(p *models.Profile) {
		if track == models.TrackOrgAdmin {
			p.AssignOrgAdmin(orgID)
		} else {
			p.AssignMentor(orgID)
		}
	})
}

// RemoveRole revokes the role for the given track. Removing mentor cascades
// to org admin for the same organization; removing org admin keeps mentor.
func (s *Store) RemoveRole(ctx context.Context, profileID, orgID primitive.ObjectID, track models.Track) error {
	return s.mutate(ctx, profileID, func(p *models.Profile) {
		if track == models.TrackOrgAdmin {
			p.RemoveOrgAdmin(orgID)
		} else {
			p.RemoveMentor(orgID)
		}
	})
}

// mutate applies fn to the loaded profile and writes the role fields back.
func (s *Store) mutate(ctx context.Context, profileID primitive.ObjectID, fn func(*models.Profile)) error {
	p, err := s.Get(ctx, profileID)
	if err != nil {
		return err
	}

	fn(&p)
	p.UpdatedAt = time.Now().UTC()

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": profileID}, bson.M{"$set": bson.M{
		"mentor_for":    p.MentorFor,
		"org_admin_for": p.OrgAdminFor,
		"is_mentor":     p.IsMentor,
		"is_org_admin":  p.IsOrgAdmin,
		"updated_at":    p.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMentorsForOrg returns the active profiles holding a mentor role for
// the organization.
func (s *Store) ListMentorsForOrg(ctx context.Context, orgID primitive.ObjectID) ([]models.Profile, error) {
	return s.list(ctx, bson.M{"mentor_for": orgID, "status": "active"})
}

// ListAdminsForOrg returns the active profiles holding an org-admin role for
// the organization.
func (s *Store) ListAdminsForOrg(ctx context.Context, orgID primitive.ObjectID) ([]models.Profile, error) {
	return s.list(ctx, bson.M{"org_admin_for": orgID, "status": "active"})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Profile, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Profile
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
