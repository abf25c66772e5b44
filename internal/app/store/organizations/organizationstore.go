// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/system/status"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound              = errors.New("organization not found")
	ErrDuplicateOrganization = errors.New("an organization with this name already exists")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organizations")}
}

// EnsureIndexes creates the organization indexes. Name uniqueness is
// case-insensitive via the folded name_ci field.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_org_name_ci"),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "name_ci", Value: 1},
			},
			Options: options.Index().SetName("idx_org_status_name"),
		},
	})
	return err
}

func (s *Store) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	now := time.Now().UTC()
	org.ID = primitive.NewObjectID()
	org.NameCI = text.Fold(org.Name)
	if org.Status == "" {
		org.Status = status.Active
	}
	org.CreatedAt = now
	org.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, org)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Organization{}, ErrDuplicateOrganization
		}
		return models.Organization{}, err
	}
	return org, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error) {
	var org models.Organization
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	if err == mongo.ErrNoDocuments {
		return models.Organization{}, ErrNotFound
	}
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// GetByIDs loads multiple organizations by their ObjectIDs.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Organization, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var orgs []models.Organization
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// NameMap returns a lookup of organization name by ID for rendering
// connection lists without an N+1 fetch.
func (s *Store) NameMap(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	orgs, err := s.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]string, len(orgs))
	for _, o := range orgs {
		out[o.ID] = o.Name
	}
	return out, nil
}

// Update modifies an organization's mutable fields and refreshes UpdatedAt.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, org models.Organization) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}
	if org.Name != "" {
		set["name"] = org.Name
		set["name_ci"] = text.Fold(org.Name)
	}
	if org.Description != "" {
		set["description"] = org.Description
	}
	if org.Homepage != "" {
		set["homepage"] = org.Homepage
	}
	if org.ContactInfo != "" {
		set["contact_info"] = org.ContactInfo
	}
	if org.Status != "" {
		set["status"] = org.Status
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateOrganization
		}
		return err
	}
	return nil
}

// Delete removes an organization by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ExistsByNameCI checks if an organization with the given case-insensitive name exists.
func (s *Store) ExistsByNameCI(ctx context.Context, nameCI string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"name_ci": nameCI}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListActive returns active organizations sorted by folded name.
func (s *Store) ListActive(ctx context.Context) ([]models.Organization, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	return s.Find(ctx, bson.M{"status": status.Active}, opts)
}

// Find returns organizations matching the given filter with optional find options.
// The caller is responsible for building the filter and options (pagination, sorting, projection).
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Organization, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var orgs []models.Organization
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// Count returns the number of organizations matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
