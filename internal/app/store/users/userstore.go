package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/system/normalize"
	"github.com/dalemusser/mentorhub/internal/app/system/status"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost for hashing passwords.
const BcryptCost = 12

var (
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "admin"|"user"`)
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EnsureIndexes creates the unique email index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_user_email").SetUnique(true),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing & validating fields and
// hashing the supplied password.
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.EmailCI = text.Fold(u.Email)
	if u.Role == "" {
		u.Role = "user"
	}
	if u.Status == "" {
		u.Status = status.Active
	}

	switch u.Role {
	case "admin", "user":
		// ok
	default:
		return models.User{}, errBadRole
	}
	if !status.IsValid(u.Status) {
		return models.User{}, errBadStatus
	}

	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
		if err != nil {
			return models.User{}, err
		}
		u.PasswordHash = string(hash)
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// VerifyPassword checks email/password credentials and returns the user on
// success. Disabled accounts fail the check even with a correct password.
func (s *Store) VerifyPassword(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if normalize.Status(u.Status) == status.Disabled {
		return nil, ErrNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// CheckPassword reports whether the plaintext password matches the user's
// stored hash.
func CheckPassword(u *models.User, password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetPassword replaces the user's password hash with one derived from the
// given plaintext.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return err
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password_hash": string(hash),
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus flips an account between active and disabled.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	st = normalize.Status(st)
	if !status.IsValid(st) {
		return errBadStatus
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     st,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// EmailExistsForOther checks if an email already exists for a user other than the given ID.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"email": normalize.Email(email),
		"_id":   bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// Find returns users matching the filter with the given options. Used by the
// paged admin list.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of users matching the filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
