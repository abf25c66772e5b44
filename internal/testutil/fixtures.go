package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateOrganization creates a test organization with the given name.
// Returns the created organization with its generated ID.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org := models.Organization{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "Test organization description",
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("organizations").InsertOne(ctx, org); err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}

// CreateUser creates a test user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		EmailCI:    text.Fold(email),
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateAdmin creates a test admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "admin")
}

// CreateProfile creates a program profile for the given user.
func (f *Fixtures) CreateProfile(ctx context.Context, userID primitive.ObjectID) models.Profile {
	f.t.Helper()

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

	if _, err := f.db.Collection("profiles").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

// CreateConnection inserts a connection between a profile and an
// organization with all four flags still pending.
func (f *Fixtures) CreateConnection(ctx context.Context, profileID, orgID primitive.ObjectID) models.Connection {
	f.t.Helper()

	conn := models.NewConnection(profileID, orgID)
	conn.ID = primitive.NewObjectID()

	if _, err := f.db.Collection("connections").InsertOne(ctx, conn); err != nil {
		f.t.Fatalf("failed to create test connection: %v", err)
	}
	return conn
}

// CreateMessage inserts a user-authored message into a connection's thread
// with the given creation time, so ordering tests can control timestamps.
func (f *Fixtures) CreateMessage(ctx context.Context, connectionID, authorID primitive.ObjectID, content string, created time.Time) models.ConnectionMessage {
	f.t.Helper()

	m := models.ConnectionMessage{
		ID:           primitive.NewObjectID(),
		ConnectionID: connectionID,
		AuthorID:     &authorID,
		AuthorName:   "Test Author",
		Content:      content,
		Created:      created,
	}

	if _, err := f.db.Collection("connection_messages").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test message: %v", err)
	}
	return m
}
