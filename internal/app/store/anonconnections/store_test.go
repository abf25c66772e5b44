package anonconnectionstore_test

import (
	"errors"
	"testing"
	"time"

	anonconnectionstore "github.com/dalemusser/mentorhub/internal/app/store/anonconnections"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

const testSecret = "test-invite-secret-32-chars-long!"

func TestStore_InviteAndResolve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := anonconnectionstore.New(db, testSecret, 0)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	org := f.CreateOrganization(ctx, "Example Org")

	token, err := store.Invite(ctx, org.ID, "invitee@example.com", models.TrackMentor)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	// The plain token must not appear in the stored document.
	var doc bson.M
	if err := db.Collection("anonymous_connections").FindOne(ctx, bson.M{}).Decode(&doc); err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if hash, _ := doc["token_hash"].(string); hash == "" || hash == token {
		t.Errorf("token_hash: got %q, want a digest different from the token", hash)
	}

	a, err := store.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if a.OrganizationID != org.ID || a.Email != "invitee@example.com" || a.Role != models.TrackMentor {
		t.Errorf("resolved invitation wrong: %+v", a)
	}
}

func TestStore_Resolve_SingleUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := anonconnectionstore.New(db, testSecret, 0)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := f.CreateOrganization(ctx, "Example Org")
	token, err := store.Invite(ctx, org.ID, "invitee@example.com", models.TrackOrgAdmin)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	if _, err := store.Resolve(ctx, token); err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	if _, err := store.Resolve(ctx, token); !errors.Is(err, anonconnectionstore.ErrNotFound) {
		t.Fatalf("second Resolve: got %v, want ErrNotFound", err)
	}
}

func TestStore_Resolve_WrongToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := anonconnectionstore.New(db, testSecret, 0)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := f.CreateOrganization(ctx, "Example Org")
	if _, err := store.Invite(ctx, org.ID, "invitee@example.com", models.TrackMentor); err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	if _, err := store.Resolve(ctx, "not-the-token"); !errors.Is(err, anonconnectionstore.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestStore_Resolve_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	// Expiry in the past relative to resolution.
	store := anonconnectionstore.New(db, testSecret, time.Nanosecond)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := f.CreateOrganization(ctx, "Example Org")
	token, err := store.Invite(ctx, org.ID, "invitee@example.com", models.TrackMentor)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if _, err := store.Resolve(ctx, token); !errors.Is(err, anonconnectionstore.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestStore_Invite_DuplicateEmailForOrg(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := anonconnectionstore.New(db, testSecret, 0)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	org := f.CreateOrganization(ctx, "Example Org")
	if _, err := store.Invite(ctx, org.ID, "invitee@example.com", models.TrackMentor); err != nil {
		t.Fatalf("first Invite failed: %v", err)
	}
	_, err := store.Invite(ctx, org.ID, "invitee@example.com", models.TrackOrgAdmin)
	if !errors.Is(err, anonconnectionstore.ErrDuplicateInvite) {
		t.Fatalf("second Invite: got %v, want ErrDuplicateInvite", err)
	}

	// The same email may hold invitations from different organizations.
	org2 := f.CreateOrganization(ctx, "Another Org")
	if _, err := store.Invite(ctx, org2.ID, "invitee@example.com", models.TrackMentor); err != nil {
		t.Fatalf("Invite from second org failed: %v", err)
	}
}

func TestStore_Revoke(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := anonconnectionstore.New(db, testSecret, 0)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := f.CreateOrganization(ctx, "Example Org")
	token, err := store.Invite(ctx, org.ID, "invitee@example.com", models.TrackMentor)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	invites, err := store.ListForOrganization(ctx, org.ID)
	if err != nil {
		t.Fatalf("ListForOrganization failed: %v", err)
	}
	if len(invites) != 1 {
		t.Fatalf("invites: got %d, want 1", len(invites))
	}

	if err := store.Revoke(ctx, invites[0].ID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := store.Resolve(ctx, token); !errors.Is(err, anonconnectionstore.ErrNotFound) {
		t.Fatalf("Resolve after Revoke: got %v, want ErrNotFound", err)
	}
}
