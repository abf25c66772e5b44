package connectionstore_test

import (
	"errors"
	"testing"

	anonconnectionstore "github.com/dalemusser/mentorhub/internal/app/store/anonconnections"
	messagestore "github.com/dalemusser/mentorhub/internal/app/store/connectionmessages"
	connectionstore "github.com/dalemusser/mentorhub/internal/app/store/connections"
	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	"github.com/dalemusser/mentorhub/internal/app/system/txn"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) (*connectionstore.Store, *profilestore.Store, *messagestore.Store, *testutil.Fixtures, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	profiles := profilestore.New(db)
	messages := messagestore.New(db)
	store := connectionstore.New(db, profiles, messages)

	ctx, cancel := testutil.TestContext()
	if err := store.EnsureIndexes(ctx); err != nil {
		cancel()
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	return store, profiles, messages, testutil.NewFixtures(t, db), cancel
}

func TestStore_Start(t *testing.T) {
	store, _, messages, f, cancel := setup(t)
	defer cancel()
	ctx, cancel2 := testutil.TestContext()
	defer cancel2()

	user := f.CreateUser(ctx, "Ada Lovelace", "ada@example.com", "user")
	profile := f.CreateProfile(ctx, user.ID)
	org := f.CreateOrganization(ctx, "Example Org")

	conn, err := store.Start(ctx, profile.ID, org.ID, models.ActorUser, models.TrackMentor,
		"I would like to mentor.", user.ID, user.FullName)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if conn.UserMentor != models.DecisionAccepted {
		t.Errorf("user_mentor: got %s, want accepted", conn.UserMentor)
	}
	if got := conn.TrackState(models.TrackMentor); got != models.TrackAwaitingOrg {
		t.Errorf("mentor track state: got %s, want %s", got, models.TrackAwaitingOrg)
	}

	// The note becomes the first message; the state change is recorded after it.
	thread, err := messages.ListForConnection(ctx, conn.ID)
	if err != nil {
		t.Fatalf("ListForConnection failed: %v", err)
	}
	if len(thread) != 2 {
		t.Fatalf("thread length: got %d, want 2", len(thread))
	}
	if thread[0].IsAutoGenerated {
		t.Error("first message should be the user's note")
	}
	if !thread[1].IsAutoGenerated {
		t.Error("second message should be auto-generated")
	}
	if thread[1].AuthorLabel() != models.AutoGeneratedAuthor {
		t.Errorf("auto message author label: got %q", thread[1].AuthorLabel())
	}
}

func TestStore_Start_DuplicatePair(t *testing.T) {
	store, _, _, f, cancel := setup(t)
	defer cancel()
	ctx, cancel2 := testutil.TestContext()
	defer cancel2()

	user := f.CreateUser(ctx, "Ada Lovelace", "ada@example.com", "user")
	profile := f.CreateProfile(ctx, user.ID)
	org := f.CreateOrganization(ctx, "Example Org")

	if _, err := store.Start(ctx, profile.ID, org.ID, models.ActorUser, models.TrackMentor, "", user.ID, user.FullName); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}

	_, err := store.Start(ctx, profile.ID, org.ID, models.ActorOrg, models.TrackOrgAdmin, "", user.ID, user.FullName)
	if !errors.Is(err, connectionstore.ErrConnectionExists) {
		t.Fatalf("second Start: got %v, want ErrConnectionExists", err)
	}

	// A connection with a different organization is fine.
	org2 := f.CreateOrganization(ctx, "Another Org")
	if _, err := store.Start(ctx, profile.ID, org2.ID, models.ActorUser, models.TrackMentor, "", user.ID, user.FullName); err != nil {
		t.Fatalf("Start with second org failed: %v", err)
	}
}

func TestStore_Decide_GrantAssignsRole(t *testing.T) {
	store, profiles, messages, f, cancel := setup(t)
	defer cancel()
	ctx, cancel2 := testutil.TestContext()
	defer cancel2()

	user := f.CreateUser(ctx, "Grace Hopper", "grace@example.com", "user")
	profile := f.CreateProfile(ctx, user.ID)
	org := f.CreateOrganization(ctx, "Example Org")
	conn := f.CreateConnection(ctx, profile.ID, org.ID)

	// Org offers, user accepts: mentor role granted.
	if _, err := store.Decide(ctx, conn.ID, models.TrackMentor, models.ActorOrg, models.DecisionAccepted); err != nil {
		t.Fatalf("org decide failed: %v", err)
	}
	updated, err := store.Decide(ctx, conn.ID, models.TrackMentor, models.ActorUser, models.DecisionAccepted)
	if err != nil {
		t.Fatalf("user decide failed: %v", err)
	}
	if got := updated.TrackState(models.TrackMentor); got != models.TrackGranted {
		t.Errorf("mentor track state: got %s, want %s", got, models.TrackGranted)
	}

	p, err := profiles.Get(ctx, profile.ID)
	if err != nil {
		t.Fatalf("profile Get failed: %v", err)
	}
	if !p.MentorsFor(org.ID) {
		t.Error("mentor role not assigned to profile")
	}
	if p.AdminsFor(org.ID) {
		t.Error("org admin role assigned without an org_admin grant")
	}

	// Each decision produced a system message.
	thread, err := messages.ListForConnection(ctx, conn.ID)
	if err != nil {
		t.Fatalf("ListForConnection failed: %v", err)
	}
	if len(thread) != 2 {
		t.Fatalf("thread length: got %d, want 2", len(thread))
	}
	for _, m := range thread {
		if !m.IsAutoGenerated {
			t.Errorf("expected auto-generated message, got author %q", m.AuthorName)
		}
	}
}

func TestStore_Decide_OrgAdminGrantImpliesMentor(t *testing.T) {
	store, profiles, _, f, cancel := setup(t)
	defer cancel()
	ctx, cancel2 := testutil.TestContext()
	defer cancel2()

	user := f.CreateUser(ctx, "Grace Hopper", "grace@example.com", "user")
	profile := f.CreateProfile(ctx, user.ID)
	org := f.CreateOrganization(ctx, "Example Org")
	conn := f.CreateConnection(ctx, profile.ID, org.ID)

	if _, err := store.Decide(ctx, conn.ID, models.TrackOrgAdmin, models.ActorUser, models.DecisionAccepted); err != nil {
		t.Fatalf("user decide failed: %v", err)
	}
	if _, err := store.Decide(ctx, conn.ID, models.TrackOrgAdmin, models.ActorOrg, models.DecisionAccepted); err != nil {
		t.Fatalf("org decide failed: %v", err)
	}

	p, err := profiles.Get(ctx, profile.ID)
	if err != nil {
		t.Fatalf("profile Get failed: %v", err)
	}
	if !p.AdminsFor(org.ID) {
		t.Error("org admin role not assigned")
	}
	if !p.MentorsFor(org.ID) {
		t.Error("org admin grant did not imply mentor role")
	}

	// The stored connection's mentor track is granted in the same step.
	got, err := store.Get(ctx, conn.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.UserMentor != models.DecisionAccepted {
		t.Errorf("user_mentor: got %s, want accepted", got.UserMentor)
	}
	if got.OrgMentor != models.DecisionAccepted {
		t.Errorf("org_mentor: got %s, want accepted", got.OrgMentor)
	}
	if state := got.TrackState(models.TrackMentor); state != models.TrackGranted {
		t.Errorf("mentor track state: got %s, want %s", state, models.TrackGranted)
	}

	// The mentor track is terminal now; a later rejection must not reopen it.
	_, err = store.Decide(ctx, conn.ID, models.TrackMentor, models.ActorUser, models.DecisionRejected)
	var ite *models.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("mentor decide after grant: got %v, want InvalidTransitionError", err)
	}
}

func TestStore_Decide_SecondDecisionOnSameFlagFails(t *testing.T) {
	store, _, _, f, cancel := setup(t)
	defer cancel()
	ctx, cancel2 := testutil.TestContext()
	defer cancel2()

	user := f.CreateUser(ctx, "Alan Turing", "alan@example.com", "user")
	profile := f.CreateProfile(ctx, user.ID)
	org := f.CreateOrganization(ctx, "Example Org")
	conn := f.CreateConnection(ctx, profile.ID, org.ID)

	if _, err := store.Decide(ctx, conn.ID, models.TrackMentor, models.ActorUser, models.DecisionAccepted); err != nil {
		t.Fatalf("first decide failed: %v", err)
	}

	_, err := store.Decide(ctx, conn.ID, models.TrackMentor, models.ActorUser, models.DecisionRejected)
	var ite *models.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("second decide: got %v, want InvalidTransitionError", err)
	}

	// The stored flag is unchanged.
	got, err := store.Get(ctx, conn.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.UserMentor != models.DecisionAccepted {
		t.Errorf("user_mentor after failed decide: got %s, want accepted", got.UserMentor)
	}
}

func TestStore_Decide_RejectionClosesTrackWithoutRole(t *testing.T) {
	store, profiles, _, f, cancel := setup(t)
	defer cancel()
	ctx, cancel2 := testutil.TestContext()
	defer cancel2()

	user := f.CreateUser(ctx, "Alan Turing", "alan@example.com", "user")
	profile := f.CreateProfile(ctx, user.ID)
	org := f.CreateOrganization(ctx, "Example Org")
	conn := f.CreateConnection(ctx, profile.ID, org.ID)

	if _, err := store.Decide(ctx, conn.ID, models.TrackMentor, models.ActorUser, models.DecisionAccepted); err != nil {
		t.Fatalf("user decide failed: %v", err)
	}
	updated, err := store.Decide(ctx, conn.ID, models.TrackMentor, models.ActorOrg, models.DecisionRejected)
	if err != nil {
		t.Fatalf("org decide failed: %v", err)
	}
	if got := updated.TrackState(models.TrackMentor); got != models.TrackClosed {
		t.Errorf("mentor track state: got %s, want %s", got, models.TrackClosed)
	}

	p, err := profiles.Get(ctx, profile.ID)
	if err != nil {
		t.Fatalf("profile Get failed: %v", err)
	}
	if p.MentorsFor(org.ID) {
		t.Error("mentor role assigned despite rejection")
	}
}

func TestStore_Decide_NotFound(t *testing.T) {
	store, _, _, f, cancel := setup(t)
	defer cancel()
	ctx, cancel2 := testutil.TestContext()
	defer cancel2()

	user := f.CreateUser(ctx, "Nobody", "nobody@example.com", "user")
	missing := f.CreateProfile(ctx, user.ID).ID // no connection has this id
	_, err := store.Decide(ctx, missing, models.TrackMentor, models.ActorUser, models.DecisionAccepted)
	if !errors.Is(err, connectionstore.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestStore_Resign_MentorCascadesAdmin(t *testing.T) {
	store, profiles, _, f, cancel := setup(t)
	defer cancel()
	ctx, cancel2 := testutil.TestContext()
	defer cancel2()

	user := f.CreateUser(ctx, "Grace Hopper", "grace@example.com", "user")
	profile := f.CreateProfile(ctx, user.ID)
	org := f.CreateOrganization(ctx, "Example Org")
	conn := f.CreateConnection(ctx, profile.ID, org.ID)

	if _, err := store.Decide(ctx, conn.ID, models.TrackOrgAdmin, models.ActorUser, models.DecisionAccepted); err != nil {
		t.Fatalf("user decide failed: %v", err)
	}
	if _, err := store.Decide(ctx, conn.ID, models.TrackOrgAdmin, models.ActorOrg, models.DecisionAccepted); err != nil {
		t.Fatalf("org decide failed: %v", err)
	}

	if err := store.Resign(ctx, conn.ID, models.TrackMentor); err != nil {
		t.Fatalf("Resign failed: %v", err)
	}

	p, err := profiles.Get(ctx, profile.ID)
	if err != nil {
		t.Fatalf("profile Get failed: %v", err)
	}
	if p.MentorsFor(org.ID) || p.AdminsFor(org.ID) {
		t.Error("roles survive mentor resignation")
	}
}

func TestStore_MarkSeenAndCountUnseen(t *testing.T) {
	store, _, _, f, cancel := setup(t)
	defer cancel()
	ctx, cancel2 := testutil.TestContext()
	defer cancel2()

	user := f.CreateUser(ctx, "Ada Lovelace", "ada@example.com", "user")
	profile := f.CreateProfile(ctx, user.ID)
	org := f.CreateOrganization(ctx, "Example Org")
	conn := f.CreateConnection(ctx, profile.ID, org.ID)

	// Org acts; the user now has an unseen change.
	if _, err := store.Decide(ctx, conn.ID, models.TrackMentor, models.ActorOrg, models.DecisionAccepted); err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	n, err := store.CountUnseen(ctx, models.ActorUser, profile.ID)
	if err != nil {
		t.Fatalf("CountUnseen failed: %v", err)
	}
	if n != 1 {
		t.Errorf("unseen count: got %d, want 1", n)
	}

	if err := store.MarkSeen(ctx, conn.ID, models.ActorUser); err != nil {
		t.Fatalf("MarkSeen failed: %v", err)
	}
	n, err = store.CountUnseen(ctx, models.ActorUser, profile.ID)
	if err != nil {
		t.Fatalf("CountUnseen failed: %v", err)
	}
	if n != 0 {
		t.Errorf("unseen count after MarkSeen: got %d, want 0", n)
	}
}

func TestStore_Delete_RemovesThread(t *testing.T) {
	store, _, _, f, cancel := setup(t)
	defer cancel()
	ctx, cancel2 := testutil.TestContext()
	defer cancel2()

	user := f.CreateUser(ctx, "Ada Lovelace", "ada@example.com", "user")
	profile := f.CreateProfile(ctx, user.ID)
	org := f.CreateOrganization(ctx, "Example Org")

	conn, err := store.Start(ctx, profile.ID, org.ID, models.ActorUser, models.TrackMentor, "note", user.ID, user.FullName)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := store.Delete(ctx, conn.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.Get(ctx, conn.ID); !errors.Is(err, connectionstore.ErrNotFound) {
		t.Errorf("Get after Delete: got %v, want ErrNotFound", err)
	}

	var doc bson.M
	err = f.DB().Collection("connection_messages").FindOne(ctx, bson.M{"connection_id": conn.ID}).Decode(&doc)
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected thread removed, FindOne returned %v", err)
	}

	// The pair can start over after the deletion.
	if _, err := store.Start(ctx, profile.ID, org.ID, models.ActorUser, models.TrackMentor, "", user.ID, user.FullName); err != nil {
		t.Errorf("Start after Delete failed: %v", err)
	}
}

// transactionsSupported reports whether the test deployment can run
// multi-document transactions (replica set or mongos). Standalone servers
// fall back to non-transactional execution, which some tests cannot use.
func transactionsSupported(t *testing.T, db *mongo.Database) bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sess, err := db.Client().StartSession()
	if err != nil {
		return false
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, db.Collection("connections").FindOne(sc, bson.M{"_id": primitive.NilObjectID}).Err()
	})
	return !txn.IsNotSupported(err)
}

func TestStore_ClaimInvitation_CreatesGrantedConnection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	profiles := profilestore.New(db)
	messages := messagestore.New(db)
	store := connectionstore.New(db, profiles, messages)
	invites := anonconnectionstore.New(db, "test-invite-secret", 0)
	f := testutil.NewFixtures(t, db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	user := f.CreateUser(ctx, "Ida Invitee", "ida@example.com", "user")
	profile := f.CreateProfile(ctx, user.ID)
	org := f.CreateOrganization(ctx, "Inviting Org")

	token, err := invites.Invite(ctx, org.ID, user.Email, models.TrackOrgAdmin)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	conn, invite, err := store.ClaimInvitation(ctx, invites, profile.ID, token)
	if err != nil {
		t.Fatalf("ClaimInvitation failed: %v", err)
	}
	if invite.OrganizationID != org.ID {
		t.Errorf("invite org: got %s, want %s", invite.OrganizationID.Hex(), org.ID.Hex())
	}
	if conn.OrgOrgAdmin != models.DecisionAccepted {
		t.Errorf("org_org_admin: got %s, want accepted", conn.OrgOrgAdmin)
	}
	if got := conn.TrackState(models.TrackOrgAdmin); got != models.TrackAwaitingUser {
		t.Errorf("org_admin track state: got %s, want %s", got, models.TrackAwaitingUser)
	}

	// Single use: the token is consumed with the claim.
	if _, err := invites.Resolve(ctx, token); !errors.Is(err, anonconnectionstore.ErrNotFound) {
		t.Errorf("second Resolve: got %v, want ErrNotFound", err)
	}

	thread, err := messages.ListForConnection(ctx, conn.ID)
	if err != nil {
		t.Fatalf("ListForConnection failed: %v", err)
	}
	if len(thread) != 1 || !thread[0].IsAutoGenerated {
		t.Errorf("thread: got %d messages, want 1 auto-generated", len(thread))
	}
}

func TestStore_ClaimInvitation_FailureKeepsInvitation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	if !transactionsSupported(t, db) {
		t.Skip("multi-document transactions unavailable on this deployment")
	}
	profiles := profilestore.New(db)
	messages := messagestore.New(db)
	store := connectionstore.New(db, profiles, messages)
	invites := anonconnectionstore.New(db, "test-invite-secret", 0)
	f := testutil.NewFixtures(t, db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	user := f.CreateUser(ctx, "Rex Repeat", "rex@example.com", "user")
	profile := f.CreateProfile(ctx, user.ID)
	org := f.CreateOrganization(ctx, "Inviting Org")

	// The pair already has a connection, so the claim must fail.
	f.CreateConnection(ctx, profile.ID, org.ID)

	token, err := invites.Invite(ctx, org.ID, user.Email, models.TrackMentor)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	_, _, err = store.ClaimInvitation(ctx, invites, profile.ID, token)
	if !errors.Is(err, connectionstore.ErrConnectionExists) {
		t.Fatalf("ClaimInvitation: got %v, want ErrConnectionExists", err)
	}

	// The failed claim rolled back: the invitation is still claimable.
	invite, err := invites.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve after failed claim: got %v, want the invitation back", err)
	}
	if invite.OrganizationID != org.ID {
		t.Errorf("invite org: got %s, want %s", invite.OrganizationID.Hex(), org.ID.Hex())
	}
}
