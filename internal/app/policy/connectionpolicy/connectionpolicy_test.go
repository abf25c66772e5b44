package connectionpolicy_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/mentorhub/internal/app/policy/connectionpolicy"
	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanActForUser(t *testing.T) {
	ownerID := primitive.NewObjectID()
	profile := models.Profile{
		ID:     primitive.NewObjectID(),
		UserID: ownerID,
	}

	t.Run("owner", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/connections", nil)
		req = auth.WithTestUser(req, &auth.SessionUser{ID: ownerID.Hex(), Role: "user"})
		if !connectionpolicy.CanActForUser(req, profile) {
			t.Error("expected profile owner to act on user side")
		}
	})

	t.Run("admin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/connections", nil)
		req = auth.WithTestUser(req, &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: "admin"})
		if !connectionpolicy.CanActForUser(req, profile) {
			t.Error("expected admin to act on user side")
		}
	})

	t.Run("other user", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/connections", nil)
		req = auth.WithTestUser(req, &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: "user"})
		if connectionpolicy.CanActForUser(req, profile) {
			t.Error("expected stranger to be denied")
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/connections", nil)
		if connectionpolicy.CanActForUser(req, profile) {
			t.Error("expected anonymous to be denied")
		}
	})
}

func TestCanActForOrg(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	profiles := profilestore.New(db)
	orgID := primitive.NewObjectID()
	otherOrgID := primitive.NewObjectID()

	adminUserID := primitive.NewObjectID()
	profile, err := profiles.Create(ctx, adminUserID)
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if err := profiles.AssignRole(ctx, profile.ID, orgID, models.TrackOrgAdmin); err != nil {
		t.Fatalf("assign role: %v", err)
	}

	t.Run("org admin of the org", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/connections", nil)
		req = auth.WithTestUser(req, &auth.SessionUser{ID: adminUserID.Hex(), Role: "user"})
		ok, err := connectionpolicy.CanActForOrg(ctx, profiles, req, orgID)
		if err != nil {
			t.Fatalf("CanActForOrg: %v", err)
		}
		if !ok {
			t.Error("expected org admin to act for org")
		}
	})

	t.Run("org admin of a different org", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/connections", nil)
		req = auth.WithTestUser(req, &auth.SessionUser{ID: adminUserID.Hex(), Role: "user"})
		ok, err := connectionpolicy.CanActForOrg(ctx, profiles, req, otherOrgID)
		if err != nil {
			t.Fatalf("CanActForOrg: %v", err)
		}
		if ok {
			t.Error("expected denial for unrelated org")
		}
	})

	t.Run("site admin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/connections", nil)
		req = auth.WithTestUser(req, &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: "admin"})
		ok, err := connectionpolicy.CanActForOrg(ctx, profiles, req, otherOrgID)
		if err != nil {
			t.Fatalf("CanActForOrg: %v", err)
		}
		if !ok {
			t.Error("expected site admin to act for any org")
		}
	})

	t.Run("user without profile", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/connections", nil)
		req = auth.WithTestUser(req, &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: "user"})
		ok, err := connectionpolicy.CanActForOrg(ctx, profiles, req, orgID)
		if err != nil {
			t.Fatalf("CanActForOrg: %v", err)
		}
		if ok {
			t.Error("expected denial for user without profile")
		}
	})
}

func TestCanView(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	profiles := profilestore.New(db)
	orgID := primitive.NewObjectID()

	ownerID := primitive.NewObjectID()
	ownerProfile, err := profiles.Create(ctx, ownerID)
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}

	conn := models.Connection{
		ID:             primitive.NewObjectID(),
		ProfileID:      ownerProfile.ID,
		OrganizationID: orgID,
	}

	t.Run("profile owner", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/connections", nil)
		req = auth.WithTestUser(req, &auth.SessionUser{ID: ownerID.Hex(), Role: "user"})
		ok, err := connectionpolicy.CanView(ctx, profiles, req, conn)
		if err != nil {
			t.Fatalf("CanView: %v", err)
		}
		if !ok {
			t.Error("expected owner to view the connection")
		}
	})

	t.Run("unrelated user", func(t *testing.T) {
		strangerID := primitive.NewObjectID()
		if _, err := profiles.Create(ctx, strangerID); err != nil {
			t.Fatalf("create profile: %v", err)
		}
		req := httptest.NewRequest("GET", "/connections", nil)
		req = auth.WithTestUser(req, &auth.SessionUser{ID: strangerID.Hex(), Role: "user"})
		ok, err := connectionpolicy.CanView(ctx, profiles, req, conn)
		if err != nil {
			t.Fatalf("CanView: %v", err)
		}
		if ok {
			t.Error("expected stranger to be denied")
		}
	})
}

func TestCanDelete(t *testing.T) {
	req := httptest.NewRequest("POST", "/connections/delete", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: "user"})
	if connectionpolicy.CanDelete(req) {
		t.Error("expected regular user to be denied delete")
	}

	req = auth.WithTestUser(req, &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: "admin"})
	if !connectionpolicy.CanDelete(req) {
		t.Error("expected admin to delete")
	}
}
