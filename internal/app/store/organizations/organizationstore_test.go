package organizationstore_test

import (
	"errors"
	"testing"

	organizationstore "github.com/dalemusser/mentorhub/internal/app/store/organizations"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := models.Organization{
		Name:        "Test Organization",
		Description: "A test org",
		Homepage:    "https://example.org",
	}

	created, err := store.Create(ctx, org)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.NameCI == "" {
		t.Error("expected NameCI to be set")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	if created.Status != "active" {
		t.Errorf("expected status 'active', got %q", created.Status)
	}
}

func TestStore_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := f.CreateOrganization(ctx, "Lookup Org")

	got, err := store.GetByID(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Lookup Org" {
		t.Errorf("name: got %q, want %q", got.Name, "Lookup Org")
	}

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, organizationstore.ErrNotFound) {
		t.Fatalf("missing org: got %v, want ErrNotFound", err)
	}
}

func TestStore_NameMap(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := f.CreateOrganization(ctx, "Alpha")
	b := f.CreateOrganization(ctx, "Beta")
	f.CreateOrganization(ctx, "Gamma")

	m, err := store.NameMap(ctx, []primitive.ObjectID{a.ID, b.ID})
	if err != nil {
		t.Fatalf("NameMap failed: %v", err)
	}
	if len(m) != 2 || m[a.ID] != "Alpha" || m[b.ID] != "Beta" {
		t.Errorf("NameMap: got %v", m)
	}
}

func TestStore_ListActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f.CreateOrganization(ctx, "Zebra Org")
	f.CreateOrganization(ctx, "Acme Org")
	disabled := f.CreateOrganization(ctx, "Closed Org")
	if err := store.Update(ctx, disabled.ID, models.Organization{Status: "disabled"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	orgs, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(orgs) != 2 {
		t.Fatalf("active orgs: got %d, want 2", len(orgs))
	}
	if orgs[0].Name != "Acme Org" || orgs[1].Name != "Zebra Org" {
		t.Errorf("sort order wrong: %q, %q", orgs[0].Name, orgs[1].Name)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := f.CreateOrganization(ctx, "Before")

	err := store.Update(ctx, org.ID, models.Organization{
		Name:        "After",
		Description: "Updated description",
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.GetByID(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "After" || got.Description != "Updated description" {
		t.Errorf("update not applied: %+v", got)
	}
	if !got.UpdatedAt.After(org.UpdatedAt) {
		t.Error("UpdatedAt not refreshed")
	}
}

func TestStore_ExistsByNameCI(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := f.CreateOrganization(ctx, "Case Test")

	exists, err := store.ExistsByNameCI(ctx, org.NameCI)
	if err != nil {
		t.Fatalf("ExistsByNameCI failed: %v", err)
	}
	if !exists {
		t.Error("expected organization to exist")
	}

	exists, err = store.ExistsByNameCI(ctx, "no such org")
	if err != nil {
		t.Fatalf("ExistsByNameCI failed: %v", err)
	}
	if exists {
		t.Error("expected organization to not exist")
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := f.CreateOrganization(ctx, "Doomed Org")

	n, err := store.Delete(ctx, org.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted count: got %d, want 1", n)
	}

	if _, err := store.GetByID(ctx, org.ID); !errors.Is(err, organizationstore.ErrNotFound) {
		t.Errorf("after delete: got %v, want ErrNotFound", err)
	}
}
