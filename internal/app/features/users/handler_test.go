package users_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/mentorhub/internal/app/features/errors"
	"github.com/dalemusser/mentorhub/internal/app/features/users"
	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/status"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type usersEnv struct {
	handler *users.Handler
	users   *userstore.Store
	audits  *audit.Store
}

func newUsersEnv(t *testing.T, db *mongo.Database) *usersEnv {
	t.Helper()
	logger := zap.NewNop()

	store := userstore.New(db)
	audits := audit.New(db)
	auditLog := auditlog.New(audits, logger, auditlog.Config{Auth: "db", Admin: "db"})

	h := users.NewHandler(store, audits, auditLog, errors.NewErrorLogger(logger), logger)
	return &usersEnv{handler: h, users: store, audits: audits}
}

func usersPost(fn http.HandlerFunc, target string, form url.Values, user testutil.TestUser, params map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = testutil.WithUser(req, user)
	for k, v := range params {
		req = testutil.WithChiURLParam(req, k, v)
	}
	rec := httptest.NewRecorder()

	func() {
		defer func() { _ = recover() }()
		fn(rec, req)
	}()
	return rec
}

func TestHandleCreate_CreatesAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	env := newUsersEnv(t, db)

	form := url.Values{}
	form.Set("full_name", "Fresh Account")
	form.Set("email", "fresh@example.com")
	form.Set("role", "user")
	form.Set("password", "longenough")

	rec := usersPost(env.handler.HandleCreate, "/users", form, testutil.AdminUser(), nil)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := env.users.GetByEmail(ctx, "fresh@example.com")
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if u.Role != "user" {
		t.Errorf("role: got %q, want %q", u.Role, "user")
	}
	if u.Status != status.Active {
		t.Errorf("status: got %q, want %q", u.Status, status.Active)
	}
	if !userstore.CheckPassword(u, "longenough") {
		t.Error("password should verify")
	}
}

func TestHandleCreate_RejectsShortPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	env := newUsersEnv(t, db)

	form := url.Values{}
	form.Set("full_name", "Short Password")
	form.Set("email", "short@example.com")
	form.Set("role", "user")
	form.Set("password", "short")

	rec := usersPost(env.handler.HandleCreate, "/users", form, testutil.AdminUser(), nil)
	if rec.Code == http.StatusSeeOther {
		t.Error("expected short password to be rejected")
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := env.users.GetByEmail(ctx, "short@example.com"); err == nil {
		t.Error("user should not have been created")
	}
}

func TestHandleSetStatus_DisablesAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	env := newUsersEnv(t, db)
	f := testutil.NewFixtures(t, db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	target := f.CreateUser(ctx, "Soon Disabled", "soon-disabled@example.com", "user")

	form := url.Values{}
	form.Set("status", status.Disabled)

	rec := usersPost(env.handler.HandleSetStatus, "/users/"+target.ID.Hex()+"/status", form,
		testutil.AdminUser(), map[string]string{"id": target.ID.Hex()})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	u, err := env.users.GetByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if u.Status != status.Disabled {
		t.Errorf("status: got %q, want %q", u.Status, status.Disabled)
	}

	events, err := env.audits.GetByUser(ctx, target.ID, 10)
	if err != nil {
		t.Fatalf("audit trail: %v", err)
	}
	found := false
	for _, e := range events {
		if e.EventType == audit.EventUserDisabled {
			found = true
		}
	}
	if !found {
		t.Error("expected a user disabled audit event")
	}
}

func TestHandleSetStatus_CannotDisableSelf(t *testing.T) {
	db := testutil.SetupTestDB(t)
	env := newUsersEnv(t, db)
	f := testutil.NewFixtures(t, db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := f.CreateAdmin(ctx, "Self Admin", "self-admin@example.com")

	form := url.Values{}
	form.Set("status", status.Disabled)

	rec := usersPost(env.handler.HandleSetStatus, "/users/"+admin.ID.Hex()+"/status", form,
		testutil.UserFor(admin.ID, admin.FullName, admin.Email, admin.Role),
		map[string]string{"id": admin.ID.Hex()})

	if rec.Code == http.StatusSeeOther {
		t.Error("expected self-disable to be rejected")
	}

	u, err := env.users.GetByID(ctx, admin.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if u.Status != status.Active {
		t.Errorf("status changed: got %q", u.Status)
	}
}

func TestHandleSetStatus_UnknownUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	env := newUsersEnv(t, db)

	form := url.Values{}
	form.Set("status", status.Disabled)

	missing := primitive.NewObjectID()
	rec := usersPost(env.handler.HandleSetStatus, "/users/"+missing.Hex()+"/status", form,
		testutil.AdminUser(), map[string]string{"id": missing.Hex()})
	if rec.Code == http.StatusSeeOther {
		t.Error("expected unknown user to be rejected")
	}
}
