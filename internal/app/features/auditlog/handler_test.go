package auditlog_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/features/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/features/errors"
	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	organizationstore "github.com/dalemusser/mentorhub/internal/app/store/organizations"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newAuditEnv(t *testing.T, db *mongo.Database) (*auditlog.Handler, *audit.Store) {
	t.Helper()
	logger := zap.NewNop()
	audits := audit.New(db)
	h := auditlog.NewHandler(audits, userstore.New(db), organizationstore.New(db),
		errors.NewErrorLogger(logger), logger)
	return h, audits
}

func getList(h *auditlog.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := httptest.NewRecorder()

	func() {
		defer func() { _ = recover() }()
		h.ServeList(rec, req)
	}()
	return rec
}

func TestServeList_FiltersByCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, audits := newAuditEnv(t, db)
	f := testutil.NewFixtures(t, db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	actor := f.CreateAdmin(ctx, "Audit Actor", "audit-actor@example.com")

	if err := audits.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &actor.ID,
		IP:        "10.0.0.1",
		Success:   true,
	}); err != nil {
		t.Fatalf("log auth event: %v", err)
	}
	if err := audits.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventOrgCreated,
		ActorID:   &actor.ID,
		IP:        "10.0.0.1",
		Success:   true,
	}); err != nil {
		t.Fatalf("log admin event: %v", err)
	}

	rec := getList(h, "/audit?category=auth")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	events, err := audits.Query(ctx, audit.QueryFilter{Category: audit.CategoryAuth, Limit: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("auth events: got %d, want 1", len(events))
	}
	if events[0].EventType != audit.EventLoginSuccess {
		t.Errorf("event type: got %q", events[0].EventType)
	}
}

func TestServeList_DateRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, audits := newAuditEnv(t, db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	old := time.Now().AddDate(0, 0, -30)
	if err := audits.Log(ctx, audit.Event{
		Timestamp: old,
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserCreated,
		Success:   true,
	}); err != nil {
		t.Fatalf("log old event: %v", err)
	}
	if err := audits.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserCreated,
		Success:   true,
	}); err != nil {
		t.Fatalf("log recent event: %v", err)
	}

	cutoff := time.Now().AddDate(0, 0, -7)
	events, err := audits.Query(ctx, audit.QueryFilter{StartTime: &cutoff, Limit: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("events in range: got %d, want 1", len(events))
	}
}

func TestServeList_EmptyLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, _ := newAuditEnv(t, db)

	rec := getList(h, "/audit")
	if rec.Code != http.StatusOK && rec.Code != 0 {
		t.Fatalf("status: got %d", rec.Code)
	}
}
