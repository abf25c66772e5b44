package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	// These should all be no-ops, not panic
	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "nil@example.com")
	logger.Logout(ctx, req, primitive.NewObjectID().Hex())
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth:  "off",
		Admin: "off",
	})

	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
	})

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no events when config is 'off'")
	}
}

func TestLogger_Log_ConfigLog_SkipsDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth:  "log",
		Admin: "log",
	})

	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
	})

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no DB events when config is 'log'")
	}
}

func TestLogger_Log_ConfigAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth:  "all",
		Admin: "all",
	})

	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
	})

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}
}

func TestLogger_Log_PerCategoryConfig(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	authUser := primitive.NewObjectID()
	adminUser := primitive.NewObjectID()
	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth:  "off",
		Admin: "db",
	})

	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &authUser,
		Success:   true,
	})
	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventConnectionCreated,
		UserID:    &adminUser,
		Success:   true,
	})

	authEvents, err := store.GetByUser(ctx, authUser, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(authEvents) != 0 {
		t.Error("expected auth events suppressed")
	}

	adminEvents, err := store.GetByUser(ctx, adminUser, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(adminEvents) != 1 {
		t.Errorf("expected 1 admin event, got %d", len(adminEvents))
	}
}

func TestLogger_LoginSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db", Admin: "db"})

	req := httptest.NewRequest("POST", "/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	logger.LoginSuccess(ctx, req, userID, "ada@example.com")

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.EventType != audit.EventLoginSuccess {
		t.Errorf("expected event type %q, got %q", audit.EventLoginSuccess, ev.EventType)
	}
	if ev.IP != "203.0.113.9" {
		t.Errorf("expected forwarded IP recorded, got %q", ev.IP)
	}
	if ev.Details["email"] != "ada@example.com" {
		t.Errorf("expected email detail, got %v", ev.Details)
	}
}

func TestLogger_ConnectionDecided(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actorID := primitive.NewObjectID()
	subjectID := primitive.NewObjectID()
	orgID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db", Admin: "db"})

	req := httptest.NewRequest("POST", "/connections/decide", nil)
	logger.ConnectionDecided(ctx, req, actorID, subjectID, orgID, "mentor", "org", "accepted")

	events, err := store.Query(ctx, audit.QueryFilter{
		OrganizationID: &orgID,
		EventType:      audit.EventConnectionDecided,
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.ActorID == nil || *ev.ActorID != actorID {
		t.Error("expected actor recorded")
	}
	if ev.Details["outcome"] != "accepted" || ev.Details["side"] != "org" {
		t.Errorf("unexpected details: %v", ev.Details)
	}
}

func TestLogger_InvitationLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actorID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	orgID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db", Admin: "db"})

	req := httptest.NewRequest("POST", "/", nil)
	logger.InvitationSent(ctx, req, actorID, orgID, "new@example.com", "mentor")
	logger.InvitationClaimed(ctx, req, userID, orgID, "mentor")
	logger.InvitationRevoked(ctx, req, actorID, orgID, "other@example.com")

	events, err := store.Query(ctx, audit.QueryFilter{OrganizationID: &orgID})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
}
