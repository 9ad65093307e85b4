package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/celulahub/celulahub/internal/app/store/audit"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"github.com/celulahub/celulahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), primitive.NewObjectID(), "password", "test")
	logger.Logout(ctx, req, primitive.NewObjectID().Hex(), "")
}

func TestLogger_LogOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: auditlog.Log, Admin: auditlog.Off})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("POST", "/api/login", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.9")

	logger.LoginFailedUserNotFound(ctx, req, "ghost")
	logger.ReportDeleted(ctx, req, "", "", primitive.NewObjectID())

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 zap entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event_type"] != audit.EventLoginFailedUserNotFound {
		t.Errorf("event_type: got %v", fields["event_type"])
	}
	if fields["ip"] != "10.0.0.9" {
		t.Errorf("ip: got %v", fields["ip"])
	}
	if fields["detail_attempted_login_id"] != "ghost" {
		t.Errorf("detail: got %v", fields["detail_attempted_login_id"])
	}
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.Off, Admin: auditlog.Off})
	logger.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: &userID, Success: true})

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no events when config is 'off'")
	}
}

func TestLogger_ReportOverrideStored(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DB, Admin: auditlog.DB})
	req := httptest.NewRequest("POST", "/api/reports", nil)

	logger.ReportSubmitted(ctx, req, primitive.NewObjectID().Hex(), church.Hex(),
		primitive.NewObjectID(), primitive.NewObjectID(), "2026-10-13", 4, true)

	events, err := store.Query(ctx, audit.QueryFilter{ChurchID: &church})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventType != audit.EventReportOverride {
		t.Errorf("event type: got %s, want %s", events[0].EventType, audit.EventReportOverride)
	}
	if events[0].Details["present"] != "4" || events[0].Details["date"] != "2026-10-13" {
		t.Errorf("details: %+v", events[0].Details)
	}
}
