package login_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/celulahub/celulahub/internal/app/features/login"
	"github.com/celulahub/celulahub/internal/app/store/audit"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"github.com/celulahub/celulahub/internal/app/system/auth"
	"github.com/celulahub/celulahub/internal/app/system/ratelimit"
	"github.com/celulahub/celulahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*login.Handler, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only-0123", "test-session", "", 0, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{})

	h := login.NewHandler(db, sessionMgr, audits, ratelimit.NewLoginLimiter(), logger)
	return h, testutil.NewFixtures(t, db), db
}

func postLogin(t *testing.T, h *login.Handler, loginID, password string) *testutil.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(map[string]string{"login_id": loginID, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(b))
	req.RemoteAddr = "192.0.2.10:4000"
	rec := testutil.NewRecorder()
	h.HandleLogin(rec, req)
	return rec
}

func TestHandleLogin_Success(t *testing.T) {
	h, fx, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Igreja Central")
	u := fx.CreateUser(ctx, church.ID, "maria", "s3cret-pass", "admin", nil)

	rec := postLogin(t, h, "  Maria ", "s3cret-pass")
	rec.AssertStatus(t, http.StatusOK)

	var got login.Response
	rec.DecodeJSON(t, &got)
	if got.ID != u.ID.Hex() || got.Role != "admin" || got.ChurchID != church.ID.Hex() {
		t.Errorf("unexpected response: %+v", got)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}

	n, err := db.Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventLoginSuccess})
	if err != nil {
		t.Fatalf("count audit: %v", err)
	}
	if n != 1 {
		t.Errorf("login_success events: got %d, want 1", n)
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	h, fx, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Igreja Central")
	fx.CreateUser(ctx, church.ID, "maria", "s3cret-pass", "user", nil)

	rec := postLogin(t, h, "maria", "nope")
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "invalid_credentials")

	n, _ := db.Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventLoginFailedWrongPassword})
	if n != 1 {
		t.Errorf("wrong-password events: got %d, want 1", n)
	}
}

func TestHandleLogin_UnknownUser(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := postLogin(t, h, "ghost", "whatever")
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestHandleLogin_DisabledUser(t *testing.T) {
	h, fx, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Igreja Central")
	u := fx.CreateUser(ctx, church.ID, "joao", "s3cret-pass", "user", nil)
	if _, err := db.Collection("users").UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"status": "disabled"}}); err != nil {
		t.Fatalf("disable: %v", err)
	}

	rec := postLogin(t, h, "joao", "s3cret-pass")
	rec.AssertStatus(t, http.StatusForbidden)
	rec.AssertContains(t, "account_disabled")
}

func TestHandleLogin_Validation(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := postLogin(t, h, "", "")
	rec.AssertStatus(t, http.StatusBadRequest)

	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString("{not json"))
	rec = testutil.NewRecorder()
	h.HandleLogin(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleLogin_RateLimited(t *testing.T) {
	h, _, _ := newTestHandler(t)

	var last *testutil.ResponseRecorder
	for i := 0; i < 6; i++ {
		last = postLogin(t, h, "target", "guess")
	}
	last.AssertStatus(t, http.StatusTooManyRequests)
}
