package users_test

import (
	"net/http"
	"testing"

	"github.com/celulahub/celulahub/internal/app/features/users"
	userstore "github.com/celulahub/celulahub/internal/app/store/users"
	"github.com/celulahub/celulahub/internal/app/system/auth"
	"github.com/celulahub/celulahub/internal/app/system/indexes"
	"github.com/celulahub/celulahub/internal/domain/models"
	"github.com/celulahub/celulahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestHandler(t *testing.T) (*users.Handler, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	userstore.BcryptCost = bcrypt.MinCost
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return users.NewHandler(db, nil, zap.NewNop()), testutil.NewFixtures(t, db), db
}

func TestHandleCreate(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Igreja")
	m := fx.CreateMember(ctx, church.ID, "Lia", nil)
	admin := testutil.AdminUser(church.ID)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"password user", map[string]any{"full_name": "Lia", "login_id": "lia", "password": "senha-forte", "role": "user", "member_id": m.ID.Hex()}, http.StatusCreated},
		{"google user", map[string]any{"full_name": "Gil", "login_id": "gil", "email": "gil@igreja.org", "auth_method": "google", "role": "admin"}, http.StatusCreated},
		{"duplicate login", map[string]any{"full_name": "Lia 2", "login_id": "LIA", "password": "senha-forte", "role": "user"}, http.StatusConflict},
		{"google without email", map[string]any{"full_name": "X", "login_id": "x", "auth_method": "google", "role": "user"}, http.StatusBadRequest},
		{"password missing", map[string]any{"full_name": "X", "login_id": "x", "role": "user"}, http.StatusBadRequest},
		{"password too short", map[string]any{"full_name": "X", "login_id": "x", "password": "123", "role": "user"}, http.StatusBadRequest},
		{"bad role", map[string]any{"full_name": "X", "login_id": "x", "password": "senha-forte", "role": "pastor"}, http.StatusBadRequest},
		{"unknown member", map[string]any{"full_name": "X", "login_id": "x", "password": "senha-forte", "role": "user", "member_id": primitive.NewObjectID().Hex()}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleCreate(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/users", tt.body, admin))
			rec.AssertStatus(t, tt.want)
		})
	}

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/users", admin))
	rec.AssertStatus(t, http.StatusOK)
	var list []models.User
	rec.DecodeJSON(t, &list)
	if len(list) != 2 {
		t.Errorf("users: got %d, want 2", len(list))
	}
}

func put(t *testing.T, serve http.HandlerFunc, path, id string, body any, user testutil.TestUser) *testutil.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPut, "/api/users/"+id+path, body, user)
	rec := testutil.NewRecorder()
	serve(rec, testutil.WithChiURLParam(req, "id", id))
	return rec
}

func TestHandleSetRole_KeepsLastAdmin(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Igreja")
	only := fx.CreateUser(ctx, church.ID, "root", "senha-forte", "admin", nil)
	admin := testutil.AdminUser(church.ID)

	put(t, h.HandleSetRole, "/role", only.ID.Hex(), map[string]any{"role": "user"}, admin).
		AssertStatus(t, http.StatusConflict)

	other := fx.CreateUser(ctx, church.ID, "ana", "senha-forte", "user", nil)
	put(t, h.HandleSetRole, "/role", other.ID.Hex(), map[string]any{"role": "admin"}, admin).
		AssertStatus(t, http.StatusOK)

	rec := put(t, h.HandleSetRole, "/role", only.ID.Hex(), map[string]any{"role": "user"}, admin)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"previous_role":"admin"`)

	put(t, h.HandleSetRole, "/role", primitive.NewObjectID().Hex(), map[string]any{"role": "user"}, admin).
		AssertStatus(t, http.StatusNotFound)
}

func TestHandleSetStatus(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Igreja")
	only := fx.CreateUser(ctx, church.ID, "root", "senha-forte", "admin", nil)
	u := fx.CreateUser(ctx, church.ID, "ana", "senha-forte", "user", nil)
	admin := testutil.AdminUser(church.ID)

	put(t, h.HandleSetStatus, "/status", only.ID.Hex(), map[string]any{"status": "disabled"}, admin).
		AssertStatus(t, http.StatusConflict)
	put(t, h.HandleSetStatus, "/status", u.ID.Hex(), map[string]any{"status": "archived"}, admin).
		AssertStatus(t, http.StatusBadRequest)
	put(t, h.HandleSetStatus, "/status", u.ID.Hex(), map[string]any{"status": "disabled"}, admin).
		AssertStatus(t, http.StatusNoContent)

	got, err := h.Users.GetByID(ctx, church.ID, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != "disabled" {
		t.Errorf("status: got %q", got.Status)
	}
}

func TestRoutes_AdminOnly(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sm, err := auth.NewSessionManager("test-session-key-for-testing-only-0123", "test-session", "", 0, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	router := users.Routes(h, sm)
	church := fx.CreateChurch(ctx, "Igreja")

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.LeaderUser(church.ID)))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.AdminUser(church.ID)))
	rec.AssertStatus(t, http.StatusOK)
}
