package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/celulahub/celulahub/internal/app/system/auth"
	"github.com/celulahub/celulahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID         string
	Name       string
	LoginID    string
	Role       string
	ChurchID   string
	MemberID   string
	Permission models.Permission
}

// AdminUser returns an admin of churchID.
func AdminUser(churchID primitive.ObjectID) TestUser {
	return TestUser{
		ID:         primitive.NewObjectID().Hex(),
		Name:       "Test Admin",
		LoginID:    "admin@test.com",
		Role:       "admin",
		ChurchID:   churchID.Hex(),
		Permission: models.Permission{IsAdmin: true},
	}
}

// LeaderUser returns a non-admin who leads the given cells.
func LeaderUser(churchID primitive.ObjectID, celulaIDs ...primitive.ObjectID) TestUser {
	return TestUser{
		ID:         primitive.NewObjectID().Hex(),
		Name:       "Test Leader",
		LoginID:    "leader@test.com",
		Role:       "user",
		ChurchID:   churchID.Hex(),
		Permission: models.Permission{Leader: true, CelulaIDs: celulaIDs, ManagedCelulaIDs: celulaIDs},
	}
}

// MemberUser returns a non-admin who only belongs to celulaID.
func MemberUser(churchID, celulaID primitive.ObjectID) TestUser {
	return TestUser{
		ID:         primitive.NewObjectID().Hex(),
		Name:       "Test Member",
		LoginID:    "member@test.com",
		Role:       "user",
		ChurchID:   churchID.Hex(),
		Permission: models.Permission{CelulaIDs: []primitive.ObjectID{celulaID}},
	}
}

// WithUser injects user into the request context, bypassing sessions.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:         user.ID,
		Name:       user.Name,
		LoginID:    user.LoginID,
		Role:       user.Role,
		ChurchID:   user.ChurchID,
		MemberID:   user.MemberID,
		Permission: user.Permission,
	})
}

// NewAuthenticatedRequest creates a bodyless request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}

// NewJSONRequest creates a request whose body is body encoded as JSON.
func NewJSONRequest(t *testing.T, method, target string, body any, user TestUser) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return WithUser(req, user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with assertions.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t testing.TB, expected int) {
	t.Helper()
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains expected.
func (r *ResponseRecorder) AssertContains(t testing.TB, expected string) {
	t.Helper()
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q: %s", expected, r.Body.String())
	}
}

// DecodeJSON decodes the response body into v.
func (r *ResponseRecorder) DecodeJSON(t testing.TB, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, r.Body.String())
	}
}
