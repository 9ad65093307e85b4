package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/celulahub/celulahub/internal/app/system/auth"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

type fakeFetcher map[string]*auth.SessionUser

func (f fakeFetcher) FetchUser(_ context.Context, id string) *auth.SessionUser {
	u, ok := f[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

type fakeKeys map[string]string

func (k fakeKeys) ResolveAPIKey(_ context.Context, key string) (string, bool) {
	id, ok := k[key]
	return id, ok
}

const testUserID = "507f1f77bcf86cd799439011"

func withTestUser(r *http.Request, role string) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:      testUserID,
		Name:    "Test User",
		LoginID: "test@example.com",
		Role:    role,
	})
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if called != nil {
			*called = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "x", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Error("expected error for empty session key")
	}
}

func TestRequireSignedIn_NoUser_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	sm.RequireSignedIn(okHandler(nil)).ServeHTTP(rec, httptest.NewRequest("GET", "/api/celulas", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	sm := newTestSessionManager(t)
	h := sm.RequireRole("admin")(okHandler(nil))

	tests := []struct {
		role     string
		expected int
	}{
		{"admin", http.StatusOK},
		{"ADMIN", http.StatusOK},
		{"user", http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/users", nil)
			if tc.role != "" {
				req = withTestUser(req, tc.role)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.expected {
				t.Errorf("role %q: expected status %d, got %d", tc.role, tc.expected, rec.Code)
			}
		})
	}
}

func TestSignIn_ThenLoadSessionUser(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(fakeFetcher{testUserID: {ID: testUserID, Name: "Ana", Role: "user"}})

	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest("POST", "/api/login", nil), testUserID); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	req := httptest.NewRequest("GET", "/api/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	var got *auth.SessionUser
	h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.Name != "Ana" {
		t.Fatalf("expected Ana in context, got %+v", got)
	}
	if got.ViaAPIKey {
		t.Error("session user should not be flagged as API key")
	}
}

func TestLoadSessionUser_DisabledUserIsAnonymous(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(fakeFetcher{})

	rec := httptest.NewRecorder()
	_ = sm.SignIn(rec, httptest.NewRequest("POST", "/api/login", nil), testUserID)

	req := httptest.NewRequest("GET", "/api/me", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	found := true
	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	})).ServeHTTP(httptest.NewRecorder(), req)

	if found {
		t.Error("expected no user when the fetcher rejects the id")
	}
}

func TestLoadSessionUser_APIKey(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(fakeFetcher{testUserID: {ID: testUserID, Name: "Bot", Role: "user"}})
	sm.SetAPIKeyResolver(fakeKeys{"chk_good": testUserID})

	tests := []struct {
		key  string
		want bool
	}{
		{"chk_good", true},
		{"chk_bad", false},
	}

	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/celulas", nil)
			req.Header.Set(auth.APIKeyHeader, tc.key)

			var u *auth.SessionUser
			var ok bool
			sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				u, ok = auth.CurrentUser(r)
			})).ServeHTTP(httptest.NewRecorder(), req)

			if ok != tc.want {
				t.Fatalf("found: got %v, want %v", ok, tc.want)
			}
			if ok && !u.ViaAPIKey {
				t.Error("expected ViaAPIKey")
			}
		})
	}
}

func TestSignOut_ExpiresCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	rec := httptest.NewRecorder()
	if err := sm.SignOut(rec, httptest.NewRequest("POST", "/api/logout", nil)); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected an expired cookie, got %+v", cookies)
	}
}

func TestFilterState_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)

	req := withTestUser(httptest.NewRequest("POST", "/api/filters/rede", nil), "user")
	rec := httptest.NewRecorder()
	want := auth.FilterValues{RedeID: "507f1f77bcf86cd799439012", Init: "initialized"}
	if err := sm.SaveFilter(rec, req, want); err != nil {
		t.Fatalf("SaveFilter: %v", err)
	}

	next := withTestUser(httptest.NewRequest("GET", "/api/filters", nil), "user")
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	if got := sm.LoadFilter(next); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	user, ok := auth.CurrentUser(httptest.NewRequest("GET", "/", nil))
	if ok || user != nil {
		t.Error("expected no user in a bare request")
	}
}
