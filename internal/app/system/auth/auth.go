// Package auth keeps the signed-in user in a gorilla cookie session, or
// resolves it from an X-API-Key header, and injects it into the request
// context.
package auth

// Terminology: User Identifiers
//   - UserID / userID / user_id: the MongoDB ObjectID (_id) of a user record
//   - LoginID / loginID / login_id: the human-readable string users type to log in

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/domain/models"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session keys                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"

	// APIKeyHeader carries an API key for non-browser clients.
	APIKeyHeader = "X-API-Key"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current user                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what gets injected into r.Context() for a signed-in user.
// It is rebuilt from the database on every request so role and hierarchy
// changes apply immediately.
type SessionUser struct {
	ID         string
	Name       string
	LoginID    string
	Role       string
	ChurchID   string
	MemberID   string
	Permission models.Permission
	ViaAPIKey  bool
}

// UserFetcher loads a fresh SessionUser by user ID. It returns nil for
// unknown or disabled users.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

// APIKeyResolver maps a plaintext API key to the user ID it acts as.
type APIKeyResolver interface {
	ResolveAPIKey(ctx context.Context, key string) (userID string, ok bool)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects u into the request context, the same way
// LoadSessionUser does.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager owns the cookie store and the auth middleware.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	apiKeys APIKeyResolver
	log     *zap.Logger
}

// NewSessionManager builds a cookie-backed session manager.
//
// With secure=true cookies are Secure and SameSite=None so a UI served from
// another origin can send them over HTTPS. For http://localhost use
// secure=false (SameSite=Lax).
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, errors.New("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "celulahub-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts
	if maxAge > 0 {
		store.MaxAge(int(maxAge.Seconds()))
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

func (m *SessionManager) Store() *sessions.CookieStore { return m.store }

func (m *SessionManager) SetUserFetcher(f UserFetcher) { m.fetcher = f }

func (m *SessionManager) SetAPIKeyResolver(k APIKeyResolver) { m.apiKeys = k }

// GetSession returns the session. On a decode error (stale key, tampered
// cookie) a fresh session is returned along with the error.
func (m *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return m.store.Get(r, m.name)
}

// SignIn marks the session authenticated as userID and saves it.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, _ := m.GetSession(r)
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.GetSession(r)
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// LoadSessionUser injects the current user into the context when an API key
// header or an authenticated session resolves to an active user.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.fetcher == nil {
			next.ServeHTTP(w, r)
			return
		}

		if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
			if m.apiKeys != nil {
				if uid, ok := m.apiKeys.ResolveAPIKey(r.Context(), key); ok {
					if u := m.fetcher.FetchUser(r.Context(), uid); u != nil {
						u.ViaAPIKey = true
						r = withUser(r, u)
					}
				}
			}
			next.ServeHTTP(w, r)
			return
		}

		sess, err := m.GetSession(r)
		if err != nil {
			m.log.Debug("session decode failed", zap.Error(err))
		}
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			if uid, _ := sess.Values[userIDKey].(string); uid != "" {
				if u := m.fetcher.FetchUser(r.Context(), uid); u != nil {
					r = withUser(r, u)
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn answers 401 unless LoadSessionUser found a user.
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			apierr.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 without a user and 403 when the user's role is
// not one of allowed. Roles compare case-insensitively.
func (m *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				apierr.Unauthorized(w)
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				apierr.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
