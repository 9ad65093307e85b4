package authgoogle

// Terminology: User Identifiers
//   - UserID / userID / user_id: the MongoDB ObjectID (_id) of a user record
//   - LoginID / loginID / login_id: the human-readable string users type to log in

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/celulahub/celulahub/internal/app/store/oauthstate"
	userstore "github.com/celulahub/celulahub/internal/app/store/users"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"github.com/celulahub/celulahub/internal/app/system/auth"
	"github.com/celulahub/celulahub/internal/app/system/normalize"
	"github.com/celulahub/celulahub/internal/app/system/status"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"github.com/celulahub/celulahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const authMethodGoogle = "google"

// Handler handles Google OAuth sign-in.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	StateStore *oauthstate.Store
	Users      *userstore.Store

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://api.celulahub.app/auth/google/callback"

	// Endpoint and UserInfoURL point at Google; tests replace them.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:          logger,
		SessionMgr:   sessionMgr,
		AuditLog:     audit,
		StateStore:   oauthstate.New(db),
		Users:        userstore.New(db),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  strings.TrimRight(baseURL, "/") + "/auth/google/callback",
		Endpoint:     google.Endpoint,
		UserInfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured reports whether client credentials are present.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		redirectToLogin(w, r, "google_not_configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	returnURL := safeReturnURL(r.URL.Query().Get("return"))
	state, err := h.StateStore.Issue(ctx, returnURL, oauthstate.DefaultTTL)
	if err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		redirectToLogin(w, r, "internal")
		return
	}

	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(state), http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", q.Get("error_description")))
		redirectToLogin(w, r, "google_denied")
		return
	}

	state := q.Get("state")
	if state == "" {
		redirectToLogin(w, r, "invalid_state")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.StateStore.Consume(ctx, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		redirectToLogin(w, r, "internal")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		redirectToLogin(w, r, "invalid_state")
		return
	}

	code := q.Get("code")
	if code == "" {
		redirectToLogin(w, r, "invalid_code")
		return
	}

	token, err := h.oauth2Config().Exchange(r.Context(), code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		redirectToLogin(w, r, "token_exchange")
		return
	}

	info, err := h.fetchUserInfo(r.Context(), token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		redirectToLogin(w, r, "user_info")
		return
	}

	u, err := h.findUser(ctx, r, info)
	switch {
	case errors.Is(err, errUserNotFound):
		h.Log.Info("Google OAuth: user not found", zap.String("email", info.Email))
		h.AuditLog.LoginFailedUserNotFound(ctx, r, info.Email)
		redirectToLogin(w, r, "no_account")
		return
	case errors.Is(err, errUserDisabled):
		redirectToLogin(w, r, "account_disabled")
		return
	case err != nil:
		h.Log.Error("failed to look up user", zap.Error(err))
		redirectToLogin(w, r, "internal")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("failed to save session", zap.Error(err))
		redirectToLogin(w, r, "internal")
		return
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.ChurchID, authMethodGoogle, u.LoginID)

	http.Redirect(w, r, returnURL, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| User lookup                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

var (
	errUserNotFound = errors.New("user not found")
	errUserDisabled = errors.New("user disabled")
)

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &info, nil
}

// findUser matches a google account by its linked subject id first, then
// by verified email. A match by email links the subject id for next time.
func (h *Handler) findUser(ctx context.Context, r *http.Request, info *googleUserInfo) (models.User, error) {
	u, err := h.Users.GetByAuthReturnID(ctx, authMethodGoogle, info.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if info.Email == "" || !info.EmailVerified {
			return models.User{}, errUserNotFound
		}
		u, err = h.Users.GetByEmail(ctx, info.Email)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, errUserNotFound
		}
		if err != nil {
			return models.User{}, err
		}
		if normalize.AuthMethod(u.AuthMethod) != authMethodGoogle {
			return models.User{}, errUserNotFound
		}
		if u.AuthReturnID == nil || *u.AuthReturnID == "" {
			if lerr := h.Users.LinkAuthReturnID(ctx, u.ID, info.ID); lerr != nil {
				h.Log.Warn("failed to link google id", zap.Error(lerr), zap.String("user_id", u.ID.Hex()))
			}
		}
	} else if err != nil {
		return models.User{}, err
	}

	if normalize.Status(u.Status) == status.Disabled {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, u.ChurchID, info.Email)
		return models.User{}, errUserDisabled
	}
	return u, nil
}

// safeReturnURL keeps only same-site absolute paths.
func safeReturnURL(s string) string {
	if s == "" || !strings.HasPrefix(s, "/") || strings.HasPrefix(s, "//") || strings.Contains(s, `\`) {
		return "/"
	}
	return s
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/login?error="+url.QueryEscape(code), http.StatusSeeOther)
}
