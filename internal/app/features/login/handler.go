// Package login signs users in with a login id and password.
package login

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/celulahub/celulahub/internal/app/store/users"
	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"github.com/celulahub/celulahub/internal/app/system/auth"
	"github.com/celulahub/celulahub/internal/app/system/inputval"
	"github.com/celulahub/celulahub/internal/app/system/normalize"
	"github.com/celulahub/celulahub/internal/app/system/ratelimit"
	"github.com/celulahub/celulahub/internal/app/system/status"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, audit *auditlog.Logger, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Limiter:    limiter,
		Log:        logger,
	}
}

type loginInput struct {
	LoginID  string `json:"login_id" validate:"required,max=200" label:"Login ID"`
	Password string `json:"password" validate:"required,max=200" label:"Password"`
}

// Response is the signed-in user, the same shape GET /api/me returns
// without the permission block.
type Response struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LoginID  string `json:"login_id"`
	Role     string `json:"role"`
	ChurchID string `json:"church_id"`
}

// HandleLogin handles POST /api/login.
//
// Unknown login ids and wrong passwords answer the same 401. Disabled
// accounts answer 403 and repeated attempts 429.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := apierr.Decode(r, &in); err != nil {
		apierr.BadRequest(w, "Invalid JSON body.")
		return
	}
	in.LoginID = normalize.Name(in.LoginID)
	if res := inputval.Validate(in); res.HasErrors() {
		apierr.BadRequest(w, res.All())
		return
	}

	if ok, reason := h.Limiter.Check(r, in.LoginID); !ok {
		apierr.Write(w, http.StatusTooManyRequests, "rate_limited", reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Authenticate(ctx, in.LoginID, in.Password)
	switch {
	case errors.Is(err, userstore.ErrBadCredentials):
		if u.ID.IsZero() {
			h.AuditLog.LoginFailedUserNotFound(ctx, r, in.LoginID)
		} else {
			h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, u.ChurchID, in.LoginID)
		}
		apierr.Write(w, http.StatusUnauthorized, "invalid_credentials", "Invalid login ID or password.")
		return
	case err != nil:
		apierr.Server(w, r, h.Log, "login: user lookup failed", err)
		return
	}

	if normalize.Status(u.Status) == status.Disabled {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, u.ChurchID, in.LoginID)
		apierr.Write(w, http.StatusForbidden, "account_disabled", "This account is disabled.")
		return
	}

	// A cookie signed with an older session key no longer decodes.
	// SignIn replaces it.
	if _, err := h.SessionMgr.GetSession(r); err != nil {
		var cerr securecookie.Error
		if errors.As(err, &cerr) && cerr.IsDecode() {
			h.Log.Info("login: replacing undecodable session cookie", zap.String("login_id", u.LoginID))
		} else {
			h.Log.Warn("login: session load failed", zap.Error(err))
		}
	}
	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		apierr.Server(w, r, h.Log, "login: session save failed", err)
		return
	}

	h.Limiter.Succeeded(in.LoginID)
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.ChurchID, u.AuthMethod, u.LoginID)

	apierr.JSON(w, http.StatusOK, Response{
		ID:       u.ID.Hex(),
		Name:     u.FullName,
		LoginID:  u.LoginID,
		Role:     u.Role,
		ChurchID: u.ChurchID.Hex(),
	})
}
