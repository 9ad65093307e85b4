// Package apikeys serves the admin endpoints that issue and revoke API
// keys. A key acts as the user it was issued for.
package apikeys

import (
	"context"
	"errors"
	"net/http"

	"github.com/celulahub/celulahub/internal/app/features/shared/hierarchy"
	apikeystore "github.com/celulahub/celulahub/internal/app/store/apikeys"
	userstore "github.com/celulahub/celulahub/internal/app/store/users"
	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/app/system/inputval"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"github.com/celulahub/celulahub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Keys     *apikeystore.Store
	Users    *userstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Keys:     apikeystore.New(db),
		Users:    userstore.New(db),
		AuditLog: audit,
		Log:      logger,
	}
}

type createInput struct {
	Name   string  `json:"name" validate:"required,max=100" label:"Name"`
	UserID *string `json:"user_id" validate:"omitempty,objectid" label:"User"`
}

// CreatedResponse carries the plaintext key. It is never shown again.
type CreatedResponse struct {
	Key   models.APIKey `json:"key"`
	Token string        `json:"token"`
}

// ServeList handles GET /api/apikeys.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	keys, err := h.Keys.List(ctx, authz.ChurchID(r))
	if err != nil {
		apierr.Server(w, r, h.Log, "list api keys", err)
		return
	}
	apierr.JSON(w, http.StatusOK, keys)
}

// HandleCreate handles POST /api/apikeys. Without user_id the key acts as
// the caller.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if err := apierr.Decode(r, &in); err != nil {
		apierr.BadRequest(w, "Invalid JSON body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apierr.BadRequest(w, res.All())
		return
	}

	_, _, callerID, _ := authz.UserCtx(r)
	churchID := authz.ChurchID(r)
	userID := callerID
	if id := hierarchy.OptionalID(in.UserID); id != nil {
		userID = *id
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if userID != callerID {
		if _, err := h.Users.GetByID(ctx, churchID, userID); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				apierr.BadRequest(w, "User not found.")
			} else {
				apierr.Server(w, r, h.Log, "check user", err)
			}
			return
		}
	}

	key, token, err := h.Keys.Create(ctx, churchID, userID, callerID, in.Name)
	if err != nil {
		apierr.Server(w, r, h.Log, "create api key", err)
		return
	}

	actorID, auditChurch := auditlog.Actor(r)
	h.AuditLog.APIKeyCreated(ctx, r, actorID, auditChurch, userID, key.Prefix)
	apierr.JSON(w, http.StatusCreated, CreatedResponse{Key: key, Token: token})
}

// HandleRevoke handles DELETE /api/apikeys/{id}.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	id, ok := hierarchy.ParseRequiredID(chi.URLParam(r, "id"))
	if !ok {
		apierr.NotFound(w, "API key not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Keys.Revoke(ctx, authz.ChurchID(r), id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		apierr.NotFound(w, "API key not found.")
		return
	}
	if err != nil {
		apierr.Server(w, r, h.Log, "revoke api key", err)
		return
	}

	actorID, churchID := auditlog.Actor(r)
	h.AuditLog.APIKeyRevoked(ctx, r, actorID, churchID, id)
	w.WriteHeader(http.StatusNoContent)
}
