package profile

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/celulahub/celulahub/internal/app/store/users"
	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"github.com/celulahub/celulahub/internal/app/system/auth"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/app/system/inputval"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

type passwordInput struct {
	CurrentPassword string `json:"current_password" validate:"required" label:"Current password"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=200" label:"New password"`
}

// HandleChangePassword handles PUT /api/profile/password. API keys act for
// a user but may not change that user's password.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		apierr.Unauthorized(w)
		return
	}
	if u, _ := auth.CurrentUser(r); u != nil && u.ViaAPIKey {
		apierr.Forbidden(w)
		return
	}

	var in passwordInput
	if err := apierr.Decode(r, &in); err != nil {
		apierr.BadRequest(w, "Invalid JSON body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apierr.BadRequest(w, res.All())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Users.ChangePassword(ctx, authz.ChurchID(r), uid, in.CurrentPassword, in.NewPassword)
	switch {
	case err == nil:
	case errors.Is(err, mongo.ErrNoDocuments):
		apierr.NotFound(w, "User not found.")
		return
	case errors.Is(err, userstore.ErrWrongPassword),
		errors.Is(err, userstore.ErrSamePassword),
		errors.Is(err, userstore.ErrNotPasswordUser):
		apierr.BadRequest(w, err.Error())
		return
	default:
		apierr.Server(w, r, h.Log, "change password", err)
		return
	}

	actorID, churchID := auditlog.Actor(r)
	h.AuditLog.PasswordChanged(ctx, r, actorID, churchID)
	w.WriteHeader(http.StatusNoContent)
}
