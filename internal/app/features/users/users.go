package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/celulahub/celulahub/internal/app/features/shared/hierarchy"
	userstore "github.com/celulahub/celulahub/internal/app/store/users"
	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/app/system/inputval"
	"github.com/celulahub/celulahub/internal/app/system/status"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"github.com/celulahub/celulahub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeList handles GET /api/users.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Users.List(ctx, authz.ChurchID(r))
	if err != nil {
		apierr.Server(w, r, h.Log, "list users", err)
		return
	}
	apierr.JSON(w, http.StatusOK, list)
}

// checkMember writes a 400 and returns false when id is set but is not a
// member of the church.
func (h *Handler) checkMember(ctx context.Context, w http.ResponseWriter, r *http.Request, id *primitive.ObjectID) bool {
	ok, err := hierarchy.MemberExists(ctx, h.Members, authz.ChurchID(r), id)
	if err != nil {
		apierr.Server(w, r, h.Log, "check member", err)
		return false
	}
	if !ok {
		apierr.BadRequest(w, "Member not found.")
		return false
	}
	return true
}

// HandleCreate handles POST /api/users.
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	memberID := hierarchy.OptionalID(in.MemberID)
	if !h.checkMember(ctx, w, r, memberID) {
		return
	}

	u, err := h.Users.Create(ctx, userstore.NewUser{
		ChurchID:   authz.ChurchID(r),
		FullName:   in.FullName,
		LoginID:    in.LoginID,
		Email:      in.Email,
		Password:   in.Password,
		AuthMethod: in.AuthMethod,
		Role:       in.Role,
		MemberID:   memberID,
	})
	if errors.Is(err, userstore.ErrDuplicateLoginID) {
		apierr.Conflict(w, "duplicate_login_id", "That login id is already in use.")
		return
	}
	if err != nil {
		apierr.Server(w, r, h.Log, "create user", err)
		return
	}

	actorID, churchID := auditlog.Actor(r)
	h.AuditLog.UserCreated(ctx, r, actorID, churchID, u.ID, u.Role)
	apierr.JSON(w, http.StatusCreated, u)
}

// guardLastAdmin refuses to take the church's last active admin away.
func (h *Handler) guardLastAdmin(ctx context.Context, w http.ResponseWriter, r *http.Request, u models.User) bool {
	if u.Role != authz.RoleAdmin || u.Status != status.Active {
		return true
	}
	n, err := h.Users.CountAdmins(ctx, u.ChurchID)
	if err != nil {
		apierr.Server(w, r, h.Log, "count admins", err)
		return false
	}
	if n <= 1 {
		apierr.Conflict(w, "last_admin", "The church must keep at least one active admin.")
		return false
	}
	return true
}

// loadTarget reads the {id} user. It writes the error response itself.
func (h *Handler) loadTarget(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.User, bool) {
	id, ok := hierarchy.ParseRequiredID(chi.URLParam(r, "id"))
	if !ok {
		apierr.NotFound(w, "User not found.")
		return models.User{}, false
	}
	u, err := h.Users.GetByID(ctx, authz.ChurchID(r), id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		apierr.NotFound(w, "User not found.")
		return models.User{}, false
	}
	if err != nil {
		apierr.Server(w, r, h.Log, "get user", err)
		return models.User{}, false
	}
	return u, true
}

// HandleSetRole handles PUT /api/users/{id}/role. A member_id in the body
// also relinks the user's member record.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	var in roleInput
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

	u, ok := h.loadTarget(ctx, w, r)
	if !ok {
		return
	}
	if in.Role != authz.RoleAdmin && !h.guardLastAdmin(ctx, w, r, u) {
		return
	}
	memberID := hierarchy.OptionalID(in.MemberID)
	if !h.checkMember(ctx, w, r, memberID) {
		return
	}

	old, err := h.Users.SetRole(ctx, u.ChurchID, u.ID, in.Role, memberID)
	if err != nil {
		apierr.Server(w, r, h.Log, "set role", err)
		return
	}

	actorID, churchID := auditlog.Actor(r)
	h.AuditLog.UserRoleChanged(ctx, r, actorID, churchID, u.ID, old, in.Role)
	apierr.JSON(w, http.StatusOK, map[string]string{"id": u.ID.Hex(), "role": in.Role, "previous_role": old})
}

// HandleSetStatus handles PUT /api/users/{id}/status. Disabled users
// cannot sign in and their sessions stop resolving.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	var in statusInput
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

	u, ok := h.loadTarget(ctx, w, r)
	if !ok {
		return
	}
	if in.Status == status.Disabled && !h.guardLastAdmin(ctx, w, r, u) {
		return
	}
	if err := h.Users.SetStatus(ctx, u.ChurchID, u.ID, in.Status); err != nil {
		apierr.Server(w, r, h.Log, "set status", err)
		return
	}

	actorID, churchID := auditlog.Actor(r)
	h.AuditLog.UserStatusChanged(ctx, r, actorID, churchID, u.ID, in.Status)
	w.WriteHeader(http.StatusNoContent)
}
