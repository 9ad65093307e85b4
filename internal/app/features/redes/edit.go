package redes

import (
	"context"
	"errors"
	"net/http"

	"github.com/celulahub/celulahub/internal/app/features/shared/hierarchy"
	"github.com/celulahub/celulahub/internal/app/store/audit"
	redestore "github.com/celulahub/celulahub/internal/app/store/redes"
	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/app/system/inputval"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"github.com/celulahub/celulahub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// decodeInput reads and validates the body and checks the pastor exists.
// It writes the error response itself and returns ok=false on failure.
func (h *Handler) decodeInput(ctx context.Context, w http.ResponseWriter, r *http.Request) (redeInput, *primitive.ObjectID, bool) {
	var in redeInput
	if err := apierr.Decode(r, &in); err != nil {
		apierr.BadRequest(w, "Invalid JSON body.")
		return in, nil, false
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apierr.BadRequest(w, res.All())
		return in, nil, false
	}
	pastor := hierarchy.OptionalID(in.PastorMemberID)
	exists, err := hierarchy.MemberExists(ctx, h.Members, authz.ChurchID(r), pastor)
	if err != nil {
		apierr.Server(w, r, h.Log, "check pastor member", err)
		return in, nil, false
	}
	if !exists {
		apierr.BadRequest(w, "Pastor is not a member of this church.")
		return in, nil, false
	}
	return in, pastor, true
}

// HandleCreate handles POST /api/redes.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	in, pastor, ok := h.decodeInput(ctx, w, r)
	if !ok {
		return
	}

	rede, err := h.Redes.Create(ctx, models.Rede{
		ChurchID:       authz.ChurchID(r),
		Name:           in.Name,
		PastorMemberID: pastor,
	})
	if errors.Is(err, redestore.ErrDuplicateName) {
		apierr.Conflict(w, "duplicate_name", "A rede with that name already exists.")
		return
	}
	if err != nil {
		apierr.Server(w, r, h.Log, "create rede", err)
		return
	}

	actorID, churchID := auditlog.Actor(r)
	h.AuditLog.EntityChanged(ctx, r, actorID, churchID, audit.EventRedeCreated, rede.ID, rede.Name)
	apierr.JSON(w, http.StatusCreated, rede)
}

// HandleUpdate handles PUT /api/redes/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := hierarchy.ParseRequiredID(chi.URLParam(r, "id"))
	if !ok {
		apierr.NotFound(w, "Rede not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	in, pastor, ok := h.decodeInput(ctx, w, r)
	if !ok {
		return
	}

	rede, err := h.Redes.Update(ctx, authz.ChurchID(r), id, in.Name, pastor)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		apierr.NotFound(w, "Rede not found.")
		return
	case errors.Is(err, redestore.ErrDuplicateName):
		apierr.Conflict(w, "duplicate_name", "A rede with that name already exists.")
		return
	case err != nil:
		apierr.Server(w, r, h.Log, "update rede", err)
		return
	}

	actorID, churchID := auditlog.Actor(r)
	h.AuditLog.EntityChanged(ctx, r, actorID, churchID, audit.EventRedeUpdated, rede.ID, rede.Name)
	apierr.JSON(w, http.StatusOK, rede)
}

// HandleDelete handles DELETE /api/redes/{id}. Redes that still have
// discipulados answer 409.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := hierarchy.ParseRequiredID(chi.URLParam(r, "id"))
	if !ok {
		apierr.NotFound(w, "Rede not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	n, err := h.Redes.Delete(ctx, authz.ChurchID(r), id)
	if errors.Is(err, redestore.ErrInUse) {
		apierr.Conflict(w, "in_use", "Move or delete this rede's discipulados first.")
		return
	}
	if err != nil {
		apierr.Server(w, r, h.Log, "delete rede", err)
		return
	}
	if n == 0 {
		apierr.NotFound(w, "Rede not found.")
		return
	}

	actorID, churchID := auditlog.Actor(r)
	h.AuditLog.EntityChanged(ctx, r, actorID, churchID, audit.EventRedeDeleted, id, "")
	w.WriteHeader(http.StatusNoContent)
}
