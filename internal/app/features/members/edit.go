package members

import (
	"context"
	"errors"
	"net/http"

	"github.com/celulahub/celulahub/internal/app/features/shared/hierarchy"
	"github.com/celulahub/celulahub/internal/app/policy/memberpolicy"
	"github.com/celulahub/celulahub/internal/app/store/audit"
	memberstore "github.com/celulahub/celulahub/internal/app/store/members"
	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/app/system/inputval"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// decodeFields validates the body, checks the target celula exists and
// that the user may manage members of it.
func (h *Handler) decodeFields(ctx context.Context, w http.ResponseWriter, r *http.Request) (memberstore.Fields, bool) {
	var in memberInput
	if err := apierr.Decode(r, &in); err != nil {
		apierr.BadRequest(w, "Invalid JSON body.")
		return memberstore.Fields{}, false
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apierr.BadRequest(w, res.All())
		return memberstore.Fields{}, false
	}

	f := memberstore.Fields{
		Name:             in.Name,
		Email:            in.Email,
		Phone:            in.Phone,
		CelulaID:         hierarchy.OptionalID(in.CelulaID),
		MinistryPosition: in.position(),
		Status:           in.Status,
	}
	if !memberpolicy.CanManageMember(r, f.CelulaID) {
		apierr.Forbidden(w)
		return memberstore.Fields{}, false
	}
	if f.CelulaID != nil {
		if _, err := h.Celulas.GetByID(ctx, authz.ChurchID(r), *f.CelulaID); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				apierr.BadRequest(w, "Celula not found.")
			} else {
				apierr.Server(w, r, h.Log, "check celula", err)
			}
			return memberstore.Fields{}, false
		}
	}
	return f, true
}

// HandleCreate handles POST /api/members. Non-admins must place the new
// member in one of their own cells.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	f, ok := h.decodeFields(ctx, w, r)
	if !ok {
		return
	}

	m, err := h.Members.Create(ctx, authz.ChurchID(r), f)
	if err != nil {
		apierr.Server(w, r, h.Log, "create member", err)
		return
	}

	actorID, churchID := auditlog.Actor(r)
	h.AuditLog.EntityChanged(ctx, r, actorID, churchID, audit.EventMemberSaved, m.ID, m.Name)
	apierr.JSON(w, http.StatusCreated, m)
}

// HandleUpdate handles PUT /api/members/{id}. The user must be able to
// manage the member both where it is and where it is moving to.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := hierarchy.ParseRequiredID(chi.URLParam(r, "id"))
	if !ok {
		apierr.NotFound(w, "Member not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	info, allowed, err := memberpolicy.CheckMemberAccess(ctx, h.DB, r, id)
	if err != nil {
		apierr.Server(w, r, h.Log, "check member access", err)
		return
	}
	if info == nil {
		apierr.NotFound(w, "Member not found.")
		return
	}
	if !allowed {
		apierr.Forbidden(w)
		return
	}

	f, ok := h.decodeFields(ctx, w, r)
	if !ok {
		return
	}

	m, err := h.Members.Update(ctx, authz.ChurchID(r), id, f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		apierr.NotFound(w, "Member not found.")
		return
	}
	if err != nil {
		apierr.Server(w, r, h.Log, "update member", err)
		return
	}

	actorID, churchID := auditlog.Actor(r)
	h.AuditLog.EntityChanged(ctx, r, actorID, churchID, audit.EventMemberSaved, m.ID, m.Name)
	apierr.JSON(w, http.StatusOK, m)
}

// HandleDelete handles DELETE /api/members/{id}. Past reports keep the id
// in their present lists.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := hierarchy.ParseRequiredID(chi.URLParam(r, "id"))
	if !ok {
		apierr.NotFound(w, "Member not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	info, allowed, err := memberpolicy.CheckMemberAccess(ctx, h.DB, r, id)
	if err != nil {
		apierr.Server(w, r, h.Log, "check member access", err)
		return
	}
	if info == nil {
		apierr.NotFound(w, "Member not found.")
		return
	}
	if !allowed {
		apierr.Forbidden(w)
		return
	}

	n, err := h.Members.Delete(ctx, authz.ChurchID(r), id)
	if err != nil {
		apierr.Server(w, r, h.Log, "delete member", err)
		return
	}
	if n == 0 {
		apierr.NotFound(w, "Member not found.")
		return
	}

	actorID, churchID := auditlog.Actor(r)
	h.AuditLog.EntityChanged(ctx, r, actorID, churchID, audit.EventMemberDeleted, id, "")
	w.WriteHeader(http.StatusNoContent)
}
