package discipulados

import (
	"context"
	"errors"
	"net/http"

	"github.com/celulahub/celulahub/internal/app/features/shared/hierarchy"
	"github.com/celulahub/celulahub/internal/app/store/audit"
	discipuladostore "github.com/celulahub/celulahub/internal/app/store/discipulados"
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

type checkedInput struct {
	Name         string
	RedeID       primitive.ObjectID
	Discipulador *primitive.ObjectID
}

// decodeInput validates the body and checks that the rede and the
// discipulador belong to the church. It writes the error response itself.
func (h *Handler) decodeInput(ctx context.Context, w http.ResponseWriter, r *http.Request) (checkedInput, bool) {
	var in discipuladoInput
	if err := apierr.Decode(r, &in); err != nil {
		apierr.BadRequest(w, "Invalid JSON body.")
		return checkedInput{}, false
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apierr.BadRequest(w, res.All())
		return checkedInput{}, false
	}

	churchID := authz.ChurchID(r)
	redeID, _ := hierarchy.ParseRequiredID(in.RedeID)
	if _, err := h.Redes.GetByID(ctx, churchID, redeID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apierr.BadRequest(w, "Rede not found.")
		} else {
			apierr.Server(w, r, h.Log, "check rede", err)
		}
		return checkedInput{}, false
	}

	disc := hierarchy.OptionalID(in.DiscipuladorMemberID)
	exists, err := hierarchy.MemberExists(ctx, h.Members, churchID, disc)
	if err != nil {
		apierr.Server(w, r, h.Log, "check discipulador member", err)
		return checkedInput{}, false
	}
	if !exists {
		apierr.BadRequest(w, "Discipulador is not a member of this church.")
		return checkedInput{}, false
	}
	return checkedInput{Name: in.Name, RedeID: redeID, Discipulador: disc}, true
}

// HandleCreate handles POST /api/discipulados.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	in, ok := h.decodeInput(ctx, w, r)
	if !ok {
		return
	}

	d, err := h.Discipulados.Create(ctx, models.Discipulado{
		ChurchID:             authz.ChurchID(r),
		Name:                 in.Name,
		RedeID:               in.RedeID,
		DiscipuladorMemberID: in.Discipulador,
	})
	if errors.Is(err, discipuladostore.ErrDuplicateName) {
		apierr.Conflict(w, "duplicate_name", "A discipulado with that name already exists in this rede.")
		return
	}
	if err != nil {
		apierr.Server(w, r, h.Log, "create discipulado", err)
		return
	}

	actorID, churchID := auditlog.Actor(r)
	h.AuditLog.EntityChanged(ctx, r, actorID, churchID, audit.EventDiscipuladoSaved, d.ID, d.Name)
	apierr.JSON(w, http.StatusCreated, d)
}

// HandleUpdate handles PUT /api/discipulados/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := hierarchy.ParseRequiredID(chi.URLParam(r, "id"))
	if !ok {
		apierr.NotFound(w, "Discipulado not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	in, ok := h.decodeInput(ctx, w, r)
	if !ok {
		return
	}

	d, err := h.Discipulados.Update(ctx, authz.ChurchID(r), id, in.Name, in.RedeID, in.Discipulador)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		apierr.NotFound(w, "Discipulado not found.")
		return
	case errors.Is(err, discipuladostore.ErrDuplicateName):
		apierr.Conflict(w, "duplicate_name", "A discipulado with that name already exists in this rede.")
		return
	case err != nil:
		apierr.Server(w, r, h.Log, "update discipulado", err)
		return
	}

	actorID, churchID := auditlog.Actor(r)
	h.AuditLog.EntityChanged(ctx, r, actorID, churchID, audit.EventDiscipuladoSaved, d.ID, d.Name)
	apierr.JSON(w, http.StatusOK, d)
}

// HandleDelete handles DELETE /api/discipulados/{id}. Discipulados that
// still have celulas answer 409.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := hierarchy.ParseRequiredID(chi.URLParam(r, "id"))
	if !ok {
		apierr.NotFound(w, "Discipulado not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	n, err := h.Discipulados.Delete(ctx, authz.ChurchID(r), id)
	if errors.Is(err, discipuladostore.ErrInUse) {
		apierr.Conflict(w, "in_use", "Move or delete this discipulado's celulas first.")
		return
	}
	if err != nil {
		apierr.Server(w, r, h.Log, "delete discipulado", err)
		return
	}
	if n == 0 {
		apierr.NotFound(w, "Discipulado not found.")
		return
	}

	actorID, churchID := auditlog.Actor(r)
	h.AuditLog.EntityChanged(ctx, r, actorID, churchID, audit.EventDiscipuladoDelete, id, "")
	w.WriteHeader(http.StatusNoContent)
}
