package celulas

import (
	"context"
	"errors"
	"net/http"

	"github.com/celulahub/celulahub/internal/app/features/shared/hierarchy"
	"github.com/celulahub/celulahub/internal/app/store/audit"
	celulastore "github.com/celulahub/celulahub/internal/app/store/celulas"
	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/app/system/inputval"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// decodeFields validates the body and checks the referenced discipulado
// and leader. It writes the error response itself.
func (h *Handler) decodeFields(ctx context.Context, w http.ResponseWriter, r *http.Request) (celulastore.Fields, bool) {
	var in celulaInput
	if err := apierr.Decode(r, &in); err != nil {
		apierr.BadRequest(w, "Invalid JSON body.")
		return celulastore.Fields{}, false
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apierr.BadRequest(w, res.All())
		return celulastore.Fields{}, false
	}

	churchID := authz.ChurchID(r)
	f := celulastore.Fields{
		Name:           in.Name,
		Weekday:        in.Weekday,
		Time:           in.Time,
		DiscipuladoID:  hierarchy.OptionalID(in.DiscipuladoID),
		LeaderMemberID: hierarchy.OptionalID(in.LeaderMemberID),
	}
	if f.Time != nil && *f.Time == "" {
		f.Time = nil
	}

	if f.DiscipuladoID != nil {
		if _, err := h.Discipulados.GetByID(ctx, churchID, *f.DiscipuladoID); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				apierr.BadRequest(w, "Discipulado not found.")
			} else {
				apierr.Server(w, r, h.Log, "check discipulado", err)
			}
			return celulastore.Fields{}, false
		}
	}
	exists, err := hierarchy.MemberExists(ctx, h.Members, churchID, f.LeaderMemberID)
	if err != nil {
		apierr.Server(w, r, h.Log, "check leader member", err)
		return celulastore.Fields{}, false
	}
	if !exists {
		apierr.BadRequest(w, "Leader is not a member of this church.")
		return celulastore.Fields{}, false
	}
	return f, true
}

// HandleCreate handles POST /api/celulas.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	f, ok := h.decodeFields(ctx, w, r)
	if !ok {
		return
	}

	c, err := h.Celulas.Create(ctx, authz.ChurchID(r), f)
	if errors.Is(err, celulastore.ErrDuplicateName) {
		apierr.Conflict(w, "duplicate_name", "A celula with that name already exists.")
		return
	}
	if err != nil {
		apierr.Server(w, r, h.Log, "create celula", err)
		return
	}

	actorID, churchID := auditlog.Actor(r)
	h.AuditLog.EntityChanged(ctx, r, actorID, churchID, audit.EventCelulaSaved, c.ID, c.Name)
	apierr.JSON(w, http.StatusCreated, c)
}

// HandleUpdate handles PUT /api/celulas/{id}. Omitted optional fields are
// cleared. Existing reports are not revalidated against a new weekday.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := hierarchy.ParseRequiredID(chi.URLParam(r, "id"))
	if !ok {
		apierr.NotFound(w, "Celula not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	f, ok := h.decodeFields(ctx, w, r)
	if !ok {
		return
	}

	c, err := h.Celulas.Update(ctx, authz.ChurchID(r), id, f)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		apierr.NotFound(w, "Celula not found.")
		return
	case errors.Is(err, celulastore.ErrDuplicateName):
		apierr.Conflict(w, "duplicate_name", "A celula with that name already exists.")
		return
	case err != nil:
		apierr.Server(w, r, h.Log, "update celula", err)
		return
	}

	actorID, churchID := auditlog.Actor(r)
	h.AuditLog.EntityChanged(ctx, r, actorID, churchID, audit.EventCelulaSaved, c.ID, c.Name)
	apierr.JSON(w, http.StatusOK, c)
}

// HandleDelete handles DELETE /api/celulas/{id}. Members are detached and
// the cell's reports are kept.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := hierarchy.ParseRequiredID(chi.URLParam(r, "id"))
	if !ok {
		apierr.NotFound(w, "Celula not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	n, err := h.Celulas.Delete(ctx, authz.ChurchID(r), id)
	if err != nil {
		apierr.Server(w, r, h.Log, "delete celula", err)
		return
	}
	if n == 0 {
		apierr.NotFound(w, "Celula not found.")
		return
	}

	actorID, churchID := auditlog.Actor(r)
	h.AuditLog.EntityChanged(ctx, r, actorID, churchID, audit.EventCelulaDeleted, id, "")
	w.WriteHeader(http.StatusNoContent)
}
