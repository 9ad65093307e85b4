package filters

import (
	"context"
	"net/http"

	"github.com/celulahub/celulahub/internal/app/features/shared/hierarchy"
	"github.com/celulahub/celulahub/internal/app/policy/scopepolicy"
	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeFilters handles GET /api/filters.
func (h *Handler) ServeFilters(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	f, loaded := h.restore(ctx, r)
	h.save(w, r, f)
	apierr.JSON(w, http.StatusOK, respond(f, loaded))
}

type setInput struct {
	ID *string `json:"id"`
}

// HandleSet handles POST /api/filters/{level} with {"id": ID|"all"|null}.
// The id must be one of the level's current candidates.
func (h *Handler) HandleSet(w http.ResponseWriter, r *http.Request) {
	level := chi.URLParam(r, "level")
	switch level {
	case hierarchy.LevelRede, hierarchy.LevelDiscipulado, hierarchy.LevelCelula:
	default:
		apierr.NotFound(w, "Unknown filter level.")
		return
	}

	var in setInput
	if err := apierr.Decode(r, &in); err != nil {
		apierr.BadRequest(w, "Invalid JSON body.")
		return
	}
	var raw string
	if in.ID != nil {
		raw = *in.ID
	}
	id, ok := hierarchy.ParseID(raw)
	if !ok {
		apierr.BadRequest(w, "Invalid id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	f, loaded := h.restore(ctx, r)
	if id != nil && !isCandidate(f, level, *id) {
		apierr.BadRequest(w, "That option is not available.")
		return
	}

	switch level {
	case hierarchy.LevelRede:
		f.HandleRedeChange(id)
	case hierarchy.LevelDiscipulado:
		f.HandleDiscipuladoChange(id)
	case hierarchy.LevelCelula:
		f.HandleCelulaChange(id)
	}
	h.save(w, r, f)
	apierr.JSON(w, http.StatusOK, respond(f, loaded))
}

func isCandidate(f *scopepolicy.Filter, level string, id primitive.ObjectID) bool {
	switch level {
	case hierarchy.LevelRede:
		for _, x := range f.Redes() {
			if x.ID == id {
				return true
			}
		}
	case hierarchy.LevelDiscipulado:
		for _, x := range f.Discipulados() {
			if x.ID == id {
				return true
			}
		}
	case hierarchy.LevelCelula:
		for _, x := range f.Celulas() {
			if x.ID == id {
				return true
			}
		}
	}
	return false
}
