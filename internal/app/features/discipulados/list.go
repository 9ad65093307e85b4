package discipulados

import (
	"context"
	"errors"
	"net/http"

	"github.com/celulahub/celulahub/internal/app/features/shared/hierarchy"
	"github.com/celulahub/celulahub/internal/app/policy/scopepolicy"
	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"github.com/celulahub/celulahub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeList handles GET /api/discipulados[?rede=ID]. A malformed rede id
// matches nothing.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	redeID, valid := hierarchy.ParseID(r.URL.Query().Get("rede"))
	if !valid {
		apierr.JSON(w, http.StatusOK, []models.Discipulado{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.visible(ctx, r, redeID)
	if err != nil {
		apierr.Server(w, r, h.Log, "list discipulados", err)
		return
	}
	apierr.JSON(w, http.StatusOK, list)
}

// ServeView handles GET /api/discipulados/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, ok := hierarchy.ParseRequiredID(chi.URLParam(r, "id"))
	if !ok {
		apierr.NotFound(w, "Discipulado not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, err := h.Discipulados.GetByID(ctx, authz.ChurchID(r), id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		apierr.NotFound(w, "Discipulado not found.")
		return
	}
	if err != nil {
		apierr.Server(w, r, h.Log, "get discipulado", err)
		return
	}
	if !authz.IsAdmin(r) {
		visible, err := h.visible(ctx, r, nil)
		if err != nil {
			apierr.Server(w, r, h.Log, "list discipulados", err)
			return
		}
		if !containsDiscipulado(visible, id) {
			apierr.NotFound(w, "Discipulado not found.")
			return
		}
	}
	apierr.JSON(w, http.StatusOK, d)
}

func (h *Handler) visible(ctx context.Context, r *http.Request, redeID *primitive.ObjectID) ([]models.Discipulado, error) {
	churchID := authz.ChurchID(r)
	if authz.IsAdmin(r) {
		return h.Discipulados.List(ctx, churchID, redeID)
	}
	loaded := h.Loader.Load(ctx, churchID)
	if !loaded.Ready() {
		return nil, errors.New(loaded.Notices[0].Message)
	}
	return scopepolicy.PermittedDiscipulados(authz.Permission(r), loaded.Lists, redeID), nil
}

func containsDiscipulado(list []models.Discipulado, id primitive.ObjectID) bool {
	for _, d := range list {
		if d.ID == id {
			return true
		}
	}
	return false
}
