package redes

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

// ServeList handles GET /api/redes.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	redes, err := h.visible(ctx, r)
	if err != nil {
		apierr.Server(w, r, h.Log, "list redes", err)
		return
	}
	apierr.JSON(w, http.StatusOK, redes)
}

// ServeView handles GET /api/redes/{id}. Redes the user cannot see
// answer 404.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, ok := hierarchy.ParseRequiredID(chi.URLParam(r, "id"))
	if !ok {
		apierr.NotFound(w, "Rede not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rede, err := h.Redes.GetByID(ctx, authz.ChurchID(r), id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		apierr.NotFound(w, "Rede not found.")
		return
	}
	if err != nil {
		apierr.Server(w, r, h.Log, "get rede", err)
		return
	}
	if !authz.IsAdmin(r) {
		visible, err := h.visible(ctx, r)
		if err != nil {
			apierr.Server(w, r, h.Log, "list redes", err)
			return
		}
		if !containsRede(visible, id) {
			apierr.NotFound(w, "Rede not found.")
			return
		}
	}
	apierr.JSON(w, http.StatusOK, rede)
}

// visible returns every rede for admins and the permitted ones otherwise.
func (h *Handler) visible(ctx context.Context, r *http.Request) ([]models.Rede, error) {
	churchID := authz.ChurchID(r)
	if authz.IsAdmin(r) {
		return h.Redes.List(ctx, churchID)
	}
	loaded := h.Loader.Load(ctx, churchID)
	if !loaded.Ready() {
		return nil, errors.New(loaded.Notices[0].Message)
	}
	return scopepolicy.PermittedRedes(authz.Permission(r), loaded.Lists), nil
}

func containsRede(list []models.Rede, id primitive.ObjectID) bool {
	for _, r := range list {
		if r.ID == id {
			return true
		}
	}
	return false
}
