package celulas

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
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeList handles GET /api/celulas[?discipulado=ID][&rede=ID].
// The discipulado filter wins over the rede filter. Malformed ids match
// nothing.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	discID, okDisc := hierarchy.ParseID(q.Get("discipulado"))
	redeID, okRede := hierarchy.ParseID(q.Get("rede"))
	if !okDisc || !okRede {
		apierr.JSON(w, http.StatusOK, []models.Celula{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	loaded := h.Loader.Load(ctx, authz.ChurchID(r))
	if !loaded.Ready() {
		apierr.Server(w, r, h.Log, "list celulas", errors.New(loaded.Notices[0].Message))
		return
	}
	sel := scopepolicy.Selection{RedeID: redeID, DiscipuladoID: discID}
	apierr.JSON(w, http.StatusOK, scopepolicy.PermittedCelulas(authz.Permission(r), loaded.Lists, sel))
}

// ServeView handles GET /api/celulas/{id}. Non-admins only see cells in
// their permission.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, ok := hierarchy.ParseRequiredID(chi.URLParam(r, "id"))
	if !ok || !(authz.IsAdmin(r) || authz.Permission(r).HasCelula(id)) {
		apierr.NotFound(w, "Celula not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Celulas.GetByID(ctx, authz.ChurchID(r), id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		apierr.NotFound(w, "Celula not found.")
		return
	}
	if err != nil {
		apierr.Server(w, r, h.Log, "get celula", err)
		return
	}
	apierr.JSON(w, http.StatusOK, c)
}
