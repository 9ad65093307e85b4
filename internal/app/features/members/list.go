package members

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/celulahub/celulahub/internal/app/features/shared/hierarchy"
	"github.com/celulahub/celulahub/internal/app/policy/memberpolicy"
	memberstore "github.com/celulahub/celulahub/internal/app/store/members"
	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/app/system/normalize"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"github.com/celulahub/celulahub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// celulasFor resolves the ?celula, ?discipulado and ?rede filters to a
// set of celula ids, most specific first. A nil result means unfiltered.
// Malformed ids resolve to the empty set.
func (h *Handler) celulasFor(ctx context.Context, churchID primitive.ObjectID, q url.Values) ([]primitive.ObjectID, error) {
	if v := q.Get("celula"); v != "" {
		id, ok := hierarchy.ParseID(v)
		if !ok {
			return []primitive.ObjectID{}, nil
		}
		if id != nil {
			return []primitive.ObjectID{*id}, nil
		}
	}

	var discIDs []primitive.ObjectID
	if v := q.Get("discipulado"); v != "" {
		id, ok := hierarchy.ParseID(v)
		if !ok {
			return []primitive.ObjectID{}, nil
		}
		if id != nil {
			discIDs = []primitive.ObjectID{*id}
		}
	}
	if discIDs == nil {
		if v := q.Get("rede"); v != "" {
			id, ok := hierarchy.ParseID(v)
			if !ok {
				return []primitive.ObjectID{}, nil
			}
			if id == nil {
				return nil, nil
			}
			ds, err := h.Discipulados.List(ctx, churchID, id)
			if err != nil {
				return nil, err
			}
			discIDs = make([]primitive.ObjectID, 0, len(ds))
			for _, d := range ds {
				discIDs = append(discIDs, d.ID)
			}
		}
	}
	if discIDs == nil {
		return nil, nil
	}

	ids, err := h.Celulas.IDsByDiscipulados(ctx, churchID, discIDs)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []primitive.ObjectID{}
	}
	return ids, nil
}

// intersect keeps the ids of want that are in allowed. A nil want means
// everything allowed.
func intersect(want, allowed []primitive.ObjectID) []primitive.ObjectID {
	if want == nil {
		return append([]primitive.ObjectID{}, allowed...)
	}
	set := make(map[primitive.ObjectID]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	out := []primitive.ObjectID{}
	for _, id := range want {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// ServeList handles GET /api/members[?celula|discipulado|rede=ID][&q=][&status=].
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	scope := memberpolicy.CanListMembers(r)
	if !scope.CanList {
		apierr.JSON(w, http.StatusOK, []models.Member{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	churchID := authz.ChurchID(r)
	q := r.URL.Query()
	ids, err := h.celulasFor(ctx, churchID, q)
	if err != nil {
		apierr.Server(w, r, h.Log, "resolve member filters", err)
		return
	}
	if !scope.AllCelulas {
		ids = intersect(ids, scope.CelulaIDs)
	}

	st := normalize.Status(q.Get("status"))
	if st == "all" {
		st = ""
	}
	list, err := h.Members.List(ctx, churchID, memberstore.ListFilter{
		CelulaIDs: ids,
		Status:    st,
		Search:    normalize.QueryParam(q.Get("q")),
	})
	if err != nil {
		apierr.Server(w, r, h.Log, "list members", err)
		return
	}
	apierr.JSON(w, http.StatusOK, list)
}

// ServeView handles GET /api/members/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, ok := hierarchy.ParseRequiredID(chi.URLParam(r, "id"))
	if !ok {
		apierr.NotFound(w, "Member not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Members.GetByID(ctx, authz.ChurchID(r), id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && !memberpolicy.CanViewMember(r, m.CelulaID)) {
		apierr.NotFound(w, "Member not found.")
		return
	}
	if err != nil {
		apierr.Server(w, r, h.Log, "get member", err)
		return
	}
	apierr.JSON(w, http.StatusOK, m)
}
