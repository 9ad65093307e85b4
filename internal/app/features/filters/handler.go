// Package filters serves the rede, discipulado and celula filter cascade.
// The selection lives in the session cookie; API-key clients get a fresh,
// unsaved filter on every call.
package filters

import (
	"context"
	"net/http"

	"github.com/celulahub/celulahub/internal/app/features/shared/hierarchy"
	"github.com/celulahub/celulahub/internal/app/policy/scopepolicy"
	"github.com/celulahub/celulahub/internal/app/system/auth"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	SessionMgr *auth.SessionManager
	Loader     *hierarchy.Loader
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sm *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		SessionMgr: sm,
		Loader:     hierarchy.NewLoader(db, logger),
		Log:        logger,
	}
}

// Response is the body of both filter endpoints.
type Response struct {
	Redes        []models.Rede         `json:"redes"`
	Discipulados []models.Discipulado  `json:"discipulados"`
	Celulas      []models.Celula       `json:"celulas"`
	Selection    scopepolicy.Selection `json:"selection"`
	Initialized  bool                  `json:"initialized"`
	Notices      []hierarchy.Notice    `json:"notices"`
}

// restore loads the lists and rebuilds the session's filter, running
// auto-init when this is the first call with every level loaded.
func (h *Handler) restore(ctx context.Context, r *http.Request) (*scopepolicy.Filter, hierarchy.Loaded) {
	loaded := h.Loader.Load(ctx, authz.ChurchID(r))
	fv := h.SessionMgr.LoadFilter(r)
	sel := scopepolicy.Selection{
		RedeID:        storedID(fv.RedeID),
		DiscipuladoID: storedID(fv.DiscipuladoID),
		CelulaID:      storedID(fv.CelulaID),
	}
	f := scopepolicy.NewFilter(authz.Permission(r), loaded.Lists, sel, scopepolicy.ParseInitState(fv.Init))
	f.AutoInit(loaded.Ready())
	return f, loaded
}

// save persists f. A failed save is logged; the response still reflects f.
func (h *Handler) save(w http.ResponseWriter, r *http.Request, f *scopepolicy.Filter) {
	sel := f.Selection()
	err := h.SessionMgr.SaveFilter(w, r, auth.FilterValues{
		RedeID:        hexOf(sel.RedeID),
		DiscipuladoID: hexOf(sel.DiscipuladoID),
		CelulaID:      hexOf(sel.CelulaID),
		Init:          f.InitState().String(),
	})
	if err != nil {
		h.Log.Warn("failed to save filter state", zap.Error(err))
	}
}

func respond(f *scopepolicy.Filter, loaded hierarchy.Loaded) Response {
	notices := loaded.Notices
	if notices == nil {
		notices = []hierarchy.Notice{}
	}
	return Response{
		Redes:        f.Redes(),
		Discipulados: f.Discipulados(),
		Celulas:      f.Celulas(),
		Selection:    f.Selection(),
		Initialized:  f.InitState() == scopepolicy.Initialized,
		Notices:      notices,
	}
}

func storedID(s string) *primitive.ObjectID {
	id, ok := hierarchy.ParseID(s)
	if !ok {
		return nil
	}
	return id
}

func hexOf(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}
