package celulas

import (
	"github.com/celulahub/celulahub/internal/app/system/auth"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the celula endpoints (typically at /api/celulas).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeView)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(authz.RoleAdmin))
		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
	})
	return r
}
