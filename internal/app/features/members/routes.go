package members

import (
	"github.com/celulahub/celulahub/internal/app/system/auth"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the member endpoints (typically at /api/members). Write
// access is decided per member by memberpolicy, not by role; roster import
// is admin only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeView)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)

	r.With(sm.RequireRole(authz.RoleAdmin)).Post("/import", h.HandleImport)
	return r
}
