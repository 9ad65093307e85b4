package apikeys

import (
	"github.com/celulahub/celulahub/internal/app/system/auth"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the API key endpoints (typically at /api/apikeys).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(authz.RoleAdmin))

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Delete("/{id}", h.HandleRevoke)
	return r
}
