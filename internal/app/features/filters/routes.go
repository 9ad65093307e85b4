package filters

import (
	"github.com/celulahub/celulahub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the filter endpoints (typically at /api/filters).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeFilters)
	r.Post("/{level}", h.HandleSet)
	return r
}
