package reports

import (
	"github.com/celulahub/celulahub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the report endpoints (typically at /api/reports). Access
// to each cell is decided by reportpolicy.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeMonth)
	r.Get("/plan", h.ServePlan)
	r.Post("/", h.HandleSubmit)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
