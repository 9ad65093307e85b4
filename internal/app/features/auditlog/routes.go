// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/celulahub/celulahub/internal/app/system/auth"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit log endpoint (typically at /api/audit).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(authz.RoleAdmin))
	r.Get("/", h.ServeList)
	return r
}
