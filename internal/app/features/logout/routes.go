package logout

import "github.com/go-chi/chi/v5"

// Routes is mounted at /api/logout.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeLogout)
	return r
}
