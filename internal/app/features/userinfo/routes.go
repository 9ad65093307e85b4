package userinfo

import "github.com/go-chi/chi/v5"

// Routes is mounted at /api/me.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeMe)
	return r
}
