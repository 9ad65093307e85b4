package login

import "github.com/go-chi/chi/v5"

// Routes is mounted at /api/login.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleLogin)
	return r
}
