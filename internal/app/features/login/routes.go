// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleLogin)
	r.Post("/reset", h.HandleReset)
	r.Post("/reset/confirm", h.HandleResetConfirm)
	return r
}
