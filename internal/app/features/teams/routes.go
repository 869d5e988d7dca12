// internal/app/features/teams/routes.go
package teams

import (
	"github.com/go-chi/chi/v5"
	"github.com/msalazarj/primebug/internal/app/system/auth"
)

// Routes requires sign-in only: the team chooser has to work for users
// who do not have an active team yet.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeTeams)
	r.Post("/", h.HandleCreate)
	r.Post("/switch", h.HandleSwitch)
	r.Post("/{id}", h.HandleEdit)
	return r
}
