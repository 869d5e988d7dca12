// internal/app/features/documents/routes.go
package documents

import (
	"github.com/go-chi/chi/v5"
	"github.com/msalazarj/primebug/internal/app/system/auth"
	"github.com/msalazarj/primebug/internal/app/system/teamctx"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(teamctx.RequireActiveTeam)
	r.Get("/", h.ServeList)
	r.Post("/upload", h.HandleUpload)
	r.Get("/upload/{id}/events", h.ServeEvents)
	return r
}
