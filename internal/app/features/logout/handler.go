// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/msalazarj/primebug/internal/app/system/auth"
	"github.com/msalazarj/primebug/internal/app/system/httpjson"
	"github.com/msalazarj/primebug/internal/app/system/teamctx"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Registry   *teamctx.Registry
}

func NewHandler(sessionMgr *auth.SessionManager, registry *teamctx.Registry, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Registry:   registry,
	}
}

// HandleLogout handles POST /logout. Clears the cookie and drops the
// user's team session so the next sign-in resolves fresh.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.Registry.Drop(u.ID)
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("session clear failed during logout", zap.Error(err))
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"message": "Sesión cerrada."})
}
