// internal/app/features/profile/handler.go
package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/msalazarj/primebug/internal/app/provider/authp"
	profilestore "github.com/msalazarj/primebug/internal/app/store/profiles"
	"github.com/msalazarj/primebug/internal/app/system/auth"
	"github.com/msalazarj/primebug/internal/app/system/httpjson"
	"github.com/msalazarj/primebug/internal/app/system/normalize"
	"github.com/msalazarj/primebug/internal/app/system/timeouts"
	"github.com/msalazarj/primebug/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ProfileStore is the slice of the profile store this feature needs.
type ProfileStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Profile, error)
	Update(ctx context.Context, id primitive.ObjectID, p models.Profile) error
}

type Handler struct {
	Profiles   ProfileStore
	Provider   authp.Provider
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(profiles ProfileStore, provider authp.Provider, sm *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles:   profiles,
		Provider:   provider,
		SessionMgr: sm,
		Log:        logger,
	}
}

type profileResponse struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Role     string   `json:"role"`
	TeamIDs  []string `json:"team_ids"`
}

func toResponse(p models.Profile) profileResponse {
	teamIDs := make([]string, 0, len(p.TeamIDs))
	for _, id := range p.TeamIDs {
		teamIDs = append(teamIDs, id.Hex())
	}
	return profileResponse{
		ID:       p.ID.Hex(),
		FullName: p.FullName,
		Email:    p.Email,
		Role:     p.Role,
		TeamIDs:  teamIDs,
	}
}

// ServeProfile handles GET /profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Inicia sesión para continuar.")
		return
	}
	uid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Sesión inválida.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Profiles.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, profilestore.ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, "Perfil no encontrado.")
			return
		}
		h.Log.Error("profile fetch failed", zap.String("uid", user.ID), zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "El servicio no está disponible. Inténtalo más tarde.")
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]profileResponse{"profile": toResponse(p)})
}

type updateRequest struct {
	FullName string `json:"full_name"`
}

// HandleUpdate handles POST /profile.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Inicia sesión para continuar.")
		return
	}
	uid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Sesión inválida.")
		return
	}

	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Solicitud inválida.")
		return
	}
	name := normalize.Name(req.FullName)
	if name == "" {
		httpjson.Error(w, http.StatusBadRequest, "El nombre es obligatorio.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Profiles.Update(ctx, uid, models.Profile{FullName: name}); err != nil {
		h.Log.Error("profile update failed", zap.String("uid", user.ID), zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "No se pudo guardar el perfil. Inténtalo de nuevo.")
		return
	}

	// Keep the cached session name in step with the profile.
	if err := h.SessionMgr.UpdateName(w, r, name); err != nil {
		h.Log.Warn("session name refresh failed", zap.Error(err))
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"message": "Perfil actualizado.", "full_name": name})
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HandlePassword handles POST /profile/password.
func (h *Handler) HandlePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Inicia sesión para continuar.")
		return
	}
	uid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Sesión inválida.")
		return
	}

	var req passwordRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Solicitud inválida.")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		httpjson.Error(w, http.StatusBadRequest, "Contraseña actual y nueva son obligatorias.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Provider.UpdatePassword(ctx, uid, req.CurrentPassword, req.NewPassword); err != nil {
		switch authp.CodeOf(err) {
		case authp.CodeRequiresRecentAuth:
			httpjson.Error(w, http.StatusUnauthorized, "La contraseña actual no es correcta.")
		case authp.CodeWeakPassword:
			httpjson.Error(w, http.StatusBadRequest, "La contraseña debe tener al menos 8 caracteres.")
		default:
			h.Log.Error("password change failed", zap.String("uid", user.ID), zap.Error(err))
			httpjson.Error(w, http.StatusServiceUnavailable, "El servicio no está disponible. Inténtalo más tarde.")
		}
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"message": "Contraseña actualizada."})
}
