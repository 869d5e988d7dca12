// internal/app/features/signup/handler.go
package signup

import (
	"context"
	"net/http"

	"github.com/msalazarj/primebug/internal/app/provider/authp"
	"github.com/msalazarj/primebug/internal/app/system/auth"
	"github.com/msalazarj/primebug/internal/app/system/httpjson"
	"github.com/msalazarj/primebug/internal/app/system/normalize"
	"github.com/msalazarj/primebug/internal/app/system/ratelimit"
	"github.com/msalazarj/primebug/internal/app/system/timeouts"
	"github.com/msalazarj/primebug/internal/domain/models"
	"go.uber.org/zap"
)

// ProfileCreator writes the profile row that accompanies a new account.
type ProfileCreator interface {
	Create(ctx context.Context, p models.Profile) (models.Profile, error)
}

type Handler struct {
	Provider   authp.Provider
	SessionMgr *auth.SessionManager
	Profiles   ProfileCreator
	Limiter    *ratelimit.Limiter
	Log        *zap.Logger
}

func NewHandler(provider authp.Provider, sm *auth.SessionManager, profiles ProfileCreator, limiter *ratelimit.Limiter, logger *zap.Logger) *Handler {
	return &Handler{
		Provider:   provider,
		SessionMgr: sm,
		Profiles:   profiles,
		Limiter:    limiter,
		Log:        logger,
	}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// HandleSignup handles POST /signup. A successful signup creates the
// credential, a profile with no team memberships, and a session cookie.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if !h.Limiter.Allow(ratelimit.ClientKey(r)) {
		httpjson.Error(w, http.StatusTooManyRequests, "Demasiados intentos. Espera un momento antes de volver a intentarlo.")
		return
	}

	var req signupRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Solicitud inválida.")
		return
	}
	email := normalize.Email(req.Email)
	name := normalize.Name(req.FullName)
	if email == "" || req.Password == "" || name == "" {
		httpjson.Error(w, http.StatusBadRequest, "Nombre, correo y contraseña son obligatorios.")
		return
	}

	// Signup writes the identity and then the profile, so it gets the
	// multi-collection tier.
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	identity, err := h.Provider.SignUp(ctx, email, req.Password, name)
	if err != nil {
		switch authp.CodeOf(err) {
		case authp.CodeEmailInUse:
			httpjson.Error(w, http.StatusConflict, "Ya existe una cuenta con este correo.")
		case authp.CodeWeakPassword:
			httpjson.Error(w, http.StatusBadRequest, "La contraseña debe tener al menos 8 caracteres.")
		default:
			h.Log.Error("signup failed", zap.String("email", email), zap.Error(err))
			httpjson.Error(w, http.StatusServiceUnavailable, "El servicio no está disponible. Inténtalo más tarde.")
		}
		return
	}

	profile, err := h.Profiles.Create(ctx, models.Profile{
		ID:       identity.UID,
		FullName: name,
		Email:    email,
		Role:     "member",
	})
	if err != nil {
		// The credential exists but the profile does not; nothing
		// recreates it later, so surface the failure.
		h.Log.Error("profile creation after signup failed",
			zap.String("uid", identity.UID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "El servicio no está disponible. Inténtalo más tarde.")
		return
	}

	user := auth.SessionUser{
		ID:    identity.UID.Hex(),
		Name:  profile.FullName,
		Email: email,
		Role:  profile.Role,
	}
	if err := h.SessionMgr.SignIn(w, r, user); err != nil {
		h.Log.Error("session write failed after signup", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Cuenta creada; inicia sesión manualmente.")
		return
	}

	httpjson.Write(w, http.StatusCreated, map[string]any{"user": map[string]string{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	}})
}
