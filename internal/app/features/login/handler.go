// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"

	"github.com/msalazarj/primebug/internal/app/provider/authp"
	profilestore "github.com/msalazarj/primebug/internal/app/store/profiles"
	"github.com/msalazarj/primebug/internal/app/system/auth"
	"github.com/msalazarj/primebug/internal/app/system/httpjson"
	"github.com/msalazarj/primebug/internal/app/system/normalize"
	"github.com/msalazarj/primebug/internal/app/system/ratelimit"
	"github.com/msalazarj/primebug/internal/app/system/timeouts"
	"github.com/msalazarj/primebug/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ProfileGetter is the profile lookup the login flow needs for role
// hydration.
type ProfileGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Profile, error)
}

// LoginRecorder writes the sign-in audit trail. Nil disables recording.
type LoginRecorder interface {
	CreateFrom(ctx context.Context, r *http.Request, userID primitive.ObjectID, provider string) error
}

type Handler struct {
	Provider   authp.Provider
	SessionMgr *auth.SessionManager
	Profiles   ProfileGetter
	Logins     LoginRecorder
	Limiter    *ratelimit.Limiter
	Log        *zap.Logger
}

func NewHandler(provider authp.Provider, sm *auth.SessionManager, profiles ProfileGetter, logins LoginRecorder, limiter *ratelimit.Limiter, logger *zap.Logger) *Handler {
	return &Handler{
		Provider:   provider,
		SessionMgr: sm,
		Profiles:   profiles,
		Logins:     logins,
		Limiter:    limiter,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HandleLogin handles POST /login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.Limiter.Allow(ratelimit.ClientKey(r)) {
		httpjson.Error(w, http.StatusTooManyRequests, "Demasiados intentos. Espera un momento antes de volver a intentarlo.")
		return
	}

	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Solicitud inválida.")
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		httpjson.Error(w, http.StatusBadRequest, "Correo y contraseña son obligatorios.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	identity, err := h.Provider.SignIn(ctx, email, req.Password)
	if err != nil {
		switch authp.CodeOf(err) {
		case authp.CodeInvalidCredentials:
			httpjson.Error(w, http.StatusUnauthorized, "Correo o contraseña incorrectos.")
		default:
			h.Log.Error("sign-in failed", zap.String("email", email), zap.Error(err))
			httpjson.Error(w, http.StatusServiceUnavailable, "El servicio no está disponible. Inténtalo más tarde.")
		}
		return
	}

	role := "member"
	name := identity.DisplayName
	profile, perr := h.Profiles.GetByID(ctx, identity.UID)
	if perr == nil {
		if profile.Role != "" {
			role = profile.Role
		}
		if profile.FullName != "" {
			name = profile.FullName
		}
	} else if !errors.Is(perr, profilestore.ErrNotFound) {
		h.Log.Warn("profile lookup during sign-in failed",
			zap.String("uid", identity.UID.Hex()), zap.Error(perr))
	}

	user := auth.SessionUser{
		ID:    identity.UID.Hex(),
		Name:  name,
		Email: identity.Email,
		Role:  role,
	}
	if err := h.SessionMgr.SignIn(w, r, user); err != nil {
		h.Log.Error("session write failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "No se pudo iniciar la sesión. Inténtalo de nuevo.")
		return
	}

	if h.Logins != nil {
		if err := h.Logins.CreateFrom(ctx, r, identity.UID, "password"); err != nil {
			h.Log.Warn("login record write failed", zap.String("uid", identity.UID.Hex()), zap.Error(err))
		}
	}

	httpjson.Write(w, http.StatusOK, map[string]userResponse{"user": {
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}})
}

type resetRequest struct {
	Email string `json:"email"`
}

// HandleReset handles POST /login/reset. The response never reveals
// whether the address has an account.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if !h.Limiter.Allow(ratelimit.ClientKey(r)) {
		httpjson.Error(w, http.StatusTooManyRequests, "Demasiados intentos. Espera un momento antes de volver a intentarlo.")
		return
	}

	var req resetRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Solicitud inválida.")
		return
	}
	email := normalize.Email(req.Email)
	if email == "" {
		httpjson.Error(w, http.StatusBadRequest, "El correo es obligatorio.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Provider.SendPasswordReset(ctx, email); err != nil {
		// Logged only; unknown accounts and delivery failures look the
		// same to the caller.
		h.Log.Warn("password reset dispatch failed", zap.String("email", email), zap.Error(err))
	}

	httpjson.Write(w, http.StatusOK, map[string]string{
		"message": "Si el correo está registrado, recibirás un enlace para restablecer tu contraseña.",
	})
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// HandleResetConfirm handles POST /login/reset/confirm.
func (h *Handler) HandleResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Solicitud inválida.")
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		httpjson.Error(w, http.StatusBadRequest, "Token y contraseña nueva son obligatorios.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Provider.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		switch authp.CodeOf(err) {
		case authp.CodeExpiredToken:
			httpjson.Error(w, http.StatusBadRequest, "El enlace ha expirado. Solicita uno nuevo.")
		case authp.CodeWeakPassword:
			httpjson.Error(w, http.StatusBadRequest, "La contraseña debe tener al menos 8 caracteres.")
		default:
			h.Log.Error("password reset failed", zap.Error(err))
			httpjson.Error(w, http.StatusServiceUnavailable, "El servicio no está disponible. Inténtalo más tarde.")
		}
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"message": "Contraseña actualizada. Ya puedes iniciar sesión."})
}
