// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/google/uuid"
	profilestore "github.com/msalazarj/primebug/internal/app/store/profiles"
	"github.com/msalazarj/primebug/internal/app/system/auth"
	"github.com/msalazarj/primebug/internal/app/system/normalize"
	"github.com/msalazarj/primebug/internal/app/system/timeouts"
	"github.com/msalazarj/primebug/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// stateTTL bounds how long a pending OAuth round trip stays valid.
const stateTTL = 10 * time.Minute

// ProfileStore is the slice of the profile store this feature needs.
// Sign-in upserts: an unknown Google account gets a fresh member profile.
type ProfileStore interface {
	GetByEmail(ctx context.Context, email string) (models.Profile, error)
	Create(ctx context.Context, p models.Profile) (models.Profile, error)
}

// StateStore persists one-time CSRF states across the redirect round trip.
type StateStore interface {
	Save(ctx context.Context, state, returnURL string, expiresAt time.Time) error
	Validate(ctx context.Context, state string) (returnURL string, valid bool, err error)
}

// LoginRecorder writes the sign-in audit trail. Nil disables recording.
type LoginRecorder interface {
	CreateFrom(ctx context.Context, r *http.Request, userID primitive.ObjectID, provider string) error
}

type Handler struct {
	Profiles   ProfileStore
	SessionMgr *auth.SessionManager
	States     StateStore
	Logins     LoginRecorder
	Log        *zap.Logger

	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint and UserInfoURL default to Google's; tests point them at
	// local servers.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

func NewHandler(
	profiles ProfileStore,
	sessionMgr *auth.SessionManager,
	states StateStore,
	logins LoginRecorder,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Profiles:     profiles,
		SessionMgr:   sessionMgr,
		States:       states,
		Logins:       logins,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		Endpoint:     google.Endpoint,
		UserInfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured reports whether Google OAuth credentials are present.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeLogin handles GET /auth/google: stores a one-time state and sends
// the browser to Google's consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("google oauth not configured")
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state := uuid.NewString()
	returnURL := r.URL.Query().Get("return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(stateTTL)
	if err := h.States.Save(ctx, state, returnURL, expiresAt); err != nil {
		h.Log.Error("oauth state save failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	url := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /auth/google/callback: validates the state,
// exchanges the code, and signs the Google account into a profile.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("google oauth denied",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, "/login?error=google_denied", http.StatusSeeOther)
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.States.Validate(ctxTimeout, state)
	if err != nil {
		h.Log.Error("oauth state validation failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired oauth state")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/login?error=invalid_code", http.StatusSeeOther)
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("oauth code exchange failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange", http.StatusSeeOther)
		return
	}

	googleUser, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("google user info fetch failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}

	profile, err := h.findOrCreateProfile(ctxTimeout, googleUser)
	if err != nil {
		h.Log.Error("profile upsert failed",
			zap.String("email", googleUser.Email), zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:    profile.ID.Hex(),
		Name:  profile.FullName,
		Email: profile.Email,
		Role:  profile.Role,
	}); err != nil {
		h.Log.Error("session write failed", zap.String("uid", profile.ID.Hex()), zap.Error(err))
		http.Redirect(w, r, "/login?error=session", http.StatusSeeOther)
		return
	}

	if h.Logins != nil {
		if err := h.Logins.CreateFrom(ctxTimeout, r, profile.ID, "google"); err != nil {
			h.Log.Warn("login record write failed", zap.String("uid", profile.ID.Hex()), zap.Error(err))
		}
	}

	h.Log.Info("user signed in via google",
		zap.String("uid", profile.ID.Hex()),
		zap.String("email", profile.Email))

	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/"), http.StatusSeeOther)
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &info, nil
}

// findOrCreateProfile maps the Google account onto a profile by email,
// creating a member profile on first sign-in.
func (h *Handler) findOrCreateProfile(ctx context.Context, u *googleUserInfo) (models.Profile, error) {
	email := normalize.Email(u.Email)
	if email == "" {
		return models.Profile{}, errors.New("google account has no email")
	}

	profile, err := h.Profiles.GetByEmail(ctx, email)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, profilestore.ErrNotFound) {
		return models.Profile{}, err
	}

	return h.Profiles.Create(ctx, models.Profile{
		FullName: normalize.Name(u.Name),
		Email:    email,
		Role:     "member",
	})
}
