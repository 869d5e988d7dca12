// internal/app/system/teamctx/teamctx.go

// Package teamctx carries the resolved team session through a request.
// A Registry keeps one session.Manager per signed-in user so the active
// team survives across requests; middleware resolves the manager for the
// current user and injects a snapshot into the request context.
package teamctx

import (
	"context"
	"net/http"
	"sync"

	"github.com/msalazarj/primebug/internal/app/provider/authp"
	"github.com/msalazarj/primebug/internal/app/session"
	"github.com/msalazarj/primebug/internal/app/system/auth"
	"github.com/msalazarj/primebug/internal/app/system/httpjson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ctxKey string

const (
	sessionKey ctxKey = "teamSession"
	managerKey ctxKey = "teamManager"
)

// Registry maps signed-in users to their session managers. Managers are
// created lazily on first request and dropped at sign-out.
type Registry struct {
	profiles session.ProfileStore
	teams    session.TeamStore
	log      *zap.Logger

	mu       sync.Mutex
	managers map[string]*managerEntry
}

// managerEntry pairs a manager with the one-time first resolution, so
// requests racing on a user's first appearance all wait for it.
type managerEntry struct {
	resolve sync.Once
	m       *session.Manager
}

func NewRegistry(profiles session.ProfileStore, teams session.TeamStore, logger *zap.Logger) *Registry {
	return &Registry{
		profiles: profiles,
		teams:    teams,
		log:      logger,
		managers: make(map[string]*managerEntry),
	}
}

// ManagerFor returns the session manager for u, creating and resolving
// it on first use. Returns nil when the user id is not a valid ObjectID.
func (reg *Registry) ManagerFor(ctx context.Context, u *auth.SessionUser) *session.Manager {
	uid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		reg.log.Warn("session user carries a malformed id", zap.String("user_id", u.ID))
		return nil
	}

	reg.mu.Lock()
	e, ok := reg.managers[u.ID]
	if !ok {
		e = &managerEntry{m: session.NewManager(reg.profiles, reg.teams, reg.log)}
		reg.managers[u.ID] = e
	}
	reg.mu.Unlock()

	e.resolve.Do(func() {
		e.m.OnIdentityChange(ctx, &authp.Identity{UID: uid, DisplayName: u.Name, Email: u.Email})
	})
	return e.m
}

// Drop forgets a user's manager. Called at sign-out so the next sign-in
// starts from a fresh resolution.
func (reg *Registry) Drop(userID string) {
	reg.mu.Lock()
	delete(reg.managers, userID)
	reg.mu.Unlock()
}

// Middleware injects the team session for the signed-in user. Anonymous
// requests pass through untouched.
func Middleware(reg *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := auth.CurrentUser(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			m := reg.ManagerFor(r.Context(), u)
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), managerKey, m)
			ctx = context.WithValue(ctx, sessionKey, m.Session())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromRequest returns the team session snapshot for the request.
func FromRequest(r *http.Request) (session.Session, bool) {
	s, ok := r.Context().Value(sessionKey).(session.Session)
	return s, ok
}

// ManagerFromRequest returns the live session manager for the request.
func ManagerFromRequest(r *http.Request) (*session.Manager, bool) {
	m, ok := r.Context().Value(managerKey).(*session.Manager)
	return m, ok
}

// RequireActiveTeam ensures the request carries a session with an active
// team. Requests without one get a 400 pointing at the team chooser.
func RequireActiveTeam(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := FromRequest(r)
		if !ok || s.ActiveTeam == nil {
			httpjson.Error(w, http.StatusBadRequest, "Selecciona un equipo para continuar.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithTestSession returns a request carrying the given session snapshot.
// Exported for use in tests only.
func WithTestSession(r *http.Request, s session.Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), sessionKey, s))
}

// WithTestManager returns a request carrying a live manager plus its
// current snapshot. Exported for use in tests only.
func WithTestManager(r *http.Request, m *session.Manager) *http.Request {
	ctx := context.WithValue(r.Context(), managerKey, m)
	ctx = context.WithValue(ctx, sessionKey, m.Session())
	return r.WithContext(ctx)
}
