// internal/app/session/session.go

// Package session holds the signed-in user's derived state: identity,
// profile, team memberships, and the active team. A Manager owns one
// user's state, resolves it from the stores when identity changes, and
// notifies subscribers on every mutation.
package session

import (
	"context"
	"sync"

	"github.com/msalazarj/primebug/internal/app/provider/authp"
	"github.com/msalazarj/primebug/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ProfileStore is the slice of the profile store the resolver needs.
type ProfileStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Profile, error)
	SetLastTeam(ctx context.Context, id primitive.ObjectID, teamID *primitive.ObjectID) error
}

// TeamStore is the slice of the team store the resolver needs.
type TeamStore interface {
	GetBatchByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Team, error)
}

// Session is a point-in-time snapshot of the signed-in user's state.
// Teams is ordered; when Teams is non-empty, ActiveTeam points at one of
// its members.
type Session struct {
	Identity   *authp.Identity
	Profile    *models.Profile
	Teams      []models.Team
	ActiveTeam *models.Team
}

// SignedIn reports whether the session carries an identity.
func (s Session) SignedIn() bool { return s.Identity != nil }

// TeamPatch carries in-place edits for a team already in the session.
type TeamPatch struct {
	Name        string
	Description string
}

// Listener receives session snapshots after each mutation.
type Listener func(Session)

// Manager owns one user's session state. All methods are safe for
// concurrent use. Resolutions carry an epoch; a resolution that finishes
// after a newer identity change is discarded rather than applied.
type Manager struct {
	profiles ProfileStore
	teams    TeamStore
	log      *zap.Logger

	mu       sync.Mutex
	identity *authp.Identity
	profile  *models.Profile
	teamList []models.Team
	active   *models.Team
	epoch    uint64
	subs     map[int]Listener
	nextSub  int
}

// NewManager creates an empty, signed-out Manager.
func NewManager(profiles ProfileStore, teams TeamStore, logger *zap.Logger) *Manager {
	return &Manager{
		profiles: profiles,
		teams:    teams,
		log:      logger,
		subs:     make(map[int]Listener),
	}
}

// OnIdentityChange reacts to a sign-in or sign-out. A nil identity clears
// profile and team state synchronously; a non-nil identity runs a full
// resolution before returning.
func (m *Manager) OnIdentityChange(ctx context.Context, identity *authp.Identity) {
	m.mu.Lock()
	m.identity = identity
	m.epoch++
	epoch := m.epoch
	if identity == nil {
		m.profile = nil
		m.teamList = nil
		m.active = nil
		m.mu.Unlock()
		m.notify()
		return
	}
	uid := identity.UID
	m.mu.Unlock()

	m.resolve(ctx, uid, epoch)
}

// Refresh re-runs resolution for the current identity. No-op when the
// session is signed out.
func (m *Manager) Refresh(ctx context.Context) {
	m.mu.Lock()
	if m.identity == nil {
		m.mu.Unlock()
		return
	}
	m.epoch++
	epoch := m.epoch
	uid := m.identity.UID
	m.mu.Unlock()

	m.resolve(ctx, uid, epoch)
}

// SwitchTeam makes teamID the active team. Unknown IDs are ignored. On a
// real switch the last-active hint is persisted best effort.
func (m *Manager) SwitchTeam(ctx context.Context, teamID primitive.ObjectID) {
	m.mu.Lock()
	var picked *models.Team
	for i := range m.teamList {
		if m.teamList[i].ID == teamID {
			picked = &m.teamList[i]
			break
		}
	}
	if picked == nil {
		m.mu.Unlock()
		return
	}
	m.active = picked
	var uid primitive.ObjectID
	if m.identity != nil {
		uid = m.identity.UID
	}
	m.mu.Unlock()
	m.notify()

	if uid.IsZero() {
		return
	}
	if err := m.profiles.SetLastTeam(ctx, uid, &teamID); err != nil {
		m.log.Warn("persisting last-active team failed",
			zap.String("team_id", teamID.Hex()), zap.Error(err))
	}
}

// ApplyTeamPatch updates a team's name and description in the session
// without a store round trip. Unknown IDs are ignored.
func (m *Manager) ApplyTeamPatch(teamID primitive.ObjectID, patch TeamPatch) {
	m.mu.Lock()
	found := false
	for i := range m.teamList {
		if m.teamList[i].ID != teamID {
			continue
		}
		if patch.Name != "" {
			m.teamList[i].Name = patch.Name
		}
		m.teamList[i].Description = patch.Description
		if m.active != nil && m.active.ID == teamID {
			m.active = &m.teamList[i]
		}
		found = true
		break
	}
	m.mu.Unlock()
	if found {
		m.notify()
	}
}

// Session returns a snapshot of the current state. The returned slices
// and pointers are copies; mutating them does not affect the Manager.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers a listener called after each state change. The
// returned id detaches it via Unsubscribe.
func (m *Manager) Subscribe(fn Listener) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSub++
	id := m.nextSub
	m.subs[id] = fn
	return id
}

// Unsubscribe removes a listener. Unknown ids are ignored.
func (m *Manager) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, id)
}

func (m *Manager) snapshotLocked() Session {
	s := Session{Identity: m.identity}
	if m.profile != nil {
		p := *m.profile
		s.Profile = &p
	}
	if len(m.teamList) > 0 {
		s.Teams = make([]models.Team, len(m.teamList))
		copy(s.Teams, m.teamList)
	}
	if m.active != nil {
		for i := range s.Teams {
			if s.Teams[i].ID == m.active.ID {
				s.ActiveTeam = &s.Teams[i]
				break
			}
		}
	}
	return s
}

func (m *Manager) notify() {
	m.mu.Lock()
	snap := m.snapshotLocked()
	listeners := make([]Listener, 0, len(m.subs))
	for _, fn := range m.subs {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
