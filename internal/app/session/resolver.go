// internal/app/session/resolver.go
package session

import (
	"context"
	"errors"

	profilestore "github.com/msalazarj/primebug/internal/app/store/profiles"
	"github.com/msalazarj/primebug/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// resolve fetches the profile and team list for uid and applies the
// result under the epoch guard. Fetch failures are logged, never
// returned: a user with an unreadable profile simply gets an empty team
// state.
func (m *Manager) resolve(ctx context.Context, uid primitive.ObjectID, epoch uint64) {
	profile, err := m.profiles.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, profilestore.ErrNotFound) {
			m.log.Warn("profile missing for signed-in user", zap.String("uid", uid.Hex()))
		} else {
			m.log.Warn("profile fetch failed", zap.String("uid", uid.Hex()), zap.Error(err))
		}
		m.apply(epoch, nil, nil)
		return
	}

	if len(profile.TeamIDs) == 0 {
		m.apply(epoch, &profile, nil)
		return
	}

	teams, err := m.teams.GetBatchByIDs(ctx, profile.TeamIDs)
	if err != nil {
		m.log.Warn("team batch fetch failed", zap.String("uid", uid.Hex()), zap.Error(err))
		m.apply(epoch, &profile, nil)
		return
	}
	m.apply(epoch, &profile, teams)
}

// apply installs a resolution result if epoch is still current. Stale
// results are dropped so an older, slower resolution can never overwrite
// the state of a newer identity.
func (m *Manager) apply(epoch uint64, profile *models.Profile, teams []models.Team) {
	m.mu.Lock()
	if epoch != m.epoch {
		m.mu.Unlock()
		m.log.Debug("discarding stale resolution", zap.Uint64("epoch", epoch))
		return
	}

	prevActiveID := primitive.NilObjectID
	if m.active != nil {
		prevActiveID = m.active.ID
	}

	m.profile = profile
	m.teamList = teams
	m.active = pickActive(teams, prevActiveID, lastTeamHint(profile))
	m.mu.Unlock()

	m.notify()
}

func lastTeamHint(profile *models.Profile) primitive.ObjectID {
	if profile == nil || profile.LastTeamID == nil {
		return primitive.NilObjectID
	}
	return *profile.LastTeamID
}

// pickActive chooses the active team: the previous active when it is
// still a member, else the last-active hint, else the first fetched team.
func pickActive(teams []models.Team, prevActiveID, hint primitive.ObjectID) *models.Team {
	if len(teams) == 0 {
		return nil
	}
	if !prevActiveID.IsZero() {
		for i := range teams {
			if teams[i].ID == prevActiveID {
				return &teams[i]
			}
		}
	}
	if !hint.IsZero() {
		for i := range teams {
			if teams[i].ID == hint {
				return &teams[i]
			}
		}
	}
	return &teams[0]
}
