// internal/domain/models/profile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile is PrimeBug's own record describing a person. The auth provider
// owns credentials; the profile owns everything else (name, role, team
// memberships). Profile.ID equals the provider identity UID.
//
// NOTE:
//   - Team membership is stored as an ordered id list on the profile
//     (team_ids). Teams never embed member lists.
//   - LastTeamID is a hint only: it may reference a team the user has
//     since left, so resolution must validate it against team_ids.
type Profile struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	FullName   string               `bson:"full_name" json:"full_name"`
	FullNameCI string               `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string               `bson:"email" json:"email"`
	Role       string               `bson:"role" json:"role"` // e.g. "Desarrollador", "QA", "Jefe de Proyecto"
	TeamIDs    []primitive.ObjectID `bson:"team_ids" json:"team_ids"`
	LastTeamID *primitive.ObjectID  `bson:"last_team_id,omitempty" json:"last_team_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MemberOf reports whether the profile's membership list contains teamID.
func (p *Profile) MemberOf(teamID primitive.ObjectID) bool {
	for _, id := range p.TeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}
