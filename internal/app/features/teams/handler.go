// internal/app/features/teams/handler.go
package teams

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	teamstore "github.com/msalazarj/primebug/internal/app/store/teams"
	"github.com/msalazarj/primebug/internal/app/session"
	"github.com/msalazarj/primebug/internal/app/system/auth"
	"github.com/msalazarj/primebug/internal/app/system/htmlsanitize"
	"github.com/msalazarj/primebug/internal/app/system/httpjson"
	"github.com/msalazarj/primebug/internal/app/system/normalize"
	"github.com/msalazarj/primebug/internal/app/system/teamctx"
	"github.com/msalazarj/primebug/internal/app/system/timeouts"
	"github.com/msalazarj/primebug/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TeamStore is the slice of the team store this feature needs.
type TeamStore interface {
	Create(ctx context.Context, t models.Team) (models.Team, error)
	Update(ctx context.Context, id primitive.ObjectID, t models.Team) error
}

// MembershipStore adds the creator to a new team.
type MembershipStore interface {
	AddTeam(ctx context.Context, id, teamID primitive.ObjectID) error
}

type Handler struct {
	Teams    TeamStore
	Profiles MembershipStore
	Log      *zap.Logger
}

func NewHandler(teams TeamStore, profiles MembershipStore, logger *zap.Logger) *Handler {
	return &Handler{Teams: teams, Profiles: profiles, Log: logger}
}

type teamResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

// ServeTeams handles GET /teams: the session's team list and which one
// is active.
func (h *Handler) ServeTeams(w http.ResponseWriter, r *http.Request) {
	s, ok := teamctx.FromRequest(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Inicia sesión para continuar.")
		return
	}

	out := make([]teamResponse, 0, len(s.Teams))
	for _, t := range s.Teams {
		out = append(out, teamResponse{
			ID:          t.ID.Hex(),
			Name:        t.Name,
			Description: t.Description,
			Active:      s.ActiveTeam != nil && s.ActiveTeam.ID == t.ID,
		})
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"teams": out})
}

type switchRequest struct {
	TeamID string `json:"team_id"`
}

// HandleSwitch handles POST /teams/switch. Switching to a team outside
// the membership list leaves the active team unchanged.
func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	m, ok := teamctx.ManagerFromRequest(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Inicia sesión para continuar.")
		return
	}

	var req switchRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Solicitud inválida.")
		return
	}
	teamID, err := primitive.ObjectIDFromHex(req.TeamID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Equipo inválido.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m.SwitchTeam(ctx, teamID)

	s := m.Session()
	resp := map[string]any{"active_team": nil}
	if s.ActiveTeam != nil {
		resp["active_team"] = teamResponse{
			ID:          s.ActiveTeam.ID.Hex(),
			Name:        s.ActiveTeam.Name,
			Description: s.ActiveTeam.Description,
			Active:      true,
		}
	}
	httpjson.Write(w, http.StatusOK, resp)
}

type teamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleCreate handles POST /teams. The creator joins the new team and
// the session re-resolves so it appears immediately.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
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

	var req teamRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Solicitud inválida.")
		return
	}
	name := normalize.Name(req.Name)
	if name == "" {
		httpjson.Error(w, http.StatusBadRequest, "El nombre del equipo es obligatorio.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	team, err := h.Teams.Create(ctx, models.Team{
		Name:        name,
		Description: htmlsanitize.Sanitize(req.Description),
	})
	if err != nil {
		if errors.Is(err, teamstore.ErrDuplicateName) {
			httpjson.Error(w, http.StatusConflict, "Ya existe un equipo con este nombre.")
			return
		}
		h.Log.Error("team creation failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "No se pudo crear el equipo. Inténtalo de nuevo.")
		return
	}

	if err := h.Profiles.AddTeam(ctx, uid, team.ID); err != nil {
		h.Log.Error("creator membership write failed",
			zap.String("team_id", team.ID.Hex()), zap.Error(err))
	}
	if m, ok := teamctx.ManagerFromRequest(r); ok {
		m.Refresh(ctx)
	}

	httpjson.Write(w, http.StatusCreated, map[string]teamResponse{"team": {
		ID:          team.ID.Hex(),
		Name:        team.Name,
		Description: team.Description,
	}})
}

// HandleEdit handles POST /teams/{id}. A successful store write also
// patches the live session so the change shows without a re-fetch.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	teamID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Equipo inválido.")
		return
	}

	s, ok := teamctx.FromRequest(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Inicia sesión para continuar.")
		return
	}
	member := false
	for _, t := range s.Teams {
		if t.ID == teamID {
			member = true
			break
		}
	}
	if !member {
		httpjson.Error(w, http.StatusForbidden, "No perteneces a este equipo.")
		return
	}

	var req teamRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Solicitud inválida.")
		return
	}
	name := normalize.Name(req.Name)
	if name == "" {
		httpjson.Error(w, http.StatusBadRequest, "El nombre del equipo es obligatorio.")
		return
	}
	description := htmlsanitize.Sanitize(req.Description)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err = h.Teams.Update(ctx, teamID, models.Team{Name: name, Description: description})
	if err != nil {
		switch {
		case errors.Is(err, teamstore.ErrDuplicateName):
			httpjson.Error(w, http.StatusConflict, "Ya existe un equipo con este nombre.")
		case errors.Is(err, teamstore.ErrNotFound):
			httpjson.Error(w, http.StatusNotFound, "Equipo no encontrado.")
		default:
			h.Log.Error("team update failed", zap.String("team_id", teamID.Hex()), zap.Error(err))
			httpjson.Error(w, http.StatusServiceUnavailable, "No se pudo guardar el equipo. Inténtalo de nuevo.")
		}
		return
	}

	if m, ok := teamctx.ManagerFromRequest(r); ok {
		m.ApplyTeamPatch(teamID, session.TeamPatch{Name: name, Description: description})
	}

	httpjson.Write(w, http.StatusOK, map[string]teamResponse{"team": {
		ID:          teamID.Hex(),
		Name:        name,
		Description: description,
	}})
}
