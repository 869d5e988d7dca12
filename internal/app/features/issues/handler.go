// internal/app/features/issues/handler.go
package issues

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/msalazarj/primebug/internal/app/issuewatch"
	issuestore "github.com/msalazarj/primebug/internal/app/store/issues"
	"github.com/msalazarj/primebug/internal/app/system/auth"
	"github.com/msalazarj/primebug/internal/app/system/htmlsanitize"
	"github.com/msalazarj/primebug/internal/app/system/httpjson"
	"github.com/msalazarj/primebug/internal/app/system/inputval"
	"github.com/msalazarj/primebug/internal/app/system/normalize"
	"github.com/msalazarj/primebug/internal/app/system/sse"
	"github.com/msalazarj/primebug/internal/app/system/timeouts"
	"github.com/msalazarj/primebug/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const keepAliveInterval = 15 * time.Second

// IssueStore is the slice of the issue store this feature needs.
type IssueStore interface {
	Create(ctx context.Context, i models.Issue) (models.Issue, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Issue, error)
	ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Issue, error)
	Update(ctx context.Context, id primitive.ObjectID, i models.Issue) error
}

// ProfileStore resolves assignee display names.
type ProfileStore interface {
	GetBatchByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Profile, error)
}

// WatchSource opens live issue subscriptions for a project.
type WatchSource interface {
	Watch(ctx context.Context, projectID primitive.ObjectID) (*issuewatch.Subscription, error)
}

type Handler struct {
	Issues   IssueStore
	Profiles ProfileStore
	Watcher  WatchSource
	Log      *zap.Logger
}

func NewHandler(issues IssueStore, profiles ProfileStore, watcher WatchSource, logger *zap.Logger) *Handler {
	return &Handler{Issues: issues, Profiles: profiles, Watcher: watcher, Log: logger}
}

// filterFromQuery builds the client-side filter from the query string.
// An unparseable assignee id is treated as absent rather than rejected.
func filterFromQuery(r *http.Request) issuewatch.Filter {
	q := r.URL.Query()
	f := issuewatch.Filter{
		Search:   q.Get("q"),
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
	}
	if id, err := primitive.ObjectIDFromHex(q.Get("assignee")); err == nil {
		f.AssigneeID = &id
	}
	return f
}

// ServeList handles GET /issues?project=&q=&status=&priority=&assignee=.
// The full project set is fetched once; filtering is applied in memory and
// the status counts always describe the unfiltered set.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	projectID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("project"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Proyecto inválido.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	issues, err := h.Issues.ListByProject(ctx, projectID)
	if err != nil {
		h.Log.Error("issue list failed", zap.String("project_id", projectID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "El servicio no está disponible. Inténtalo más tarde.")
		return
	}
	issues = h.withAssigneeNames(ctx, issues)

	counts := issuewatch.CountStatuses(issues)
	filtered := filterFromQuery(r).Apply(issues)

	httpjson.Write(w, http.StatusOK, map[string]any{
		"issues": filtered,
		"counts": counts,
	})
}

// withAssigneeNames fills AssigneeName from the profiles collection. A
// lookup failure leaves the names blank; the list itself still serves.
func (h *Handler) withAssigneeNames(ctx context.Context, issues []models.Issue) []models.Issue {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, i := range issues {
		if i.AssigneeID != nil && !seen[*i.AssigneeID] {
			seen[*i.AssigneeID] = true
			ids = append(ids, *i.AssigneeID)
		}
	}
	if len(ids) == 0 {
		return issues
	}
	profiles, err := h.Profiles.GetBatchByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("assignee name lookup failed", zap.Error(err))
		return issues
	}
	names := make(map[primitive.ObjectID]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.FullName
	}
	for idx := range issues {
		if issues[idx].AssigneeID != nil {
			issues[idx].AssigneeName = names[*issues[idx].AssigneeID]
		}
	}
	return issues
}

type issueRequest struct {
	Title       string `json:"title" validate:"required,max=200" label:"Título"`
	Description string `json:"description"`
	ProjectID   string `json:"project_id"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	AssigneeID  string `json:"assignee_id"`
}

// HandleCreate handles POST /issues. Status always starts at open; the
// store enforces the default even if the client sends one.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Inicia sesión para continuar.")
		return
	}
	reporterID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Sesión inválida.")
		return
	}

	var req issueRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Solicitud inválida.")
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		httpjson.Error(w, http.StatusBadRequest, res.First())
		return
	}
	projectID, err := primitive.ObjectIDFromHex(req.ProjectID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Proyecto inválido.")
		return
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.IsValidIssuePriority(priority) {
		httpjson.Error(w, http.StatusBadRequest, "Prioridad inválida.")
		return
	}
	var assigneeID *primitive.ObjectID
	if req.AssigneeID != "" {
		id, err := primitive.ObjectIDFromHex(req.AssigneeID)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "Responsable inválido.")
			return
		}
		assigneeID = &id
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	issue, err := h.Issues.Create(ctx, models.Issue{
		Title:       normalize.Name(req.Title),
		Description: htmlsanitize.Sanitize(req.Description),
		ProjectID:   projectID,
		Priority:    priority,
		AssigneeID:  assigneeID,
		ReporterID:  reporterID,
	})
	if err != nil {
		h.Log.Error("issue creation failed", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "No se pudo crear el reporte. Inténtalo de nuevo.")
		return
	}
	httpjson.Write(w, http.StatusCreated, map[string]models.Issue{"issue": issue})
}

// HandleEdit handles POST /issues/{id}.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	issueID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Reporte inválido.")
		return
	}

	var req issueRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Solicitud inválida.")
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		httpjson.Error(w, http.StatusBadRequest, res.First())
		return
	}
	if req.Status != "" && !models.IsValidIssueStatus(req.Status) {
		httpjson.Error(w, http.StatusBadRequest, "Estado inválido.")
		return
	}
	if req.Priority != "" && !models.IsValidIssuePriority(req.Priority) {
		httpjson.Error(w, http.StatusBadRequest, "Prioridad inválida.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	current, err := h.Issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, issuestore.ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, "Reporte no encontrado.")
			return
		}
		h.Log.Error("issue fetch failed", zap.String("issue_id", issueID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "El servicio no está disponible. Inténtalo más tarde.")
		return
	}

	current.Title = normalize.Name(req.Title)
	current.Description = htmlsanitize.Sanitize(req.Description)
	if req.Status != "" {
		current.Status = req.Status
	}
	if req.Priority != "" {
		current.Priority = req.Priority
	}
	if req.AssigneeID != "" {
		id, err := primitive.ObjectIDFromHex(req.AssigneeID)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "Responsable inválido.")
			return
		}
		current.AssigneeID = &id
	} else {
		current.AssigneeID = nil
	}

	if err := h.Issues.Update(ctx, issueID, current); err != nil {
		if errors.Is(err, issuestore.ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, "Reporte no encontrado.")
			return
		}
		h.Log.Error("issue update failed", zap.String("issue_id", issueID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "No se pudo guardar el reporte. Inténtalo de nuevo.")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]models.Issue{"issue": current})
}

type watchFrame struct {
	Issues []models.Issue          `json:"issues"`
	Counts issuewatch.StatusCounts `json:"counts"`
}

// ServeWatch handles GET /issues/watch?project=: an SSE stream that pushes
// a fresh snapshot whenever the project's issues change. Query filters
// apply to the issue list of each frame; the counts stay unfiltered.
func (h *Handler) ServeWatch(w http.ResponseWriter, r *http.Request) {
	projectID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("project"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Proyecto inválido.")
		return
	}

	sub, err := h.Watcher.Watch(r.Context(), projectID)
	if err != nil {
		h.Log.Error("issue watch failed", zap.String("project_id", projectID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "El servicio no está disponible. Inténtalo más tarde.")
		return
	}
	defer sub.Cancel()

	stream, err := sse.NewWriter(w)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "El servicio no está disponible.")
		return
	}

	filter := filterFromQuery(r)
	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if err := stream.Comment("keep-alive"); err != nil {
				return
			}
		case snap, open := <-sub.Updates():
			if !open {
				return
			}
			frame := watchFrame{
				Issues: filter.Apply(snap.Issues),
				Counts: snap.Counts,
			}
			if err := stream.Event("issues", frame); err != nil {
				return
			}
		}
	}
}
