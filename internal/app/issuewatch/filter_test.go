package issuewatch

import (
	"testing"

	"github.com/msalazarj/primebug/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func namedIssue(title, status, priority string, assignee *primitive.ObjectID) models.Issue {
	return models.Issue{
		ID:         primitive.NewObjectID(),
		Title:      title,
		Status:     status,
		Priority:   priority,
		AssigneeID: assignee,
	}
}

func TestFilter_ZeroValuePassesEverything(t *testing.T) {
	issues := []models.Issue{
		namedIssue("a", models.StatusOpen, models.PriorityLow, nil),
		namedIssue("b", models.StatusClosed, models.PriorityHigh, nil),
	}
	got := Filter{}.Apply(issues)
	if len(got) != 2 {
		t.Errorf("filtered = %d, want 2", len(got))
	}
}

func TestFilter_SearchIsCaseInsensitive(t *testing.T) {
	issues := []models.Issue{
		namedIssue("Error en la autenticación", models.StatusOpen, models.PriorityHigh, nil),
		namedIssue("Mejora del panel", models.StatusOpen, models.PriorityLow, nil),
	}
	got := Filter{Search: "ERROR"}.Apply(issues)
	if len(got) != 1 || got[0].Title != "Error en la autenticación" {
		t.Errorf("search match = %v", got)
	}
}

func TestFilter_SearchCoversDescription(t *testing.T) {
	iss := namedIssue("breve", models.StatusOpen, models.PriorityLow, nil)
	iss.Description = "falla al subir documentos grandes"
	got := Filter{Search: "subir"}.Apply([]models.Issue{iss})
	if len(got) != 1 {
		t.Error("search should also match the description")
	}
}

func TestFilter_CriteriaCombineWithAnd(t *testing.T) {
	ana := primitive.NewObjectID()
	otro := primitive.NewObjectID()
	issues := []models.Issue{
		namedIssue("uno", models.StatusOpen, models.PriorityHigh, &ana),
		namedIssue("dos", models.StatusOpen, models.PriorityHigh, &otro),
		namedIssue("tres", models.StatusOpen, models.PriorityLow, &ana),
		namedIssue("cuatro", models.StatusClosed, models.PriorityHigh, &ana),
	}
	got := Filter{
		Status:     models.StatusOpen,
		Priority:   models.PriorityHigh,
		AssigneeID: &ana,
	}.Apply(issues)
	if len(got) != 1 || got[0].Title != "uno" {
		t.Errorf("combined filter = %v", got)
	}
}

func TestFilter_AssigneeExcludesUnassigned(t *testing.T) {
	ana := primitive.NewObjectID()
	issues := []models.Issue{
		namedIssue("con", models.StatusOpen, models.PriorityLow, &ana),
		namedIssue("sin", models.StatusOpen, models.PriorityLow, nil),
	}
	got := Filter{AssigneeID: &ana}.Apply(issues)
	if len(got) != 1 || got[0].Title != "con" {
		t.Errorf("assignee filter = %v", got)
	}
}
