// internal/app/issuewatch/filter.go
package issuewatch

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/msalazarj/primebug/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Filter narrows a fetched issue list in memory. Zero-value fields do not
// constrain; set fields combine with AND.
type Filter struct {
	Search     string
	Status     string
	Priority   string
	AssigneeID *primitive.ObjectID
}

// Apply returns the issues matching every set criterion. The input slice
// is not modified.
func (f Filter) Apply(issues []models.Issue) []models.Issue {
	needle := text.Fold(strings.TrimSpace(f.Search))
	out := make([]models.Issue, 0, len(issues))
	for i := range issues {
		if !f.matches(&issues[i], needle) {
			continue
		}
		out = append(out, issues[i])
	}
	return out
}

func (f Filter) matches(issue *models.Issue, needle string) bool {
	if f.Status != "" && issue.Status != f.Status {
		return false
	}
	if f.Priority != "" && issue.Priority != f.Priority {
		return false
	}
	if f.AssigneeID != nil {
		if issue.AssigneeID == nil || *issue.AssigneeID != *f.AssigneeID {
			return false
		}
	}
	if needle != "" {
		if !strings.Contains(text.Fold(issue.Title), needle) &&
			!strings.Contains(text.Fold(issue.Description), needle) {
			return false
		}
	}
	return true
}
