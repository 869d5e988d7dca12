// internal/domain/models/issue.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Issue status values. Stored verbatim; the store's queries and the status
// count buckets key on these exact strings.
const (
	StatusOpen       = "Abierto"
	StatusInProgress = "En Progreso"
	StatusResolved   = "Resuelto"
	StatusClosed     = "Cerrado"
	StatusReopened   = "Reabierto"
)

// Issue priority values.
const (
	PriorityCritical = "Crítica"
	PriorityHigh     = "Alta"
	PriorityMedium   = "Media"
	PriorityLow      = "Baja"
)

// IssueStatuses lists the valid status values in lifecycle order.
var IssueStatuses = []string{
	StatusOpen,
	StatusInProgress,
	StatusResolved,
	StatusClosed,
	StatusReopened,
}

// IssuePriorities lists the valid priority values, most urgent first.
var IssuePriorities = []string{
	PriorityCritical,
	PriorityHigh,
	PriorityMedium,
	PriorityLow,
}

// IsValidIssueStatus checks whether value is a known status.
func IsValidIssueStatus(value string) bool {
	for _, s := range IssueStatuses {
		if s == value {
			return true
		}
	}
	return false
}

// IsValidIssuePriority checks whether value is a known priority.
func IsValidIssuePriority(value string) bool {
	for _, p := range IssuePriorities {
		if p == value {
			return true
		}
	}
	return false
}

// Issue is a bug report scoped to a project. PrimeBug's query view only
// reads and aggregates issues; mutation happens through the issues feature.
type Issue struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title"`
	TitleCI     string              `bson:"title_ci" json:"title_ci"` // lowercase, diacritics-stripped
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	ProjectID   primitive.ObjectID  `bson:"project_id" json:"project_id"`
	Status      string              `bson:"status" json:"status"`
	Priority    string              `bson:"priority" json:"priority"`
	AssigneeID  *primitive.ObjectID `bson:"assignee_id,omitempty" json:"assignee_id,omitempty"`
	ReporterID  primitive.ObjectID  `bson:"reporter_id,omitempty" json:"reporter_id,omitempty"`

	// AssigneeName is resolved from the profiles collection at read time;
	// it is never persisted on the issue document.
	AssigneeName string `bson:"-" json:"assignee_name,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
