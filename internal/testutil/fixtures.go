// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/msalazarj/primebug/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateTeam creates a test team with the given name.
func (f *Fixtures) CreateTeam(ctx context.Context, name string) models.Team {
	f.t.Helper()

	now := time.Now().UTC()
	team := models.Team{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("teams").InsertOne(ctx, team); err != nil {
		f.t.Fatalf("failed to create test team: %v", err)
	}
	return team
}

// CreateProfile creates a test profile with the given memberships.
func (f *Fixtures) CreateProfile(ctx context.Context, fullName, email string, teamIDs ...primitive.ObjectID) models.Profile {
	f.t.Helper()

	now := time.Now().UTC()
	if teamIDs == nil {
		teamIDs = []primitive.ObjectID{}
	}
	p := models.Profile{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		Role:       "member",
		TeamIDs:    teamIDs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("profiles").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

// CreateIssue creates a test issue in the given project.
func (f *Fixtures) CreateIssue(ctx context.Context, projectID primitive.ObjectID, title, status, priority string) models.Issue {
	f.t.Helper()

	now := time.Now().UTC()
	i := models.Issue{
		ID:        primitive.NewObjectID(),
		Title:     title,
		TitleCI:   text.Fold(title),
		ProjectID: projectID,
		Status:    status,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("issues").InsertOne(ctx, i); err != nil {
		f.t.Fatalf("failed to create test issue: %v", err)
	}
	return i
}

// CreateDocument creates a test document record in the given project.
func (f *Fixtures) CreateDocument(ctx context.Context, projectID primitive.ObjectID, name, category string) models.DocumentRecord {
	f.t.Helper()

	d := models.DocumentRecord{
		ID:          primitive.NewObjectID(),
		Name:        name,
		URL:         "https://blobs.example.com/projects/" + projectID.Hex() + "/" + name,
		Version:     "1.0",
		Category:    category,
		ProjectID:   projectID,
		StoragePath: "projects/" + projectID.Hex() + "/" + name,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := f.db.Collection("documents").InsertOne(ctx, d); err != nil {
		f.t.Fatalf("failed to create test document: %v", err)
	}
	return d
}
