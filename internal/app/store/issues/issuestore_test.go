package issuestore_test

import (
	"errors"
	"testing"

	issuestore "github.com/msalazarj/primebug/internal/app/store/issues"
	"github.com/msalazarj/primebug/internal/domain/models"
	"github.com/msalazarj/primebug/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_DefaultsStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := issuestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Issue{
		Title:     "Fallo al iniciar sesión",
		ProjectID: primitive.NewObjectID(),
		Priority:  models.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Status != models.StatusOpen {
		t.Errorf("status = %q, want %q", created.Status, models.StatusOpen)
	}
	if created.TitleCI == "" {
		t.Error("TitleCI not set")
	}
}

func TestStore_ListByProject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := issuestore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	project := primitive.NewObjectID()
	f.CreateIssue(ctx, project, "Uno", models.StatusOpen, models.PriorityHigh)
	f.CreateIssue(ctx, project, "Dos", models.StatusResolved, models.PriorityLow)
	f.CreateIssue(ctx, primitive.NewObjectID(), "Ajeno", models.StatusOpen, models.PriorityLow)

	got, err := store.ListByProject(ctx, project)
	if err != nil {
		t.Fatalf("ListByProject failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("issues = %d, want 2", len(got))
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := issuestore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	issue := f.CreateIssue(ctx, primitive.NewObjectID(), "Fallo", models.StatusOpen, models.PriorityHigh)

	issue.Title = "Fallo grave"
	issue.Status = models.StatusInProgress
	if err := store.Update(ctx, issue.ID, issue); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.GetByID(ctx, issue.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Fallo grave" || got.Status != models.StatusInProgress {
		t.Errorf("issue = %+v", got)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Error("UpdatedAt not advanced")
	}

	if err := store.Update(ctx, primitive.NewObjectID(), issue); !errors.Is(err, issuestore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_Update_ClearsDescription(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := issuestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	issue, err := store.Create(ctx, models.Issue{
		Title:       "Fallo al exportar",
		Description: "Ocurre con archivos grandes.",
		ProjectID:   primitive.NewObjectID(),
		Priority:    models.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// An edit that clears the description must persist the empty value,
	// not keep the old text.
	issue.Description = ""
	if err := store.Update(ctx, issue.ID, issue); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.GetByID(ctx, issue.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Description != "" {
		t.Errorf("description = %q, want empty after clear", got.Description)
	}
}

func TestStore_SetStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := issuestore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	issue := f.CreateIssue(ctx, primitive.NewObjectID(), "Fallo", models.StatusOpen, models.PriorityHigh)

	if err := store.SetStatus(ctx, issue.ID, models.StatusClosed); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	got, _ := store.GetByID(ctx, issue.ID)
	if got.Status != models.StatusClosed {
		t.Errorf("status = %q, want %q", got.Status, models.StatusClosed)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := issuestore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	issue := f.CreateIssue(ctx, primitive.NewObjectID(), "Fallo", models.StatusOpen, models.PriorityHigh)

	n, err := store.Delete(ctx, issue.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if _, err := store.GetByID(ctx, issue.ID); !errors.Is(err, issuestore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
