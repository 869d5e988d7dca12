package loginstore_test

import (
	"net/http/httptest"
	"testing"

	loginstore "github.com/msalazarj/primebug/internal/app/store/logins"
	"github.com/msalazarj/primebug/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateFrom(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	r.Header.Set("User-Agent", "prueba/1.0")

	if err := store.CreateFrom(ctx, r, userID, "password"); err != nil {
		t.Fatalf("CreateFrom failed: %v", err)
	}

	recs, err := store.ListByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Provider != "password" {
		t.Errorf("provider = %q, want password", rec.Provider)
	}
	if rec.IP != "203.0.113.7" {
		t.Errorf("ip = %q, want 203.0.113.7", rec.IP)
	}
	if rec.UserAgent != "prueba/1.0" {
		t.Errorf("user agent = %q", rec.UserAgent)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestStore_CreateFrom_ForwardedFor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	r := httptest.NewRequest("POST", "/login", nil)
	r.Header.Set("X-Forwarded-For", "198.51.100.2, 10.0.0.1")

	if err := store.CreateFrom(ctx, r, userID, "google"); err != nil {
		t.Fatalf("CreateFrom failed: %v", err)
	}

	recs, err := store.ListByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	if recs[0].IP != "198.51.100.2" {
		t.Errorf("ip = %q, want first forwarded address", recs[0].IP)
	}
}

func TestStore_ListByUser_NewestFirstWithLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	r := httptest.NewRequest("POST", "/login", nil)
	for i := 0; i < 3; i++ {
		if err := store.CreateFrom(ctx, r, userID, "password"); err != nil {
			t.Fatalf("CreateFrom failed: %v", err)
		}
	}
	// Another user's record must not show up.
	if err := store.CreateFrom(ctx, r, primitive.NewObjectID(), "password"); err != nil {
		t.Fatalf("CreateFrom failed: %v", err)
	}

	recs, err := store.ListByUser(ctx, userID, 2)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0].CreatedAt.Before(recs[1].CreatedAt) {
		t.Error("records not sorted newest first")
	}
}
