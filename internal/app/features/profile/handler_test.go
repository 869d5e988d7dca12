package profile_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/msalazarj/primebug/internal/app/features/profile"
	"github.com/msalazarj/primebug/internal/app/system/auth"
	profilestore "github.com/msalazarj/primebug/internal/app/store/profiles"
	"github.com/msalazarj/primebug/internal/domain/models"
	"github.com/msalazarj/primebug/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memoryProfiles struct {
	profiles map[primitive.ObjectID]models.Profile
	updates  []models.Profile
}

func (m *memoryProfiles) GetByID(_ context.Context, id primitive.ObjectID) (models.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return models.Profile{}, profilestore.ErrNotFound
	}
	return p, nil
}

func (m *memoryProfiles) Update(_ context.Context, id primitive.ObjectID, p models.Profile) error {
	m.updates = append(m.updates, p)
	stored := m.profiles[id]
	stored.FullName = p.FullName
	m.profiles[id] = stored
	return nil
}

func newTestHandler(t *testing.T, provider *testutil.FakeAuthProvider, store *memoryProfiles) *profile.Handler {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session", "", 24*time.Hour, false, zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return profile.NewHandler(store, provider, sm, zap.NewNop())
}

func signedIn(r *http.Request, uid primitive.ObjectID) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID: uid.Hex(), Name: "Ana", Email: "ana@example.com", Role: "member",
	})
}

func TestServeProfile_ReturnsProfile(t *testing.T) {
	uid := primitive.NewObjectID()
	team := primitive.NewObjectID()
	store := &memoryProfiles{profiles: map[primitive.ObjectID]models.Profile{
		uid: {ID: uid, FullName: "Ana Salazar", Email: "ana@example.com", Role: "member",
			TeamIDs: []primitive.ObjectID{team}},
	}}
	h := newTestHandler(t, testutil.NewFakeAuthProvider(), store)

	req := signedIn(httptest.NewRequest("GET", "/profile", nil), uid)
	rec := httptest.NewRecorder()
	h.ServeProfile(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Profile struct {
			FullName string   `json:"full_name"`
			TeamIDs  []string `json:"team_ids"`
		} `json:"profile"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Profile.FullName != "Ana Salazar" || len(resp.Profile.TeamIDs) != 1 {
		t.Errorf("profile = %+v", resp.Profile)
	}
}

func TestServeProfile_Unauthenticated(t *testing.T) {
	store := &memoryProfiles{profiles: map[primitive.ObjectID]models.Profile{}}
	h := newTestHandler(t, testutil.NewFakeAuthProvider(), store)

	rec := httptest.NewRecorder()
	h.ServeProfile(rec, httptest.NewRequest("GET", "/profile", nil))

	if rec.Code != 401 {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestServeProfile_MissingProfile(t *testing.T) {
	store := &memoryProfiles{profiles: map[primitive.ObjectID]models.Profile{}}
	h := newTestHandler(t, testutil.NewFakeAuthProvider(), store)

	req := signedIn(httptest.NewRequest("GET", "/profile", nil), primitive.NewObjectID())
	rec := httptest.NewRecorder()
	h.ServeProfile(rec, req)

	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleUpdate_TrimsAndStores(t *testing.T) {
	uid := primitive.NewObjectID()
	store := &memoryProfiles{profiles: map[primitive.ObjectID]models.Profile{
		uid: {ID: uid, FullName: "Ana"},
	}}
	h := newTestHandler(t, testutil.NewFakeAuthProvider(), store)

	req := signedIn(testutil.JSONRequest(t, "POST", "/profile", map[string]string{
		"full_name": "  Ana María Salazar  ",
	}), uid)
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(store.updates) != 1 || store.updates[0].FullName != "Ana María Salazar" {
		t.Errorf("updates = %+v", store.updates)
	}
}

func TestHandleUpdate_EmptyName(t *testing.T) {
	uid := primitive.NewObjectID()
	store := &memoryProfiles{profiles: map[primitive.ObjectID]models.Profile{uid: {ID: uid}}}
	h := newTestHandler(t, testutil.NewFakeAuthProvider(), store)

	req := signedIn(testutil.JSONRequest(t, "POST", "/profile", map[string]string{
		"full_name": "   ",
	}), uid)
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)

	if rec.Code != 400 {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlePassword_WrongCurrentPassword(t *testing.T) {
	provider := testutil.NewFakeAuthProvider()
	id := provider.AddAccount("ana@example.com", "secreta123", "Ana")
	store := &memoryProfiles{profiles: map[primitive.ObjectID]models.Profile{}}
	h := newTestHandler(t, provider, store)

	req := signedIn(testutil.JSONRequest(t, "POST", "/profile/password", map[string]string{
		"current_password": "equivocada",
		"new_password":     "nueva-clave-9",
	}), id.UID)
	rec := httptest.NewRecorder()
	h.HandlePassword(rec, req)

	if rec.Code != 401 {
		t.Errorf("status = %d, want 401 (stale credentials)", rec.Code)
	}
}

func TestHandlePassword_Success(t *testing.T) {
	provider := testutil.NewFakeAuthProvider()
	id := provider.AddAccount("ana@example.com", "secreta123", "Ana")
	store := &memoryProfiles{profiles: map[primitive.ObjectID]models.Profile{}}
	h := newTestHandler(t, provider, store)

	req := signedIn(testutil.JSONRequest(t, "POST", "/profile/password", map[string]string{
		"current_password": "secreta123",
		"new_password":     "nueva-clave-9",
	}), id.UID)
	rec := httptest.NewRecorder()
	h.HandlePassword(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// The new password now signs in.
	if _, err := provider.SignIn(context.Background(), "ana@example.com", "nueva-clave-9"); err != nil {
		t.Errorf("sign-in with new password failed: %v", err)
	}
}

func TestRoutes_RejectsUnauthenticated(t *testing.T) {
	provider := testutil.NewFakeAuthProvider()
	store := &memoryProfiles{profiles: map[primitive.ObjectID]models.Profile{}}
	h := newTestHandler(t, provider, store)
	router := profile.Routes(h, testutil.SessionManager(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != 401 {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
