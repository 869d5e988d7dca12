package login_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/msalazarj/primebug/internal/app/features/login"
	"github.com/msalazarj/primebug/internal/app/system/auth"
	"github.com/msalazarj/primebug/internal/app/system/ratelimit"
	profilestore "github.com/msalazarj/primebug/internal/app/store/profiles"
	"github.com/msalazarj/primebug/internal/domain/models"
	"github.com/msalazarj/primebug/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type stubProfiles struct {
	profiles map[primitive.ObjectID]models.Profile
}

func (s *stubProfiles) GetByID(_ context.Context, id primitive.ObjectID) (models.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return models.Profile{}, profilestore.ErrNotFound
	}
	return p, nil
}

func newTestHandler(t *testing.T, provider *testutil.FakeAuthProvider, profiles *stubProfiles) *login.Handler {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session", "", 24*time.Hour, false, zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	if profiles == nil {
		profiles = &stubProfiles{}
	}
	return login.NewHandler(provider, sm, profiles, nil, ratelimit.New(100, time.Minute), zap.NewNop())
}

func TestHandleLogin_Success(t *testing.T) {
	provider := testutil.NewFakeAuthProvider()
	id := provider.AddAccount("ana@example.com", "secreta123", "Ana")
	profiles := &stubProfiles{profiles: map[primitive.ObjectID]models.Profile{
		id.UID: {ID: id.UID, FullName: "Ana Salazar", Role: "admin"},
	}}
	h := newTestHandler(t, provider, profiles)

	req := testutil.JSONRequest(t, "POST", "/login", map[string]string{
		"email":    "Ana@Example.com",
		"password": "secreta123",
	})
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		User struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Role string `json:"role"`
		} `json:"user"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.User.Name != "Ana Salazar" || resp.User.Role != "admin" {
		t.Errorf("user = %+v, want profile name and role", resp.User)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie on success")
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	provider := testutil.NewFakeAuthProvider()
	provider.AddAccount("ana@example.com", "secreta123", "Ana")
	h := newTestHandler(t, provider, nil)

	req := testutil.JSONRequest(t, "POST", "/login", map[string]string{
		"email":    "ana@example.com",
		"password": "equivocada",
	})
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)

	if rec.Code != 401 {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandleLogin_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	h := newTestHandler(t, testutil.NewFakeAuthProvider(), nil)

	req := testutil.JSONRequest(t, "POST", "/login", map[string]string{
		"email":    "nadie@example.com",
		"password": "loquesea1",
	})
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)

	if rec.Code != 401 {
		t.Errorf("status = %d, want 401 (no account enumeration)", rec.Code)
	}
}

func TestHandleLogin_MissingFields(t *testing.T) {
	h := newTestHandler(t, testutil.NewFakeAuthProvider(), nil)

	req := testutil.JSONRequest(t, "POST", "/login", map[string]string{"email": "ana@example.com"})
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)

	if rec.Code != 400 {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleLogin_RateLimited(t *testing.T) {
	provider := testutil.NewFakeAuthProvider()
	sm, _ := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session", "", 24*time.Hour, false, zap.NewNop(),
	)
	h := login.NewHandler(provider, sm, &stubProfiles{}, nil, ratelimit.New(1, time.Minute), zap.NewNop())

	for i := 0; i < 2; i++ {
		req := testutil.JSONRequest(t, "POST", "/login", map[string]string{
			"email": "ana@example.com", "password": "x",
		})
		rec := httptest.NewRecorder()
		h.HandleLogin(rec, req)
		if i == 1 && rec.Code != 429 {
			t.Errorf("second attempt status = %d, want 429", rec.Code)
		}
	}
}

func TestHandleReset_AlwaysGeneric(t *testing.T) {
	provider := testutil.NewFakeAuthProvider()
	provider.AddAccount("ana@example.com", "secreta123", "Ana")
	h := newTestHandler(t, provider, nil)

	for _, email := range []string{"ana@example.com", "nadie@example.com"} {
		req := testutil.JSONRequest(t, "POST", "/login/reset", map[string]string{"email": email})
		rec := httptest.NewRecorder()
		h.HandleReset(rec, req)
		if rec.Code != 200 {
			t.Errorf("reset for %s: status = %d, want 200", email, rec.Code)
		}
	}
	if got := provider.ResetRequests(); len(got) != 2 {
		t.Errorf("reset requests = %v", got)
	}
}

func TestHandleResetConfirm_ExpiredToken(t *testing.T) {
	h := newTestHandler(t, testutil.NewFakeAuthProvider(), nil)

	req := testutil.JSONRequest(t, "POST", "/login/reset/confirm", map[string]string{
		"token":        "expired",
		"new_password": "nueva-clave-9",
	})
	rec := httptest.NewRecorder()
	h.HandleResetConfirm(rec, req)

	if rec.Code != 400 {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
