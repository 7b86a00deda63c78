package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/noticeboard/internal/app/system/auth"
	"go.uber.org/zap"
)

const testSecret = "test-jwt-secret-must-be-32-chars-long!!"

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		logger,
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	ti, err := auth.NewTokenIssuer(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to create token issuer: %v", err)
	}
	sm.SetTokenIssuer(ti)
	return sm
}

// echoUser writes the resolved username, or "anonymous".
func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := auth.CurrentUser(r); ok {
			w.Write([]byte(u.Username))
			return
		}
		w.Write([]byte("anonymous"))
	})
}

func TestNewSessionManager_EmptyName(t *testing.T) {
	if _, err := auth.NewSessionManager("k", "", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Error("expected error for empty session name")
	}
}

func TestNewSessionManager_EmptyKeyGeneratesEphemeral(t *testing.T) {
	sm, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("expected ephemeral key, got error: %v", err)
	}
	if sm.Store() == nil {
		t.Error("expected cookie store")
	}
}

func TestRequireSignedIn_NoUser_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)
	called := false
	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("GET", "/announcements/manage", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if called {
		t.Error("protected handler must not run")
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Errorf("WWW-Authenticate: got %q", rec.Header().Get("WWW-Authenticate"))
	}
}

func TestRequireSignedIn_WithUser_Proceeds(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(echoUser())

	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: "1", Username: "alice"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "alice" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestLoadSessionUser_BearerToken(t *testing.T) {
	sm := newTestSessionManager(t)
	ti, _ := auth.NewTokenIssuer(testSecret, time.Hour)
	token, _, err := ti.Issue(&auth.SessionUser{ID: "u1", Username: "alice", Role: "admin"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	sm.LoadSessionUser(echoUser()).ServeHTTP(rec, req)

	if rec.Body.String() != "alice" {
		t.Errorf("expected alice, got %q", rec.Body.String())
	}
}

func TestLoadSessionUser_InvalidBearerIsAnonymous(t *testing.T) {
	sm := newTestSessionManager(t)

	for _, header := range []string{"Bearer not-a-jwt", "Basic abc", "Bearer"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		sm.LoadSessionUser(echoUser()).ServeHTTP(rec, req)

		if rec.Body.String() != "anonymous" {
			t.Errorf("header %q: expected anonymous, got %q", header, rec.Body.String())
		}
	}
}

func TestSignIn_SessionCookieRoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", nil)
	if err := sm.SignIn(rec, req, &auth.SessionUser{ID: "u1", Username: "bob", Name: "Bob"}); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie")
	}

	req2 := httptest.NewRequest("GET", "/", nil)
	for _, c := range cookies {
		req2.AddCookie(c)
	}
	rec2 := httptest.NewRecorder()
	sm.LoadSessionUser(echoUser()).ServeHTTP(rec2, req2)

	if rec2.Body.String() != "bob" {
		t.Errorf("expected bob from session, got %q", rec2.Body.String())
	}
}

func TestSignOut_ExpiresCookie(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	if err := sm.SignOut(rec, httptest.NewRequest("POST", "/auth/logout", nil)); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected deletion cookie")
	}
	if cookies[0].MaxAge >= 0 {
		t.Errorf("expected negative MaxAge, got %d", cookies[0].MaxAge)
	}
}

func TestLoadSessionUser_TamperedCookieIsAnonymous(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "test-session", Value: "garbage"})
	rec := httptest.NewRecorder()
	sm.LoadSessionUser(echoUser()).ServeHTTP(rec, req)

	if rec.Body.String() != "anonymous" {
		t.Errorf("expected anonymous, got %q", rec.Body.String())
	}
}

type stubFetcher struct{ users map[string]*auth.SessionUser }

func (f stubFetcher) FetchUser(_ context.Context, id string) *auth.SessionUser {
	return f.users[id]
}

func TestLoadSessionUser_FetcherRefreshesAndRejects(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(stubFetcher{users: map[string]*auth.SessionUser{
		"active": {ID: "active", Username: "renamed"},
	}})
	ti, _ := auth.NewTokenIssuer(testSecret, time.Hour)

	cases := map[string]string{"active": "renamed", "disabled": "anonymous"}
	for id, want := range cases {
		token, _, _ := ti.Issue(&auth.SessionUser{ID: id, Username: "original"})
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		sm.LoadSessionUser(echoUser()).ServeHTTP(rec, req)

		if rec.Body.String() != want {
			t.Errorf("user %s: got %q, want %q", id, rec.Body.String(), want)
		}
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	user, ok := auth.CurrentUser(req)
	if ok || user != nil {
		t.Error("expected no user")
	}
}
