package userinfo_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dalemusser/noticeboard/internal/app/features/userinfo"
	loginstore "github.com/dalemusser/noticeboard/internal/app/store/logins"
	"github.com/dalemusser/noticeboard/internal/domain/models"
	"github.com/dalemusser/noticeboard/internal/testutil"
	"go.uber.org/zap"
)

func TestServeMe_Unauthenticated(t *testing.T) {
	h := userinfo.NewHandler(nil, zap.NewNop())

	rec := testutil.NewRecorder()
	h.ServeMe(rec, testutil.NewRequest("GET", "/auth/me"))

	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "UNAUTHORIZED")
}

func TestServeMe_Authenticated(t *testing.T) {
	h := userinfo.NewHandler(nil, zap.NewNop())
	user := testutil.EditorUser("alice")

	rec := testutil.NewRecorder()
	h.ServeMe(rec, testutil.NewAuthenticatedRequest("GET", "/auth/me", user))

	rec.AssertStatus(t, http.StatusOK)
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	want := map[string]string{"id": user.ID, "username": "alice", "name": "Test alice", "role": "editor"}
	for k, v := range want {
		if resp[k] != v {
			t.Errorf("%s: got %q, want %q", k, resp[k], v)
		}
	}
}

func TestServeLogins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logins := loginstore.New(db)
	for _, rec := range []models.LoginRecord{
		{Username: "alice", Outcome: "denied", IP: "192.0.2.1"},
		{Username: "alice", Outcome: "ok", IP: "192.0.2.1"},
		{Username: "bob", Outcome: "ok", IP: "192.0.2.2"},
	} {
		if err := logins.Create(ctx, rec); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	h := userinfo.NewHandler(logins, zap.NewNop())
	rec := testutil.NewRecorder()
	h.ServeLogins(rec, testutil.NewAuthenticatedRequest("GET", "/auth/me/logins", testutil.EditorUser("alice")))

	rec.AssertStatus(t, http.StatusOK)
	var got []struct {
		Outcome string `json:"outcome"`
		IP      string `json:"ip"`
	}
	rec.DecodeJSON(t, &got)
	if len(got) != 2 {
		t.Fatalf("expected alice's 2 attempts, got %d", len(got))
	}
	for _, g := range got {
		if g.IP != "192.0.2.1" {
			t.Errorf("unexpected record %+v", g)
		}
	}
}

func TestServeLogins_Unauthenticated(t *testing.T) {
	h := userinfo.NewHandler(nil, zap.NewNop())

	rec := testutil.NewRecorder()
	h.ServeLogins(rec, testutil.NewRequest("GET", "/auth/me/logins"))

	rec.AssertStatus(t, http.StatusUnauthorized)
}
