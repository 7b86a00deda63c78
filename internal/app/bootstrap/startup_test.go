package bootstrap

import (
	"testing"

	userstore "github.com/dalemusser/noticeboard/internal/app/store/users"
	"github.com/dalemusser/noticeboard/internal/domain/models"
	"github.com/dalemusser/noticeboard/internal/testutil"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureAdminUser_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureIndexes(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdminUser(ctx, deps, "Root", "s3cret-password", testLogger()); err != nil {
		t.Fatalf("ensureAdminUser failed: %v", err)
	}

	users := userstore.New(db)
	u, err := users.Authenticate(ctx, "root", "s3cret-password")
	if err != nil {
		t.Fatalf("admin cannot authenticate: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("expected role %q, got %q", models.RoleAdmin, u.Role)
	}
	if u.Username != "Root" {
		t.Errorf("username should keep its case, got %q", u.Username)
	}
}

func TestEnsureAdminUser_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureIndexes(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	existing := fx.CreateDisabledUser(ctx, "root")

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdminUser(ctx, deps, "ROOT", "ignored-password", testLogger()); err != nil {
		t.Fatalf("ensureAdminUser failed: %v", err)
	}

	users := userstore.New(db)
	u, err := users.GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Role != models.RoleAdmin || u.Status != models.StatusActive {
		t.Errorf("expected active admin, got role=%q status=%q", u.Role, u.Status)
	}

	// The existing password is kept.
	if _, err := users.Authenticate(ctx, "root", testutil.DefaultPassword); err != nil {
		t.Errorf("original password should still work: %v", err)
	}
	if _, err := users.Authenticate(ctx, "root", "ignored-password"); err == nil {
		t.Error("bootstrap password must not replace an existing one")
	}
}

func TestEnsureAdminUser_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureIndexes(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	for i := 0; i < 2; i++ {
		if err := ensureAdminUser(ctx, deps, "root", "s3cret-password", testLogger()); err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
	}

	n, err := db.Collection(userstore.CollectionName).CountDocuments(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 user, got %d", n)
	}
}
