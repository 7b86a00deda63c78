package indexes_test

import (
	"testing"

	"github.com/dalemusser/noticeboard/internal/app/system/indexes"
	"github.com/dalemusser/noticeboard/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bson.M {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("list indexes on %s: %v", coll, err)
	}
	defer cur.Close(ctx)

	out := make(map[string]bson.M)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("decode index: %v", err)
		}
		out[idx["name"].(string)] = idx
	}
	return out
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	ann := indexNames(t, db, "announcements")
	for _, name := range []string{"idx_announcements_expiration", "idx_announcements_start"} {
		if _, ok := ann[name]; !ok {
			t.Errorf("missing announcements index %q", name)
		}
	}

	users := indexNames(t, db, "users")
	uniq, ok := users["uniq_users_username_ci"]
	if !ok {
		t.Fatal("missing uniq_users_username_ci")
	}
	if uniq["unique"] != true {
		t.Errorf("uniq_users_username_ci should be unique, got %v", uniq["unique"])
	}
	if _, ok := users["idx_users_role_status"]; !ok {
		t.Error("missing idx_users_role_status")
	}

	logins := indexNames(t, db, "login_records")
	if _, ok := logins["idx_login_records_user_created"]; !ok {
		t.Error("missing idx_login_records_user_created")
	}
	ttl, ok := logins["ttl_login_records_created"]
	if !ok {
		t.Fatal("missing ttl_login_records_created")
	}
	if ttl["expireAfterSeconds"] == nil {
		t.Error("ttl_login_records_created should carry expireAfterSeconds")
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 2; i++ {
		if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
			t.Fatalf("EnsureAll call %d failed: %v", i+1, err)
		}
	}
	if n := len(indexNames(t, db, "announcements")); n != 3 {
		t.Errorf("expected _id plus 2 announcement indexes, got %d", n)
	}
}

func TestEnsureAll_RenamesMatchingKeys(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Same keys under a different name is dropped and recreated.
	_, err := db.Collection("announcements").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiration_date", Value: 1}},
		Options: options.Index().SetName("legacy_expiration"),
	})
	if err != nil {
		t.Fatalf("create legacy index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	ann := indexNames(t, db, "announcements")
	if _, ok := ann["legacy_expiration"]; ok {
		t.Error("legacy index should have been replaced")
	}
	if _, ok := ann["idx_announcements_expiration"]; !ok {
		t.Error("missing idx_announcements_expiration")
	}
}

func TestEnsureAll_UniqueUsernameEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	users := db.Collection("users")
	if _, err := users.InsertOne(ctx, bson.M{"username": "Alice", "username_ci": "alice"}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := users.InsertOne(ctx, bson.M{"username": "ALICE", "username_ci": "alice"})
	if !mongo.IsDuplicateKeyError(err) {
		t.Errorf("expected duplicate key error, got %v", err)
	}
}

func TestEnsureAll_DuplicatesBlockUniqueIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := db.Collection("users")
	for i := 0; i < 2; i++ {
		if _, err := users.InsertOne(ctx, bson.M{"username_ci": "dup"}); err != nil {
			t.Fatalf("seed insert: %v", err)
		}
	}

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err == nil {
		t.Error("expected EnsureAll to report the duplicate usernames")
	}
}
