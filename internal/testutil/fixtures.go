package testutil

import (
	"context"
	"testing"

	announcementstore "github.com/dalemusser/noticeboard/internal/app/store/announcements"
	userstore "github.com/dalemusser/noticeboard/internal/app/store/users"
	"github.com/dalemusser/noticeboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultPassword is the password given to users created by Fixtures.
const DefaultPassword = "correct-horse-battery"

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

// CreateUser creates an active user with DefaultPassword.
func (f *Fixtures) CreateUser(ctx context.Context, username, role string) models.User {
	f.t.Helper()

	u, err := userstore.New(f.db).Create(ctx, models.User{
		Username: username,
		FullName: "Test " + username,
		Role:     role,
	}, DefaultPassword)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateDisabledUser creates a user whose status is disabled.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, username string) models.User {
	f.t.Helper()

	u := f.CreateUser(ctx, username, models.RoleEditor)
	_, err := f.db.Collection(userstore.CollectionName).UpdateByID(ctx, u.ID,
		bson.M{"$set": bson.M{"status": models.StatusDisabled}})
	if err != nil {
		f.t.Fatalf("failed to disable test user: %v", err)
	}
	u.Status = models.StatusDisabled
	return u
}

// CreateAnnouncement inserts doc through the announcement store and returns
// its generated id. created_by/created_at are filled when missing.
func (f *Fixtures) CreateAnnouncement(ctx context.Context, doc bson.M) string {
	f.t.Helper()

	out := bson.M{
		models.FieldCreatedBy: "fixture",
		models.FieldCreatedAt: "2026-01-01T00:00:00.000000",
	}
	for k, v := range doc {
		out[k] = v
	}
	id, err := announcementstore.New(f.db).Insert(ctx, out)
	if err != nil {
		f.t.Fatalf("failed to create test announcement: %v", err)
	}
	return id
}
