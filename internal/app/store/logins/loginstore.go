// internal/app/store/logins/loginstore.go
package loginstore

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/noticeboard/internal/app/system/ratelimit"
	"github.com/dalemusser/noticeboard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName holds one document per login attempt. Records expire via
// the TTL index created in system/indexes.
const CollectionName = "login_records"

const maxUserAgent = 256

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Create inserts rec. A zero CreatedAt is set to now.
func (s *Store) Create(ctx context.Context, rec models.LoginRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.UsernameCI = text.Fold(strings.TrimSpace(rec.Username))
	_, err := s.c.InsertOne(ctx, rec)
	return err
}

// CreateFrom records an attempt using the client address and user agent
// of r.
func (s *Store) CreateFrom(ctx context.Context, r *http.Request, username, userID, outcome string) error {
	ua := r.UserAgent()
	if len(ua) > maxUserAgent {
		ua = ua[:maxUserAgent]
	}
	return s.Create(ctx, models.LoginRecord{
		Username:  strings.TrimSpace(username),
		UserID:    userID,
		Outcome:   outcome,
		IP:        ratelimit.ClientIP(r),
		UserAgent: ua,
	})
}

// Recent returns up to limit attempts for username, newest first.
func (s *Store) Recent(ctx context.Context, username string, limit int64) ([]models.LoginRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"username_ci": text.Fold(strings.TrimSpace(username))}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.LoginRecord{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
