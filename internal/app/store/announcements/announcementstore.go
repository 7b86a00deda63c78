// internal/app/store/announcements/announcementstore.go
package announcementstore

import (
	"context"
	"errors"

	"github.com/dalemusser/noticeboard/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CollectionName is the Mongo collection holding announcement documents.
const CollectionName = "announcements"

// ErrDocumentInvalid is returned when the collection's JSON-schema validator
// rejects a write.
var ErrDocumentInvalid = errors.New("announcement document failed collection validation")

// Store provides access to the announcements collection. Documents are
// schemaless field-maps keyed by a string _id.
type Store struct {
	c     *mongo.Collection
	newID func() string
}

// New creates a new announcement store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName), newID: uuid.NewString}
}

// ActiveFilter matches announcements visible at now: start_date missing or
// null or not after now, and expiration_date not before now. Both bounds are
// compared as strings.
func ActiveFilter(now string) bson.M {
	return bson.M{
		"$or": bson.A{
			bson.M{models.FieldStartDate: nil},
			bson.M{models.FieldStartDate: bson.M{"$lte": now}},
		},
		models.FieldExpirationDate: bson.M{"$gte": now},
	}
}

// Find returns every document matching filter, in natural order.
func (s *Store) Find(ctx context.Context, filter bson.M) ([]bson.M, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	docs := make([]bson.M, 0)
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// ListActive returns announcements inside their visibility window at now.
func (s *Store) ListActive(ctx context.Context, now string) ([]bson.M, error) {
	return s.Find(ctx, ActiveFilter(now))
}

// ListAll returns every announcement.
func (s *Store) ListAll(ctx context.Context) ([]bson.M, error) {
	return s.Find(ctx, bson.M{})
}

// Insert stores doc under a freshly generated string _id and returns it.
// Any _id already present in doc is replaced.
func (s *Store) Insert(ctx context.Context, doc bson.M) (string, error) {
	id := s.newID()
	out := make(bson.M, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	out[models.FieldID] = id

	if _, err := s.c.InsertOne(ctx, out); err != nil {
		return "", translateWriteErr(err)
	}
	return id, nil
}

// UpdateByID merges set onto the document with the given id. It reports
// whether a document matched. An empty set only checks for existence.
func (s *Store) UpdateByID(ctx context.Context, id string, set bson.M) (bool, error) {
	if len(set) == 0 {
		n, err := s.c.CountDocuments(ctx, idFilter(id))
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}

	res, err := s.c.UpdateOne(ctx, idFilter(id), bson.M{"$set": set})
	if err != nil {
		return false, translateWriteErr(err)
	}
	return res.MatchedCount > 0, nil
}

// DeleteByID removes the document with the given id and reports whether one
// was deleted.
func (s *Store) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := s.c.DeleteOne(ctx, idFilter(id))
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// idFilter matches the string id, and also the ObjectID form when id is a
// valid hex ObjectID so documents inserted by other tools stay addressable.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{models.FieldID: bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{models.FieldID: id}
}

// translateWriteErr maps schema-validation failures (code 121) to
// ErrDocumentInvalid.
func translateWriteErr(err error) error {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 121 {
				return errors.Join(ErrDocumentInvalid, err)
			}
		}
	}
	return err
}
