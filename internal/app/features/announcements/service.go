// internal/app/features/announcements/service.go
package announcements

import (
	"context"
	"errors"
	"time"

	announcementstore "github.com/dalemusser/noticeboard/internal/app/store/announcements"
	"github.com/dalemusser/noticeboard/internal/app/system/apperr"
	"github.com/dalemusser/noticeboard/internal/app/system/auth"
	"github.com/dalemusser/noticeboard/internal/app/system/htmlsanitize"
	"github.com/dalemusser/noticeboard/internal/app/system/metrics"
	"github.com/dalemusser/noticeboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Store is the document collection the service reads and writes.
// *announcementstore.Store satisfies it.
type Store interface {
	ListActive(ctx context.Context, now string) ([]bson.M, error)
	ListAll(ctx context.Context) ([]bson.M, error)
	Insert(ctx context.Context, doc bson.M) (string, error)
	UpdateByID(ctx context.Context, id string, set bson.M) (bool, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

var _ Store = (*announcementstore.Store)(nil)

// Client-facing messages.
const (
	msgExpirationRequired = "Expiration date is required."
	msgNotFound           = "Announcement not found."
	msgDocumentInvalid    = "Announcement failed validation."
)

// serverOwned fields are never taken from an update payload.
var serverOwned = []string{models.FieldID, "id", models.FieldCreatedBy, models.FieldCreatedAt}

// Service implements the announcement operations over a Store.
type Service struct {
	store Store
	now   func() time.Time
	log   *zap.Logger
}

// NewService returns a service using the wall clock.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, now: time.Now, log: logger}
}

// WithClock replaces the clock used for "now"; for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Now renders the current instant the way dates are stored and compared.
func (s *Service) Now() string {
	return s.now().UTC().Format(models.TimestampLayout)
}

// ListActive returns announcements whose window contains now.
func (s *Service) ListActive(ctx context.Context) ([]models.Announcement, error) {
	docs, err := s.store.ListActive(ctx, s.Now())
	if err != nil {
		metrics.ObserveAnnouncementOp("list_active", metrics.OutcomeError)
		return nil, apperr.FromError(err)
	}
	metrics.ObserveAnnouncementOp("list_active", metrics.OutcomeOK)
	return project(docs), nil
}

// ListAll returns every announcement regardless of its window.
func (s *Service) ListAll(ctx context.Context) ([]models.Announcement, error) {
	docs, err := s.store.ListAll(ctx)
	if err != nil {
		metrics.ObserveAnnouncementOp("list_all", metrics.OutcomeError)
		return nil, apperr.FromError(err)
	}
	metrics.ObserveAnnouncementOp("list_all", metrics.OutcomeOK)
	return project(docs), nil
}

// Create persists fields as a new announcement authored by principal and
// returns its id. created_by and created_at are always set here.
func (s *Service) Create(ctx context.Context, principal *auth.SessionUser, fields map[string]any) (string, error) {
	if principal == nil {
		return "", apperr.ErrUnauthorized
	}
	if isFalsy(fields[models.FieldExpirationDate]) {
		metrics.ObserveAnnouncementOp("create", metrics.OutcomeInvalid)
		return "", apperr.Clone(apperr.ErrValidation, msgExpirationRequired)
	}

	doc := make(bson.M, len(fields)+2)
	for k, v := range fields {
		doc[k] = v
	}
	sanitizeText(doc)
	doc[models.FieldCreatedBy] = principal.Username
	doc[models.FieldCreatedAt] = s.Now()

	id, err := s.store.Insert(ctx, doc)
	if err != nil {
		metrics.ObserveAnnouncementOp("create", outcomeFor(err))
		return "", s.storeErr(err)
	}
	metrics.ObserveAnnouncementOp("create", metrics.OutcomeOK)
	s.log.Info("announcement created",
		zap.String("id", id),
		zap.String("created_by", principal.Username))
	return id, nil
}

// Update merges fields onto the announcement with id.
func (s *Service) Update(ctx context.Context, id string, fields map[string]any) error {
	set := make(bson.M, len(fields))
	for k, v := range fields {
		set[k] = v
	}
	for _, k := range serverOwned {
		delete(set, k)
	}
	sanitizeText(set)

	matched, err := s.store.UpdateByID(ctx, id, set)
	if err != nil {
		metrics.ObserveAnnouncementOp("update", outcomeFor(err))
		return s.storeErr(err)
	}
	if !matched {
		metrics.ObserveAnnouncementOp("update", metrics.OutcomeNotFound)
		return apperr.Clone(apperr.ErrNotFound, msgNotFound)
	}
	metrics.ObserveAnnouncementOp("update", metrics.OutcomeOK)
	return nil
}

// Delete removes the announcement with id.
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		metrics.ObserveAnnouncementOp("delete", metrics.OutcomeError)
		return s.storeErr(err)
	}
	if !deleted {
		metrics.ObserveAnnouncementOp("delete", metrics.OutcomeNotFound)
		return apperr.Clone(apperr.ErrNotFound, msgNotFound)
	}
	metrics.ObserveAnnouncementOp("delete", metrics.OutcomeOK)
	s.log.Info("announcement deleted", zap.String("id", id))
	return nil
}

func (s *Service) storeErr(err error) error {
	if errors.Is(err, announcementstore.ErrDocumentInvalid) {
		return apperr.Wrap(err, apperr.ErrValidation.Code, apperr.ErrValidation.Status, msgDocumentInvalid)
	}
	return apperr.FromError(err)
}

func outcomeFor(err error) string {
	if errors.Is(err, announcementstore.ErrDocumentInvalid) {
		return metrics.OutcomeInvalid
	}
	return metrics.OutcomeError
}

func project(docs []bson.M) []models.Announcement {
	out := make([]models.Announcement, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.ProjectAnnouncement(d))
	}
	return out
}

// sanitizeText cleans string title and message values in place.
func sanitizeText(doc bson.M) {
	for _, k := range []string{models.FieldTitle, models.FieldMessage} {
		if s, ok := doc[k].(string); ok {
			doc[k] = htmlsanitize.Text(s)
		}
	}
}

// isFalsy reports whether v counts as absent for a required field: nil, "",
// false, numeric zero, or an empty array or object.
func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0
	case int:
		return x == 0
	case int32:
		return x == 0
	case int64:
		return x == 0
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}
