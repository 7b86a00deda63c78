package testutil

import (
	"context"
	"sync"

	"github.com/dalemusser/noticeboard/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// MemAnnouncementStore is an in-memory announcement store for service and
// handler tests. It mirrors the Mongo store's active-window semantics:
// string dates compare bytewise and non-string bounds never match.
type MemAnnouncementStore struct {
	mu    sync.Mutex
	docs  map[string]bson.M
	order []string
	calls int

	// Err, when set, is returned by every operation.
	Err error
}

// NewMemAnnouncementStore returns an empty store.
func NewMemAnnouncementStore() *MemAnnouncementStore {
	return &MemAnnouncementStore{docs: map[string]bson.M{}}
}

// Calls reports how many store operations have been invoked.
func (m *MemAnnouncementStore) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Get returns a copy of the stored document with id.
func (m *MemAnnouncementStore) Get(id string) (bson.M, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, false
	}
	return clone(d), true
}

// Len returns the number of stored documents.
func (m *MemAnnouncementStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// Seed stores doc under id without counting as a call.
func (m *MemAnnouncementStore) Seed(id string, doc bson.M) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := clone(doc)
	d[models.FieldID] = id
	if _, exists := m.docs[id]; !exists {
		m.order = append(m.order, id)
	}
	m.docs[id] = d
}

func (m *MemAnnouncementStore) ListActive(_ context.Context, now string) ([]bson.M, error) {
	return m.find(func(d bson.M) bool { return isActive(d, now) })
}

func (m *MemAnnouncementStore) ListAll(_ context.Context) ([]bson.M, error) {
	return m.find(func(bson.M) bool { return true })
}

func (m *MemAnnouncementStore) Insert(_ context.Context, doc bson.M) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return "", m.Err
	}
	id := uuid.NewString()
	d := clone(doc)
	d[models.FieldID] = id
	m.docs[id] = d
	m.order = append(m.order, id)
	return id, nil
}

func (m *MemAnnouncementStore) UpdateByID(_ context.Context, id string, set bson.M) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return false, m.Err
	}
	d, ok := m.docs[id]
	if !ok {
		return false, nil
	}
	for k, v := range set {
		d[k] = v
	}
	return true, nil
}

func (m *MemAnnouncementStore) DeleteByID(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return false, m.Err
	}
	if _, ok := m.docs[id]; !ok {
		return false, nil
	}
	delete(m.docs, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *MemAnnouncementStore) find(match func(bson.M) bool) ([]bson.M, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]bson.M, 0, len(m.docs))
	for _, id := range m.order {
		if d := m.docs[id]; match(d) {
			out = append(out, clone(d))
		}
	}
	return out, nil
}

func isActive(d bson.M, now string) bool {
	switch start := d[models.FieldStartDate].(type) {
	case nil:
	case string:
		if start > now {
			return false
		}
	default:
		return false
	}
	exp, ok := d[models.FieldExpirationDate].(string)
	return ok && exp >= now
}

func clone(d bson.M) bson.M {
	out := make(bson.M, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
