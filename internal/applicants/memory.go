package applicants

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lllllllleong/admissionsflow/internal/models"
)

// MemoryStore is an in-process Store used by tests and local runs.
type MemoryStore struct {
	mu            sync.Mutex
	docs          map[string]models.Applicant
	notifications map[string][]models.Notification
	watchers      []func(models.Applicant, bool)
	now           func() time.Time

	// FailWrites, when set, is returned by every Apply and Create.
	FailWrites error
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:          make(map[string]models.Applicant),
		notifications: make(map[string][]models.Notification),
		now:           time.Now,
	}
}

// tick returns a strictly increasing update time.
func (s *MemoryStore) tick(prev time.Time) time.Time {
	t := s.now().UTC()
	if !t.After(prev) {
		t = prev.Add(time.Microsecond)
	}
	return t
}

// Put stores a copy of a as-is, assigning an id if it has none.
func (s *MemoryStore) Put(a models.Applicant) models.Applicant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.UpdatedAt = s.tick(s.docs[a.ID].UpdatedAt)
	s.docs[a.ID] = a
	s.emit(a, false)
	return a
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Applicant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return &a, nil
}

func (s *MemoryStore) Create(_ context.Context, a *models.Applicant) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return "", s.FailWrites
	}
	doc := *a
	doc.ID = uuid.NewString()
	doc.UpdatedAt = s.tick(time.Time{})
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = doc.UpdatedAt
	}
	s.docs[doc.ID] = doc
	s.emit(doc, false)
	return doc.ID, nil
}

func (s *MemoryStore) List(_ context.Context, q Query) ([]models.Applicant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Applicant
	for _, a := range s.docs {
		if q.matches(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Apply(_ context.Context, id string, m Mutation) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return time.Time{}, s.FailWrites
	}
	if m.Empty() {
		return time.Time{}, fmt.Errorf("apply %s: empty mutation", id)
	}
	a, ok := s.docs[id]
	if !ok {
		return time.Time{}, fmt.Errorf("apply %s: %w", id, ErrNotFound)
	}
	if !m.IfUpdatedAt.IsZero() && !m.IfUpdatedAt.Equal(a.UpdatedAt) {
		return time.Time{}, fmt.Errorf("apply %s: %w", id, ErrConflict)
	}
	updated := s.tick(a.UpdatedAt)
	m.ApplyTo(&a, updated)
	s.docs[id] = a
	s.emit(a, false)
	return updated, nil
}

func (s *MemoryStore) RecordNotification(_ context.Context, id string, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("record notification %s: %w", id, ErrNotFound)
	}
	s.notifications[id] = append(s.notifications[id], n)
	return nil
}

// Notifications returns the notification log of an applicant.
func (s *MemoryStore) Notifications(id string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.notifications[id]...)
}

// Delete removes an applicant, as the retention job would.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.docs[id]
	if !ok {
		return
	}
	delete(s.docs, id)
	s.emit(a, true)
}

func (s *MemoryStore) Watch(ctx context.Context, fn func(models.Applicant, bool), synced func()) error {
	s.mu.Lock()
	for _, a := range s.docs {
		fn(a, false)
	}
	s.watchers = append(s.watchers, fn)
	idx := len(s.watchers) - 1
	s.mu.Unlock()
	if synced != nil {
		synced()
	}

	<-ctx.Done()

	s.mu.Lock()
	s.watchers[idx] = nil
	s.mu.Unlock()
	return ctx.Err()
}

// emit must be called with s.mu held.
func (s *MemoryStore) emit(a models.Applicant, removed bool) {
	for _, fn := range s.watchers {
		if fn != nil {
			fn(a, removed)
		}
	}
}
