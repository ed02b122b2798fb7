package applicants

import (
	"context"
	"sort"
	"sync"

	"github.com/Lllllllleong/admissionsflow/internal/models"
)

// Mirror is an in-memory copy of the applicant collection shared by the
// handlers of one process. Local writes and realtime pushes both go through
// Apply; a record is only replaced by one with the same or a newer update
// time (last write by server timestamp wins).
type Mirror struct {
	mu     sync.RWMutex
	items  map[string]models.Applicant
	subs   map[int]func(models.Applicant, bool)
	nextID int
	synced bool
}

// NewMirror returns an empty mirror.
func NewMirror() *Mirror {
	return &Mirror{
		items: make(map[string]models.Applicant),
		subs:  make(map[int]func(models.Applicant, bool)),
	}
}

// Apply stores a, unless the mirror already holds a newer version. It
// reports whether a was accepted.
func (m *Mirror) Apply(a models.Applicant) bool {
	m.mu.Lock()
	if cur, ok := m.items[a.ID]; ok && cur.UpdatedAt.After(a.UpdatedAt) {
		m.mu.Unlock()
		return false
	}
	m.items[a.ID] = a
	subs := m.subscribers()
	m.mu.Unlock()

	for _, fn := range subs {
		fn(a, false)
	}
	return true
}

// Remove drops an applicant from the mirror.
func (m *Mirror) Remove(id string) {
	m.mu.Lock()
	a, ok := m.items[id]
	delete(m.items, id)
	subs := m.subscribers()
	m.mu.Unlock()

	if !ok {
		return
	}
	for _, fn := range subs {
		fn(a, true)
	}
}

// Get returns the mirrored applicant.
func (m *Mirror) Get(id string) (models.Applicant, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.items[id]
	return a, ok
}

// Len returns the number of mirrored applicants.
func (m *Mirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Visible returns the applicants matching q, oldest first.
func (m *Mirror) Visible(q Query) []models.Applicant {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Applicant
	for _, a := range m.items {
		if q.matches(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Subscribe registers fn to be called after every accepted change. The
// returned function unregisters it.
func (m *Mirror) Subscribe(fn func(a models.Applicant, removed bool)) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Follow feeds the store's realtime changes into the mirror until ctx ends.
// The mirror reports Synced once the store has delivered its initial
// contents, and stops doing so when following ends.
func (m *Mirror) Follow(ctx context.Context, store Store) error {
	defer m.setSynced(false)
	return store.Watch(ctx, func(a models.Applicant, removed bool) {
		if removed {
			m.Remove(a.ID)
			return
		}
		m.Apply(a)
	}, func() { m.setSynced(true) })
}

// Synced reports whether the mirror holds the full collection and is
// receiving realtime changes, so Visible can stand in for a store query.
func (m *Mirror) Synced() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.synced
}

func (m *Mirror) setSynced(v bool) {
	m.mu.Lock()
	m.synced = v
	m.mu.Unlock()
}

// subscribers must be called with m.mu held.
func (m *Mirror) subscribers() []func(models.Applicant, bool) {
	out := make([]func(models.Applicant, bool), 0, len(m.subs))
	for _, fn := range m.subs {
		out = append(out, fn)
	}
	return out
}
