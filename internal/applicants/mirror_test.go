package applicants

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/admissionsflow/internal/models"
)

func TestMirrorDropsStaleUpdates(t *testing.T) {
	m := NewMirror()
	t0 := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, m.Apply(models.Applicant{ID: "a", Status: "screening", UpdatedAt: t0.Add(time.Second)}))
	assert.False(t, m.Apply(models.Applicant{ID: "a", Status: "submitted", UpdatedAt: t0}))

	got, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, "screening", got.Status)

	assert.True(t, m.Apply(models.Applicant{ID: "a", Status: "interview_scheduled", UpdatedAt: t0.Add(2 * time.Second)}))
	got, _ = m.Get("a")
	assert.Equal(t, "interview_scheduled", got.Status)
}

func TestMirrorSubscribe(t *testing.T) {
	m := NewMirror()
	var seen []string
	cancel := m.Subscribe(func(a models.Applicant, removed bool) {
		if removed {
			seen = append(seen, "-"+a.ID)
			return
		}
		seen = append(seen, a.ID)
	})

	m.Apply(models.Applicant{ID: "a"})
	m.Remove("a")
	m.Remove("missing")
	cancel()
	m.Apply(models.Applicant{ID: "b"})

	assert.Equal(t, []string{"a", "-a"}, seen)
}

func TestMirrorVisible(t *testing.T) {
	m := NewMirror()
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	m.Apply(models.Applicant{ID: "b", CreatedAt: base.Add(time.Hour)})
	m.Apply(models.Applicant{ID: "a", CreatedAt: base})
	m.Apply(models.Applicant{ID: "c", CreatedAt: base, Archived: true})

	vis := m.Visible(Query{})
	require.Len(t, vis, 2)
	assert.Equal(t, "a", vis[0].ID)
	assert.Equal(t, "b", vis[1].ID)
	assert.Len(t, m.Visible(Query{IncludeArchived: true}), 3)
}

func TestMirrorFollow(t *testing.T) {
	store := NewMemoryStore()
	store.Put(models.Applicant{ID: "a", Status: "submitted"})

	m := NewMirror()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Follow(ctx, store) }()

	require.Eventually(t, m.Synced, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, m.Len())

	_, err := store.Apply(context.Background(), "a", Mutation{Status: "screening"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		a, _ := m.Get("a")
		return a.Status == "screening"
	}, time.Second, 5*time.Millisecond)

	store.Delete("a")
	require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.False(t, m.Synced())
}
