package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/admissionsflow/internal/applicants"
	"github.com/Lllllllleong/admissionsflow/internal/models"
)

type failingListStore struct {
	*applicants.MemoryStore
	err error
}

func (s failingListStore) List(context.Context, applicants.Query) ([]models.Applicant, error) {
	return nil, s.err
}

func seedListing(store *applicants.MemoryStore) (verified, unverified, archived models.Applicant) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	verified = store.Put(models.Applicant{Status: "screening", EmailVerified: true, CreatedAt: base})
	unverified = store.Put(models.Applicant{Status: "screening", CreatedAt: base.Add(time.Minute)})
	archived = store.Put(models.Applicant{Status: "screening", EmailVerified: true, Archived: true, CreatedAt: base.Add(2 * time.Minute)})
	return verified, unverified, archived
}

func TestListingFromStorePrimesMirror(t *testing.T) {
	ctx := context.Background()
	store := applicants.NewMemoryStore()
	mirror := applicants.NewMirror()
	f := NewListingWith(store, mirror)
	verified, _, archived := seedListing(store)

	resp, err := f.Process(ctx, &models.ListApplicantsRequest{})
	require.NoError(t, err)
	assert.Equal(t, "store", resp.Source)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, verified.ID, resp.Applicants[0].ID)
	_, ok := mirror.Get(verified.ID)
	assert.True(t, ok)

	resp, err = f.Process(ctx, &models.ListApplicantsRequest{IncludeArchived: true})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, archived.ID, resp.Applicants[1].ID)
}

func TestListingFromSyncedMirror(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := applicants.NewMemoryStore()
	mirror := applicants.NewMirror()
	f := NewListingWith(failingListStore{MemoryStore: store, err: errors.New("unavailable")}, mirror)
	verified, unverified, _ := seedListing(store)

	go func() { _ = mirror.Follow(ctx, store) }()
	require.Eventually(t, mirror.Synced, time.Second, 5*time.Millisecond)

	resp, err := f.Process(ctx, &models.ListApplicantsRequest{Statuses: []string{"screening"}})
	require.NoError(t, err)
	assert.Equal(t, "mirror", resp.Source)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, verified.ID, resp.Applicants[0].ID)

	records := NewRecordsWith(store, mirror)
	_, err = records.Process(ctx, &models.RecordUpdateRequest{ApplicantID: unverified.ID, Action: "verify_email"})
	require.NoError(t, err)

	resp, err = f.Process(ctx, &models.ListApplicantsRequest{Statuses: []string{"screening"}})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)
}

func TestListingStoreFailure(t *testing.T) {
	store := failingListStore{MemoryStore: applicants.NewMemoryStore(), err: errors.New("unavailable")}
	f := NewListingWith(store, applicants.NewMirror())

	_, err := f.Process(context.Background(), &models.ListApplicantsRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list applicants")
}

func TestListingRejectsMalformedDate(t *testing.T) {
	f := NewListingWith(applicants.NewMemoryStore(), applicants.NewMirror())

	resp, err := f.Process(context.Background(), &models.ListApplicantsRequest{InterviewDate: "March 10"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, ErrValidation))
}
