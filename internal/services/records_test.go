package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/admissionsflow/internal/applicants"
	"github.com/Lllllllleong/admissionsflow/internal/models"
)

func TestRecordsArchiveKeepsStatus(t *testing.T) {
	ctx := context.Background()
	store := applicants.NewMemoryStore()
	mirror := applicants.NewMirror()
	f := NewRecordsWith(store, mirror)
	a := store.Put(models.Applicant{Status: "interview_scheduled"})

	resp, err := f.Process(ctx, &models.RecordUpdateRequest{ApplicantID: a.ID, Action: "archive"})
	require.NoError(t, err)
	assert.True(t, resp.Archived)

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Archived)
	assert.Equal(t, "interview_scheduled", got.Status)
	assert.Empty(t, mirror.Visible(applicants.Query{}))

	resp, err = f.Process(ctx, &models.RecordUpdateRequest{ApplicantID: a.ID, Action: "unarchive"})
	require.NoError(t, err)
	assert.False(t, resp.Archived)
	assert.Len(t, mirror.Visible(applicants.Query{}), 1)
}

func TestRecordsCheckRequirement(t *testing.T) {
	ctx := context.Background()
	store := applicants.NewMemoryStore()
	f := NewRecordsWith(store, applicants.NewMirror())
	a := store.Put(models.Applicant{
		Status:       "screening",
		Requirements: models.DefaultRequirements(models.KindTeacher),
	})

	_, err := f.Process(ctx, &models.RecordUpdateRequest{ApplicantID: a.ID, Action: "check_requirement", RequirementKey: "resume"})
	require.NoError(t, err)
	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Requirements["resume"].Checked)
	assert.False(t, got.Requirements["license"].Checked)

	_, err = f.Process(ctx, &models.RecordUpdateRequest{ApplicantID: a.ID, Action: "uncheck_requirement", RequirementKey: "resume"})
	require.NoError(t, err)
	got, err = store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.Requirements["resume"].Checked)

	_, err = f.Process(ctx, &models.RecordUpdateRequest{ApplicantID: a.ID, Action: "check_requirement", RequirementKey: "passport"})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.Process(ctx, &models.RecordUpdateRequest{ApplicantID: a.ID, Action: "check_requirement"})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestRecordsVerifyEmail(t *testing.T) {
	ctx := context.Background()
	store := applicants.NewMemoryStore()
	mirror := applicants.NewMirror()
	f := NewRecordsWith(store, mirror)
	a := store.Put(models.Applicant{Status: "submitted"})

	for i := 0; i < 2; i++ {
		resp, err := f.Process(ctx, &models.RecordUpdateRequest{ApplicantID: a.ID, Action: "verify_email"})
		require.NoError(t, err)
		assert.Equal(t, "success", resp.Status)
	}

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
	assert.Equal(t, "submitted", got.Status)
	assert.Len(t, mirror.Visible(applicants.Query{VerifiedOnly: true}), 1)
}
