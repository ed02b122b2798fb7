package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/admissionsflow/internal/applicants"
	"github.com/Lllllllleong/admissionsflow/internal/gcp"
	"github.com/Lllllllleong/admissionsflow/internal/models"
)

const uploadsBucket = "uploads"

func newIntakeFixture(summarizer Summarizer) (*IntakeFunction, *applicants.MemoryStore, *fakeReader, models.Applicant) {
	store := applicants.NewMemoryStore()
	a := store.Put(models.Applicant{
		Status:       "screening",
		Requirements: models.DefaultRequirements(models.KindJuniorHigh),
	})
	reader := &fakeReader{objects: map[string][]byte{}}
	f := NewIntakeWith(store, reader, summarizer, 1<<20)
	f.now = func() time.Time { return time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC) }
	return f, store, reader, a
}

func TestIntakeAttachesImage(t *testing.T) {
	ctx := context.Background()
	summarizer := &fakeSummarizer{summary: "Birth certificate issued to Juan Cruz."}
	f, store, reader, a := newIntakeFixture(summarizer)

	object := "applicants/" + a.ID + "/birthCertificate/u1-psa.png"
	reader.objects[uploadsBucket+"/"+object] = []byte("\x89PNG fake")

	err := f.Process(ctx, models.GCSEvent{Bucket: uploadsBucket, Name: object, ContentType: "image/png"})
	require.NoError(t, err)

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	r := got.Requirements["birthCertificate"]
	assert.Equal(t, object, r.File)
	assert.Equal(t, "image/png", r.ContentType)
	assert.False(t, r.Checked)
	assert.Equal(t, "Birth certificate issued to Juan Cruz.", r.Summary)
	assert.Equal(t, time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC), r.UploadedAt)
	assert.Equal(t, []string{"gs://uploads/" + object}, summarizer.uris)
	assert.False(t, got.Requirements["reportCard"].Checked)

	// Redelivery of the same event changes nothing.
	before := got.UpdatedAt
	require.NoError(t, f.Process(ctx, models.GCSEvent{Bucket: uploadsBucket, Name: object, ContentType: "image/png"}))
	got, err = store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, before, got.UpdatedAt)
}

func TestIntakeRejectsBrokenPDF(t *testing.T) {
	ctx := context.Background()
	f, store, reader, a := newIntakeFixture(nil)

	object := "applicants/" + a.ID + "/reportCard/u2-card.pdf"
	reader.objects[uploadsBucket+"/"+object] = []byte("not a pdf at all")

	require.NoError(t, f.Process(ctx, models.GCSEvent{Bucket: uploadsBucket, Name: object, ContentType: "application/pdf"}))
	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Requirements["reportCard"].File)
}

func TestIntakeSummaryFailureStillAttaches(t *testing.T) {
	ctx := context.Background()
	f, store, reader, a := newIntakeFixture(&fakeSummarizer{err: errors.New("quota exceeded")})

	object := "applicants/" + a.ID + "/idPhoto/u3-photo.jpg"
	reader.objects[uploadsBucket+"/"+object] = []byte("jpeg")

	require.NoError(t, f.Process(ctx, models.GCSEvent{Bucket: uploadsBucket, Name: object, ContentType: "image/jpeg"}))
	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, object, got.Requirements["idPhoto"].File)
	assert.Empty(t, got.Requirements["idPhoto"].Summary)
}

func TestIntakeIgnoresUnrelatedObjects(t *testing.T) {
	ctx := context.Background()
	f, store, reader, a := newIntakeFixture(nil)
	reader.err = errors.New("must not be read")

	events := []models.GCSEvent{
		{Bucket: uploadsBucket, Name: "exports/report.csv"},
		{Bucket: uploadsBucket, Name: "applicants/unknown-id/reportCard/u-x.png"},
		{Bucket: uploadsBucket, Name: "applicants/" + a.ID + "/passport/u-x.png"},
	}
	for _, e := range events {
		assert.NoError(t, f.Process(ctx, e), e.Name)
	}
	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.UpdatedAt, got.UpdatedAt)
}

func TestIntakeReadFailures(t *testing.T) {
	ctx := context.Background()
	f, _, reader, a := newIntakeFixture(nil)
	event := models.GCSEvent{Bucket: uploadsBucket, Name: "applicants/" + a.ID + "/goodMoral/u4-gm.pdf", ContentType: "application/pdf"}

	reader.err = gcp.ErrObjectTooLarge
	assert.NoError(t, f.Process(ctx, event))

	reader.err = storage.ErrObjectNotExist
	assert.NoError(t, f.Process(ctx, event))

	reader.err = errors.New("connection reset")
	assert.Error(t, f.Process(ctx, event))
}

func TestIntakeStoreFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	f, store, reader, a := newIntakeFixture(nil)
	object := "applicants/" + a.ID + "/idPhoto/u5-photo.png"
	reader.objects[uploadsBucket+"/"+object] = []byte("png")
	store.FailWrites = errors.New("unavailable")

	assert.Error(t, f.Process(ctx, models.GCSEvent{Bucket: uploadsBucket, Name: object, ContentType: "image/png"}))
}
