package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Lllllllleong/admissionsflow/internal/applicants"
	"github.com/Lllllllleong/admissionsflow/internal/gcp"
	"github.com/Lllllllleong/admissionsflow/internal/models"
)

// ObjectReader loads an uploaded object.
type ObjectReader interface {
	Read(ctx context.Context, bucket, object string, limit int64) ([]byte, error)
}

// Summarizer writes reviewer notes for an uploaded file.
type Summarizer interface {
	Summarize(ctx context.Context, gcsURI, mimeType, requirementLabel string) (string, error)
}

// IntakeConfig holds configuration for the attachment-intake function.
type IntakeConfig struct {
	Store            StoreConfig
	MaxBytes         int64
	ScreeningEnabled bool
	Region           string
	ModelName        string
}

// IntakeFunction attaches uploaded files to applicant requirements.
type IntakeFunction struct {
	store      applicants.Store
	reader     ObjectReader
	summarizer Summarizer
	maxBytes   int64
	now        func() time.Time
}

type gcsObjectReader struct {
	client *storage.Client
}

func (r gcsObjectReader) Read(ctx context.Context, bucket, object string, limit int64) ([]byte, error) {
	return gcp.ReadObject(ctx, r.client, bucket, object, limit)
}

// NewIntake creates an IntakeFunction from the environment.
func NewIntake(ctx context.Context) (*IntakeFunction, error) {
	storeCfg, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}
	config := IntakeConfig{
		Store:            storeCfg,
		MaxBytes:         int64(gcp.GetEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		ScreeningEnabled: gcp.GetEnvBool("SCREENING_ENABLED", false),
		Region:           gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		ModelName:        gcp.GetEnv("SCREENING_MODEL", "gemini-2.5-flash"),
	}

	store, err := newFirestoreStore(ctx, config.Store)
	if err != nil {
		return nil, err
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	var summarizer Summarizer
	if config.ScreeningEnabled {
		screening, err := gcp.NewScreeningClient(ctx, storeCfg.ProjectID, config.Region, config.ModelName)
		if err != nil {
			return nil, fmt.Errorf("failed to create screening client: %w", err)
		}
		summarizer = screening
	}

	slog.Info("Intake logic initialized.", "maxBytes", config.MaxBytes, "screening", config.ScreeningEnabled)
	return NewIntakeWith(store, gcsObjectReader{client: storageClient}, summarizer, config.MaxBytes), nil
}

// NewIntakeWith wires an IntakeFunction from existing dependencies.
// summarizer may be nil.
func NewIntakeWith(store applicants.Store, reader ObjectReader, summarizer Summarizer, maxBytes int64) *IntakeFunction {
	return &IntakeFunction{
		store:      store,
		reader:     reader,
		summarizer: summarizer,
		maxBytes:   maxBytes,
		now:        time.Now,
	}
}

// Process handles one object-finalized event. Objects that can never be
// attached are logged and acknowledged; transient failures are returned so
// the event is redelivered.
func (f *IntakeFunction) Process(ctx context.Context, event models.GCSEvent) error {
	logCtx := slog.With("bucket", event.Bucket, "object", event.Name)

	applicantID, key, ok := ParseUploadObjectName(event.Name)
	if !ok {
		logCtx.Info("Ignoring object outside the applicant upload layout.")
		return nil
	}
	logCtx = logCtx.With("applicantId", applicantID, "requirementKey", key)

	a, err := f.store.Get(ctx, applicantID)
	if errors.Is(err, applicants.ErrNotFound) {
		logCtx.Warn("Ignoring upload for unknown applicant.")
		return nil
	}
	if err != nil {
		return err
	}
	r, ok := a.Requirements[key]
	if !ok {
		logCtx.Warn("Ignoring upload for unknown requirement.")
		return nil
	}
	if r.File == event.Name {
		logCtx.Info("Upload already attached, skipping duplicate event.")
		return nil
	}

	data, err := f.reader.Read(ctx, event.Bucket, event.Name, f.maxBytes)
	if errors.Is(err, gcp.ErrObjectTooLarge) || errors.Is(err, storage.ErrObjectNotExist) {
		logCtx.Warn("Upload cannot be attached.", "error", err)
		return nil
	}
	if err != nil {
		return err
	}

	r.File = event.Name
	r.ContentType = event.ContentType
	r.Checked = false
	r.PageCount = 0
	r.Summary = ""
	r.UploadedAt = f.now().UTC()

	if event.ContentType == "application/pdf" {
		pages, err := inspectPDF(data)
		if err != nil {
			logCtx.Warn("Rejecting unreadable PDF.", "error", err)
			return nil
		}
		r.PageCount = pages
	}

	if f.summarizer != nil {
		uri := fmt.Sprintf("gs://%s/%s", event.Bucket, event.Name)
		summary, err := f.summarizer.Summarize(ctx, uri, event.ContentType, r.Label)
		if err != nil {
			logCtx.Warn("Screening notes unavailable.", "error", err)
		} else {
			r.Summary = summary
		}
	}

	if _, err := f.store.Apply(ctx, applicantID, applicants.Mutation{
		Requirements: map[string]models.Requirement{key: r},
	}); err != nil {
		logCtx.Error("Failed to attach upload.", "error", err)
		return fmt.Errorf("failed to attach upload: %w", err)
	}
	logCtx.Info("Upload attached.", "pageCount", r.PageCount, "bytes", len(data))
	return nil
}

// inspectPDF validates data and returns its page count.
func inspectPDF(data []byte) (int, error) {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), cfg); err != nil {
		return 0, fmt.Errorf("invalid PDF: %w", err)
	}
	pages, err := api.PageCount(bytes.NewReader(data), cfg)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return pages, nil
}
