package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/admissionsflow/internal/applicants"
	"github.com/Lllllllleong/admissionsflow/internal/gcp"
	"github.com/Lllllllleong/admissionsflow/internal/models"
)

// URLSigner signs object URLs in the uploads bucket.
type URLSigner interface {
	SignUpload(ctx context.Context, object, contentType string, ttl time.Duration) (string, error)
	SignDownload(ctx context.Context, object string, ttl time.Duration) (string, error)
}

// SignerConfig holds configuration for the attachment-signer function.
type SignerConfig struct {
	Store         StoreConfig
	UploadsBucket string
	TTL           time.Duration
}

// SignerFunction issues signed URLs for requirement files.
type SignerFunction struct {
	store  applicants.Store
	signer URLSigner
	ttl    time.Duration
}

// NewSigner creates a SignerFunction from the environment.
func NewSigner(ctx context.Context) (*SignerFunction, error) {
	storeCfg, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}
	config := SignerConfig{
		Store:         storeCfg,
		UploadsBucket: gcp.GetEnv("UPLOADS_BUCKET", ""),
		TTL:           gcp.GetEnvDuration("SIGNED_URL_TTL", 15*time.Minute),
	}
	if config.UploadsBucket == "" {
		return nil, fmt.Errorf("UPLOADS_BUCKET environment variable must be set")
	}

	store, err := newFirestoreStore(ctx, config.Store)
	if err != nil {
		return nil, err
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	slog.Info("Signer logic initialized.", "bucket", config.UploadsBucket)
	return NewSignerWith(store, gcp.NewBucketSigner(storageClient, config.UploadsBucket), config.TTL), nil
}

// NewSignerWith wires a SignerFunction from existing dependencies.
func NewSignerWith(store applicants.Store, signer URLSigner, ttl time.Duration) *SignerFunction {
	return &SignerFunction{store: store, signer: signer, ttl: ttl}
}

// Process signs an upload URL for a new requirement file, or download URLs
// for files already attached.
func (f *SignerFunction) Process(ctx context.Context, req *models.SignAttachmentRequest) (*models.SignAttachmentResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	logCtx := slog.With("applicantId", req.ApplicantID, "method", req.Method)

	a, err := f.store.Get(ctx, req.ApplicantID)
	if err != nil {
		return nil, err
	}

	var urls []models.SignedURL
	switch req.Method {
	case "upload":
		if _, ok := a.Requirements[req.RequirementKey]; !ok {
			return nil, validationError("unknown requirement %q", req.RequirementKey)
		}
		object := UploadObjectName(a.ID, req.RequirementKey, req.Filename)
		url, err := f.signer.SignUpload(ctx, object, req.ContentType, f.ttl)
		if err != nil {
			logCtx.Error("Failed to sign upload URL.", "error", err)
			return nil, err
		}
		urls = append(urls, models.SignedURL{RequirementKey: req.RequirementKey, Object: object, URL: url})
	case "download":
		r, ok := a.Requirements[req.RequirementKey]
		if !ok || r.File == "" {
			return nil, validationError("no file attached for requirement %q", req.RequirementKey)
		}
		url, err := f.signer.SignDownload(ctx, r.File, f.ttl)
		if err != nil {
			logCtx.Error("Failed to sign download URL.", "error", err)
			return nil, err
		}
		urls = append(urls, models.SignedURL{RequirementKey: req.RequirementKey, Object: r.File, URL: url})
	case "download_all":
		urls, err = f.signAll(ctx, a)
		if err != nil {
			logCtx.Error("Failed to sign download URLs.", "error", err)
			return nil, err
		}
	}

	logCtx.Info("Signed attachment URLs.", "count", len(urls))
	return &models.SignAttachmentResponse{
		Status:    "success",
		ExpiresIn: int(f.ttl / time.Second),
		URLs:      urls,
	}, nil
}

// signAll signs every attached file concurrently. Signing may call the IAM
// signBlob API, so requests are bounded.
func (f *SignerFunction) signAll(ctx context.Context, a *models.Applicant) ([]models.SignedURL, error) {
	var (
		mu   sync.Mutex
		urls []models.SignedURL
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	for key, r := range a.Requirements {
		if r.File == "" {
			continue
		}
		eg.Go(func() error {
			url, err := f.signer.SignDownload(gctx, r.File, f.ttl)
			if err != nil {
				return fmt.Errorf("requirement %s: %w", key, err)
			}
			mu.Lock()
			urls = append(urls, models.SignedURL{RequirementKey: key, Object: r.File, URL: url})
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(urls, func(i, j int) bool { return urls[i].RequirementKey < urls[j].RequirementKey })
	return urls, nil
}

// UploadObjectName is where an applicant's requirement file is stored:
// applicants/{id}/{requirementKey}/{uuid}-{filename}.
func UploadObjectName(applicantID, requirementKey, filename string) string {
	return path.Join("applicants", applicantID, requirementKey, uuid.NewString()+"-"+sanitizeFileName(filename))
}

// ParseUploadObjectName is the inverse of UploadObjectName.
func ParseUploadObjectName(object string) (applicantID, requirementKey string, ok bool) {
	parts := strings.Split(object, "/")
	if len(parts) != 4 || parts[0] != "applicants" || parts[1] == "" || parts[2] == "" || parts[3] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// nonFileNameRegex matches runs of characters not kept in object names.
var nonFileNameRegex = regexp.MustCompile(`[^a-z0-9.]+`)

// sanitizeFileName converts an uploaded file name into a safe object name component.
func sanitizeFileName(name string) string {
	lower := strings.ToLower(path.Base(strings.ReplaceAll(name, `\`, "/")))
	sanitized := strings.Trim(nonFileNameRegex.ReplaceAllString(lower, "_"), "_.")

	const maxLength = 100
	if len(sanitized) > maxLength {
		sanitized = strings.Trim(sanitized[len(sanitized)-maxLength:], "_.")
	}
	if sanitized == "" {
		sanitized = "file"
	}
	return sanitized
}
