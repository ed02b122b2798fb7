package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Lllllllleong/admissionsflow/internal/applicants"
	"github.com/Lllllllleong/admissionsflow/internal/models"
	"github.com/Lllllllleong/admissionsflow/internal/progress"
)

// SubmissionFunction creates applicant records from the public forms.
type SubmissionFunction struct {
	store applicants.Store
	now   func() time.Time
}

// NewSubmission creates a SubmissionFunction from the environment.
func NewSubmission(ctx context.Context) (*SubmissionFunction, error) {
	storeCfg, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}
	store, err := newFirestoreStore(ctx, storeCfg)
	if err != nil {
		return nil, err
	}
	slog.Info("Submission logic initialized.", "collection", storeCfg.CollectionName)
	return NewSubmissionWith(store), nil
}

// NewSubmissionWith wires a SubmissionFunction from an existing store.
func NewSubmissionWith(store applicants.Store) *SubmissionFunction {
	return &SubmissionFunction{store: store, now: time.Now}
}

// Process validates the form and stores a new applicant at the submitted
// stage. The record stays out of admin listings until the email address
// is verified.
func (f *SubmissionFunction) Process(ctx context.Context, req *models.SubmitApplicationRequest) (*models.SubmitApplicationResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	a := &models.Applicant{
		Kind:         req.Kind,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        strings.TrimSpace(req.Phone),
		Position:     strings.TrimSpace(req.Position),
		GradeLevel:   strings.TrimSpace(req.GradeLevel),
		Status:       string(progress.Submitted),
		Requirements: models.DefaultRequirements(req.Kind),
		CreatedAt:    f.now().UTC(),
	}
	id, err := f.store.Create(ctx, a)
	if err != nil {
		slog.Error("Failed to create applicant.", "kind", req.Kind, "error", err)
		return nil, fmt.Errorf("failed to create applicant: %w", err)
	}
	slog.Info("Application submitted.", "applicantId", id, "kind", req.Kind)
	return &models.SubmitApplicationResponse{Status: "success", ApplicantID: id}, nil
}
