package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/admissionsflow/internal/applicants"
	"github.com/Lllllllleong/admissionsflow/internal/models"
)

// RecordsFunction handles archiving, email verification and requirement
// check-off.
type RecordsFunction struct {
	store  applicants.Store
	mirror *applicants.Mirror
}

// NewRecords creates a RecordsFunction from the environment.
func NewRecords(ctx context.Context) (*RecordsFunction, error) {
	storeCfg, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}
	store, err := newFirestoreStore(ctx, storeCfg)
	if err != nil {
		return nil, err
	}
	slog.Info("Records logic initialized.", "collection", storeCfg.CollectionName)
	return NewRecordsWith(store, startMirror(store)), nil
}

// NewRecordsWith wires a RecordsFunction from existing dependencies.
func NewRecordsWith(store applicants.Store, mirror *applicants.Mirror) *RecordsFunction {
	return &RecordsFunction{store: store, mirror: mirror}
}

// Process applies one record update. Archiving is independent of status.
func (f *RecordsFunction) Process(ctx context.Context, req *models.RecordUpdateRequest) (*models.RecordUpdateResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	logCtx := slog.With("applicantId", req.ApplicantID, "action", req.Action)

	a, err := f.store.Get(ctx, req.ApplicantID)
	if err != nil {
		return nil, err
	}

	m := applicants.Mutation{IfUpdatedAt: a.UpdatedAt}
	switch req.Action {
	case "archive":
		m.Archived = applicants.Bool(true)
	case "unarchive":
		m.Archived = applicants.Bool(false)
	case "verify_email":
		if a.EmailVerified {
			return &models.RecordUpdateResponse{Status: "success", Archived: a.Archived}, nil
		}
		m.EmailVerified = applicants.Bool(true)
	case "check_requirement", "uncheck_requirement":
		r, ok := a.Requirements[req.RequirementKey]
		if !ok {
			return nil, validationError("unknown requirement %q", req.RequirementKey)
		}
		r.Checked = req.Action == "check_requirement"
		m.Requirements = map[string]models.Requirement{req.RequirementKey: r}
	}

	updatedAt, err := f.store.Apply(ctx, a.ID, m)
	if err != nil {
		logCtx.Error("Failed to update applicant record.", "error", err)
		return nil, fmt.Errorf("failed to update record: %w", err)
	}
	updated := *a
	m.ApplyTo(&updated, updatedAt)
	f.mirror.Apply(updated)
	logCtx.Info("Applicant record updated.", "requirementKey", req.RequirementKey)

	return &models.RecordUpdateResponse{Status: "success", Archived: updated.Archived}, nil
}
