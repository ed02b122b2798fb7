package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Lllllllleong/admissionsflow/internal/applicants"
	"github.com/Lllllllleong/admissionsflow/internal/gcp"
	"github.com/Lllllllleong/admissionsflow/internal/models"
	"github.com/Lllllllleong/admissionsflow/internal/notify"
	"github.com/Lllllllleong/admissionsflow/internal/progress"
)

// RetentionScheduler arranges deletion of an applicant's records.
type RetentionScheduler interface {
	ScheduleRetention(ctx context.Context, applicantID, decision string, deleteAfter time.Time) (string, error)
}

// DecisionConfig holds configuration for the applicant-decision function.
type DecisionConfig struct {
	Store            StoreConfig
	NotifyURL        string
	NotifyTimeout    time.Duration
	WorkflowLocation string
	WorkflowID       string
	RetentionPeriod  time.Duration
}

// DecisionFunction records approve/reject decisions.
type DecisionFunction struct {
	store     applicants.Store
	mirror    *applicants.Mirror
	notifier  notify.Notifier
	retention RetentionScheduler
	config    DecisionConfig
	now       func() time.Time
}

// NewDecision creates a DecisionFunction from the environment.
func NewDecision(ctx context.Context) (*DecisionFunction, error) {
	storeCfg, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}
	config := DecisionConfig{
		Store:            storeCfg,
		NotifyURL:        gcp.GetEnv("NOTIFY_URL", ""),
		NotifyTimeout:    gcp.GetEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		WorkflowID:       gcp.GetEnv("RETENTION_WORKFLOW_ID", "applicant-retention"),
		RetentionPeriod:  gcp.GetEnvDuration("RETENTION_PERIOD", 30*24*time.Hour),
	}
	if config.NotifyURL == "" {
		return nil, fmt.Errorf("NOTIFY_URL environment variable must be set")
	}

	store, err := newFirestoreStore(ctx, config.Store)
	if err != nil {
		return nil, err
	}
	notifier, err := notify.NewClient(ctx, config.NotifyURL, config.NotifyTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification client: %w", err)
	}
	retention, err := gcp.NewRetentionScheduler(ctx, storeCfg.ProjectID, config.WorkflowLocation, config.WorkflowID)
	if err != nil {
		return nil, err
	}

	f := NewDecisionWith(store, startMirror(store), notifier, retention)
	f.config = config
	slog.Info("Decision logic initialized.", "workflowId", config.WorkflowID)
	return f, nil
}

// NewDecisionWith wires a DecisionFunction from existing dependencies.
func NewDecisionWith(store applicants.Store, mirror *applicants.Mirror, notifier notify.Notifier, retention RetentionScheduler) *DecisionFunction {
	return &DecisionFunction{
		store:     store,
		mirror:    mirror,
		notifier:  notifier,
		retention: retention,
		config:    DecisionConfig{RetentionPeriod: 30 * 24 * time.Hour},
		now:       time.Now,
	}
}

// Process approves or rejects an applicant at the result stage. Repeating
// the recorded decision returns it again without side effects.
func (f *DecisionFunction) Process(ctx context.Context, req *models.DecisionRequest) (*models.DecisionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	logCtx := slog.With("applicantId", req.ApplicantID, "decision", req.Decision)

	a, err := f.store.Get(ctx, req.ApplicantID)
	if err != nil {
		return nil, err
	}
	replay, err := progress.CanDecide(a.Status, a.FinalDecision, req.Decision)
	if err != nil {
		logCtx.Info("Decision rejected.", "status", a.Status, "finalDecision", a.FinalDecision, "reason", err)
		return nil, err
	}
	if replay {
		logCtx.Info("Decision already recorded; replaying.")
		return decisionResponse(a, true), nil
	}

	m := applicants.Mutation{
		Status:        string(progress.DecisionStage(req.Decision)),
		FinalDecision: req.Decision,
		IfUpdatedAt:   a.UpdatedAt,
	}
	updatedAt, err := f.store.Apply(ctx, a.ID, m)
	if errors.Is(err, applicants.ErrConflict) {
		// A concurrent request may have recorded the same decision.
		if fresh, gerr := f.store.Get(ctx, a.ID); gerr == nil && fresh.FinalDecision == req.Decision {
			logCtx.Info("Concurrent request recorded the same decision.")
			return decisionResponse(fresh, true), nil
		}
	}
	if err != nil {
		logCtx.Error("Failed to persist decision.", "error", err)
		return nil, fmt.Errorf("failed to persist decision: %w", err)
	}

	updated := *a
	m.ApplyTo(&updated, updatedAt)
	f.mirror.Apply(updated)
	logCtx.Info("Decision recorded.")

	resp := decisionResponse(&updated, false)
	var warnings []string
	if req.Decision == progress.Rejected && f.retention != nil {
		deleteAfter := f.now().Add(f.config.RetentionPeriod)
		if execName, err := f.retention.ScheduleRetention(ctx, a.ID, req.Decision, deleteAfter); err != nil {
			logCtx.Error("Failed to schedule record retention.", "error", err)
			warnings = append(warnings, "record deletion could not be scheduled")
		} else {
			logCtx.Info("Record retention scheduled.", "execution", execName, "deleteAfter", deleteAfter)
		}
	}
	step := notify.StepDecisionApproved
	if req.Decision == progress.Rejected {
		step = notify.StepDecisionRejected
	}
	if err := f.notifier.Notify(ctx, a.ID, step); err != nil {
		logCtx.Warn("Decision notification failed; decision kept.", "error", err)
		warnings = append(warnings, "the decision email could not be sent")
	}
	resp.Warning = strings.Join(warnings, "; ")
	return resp, nil
}

func decisionResponse(a *models.Applicant, replayed bool) *models.DecisionResponse {
	return &models.DecisionResponse{
		Status:        "success",
		FinalDecision: a.FinalDecision,
		CurrentStage:  string(progress.Normalize(a.Status)),
		Replayed:      replayed,
	}
}
