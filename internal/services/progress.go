package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lllllllleong/admissionsflow/internal/applicants"
	"github.com/Lllllllleong/admissionsflow/internal/gcp"
	"github.com/Lllllllleong/admissionsflow/internal/models"
	"github.com/Lllllllleong/admissionsflow/internal/notify"
	"github.com/Lllllllleong/admissionsflow/internal/progress"
)

const notificationWarning = "status saved, but the notification could not be sent"

// ProgressConfig holds configuration for the progress-advance function.
type ProgressConfig struct {
	Store         StoreConfig
	NotifyURL     string
	NotifyTimeout time.Duration
}

// ProgressFunction renders the applicant checklist and commits advances.
type ProgressFunction struct {
	store    applicants.Store
	mirror   *applicants.Mirror
	notifier notify.Notifier
	config   ProgressConfig
}

// NewProgress creates a ProgressFunction from the environment.
func NewProgress(ctx context.Context) (*ProgressFunction, error) {
	storeCfg, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}
	config := ProgressConfig{
		Store:         storeCfg,
		NotifyURL:     gcp.GetEnv("NOTIFY_URL", ""),
		NotifyTimeout: gcp.GetEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
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

	slog.Info("Progress logic initialized.", "collection", config.Store.CollectionName)
	return NewProgressWith(store, startMirror(store), notifier), nil
}

// NewProgressWith wires a ProgressFunction from existing dependencies.
func NewProgressWith(store applicants.Store, mirror *applicants.Mirror, notifier notify.Notifier) *ProgressFunction {
	return &ProgressFunction{store: store, mirror: mirror, notifier: notifier}
}

// Process previews or advances an applicant.
func (f *ProgressFunction) Process(ctx context.Context, req *models.AdvanceRequest) (*models.AdvanceResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.Preview {
		return f.View(ctx, req.ApplicantID)
	}
	return f.Advance(ctx, req.ApplicantID, progress.Stage(req.TargetStage))
}

// View returns the checklist for an applicant without changing it.
func (f *ProgressFunction) View(ctx context.Context, applicantID string) (*models.AdvanceResponse, error) {
	a, err := f.store.Get(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	f.mirror.Apply(*a)
	return responseFor(a), nil
}

// Advance moves the applicant forward to target, or to the next stage when
// target is empty. The status write happens before the mirror is touched;
// the notification for the new stage is best-effort.
func (f *ProgressFunction) Advance(ctx context.Context, applicantID string, target progress.Stage) (*models.AdvanceResponse, error) {
	logCtx := slog.With("applicantId", applicantID)

	a, err := f.store.Get(ctx, applicantID)
	if err != nil {
		logCtx.Warn("Could not load applicant.", "error", err)
		return nil, err
	}
	f.mirror.Apply(*a)

	current := progress.ResolveCurrentIndex(a.Status)
	var verdict progress.Verdict
	if target == "" {
		verdict = progress.CanAdvance(current, factsOf(a))
	} else {
		verdict = progress.CanAdvanceTo(current, target, factsOf(a))
	}
	if verdict.NoOp {
		logCtx.Info("Advance ignored.", "status", a.Status, "reason", verdict.Reason)
		resp := responseFor(a)
		resp.NoOp = true
		resp.Message = verdict.Reason
		return resp, nil
	}
	if err := verdict.Err(); err != nil {
		logCtx.Info("Advance rejected.", "status", a.Status, "next", verdict.Next, "reason", verdict.Reason)
		return nil, err
	}

	// Every *_completed stage passed on the way closes its appointment.
	m := applicants.Mutation{Status: string(verdict.Next), IfUpdatedAt: a.UpdatedAt}
	if a.Interview != nil && !a.Interview.Completed && progress.Crosses(current, verdict.Next, progress.InterviewCompleted) {
		m.Complete = append(m.Complete, applicants.FieldInterview)
	}
	if a.DemoTeaching != nil && !a.DemoTeaching.Completed && progress.Crosses(current, verdict.Next, progress.DemoCompleted) {
		m.Complete = append(m.Complete, applicants.FieldDemoTeaching)
	}
	updatedAt, err := f.store.Apply(ctx, a.ID, m)
	if err != nil {
		logCtx.Error("Failed to persist status change.", "from", a.Status, "to", verdict.Next, "error", err)
		return nil, fmt.Errorf("failed to persist status: %w", err)
	}

	updated := *a
	m.ApplyTo(&updated, updatedAt)
	f.mirror.Apply(updated)
	logCtx.Info("Applicant advanced.", "from", a.Status, "to", verdict.Next)

	resp := responseFor(&updated)
	if err := f.notifier.Notify(ctx, a.ID, string(verdict.Next)); err != nil {
		logCtx.Warn("Step notification failed; status change kept.", "step", verdict.Next, "error", err)
		resp.Warning = notificationWarning
	}
	return resp, nil
}

func responseFor(a *models.Applicant) *models.AdvanceResponse {
	stage := progress.Normalize(a.Status)
	return &models.AdvanceResponse{
		Status:           "success",
		CurrentStage:     string(stage),
		CurrentIndex:     stage.Index(),
		Checklist:        checklistOf(a.Status),
		DecisionControls: progress.DecisionControlsVisible(a.Status, a.FinalDecision),
	}
}
