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

// SchedulerConfig holds configuration for the schedule-manager function.
type SchedulerConfig struct {
	Store         StoreConfig
	Location      *time.Location
	NotifyURL     string
	NotifyTimeout time.Duration
}

// SchedulerFunction books and cancels interviews and demo teaching sessions.
type SchedulerFunction struct {
	store    applicants.Store
	mirror   *applicants.Mirror
	notifier notify.Notifier
	loc      *time.Location
	now      func() time.Time
}

// NewScheduler creates a SchedulerFunction from the environment.
func NewScheduler(ctx context.Context) (*SchedulerFunction, error) {
	storeCfg, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}
	loc, err := gcp.LoadLocation("SCHOOL_TIMEZONE")
	if err != nil {
		return nil, fmt.Errorf("invalid SCHOOL_TIMEZONE: %w", err)
	}
	config := SchedulerConfig{
		Store:         storeCfg,
		Location:      loc,
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
	slog.Info("Scheduler logic initialized.", "timezone", loc.String())
	return NewSchedulerWith(store, startMirror(store), notifier, loc), nil
}

// NewSchedulerWith wires a SchedulerFunction from existing dependencies.
func NewSchedulerWith(store applicants.Store, mirror *applicants.Mirror, notifier notify.Notifier, loc *time.Location) *SchedulerFunction {
	if loc == nil {
		loc = time.UTC
	}
	return &SchedulerFunction{store: store, mirror: mirror, notifier: notifier, loc: loc, now: time.Now}
}

// Process dispatches a schedule or cancel request.
func (f *SchedulerFunction) Process(ctx context.Context, req *models.ScheduleRequest) (*models.ScheduleResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	a, err := f.store.Get(ctx, req.ApplicantID)
	if err != nil {
		return nil, err
	}
	if req.Action == "cancel" {
		return f.cancel(ctx, a, req.Kind)
	}
	return f.schedule(ctx, a, req)
}

func (f *SchedulerFunction) schedule(ctx context.Context, a *models.Applicant, req *models.ScheduleRequest) (*models.ScheduleResponse, error) {
	logCtx := slog.With("applicantId", a.ID, "kind", req.Kind, "date", req.Date, "time", req.Time)

	booked := a.Interview
	if req.Kind == progress.KindDemo {
		booked = a.DemoTeaching
	}
	if err := progress.CanSchedule(req.Kind, progress.Normalize(a.Status), a.FinalDecision, booked != nil && booked.Completed); err != nil {
		logCtx.Info("Schedule rejected.", "status", a.Status, "reason", err)
		return nil, err
	}

	slot, err := progress.ParseSlot(req.Date, req.Time, f.loc)
	if err != nil {
		return nil, err
	}
	if err := progress.ValidateFuture(slot, f.now()); err != nil {
		return nil, err
	}

	field := applicants.FieldInterview
	if req.Kind == progress.KindDemo {
		if a.Interview == nil {
			return nil, &progress.Rejection{Reason: "interview must be completed before scheduling demo"}
		}
		field = applicants.FieldDemoTeaching
	} else {
		existing, err := f.store.List(ctx, applicants.Query{
			Statuses:      progress.ConflictStatuses(),
			InterviewDate: req.Date,
		})
		if err != nil {
			logCtx.Error("Failed to load interviews for conflict check.", "error", err)
			return nil, fmt.Errorf("failed to load interviews: %w", err)
		}
		if err := progress.CheckInterviewConflict(bookingsOf(existing), progress.Booking{
			ApplicantID: a.ID,
			Date:        req.Date,
			Time:        req.Time,
		}); err != nil {
			logCtx.Info("Interview slot rejected.", "reason", err)
			return nil, err
		}
	}

	sched := &models.Schedule{
		Date:     req.Date,
		Time:     req.Time,
		Location: req.Location,
		Mode:     req.Mode,
		Notes:    req.Notes,
	}
	m := applicants.Mutation{ScheduleField: field, Schedule: sched, IfUpdatedAt: a.UpdatedAt}
	updatedAt, err := f.store.Apply(ctx, a.ID, m)
	if err != nil {
		logCtx.Error("Failed to save schedule.", "error", err)
		return nil, fmt.Errorf("failed to save schedule: %w", err)
	}
	updated := *a
	m.ApplyTo(&updated, updatedAt)
	f.mirror.Apply(updated)
	logCtx.Info("Appointment saved.")

	// A reschedule after the stage was already reached gets a fresh notice.
	step := progress.InterviewScheduled
	if req.Kind == progress.KindDemo {
		step = progress.DemoScheduled
	}
	if progress.Normalize(a.Status) == step {
		if err := f.notifier.Notify(ctx, a.ID, string(step)); err != nil {
			logCtx.Warn("Reschedule notification failed.", "error", err)
		}
	}

	return &models.ScheduleResponse{
		Status:       "success",
		CurrentStage: string(progress.Normalize(updated.Status)),
		Schedule:     sched,
	}, nil
}

func (f *SchedulerFunction) cancel(ctx context.Context, a *models.Applicant, kind string) (*models.ScheduleResponse, error) {
	logCtx := slog.With("applicantId", a.ID, "kind", kind)

	field := applicants.FieldInterview
	current := a.Interview
	if kind == progress.KindDemo {
		field, current = applicants.FieldDemoTeaching, a.DemoTeaching
	}
	if current == nil {
		return nil, validationError("no %s is scheduled", kind)
	}
	if kind == progress.KindInterview && a.DemoTeaching != nil {
		return nil, validationError("cancel the demo teaching before cancelling the interview")
	}
	if current.Completed {
		return nil, validationError("a completed %s cannot be cancelled", kind)
	}

	target := progress.CancelTarget(kind, progress.Normalize(a.Status))
	m := applicants.Mutation{
		Status:        string(target),
		ScheduleField: field,
		ClearSchedule: true,
		IfUpdatedAt:   a.UpdatedAt,
	}
	updatedAt, err := f.store.Apply(ctx, a.ID, m)
	if err != nil {
		logCtx.Error("Failed to cancel appointment.", "error", err)
		return nil, fmt.Errorf("failed to cancel %s: %w", kind, err)
	}
	updated := *a
	m.ApplyTo(&updated, updatedAt)
	f.mirror.Apply(updated)
	logCtx.Info("Appointment cancelled.", "from", a.Status, "to", target)

	return &models.ScheduleResponse{Status: "success", CurrentStage: string(target)}, nil
}

func bookingsOf(list []models.Applicant) []progress.Booking {
	out := make([]progress.Booking, 0, len(list))
	for _, a := range list {
		if a.Interview == nil {
			continue
		}
		out = append(out, progress.Booking{
			ApplicantID: a.ID,
			Status:      a.Status,
			Date:        a.Interview.Date,
			Time:        a.Interview.Time,
		})
	}
	return out
}
