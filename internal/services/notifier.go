package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/Lllllllleong/admissionsflow/internal/applicants"
	"github.com/Lllllllleong/admissionsflow/internal/gcp"
	"github.com/Lllllllleong/admissionsflow/internal/models"
	"github.com/Lllllllleong/admissionsflow/internal/notify"
)

// NotifierConfig holds configuration for the step-notifier function.
type NotifierConfig struct {
	Store      StoreConfig
	APIKey     string
	From       mail.Address
	SchoolName string
	PortalURL  string
	// MailTimeout bounds one SendGrid request.
	MailTimeout time.Duration
}

// NotifierFunction is the notification endpoint: it emails the applicant
// about a step and logs the attempt on the record.
type NotifierFunction struct {
	store  applicants.Store
	mailer notify.Mailer
	config NotifierConfig
	now    func() time.Time
}

// NewNotifier creates a NotifierFunction from the environment.
func NewNotifier(ctx context.Context) (*NotifierFunction, error) {
	storeCfg, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}
	from, err := mail.ParseAddress(gcp.GetEnv("FROM_EMAIL", ""))
	if err != nil {
		return nil, fmt.Errorf("FROM_EMAIL must be a valid address: %w", err)
	}
	config := NotifierConfig{
		Store:       storeCfg,
		APIKey:      gcp.GetEnv("SENDGRID_API_KEY", ""),
		From:        *from,
		SchoolName:  gcp.GetEnv("SCHOOL_NAME", "Admissions"),
		PortalURL:   gcp.GetEnv("PORTAL_URL", ""),
		MailTimeout: gcp.GetEnvDuration("MAIL_TIMEOUT", 10*time.Second),
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("SENDGRID_API_KEY environment variable must be set")
	}

	store, err := newFirestoreStore(ctx, config.Store)
	if err != nil {
		return nil, err
	}
	mailer := notify.NewSendgridMailer(config.APIKey, config.From, config.SchoolName, config.MailTimeout)
	slog.Info("Notifier logic initialized.", "from", config.From.Address)
	return NewNotifierWith(store, mailer, config), nil
}

// NewNotifierWith wires a NotifierFunction from existing dependencies.
func NewNotifierWith(store applicants.Store, mailer notify.Mailer, config NotifierConfig) *NotifierFunction {
	return &NotifierFunction{store: store, mailer: mailer, config: config, now: time.Now}
}

// Process sends the email for req.Step. Every attempt, failed or not, is
// recorded in the applicant's notification log.
func (f *NotifierFunction) Process(ctx context.Context, req *models.NotifyRequest) (*models.NotifyResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if !notify.KnownStep(req.Step) {
		return nil, validationError("no notification defined for step %q", req.Step)
	}
	logCtx := slog.With("applicantId", req.ApplicantID, "step", req.Step)

	a, err := f.store.Get(ctx, req.ApplicantID)
	if err != nil {
		return nil, err
	}
	msg, err := notify.Render(*a, req.Step, f.config.SchoolName, f.config.PortalURL)
	if err != nil {
		if errors.Is(err, notify.ErrUnknownStep) {
			return nil, validationError("%v", err)
		}
		logCtx.Error("Failed to render notification.", "error", err)
		return nil, err
	}

	record := models.Notification{
		Step:      req.Step,
		Channel:   "email",
		Recipient: a.Email,
		Status:    "sent",
		SentAt:    f.now().UTC(),
	}
	sendErr := f.mailer.Send(ctx, msg)
	if sendErr != nil {
		record.Status = "failed"
		record.Error = sendErr.Error()
	}
	if err := f.store.RecordNotification(ctx, a.ID, record); err != nil {
		logCtx.Warn("Failed to record notification attempt.", "error", err)
	}
	if sendErr != nil {
		logCtx.Error("Failed to send notification email.", "error", sendErr)
		return nil, fmt.Errorf("failed to send notification: %w", sendErr)
	}

	logCtx.Info("Notification sent.")
	return &models.NotifyResponse{Status: "success", Recipient: a.Email}, nil
}
