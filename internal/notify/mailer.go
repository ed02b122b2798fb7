package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltmpl "html/template"
	"net/http"
	"net/mail"
	texttmpl "text/template"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Lllllllleong/admissionsflow/internal/models"
)

//go:embed templates/_base.txt templates/_base.gohtml
var templateFS embed.FS

var (
	textTemplates = texttmpl.Must(texttmpl.ParseFS(templateFS, "templates/_base.txt")).Option("missingkey=error")
	htmlTemplates = htmltmpl.Must(htmltmpl.ParseFS(templateFS, "templates/_base.gohtml")).Option("missingkey=error")
)

// Decision notification steps, sent outside the linear stage order.
const (
	StepDecisionApproved = "decision_approved"
	StepDecisionRejected = "decision_rejected"
)

// ErrUnknownStep is returned for steps without an email.
var ErrUnknownStep = errors.New("no notification defined for step")

type stepCopy struct {
	subject string
	body    string
	// schedule selects the appointment shown in the email.
	schedule string
}

var steps = map[string]stepCopy{
	"submitted":           {subject: "We received your application", body: "Thank you for applying. Our admissions team will review your application and the documents you submitted."},
	"screening":           {subject: "Your application is under review", body: "Your application has passed the initial check and is now being screened by our admissions team."},
	"interview_scheduled": {subject: "Your interview schedule", body: "We would like to invite you to an interview. Please see the details below.", schedule: "interview"},
	"interview_completed": {subject: "Thank you for attending your interview", body: "Your interview has been recorded as completed. We will contact you about the next step."},
	"demo_scheduled":      {subject: "Your demo teaching schedule", body: "You are invited to a demo teaching session. Please see the details below.", schedule: "demo"},
	"demo_completed":      {subject: "Thank you for your demo teaching", body: "Your demo teaching session has been recorded as completed. The panel is now preparing its evaluation."},
	"result":              {subject: "Your application is awaiting a decision", body: "All evaluation steps are complete. You will be notified once a final decision has been made."},
	"onboarding":          {subject: "Welcome aboard", body: "Your onboarding has started. Please watch your inbox for the documents and schedule we will send you."},
	"completed":           {subject: "Your application is complete", body: "Your application process is complete. Thank you for your time and welcome to our school community."},
	StepDecisionApproved:  {subject: "Congratulations on your application", body: "We are pleased to inform you that your application has been approved. Onboarding details will follow shortly."},
	StepDecisionRejected:  {subject: "An update on your application", body: "Thank you for your interest in our school. After careful review we are unable to move forward with your application. Your records will be removed from our system after 30 days."},
}

// KnownStep reports whether step has an email.
func KnownStep(step string) bool {
	_, ok := steps[step]
	return ok
}

// Message is a rendered email.
type Message struct {
	To          mail.Address
	Subject     string
	TextContent string
	HTMLContent string
}

type templateData struct {
	Name       string
	Body       string
	Schedule   *models.Schedule
	PortalURL  string
	SchoolName string
}

// Render builds the email for an applicant's step.
func Render(a models.Applicant, step, schoolName, portalURL string) (*Message, error) {
	sc, ok := steps[step]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	data := templateData{
		Name:       a.FullName(),
		Body:       sc.body,
		PortalURL:  portalURL,
		SchoolName: schoolName,
	}
	switch sc.schedule {
	case "interview":
		data.Schedule = a.Interview
	case "demo":
		data.Schedule = a.DemoTeaching
	}

	var text, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, "base", data); err != nil {
		return nil, fmt.Errorf("rendering text email: %w", err)
	}
	if err := htmlTemplates.ExecuteTemplate(&html, "base", data); err != nil {
		return nil, fmt.Errorf("rendering html email: %w", err)
	}
	return &Message{
		To:          mail.Address{Name: a.FullName(), Address: a.Email},
		Subject:     sc.subject,
		TextContent: text.String(),
		HTMLContent: html.String(),
	}, nil
}

// Mailer sends rendered emails.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendgridMailer sends email through the SendGrid v3 API.
type SendgridMailer struct {
	client     *rest.Client
	key        string
	from       *sgmail.Email
	subjPrefix string
}

var _ Mailer = (*SendgridMailer)(nil)

// NewSendgridMailer returns a mailer sending as from. Each send is bounded
// by timeout as well as by its context.
func NewSendgridMailer(apiKey string, from mail.Address, schoolName string, timeout time.Duration) *SendgridMailer {
	return &SendgridMailer{
		client:     &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
		key:        apiKey,
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: "[" + schoolName + "] ",
	}
}

func (m *SendgridMailer) prepare(msg *Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.To.Name, msg.To.Address))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(
		sgmail.NewContent("text/plain", msg.TextContent),
		sgmail.NewContent("text/html", msg.HTMLContent),
	)
	return v3
}

// Send posts msg to SendGrid.
func (m *SendgridMailer) Send(ctx context.Context, msg *Message) error {
	if msg.To.Address == "" {
		return fmt.Errorf("sending email: no recipient")
	}
	req := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return fmt.Errorf("building email request: %w", err)
	}
	httpRes, err := m.client.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	res, err := rest.BuildResponse(httpRes)
	if err != nil {
		return fmt.Errorf("reading email response: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sending email - status: %d - body: %s", res.StatusCode, res.Body)
	}
	return nil
}
