package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/admissionsflow/internal/models"
	"github.com/Lllllllleong/admissionsflow/internal/progress"
)

func TestEveryStageHasAnEmail(t *testing.T) {
	for _, st := range progress.Order {
		assert.True(t, KnownStep(string(st)), st)
	}
	assert.True(t, KnownStep(StepDecisionApproved))
	assert.True(t, KnownStep(StepDecisionRejected))
	assert.False(t, KnownStep("reviewing"))
}

func TestRenderInterviewEmail(t *testing.T) {
	a := models.Applicant{
		FirstName: "Ana",
		LastName:  "Reyes",
		Email:     "ana@example.com",
		Interview: &models.Schedule{Date: "2025-04-01", Time: "10:00", Location: "Room 204", Mode: "onsite"},
	}
	msg, err := Render(a, "interview_scheduled", "San Isidro High School", "https://apply.example.com")
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", msg.To.Address)
	assert.Equal(t, "Your interview schedule", msg.Subject)
	assert.Contains(t, msg.TextContent, "Dear Ana Reyes,")
	assert.Contains(t, msg.TextContent, "Date: 2025-04-01")
	assert.Contains(t, msg.TextContent, "Location: Room 204")
	assert.NotContains(t, msg.TextContent, "Notes:")
	assert.Contains(t, msg.HTMLContent, "<td>Room 204</td>")
	assert.Contains(t, msg.HTMLContent, `href="https://apply.example.com"`)
}

func TestRenderWithoutSchedule(t *testing.T) {
	msg, err := Render(models.Applicant{FirstName: "Ben", Email: "ben@example.com"}, "screening", "School", "https://x")
	require.NoError(t, err)
	assert.NotContains(t, msg.TextContent, "Date:")
	assert.NotContains(t, msg.HTMLContent, "<table")
}

func TestRenderUnknownStep(t *testing.T) {
	_, err := Render(models.Applicant{}, "archived", "School", "https://x")
	assert.True(t, errors.Is(err, ErrUnknownStep))
}

func TestSendgridMailerSend(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
		wantErr string
	}{
		{
			name: "accepted",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer key" || r.URL.Path != "/v3/mail/send" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				w.WriteHeader(http.StatusAccepted)
			},
			timeout: time.Second,
		},
		{
			name: "error status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"errors":[]}`))
			},
			timeout: time.Second,
			wantErr: "status: 400",
		},
		{
			name: "slow api times out",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
				w.WriteHeader(http.StatusAccepted)
			},
			timeout: 50 * time.Millisecond,
			wantErr: "sending email",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			prev := sendgridHost
			sendgridHost = srv.URL
			defer func() { sendgridHost = prev }()

			m := NewSendgridMailer("key", mail.Address{Name: "Admissions", Address: "admissions@school.test"}, "School", tt.timeout)
			err := m.Send(context.Background(), &Message{
				To:          mail.Address{Name: "Ana", Address: "ana@example.com"},
				Subject:     "Hello",
				TextContent: "hi",
				HTMLContent: "<p>hi</p>",
			})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSendgridMailerHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	prev := sendgridHost
	sendgridHost = srv.URL
	defer func() { sendgridHost = prev }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	m := NewSendgridMailer("key", mail.Address{Address: "admissions@school.test"}, "School", time.Minute)
	err := m.Send(ctx, &Message{To: mail.Address{Address: "ana@example.com"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
