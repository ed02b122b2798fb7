package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInterviewConflictGap(t *testing.T) {
	existing := []Booking{{ApplicantID: "a", Status: "interview_scheduled", Date: "2025-03-10", Time: "09:00"}}

	err := CheckInterviewConflict(existing, Booking{ApplicantID: "b", Date: "2025-03-10", Time: "09:59"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "60 minutes")

	assert.NoError(t, CheckInterviewConflict(existing, Booking{ApplicantID: "b", Date: "2025-03-10", Time: "10:00"}))
	assert.NoError(t, CheckInterviewConflict(existing, Booking{ApplicantID: "b", Date: "2025-03-10", Time: "08:00"}))
	assert.Error(t, CheckInterviewConflict(existing, Booking{ApplicantID: "b", Date: "2025-03-10", Time: "08:01"}))
}

func TestCheckInterviewConflictDailyCap(t *testing.T) {
	existing := []Booking{
		{ApplicantID: "a", Status: "submitted", Date: "2025-03-10", Time: "08:00"},
		{ApplicantID: "b", Status: "screening", Date: "2025-03-10", Time: "10:00"},
		{ApplicantID: "c", Status: "interview_scheduled", Date: "2025-03-10", Time: "13:00"},
	}
	err := CheckInterviewConflict(existing, Booking{ApplicantID: "d", Date: "2025-03-10", Time: "16:00"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum of 3")

	// Rescheduling one of the three is not blocked by its own slot.
	assert.NoError(t, CheckInterviewConflict(existing, Booking{ApplicantID: "c", Date: "2025-03-10", Time: "15:00"}))
}

func TestCheckInterviewConflictIgnoresOtherStatusesAndDates(t *testing.T) {
	existing := []Booking{
		{ApplicantID: "a", Status: "interview_completed", Date: "2025-03-10", Time: "09:00"},
		{ApplicantID: "b", Status: "result", Date: "2025-03-10", Time: "09:30"},
		{ApplicantID: "c", Status: "interview_scheduled", Date: "2025-03-11", Time: "09:00"},
		{ApplicantID: "d", Status: "reviewing", Date: "2025-03-10", Time: "09:15"},
	}
	assert.NoError(t, CheckInterviewConflict(existing, Booking{ApplicantID: "e", Date: "2025-03-10", Time: "09:00"}))
}

func TestParseSlot(t *testing.T) {
	s, err := ParseSlot("2025-04-01", "10:30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 630, s.Minutes)

	for _, tc := range [][2]string{{"2025-02-30", "10:00"}, {"2025-04-01", "25:00"}, {"04/01/2025", "10:00"}, {"", ""}} {
		_, err := ParseSlot(tc[0], tc[1], time.UTC)
		assert.Error(t, err, tc)
	}
}

func TestValidateFuture(t *testing.T) {
	now := time.Date(2025, 4, 1, 15, 0, 0, 0, time.UTC)

	today, _ := ParseSlot("2025-04-01", "09:00", time.UTC)
	assert.NoError(t, ValidateFuture(today, now))

	past, _ := ParseSlot("2025-03-31", "23:00", time.UTC)
	err := ValidateFuture(past, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "past")
}

func TestCancelTarget(t *testing.T) {
	assert.Equal(t, Screening, CancelTarget(KindInterview, InterviewScheduled))
	assert.Equal(t, Screening, CancelTarget(KindInterview, DemoCompleted))
	assert.Equal(t, Submitted, CancelTarget(KindInterview, Submitted))
	assert.Equal(t, InterviewCompleted, CancelTarget(KindDemo, DemoScheduled))
	assert.Equal(t, InterviewCompleted, CancelTarget(KindDemo, DemoCompleted))
	assert.Equal(t, Screening, CancelTarget(KindDemo, Screening))
}

func TestCanSchedule(t *testing.T) {
	tests := []struct {
		name      string
		kind      string
		current   Stage
		decision  string
		completed bool
		wantErr   string
	}{
		{name: "interview from screening", kind: KindInterview, current: Screening},
		{name: "interview reschedule", kind: KindInterview, current: InterviewScheduled},
		{name: "demo after interview", kind: KindDemo, current: InterviewCompleted},
		{name: "demo reschedule", kind: KindDemo, current: DemoScheduled},
		{name: "final decision", kind: KindInterview, current: Screening, decision: "rejected", wantErr: "final decision"},
		{name: "completed interview", kind: KindInterview, current: InterviewScheduled, completed: true, wantErr: "completed interview cannot be rescheduled"},
		{name: "interview past stage", kind: KindInterview, current: InterviewCompleted, wantErr: "past the interview stage"},
		{name: "demo past stage", kind: KindDemo, current: Result, wantErr: "past the demo stage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanSchedule(tt.kind, tt.current, tt.decision, tt.completed)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
