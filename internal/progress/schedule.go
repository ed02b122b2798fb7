package progress

import (
	"fmt"
	"time"
)

// Scheduled appointment kinds.
const (
	KindInterview = "interview"
	KindDemo      = "demo"
)

const (
	// MaxInterviewsPerDay caps active interviews on a single calendar date.
	MaxInterviewsPerDay = 3
	// MinInterviewGap is the minimum spacing between two interviews on a date.
	MinInterviewGap = 60 * time.Minute

	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// conflictStatuses are the statuses whose interview still holds a slot.
var conflictStatuses = map[Stage]bool{
	InterviewScheduled: true,
	Screening:          true,
	Submitted:          true,
}

// ConflictStatuses lists the stored statuses that take part in interview
// conflict checks, for store queries.
func ConflictStatuses() []string {
	return []string{string(InterviewScheduled), string(Screening), string(Submitted)}
}

// CancelTarget is the status an applicant returns to when the given kind of
// appointment is cancelled. A cancel never moves the status forward.
func CancelTarget(kind string, current Stage) Stage {
	target := Screening
	if kind == KindDemo {
		target = InterviewCompleted
	}
	return Earlier(current, target)
}

// CanSchedule checks whether an appointment of kind may be booked, or
// rebooked, for an applicant at stage current. completed is the state of
// the appointment already on record, if any.
func CanSchedule(kind string, current Stage, finalDecision string, completed bool) error {
	done := InterviewCompleted
	if kind == KindDemo {
		done = DemoCompleted
	}
	switch {
	case finalDecision != "":
		return reject("applicant already has a final decision: " + finalDecision)
	case completed:
		return reject(fmt.Sprintf("a completed %s cannot be rescheduled", kind))
	case current.Index() >= done.Index():
		return reject(fmt.Sprintf("applicant is already past the %s stage", kind))
	}
	return nil
}

// Slot is a parsed appointment date and time.
type Slot struct {
	At      time.Time
	Date    string
	Minutes int
}

// ParseSlot builds a slot from a YYYY-MM-DD date and an HH:MM time in loc.
func ParseSlot(date, clock string, loc *time.Location) (Slot, error) {
	if loc == nil {
		loc = time.UTC
	}
	at, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, loc)
	if err != nil {
		return Slot{}, reject("invalid date or time")
	}
	return Slot{At: at, Date: date, Minutes: at.Hour()*60 + at.Minute()}, nil
}

// ValidateFuture rejects slots whose date is before today in the slot's
// location. Times earlier today are accepted.
func ValidateFuture(s Slot, now time.Time) error {
	now = now.In(s.At.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(s.At.Year(), s.At.Month(), s.At.Day(), 0, 0, 0, 0, s.At.Location())
	if day.Before(today) {
		return reject("date cannot be in the past")
	}
	return nil
}

// Booking is an existing interview considered by conflict checks.
type Booking struct {
	ApplicantID string
	Status      string
	Date        string
	Time        string
}

// CheckInterviewConflict enforces the per-day interview limits for a
// candidate booking against the existing ones.
func CheckInterviewConflict(existing []Booking, candidate Booking) error {
	cand, err := ParseSlot(candidate.Date, candidate.Time, time.UTC)
	if err != nil {
		return err
	}
	var sameDay []Slot
	for _, b := range existing {
		if b.ApplicantID == candidate.ApplicantID || b.Date != candidate.Date {
			continue
		}
		if !conflictStatuses[Stage(b.Status)] {
			continue
		}
		slot, err := ParseSlot(b.Date, b.Time, time.UTC)
		if err != nil {
			// Malformed legacy rows still occupy the day.
			sameDay = append(sameDay, Slot{Minutes: -1})
			continue
		}
		sameDay = append(sameDay, slot)
	}
	if len(sameDay) >= MaxInterviewsPerDay {
		return reject(fmt.Sprintf("maximum of %d interviews per day already reached on %s", MaxInterviewsPerDay, candidate.Date))
	}
	gap := int(MinInterviewGap / time.Minute)
	for _, s := range sameDay {
		if s.Minutes < 0 {
			continue
		}
		if abs(s.Minutes-cand.Minutes) < gap {
			return reject(fmt.Sprintf("interviews must be at least %d minutes apart; %s conflicts with an interview at %s",
				gap, candidate.Time, formatMinutes(s.Minutes)))
		}
	}
	return nil
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
