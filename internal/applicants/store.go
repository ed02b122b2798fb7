// Package applicants persists applicant records and keeps an in-memory
// mirror of them up to date.
package applicants

import (
	"context"
	"errors"
	"time"

	"github.com/Lllllllleong/admissionsflow/internal/models"
)

var (
	// ErrNotFound is returned when no applicant exists for an id.
	ErrNotFound = errors.New("applicant not found")
	// ErrConflict is returned when a write precondition no longer holds
	// because the record changed since it was read.
	ErrConflict = errors.New("applicant was modified by another request")
)

// Store is the applicant document store.
type Store interface {
	Get(ctx context.Context, id string) (*models.Applicant, error)
	Create(ctx context.Context, a *models.Applicant) (string, error)
	List(ctx context.Context, q Query) ([]models.Applicant, error)
	// Apply is the only way to change an existing applicant. It returns
	// the server update time of the write.
	Apply(ctx context.Context, id string, m Mutation) (time.Time, error)
	RecordNotification(ctx context.Context, id string, n models.Notification) error
	// Watch streams every added or changed applicant to fn until ctx ends.
	// synced, when not nil, is called once after the initial contents of
	// the collection have been delivered.
	Watch(ctx context.Context, fn func(a models.Applicant, removed bool), synced func()) error
}

// Query filters List. Zero fields do not filter.
type Query struct {
	Statuses        []string
	InterviewDate   string
	IncludeArchived bool
	VerifiedOnly    bool
}

// Schedule field selectors for Mutation.
const (
	FieldInterview    = "interview"
	FieldDemoTeaching = "demoTeaching"
)

// Mutation describes one write to an applicant record.
type Mutation struct {
	// Status replaces the stored status when non-empty.
	Status string

	// ScheduleField selects interview or demoTeaching for Schedule and
	// ClearSchedule.
	ScheduleField string
	Schedule      *models.Schedule
	ClearSchedule bool
	// Complete lists schedule fields to mark completed. Absent
	// appointments are left absent.
	Complete []string

	FinalDecision string
	Archived      *bool
	EmailVerified *bool
	Requirements  map[string]models.Requirement

	// IfUpdatedAt, when set, makes the write fail with ErrConflict unless
	// the record's update time still matches.
	IfUpdatedAt time.Time
}

// Empty reports whether m would not change anything.
func (m Mutation) Empty() bool {
	return m.Status == "" && m.ScheduleField == "" && len(m.Complete) == 0 &&
		m.FinalDecision == "" && m.Archived == nil && m.EmailVerified == nil &&
		len(m.Requirements) == 0
}

// ApplyTo performs the mutation on an in-memory copy of the record.
func (m Mutation) ApplyTo(a *models.Applicant, updatedAt time.Time) {
	if m.Status != "" {
		a.Status = m.Status
	}
	if m.ScheduleField != "" {
		target := &a.Interview
		if m.ScheduleField == FieldDemoTeaching {
			target = &a.DemoTeaching
		}
		switch {
		case m.ClearSchedule:
			*target = nil
		case m.Schedule != nil:
			s := *m.Schedule
			*target = &s
		}
	}
	for _, field := range m.Complete {
		target := &a.Interview
		if field == FieldDemoTeaching {
			target = &a.DemoTeaching
		}
		if *target != nil {
			s := **target
			s.Completed = true
			*target = &s
		}
	}
	if m.FinalDecision != "" {
		a.FinalDecision = m.FinalDecision
		a.DecidedAt = updatedAt
	}
	if m.Archived != nil {
		a.Archived = *m.Archived
	}
	if m.EmailVerified != nil {
		a.EmailVerified = *m.EmailVerified
	}
	if len(m.Requirements) > 0 {
		reqs := make(map[string]models.Requirement, len(a.Requirements)+len(m.Requirements))
		for k, v := range a.Requirements {
			reqs[k] = v
		}
		for k, v := range m.Requirements {
			reqs[k] = v
		}
		a.Requirements = reqs
	}
	a.UpdatedAt = updatedAt
}

func (q Query) matches(a models.Applicant) bool {
	if !q.IncludeArchived && a.Archived {
		return false
	}
	if q.VerifiedOnly && !a.EmailVerified {
		return false
	}
	if len(q.Statuses) > 0 {
		found := false
		for _, s := range q.Statuses {
			if a.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.InterviewDate != "" && (a.Interview == nil || a.Interview.Date != q.InterviewDate) {
		return false
	}
	return true
}

// Bool returns a pointer to b, for Mutation.Archived.
func Bool(b bool) *bool { return &b }
