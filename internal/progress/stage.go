// Package progress holds the applicant pipeline rules: the canonical stage
// order, legacy status normalization, advance validation, the decision
// branch and interview scheduling limits. It performs no I/O.
package progress

import "strings"

// Stage is one step of the applicant pipeline.
type Stage string

const (
	Submitted          Stage = "submitted"
	Screening          Stage = "screening"
	InterviewScheduled Stage = "interview_scheduled"
	InterviewCompleted Stage = "interview_completed"
	DemoScheduled      Stage = "demo_scheduled"
	DemoCompleted      Stage = "demo_completed"
	Result             Stage = "result"
	Onboarding         Stage = "onboarding"
	Completed          Stage = "completed"
)

// Order is the canonical pipeline sequence. The checklist renderer and the
// committer must both index into this slice.
var Order = []Stage{
	Submitted,
	Screening,
	InterviewScheduled,
	InterviewCompleted,
	DemoScheduled,
	DemoCompleted,
	Result,
	Onboarding,
	Completed,
}

// legacyAliases maps retired status strings still found in old records.
var legacyAliases = map[string]Stage{
	"reviewing": Screening,
	"decision":  Result,
	"approved":  Result,
	"rejected":  Result,
	"demo":      DemoScheduled,
	"archived":  Completed,
}

// Normalize maps a stored status string to its canonical stage. Unknown
// values normalize to Submitted.
func Normalize(raw string) Stage {
	s := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := legacyAliases[s]; ok {
		return alias
	}
	for _, st := range Order {
		if string(st) == s {
			return st
		}
	}
	return Submitted
}

// ResolveCurrentIndex returns the position of raw in Order after
// normalization, or 0 when the status is not recognized.
func ResolveCurrentIndex(raw string) int {
	return Normalize(raw).Index()
}

// Index returns the position of s in Order, or 0 if s is not canonical.
func (s Stage) Index() int {
	for i, st := range Order {
		if st == s {
			return i
		}
	}
	return 0
}

// Valid reports whether s is a canonical stage.
func (s Stage) Valid() bool {
	for _, st := range Order {
		if st == s {
			return true
		}
	}
	return false
}

func (s Stage) String() string { return string(s) }

// Crosses reports whether a move from index current to target enters s.
func Crosses(current int, target, s Stage) bool {
	i := s.Index()
	return current < i && i <= target.Index()
}

// Earlier returns whichever of a and b comes first in Order.
func Earlier(a, b Stage) Stage {
	if b.Index() < a.Index() {
		return b
	}
	return a
}

// Step states used by the checklist.
const (
	StepDone    = "done"
	StepCurrent = "current"
	StepPending = "pending"
)

// Step is one rendered checklist row.
type Step struct {
	Stage Stage
	State string
}

// Checklist renders Order against the applicant's raw status.
func Checklist(raw string) []Step {
	current := ResolveCurrentIndex(raw)
	steps := make([]Step, len(Order))
	for i, st := range Order {
		state := StepPending
		switch {
		case i < current:
			state = StepDone
		case i == current:
			state = StepCurrent
		}
		steps[i] = Step{Stage: st, State: state}
	}
	return steps
}
