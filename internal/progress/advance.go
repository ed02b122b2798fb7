package progress

// Rejection is a rule violation with a reason meant for the admin user. It
// never indicates a system failure.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string { return r.Reason }

func reject(reason string) *Rejection { return &Rejection{Reason: reason} }

// Facts are the parts of the applicant record the advance rules look at.
type Facts struct {
	HasInterview  bool
	HasDemo       bool
	FinalDecision string
}

// Verdict is the outcome of CanAdvance.
type Verdict struct {
	Allowed bool
	NoOp    bool
	Next    Stage
	Reason  string
}

const (
	reasonFinalStep        = "already at final step"
	reasonNeedInterview    = "schedule interview before marking this step done"
	reasonInterviewForDemo = "interview must be completed before scheduling demo"
	reasonRejected         = "applicant was rejected and cannot continue to onboarding"
)

// CanAdvance decides whether the applicant at index current may move to the
// next stage in Order.
func CanAdvance(current int, f Facts) Verdict {
	if current < 0 {
		current = 0
	}
	if current+1 >= len(Order) {
		return Verdict{NoOp: true, Reason: reasonFinalStep}
	}
	next := Order[current+1]
	switch {
	case next == InterviewScheduled && !f.HasInterview:
		return Verdict{Next: next, Reason: reasonNeedInterview}
	case next == DemoScheduled && !f.HasInterview:
		return Verdict{Next: next, Reason: reasonInterviewForDemo}
	case Order[current] == Result && f.FinalDecision == "rejected":
		return Verdict{Next: next, Reason: reasonRejected}
	}
	return Verdict{Allowed: true, Next: next}
}

// Err returns the verdict as a *Rejection, or nil when the advance is allowed
// or a no-op.
func (v Verdict) Err() error {
	if v.Allowed || v.NoOp {
		return nil
	}
	return reject(v.Reason)
}

// CanAdvanceTo validates a forward move from index current to target,
// checking every stage passed on the way. Targets at or behind the current
// stage are a no-op or a rejection respectively.
func CanAdvanceTo(current int, target Stage, f Facts) Verdict {
	if !target.Valid() {
		return Verdict{Reason: "unknown stage " + string(target)}
	}
	if current < 0 {
		current = 0
	}
	ti := target.Index()
	switch {
	case ti == current:
		return Verdict{NoOp: true, Next: target, Reason: "already at " + string(target)}
	case ti < current:
		return Verdict{Next: target, Reason: "cannot move back from " + string(Order[current]) + " to " + string(target)}
	}
	for i := current; i < ti; i++ {
		if v := CanAdvance(i, f); !v.Allowed {
			v.Next = Order[i+1]
			return v
		}
	}
	return Verdict{Allowed: true, Next: target}
}
