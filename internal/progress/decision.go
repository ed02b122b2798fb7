package progress

// Decision outcomes.
const (
	Approved = "approved"
	Rejected = "rejected"
)

// DecisionControlsVisible reports whether approve/reject should be offered.
// They disappear once the pipeline reaches onboarding or a decision exists.
func DecisionControlsVisible(raw, finalDecision string) bool {
	if finalDecision != "" {
		return false
	}
	idx := ResolveCurrentIndex(raw)
	return idx == Result.Index()
}

// CanDecide validates a requested decision. replay is true when the same
// decision was already recorded; callers return the stored outcome without
// repeating side effects.
func CanDecide(raw, finalDecision, requested string) (replay bool, err error) {
	if requested != Approved && requested != Rejected {
		return false, reject("decision must be approved or rejected")
	}
	if finalDecision != "" {
		if finalDecision == requested {
			return true, nil
		}
		return false, reject("applicant already has a final decision: " + finalDecision)
	}
	idx := ResolveCurrentIndex(raw)
	switch {
	case idx >= Onboarding.Index():
		return false, reject("decision is closed once onboarding has started")
	case idx < Result.Index():
		return false, reject("applicant has not reached the result stage")
	}
	return false, nil
}

// DecisionStage is the status recorded with a decision. Rejected applicants
// stay at Result, which is their terminal position.
func DecisionStage(decision string) Stage {
	if decision == Approved {
		return Onboarding
	}
	return Result
}
