package models

// Status is a candidate's position in the recruiting pipeline.
// Values are stored verbatim in the candidates table.
type Status string

const (
	StatusSubmitted               Status = "SUBMITTED"
	StatusExtracted               Status = "EXTRACTED"
	StatusScreened                Status = "SCREENED"
	StatusRanked                  Status = "RANKED"
	StatusPhoneInterviewInitiated Status = "PHONE_INTERVIEW_INITIATED"
	StatusPhoneInterviewCompleted Status = "PHONE_INTERVIEW_COMPLETED"
	StatusInterviewScheduled      Status = "INTERVIEW_SCHEDULED"
	StatusRejected                Status = "REJECTED"
	StatusFailed                  Status = "FAILED"
)

// pipelineOrder lists the main line of the stage DAG.
var pipelineOrder = []Status{
	StatusSubmitted,
	StatusExtracted,
	StatusScreened,
	StatusRanked,
	StatusPhoneInterviewInitiated,
	StatusPhoneInterviewCompleted,
	StatusInterviewScheduled,
}

var validTransitions = map[Status]Status{
	StatusSubmitted:               StatusExtracted,
	StatusExtracted:               StatusScreened,
	StatusScreened:                StatusRanked,
	StatusRanked:                  StatusPhoneInterviewInitiated,
	StatusPhoneInterviewInitiated: StatusPhoneInterviewCompleted,
	StatusPhoneInterviewCompleted: StatusInterviewScheduled,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusRejected, StatusFailed:
		return true
	}
	return s.Ordinal() >= 0
}

// Ordinal returns the position of s on the main pipeline line, or -1 for
// the REJECTED/FAILED side branches and unknown values.
func (s Status) Ordinal() int {
	for i, st := range pipelineOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusFailed || s == StatusInterviewScheduled
}

// Next returns the main-line successor of s.
func (s Status) Next() (Status, bool) {
	next, ok := validTransitions[s]
	return next, ok
}

// ReachedOrPassed reports whether s is at or beyond target on the main line,
// or has left the main line for a terminal side branch.
func (s Status) ReachedOrPassed(target Status) bool {
	if s == StatusRejected || s == StatusFailed {
		return true
	}
	return s.Ordinal() >= target.Ordinal()
}

// CanTransition reports whether a record in status from may move to status to.
// Only single forward steps along the DAG are allowed, plus any non-terminal
// status into REJECTED or FAILED.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusRejected || to == StatusFailed {
		return from.Valid()
	}
	next, ok := validTransitions[from]
	return ok && next == to
}
