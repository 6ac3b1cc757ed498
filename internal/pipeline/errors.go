package pipeline

import (
	"errors"
	"fmt"
)

// Stage names a pipeline step. The values double as the path segment of the
// run-stage endpoint.
type Stage string

const (
	StageIntake   Stage = "intake"
	StageExtract  Stage = "extract"
	StageScreen   Stage = "screen"
	StageRank     Stage = "rank"
	StagePhone    Stage = "phone-interview"
	StageSchedule Stage = "schedule"
	StageOperator Stage = "operator"
)

// Kind classifies a stage failure.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindUnsupportedFormat  Kind = "unsupported_format"
	KindInvalidState       Kind = "invalid_state"
	KindMissingContactInfo Kind = "missing_contact_info"
	KindExternalCapability Kind = "external_capability"
)

// StageError is the only error type stages return. Retryable failures are
// external capability errors that are not marked permanent.
type StageError struct {
	Stage       Stage
	Kind        Kind
	CandidateID string
	// Permanent marks an external failure that will not go away on retry,
	// such as an extraction job that finished FAILED.
	Permanent bool
	Err       error
}

func (e *StageError) Error() string {
	if e.CandidateID == "" {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Stage, e.CandidateID, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Retryable reports whether running the stage again may succeed.
func (e *StageError) Retryable() bool {
	return e.Kind == KindExternalCapability && !e.Permanent
}

// Fatal reports whether the failure should move the candidate to FAILED.
// Validation and not-found errors are the caller's problem and leave the
// record alone.
func (e *StageError) Fatal() bool {
	switch e.Kind {
	case KindValidation, KindNotFound:
		return false
	}
	return !e.Retryable()
}

// KindOf returns the kind of a StageError anywhere in err's chain, or "".
func KindOf(err error) Kind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsRetryable reports whether err is a retryable StageError.
func IsRetryable(err error) bool {
	var se *StageError
	return errors.As(err, &se) && se.Retryable()
}

func stageErr(stage Stage, kind Kind, candidateID string, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, CandidateID: candidateID, Err: err}
}

func permanentErr(stage Stage, candidateID string, err error) *StageError {
	return &StageError{Stage: stage, Kind: KindExternalCapability, CandidateID: candidateID, Permanent: true, Err: err}
}
