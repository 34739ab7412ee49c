package analysis

import (
	"errors"
	"fmt"
)

var (
	ErrFatalIntake      = errors.New("image intake failed")
	ErrFatalPersistence = errors.New("analysis could not be saved")
	ErrAborted          = errors.New("analysis aborted")
)

// FatalError is the only error Analyze returns. Kind is one of the sentinels
// above and is matched with errors.Is.
type FatalError struct {
	Kind   error
	Stage  State
	Entity string
	Err    error
}

func (e *FatalError) Error() string {
	msg := e.Kind.Error()
	if e.Entity != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Entity)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s at %s: %v", msg, e.Stage, e.Err)
	}
	return msg
}

func (e *FatalError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Degradation names a non-fatal failure absorbed by the pipeline.
type Degradation string

const (
	DegradedIdentification        Degradation = "degraded_identification"
	DegradedReport                Degradation = "degraded_report"
	DegradedAlternatives          Degradation = "degraded_alternatives"
	PartialAlternativePersistence Degradation = "partial_alternative_persistence"
	DegradedLinking               Degradation = "degraded_linking"
	DegradedIntakeProcessing      Degradation = "degraded_intake_processing"
	DegradedIntakeStorage         Degradation = "degraded_intake_storage"
)

// Degraded pairs an absorbed failure with its kind.
type Degraded struct {
	Kind Degradation
	Err  error
}
