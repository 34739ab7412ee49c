package analysis

import "time"

type State string

const (
	StateIntaking              State = "INTAKING"
	StateIdentifying           State = "IDENTIFYING"
	StateReporting             State = "REPORTING"
	StateSourcingAlternatives  State = "SOURCING_ALTERNATIVES"
	StatePersistingItem        State = "PERSISTING_ITEM"
	StatePersistingReport      State = "PERSISTING_REPORT"
	StatePersistingAlternative State = "PERSISTING_ALTERNATIVES"
	StateLinking               State = "LINKING"
	StateDone                  State = "DONE"
	StateFailed                State = "FAILED"
)

// CanFail reports whether a failure in s ends the run in StateFailed.
func (s State) CanFail() bool {
	switch s {
	case StateIntaking, StatePersistingItem, StatePersistingReport:
		return true
	default:
		return false
	}
}

// StageRecord is one entry of a run's stage trace.
type StageRecord struct {
	State        State         `json:"state"`
	Fallback     bool          `json:"fallback"`
	Degradations []Degradation `json:"degradations,omitempty"`
	Duration     time.Duration `json:"duration"`
	Error        string        `json:"error,omitempty"`
}
