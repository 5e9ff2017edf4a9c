package conversation

// State is a step of the per-submission state machine.
type State int

const (
	StateIdle State = iota
	StateUserTurnAppended
	StateClassifying
	StateDispatching
	StateAssistantTurnAppended
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUserTurnAppended:
		return "user_turn_appended"
	case StateClassifying:
		return "classifying"
	case StateDispatching:
		return "dispatching"
	case StateAssistantTurnAppended:
		return "assistant_turn_appended"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailureKind says where an accepted submission failed.
type FailureKind string

const (
	NoFailure             FailureKind = ""
	ClassificationFailure FailureKind = "classification"
	DispatchFailure       FailureKind = "dispatch"
)
