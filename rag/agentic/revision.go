package agentic

// State is a revision controller state.
type State string

const (
	StateDrafted   State = "DRAFTED"
	StateCritiqued State = "CRITIQUED"
	StateRevising  State = "REVISING"
	StateAccepted  State = "ACCEPTED"
	StateExhausted State = "EXHAUSTED"
	StateFailed    State = "FAILED"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateExhausted || s == StateFailed
}

// Action is the side effect the controller performs after a transition.
type Action string

const (
	ActionCritique Action = "critique"
	ActionRevise   Action = "revise"
	ActionStop     Action = "stop"
)

// RevisionInput is what a transition may look at. Critique is the latest
// result and is only read in StateCritiqued.
type RevisionInput struct {
	Critique   *CritiqueResult
	RoundsUsed int
	MaxRounds  int
}

// NextState is the revision controller's transition function.
//
//	DRAFTED   -> CRITIQUED                  critique
//	CRITIQUED -> ACCEPTED  (passes)         stop
//	CRITIQUED -> EXHAUSTED (no rounds left) stop
//	CRITIQUED -> REVISING  (rounds left)    revise
//	REVISING  -> CRITIQUED                  critique
//
// Terminal states map to themselves with ActionStop. Generation failures
// are not transitions here; the caller moves to StateFailed directly.
func NextState(s State, in RevisionInput) (State, Action) {
	switch s {
	case StateDrafted, StateRevising:
		return StateCritiqued, ActionCritique
	case StateCritiqued:
		if in.Critique == nil {
			return StateFailed, ActionStop
		}
		if !in.Critique.NeedsRevision {
			return StateAccepted, ActionStop
		}
		if in.RoundsUsed >= in.MaxRounds {
			return StateExhausted, ActionStop
		}
		return StateRevising, ActionRevise
	default:
		return s, ActionStop
	}
}

// outcomeFor maps a terminal state to the turn's outcome tag.
func outcomeFor(s State) Outcome {
	switch s {
	case StateAccepted:
		return AcceptedByScore
	case StateExhausted:
		return AcceptedByExhaustion
	default:
		return AcceptedByFailureFallback
	}
}
