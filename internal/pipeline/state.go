package pipeline

// State is a stage of a meeting run
type State string

const (
	Idle               State = "idle"
	Recording          State = "recording"
	AwaitingProcessing State = "awaiting_processing"
	Aligning           State = "aligning"
	AwaitingQA         State = "awaiting_qa"
	Summarizing        State = "summarizing"
	Completed          State = "completed"
	Failed             State = "failed"
	Cancelled          State = "cancelled"
)

// transitions lists the states reachable from each non-terminal state.
// Imported audio skips Recording and goes straight to AwaitingProcessing.
var transitions = map[State][]State{
	Idle:               {Recording, AwaitingProcessing, Failed, Cancelled},
	Recording:          {AwaitingProcessing, Failed, Cancelled},
	AwaitingProcessing: {Aligning, Failed, Cancelled},
	Aligning:           {AwaitingQA, Failed, Cancelled},
	AwaitingQA:         {Summarizing, Failed, Cancelled},
	Summarizing:        {Completed, Failed, Cancelled},
}

// Terminal reports whether no transition leaves s
func (s State) Terminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

// CanTransition reports whether from -> to is allowed
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
