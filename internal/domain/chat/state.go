package chat

import (
	"fmt"
)

// State tracks one chat exchange. There is no retry transition.
type State string

const (
	StateNotStarted State = "not_started"
	StateDispatched State = "dispatched"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateEmitting   State = "emitting"
	StateClosed     State = "closed"
	StateErrored    State = "errored"
)

var transitions = map[State][]State{
	StateNotStarted: {StateDispatched},
	StateDispatched: {StateCompleted, StateFailed, StateEmitting},
	StateEmitting:   {StateClosed, StateErrored},
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether s may move to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Exchange carries one request through dispatch and delivery.
type Exchange struct {
	Request ChatRequest
	Context *AnalysisContext
	Payload WorkflowRequest

	state State
}

func newExchange(req ChatRequest, analysisContext *AnalysisContext, payload WorkflowRequest) *Exchange {
	return &Exchange{
		Request: req,
		Context: analysisContext,
		Payload: payload,
		state:   StateNotStarted,
	}
}

// State returns the current state.
func (e *Exchange) State() State {
	return e.state
}

func (e *Exchange) advance(next State) error {
	if !e.state.CanTransition(next) {
		return fmt.Errorf("invalid chat state transition %s -> %s", e.state, next)
	}
	e.state = next
	return nil
}
