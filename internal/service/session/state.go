// Package session provides the interview session lifecycle.
package session

import (
	"errors"
	"fmt"
)

// State represents the lifecycle state of an interview session.
type State int

const (
	// StateCreated - Session started, no answer recorded yet.
	StateCreated State = iota
	// StateExchanged - At least one answer was exchanged.
	StateExchanged
	// StateCompleted - The dialogue platform signalled the end of the interview.
	StateCompleted
	// StateScored - A score report exists. Scoring again overwrites it.
	StateScored
)

// Event drives a transition.
type Event int

const (
	EventExchange Event = iota
	EventComplete
	EventScore
)

// ErrInvalidTransition is returned when an event is not allowed in a state.
var ErrInvalidTransition = errors.New("invalid session transition")

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateExchanged:
		return "EXCHANGED"
	case StateCompleted:
		return "COMPLETED"
	case StateScored:
		return "SCORED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

func (e Event) String() string {
	switch e {
	case EventExchange:
		return "exchange"
	case EventComplete:
		return "complete"
	case EventScore:
		return "score"
	default:
		return fmt.Sprintf("unknown(%d)", e)
	}
}

// ParseState parses a stored status. An empty status is a session that was
// never started through this service and counts as CREATED.
func ParseState(s string) (State, error) {
	switch s {
	case "", "CREATED":
		return StateCreated, nil
	case "EXCHANGED":
		return StateExchanged, nil
	case "COMPLETED":
		return StateCompleted, nil
	case "SCORED":
		return StateScored, nil
	default:
		return StateCreated, fmt.Errorf("unknown session state %q", s)
	}
}

// Advance returns the state reached by applying ev in from.
//
// State transitions:
//
//	CREATED → EXCHANGED* → COMPLETED → SCORED
//
// Rules:
//   - exchange: allowed from CREATED, EXCHANGED and SCORED
//   - complete: allowed from CREATED and EXCHANGED
//   - score: requires at least one exchange (EXCHANGED, COMPLETED, SCORED)
func Advance(from State, ev Event) (State, error) {
	switch ev {
	case EventExchange:
		switch from {
		case StateCreated, StateExchanged, StateScored:
			return StateExchanged, nil
		}
	case EventComplete:
		switch from {
		case StateCreated, StateExchanged:
			return StateCompleted, nil
		}
	case EventScore:
		switch from {
		case StateExchanged, StateCompleted, StateScored:
			return StateScored, nil
		}
	}
	return from, fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, ev, from)
}
