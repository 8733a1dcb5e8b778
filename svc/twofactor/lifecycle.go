package twofactor

import (
	"errors"
	"fmt"
)

// State is the position of a record in the two-factor lifecycle.
type State string

const (
	StateUnconfigured State = "unconfigured"
	StatePending      State = "pending_enrollment"
	StateActive       State = "active"
)

// Event triggers a lifecycle transition.
type Event string

const (
	EventSetup      Event = "setup"
	EventEnable     Event = "enable"
	EventVerify     Event = "verify"
	EventDisable    Event = "disable"
	EventRegenerate Event = "regenerate_backup_codes"
)

// transitions is indexed as [from][event] -> to.
var transitions = map[State]map[Event]State{
	StateUnconfigured: {
		EventSetup: StatePending,
	},
	StatePending: {
		EventSetup:  StatePending,
		EventEnable: StateActive,
	},
	StateActive: {
		EventVerify:     StateActive,
		EventDisable:    StateUnconfigured,
		EventRegenerate: StateActive,
	},
}

// TransitionError reports an event that is not allowed from the current state.
// It unwraps to the domain error describing the violated precondition.
type TransitionError struct {
	From  State
	Event Event
	Err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("no transition from state '%s' for event '%s': %v", e.From, e.Event, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// IsTransitionError reports whether err was produced by an illegal lifecycle event.
func IsTransitionError(err error) bool {
	var e *TransitionError
	return errors.As(err, &e)
}

// StateOf derives the lifecycle state from the persisted fields.
func StateOf(rec *Record) State {
	switch {
	case rec == nil:
		return StateUnconfigured
	case rec.Enabled:
		return StateActive
	case rec.Secret != "":
		return StatePending
	default:
		return StateUnconfigured
	}
}

// Next returns the state reached by firing event from the given state.
func Next(from State, event Event) (State, error) {
	if to, ok := transitions[from][event]; ok {
		return to, nil
	}
	return from, &TransitionError{From: from, Event: event, Err: rejection(from, event)}
}

// CanFire reports whether event is allowed from the given state.
func CanFire(from State, event Event) bool {
	_, ok := transitions[from][event]
	return ok
}

func rejection(from State, event Event) error {
	switch from {
	case StateActive:
		return ErrAlreadyEnabled
	case StateUnconfigured:
		if event == EventEnable {
			return ErrNotConfigured
		}
	}
	return ErrNotEnabled
}
