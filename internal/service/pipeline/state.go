// Package pipeline sequences the voicemail processing stages and owns the
// per-invocation state machine.
package pipeline

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of one pipeline invocation.
type State int

const (
	// StateStarted - invocation created, trigger parsed.
	StateStarted State = iota
	// StateWaiting - settle wait before the first search attempt.
	StateWaiting
	// StateSearching - recording search in progress.
	StateSearching
	// StateRecordingFound - recording located in object storage.
	StateRecordingFound
	// StateRecordingNotFound - search exhausted. Terminal.
	StateRecordingNotFound
	// StateTranscribing - transcription job submitted, polling.
	StateTranscribing
	// StateTranscribed - transcript parsed.
	StateTranscribed
	// StateTranscribeFailed - transcription failed or timed out. Terminal.
	StateTranscribeFailed
	// StateComposing - building the notification payload.
	StateComposing
	// StateDispatching - sending the notification.
	StateDispatching
	// StateDispatched - notification sent. Terminal.
	StateDispatched
	// StateDispatchFailed - send failed. Terminal.
	StateDispatchFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStarted:
		return "STARTED"
	case StateWaiting:
		return "WAITING"
	case StateSearching:
		return "SEARCHING"
	case StateRecordingFound:
		return "RECORDING_FOUND"
	case StateRecordingNotFound:
		return "RECORDING_NOT_FOUND"
	case StateTranscribing:
		return "TRANSCRIBING"
	case StateTranscribed:
		return "TRANSCRIBED"
	case StateTranscribeFailed:
		return "TRANSCRIBE_FAILED"
	case StateComposing:
		return "COMPOSING"
	case StateDispatching:
		return "DISPATCHING"
	case StateDispatched:
		return "DISPATCHED"
	case StateDispatchFailed:
		return "DISPATCH_FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state ends the invocation.
func (s State) IsTerminal() bool {
	switch s {
	case StateRecordingNotFound, StateTranscribeFailed, StateDispatched, StateDispatchFailed:
		return true
	default:
		return false
	}
}

// ErrInvalidTransition is returned for a transition the machine does not
// allow.
var ErrInvalidTransition = errors.New("invalid pipeline state transition")

// transitions lists the allowed moves. Failure jumps go directly to the
// terminal state for the failing stage.
var transitions = map[State][]State{
	StateStarted:        {StateWaiting},
	StateWaiting:        {StateSearching},
	StateSearching:      {StateRecordingFound, StateRecordingNotFound},
	StateRecordingFound: {StateTranscribing},
	StateTranscribing:   {StateTranscribed, StateTranscribeFailed},
	StateTranscribed:    {StateComposing},
	StateComposing:      {StateDispatching, StateDispatchFailed},
	StateDispatching:    {StateDispatched, StateDispatchFailed},
}

// Machine tracks the state of one invocation. Thread-safe, though each
// invocation is single-threaded by design.
type Machine struct {
	mu    sync.RWMutex
	state State
}

// NewMachine creates a machine in STARTED state.
func NewMachine() *Machine {
	return &Machine{state: StateStarted}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Advance moves the machine to the next state, or returns
// ErrInvalidTransition when the move is not allowed.
func (m *Machine) Advance(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.IsTerminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, m.state)
	}
	for _, next := range transitions[m.state] {
		if next == to {
			m.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
}
