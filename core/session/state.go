package session

import (
	"slices"
	"sync"
	"time"

	"github.com/leofalp/mathchat/internal/errorsx"
)

// State is a phase of the conversational loop.
type State int

const (
	StateAwaitingInput State = iota
	StateDispatching
	StateStreaming
	StateToolInvocation
	StateAppending
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingInput:
		return "awaiting_input"
	case StateDispatching:
		return "dispatching"
	case StateStreaming:
		return "streaming"
	case StateToolInvocation:
		return "tool_invocation"
	case StateAppending:
		return "appending"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// validTransitions lists, per state, the states it may move to. Going back to
// AwaitingInput from the middle of a turn is the abort path.
var validTransitions = map[State][]State{
	StateAwaitingInput:  {StateDispatching, StateClosed},
	StateDispatching:    {StateStreaming, StateAwaitingInput},
	StateStreaming:      {StateToolInvocation, StateAppending, StateAwaitingInput},
	StateToolInvocation: {StateDispatching, StateAwaitingInput},
	StateAppending:      {StateAwaitingInput},
}

// StateChange describes one transition.
type StateChange struct {
	From      State
	To        State
	Timestamp time.Time
	Reason    string
}

// StateListener observes state changes. Listeners run synchronously on the
// session goroutine and must not call back into the session.
type StateListener interface {
	OnStateChange(change StateChange)
}

// StateListenerFunc adapts a function to StateListener.
type StateListenerFunc func(change StateChange)

func (f StateListenerFunc) OnStateChange(change StateChange) {
	f(change)
}

// InvalidTransitionError reports a transition the state machine does not allow.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return "invalid state transition from " + e.From.String() + " to " + e.To.String()
}

// ReasonCode implements errorsx.Reasoner.
func (e *InvalidTransitionError) ReasonCode() errorsx.ReasonCode {
	return errorsx.ReasonSessionTransition
}

type stateMachine struct {
	mu        sync.RWMutex
	current   State
	listeners []StateListener
}

func newStateMachine() *stateMachine {
	return &stateMachine{current: StateAwaitingInput}
}

func (m *stateMachine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func transitionValid(from, to State) bool {
	return slices.Contains(validTransitions[from], to)
}

// Transition moves to state and notifies listeners outside the lock.
func (m *stateMachine) Transition(state State, reason string) (StateChange, error) {
	m.mu.Lock()
	if !transitionValid(m.current, state) {
		from := m.current
		m.mu.Unlock()
		return StateChange{}, &InvalidTransitionError{From: from, To: state}
	}

	change := StateChange{
		From:      m.current,
		To:        state,
		Timestamp: time.Now(),
		Reason:    reason,
	}
	m.current = state
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	for _, listener := range listeners {
		listener.OnStateChange(change)
	}
	return change, nil
}

func (m *stateMachine) AddListener(listener StateListener) {
	if listener == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}
