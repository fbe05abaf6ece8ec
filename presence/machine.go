package presence

import (
	"errors"
	"sync"
)

// Observer receives every state the machine commits.
type Observer func(State)

// ErrObserverAttached is returned when Attach is called a second time.
var ErrObserverAttached = errors.New("observer already attached")

// Machine owns the mutable current-state cell. Transitions themselves are the
// pure package functions; the machine only serializes commits and pushes each
// committed state to the observer. It is usable before an observer exists.
type Machine struct {
	current  State
	policy   LeavePolicy
	observer Observer
	mutex    sync.RWMutex
}

// NewMachine creates a machine in the initial Ping state.
func NewMachine(policy LeavePolicy) *Machine {
	return &Machine{current: Initial(), policy: policy}
}

// Attach registers the observer. The observer can be attached exactly once;
// a second call returns ErrObserverAttached and leaves the first in place.
func (m *Machine) Attach(fn Observer) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.observer != nil {
		return ErrObserverAttached
	}
	m.observer = fn
	return nil
}

// Join applies the join transition and commits the result.
func (m *Machine) Join(roomID string) State {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	next := Join(m.current, roomID)
	m.commit(next)
	return next
}

// Leave applies the leave transition under the machine's policy. A strict
// failure commits nothing; an absorbed leave on Error commits nothing either,
// so the observer only ever sees real changes.
func (m *Machine) Leave() (State, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	next, err := Leave(m.current, m.policy)
	if err != nil {
		return m.current, err
	}
	if m.current.Phase == PhaseError && next.Phase == PhaseError {
		return m.current, nil
	}
	m.commit(next)
	return next, nil
}

// Current returns the committed state.
func (m *Machine) Current() State {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.current
}

// StatusMessage renders the status line for the committed state.
func (m *Machine) StatusMessage() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return StatusMessage(m.current)
}

// commit stores the new state and notifies under the lock, so observers see
// states in commit order. Callers must hold the write lock.
func (m *Machine) commit(next State) {
	m.current = next
	if m.observer != nil {
		m.observer(next)
	}
}
