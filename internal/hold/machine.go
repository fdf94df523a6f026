// Package hold debounces per-frame pose matches into a sustained detection.
package hold

import (
	"errors"
	"sync"
	"time"
)

// DefaultDuration is how long a match must be sustained before it is detected.
const DefaultDuration = 1000 * time.Millisecond

var (
	// ErrTimeReversed is returned when a timestamp is earlier than the previous one.
	ErrTimeReversed = errors.New("hold: timestamp earlier than previous update")
	// ErrNotInitialized is returned by a Machine that was not created with NewMachine.
	ErrNotInitialized = errors.New("hold: machine not initialized")
)

// Status is the sustained-match status.
type Status string

// Hold statuses.
const (
	StatusIdle     Status = "idle"
	StatusHolding  Status = "holding"
	StatusDetected Status = "detected"
)

// State is the hold record after an update.
type State struct {
	Status    Status     `json:"status"`
	Progress  float64    `json:"holdProgress"`
	HoldStart *time.Time `json:"holdStart,omitempty"`
	last      time.Time
}

// Initial returns the idle state.
func Initial() State {
	return State{Status: StatusIdle}
}

// Advance computes the next state for a match observed at now. It is pure:
// calling it twice with the same inputs yields the same state.
func Advance(s State, match bool, now time.Time, duration time.Duration) (State, error) {
	if !s.last.IsZero() && now.Before(s.last) {
		return s, ErrTimeReversed
	}

	if !match {
		return State{Status: StatusIdle, last: now}, nil
	}

	start := now
	if s.HoldStart != nil {
		start = *s.HoldStart
	}

	elapsed := now.Sub(start)
	next := State{
		Status:    StatusHolding,
		Progress:  min(float64(elapsed)/float64(duration), 1),
		HoldStart: &start,
		last:      now,
	}
	if elapsed >= duration {
		next.Status = StatusDetected
	}
	return next, nil
}

// Event is the result of a Machine update.
type Event struct {
	State

	Previous Status // status before this update
}

// Entered reports whether this update moved the machine into status.
func (e Event) Entered(status Status) bool {
	return e.Previous != status && e.Status == status
}

// Left reports whether this update moved the machine out of status.
func (e Event) Left(status Status) bool {
	return e.Previous == status && e.Status != status
}

// Machine owns a hold State and serializes updates to it.
// It is safe for concurrent use.
type Machine struct {
	mu       sync.Mutex
	duration time.Duration
	state    State
}

// NewMachine creates an idle machine. A non-positive duration selects DefaultDuration.
func NewMachine(duration time.Duration) *Machine {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Machine{duration: duration, state: Initial()}
}

// Update feeds one frame's match result into the machine.
// On error the state is left unchanged.
func (m *Machine) Update(match bool, now time.Time) (Event, error) {
	if m == nil {
		return Event{}, ErrNotInitialized
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.duration <= 0 {
		return Event{}, ErrNotInitialized
	}

	prev := m.state.Status
	next, err := Advance(m.state, match, now, m.duration)
	if err != nil {
		return Event{State: m.state, Previous: prev}, err
	}
	m.state = next
	return Event{State: next, Previous: prev}, nil
}

// Reset forces the machine back to idle regardless of its current state.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Initial()
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetDuration changes the hold duration for subsequent updates.
func (m *Machine) SetDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

// Duration returns the configured hold duration.
func (m *Machine) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}
