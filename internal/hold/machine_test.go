package hold

import (
	"errors"
	"math"
	"testing"
	"time"
)

const epsilon = 1e-9

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestMachine_SustainedMatch(t *testing.T) {
	m := NewMachine(time.Second)

	steps := []struct {
		offset       time.Duration
		wantStatus   Status
		wantProgress float64
	}{
		{0, StatusHolding, 0},
		{100 * time.Millisecond, StatusHolding, 0.1},
		{500 * time.Millisecond, StatusHolding, 0.5},
		{1000 * time.Millisecond, StatusDetected, 1},
		{1500 * time.Millisecond, StatusDetected, 1},
	}

	prevProgress := 0.0
	for _, step := range steps {
		ev, err := m.Update(true, t0.Add(step.offset))
		if err != nil {
			t.Fatalf("Update(+%v) error = %v", step.offset, err)
		}
		if ev.Status != step.wantStatus {
			t.Errorf("+%v: status = %s, want %s", step.offset, ev.Status, step.wantStatus)
		}
		if math.Abs(ev.Progress-step.wantProgress) > epsilon {
			t.Errorf("+%v: progress = %f, want %f", step.offset, ev.Progress, step.wantProgress)
		}
		if ev.Progress < prevProgress {
			t.Errorf("+%v: progress went backwards from %f to %f", step.offset, prevProgress, ev.Progress)
		}
		prevProgress = ev.Progress
	}
}

func TestMachine_FirstUpdateLeavesIdle(t *testing.T) {
	m := NewMachine(time.Second)

	if got := m.State().Status; got != StatusIdle {
		t.Fatalf("initial status = %s, want idle", got)
	}

	ev, _ := m.Update(true, t0)
	if !ev.Entered(StatusHolding) {
		t.Error("expected transition idle -> holding")
	}
	if ev.HoldStart == nil || !ev.HoldStart.Equal(t0) {
		t.Errorf("hold start = %v, want %v", ev.HoldStart, t0)
	}
}

func TestMachine_MismatchResets(t *testing.T) {
	m := NewMachine(time.Second)

	m.Update(true, t0)
	m.Update(true, t0.Add(600*time.Millisecond))

	ev, err := m.Update(false, t0.Add(700*time.Millisecond))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if ev.Status != StatusIdle || ev.Progress != 0 || ev.HoldStart != nil {
		t.Errorf("expected idle reset, got %+v", ev.State)
	}

	// The hold restarts from the next match
	ev, _ = m.Update(true, t0.Add(800*time.Millisecond))
	if ev.Progress != 0 || ev.Status != StatusHolding {
		t.Errorf("expected fresh hold, got %+v", ev.State)
	}
}

func TestMachine_DetectedTransitions(t *testing.T) {
	m := NewMachine(time.Second)

	m.Update(true, t0)
	ev, _ := m.Update(true, t0.Add(time.Second))
	if !ev.Entered(StatusDetected) {
		t.Error("expected transition into detected")
	}

	ev, _ = m.Update(true, t0.Add(2*time.Second))
	if ev.Entered(StatusDetected) {
		t.Error("staying detected must not report entering again")
	}

	ev, _ = m.Update(false, t0.Add(3*time.Second))
	if !ev.Left(StatusDetected) {
		t.Error("expected transition out of detected")
	}
}

func TestMachine_Reset(t *testing.T) {
	m := NewMachine(time.Second)

	m.Update(true, t0)
	m.Update(true, t0.Add(1200*time.Millisecond))
	m.Reset()

	s := m.State()
	if s.Status != StatusIdle || s.Progress != 0 || s.HoldStart != nil {
		t.Errorf("expected idle after reset, got %+v", s)
	}

	// Earlier timestamps are accepted after a reset
	if _, err := m.Update(true, t0); err != nil {
		t.Errorf("Update() after reset error = %v", err)
	}
}

func TestMachine_TimeReversed(t *testing.T) {
	m := NewMachine(time.Second)

	m.Update(true, t0.Add(500*time.Millisecond))
	before := m.State()

	_, err := m.Update(true, t0)
	if !errors.Is(err, ErrTimeReversed) {
		t.Fatalf("expected ErrTimeReversed, got %v", err)
	}

	after := m.State()
	if after.Status != before.Status || after.Progress != before.Progress {
		t.Errorf("state changed after rejected update: %+v -> %+v", before, after)
	}
}

func TestMachine_NotInitialized(t *testing.T) {
	var nilMachine *Machine
	if _, err := nilMachine.Update(true, t0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("nil machine: expected ErrNotInitialized, got %v", err)
	}

	var zero Machine
	if _, err := zero.Update(true, t0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("zero machine: expected ErrNotInitialized, got %v", err)
	}
}

func TestAdvance_Idempotent(t *testing.T) {
	s, _ := Advance(Initial(), true, t0, time.Second)

	a, err := Advance(s, true, t0.Add(300*time.Millisecond), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Advance(s, true, t0.Add(300*time.Millisecond), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != b.Status || a.Progress != b.Progress || !a.HoldStart.Equal(*b.HoldStart) {
		t.Errorf("identical inputs gave different states: %+v vs %+v", a, b)
	}

	// Repeating the same timestamp does not move the hold
	c, err := Advance(a, true, t0.Add(300*time.Millisecond), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if c.Progress != a.Progress || c.Status != a.Status {
		t.Errorf("repeated update changed state: %+v -> %+v", a, c)
	}
}

func TestNewMachine_DefaultDuration(t *testing.T) {
	m := NewMachine(0)
	if m.Duration() != DefaultDuration {
		t.Errorf("duration = %v, want %v", m.Duration(), DefaultDuration)
	}

	m.SetDuration(2 * time.Second)
	m.SetDuration(-1)
	if m.Duration() != 2*time.Second {
		t.Errorf("duration = %v, want 2s", m.Duration())
	}
}
