package render

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formflow/pkg/visibility"
)

// StepState is the navigation state of a step.
type StepState string

const (
	StepPending   StepState = "pending"
	StepActive    StepState = "active"
	StepCompleted StepState = "completed"
)

var (
	// ErrLastStep is returned by Next when no visible step follows.
	ErrLastStep = errors.New("render: no next step")
	// ErrFirstStep is returned by Previous when no visible step precedes.
	ErrFirstStep = errors.New("render: no previous step")
	// ErrUnknownStep is returned by GoTo for keys the tracker does not hold.
	ErrUnknownStep = errors.New("render: unknown step")
	// ErrStepLocked is returned by GoTo when jumping ahead of the active step
	// to a step that was never completed.
	ErrStepLocked = errors.New("render: step not reached yet")
)

// StepStatus describes one step for progress indicators.
type StepStatus struct {
	Key    string    `json:"key"`
	State  StepState `json:"state"`
	Hidden bool      `json:"hidden"`
}

// StepTracker drives pending → active → completed navigation across steps.
// Exactly one step is active. Completed is advisory and gates nothing.
// Hidden steps are skipped by Next and Previous. A tracker is not safe for
// concurrent use.
type StepTracker struct {
	keys   []string
	states []StepState
	hidden visibility.Set
	active int
}

// NewStepTracker starts at the first visible step.
func NewStepTracker(keys []string, hidden visibility.Set) *StepTracker {
	t := &StepTracker{
		keys:   append([]string(nil), keys...),
		states: make([]StepState, len(keys)),
		hidden: copySet(hidden),
	}
	for idx := range t.states {
		t.states[idx] = StepPending
	}
	t.active = t.nextVisible(-1)
	if t.active < 0 && len(keys) > 0 {
		t.active = 0
	}
	if t.active >= 0 {
		t.states[t.active] = StepActive
	}
	return t
}

// NewStepTrackerAt starts at the named step, marking the visible steps before
// it completed. Unknown or empty keys fall back to the first visible step.
func NewStepTrackerAt(keys []string, hidden visibility.Set, active string) *StepTracker {
	t := NewStepTracker(keys, hidden)
	target := t.index(active)
	if target < 0 || t.active < 0 || target == t.active {
		return t
	}
	for idx := range t.states {
		switch {
		case idx < target && !t.hidden.Has(t.keys[idx]):
			t.states[idx] = StepCompleted
		default:
			t.states[idx] = StepPending
		}
	}
	t.active = target
	t.states[target] = StepActive
	return t
}

// Active returns the key of the active step, or "" for an empty tracker.
func (t *StepTracker) Active() string {
	if t.active < 0 {
		return ""
	}
	return t.keys[t.active]
}

// ActiveIndex returns the position of the active step, or -1.
func (t *StepTracker) ActiveIndex() int {
	return t.active
}

// State returns the state of key. Unknown keys report pending.
func (t *StepTracker) State(key string) StepState {
	if idx := t.index(key); idx >= 0 {
		return t.states[idx]
	}
	return StepPending
}

// States lists every step in order.
func (t *StepTracker) States() []StepStatus {
	out := make([]StepStatus, len(t.keys))
	for idx, key := range t.keys {
		out[idx] = StepStatus{Key: key, State: t.states[idx], Hidden: t.hidden.Has(key)}
	}
	return out
}

// Next completes the active step and activates the next visible one.
func (t *StepTracker) Next() (string, error) {
	next := t.nextVisible(t.active)
	if next < 0 {
		return t.Active(), ErrLastStep
	}
	t.states[t.active] = StepCompleted
	t.active = next
	t.states[next] = StepActive
	return t.keys[next], nil
}

// Previous activates the closest visible step before the active one and
// resets every step after it to pending.
func (t *StepTracker) Previous() (string, error) {
	prev := -1
	for idx := t.active - 1; idx >= 0; idx-- {
		if !t.hidden.Has(t.keys[idx]) {
			prev = idx
			break
		}
	}
	if prev < 0 {
		return t.Active(), ErrFirstStep
	}
	t.activate(prev)
	return t.keys[prev], nil
}

// GoTo activates key. Moving back (an edit link) resets the steps after the
// target to pending. Moving forward is only allowed onto completed steps.
func (t *StepTracker) GoTo(key string) error {
	target := t.index(key)
	if target < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownStep, key)
	}
	if target > t.active && t.states[target] != StepCompleted {
		return fmt.Errorf("%w: %q", ErrStepLocked, key)
	}
	t.activate(target)
	return nil
}

// SetHidden replaces the hidden step set, typically after re-evaluating rules
// against new values. The active step stays active even when it became
// hidden; the next navigation moves off it.
func (t *StepTracker) SetHidden(hidden visibility.Set) {
	t.hidden = copySet(hidden)
}

// IsLast reports whether no visible step follows the active one.
func (t *StepTracker) IsLast() bool {
	return t.nextVisible(t.active) < 0
}

// IsFirst reports whether no visible step precedes the active one.
func (t *StepTracker) IsFirst() bool {
	for idx := t.active - 1; idx >= 0; idx-- {
		if !t.hidden.Has(t.keys[idx]) {
			return false
		}
	}
	return true
}

// Progress returns the number of completed and total visible steps.
func (t *StepTracker) Progress() (completed, total int) {
	for idx, key := range t.keys {
		if t.hidden.Has(key) {
			continue
		}
		total++
		if t.states[idx] == StepCompleted {
			completed++
		}
	}
	return completed, total
}

func (t *StepTracker) activate(target int) {
	for idx := target + 1; idx < len(t.states); idx++ {
		t.states[idx] = StepPending
	}
	t.active = target
	t.states[target] = StepActive
}

func (t *StepTracker) nextVisible(from int) int {
	for idx := from + 1; idx < len(t.keys); idx++ {
		if !t.hidden.Has(t.keys[idx]) {
			return idx
		}
	}
	return -1
}

func (t *StepTracker) index(key string) int {
	if key == "" {
		return -1
	}
	for idx, candidate := range t.keys {
		if candidate == key {
			return idx
		}
	}
	return -1
}

func copySet(in visibility.Set) visibility.Set {
	out := make(visibility.Set, len(in))
	for key := range in {
		out[key] = struct{}{}
	}
	return out
}
