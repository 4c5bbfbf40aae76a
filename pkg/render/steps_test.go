package render_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

func states(t *render.StepTracker) []render.StepState {
	out := []render.StepState{}
	for _, status := range t.States() {
		out = append(out, status.State)
	}
	return out
}

func TestStepTracker_ForwardAndBack(t *testing.T) {
	tracker := render.NewStepTracker([]string{"a", "b", "c"}, nil)
	if tracker.Active() != "a" || !tracker.IsFirst() {
		t.Fatalf("expected to start on a, got %q", tracker.Active())
	}

	if key, err := tracker.Next(); err != nil || key != "b" {
		t.Fatalf("next: %q %v", key, err)
	}
	if _, err := tracker.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	want := []render.StepState{render.StepCompleted, render.StepCompleted, render.StepActive}
	if diff := cmp.Diff(want, states(tracker)); diff != "" {
		t.Fatalf("states mismatch (-want +got):\n%s", diff)
	}
	if _, err := tracker.Next(); !errors.Is(err, render.ErrLastStep) {
		t.Fatalf("expected ErrLastStep, got %v", err)
	}

	if err := tracker.GoTo("a"); err != nil {
		t.Fatalf("goto: %v", err)
	}
	want = []render.StepState{render.StepActive, render.StepPending, render.StepPending}
	if diff := cmp.Diff(want, states(tracker)); diff != "" {
		t.Fatalf("edit link must reset successors (-want +got):\n%s", diff)
	}
	if _, err := tracker.Previous(); !errors.Is(err, render.ErrFirstStep) {
		t.Fatalf("expected ErrFirstStep, got %v", err)
	}
}

func TestStepTracker_SkipsHiddenSteps(t *testing.T) {
	tracker := render.NewStepTracker([]string{"a", "b", "c"}, visibility.NewSet("b"))

	if key, _ := tracker.Next(); key != "c" {
		t.Fatalf("expected to skip hidden b, got %q", key)
	}
	if !tracker.IsLast() {
		t.Fatalf("expected c to be last")
	}
	if done, total := tracker.Progress(); done != 1 || total != 2 {
		t.Fatalf("unexpected progress %d/%d", done, total)
	}

	tracker.SetHidden(nil)
	if key, _ := tracker.Previous(); key != "b" {
		t.Fatalf("expected b after it became visible, got %q", key)
	}
}

func TestStepTracker_GoToGuards(t *testing.T) {
	tracker := render.NewStepTracker([]string{"a", "b"}, nil)

	if err := tracker.GoTo("missing"); !errors.Is(err, render.ErrUnknownStep) {
		t.Fatalf("expected ErrUnknownStep, got %v", err)
	}
	if err := tracker.GoTo("b"); !errors.Is(err, render.ErrStepLocked) {
		t.Fatalf("expected ErrStepLocked, got %v", err)
	}

	_, _ = tracker.Next()
	_ = tracker.GoTo("a")
	if err := tracker.GoTo("b"); !errors.Is(err, render.ErrStepLocked) {
		t.Fatalf("successors reset to pending must be locked again, got %v", err)
	}
}

func TestStepTracker_StartAt(t *testing.T) {
	tracker := render.NewStepTrackerAt([]string{"a", "b", "c"}, visibility.NewSet("a"), "c")

	want := []render.StepStatus{
		{Key: "a", State: render.StepPending, Hidden: true},
		{Key: "b", State: render.StepCompleted},
		{Key: "c", State: render.StepActive},
	}
	if diff := cmp.Diff(want, tracker.States()); diff != "" {
		t.Fatalf("states mismatch (-want +got):\n%s", diff)
	}

	fallback := render.NewStepTrackerAt([]string{"a", "b"}, visibility.NewSet("a"), "nope")
	if fallback.Active() != "b" {
		t.Fatalf("expected first visible step, got %q", fallback.Active())
	}
}
