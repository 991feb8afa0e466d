package track

import (
	"errors"
	"testing"
	"time"

	"github.com/stridelab/pacequest/internal/model"
)

// fakeClock steps a recorder's notion of time deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRecorder(activityType model.ActivityType) (*Recorder, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	r := NewRecorder(activityType)
	r.now = clock.now
	r.startedAt = clock.t
	return r, clock
}

func TestRecorderPauseResumeDuration(t *testing.T) {
	r, clock := newTestRecorder(model.ActivityRunning)

	clock.advance(10 * time.Minute)
	r.Pause()

	// Paused time never counts, however long it lasts.
	clock.advance(30 * time.Minute)
	if got := r.Snapshot().DurationS; got != 600 {
		t.Errorf("paused duration = %.0fs, want 600", got)
	}

	r.Resume()
	clock.advance(5 * time.Minute)

	snap := r.Stop()
	if snap.DurationS != 900 {
		t.Errorf("final duration = %.0fs, want 900", snap.DurationS)
	}
	if snap.State != StateFinished {
		t.Errorf("state after Stop = %s, want %s", snap.State, StateFinished)
	}
}

func TestRecorderDropsFixesWhilePaused(t *testing.T) {
	r, clock := newTestRecorder(model.ActivityWalking)
	r.Pause()

	err := r.Update(fixAt(46.0, 7.0, 5, clock.t))
	if !errors.Is(err, ErrSessionPaused) {
		t.Errorf("expected ErrSessionPaused, got %v", err)
	}

	r.Resume()
	r.Stop()
	if err := r.Update(fixAt(46.0, 7.0, 5, clock.t)); !errors.Is(err, ErrSessionFinished) {
		t.Errorf("expected ErrSessionFinished, got %v", err)
	}
}

func TestRecorderCountersIgnoredWhenNotActive(t *testing.T) {
	r, _ := newTestRecorder(model.ActivityPushups)

	r.AddReps(10)
	r.AddSteps(-5) // negative input ignored
	r.Pause()
	r.AddReps(20)

	snap := r.Snapshot()
	if snap.Reps != 10 {
		t.Errorf("reps = %d, want 10", snap.Reps)
	}
	if snap.Steps != 0 {
		t.Errorf("steps = %d, want 0", snap.Steps)
	}
}

func TestRecorderCalories(t *testing.T) {
	r, clock := newTestRecorder(model.ActivityRunning)
	clock.advance(10 * time.Minute)

	// Running burns 12 kcal/min.
	if got := r.Snapshot().Calories; got != 120 {
		t.Errorf("calories = %.1f, want 120", got)
	}
}

func TestManagerSingleSessionPerUser(t *testing.T) {
	m := NewManager()

	if _, err := m.Start("u1", model.ActivityType("yoga")); !errors.Is(err, ErrBadActivity) {
		t.Errorf("expected ErrBadActivity, got %v", err)
	}

	if _, err := m.Start("u1", model.ActivityRunning); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := m.Start("u1", model.ActivityWalking); !errors.Is(err, ErrSessionExists) {
		t.Errorf("expected ErrSessionExists, got %v", err)
	}

	// A second user is unaffected.
	if _, err := m.Start("u2", model.ActivityWalking); err != nil {
		t.Errorf("second user start: %v", err)
	}

	snap, err := m.Stop("u1")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if snap.ActivityType != model.ActivityRunning {
		t.Errorf("snapshot type = %s, want running", snap.ActivityType)
	}

	if _, err := m.Get("u1"); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession after stop, got %v", err)
	}
}

func TestManagerDiscard(t *testing.T) {
	m := NewManager()
	if err := m.Discard("u1"); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}

	m.Start("u1", model.ActivityCycling)
	if err := m.Discard("u1"); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if _, err := m.Get("u1"); !errors.Is(err, ErrNoSession) {
		t.Errorf("session survived discard: %v", err)
	}
}
