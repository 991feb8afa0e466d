package track

import (
	"errors"
	"sync"
	"time"

	"github.com/stridelab/pacequest/internal/model"
)

var (
	// ErrPermissionDenied is returned by location sources when access to
	// location data was refused. Fatal to tracking, recoverable by
	// re-requesting permission.
	ErrPermissionDenied = errors.New("location permission denied")

	ErrSessionPaused   = errors.New("session is paused")
	ErrSessionFinished = errors.New("session already finished")
)

// State is the lifecycle state of a recorder.
type State string

const (
	StateActive   State = "active"
	StatePaused   State = "paused"
	StateFinished State = "finished"
)

// caloriesPerMinute is a flat per-type burn estimate used for live stats.
var caloriesPerMinute = map[model.ActivityType]float64{
	model.ActivityWalking: 4.5,
	model.ActivityJogging: 9,
	model.ActivityRunning: 12,
	model.ActivityCycling: 8,
	model.ActivityPushups: 7,
	model.ActivitySquats:  6.5,
	model.ActivitySitups:  6,
}

// Snapshot is the live view of a tracking session handed to the UI layer.
type Snapshot struct {
	ActivityType model.ActivityType `json:"activity_type"`
	State        State              `json:"state"`
	Coordinates  []Point            `json:"coordinates"`
	DistanceM    float64            `json:"distance_m"`
	DurationS    float64            `json:"duration_s"`
	Pace         float64            `json:"pace"`
	AvgSpeed     float64            `json:"avg_speed"`
	Steps        int                `json:"steps"`
	Reps         int                `json:"reps"`
	Calories     float64            `json:"calories"`
	Signal       SignalQuality      `json:"signal"`
}

// Stats converts the snapshot into the measurement form the progress model
// and reward ledger consume.
func (s Snapshot) Stats() model.SessionStats {
	return model.SessionStats{
		DistanceM: s.DistanceM,
		DurationS: s.DurationS,
		Steps:     s.Steps,
		Reps:      s.Reps,
		Calories:  s.Calories,
		AvgPace:   s.Pace,
	}
}

// Recorder owns one live tracking session: it feeds fixes through the geo
// filter and pace estimator and maintains pause-aware elapsed duration.
// Fixes are processed strictly in arrival order; all entry points share one
// lock, so no fix is processed while a previous fix's computation is in
// flight.
type Recorder struct {
	mu sync.Mutex

	activityType model.ActivityType
	filter       *Filter
	pace         *PaceEstimator

	state State

	// elapsedBase accumulates active duration across pauses; startedAt is
	// the instant the current active stretch began.
	elapsedBase time.Duration
	startedAt   time.Time

	steps int
	reps  int

	now func() time.Time
}

func NewRecorder(activityType model.ActivityType) *Recorder {
	r := &Recorder{
		activityType: activityType,
		filter:       NewFilter(activityType),
		pace:         NewPaceEstimator(activityType),
		state:        StateActive,
		now:          time.Now,
	}
	r.startedAt = r.now()
	return r
}

// Update feeds one raw location fix through the filter. Fixes arriving
// while paused are dropped without touching session state; the location
// subscription itself stays up.
func (r *Recorder) Update(fix model.LocationFix) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StatePaused:
		return ErrSessionPaused
	case StateFinished:
		return ErrSessionFinished
	}

	if _, ok := r.filter.Accept(fix); ok {
		r.pace.Update(r.filter.DistanceM(), r.elapsed().Seconds())
	}
	return nil
}

// AddSteps credits pedometer steps to the session.
func (r *Recorder) AddSteps(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n > 0 && r.state == StateActive {
		r.steps += n
	}
}

// AddReps credits repetitions for strength-style sessions.
func (r *Recorder) AddReps(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n > 0 && r.state == StateActive {
		r.reps += n
	}
}

// Pause stops processing of incoming fixes. Elapsed time accumulated so
// far is banked; it resumes from the stored offset, not from zero.
func (r *Recorder) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateActive {
		return
	}
	r.elapsedBase += r.now().Sub(r.startedAt)
	r.state = StatePaused
}

// Resume restarts fix processing after a pause.
func (r *Recorder) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StatePaused {
		return
	}
	r.startedAt = r.now()
	r.state = StateActive
}

// Stop finishes the session and returns the final snapshot.
func (r *Recorder) Stop() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateActive {
		r.elapsedBase += r.now().Sub(r.startedAt)
	}
	r.state = StateFinished
	return r.snapshotLocked()
}

func (r *Recorder) elapsed() time.Duration {
	if r.state == StateActive {
		return r.elapsedBase + r.now().Sub(r.startedAt)
	}
	return r.elapsedBase
}

// Snapshot returns the current live stats.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Recorder) snapshotLocked() Snapshot {
	durS := r.elapsed().Seconds()
	distM := r.filter.DistanceM()
	return Snapshot{
		ActivityType: r.activityType,
		State:        r.state,
		Coordinates:  r.filter.Points(),
		DistanceM:    distM,
		DurationS:    durS,
		Pace:         r.pace.Pace(),
		AvgSpeed:     AvgSpeed(distM, durS),
		Steps:        r.steps,
		Reps:         r.reps,
		Calories:     durS / 60 * caloriesPerMinute[r.activityType],
		Signal:       r.filter.Quality(),
	}
}
