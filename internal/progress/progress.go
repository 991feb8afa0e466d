// Package progress converts an activity's raw measurements into quest and
// challenge progress values, percentages, and completion flags.
//
// Everything here is a pure function over an entity and a stats snapshot,
// so it is safe to call repeatedly during a live session for UI feedback.
package progress

import (
	"github.com/stridelab/pacequest/internal/model"
)

const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Entity is the view of a quest or challenge participant the progress
// model needs: a goal, a unit, and an absolute already-achieved value.
type Entity struct {
	Unit Unit
	// Achieved is an absolute value in Unit, NOT a percentage. Callers add
	// it to the session delta; treating it as a fraction is a bug this
	// package exists to rule out.
	Achieved float64
	Goal     float64
}

// Unit aliases the model's unit type for convenience.
type Unit = model.Unit

// FromQuest adapts a quest to the progress entity view.
func FromQuest(q *model.Quest) Entity {
	return Entity{Unit: q.Unit, Achieved: q.Progress, Goal: q.Goal}
}

// FromParticipant adapts one user's challenge membership.
func FromParticipant(c *model.Challenge, p *model.ChallengeParticipant) Entity {
	return Entity{Unit: c.Unit, Achieved: p.Progress, Goal: c.Goal}
}

// SessionValue extracts the unit-appropriate scalar from a stats snapshot.
// The dispatch table is total over the unit set.
func SessionValue(e Entity, s model.SessionStats) float64 {
	switch e.Unit {
	case model.UnitDistance:
		return s.DistanceM / 1000
	case model.UnitDuration:
		return s.DurationS / 60
	case model.UnitReps:
		return float64(s.Reps)
	case model.UnitSteps:
		return float64(s.Steps)
	case model.UnitCalories:
		return s.Calories
	case model.UnitPace:
		return s.AvgPace
	}
	return 0
}

// TotalValue combines the persisted baseline with the in-session delta,
// clamped at the goal. Pace is not cumulative: the session's pace stands
// alone.
func TotalValue(e Entity, s model.SessionStats) float64 {
	if e.Unit == model.UnitPace {
		return SessionValue(e, s)
	}
	total := e.Achieved + SessionValue(e, s)
	if total > e.Goal {
		return e.Goal
	}
	return total
}

// Percentage returns completion in [0,1]; 0 when the goal is unset.
func Percentage(e Entity, s model.SessionStats) float64 {
	if e.Goal <= 0 {
		return 0
	}
	var pct float64
	if e.Unit == model.UnitPace {
		if Completed(e, s) {
			pct = 1
		} else if SessionValue(e, s) > 0 {
			// Lower is better; show how close the pace is to target.
			pct = e.Goal / SessionValue(e, s)
		}
	} else {
		pct = TotalValue(e, s) / e.Goal
	}
	if pct < 0 {
		return 0
	}
	if pct > 1 {
		return 1
	}
	return pct
}

// Completed uses a strict >= 1 bound. The reward ledger deliberately uses a
// looser >= 0.99 threshold for cumulative units to absorb floating-point
// error when money (XP) is on the line; live UI reporting stays strict so a
// quest never shows complete before it is. Pace has no accumulation and uses
// this exact rule everywhere.
func Completed(e Entity, s model.SessionStats) bool {
	if e.Unit == model.UnitPace {
		// For pace, better means lower: a 6:00/km goal is met by 5:50, not
		// by 6:10. Zero means no pace was recorded.
		pace := SessionValue(e, s)
		return pace > 0 && pace <= e.Goal
	}
	return e.Goal > 0 && TotalValue(e, s) >= e.Goal
}

// Status derives the display status from the percentage.
func Status(e Entity, s model.SessionStats) string {
	if Completed(e, s) {
		return StatusCompleted
	}
	if Percentage(e, s) > 0 {
		return StatusInProgress
	}
	return StatusNotStarted
}
