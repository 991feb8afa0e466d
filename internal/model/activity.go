package model

import (
	"time"
)

// ActivityType identifies what kind of exercise a session records.
type ActivityType string

const (
	ActivityWalking ActivityType = "walking"
	ActivityJogging ActivityType = "jogging"
	ActivityRunning ActivityType = "running"
	ActivityCycling ActivityType = "cycling"
	ActivityPushups ActivityType = "pushups"
	ActivitySquats  ActivityType = "squats"
	ActivitySitups  ActivityType = "situps"
)

// ActivityTypes lists every supported activity type.
var ActivityTypes = []ActivityType{
	ActivityWalking,
	ActivityJogging,
	ActivityRunning,
	ActivityCycling,
	ActivityPushups,
	ActivitySquats,
	ActivitySitups,
}

// intensity models relative exercise effort and scales base XP.
var intensity = map[ActivityType]float64{
	ActivityWalking: 1.0,
	ActivityJogging: 1.4,
	ActivityRunning: 1.6,
	ActivityCycling: 1.3,
	ActivityPushups: 1.2,
	ActivitySquats:  1.2,
	ActivitySitups:  1.15,
}

// minIncrementM is the per-type minimum distance increment in meters.
// Increments below it are discarded as positional noise.
var minIncrementM = map[ActivityType]float64{
	ActivityWalking: 2,
	ActivityJogging: 3,
	ActivityRunning: 5,
	ActivityCycling: 8,
}

func (t ActivityType) Valid() bool {
	_, ok := intensity[t]
	return ok
}

// Intensity returns the XP multiplier for the activity type.
func (t ActivityType) Intensity() float64 {
	m, ok := intensity[t]
	if !ok {
		return 1.0
	}
	return m
}

// IsStrength reports whether the activity is rep-based rather than GPS-based.
func (t ActivityType) IsStrength() bool {
	switch t {
	case ActivityPushups, ActivitySquats, ActivitySitups:
		return true
	}
	return false
}

// SpeedCeiling returns the maximum plausible speed in m/s. Fixes implying a
// higher speed are treated as GPS jumps.
func (t ActivityType) SpeedCeiling() float64 {
	if t == ActivityCycling {
		return 20
	}
	return 8
}

// MinIncrement returns the minimum accepted distance increment in meters.
func (t ActivityType) MinIncrement() float64 {
	return minIncrementM[t]
}

// Classification partitions finished activities by how they were rewarded.
type Classification string

const (
	ClassNormal    Classification = "normal"
	ClassQuest     Classification = "quest"
	ClassChallenge Classification = "challenge"
)

// SessionStats is the measurement snapshot a finished (or live) session
// hands to the progress model and the reward ledger.
type SessionStats struct {
	DistanceM      float64 `json:"distance_m"`
	DurationS      float64 `json:"duration_s"`
	Steps          int     `json:"steps"`
	Reps           int     `json:"reps"`
	Calories       float64 `json:"calories"`
	AvgPace        float64 `json:"avg_pace"`
	ElevationGainM float64 `json:"elevation_gain_m"`
}

// Activity is a persisted finished session.
type Activity struct {
	ID             string         `db:"id" json:"id"`
	UserID         string         `db:"user_id" json:"user_id"`
	ActivityType   ActivityType   `db:"activity_type" json:"activity_type"`
	Classification Classification `db:"classification" json:"classification"`
	QuestID        *string        `db:"quest_id" json:"quest_id,omitempty"`
	ChallengeID    *string        `db:"challenge_id" json:"challenge_id,omitempty"`
	DistanceM      float64        `db:"distance_m" json:"distance_m"`
	DurationS      float64        `db:"duration_s" json:"duration_s"`
	Steps          int            `db:"steps" json:"steps"`
	Reps           int            `db:"reps" json:"reps"`
	Calories       float64        `db:"calories" json:"calories"`
	AvgPace        float64        `db:"avg_pace" json:"avg_pace"`
	ElevationGainM float64        `db:"elevation_gain_m" json:"elevation_gain_m"`
	RecordedAt     time.Time      `db:"recorded_at" json:"recorded_at"`
}
