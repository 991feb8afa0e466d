package model

import "time"

// Unit is the measurement a quest or challenge goal is expressed in.
type Unit string

const (
	UnitDistance Unit = "distance" // kilometers
	UnitDuration Unit = "duration" // minutes
	UnitReps     Unit = "reps"
	UnitSteps    Unit = "steps"
	UnitCalories Unit = "calories"
	UnitPace     Unit = "pace" // min/km, lower is better
)

const (
	QuestStatusNotStarted = "not_started"
	QuestStatusInProgress = "in_progress"
	QuestStatusCompleted  = "completed"
	QuestStatusExpired    = "expired"
)

// Quest is a per-user daily objective.
//
// Progress is an ABSOLUTE achieved value in the quest's unit, never a
// percentage. It is monotonically non-decreasing while the quest is live,
// and never reduced once the quest is completed.
type Quest struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Title       string    `db:"title" json:"title"`
	Unit        Unit      `db:"unit" json:"unit"`
	Goal        float64   `db:"goal" json:"goal"`
	Progress    float64   `db:"progress" json:"progress"`
	Status      string    `db:"status" json:"status"`
	XPReward    int       `db:"xp_reward" json:"xp_reward"`
	TemplateKey string    `db:"template_key" json:"template_key"`
	ExpiresAt   time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// QuestCompletion records a quest having been completed by an activity.
type QuestCompletion struct {
	ID          string    `db:"id" json:"id"`
	QuestID     string    `db:"quest_id" json:"quest_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	XPAwarded   int       `db:"xp_awarded" json:"xp_awarded"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
}
