package model

import "time"

// GroupType sizes a challenge.
type GroupType string

const (
	GroupSolo  GroupType = "solo"
	GroupDuo   GroupType = "duo"
	GroupGroup GroupType = "group"
)

// CompletionRequirement selects how a challenge is won.
type CompletionRequirement string

const (
	// RequirementReachGoal completes a participant when their own
	// accumulated progress reaches the challenge goal.
	RequirementReachGoal CompletionRequirement = "reach_goal"
	// RequirementBetterThanOther completes the challenge globally once all
	// participants have submitted; the best progress wins.
	RequirementBetterThanOther CompletionRequirement = "better_than_other"
)

const (
	ChallengeStatusActive    = "active"
	ChallengeStatusCompleted = "completed"
	ChallengeStatusExpired   = "expired"
)

// Challenge is a shared objective between one or more participants.
// Per-participant progress lives in ChallengeParticipant rows; Status here
// is the global status and transitions to completed exactly once.
type Challenge struct {
	ID                    string                `db:"id" json:"id"`
	Title                 string                `db:"title" json:"title"`
	Unit                  Unit                  `db:"unit" json:"unit"`
	Goal                  float64               `db:"goal" json:"goal"`
	GroupType             GroupType             `db:"group_type" json:"group_type"`
	CompletionRequirement CompletionRequirement `db:"completion_requirement" json:"completion_requirement"`
	WagerXP               int                   `db:"wager_xp" json:"wager_xp"`
	XPReward              int                   `db:"xp_reward" json:"xp_reward"`
	Status                string                `db:"status" json:"status"`
	WinnerID              *string               `db:"winner_id" json:"winner_id,omitempty"`
	ExpiresAt             time.Time             `db:"expires_at" json:"expires_at"`
	CreatedAt             time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time             `db:"updated_at" json:"updated_at"`
}

// Wagered reports whether participants staked XP against each other.
// Wagered challenges award no direct XP at submission; the pot settles at
// finalization.
func (c *Challenge) Wagered() bool {
	return c.WagerXP > 0
}

// ChallengeParticipant is one user's membership and progress in a challenge.
// Progress is absolute, in the challenge's unit, and independently monotonic
// per participant: it is only ever advanced by addition.
type ChallengeParticipant struct {
	ChallengeID string     `db:"challenge_id" json:"challenge_id"`
	UserID      string     `db:"user_id" json:"user_id"`
	Progress    float64    `db:"progress" json:"progress"`
	Status      string     `db:"status" json:"status"`
	JoinedAt    time.Time  `db:"joined_at" json:"joined_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// ChallengeEvent is a participation record written whenever an activity
// advances a participant's progress.
type ChallengeEvent struct {
	ID          string    `db:"id" json:"id"`
	ChallengeID string    `db:"challenge_id" json:"challenge_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	ActivityID  string    `db:"activity_id" json:"activity_id"`
	Delta       float64   `db:"delta" json:"delta"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
