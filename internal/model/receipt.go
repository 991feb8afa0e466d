package model

import "time"

// ActivityReceipt makes reward application idempotent. Its presence, keyed
// by activity ID, is the single source of truth for "this activity has been
// rewarded". Receipts are created inside the award transaction and never
// updated afterwards.
type ActivityReceipt struct {
	ActivityID         string    `db:"activity_id" json:"activity_id"`
	UserID             string    `db:"user_id" json:"user_id"`
	XPEarned           int       `db:"xp_earned" json:"xp_earned"`
	QuestCompleted     bool      `db:"quest_completed" json:"quest_completed"`
	ChallengeCompleted bool      `db:"challenge_completed" json:"challenge_completed"`
	LevelUp            bool      `db:"level_up" json:"level_up"`
	NewLevel           int       `db:"new_level" json:"new_level"`
	AwardedAt          time.Time `db:"awarded_at" json:"awarded_at"`
}
