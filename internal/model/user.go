package model

import "time"

// XPPerLevel is the XP span of one level: level = totalXP/1000 + 1.
const XPPerLevel = 1000

// LevelForXP computes a user's level from their total XP.
func LevelForXP(totalXP int) int {
	if totalXP < 0 {
		return 1
	}
	return totalXP/XPPerLevel + 1
}

// User holds profile identity plus cumulative lifetime stats. Stats are
// mutated only through the reward ledger's atomic increments.
type User struct {
	ID              string    `db:"id" json:"id"`
	DisplayName     string    `db:"display_name" json:"display_name"`
	TotalXP         int       `db:"total_xp" json:"total_xp"`
	Level           int       `db:"level" json:"level"`
	TotalDistanceM  float64   `db:"total_distance_m" json:"total_distance_m"`
	TotalDurationS  float64   `db:"total_duration_s" json:"total_duration_s"`
	TotalSteps      int       `db:"total_steps" json:"total_steps"`
	TotalReps       int       `db:"total_reps" json:"total_reps"`
	TotalCalories   float64   `db:"total_calories" json:"total_calories"`
	TotalActivities int       `db:"total_activities" json:"total_activities"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
