package service

import (
	"math"

	"github.com/stridelab/pacequest/internal/model"
)

const (
	// baseXP is granted for every qualifying normal activity, scaled by the
	// activity's intensity multiplier.
	baseXP = 100

	// performanceBonusCap bounds the additive milestone bonus.
	performanceBonusCap = 150

	// elevationBonusCap bounds the elevation sub-bonus inside the
	// performance bonus.
	elevationBonusCap = 50
)

// baseXPFor returns the base XP for a normal activity.
func baseXPFor(t model.ActivityType) int {
	return int(math.Round(baseXP * t.Intensity()))
}

// performanceBonus rewards milestones reached during the session. Strength
// activities earn on reps and short duration blocks; everything else earns
// on distance, duration, steps, and elevation gain. The total is capped.
func performanceBonus(t model.ActivityType, stats model.SessionStats) int {
	mult := t.Intensity()
	bonus := 0.0

	if t.IsStrength() {
		// 10 XP per 5 reps, 5 XP per 2 minutes.
		bonus += float64(stats.Reps/5) * 10
		bonus += math.Floor(stats.DurationS/120) * 5 * mult
	} else {
		// 10 XP per 0.5 km, 5 XP per 5 minutes, 5 XP per 500 steps.
		bonus += math.Floor(stats.DistanceM/500) * 10 * mult
		bonus += math.Floor(stats.DurationS/300) * 5 * mult
		bonus += float64(stats.Steps/500) * 5

		elev := math.Floor(stats.ElevationGainM/10) * 5
		if elev > elevationBonusCap {
			elev = elevationBonusCap
		}
		bonus += elev
	}

	if bonus > performanceBonusCap {
		bonus = performanceBonusCap
	}
	return int(bonus)
}
