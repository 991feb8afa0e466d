package service

import (
	"testing"

	"github.com/stridelab/pacequest/internal/model"
)

func TestBaseXPFor(t *testing.T) {
	tests := []struct {
		activityType model.ActivityType
		want         int
	}{
		{model.ActivityWalking, 100},
		{model.ActivityJogging, 140},
		{model.ActivityRunning, 160},
		{model.ActivityCycling, 130},
		{model.ActivityPushups, 120},
		{model.ActivitySquats, 120},
		{model.ActivitySitups, 115},
	}

	for _, tt := range tests {
		if got := baseXPFor(tt.activityType); got != tt.want {
			t.Errorf("baseXPFor(%s) = %d, want %d", tt.activityType, got, tt.want)
		}
	}
}

func TestPerformanceBonusCardio(t *testing.T) {
	// Walking, intensity 1.0: 2km -> 40, 20min -> 20, 1500 steps -> 15.
	stats := model.SessionStats{DistanceM: 2000, DurationS: 1200, Steps: 1500}
	if got := performanceBonus(model.ActivityWalking, stats); got != 75 {
		t.Errorf("bonus = %d, want 75", got)
	}
}

func TestPerformanceBonusElevationCapped(t *testing.T) {
	// 500m of climb would be 250 XP uncapped; the elevation sub-bonus
	// stops at 50.
	stats := model.SessionStats{DistanceM: 500, DurationS: 300, ElevationGainM: 500}
	// 10 (distance) + 5 (duration) + 50 (capped elevation) = 65.
	if got := performanceBonus(model.ActivityWalking, stats); got != 65 {
		t.Errorf("bonus = %d, want 65", got)
	}
}

func TestPerformanceBonusTotalCapped(t *testing.T) {
	// A marathon-scale session overflows every milestone; the total bonus
	// still stops at 150.
	stats := model.SessionStats{DistanceM: 42000, DurationS: 14400, Steps: 50000}
	if got := performanceBonus(model.ActivityRunning, stats); got != 150 {
		t.Errorf("bonus = %d, want cap 150", got)
	}
}

func TestPerformanceBonusStrength(t *testing.T) {
	// Pushups, intensity 1.2: 23 reps -> 4 blocks of 5 -> 40;
	// 6 minutes -> 3 blocks of 2 -> 3*5*1.2 = 18.
	stats := model.SessionStats{Reps: 23, DurationS: 360}
	if got := performanceBonus(model.ActivityPushups, stats); got != 58 {
		t.Errorf("bonus = %d, want 58", got)
	}
}
