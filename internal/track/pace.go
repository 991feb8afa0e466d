package track

import "github.com/stridelab/pacequest/internal/model"

// minPaceInput guards the pace formula against division by near-zero
// distance or duration at session start.
const minPaceInput = 5

// paceWindow returns the moving-average span for an activity type. Cycling
// gets a wider window: lower cadence trades responsiveness for stability.
func paceWindow(t model.ActivityType) int {
	if t == model.ActivityCycling {
		return 7
	}
	return 5
}

// PaceEstimator smooths instantaneous pace over a bounded window of raw
// samples. Average speed is derived separately, unsmoothed, because it is a
// cumulative statistic rather than an instantaneous one.
type PaceEstimator struct {
	window  int
	samples []float64
	pace    float64
}

func NewPaceEstimator(activityType model.ActivityType) *PaceEstimator {
	return &PaceEstimator{window: paceWindow(activityType)}
}

// Update takes cumulative distance (meters) and duration (seconds), records
// one raw pace sample, and returns the smoothed pace in min/km.
func (p *PaceEstimator) Update(distanceM, durationS float64) float64 {
	raw := RawPace(distanceM, durationS)

	p.samples = append(p.samples, raw)
	if len(p.samples) > p.window {
		p.samples = p.samples[len(p.samples)-p.window:]
	}

	var sum float64
	for _, s := range p.samples {
		sum += s
	}
	p.pace = sum / float64(len(p.samples))
	return p.pace
}

// Pace returns the current smoothed pace in min/km.
func (p *PaceEstimator) Pace() float64 { return p.pace }

// RawPace computes instantaneous pace in min/km, 0 when distance or
// duration is too small to be meaningful.
func RawPace(distanceM, durationS float64) float64 {
	if distanceM < minPaceInput || durationS < minPaceInput {
		return 0
	}
	return (durationS / 60) / (distanceM / 1000)
}

// AvgSpeed computes cumulative average speed in km/h.
func AvgSpeed(distanceM, durationS float64) float64 {
	if durationS <= 0 {
		return 0
	}
	return (distanceM / 1000) / (durationS / 3600)
}
