package track

import (
	"time"

	"github.com/stridelab/pacequest/internal/model"
)

// maxAccuracyM rejects fixes whose reported horizontal accuracy is worse
// than this many meters.
const maxAccuracyM = 50

// smoothWindow is how many accepted fixes the running average spans.
const smoothWindow = 5

// SignalQuality buckets recent fix accuracy for observability. It never
// affects whether a fix is accepted.
type SignalQuality string

const (
	SignalPoor      SignalQuality = "poor"
	SignalFair      SignalQuality = "fair"
	SignalGood      SignalQuality = "good"
	SignalExcellent SignalQuality = "excellent"
)

func qualityForAccuracy(accuracy float64) SignalQuality {
	switch {
	case accuracy > 50:
		return SignalPoor
	case accuracy > 30:
		return SignalFair
	case accuracy > 15:
		return SignalGood
	default:
		return SignalExcellent
	}
}

// Point is a smoothed, accepted track point.
type Point struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// Filter turns a noisy stream of raw location fixes into a smoothed
// polyline and a monotonic distance total. One Filter instance serves one
// tracking session; it is not safe for concurrent use (the recorder
// serializes fixes in arrival order).
type Filter struct {
	activityType model.ActivityType

	recent  []model.LocationFix // last accepted raw fixes, smoothing window
	points  []Point
	last    *Point
	lastRaw *model.LocationFix

	distanceM float64

	rejectedStreak int
	quality        SignalQuality
}

func NewFilter(activityType model.ActivityType) *Filter {
	return &Filter{
		activityType: activityType,
		quality:      SignalExcellent,
	}
}

// Accept processes one raw fix. It returns the smoothed point and true when
// the fix passed filtering, or a zero point and false when it was rejected.
// Accepted fixes append to the polyline; the distance total only advances
// when the increment clears the activity's noise threshold.
func (f *Filter) Accept(fix model.LocationFix) (Point, bool) {
	f.quality = qualityForAccuracy(fix.Accuracy)

	if fix.Accuracy > maxAccuracyM {
		f.rejectedStreak++
		return Point{}, false
	}

	// Implied speed between consecutive raw fixes bounds GPS jumps.
	if f.lastRaw != nil {
		dt := fix.Timestamp.Sub(f.lastRaw.Timestamp).Seconds()
		if dt > 0 {
			implied := Haversine(f.lastRaw.Latitude, f.lastRaw.Longitude, fix.Latitude, fix.Longitude) / dt
			if implied > f.activityType.SpeedCeiling() {
				f.rejectedStreak++
				return Point{}, false
			}
		}
	}

	f.rejectedStreak = 0
	raw := fix
	f.lastRaw = &raw

	f.recent = append(f.recent, fix)
	if len(f.recent) > smoothWindow {
		f.recent = f.recent[len(f.recent)-smoothWindow:]
	}

	smoothed := f.smooth()

	if f.last != nil {
		inc := Haversine(f.last.Latitude, f.last.Longitude, smoothed.Latitude, smoothed.Longitude)
		if inc >= f.activityType.MinIncrement() {
			f.distanceM += inc
		}
	}

	f.points = append(f.points, smoothed)
	f.last = &smoothed
	return smoothed, true
}

// smooth damps single-sample jitter with an inverse-accuracy weighted
// running average: each fix in the window is weighted by rank/accuracy, so
// newer and more accurate fixes dominate.
func (f *Filter) smooth() Point {
	var lat, lon, weightSum float64
	for i, fx := range f.recent {
		acc := fx.Accuracy
		if acc < 1 {
			acc = 1
		}
		w := float64(i+1) / acc
		lat += fx.Latitude * w
		lon += fx.Longitude * w
		weightSum += w
	}
	newest := f.recent[len(f.recent)-1]
	if weightSum == 0 {
		return Point{Latitude: newest.Latitude, Longitude: newest.Longitude, Timestamp: newest.Timestamp}
	}
	return Point{
		Latitude:  lat / weightSum,
		Longitude: lon / weightSum,
		Timestamp: newest.Timestamp,
	}
}

// DistanceM is the accumulated filtered distance. Monotonic non-negative.
func (f *Filter) DistanceM() float64 { return f.distanceM }

// Points returns the smoothed polyline accepted so far.
func (f *Filter) Points() []Point { return f.points }

// RejectedStreak is the current run of consecutively rejected fixes.
func (f *Filter) RejectedStreak() int { return f.rejectedStreak }

// Quality reports the signal quality band of the most recent fix.
func (f *Filter) Quality() SignalQuality { return f.quality }
