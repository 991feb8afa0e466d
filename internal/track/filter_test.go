package track

import (
	"testing"
	"time"

	"github.com/stridelab/pacequest/internal/model"
)

// latOffsetPerMeter converts meters to degrees of latitude.
const latOffsetPerMeter = 1.0 / 111320.0

func fixAt(lat, lon, accuracy float64, at time.Time) model.LocationFix {
	return model.LocationFix{
		Latitude:  lat,
		Longitude: lon,
		Accuracy:  accuracy,
		Timestamp: at,
	}
}

func TestHaversine(t *testing.T) {
	// Roughly 140 meters between these two points.
	d := Haversine(46.0, 7.0, 46.001, 7.001)
	if d < 130 || d > 150 {
		t.Errorf("expected ~140m, got %.1f", d)
	}

	if Haversine(46.0, 7.0, 46.0, 7.0) != 0 {
		t.Error("identical points should be zero distance")
	}
}

func TestAcceptRejectsLowAccuracy(t *testing.T) {
	f := NewFilter(model.ActivityWalking)

	_, ok := f.Accept(fixAt(46.0, 7.0, 80, time.Now()))
	if ok {
		t.Error("fix with 80m accuracy should be rejected")
	}
	if f.RejectedStreak() != 1 {
		t.Errorf("expected rejection streak 1, got %d", f.RejectedStreak())
	}
	if f.Quality() != SignalPoor {
		t.Errorf("expected poor signal, got %s", f.Quality())
	}
}

func TestAcceptRejectsImpossibleSpeed(t *testing.T) {
	f := NewFilter(model.ActivityWalking)
	start := time.Now()

	_, ok := f.Accept(fixAt(46.0, 7.0, 5, start))
	if !ok {
		t.Fatal("first fix should be accepted")
	}

	// 100 meters in one second is 100 m/s, far above the 8 m/s walking
	// ceiling.
	jump := fixAt(46.0+100*latOffsetPerMeter, 7.0, 5, start.Add(time.Second))
	_, ok = f.Accept(jump)
	if ok {
		t.Error("GPS jump should be rejected")
	}

	if f.DistanceM() != 0 {
		t.Errorf("rejected jump must not increase distance, got %.2f", f.DistanceM())
	}
}

func TestCyclingSpeedCeiling(t *testing.T) {
	f := NewFilter(model.ActivityCycling)
	start := time.Now()

	f.Accept(fixAt(46.0, 7.0, 5, start))

	// 15 m/s is over the walking ceiling but fine for cycling.
	_, ok := f.Accept(fixAt(46.0+15*latOffsetPerMeter, 7.0, 5, start.Add(time.Second)))
	if !ok {
		t.Error("15 m/s should be accepted while cycling")
	}
}

func TestThresholdFiltering(t *testing.T) {
	start := time.Now()

	t.Run("below threshold", func(t *testing.T) {
		f := NewFilter(model.ActivityWalking) // 2m threshold
		f.Accept(fixAt(46.0, 7.0, 5, start))
		f.Accept(fixAt(46.0+1.5*latOffsetPerMeter, 7.0, 5, start.Add(time.Second)))

		if f.DistanceM() != 0 {
			t.Errorf("1.5m step must not change distance, got %.2f", f.DistanceM())
		}
	})

	t.Run("above threshold", func(t *testing.T) {
		f := NewFilter(model.ActivityWalking)
		// A poor-accuracy anchor followed by a sharp fix keeps the
		// smoothed step close to the raw 2.5m displacement.
		f.Accept(fixAt(46.0, 7.0, 25, start))
		f.Accept(fixAt(46.0+2.5*latOffsetPerMeter, 7.0, 3, start.Add(time.Second)))

		got := f.DistanceM()
		if got < 2.0 || got > 2.6 {
			t.Errorf("2.5m step should add ~2.5m (smoothing tolerance), got %.2f", got)
		}
	})
}

func TestDistanceMonotonic(t *testing.T) {
	f := NewFilter(model.ActivityRunning)
	start := time.Now()

	prev := 0.0
	lat := 46.0
	for i := 0; i < 30; i++ {
		step := float64(i%3) * 4 // mixes sub-threshold and real movement
		lat += step * latOffsetPerMeter
		f.Accept(fixAt(lat, 7.0, 8, start.Add(time.Duration(i)*time.Second)))

		if f.DistanceM() < prev {
			t.Fatalf("distance decreased at fix %d: %.2f -> %.2f", i, prev, f.DistanceM())
		}
		prev = f.DistanceM()
	}

	// A teleport never increases distance.
	before := f.DistanceM()
	f.Accept(fixAt(lat+1000*latOffsetPerMeter, 7.0, 8, start.Add(31*time.Second)))
	if f.DistanceM() != before {
		t.Errorf("teleport changed distance: %.2f -> %.2f", before, f.DistanceM())
	}
}

func TestSignalQualityBands(t *testing.T) {
	tests := []struct {
		accuracy float64
		want     SignalQuality
	}{
		{60, SignalPoor},
		{40, SignalFair},
		{20, SignalGood},
		{15, SignalExcellent},
		{4, SignalExcellent},
	}

	for _, tt := range tests {
		got := qualityForAccuracy(tt.accuracy)
		if got != tt.want {
			t.Errorf("accuracy %.0f: expected %s, got %s", tt.accuracy, tt.want, got)
		}
	}
}

func TestSmoothingDampsJitter(t *testing.T) {
	f := NewFilter(model.ActivityWalking)
	start := time.Now()

	// A stationary user with jittery fixes: the smoothed polyline should
	// accumulate no distance.
	offsets := []float64{0, 0.8, -0.5, 0.6, -0.7, 0.4}
	for i, off := range offsets {
		f.Accept(fixAt(46.0+off*latOffsetPerMeter, 7.0, 10, start.Add(time.Duration(i)*time.Second)))
	}

	if f.DistanceM() != 0 {
		t.Errorf("stationary jitter inflated distance to %.2f", f.DistanceM())
	}
	if len(f.Points()) != len(offsets) {
		t.Errorf("expected %d accepted points, got %d", len(offsets), len(f.Points()))
	}
}
