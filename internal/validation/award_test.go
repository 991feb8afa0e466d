package validation

import (
	"testing"
	"time"

	"github.com/stridelab/pacequest/internal/model"
	"github.com/stridelab/pacequest/internal/service"
)

func TestValidateAward(t *testing.T) {
	valid := service.AwardRequest{
		ActivityID:   "act-1",
		ActivityType: model.ActivityWalking,
		Stats:        model.SessionStats{DistanceM: 100, DurationS: 60},
	}
	if err := ValidateAward(valid); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*service.AwardRequest)
	}{
		{"missing activity id", func(r *service.AwardRequest) { r.ActivityID = "" }},
		{"unknown activity type", func(r *service.AwardRequest) { r.ActivityType = "parkour" }},
		{"negative distance", func(r *service.AwardRequest) { r.Stats.DistanceM = -1 }},
		{"negative reps", func(r *service.AwardRequest) { r.Stats.Reps = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			if err := ValidateAward(req); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateFix(t *testing.T) {
	valid := model.LocationFix{
		Latitude:  46.0,
		Longitude: 7.0,
		Accuracy:  5,
		Timestamp: time.Now(),
	}
	if err := ValidateFix(valid); err != nil {
		t.Errorf("valid fix rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*model.LocationFix)
	}{
		{"latitude too high", func(f *model.LocationFix) { f.Latitude = 91 }},
		{"longitude too low", func(f *model.LocationFix) { f.Longitude = -181 }},
		{"negative accuracy", func(f *model.LocationFix) { f.Accuracy = -1 }},
		{"zero timestamp", func(f *model.LocationFix) { f.Timestamp = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fix := valid
			tt.mutate(&fix)
			if err := ValidateFix(fix); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
