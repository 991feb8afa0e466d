package validation

import (
	"errors"

	"github.com/stridelab/pacequest/internal/model"
	"github.com/stridelab/pacequest/internal/service"
)

// ValidateAward checks structural validity of an award submission. Business
// eligibility (session too short, etc.) belongs to the ledger; this only
// rejects payloads that cannot possibly be processed.
func ValidateAward(req service.AwardRequest) error {
	if req.ActivityID == "" {
		return errors.New("activity_id is required")
	}
	if !req.ActivityType.Valid() {
		return errors.New("unknown activity type")
	}
	if req.Stats.DistanceM < 0 || req.Stats.DurationS < 0 {
		return errors.New("distance and duration must be non-negative")
	}
	if req.Stats.Reps < 0 || req.Stats.Steps < 0 {
		return errors.New("reps and steps must be non-negative")
	}
	return nil
}

// ValidateFix checks a raw location fix payload.
func ValidateFix(fix model.LocationFix) error {
	if fix.Latitude < -90 || fix.Latitude > 90 {
		return errors.New("latitude out of range")
	}
	if fix.Longitude < -180 || fix.Longitude > 180 {
		return errors.New("longitude out of range")
	}
	if fix.Accuracy < 0 {
		return errors.New("accuracy must be non-negative")
	}
	if fix.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	return nil
}
