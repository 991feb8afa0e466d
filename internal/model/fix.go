package model

import "time"

// LocationFix is a single raw sample from the location provider. Fixes are
// ephemeral: they feed the geo filter and are never persisted individually.
type LocationFix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"` // reported horizontal accuracy, meters
	Speed     float64   `json:"speed"`    // provider-reported speed, m/s
	Timestamp time.Time `json:"timestamp"`
}
