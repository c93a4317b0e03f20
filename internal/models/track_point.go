package models

import "time"

// AltitudeUnknown is the altitude sentinel written by the logger when no
// altitude fix was available. It must never enter altitude deltas.
const AltitudeUnknown = -777

// TrackPoint represents one GPS sample of an activity.
// ID is assigned by the store on insert; its order is the parse order.
type TrackPoint struct {
	ID         int64     `json:"id" db:"id"`
	ActivityID int64     `json:"activityId" db:"activity_id"`
	Latitude   float64   `json:"latitude" db:"lat"`
	Longitude  float64   `json:"longitude" db:"lon"`
	Altitude   int       `json:"altitude" db:"altitude"`   // feet, AltitudeUnknown if missing
	DateDays   float64   `json:"dateDays" db:"date_days"`  // fractional days since 1899-12-30
	DateTime   time.Time `json:"dateTime" db:"date_time"`
}

// HasAltitude reports whether the altitude is a real reading.
func (p TrackPoint) HasAltitude() bool {
	return p.Altitude != AltitudeUnknown
}
