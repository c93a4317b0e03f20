package models

// DatasetCounts is the row count of every table
type DatasetCounts struct {
	Users       int64 `json:"users"`
	Activities  int64 `json:"activities"`
	TrackPoints int64 `json:"trackPoints"`
}

// UserCount pairs a user with a count (activities, invalid activities, ...)
type UserCount struct {
	UserID string `json:"userId"`
	Count  int64  `json:"count"`
}

// ModeCount is the number of activities labeled with one mode
type ModeCount struct {
	Mode  string `json:"mode"`
	Count int64  `json:"count"`
}

// YearActivity is the activity count and recorded hours of one year
type YearActivity struct {
	Year       int     `json:"year"`
	Activities int64   `json:"activities"`
	Hours      float64 `json:"hours"`
}

// YearComparison compares the busiest year by count with the busiest
// year by recorded hours
type YearComparison struct {
	MostActivities YearActivity `json:"mostActivities"`
	MostHours      YearActivity `json:"mostHours"`
	SameYear       bool         `json:"sameYear"`
}

// DistanceReport is the distance covered by a user in one mode and year
type DistanceReport struct {
	UserID     string  `json:"userId"`
	Year       int     `json:"year"`
	Mode       string  `json:"mode"`
	Activities int     `json:"activities"`
	Kilometers float64 `json:"kilometers"`
}

// AltitudeGain is the total positive altitude gain of a user
type AltitudeGain struct {
	UserID string  `json:"userId"`
	Feet   int64   `json:"feet"`
	Meters float64 `json:"meters"`
}

// UserMode is the most used transportation mode of a user
type UserMode struct {
	UserID string `json:"userId"`
	Mode   string `json:"mode"`
	Count  int64  `json:"count"`
}

// TableDump holds the first rows of the users and activities tables
type TableDump struct {
	Counts     DatasetCounts `json:"counts"`
	Users      []User        `json:"users"`
	Activities []Activity    `json:"activities"`
}
