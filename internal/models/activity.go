package models

import "time"

// TimeLayout is the storage format of every persisted timestamp (UTC).
const TimeLayout = "2006-01-02 15:04:05"

// Activity is one recorded trajectory file of a user.
//
// ID is derived from the user id and file stem (see dataset.ActivityID);
// (UserID, FileStem) is the explicit two-part key behind it.
type Activity struct {
	ID       int64     `json:"id" db:"id"`
	UserID   string    `json:"userId" db:"user_id"`
	FileStem string    `json:"fileStem" db:"file_stem"`
	Mode     *string   `json:"transportationMode,omitempty" db:"transportation_mode"`
	Start    time.Time `json:"startDateTime" db:"start_date_time"`
	End      time.Time `json:"endDateTime" db:"end_date_time"`
}

// ModeOrEmpty returns the transportation mode or "" when unset.
func (a Activity) ModeOrEmpty() string {
	if a.Mode == nil {
		return ""
	}
	return *a.Mode
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a value written by FormatTime.
func ParseTime(s string) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, s, time.UTC)
}
