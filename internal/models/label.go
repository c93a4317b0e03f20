package models

import "time"

// LabelInterval is a human-annotated window asserting the transportation
// mode used between Start and End. It is never persisted.
type LabelInterval struct {
	UserID string
	Start  time.Time
	End    time.Time
	Mode   string
}
