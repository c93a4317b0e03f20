package models

// User is one dataset participant, keyed by its directory name.
type User struct {
	ID        string `json:"id" db:"id"`
	HasLabels bool   `json:"hasLabels" db:"has_labels"`
}
