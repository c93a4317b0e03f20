package dataset

import (
	"fmt"
	"strconv"
)

// Key is the explicit two-part identity of an activity
type Key struct {
	UserID string
	Stem   string
}

func (k Key) String() string {
	return k.UserID + "/" + k.Stem
}

// ActivityID derives the single-column activity id by concatenating the
// user id and the file stem and parsing the result as a base-10 int64.
// Both parts must be non-empty digit strings.
func ActivityID(userID, stem string) (int64, error) {
	if !isDigits(userID) {
		return 0, fmt.Errorf("user id %q is not numeric", userID)
	}
	if !isDigits(stem) {
		return 0, fmt.Errorf("file stem %q is not numeric", stem)
	}
	id, err := strconv.ParseInt(userID+stem, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("activity id %s%s: %w", userID, stem, err)
	}
	return id, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Registry remembers which key owns each derived id. Concatenation is not
// injective (user "1" + "23" and user "12" + "3" both give 123), so the
// first key to claim an id keeps it and later keys are rejected.
type Registry struct {
	owners map[int64]Key
}

func NewRegistry() *Registry {
	return &Registry{owners: make(map[int64]Key)}
}

// Claim assigns id to key. It returns the current owner and false when
// another key already holds the id. Claiming the same key twice succeeds.
func (r *Registry) Claim(id int64, key Key) (Key, bool) {
	if owner, ok := r.owners[id]; ok && owner != key {
		return owner, false
	}
	r.owners[id] = key
	return key, true
}

// Len returns the number of claimed ids.
func (r *Registry) Len() int {
	return len(r.owners)
}
