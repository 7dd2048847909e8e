// Package model defines the data structures used throughout the application.
package model

// Sport is a row of the sports lookup table. The ID doubles as the
// upstream API's sportId.
type Sport struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User represents a chat user. Users are created out-of-band (see cmd/seed)
// and are read-only for the chat flow.
//
// Sport is nil when the user has no favourite sport; tools then query the
// upstream API without a sportId.
type User struct {
	ID    int64  `json:"id"    db:"id"`
	Name  string `json:"name"  db:"name"`
	Sport *Sport `json:"favoriteSport,omitempty"`
}

// Preferences is the per-turn snapshot of the user's favourite sport.
//
// It is computed at the start of every chat turn and passed by value to the
// tools built for that turn, so concurrent turns never share it.
type Preferences struct {
	SportID   int64
	SportName string
}

// PreferencesFor derives the snapshot for a user. A user without a sport
// yields the zero value.
func PreferencesFor(u *User) Preferences {
	if u == nil || u.Sport == nil {
		return Preferences{}
	}
	return Preferences{SportID: u.Sport.ID, SportName: u.Sport.Name}
}

// HasSport reports whether the snapshot names a sport.
func (p Preferences) HasSport() bool {
	return p.SportID != 0
}
