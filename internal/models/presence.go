package models

import "time"

// Presence is a user's last-known connection state. LastSeen is nil while
// the user is online and set to the moment they went offline otherwise.
// A user never observed defaults to offline with no LastSeen.
type Presence struct {
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// Colleague is one entry of a contacts listing, carrying the presence
// snapshot the server held at query time.
type Colleague struct {
	UserID   int64    `json:"user_id"`
	Name     string   `json:"name"`
	Role     Role     `json:"role"`
	Presence Presence `json:"presence"`
}

// Actor identifies the local session user.
type Actor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}
