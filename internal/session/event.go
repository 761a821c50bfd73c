package session

import "time"

// EventType names a session lifecycle change.
type EventType string

const (
	EventLogin   EventType = "login"
	EventLogout  EventType = "logout"
	EventExpired EventType = "expired"
)

// Event is published on every session lifecycle change.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	Role      string    `json:"role,omitempty"`
	Origin    string    `json:"origin"`
	At        time.Time `json:"at"`
}

// Ended reports whether the event terminates the session.
func (e Event) Ended() bool {
	return e.Type == EventLogout || e.Type == EventExpired
}
