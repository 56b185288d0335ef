package models

import "time"

// EventType is the visibility class of a calendar event.
type EventType string

const (
	EventPublic  EventType = "Public"
	EventPrivate EventType = "Private"
	EventHoliday EventType = "Holiday"
)

// TypeOptions returns the event types an actor with the given role may pick.
func TypeOptions(role Role) []EventType {
	if role.IsEmployee() {
		return []EventType{EventPrivate}
	}
	return []EventType{EventPublic, EventHoliday, EventPrivate}
}

// DefaultEventType is the type preselected for a new event.
func DefaultEventType(role Role) EventType {
	if role.IsEmployee() {
		return EventPrivate
	}
	return EventPublic
}

// AllowsType reports whether role may create events of type t.
func AllowsType(role Role, t EventType) bool {
	for _, opt := range TypeOptions(role) {
		if opt == t {
			return true
		}
	}
	return false
}

// Event is a calendar event as returned by the backend.
type Event struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        EventType `json:"type"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Receivers   []User    `json:"receivers"`
}

// EventPayload is the body of POST /events and PATCH /events/:id.
// Receivers carries user identities only.
type EventPayload struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        EventType `json:"type"`
	EventType   EventType `json:"eventType"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Receivers   []string  `json:"receivers"`
}

// EventList is the response of GET /events.
type EventList struct {
	Events []Event `json:"events"`
}

// UserList is the response of GET /users?name=.
type UserList struct {
	Users []User `json:"users"`
}
